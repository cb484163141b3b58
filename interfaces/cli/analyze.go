package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cascade-engine/application/engine"
	"cascade-engine/infrastructure/kernel"
	"cascade-engine/infrastructure/persistence/sqlite"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <project>",
	Short: "Run the design rule analysis over a saved project",
	Long: `Loads a project from the local database, runs the full notification
analysis and prints the findings as JSON. The geometry kernel is not
required; shape geometry plays no part in the design rules.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(ctx context.Context, projectName string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := buildLogger(cfg)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	projects, err := sqlite.NewProjectStore(cfg.Persistence.DatabasePath)
	if err != nil {
		return fmt.Errorf("open project store: %w", err)
	}
	defer projects.Close()

	data, err := projects.LoadProject(ctx, projectName)
	if err != nil {
		return fmt.Errorf("load project %q: %w", projectName, err)
	}

	kernelClient := kernel.New(cfg.Kernel, nil, logger)
	eng := engine.New(kernelClient, cfg.ToDomain(), logger)
	if err := eng.LoadScene(ctx, data); err != nil {
		return fmt.Errorf("load scene: %w", err)
	}

	notifications := eng.AnalyzeScene()

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(notifications)
}
