package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"cascade-engine/infrastructure/persistence/sqlite"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List saved projects",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		projects, err := sqlite.NewProjectStore(cfg.Persistence.DatabasePath)
		if err != nil {
			return fmt.Errorf("open project store: %w", err)
		}
		defer projects.Close()

		infos, err := projects.ListProjects(cmd.Context())
		if err != nil {
			return err
		}
		if len(infos) == 0 {
			cmd.Println("no saved projects")
			return nil
		}
		for _, info := range infos {
			cmd.Printf("%-30s updated %s\n", info.Name, info.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(projectsCmd)
}
