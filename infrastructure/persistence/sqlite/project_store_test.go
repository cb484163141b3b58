package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cascade-engine/application/store"
	"cascade-engine/domain/core/entities"
	pkgerrors "cascade-engine/pkg/errors"
)

func newTestStore(t *testing.T) *ProjectStore {
	t.Helper()
	s, err := NewProjectStore(filepath.Join(t.TempDir(), "cascade.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleScene(t *testing.T) *store.SceneData {
	t.Helper()
	obj, err := entities.NewSceneObject(entities.KindChannel, "Main Canal")
	require.NoError(t, err)
	return &store.SceneData{
		Objects:      []store.ObjectRecord{store.RecordFromObject(obj)},
		Layers:       []entities.Layer{entities.DefaultLayer()},
		HistoryIndex: -1,
	}
}

func TestSaveAndLoadProject(t *testing.T) {
	// Arrange
	s := newTestStore(t)
	scene := sampleScene(t)

	// Act
	require.NoError(t, s.SaveProject(context.Background(), "dam-outlet", scene))
	loaded, err := s.LoadProject(context.Background(), "dam-outlet")

	// Assert
	require.NoError(t, err)
	require.Len(t, loaded.Objects, 1)
	assert.Equal(t, "Main Canal", loaded.Objects[0].Name)
	assert.Equal(t, scene.Objects[0].ID, loaded.Objects[0].ID)
	assert.Equal(t, -1, loaded.HistoryIndex)
}

func TestSaveProjectUpserts(t *testing.T) {
	// Arrange
	s := newTestStore(t)
	require.NoError(t, s.SaveProject(context.Background(), "dam-outlet", sampleScene(t)))
	updated := sampleScene(t)
	updated.Objects[0].Name = "Renamed Canal"

	// Act
	require.NoError(t, s.SaveProject(context.Background(), "dam-outlet", updated))

	// Assert: still one project, holding the newer document.
	projects, err := s.ListProjects(context.Background())
	require.NoError(t, err)
	assert.Len(t, projects, 1)

	loaded, err := s.LoadProject(context.Background(), "dam-outlet")
	require.NoError(t, err)
	assert.Equal(t, "Renamed Canal", loaded.Objects[0].Name)
}

func TestSaveProjectRequiresName(t *testing.T) {
	s := newTestStore(t)

	err := s.SaveProject(context.Background(), "", sampleScene(t))

	assert.True(t, pkgerrors.IsValidation(err))
}

func TestLoadMissingProject(t *testing.T) {
	s := newTestStore(t)

	_, err := s.LoadProject(context.Background(), "nope")

	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestListProjects(t *testing.T) {
	// Arrange
	s := newTestStore(t)
	require.NoError(t, s.SaveProject(context.Background(), "alpha", sampleScene(t)))
	require.NoError(t, s.SaveProject(context.Background(), "beta", sampleScene(t)))

	// Act
	projects, err := s.ListProjects(context.Background())

	// Assert
	require.NoError(t, err)
	require.Len(t, projects, 2)
	names := []string{projects[0].Name, projects[1].Name}
	assert.ElementsMatch(t, []string{"alpha", "beta"}, names)
}

func TestDeleteProject(t *testing.T) {
	// Arrange
	s := newTestStore(t)
	require.NoError(t, s.SaveProject(context.Background(), "alpha", sampleScene(t)))

	// Act
	require.NoError(t, s.DeleteProject(context.Background(), "alpha"))

	// Assert
	_, err := s.LoadProject(context.Background(), "alpha")
	assert.True(t, pkgerrors.IsNotFound(err))
	assert.True(t, pkgerrors.IsNotFound(s.DeleteProject(context.Background(), "alpha")))
}
