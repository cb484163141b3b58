package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cascade-engine/domain/core/entities"
	"cascade-engine/domain/core/valueobjects"
	pkgerrors "cascade-engine/pkg/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(zap.NewNop())
}

func mustObject(t *testing.T, kind entities.ObjectKind, name string) *entities.SceneObject {
	t.Helper()
	obj, err := entities.NewSceneObject(kind, name)
	require.NoError(t, err)
	return obj
}

func TestStore_AddAndGetObject(t *testing.T) {
	// Arrange
	s := newTestStore(t)
	obj := mustObject(t, entities.KindChannel, "Main Channel")

	// Act
	err := s.AddObject(obj)

	// Assert
	require.NoError(t, err)
	got, err := s.GetObject(obj.ID())
	require.NoError(t, err)
	assert.Equal(t, "Main Channel", got.Name())
	assert.Equal(t, 1, s.Count())
}

func TestStore_AddObject_DuplicateIDConflicts(t *testing.T) {
	s := newTestStore(t)
	obj := mustObject(t, entities.KindShape, "Box")
	require.NoError(t, s.AddObject(obj))

	err := s.AddObject(obj)

	assert.True(t, pkgerrors.IsConflict(err))
}

func TestStore_GetObject_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetObject(valueobjects.NewObjectID())

	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestStore_DeleteObject_RemovesFromSelection(t *testing.T) {
	// Arrange
	s := newTestStore(t)
	obj := mustObject(t, entities.KindShape, "Box")
	require.NoError(t, s.AddObject(obj))
	s.SetSelection([]valueobjects.ObjectID{obj.ID()})

	// Act
	require.NoError(t, s.DeleteObject(obj.ID()))

	// Assert
	assert.Equal(t, 0, s.Count())
	assert.Empty(t, s.Selection())
}

func TestStore_SetSelection_DropsUnknownIDs(t *testing.T) {
	s := newTestStore(t)
	obj := mustObject(t, entities.KindShape, "Box")
	require.NoError(t, s.AddObject(obj))

	s.SetSelection([]valueobjects.ObjectID{obj.ID(), valueobjects.NewObjectID()})

	assert.Equal(t, []valueobjects.ObjectID{obj.ID()}, s.Selection())
}

func TestStore_UpdateObject_LengthChangeRecomputesEnd(t *testing.T) {
	// Arrange
	s := newTestStore(t)
	channel := mustObject(t, entities.KindChannel, "Channel A")
	h := channel.Hydraulic()
	h.StartStation = 0
	h.StartElevation = 100.0
	h.Slope = 0.01
	h.ComputeEnd(entities.KindChannel)
	require.NoError(t, s.AddObject(channel))

	length := 20.0

	// Act
	change, err := s.UpdateObject(channel.ID(), UpdateRequest{
		Hydraulic: &HydraulicPatch{Length: &length},
	})

	// Assert
	require.NoError(t, err)
	assert.True(t, change.PositionAffecting)
	assert.False(t, change.SectionAffecting)
	assert.InDelta(t, 20.0, channel.Hydraulic().EndStation, 1e-9)
	assert.InDelta(t, 99.8, channel.Hydraulic().EndElevation, 1e-9)
}

func TestStore_Record_ReturnsDetachedCopy(t *testing.T) {
	// Arrange
	s := newTestStore(t)
	channel := mustObject(t, entities.KindChannel, "Channel A")
	require.NoError(t, s.AddObject(channel))

	rec, err := s.Record(channel.ID())
	require.NoError(t, err)
	before := rec.Hydraulic.Length

	// Act: mutate the live object after the record was taken.
	length := before + 7.0
	_, err = s.UpdateObject(channel.ID(), UpdateRequest{
		Hydraulic: &HydraulicPatch{Length: &length},
	})
	require.NoError(t, err)

	// Assert: the record kept its values, a fresh one sees the update.
	assert.Equal(t, before, rec.Hydraulic.Length)
	fresh, err := s.Record(channel.ID())
	require.NoError(t, err)
	assert.Equal(t, length, fresh.Hydraulic.Length)
}

func TestStore_Record_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Record(valueobjects.NewObjectID())

	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestStore_SnapshotRecords_ConcurrentWithUpdates(t *testing.T) {
	// Arrange
	s := newTestStore(t)
	channel := mustObject(t, entities.KindChannel, "Channel A")
	require.NoError(t, s.AddObject(channel))

	// Act: one writer patching hydraulic fields, one reader converting to
	// records. Both sides take the store lock, so every record is
	// internally consistent.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			length := float64(i + 1)
			_, _ = s.UpdateObject(channel.ID(), UpdateRequest{
				Hydraulic: &HydraulicPatch{Length: &length},
			})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			for _, rec := range s.SnapshotRecords() {
				_ = rec.Hydraulic.Length
			}
			_, _ = s.Record(channel.ID())
		}
	}()
	wg.Wait()

	// Assert
	rec, err := s.Record(channel.ID())
	require.NoError(t, err)
	assert.Equal(t, 500.0, rec.Hydraulic.Length)
}

func TestStore_UpdateObject_SameValueIsNoChange(t *testing.T) {
	s := newTestStore(t)
	channel := mustObject(t, entities.KindChannel, "Channel A")
	require.NoError(t, s.AddObject(channel))

	length := channel.Hydraulic().Length
	change, err := s.UpdateObject(channel.ID(), UpdateRequest{
		Hydraulic: &HydraulicPatch{Length: &length},
	})

	require.NoError(t, err)
	assert.False(t, change.Any())
}

func TestStore_UpdateObject_SectionChangeFlagged(t *testing.T) {
	s := newTestStore(t)
	channel := mustObject(t, entities.KindChannel, "Channel A")
	require.NoError(t, s.AddObject(channel))

	section := channel.Hydraulic().Section
	section.BottomWidth = 3.0
	change, err := s.UpdateObject(channel.ID(), UpdateRequest{
		Hydraulic: &HydraulicPatch{Section: &section},
	})

	require.NoError(t, err)
	assert.True(t, change.SectionAffecting)
	assert.False(t, change.PositionAffecting)
}

func TestStore_UpdateObject_HydraulicPatchOnShapeFails(t *testing.T) {
	s := newTestStore(t)
	box := mustObject(t, entities.KindShape, "Box")
	require.NoError(t, s.AddObject(box))

	slope := 0.01
	_, err := s.UpdateObject(box.ID(), UpdateRequest{
		Hydraulic: &HydraulicPatch{Slope: &slope},
	})

	assert.True(t, pkgerrors.IsValidation(err))
}

func TestStore_ReplaceWithCompound_AtomicSwap(t *testing.T) {
	// Arrange
	s := newTestStore(t)
	a := mustObject(t, entities.KindShape, "Box A")
	b := mustObject(t, entities.KindShape, "Box B")
	require.NoError(t, s.AddObject(a))
	require.NoError(t, s.AddObject(b))
	result := mustObject(t, entities.KindShape, "Box A + Box B")

	// Act
	err := s.ReplaceWithCompound([]valueobjects.ObjectID{a.ID(), b.ID()}, result)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, s.Count())
	_, err = s.GetObject(a.ID())
	assert.True(t, pkgerrors.IsNotFound(err))
	got, err := s.GetObject(result.ID())
	require.NoError(t, err)
	assert.Equal(t, "Box A + Box B", got.Name())
	assert.Equal(t, []valueobjects.ObjectID{result.ID()}, s.Selection())
}

func TestStore_ReplaceWithCompound_MissingOperandFails(t *testing.T) {
	s := newTestStore(t)
	a := mustObject(t, entities.KindShape, "Box A")
	require.NoError(t, s.AddObject(a))
	result := mustObject(t, entities.KindShape, "Result")

	err := s.ReplaceWithCompound(
		[]valueobjects.ObjectID{a.ID(), valueobjects.NewObjectID()}, result)

	// The swap is all-or-nothing: the operand that does exist survives.
	assert.True(t, pkgerrors.IsNotFound(err))
	assert.Equal(t, 1, s.Count())
	_, getErr := s.GetObject(a.ID())
	assert.NoError(t, getErr)
}

func TestStore_HydraulicObjects_FiltersKinds(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddObject(mustObject(t, entities.KindChannel, "Channel")))
	require.NoError(t, s.AddObject(mustObject(t, entities.KindShape, "Box")))
	require.NoError(t, s.AddObject(mustObject(t, entities.KindChute, "Chute")))

	hydraulics := s.HydraulicObjects()

	assert.Len(t, hydraulics, 2)
}
