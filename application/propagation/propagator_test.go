package propagation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cascade-engine/application/store"
	"cascade-engine/domain/core/entities"
	pkgerrors "cascade-engine/pkg/errors"
)

func newTestChain(t *testing.T) (*store.Store, *Propagator) {
	t.Helper()
	s := store.New(zap.NewNop())
	return s, New(s, zap.NewNop())
}

func addElement(t *testing.T, s *store.Store, kind entities.ObjectKind, name string) *entities.SceneObject {
	t.Helper()
	obj, err := entities.NewSceneObject(kind, name)
	require.NoError(t, err)
	require.NoError(t, s.AddObject(obj))
	return obj
}

func TestPropagator_PropagatePositions_CascadesDownstream(t *testing.T) {
	// Arrange: A (length 10, slope 0.01, start elev 100) -> B (length 5)
	s, p := newTestChain(t)
	a := addElement(t, s, entities.KindChannel, "Channel A")
	b := addElement(t, s, entities.KindChannel, "Channel B")
	ah, bh := a.Hydraulic(), b.Hydraulic()
	ah.StartStation = 0
	ah.StartElevation = 100.0
	ah.Slope = 0.01
	bh.Length = 5.0
	require.NoError(t, p.ConnectElements(a.ID(), b.ID()))

	// Act: lengthen A and propagate.
	ah.Length = 20.0
	require.NoError(t, p.PropagatePositions(a.ID()))

	// Assert: B inherits A's new end as its start.
	assert.InDelta(t, 20.0, bh.StartStation, 1e-9)
	assert.InDelta(t, 25.0, bh.EndStation, 1e-9)
	assert.InDelta(t, 99.8, bh.StartElevation, 1e-9)
}

func TestPropagator_PropagatePositions_ElevationContinuity(t *testing.T) {
	// Arrange: channel -> chute -> channel
	s, p := newTestChain(t)
	channel := addElement(t, s, entities.KindChannel, "Approach")
	chute := addElement(t, s, entities.KindChute, "Drop")
	tail := addElement(t, s, entities.KindChannel, "Tail")

	channel.Hydraulic().StartElevation = 100.0
	channel.Hydraulic().Slope = 0.01
	chute.Hydraulic().Drop = 5.0
	chute.Hydraulic().Length = 8.0

	require.NoError(t, p.ConnectElements(channel.ID(), chute.ID()))
	require.NoError(t, p.ConnectElements(chute.ID(), tail.ID()))

	// Assert: 100 - 10*0.01 = 99.9 at the chute crest, 94.9 at its toe.
	assert.InDelta(t, 99.9, chute.Hydraulic().StartElevation, 1e-9)
	assert.InDelta(t, 94.9, tail.Hydraulic().StartElevation, 1e-9)
	assert.InDelta(t, 18.0, tail.Hydraulic().StartStation, 1e-9)
}

func TestPropagator_PropagatePositions_StampsCascadedNeighbor(t *testing.T) {
	// Arrange: A -> B, remember B's modification stamp.
	s, p := newTestChain(t)
	a := addElement(t, s, entities.KindChannel, "A")
	b := addElement(t, s, entities.KindChannel, "B")
	require.NoError(t, p.ConnectElements(a.ID(), b.ID()))
	before := b.UpdatedAt()
	time.Sleep(time.Millisecond)

	// Act: cascade a start change through the chain.
	a.Hydraulic().Length = 20.0
	require.NoError(t, p.PropagatePositions(a.ID()))

	// Assert: the cascaded write counts as a modification of B, so its
	// persisted record carries a current timestamp.
	assert.True(t, b.UpdatedAt().After(before))
}

func TestPropagator_PropagatePositionsUpstream_AdjustsTransitionEnd(t *testing.T) {
	// Arrange: transition -> channel, then move the channel start.
	s, p := newTestChain(t)
	transition := addElement(t, s, entities.KindTransition, "Inlet Transition")
	channel := addElement(t, s, entities.KindChannel, "Channel")
	require.NoError(t, p.ConnectElements(transition.ID(), channel.ID()))

	ch := channel.Hydraulic()
	ch.StartStation = 12.0
	ch.StartElevation = 98.5

	// Act
	require.NoError(t, p.PropagatePositionsUpstream(channel.ID()))

	// Assert
	th := transition.Hydraulic()
	assert.Equal(t, 12.0, th.EndStation)
	assert.Equal(t, 98.5, th.EndElevation)
}

func TestPropagator_PropagatePositionsUpstream_NonTransitionIsNoOp(t *testing.T) {
	s, p := newTestChain(t)
	a := addElement(t, s, entities.KindChannel, "A")
	b := addElement(t, s, entities.KindChannel, "B")
	require.NoError(t, p.ConnectElements(a.ID(), b.ID()))

	before := a.Hydraulic().EndStation
	b.Hydraulic().StartStation = 99.0
	require.NoError(t, p.PropagatePositionsUpstream(b.ID()))

	assert.Equal(t, before, a.Hydraulic().EndStation)
}

func TestPropagator_ConnectElements_RejectsCycle(t *testing.T) {
	// Arrange: A -> B -> C
	s, p := newTestChain(t)
	a := addElement(t, s, entities.KindChannel, "A")
	b := addElement(t, s, entities.KindChannel, "B")
	c := addElement(t, s, entities.KindChannel, "C")
	require.NoError(t, p.ConnectElements(a.ID(), b.ID()))
	require.NoError(t, p.ConnectElements(b.ID(), c.ID()))

	// Act: closing C -> A would form a loop.
	err := p.ConnectElements(c.ID(), a.ID())

	// Assert: rejected with no pointer written.
	assert.True(t, pkgerrors.IsValidation(err))
	assert.True(t, c.Hydraulic().DownstreamID.IsZero())
	assert.True(t, a.Hydraulic().UpstreamID.IsZero())
}

func TestPropagator_ConnectElements_RejectsSelfConnection(t *testing.T) {
	s, p := newTestChain(t)
	a := addElement(t, s, entities.KindChannel, "A")

	err := p.ConnectElements(a.ID(), a.ID())

	assert.True(t, pkgerrors.IsValidation(err))
}

func TestPropagator_ConnectElements_RejectsOccupiedSide(t *testing.T) {
	s, p := newTestChain(t)
	a := addElement(t, s, entities.KindChannel, "A")
	b := addElement(t, s, entities.KindChannel, "B")
	c := addElement(t, s, entities.KindChannel, "C")
	require.NoError(t, p.ConnectElements(a.ID(), b.ID()))

	err := p.ConnectElements(a.ID(), c.ID())

	assert.True(t, pkgerrors.IsConflict(err))
}

func TestPropagator_ConnectElements_RejectsNonHydraulic(t *testing.T) {
	s, p := newTestChain(t)
	a := addElement(t, s, entities.KindChannel, "A")
	box := addElement(t, s, entities.KindShape, "Box")

	err := p.ConnectElements(a.ID(), box.ID())

	assert.True(t, pkgerrors.IsValidation(err))
}

func TestPropagator_DisconnectElements_ClearsBothSides(t *testing.T) {
	s, p := newTestChain(t)
	a := addElement(t, s, entities.KindChannel, "A")
	b := addElement(t, s, entities.KindChannel, "B")
	require.NoError(t, p.ConnectElements(a.ID(), b.ID()))

	require.NoError(t, p.DisconnectElements(a.ID()))

	assert.True(t, a.Hydraulic().DownstreamID.IsZero())
	assert.True(t, b.Hydraulic().UpstreamID.IsZero())
}

func TestPropagator_RecalculateHydraulicChain_FromRoots(t *testing.T) {
	// Arrange: wire A -> B, then corrupt B's derived fields.
	s, p := newTestChain(t)
	a := addElement(t, s, entities.KindChannel, "A")
	b := addElement(t, s, entities.KindChannel, "B")
	a.Hydraulic().StartElevation = 100.0
	a.Hydraulic().Slope = 0.01
	require.NoError(t, p.ConnectElements(a.ID(), b.ID()))
	b.Hydraulic().StartStation = 777.0

	// Act
	p.RecalculateHydraulicChain()

	// Assert
	assert.InDelta(t, 10.0, b.Hydraulic().StartStation, 1e-9)
	assert.InDelta(t, 99.9, b.Hydraulic().StartElevation, 1e-9)
}

func TestPropagator_SyncTransitionsWithChannel(t *testing.T) {
	// Arrange: inlet transition -> channel -> outlet transition
	s, p := newTestChain(t)
	inlet := addElement(t, s, entities.KindTransition, "Inlet")
	channel := addElement(t, s, entities.KindChannel, "Channel")
	outlet := addElement(t, s, entities.KindTransition, "Outlet")
	require.NoError(t, p.ConnectElements(inlet.ID(), channel.ID()))
	require.NoError(t, p.ConnectElements(channel.ID(), outlet.ID()))

	section := channel.Hydraulic().Section
	section.BottomWidth = 3.5
	channel.Hydraulic().Section = section

	// Act
	require.NoError(t, p.SyncTransitionsWithChannel(channel.ID()))

	// Assert
	require.NotNil(t, inlet.Hydraulic().OutletSection)
	assert.Equal(t, 3.5, inlet.Hydraulic().OutletSection.BottomWidth)
	assert.Equal(t, 3.5, outlet.Hydraulic().Section.BottomWidth)
}

func TestPropagator_SyncTransitionElevationsFromDownstream(t *testing.T) {
	s, p := newTestChain(t)
	inlet := addElement(t, s, entities.KindTransition, "Inlet")
	channel := addElement(t, s, entities.KindChannel, "Channel")
	require.NoError(t, p.ConnectElements(inlet.ID(), channel.ID()))

	channel.Hydraulic().StartStation = 30.0
	channel.Hydraulic().StartElevation = 88.0

	require.NoError(t, p.SyncTransitionElevationsFromDownstream(channel.ID()))

	assert.Equal(t, 30.0, inlet.Hydraulic().EndStation)
	assert.Equal(t, 88.0, inlet.Hydraulic().EndElevation)
}
