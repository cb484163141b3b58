package bridge

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cascade-engine/application/history"
	"cascade-engine/application/ports"
	"cascade-engine/application/store"
	domainconfig "cascade-engine/domain/config"
	"cascade-engine/domain/core/entities"
	"cascade-engine/domain/core/valueobjects"
	pkgerrors "cascade-engine/pkg/errors"
)

// fakeKernel is an in-memory stand-in for the geometry service. Shapes are
// just ids in a set; counters record how often each operation ran so tests
// can assert on the exact call pattern.
type fakeKernel struct {
	nextID int
	shapes map[string]bool

	createCalls    int
	booleanCalls   int
	transformCalls int

	failBoolean    error
	failTessellate error
}

func newFakeKernel() *fakeKernel {
	return &fakeKernel{shapes: make(map[string]bool)}
}

func (f *fakeKernel) newShape() string {
	f.nextID++
	id := fmt.Sprintf("shape-%d", f.nextID)
	f.shapes[id] = true
	return id
}

// Restart simulates a kernel process restart: all shapes are gone.
func (f *fakeKernel) Restart() {
	f.shapes = make(map[string]bool)
}

func (f *fakeKernel) CreatePrimitive(_ context.Context, _ ports.PrimitiveKind, _ map[string]float64) (ports.ShapeResult, error) {
	f.createCalls++
	return ports.ShapeResult{
		ID:       f.newShape(),
		Analysis: &ports.ShapeAnalysis{Volume: 1, SurfaceArea: 6, IsValid: true},
	}, nil
}

func (f *fakeKernel) Boolean(_ context.Context, _ ports.BooleanOp, idA, idB string) (ports.ShapeResult, error) {
	f.booleanCalls++
	if f.failBoolean != nil {
		return ports.ShapeResult{}, f.failBoolean
	}
	if !f.shapes[idA] || !f.shapes[idB] {
		return ports.ShapeResult{}, errors.New("operand missing")
	}
	return ports.ShapeResult{ID: f.newShape()}, nil
}

func (f *fakeKernel) Modify(_ context.Context, _ ports.ModifyOp, id string, _ float64) (ports.ShapeResult, error) {
	if !f.shapes[id] {
		return ports.ShapeResult{}, errors.New("shape missing")
	}
	return ports.ShapeResult{ID: f.newShape()}, nil
}

func (f *fakeKernel) Transform(_ context.Context, _ ports.TransformOp, id string, _ ...float64) (ports.ShapeResult, error) {
	f.transformCalls++
	if !f.shapes[id] {
		return ports.ShapeResult{}, errors.New("shape missing")
	}
	return ports.ShapeResult{ID: f.newShape()}, nil
}

func (f *fakeKernel) Tessellate(_ context.Context, id string, _ float64) (*valueobjects.Mesh, error) {
	if f.failTessellate != nil {
		return nil, f.failTessellate
	}
	if !f.shapes[id] {
		return nil, errors.New("shape missing")
	}
	return &valueobjects.Mesh{
		Vertices: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		Indices:  []uint32{0, 1, 2},
	}, nil
}

func (f *fakeKernel) ShapeExists(_ context.Context, id string) (bool, error) {
	return f.shapes[id], nil
}

func (f *fakeKernel) DeleteShape(_ context.Context, id string) error {
	delete(f.shapes, id)
	return nil
}

func (f *fakeKernel) ClearAll(context.Context) error {
	f.Restart()
	return nil
}

func (f *fakeKernel) SerializeShape(_ context.Context, id string) (string, error) {
	if !f.shapes[id] {
		return "", errors.New("shape missing")
	}
	return "brep:" + id, nil
}

func (f *fakeKernel) ImportStep(context.Context, string) (ports.ShapeResult, error) {
	return ports.ShapeResult{ID: f.newShape()}, nil
}

var _ ports.KernelClient = (*fakeKernel)(nil)

func newTestBridge(t *testing.T) (*Bridge, *fakeKernel, *store.Store, *history.Engine) {
	t.Helper()
	kernel := newFakeKernel()
	s := store.New(zap.NewNop())
	h := history.NewEngine(s, domainconfig.DefaultDomainConfig().MaxHistoryEntries, zap.NewNop())
	b := New(kernel, s, h, domainconfig.DefaultDomainConfig(), zap.NewNop())
	return b, kernel, s, h
}

func boxParams() map[string]float64 {
	return map[string]float64{
		ports.ParamWidth:  1,
		ports.ParamHeight: 1,
		ports.ParamDepth:  1,
	}
}

func TestCreatePrimitive(t *testing.T) {
	// Arrange
	b, kernel, s, h := newTestBridge(t)

	// Act
	obj, err := b.CreatePrimitive(context.Background(), ports.PrimitiveBox, "Box A", boxParams())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, s.Count())
	assert.Equal(t, 1, kernel.createCalls)
	assert.Equal(t, string(ports.PrimitiveBox), obj.MetadataString(entities.MetaPrimitiveType))
	assert.NotEmpty(t, obj.MetadataString(entities.MetaBackendShapeID))
	require.NotNil(t, obj.Mesh())
	assert.Equal(t, 3, obj.Mesh().VertexCount())

	backendID, ok := b.BackendID(obj.ID())
	assert.True(t, ok)
	assert.Equal(t, obj.MetadataString(entities.MetaBackendShapeID), backendID)

	require.Equal(t, 1, h.Len())
	assert.Equal(t, "Create box", h.Entries()[0].Label)
}

func TestCreatePrimitiveRejectsNonPositiveParams(t *testing.T) {
	b, _, s, _ := newTestBridge(t)

	_, err := b.CreatePrimitive(context.Background(), ports.PrimitiveBox, "Bad Box", map[string]float64{
		ports.ParamWidth:  1,
		ports.ParamHeight: 0,
		ports.ParamDepth:  1,
	})

	assert.True(t, pkgerrors.IsValidation(err))
	assert.Equal(t, 0, s.Count())
}

func TestCreatePrimitiveRejectsUnknownKind(t *testing.T) {
	b, _, _, _ := newTestBridge(t)

	_, err := b.CreatePrimitive(context.Background(), ports.PrimitiveKind("extrusion"), "X", nil)

	assert.True(t, pkgerrors.IsValidation(err))
}

func TestEnsureShapeInBackendIsIdempotent(t *testing.T) {
	// Arrange
	b, kernel, _, _ := newTestBridge(t)
	obj, err := b.CreatePrimitive(context.Background(), ports.PrimitiveBox, "Box", boxParams())
	require.NoError(t, err)

	// Act: ensure twice while the kernel still holds the shape.
	first, err := b.EnsureShapeInBackend(context.Background(), obj.ID())
	require.NoError(t, err)
	second, err := b.EnsureShapeInBackend(context.Background(), obj.ID())
	require.NoError(t, err)

	// Assert: same id both times, no extra kernel create.
	assert.Equal(t, first, second)
	assert.Equal(t, 1, kernel.createCalls)
}

func TestEnsureShapeInBackendRecreatesAfterKernelRestart(t *testing.T) {
	// Arrange
	b, kernel, s, _ := newTestBridge(t)
	obj, err := b.CreatePrimitive(context.Background(), ports.PrimitiveBox, "Box", boxParams())
	require.NoError(t, err)
	staleID, _ := b.BackendID(obj.ID())

	kernel.Restart()

	// Act
	freshID, err := b.EnsureShapeInBackend(context.Background(), obj.ID())

	// Assert: stale mapping dropped, primitive rebuilt from stored params.
	require.NoError(t, err)
	assert.NotEqual(t, staleID, freshID)
	assert.Equal(t, 2, kernel.createCalls)

	current, err := s.GetObject(obj.ID())
	require.NoError(t, err)
	assert.Equal(t, freshID, current.MetadataString(entities.MetaBackendShapeID))
}

func TestEnsureShapeInBackendFailsForNonRecreatableShape(t *testing.T) {
	// Arrange: a compound has no parameters to recreate from.
	b, kernel, s, _ := newTestBridge(t)
	obj, err := entities.NewSceneObject(entities.KindShape, "Fused")
	require.NoError(t, err)
	obj.SetMetadata(entities.MetaPrimitiveType, "compound")
	require.NoError(t, s.AddObject(obj))

	kernel.Restart()

	// Act
	_, err = b.EnsureShapeInBackend(context.Background(), obj.ID())

	// Assert
	assert.True(t, pkgerrors.IsKernelUnavailable(err))
}

func TestFuseShapesReplacesOperandsWithOneCompound(t *testing.T) {
	// Arrange
	b, kernel, s, h := newTestBridge(t)
	a, err := b.CreatePrimitive(context.Background(), ports.PrimitiveBox, "Box A", boxParams())
	require.NoError(t, err)
	c, err := b.CreatePrimitive(context.Background(), ports.PrimitiveCylinder, "Pipe", map[string]float64{
		ports.ParamRadius: 0.5,
		ports.ParamHeight: 2,
	})
	require.NoError(t, err)
	entriesBefore := h.Len()

	// Act
	result, err := b.FuseShapes(context.Background(), a.ID(), c.ID())

	// Assert: exactly one object remains and it is the compound.
	require.NoError(t, err)
	assert.Equal(t, 1, s.Count())
	assert.Equal(t, "Box A + Pipe", result.Name())
	assert.Equal(t, "fuse", result.MetadataString(entities.MetaOperation))
	assert.Equal(t, "compound", result.MetadataString(entities.MetaPrimitiveType))
	assert.Equal(t, []valueobjects.ObjectID{result.ID()}, s.Selection())
	assert.Equal(t, 1, kernel.booleanCalls)

	// Operand kernel shapes were cleaned up and their mappings dropped.
	_, ok := b.BackendID(a.ID())
	assert.False(t, ok)
	_, ok = b.BackendID(result.ID())
	assert.True(t, ok)

	// The whole pipeline is a single undo step.
	assert.Equal(t, entriesBefore+1, h.Len())
}

func TestFuseShapesAfterKernelRestart(t *testing.T) {
	// Arrange: two boxes, then the kernel loses every shape.
	b, kernel, s, h := newTestBridge(t)
	a, err := b.CreatePrimitive(context.Background(), ports.PrimitiveBox, "Box A", boxParams())
	require.NoError(t, err)
	c, err := b.CreatePrimitive(context.Background(), ports.PrimitiveBox, "Box B", boxParams())
	require.NoError(t, err)
	entriesBefore := h.Len()

	kernel.Restart()

	// Act: the pipeline recreates both operands lazily and fuses them.
	result, err := b.FuseShapes(context.Background(), a.ID(), c.ID())

	// Assert: recording the recreated backend ids on the operands did not
	// trip the concurrent-edit check.
	require.NoError(t, err)
	assert.Equal(t, 1, s.Count())
	assert.Equal(t, "Box A + Box B", result.Name())
	assert.Equal(t, 4, kernel.createCalls)
	assert.Equal(t, entriesBefore+1, h.Len())
}

func TestExecuteBooleanLeavesOnlyResultShapeInKernel(t *testing.T) {
	// Arrange: three boxes, the first carrying a rotation and translation so
	// the bake produces intermediate shapes of its own.
	b, kernel, s, _ := newTestBridge(t)
	ids := make([]valueobjects.ObjectID, 3)
	for i := range ids {
		obj, err := b.CreatePrimitive(context.Background(), ports.PrimitiveBox, fmt.Sprintf("B%d", i), boxParams())
		require.NoError(t, err)
		ids[i] = obj.ID()
	}
	first, err := s.GetObject(ids[0])
	require.NoError(t, err)
	tr := valueobjects.IdentityTransform()
	tr.Rotation = valueobjects.Vector3{Z: 0.5}
	tr.Position = valueobjects.Vector3{X: 5}
	first.SetTransform(tr)

	// Act
	result, err := b.ExecuteBooleanUnion(context.Background(), ids)

	// Assert: baked and fold intermediates were deleted along with the
	// operand shapes; only the compound survives in the kernel.
	require.NoError(t, err)
	resultBackend, ok := b.BackendID(result.ID())
	require.True(t, ok)
	assert.Equal(t, map[string]bool{resultBackend: true}, kernel.shapes)
}

func TestExecuteBooleanNeedsTwoOperands(t *testing.T) {
	b, _, _, _ := newTestBridge(t)
	obj, err := b.CreatePrimitive(context.Background(), ports.PrimitiveBox, "Box", boxParams())
	require.NoError(t, err)

	_, err = b.ExecuteBoolean(context.Background(), ports.BooleanFuse, []valueobjects.ObjectID{obj.ID()})

	assert.True(t, pkgerrors.IsValidation(err))
}

func TestExecuteBooleanFailureLeavesSceneUntouched(t *testing.T) {
	// Arrange
	b, kernel, s, h := newTestBridge(t)
	a, err := b.CreatePrimitive(context.Background(), ports.PrimitiveBox, "Box A", boxParams())
	require.NoError(t, err)
	c, err := b.CreatePrimitive(context.Background(), ports.PrimitiveBox, "Box B", boxParams())
	require.NoError(t, err)
	entriesBefore := h.Len()
	kernel.failBoolean = errors.New("kernel panic")

	// Act
	_, err = b.ExecuteBoolean(context.Background(), ports.BooleanFuse, []valueobjects.ObjectID{a.ID(), c.ID()})

	// Assert: both operands still in the scene, pending snapshot discarded.
	assert.True(t, pkgerrors.IsKernelOperation(err))
	assert.Equal(t, 2, s.Count())
	assert.Equal(t, entriesBefore, h.Len())
	assert.False(t, h.HasPending())
}

func TestExecuteBooleanMultiOperandFoldsLeftToRight(t *testing.T) {
	// Arrange
	b, kernel, s, _ := newTestBridge(t)
	ids := make([]valueobjects.ObjectID, 3)
	for i := range ids {
		obj, err := b.CreatePrimitive(context.Background(), ports.PrimitiveBox, fmt.Sprintf("B%d", i), boxParams())
		require.NoError(t, err)
		ids[i] = obj.ID()
	}

	// Act
	result, err := b.ExecuteBooleanUnion(context.Background(), ids)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, s.Count())
	assert.Equal(t, 2, kernel.booleanCalls)
	assert.Equal(t, "B0 + B1 + B2", result.Name())
}

func TestApplyTransformToBackendSkipsIdentitySteps(t *testing.T) {
	// Arrange
	b, kernel, _, _ := newTestBridge(t)
	obj, err := b.CreatePrimitive(context.Background(), ports.PrimitiveBox, "Box", boxParams())
	require.NoError(t, err)
	backendID, _ := b.BackendID(obj.ID())

	// Act: identity transform triggers no kernel calls at all.
	same, err := b.ApplyTransformToBackend(context.Background(), backendID, valueobjects.IdentityTransform())
	require.NoError(t, err)
	assert.Equal(t, backendID, same)
	assert.Equal(t, 0, kernel.transformCalls)

	// Act: a translation bakes exactly one transform.
	tr := valueobjects.IdentityTransform()
	tr.Position = valueobjects.Vector3{X: 5, Y: 0, Z: 0}
	moved, err := b.ApplyTransformToBackend(context.Background(), backendID, tr)

	// Assert
	require.NoError(t, err)
	assert.NotEqual(t, backendID, moved)
	assert.Equal(t, 1, kernel.transformCalls)
}

func TestApplyModification(t *testing.T) {
	// Arrange
	b, _, s, h := newTestBridge(t)
	obj, err := b.CreatePrimitive(context.Background(), ports.PrimitiveBox, "Box", boxParams())
	require.NoError(t, err)
	entriesBefore := h.Len()

	// Act
	result, err := b.ApplyModification(context.Background(), ports.ModifyFillet, obj.ID(), 0.1)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, s.Count())
	assert.Equal(t, "Box", result.Name())
	assert.Equal(t, string(ports.ModifyFillet), result.MetadataString(entities.MetaOperation))
	assert.Equal(t, entriesBefore+1, h.Len())
}

func TestApplyModificationRejectsNonPositiveParameter(t *testing.T) {
	b, _, _, _ := newTestBridge(t)
	obj, err := b.CreatePrimitive(context.Background(), ports.PrimitiveBox, "Box", boxParams())
	require.NoError(t, err)

	_, err = b.ApplyModification(context.Background(), ports.ModifyFillet, obj.ID(), 0)

	assert.True(t, pkgerrors.IsValidation(err))
}

func TestUpdateShapeParametersMergesAndRegenerates(t *testing.T) {
	// Arrange
	b, kernel, s, h := newTestBridge(t)
	obj, err := b.CreatePrimitive(context.Background(), ports.PrimitiveBox, "Box", boxParams())
	require.NoError(t, err)
	oldBackend, _ := b.BackendID(obj.ID())
	entriesBefore := h.Len()

	// Act
	err = b.UpdateShapeParameters(context.Background(), obj.ID(), map[string]float64{
		ports.ParamHeight: 3,
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, kernel.createCalls)
	assert.False(t, kernel.shapes[oldBackend])

	current, err := s.GetObject(obj.ID())
	require.NoError(t, err)
	params, ok := current.Metadata()[entities.MetaPrimitiveParams].(map[string]float64)
	require.True(t, ok)
	assert.Equal(t, 3.0, params[ports.ParamHeight])
	assert.Equal(t, 1.0, params[ports.ParamWidth])

	assert.Equal(t, entriesBefore+1, h.Len())
}

func TestCleanupShapeIsBestEffort(t *testing.T) {
	// Arrange
	b, kernel, _, _ := newTestBridge(t)
	obj, err := b.CreatePrimitive(context.Background(), ports.PrimitiveBox, "Box", boxParams())
	require.NoError(t, err)
	backendID, _ := b.BackendID(obj.ID())

	// Act
	b.CleanupShape(context.Background(), obj.ID())

	// Assert
	assert.False(t, kernel.shapes[backendID])
	_, ok := b.BackendID(obj.ID())
	assert.False(t, ok)

	// A second cleanup of the same object is a no-op.
	b.CleanupShape(context.Background(), obj.ID())
}
