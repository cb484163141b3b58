package bridge

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"cascade-engine/application/ports"
	"cascade-engine/domain/core/entities"
	"cascade-engine/domain/core/valueobjects"
	pkgerrors "cascade-engine/pkg/errors"
)

// FuseShapes unions two shapes into one compound
func (b *Bridge) FuseShapes(ctx context.Context, a, c valueobjects.ObjectID) (*entities.SceneObject, error) {
	return b.ExecuteBoolean(ctx, ports.BooleanFuse, []valueobjects.ObjectID{a, c})
}

// CutShapes subtracts the second shape from the first
func (b *Bridge) CutShapes(ctx context.Context, a, c valueobjects.ObjectID) (*entities.SceneObject, error) {
	return b.ExecuteBoolean(ctx, ports.BooleanCut, []valueobjects.ObjectID{a, c})
}

// IntersectShapes keeps the common volume of two shapes
func (b *Bridge) IntersectShapes(ctx context.Context, a, c valueobjects.ObjectID) (*entities.SceneObject, error) {
	return b.ExecuteBoolean(ctx, ports.BooleanCommon, []valueobjects.ObjectID{a, c})
}

// ExecuteBooleanUnion fuses any number of shapes pairwise, left to right
func (b *Bridge) ExecuteBooleanUnion(ctx context.Context, ids []valueobjects.ObjectID) (*entities.SceneObject, error) {
	return b.ExecuteBoolean(ctx, ports.BooleanFuse, ids)
}

// ExecuteBooleanSubtract cuts every following shape out of the first
func (b *Bridge) ExecuteBooleanSubtract(ctx context.Context, ids []valueobjects.ObjectID) (*entities.SceneObject, error) {
	return b.ExecuteBoolean(ctx, ports.BooleanCut, ids)
}

// ExecuteBooleanIntersect intersects any number of shapes pairwise
func (b *Bridge) ExecuteBooleanIntersect(ctx context.Context, ids []valueobjects.ObjectID) (*entities.SceneObject, error) {
	return b.ExecuteBoolean(ctx, ports.BooleanCommon, ids)
}

// ExecuteBoolean runs the full boolean pipeline: ensure every operand
// exists in the kernel, bake its scene transform, fold the kernel operator
// over the operands left to right, tessellate the result, serialize the
// B-Rep best-effort, and atomically replace the operands with one compound
// object. Any failure before the store swap leaves the scene untouched.
func (b *Bridge) ExecuteBoolean(ctx context.Context, op ports.BooleanOp, ids []valueobjects.ObjectID) (*entities.SceneObject, error) {
	if len(ids) < 2 {
		return nil, pkgerrors.NewValidation("boolean operation needs at least two shapes")
	}

	operands := make([]*entities.SceneObject, len(ids))
	for i, id := range ids {
		obj, err := b.store.GetObject(id)
		if err != nil {
			return nil, err
		}
		operands[i] = obj
	}

	b.history.SaveStateBeforeAction()

	// Intermediate kernel shapes produced by the bake and fold steps belong
	// to this pipeline; superseded ones are deleted as the fold advances and
	// the rest on abort, so a long session does not fill the kernel with
	// orphans.
	owned := make(map[string]bool)
	discardOwned := func() {
		for shapeID := range owned {
			b.discardShape(ctx, shapeID)
		}
	}

	backendIDs := make([]string, len(ids))
	for i, id := range ids {
		backendID, err := b.EnsureShapeInBackend(ctx, id)
		if err != nil {
			b.history.DiscardPending()
			discardOwned()
			return nil, err
		}
		baked, err := b.ApplyTransformToBackend(ctx, backendID, operands[i].Transform())
		if err != nil {
			b.history.DiscardPending()
			discardOwned()
			return nil, err
		}
		if baked != backendID {
			owned[baked] = true
		}
		backendIDs[i] = baked
	}

	// Stamps are taken after the ensure phase: recreating a shape the kernel
	// lost records the new backend id on the object, and that bookkeeping
	// write must not read as a user edit.
	stamps := make([]time.Time, len(ids))
	for i, obj := range operands {
		stamps[i] = obj.UpdatedAt()
	}

	resultID := backendIDs[0]
	for _, next := range backendIDs[1:] {
		result, err := b.kernel.Boolean(ctx, op, resultID, next)
		if err != nil {
			b.history.DiscardPending()
			discardOwned()
			return nil, pkgerrors.NewKernelOperation("boolean "+string(op)+" failed", err)
		}
		for _, consumed := range []string{resultID, next} {
			if owned[consumed] {
				b.discardShape(ctx, consumed)
				delete(owned, consumed)
			}
		}
		resultID = result.ID
		owned[resultID] = true
	}

	mesh, err := b.kernel.Tessellate(ctx, resultID, defaultDeflection)
	if err != nil {
		b.history.DiscardPending()
		discardOwned()
		return nil, pkgerrors.NewKernelOperation("tessellation failed", err)
	}

	// B-Rep persistence is best-effort: without it the compound simply
	// cannot be recreated after a kernel restart.
	brep, err := b.kernel.SerializeShape(ctx, resultID)
	if err != nil {
		b.logger.Warn("brep serialization failed, compound will not survive a kernel restart",
			zap.Error(err))
		brep = ""
	}

	// A kernel response that arrives after the scene moved on is stale;
	// applying it would silently overwrite newer edits.
	for i, id := range ids {
		obj, err := b.store.GetObject(id)
		if err != nil || !obj.UpdatedAt().Equal(stamps[i]) {
			b.history.DiscardPending()
			discardOwned()
			return nil, pkgerrors.NewConflict("scene changed during kernel operation")
		}
	}

	result, err := b.buildCompound(op, operands, resultID, mesh, brep)
	if err != nil {
		b.history.DiscardPending()
		discardOwned()
		return nil, err
	}
	if err := b.store.ReplaceWithCompound(ids, result); err != nil {
		b.history.DiscardPending()
		discardOwned()
		return nil, err
	}

	for _, id := range ids {
		b.CleanupShape(ctx, id)
	}
	b.setBackendID(result.ID(), resultID)
	b.history.CommitToHistory(booleanLabel(op))
	return result, nil
}

// ApplyModification runs the single-operand pipeline for fillet, chamfer
// and shell: resolve the backend shape, invoke the operator, tessellate,
// and replace the source object with one new object that keeps the
// source's transform and material.
func (b *Bridge) ApplyModification(ctx context.Context, op ports.ModifyOp, id valueobjects.ObjectID, parameter float64) (*entities.SceneObject, error) {
	if parameter <= 0 {
		return nil, pkgerrors.NewValidation(string(op) + " parameter must be positive")
	}
	source, err := b.store.GetObject(id)
	if err != nil {
		return nil, err
	}

	b.history.SaveStateBeforeAction()

	backendID, err := b.EnsureShapeInBackend(ctx, id)
	if err != nil {
		b.history.DiscardPending()
		return nil, err
	}
	// Stamped after the ensure step so a lazy recreation of the backend
	// shape does not read as a user edit.
	stamp := source.UpdatedAt()

	modified, err := b.kernel.Modify(ctx, op, backendID, parameter)
	if err != nil {
		b.history.DiscardPending()
		return nil, pkgerrors.NewKernelOperation(string(op)+" failed", err)
	}
	mesh, err := b.kernel.Tessellate(ctx, modified.ID, defaultDeflection)
	if err != nil {
		b.history.DiscardPending()
		b.discardShape(ctx, modified.ID)
		return nil, pkgerrors.NewKernelOperation("tessellation failed", err)
	}

	if current, err := b.store.GetObject(id); err != nil || !current.UpdatedAt().Equal(stamp) {
		b.history.DiscardPending()
		b.discardShape(ctx, modified.ID)
		return nil, pkgerrors.NewConflict("scene changed during kernel operation")
	}

	result, err := entities.NewSceneObject(entities.KindShape, source.Name())
	if err != nil {
		b.history.DiscardPending()
		b.discardShape(ctx, modified.ID)
		return nil, err
	}
	result.SetTransform(source.Transform())
	result.SetLayer(source.LayerID())
	result.SetMesh(mesh)
	result.SetMetadata(entities.MetaBackendShapeID, modified.ID)
	result.SetMetadata(entities.MetaOperation, string(op))
	result.SetMetadata(entities.MetaSourceShapes, []string{id.String()})
	if material := source.MetadataString(entities.MetaMaterial); material != "" {
		result.SetMetadata(entities.MetaMaterial, material)
	}

	if err := b.store.ReplaceWithCompound([]valueobjects.ObjectID{id}, result); err != nil {
		b.history.DiscardPending()
		b.discardShape(ctx, modified.ID)
		return nil, err
	}

	b.CleanupShape(ctx, id)
	b.setBackendID(result.ID(), modified.ID)
	b.history.CommitToHistory(modifyLabel(op))
	return result, nil
}

// buildCompound assembles the result object of a boolean pipeline with
// merged metadata, including best-effort sums of BIM quantities carried by
// the operands.
func (b *Bridge) buildCompound(
	op ports.BooleanOp,
	operands []*entities.SceneObject,
	backendID string,
	mesh *valueobjects.Mesh,
	brep string,
) (*entities.SceneObject, error) {
	names := make([]string, len(operands))
	sourceIDs := make([]string, len(operands))
	for i, obj := range operands {
		names[i] = obj.Name()
		sourceIDs[i] = obj.ID().String()
	}

	result, err := entities.NewSceneObject(entities.KindShape, strings.Join(names, " + "))
	if err != nil {
		return nil, err
	}
	// Geometry is baked into the kernel shape, so the compound starts at
	// the identity placement.
	result.SetLayer(operands[0].LayerID())
	result.SetMesh(mesh)
	result.SetMetadata(entities.MetaBackendShapeID, backendID)
	result.SetMetadata(entities.MetaOperation, string(op))
	result.SetMetadata(entities.MetaSourceShapes, sourceIDs)
	result.SetMetadata(entities.MetaPrimitiveType, "compound")
	if brep != "" {
		result.SetMetadata(entities.MetaBrep, brep)
	}
	if material := operands[0].MetadataString(entities.MetaMaterial); material != "" {
		result.SetMetadata(entities.MetaMaterial, material)
	}

	if volume, ok := sumNumericMeta(operands, entities.MetaBimVolume); ok {
		result.SetMetadata(entities.MetaBimVolume, volume)
	}
	if area, ok := sumNumericMeta(operands, entities.MetaBimArea); ok {
		result.SetMetadata(entities.MetaBimArea, area)
	}
	return result, nil
}

func sumNumericMeta(operands []*entities.SceneObject, key string) (float64, bool) {
	sum := 0.0
	found := false
	for _, obj := range operands {
		if v, ok := obj.MetadataValue(key); ok {
			if f, ok := v.(float64); ok {
				sum += f
				found = true
			}
		}
	}
	return sum, found
}

func booleanLabel(op ports.BooleanOp) string {
	switch op {
	case ports.BooleanFuse:
		return "Boolean union"
	case ports.BooleanCut:
		return "Boolean subtract"
	case ports.BooleanCommon:
		return "Boolean intersect"
	default:
		return "Boolean operation"
	}
}

func modifyLabel(op ports.ModifyOp) string {
	switch op {
	case ports.ModifyFillet:
		return "Fillet"
	case ports.ModifyChamfer:
		return "Chamfer"
	case ports.ModifyShell:
		return "Shell"
	default:
		return "Modify"
	}
}
