package bridge

import (
	"context"
	"math"
	"path/filepath"

	"go.uber.org/zap"

	"cascade-engine/application/ports"
	"cascade-engine/application/store"
	"cascade-engine/domain/core/entities"
	"cascade-engine/domain/core/valueobjects"
	pkgerrors "cascade-engine/pkg/errors"
)

// CreatePrimitive creates a kernel primitive, tessellates it and adds the
// resulting scene object to the store as a single undo step.
func (b *Bridge) CreatePrimitive(ctx context.Context, kind ports.PrimitiveKind, name string, params map[string]float64) (*entities.SceneObject, error) {
	if !kind.IsRecreatable() {
		return nil, pkgerrors.NewValidation("unknown primitive kind: " + string(kind))
	}
	for key, value := range params {
		if value <= 0 {
			return nil, pkgerrors.NewValidation("primitive parameter must be positive: " + key)
		}
	}

	result, err := b.kernel.CreatePrimitive(ctx, kind, params)
	if err != nil {
		return nil, pkgerrors.NewKernelOperation("primitive creation failed", err)
	}
	mesh, err := b.kernel.Tessellate(ctx, result.ID, defaultDeflection)
	if err != nil {
		return nil, pkgerrors.NewKernelOperation("tessellation failed", err)
	}

	obj, err := entities.NewSceneObject(entities.KindShape, name)
	if err != nil {
		return nil, err
	}
	obj.SetMetadata(entities.MetaBackendShapeID, result.ID)
	obj.SetMetadata(entities.MetaPrimitiveType, string(kind))
	obj.SetMetadata(entities.MetaPrimitiveParams, copyParams(params))
	obj.SetMesh(mesh)
	if result.Analysis != nil {
		obj.SetMetadata(entities.MetaBimVolume, result.Analysis.Volume)
		obj.SetMetadata(entities.MetaBimArea, result.Analysis.SurfaceArea)
	}

	if err := b.store.AddObject(obj); err != nil {
		return nil, err
	}
	b.setBackendID(obj.ID(), result.ID)
	b.history.SaveToHistory("Create " + string(kind))
	return obj, nil
}

// UpdateShapeParameters regenerates a primitive's kernel shape from its
// old parameters merged with the new ones, wrapped in the history engine's
// before/after pair so the whole edit is one undo step.
func (b *Bridge) UpdateShapeParameters(ctx context.Context, sceneID valueobjects.ObjectID, newParams map[string]float64) error {
	obj, err := b.store.GetObject(sceneID)
	if err != nil {
		return err
	}
	kind := ports.PrimitiveKind(obj.MetadataString(entities.MetaPrimitiveType))
	if !kind.IsRecreatable() {
		return pkgerrors.NewValidation("only parametric primitives can be edited: " + obj.Name())
	}

	merged := primitiveParams(obj)
	for key, value := range newParams {
		merged[key] = value
	}

	deflection := defaultDeflection
	if segments, ok := merged[entities.MetaSegments]; ok && segments > 0 {
		deflection = deflectionForSegments(kind, segments)
	}

	b.history.SaveStateBeforeAction()

	result, err := b.kernel.CreatePrimitive(ctx, kind, merged)
	if err != nil {
		b.history.DiscardPending()
		return pkgerrors.NewKernelOperation("primitive regeneration failed", err)
	}
	mesh, err := b.kernel.Tessellate(ctx, result.ID, deflection)
	if err != nil {
		b.history.DiscardPending()
		b.discardShape(ctx, result.ID)
		return pkgerrors.NewKernelOperation("tessellation failed", err)
	}

	if oldID, ok := b.BackendID(sceneID); ok {
		if err := b.kernel.DeleteShape(ctx, oldID); err != nil {
			b.logger.Warn("stale backend shape not deleted", zap.Error(err))
		}
	}
	b.setBackendID(sceneID, result.ID)

	if _, err := b.store.UpdateObject(sceneID, store.UpdateRequest{
		Mesh:    mesh,
		SetMesh: true,
		Metadata: map[string]any{
			entities.MetaBackendShapeID:  result.ID,
			entities.MetaPrimitiveParams: copyParams(merged),
		},
	}); err != nil {
		b.history.DiscardPending()
		return err
	}

	b.history.CommitToHistory("Edit " + string(kind) + " parameters")
	return nil
}

// ImportStep loads a STEP file through the kernel and adds it to the scene.
// Imported shapes carry no parameters and cannot be recreated after a
// kernel restart.
func (b *Bridge) ImportStep(ctx context.Context, path string) (*entities.SceneObject, error) {
	if path == "" {
		return nil, pkgerrors.NewValidation("import path cannot be empty")
	}
	result, err := b.kernel.ImportStep(ctx, path)
	if err != nil {
		return nil, pkgerrors.NewKernelOperation("STEP import failed", err)
	}
	mesh, err := b.kernel.Tessellate(ctx, result.ID, defaultDeflection)
	if err != nil {
		return nil, pkgerrors.NewKernelOperation("tessellation failed", err)
	}

	obj, err := entities.NewSceneObject(entities.KindShape, filepath.Base(path))
	if err != nil {
		return nil, err
	}
	obj.SetMetadata(entities.MetaBackendShapeID, result.ID)
	obj.SetMetadata(entities.MetaPrimitiveType, "imported")
	obj.SetMetadata(entities.MetaImportPath, path)
	obj.SetMesh(mesh)

	if err := b.store.AddObject(obj); err != nil {
		return nil, err
	}
	b.setBackendID(obj.ID(), result.ID)
	b.history.SaveToHistory("Import STEP")
	return obj, nil
}

// deflectionForSegments maps the user-facing "segments" slider to a
// tessellation deflection. Boxes only need segments along fillets, so
// their curve is flatter; curved primitives tighten faster so spheres and
// tori stay smooth at high settings.
func deflectionForSegments(kind ports.PrimitiveKind, segments float64) float64 {
	s := math.Max(segments, 3)
	switch kind {
	case ports.PrimitiveBox:
		return clampDeflection(1.0 / s)
	default:
		return clampDeflection(2.0 / (s * math.Sqrt(s)))
	}
}

func clampDeflection(d float64) float64 {
	return math.Min(math.Max(d, 0.001), 1.0)
}

func copyParams(params map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}
