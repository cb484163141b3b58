// Package bridge synchronizes the in-memory scene graph with the external
// geometry kernel. The kernel is process-scoped and non-durable: its shapes
// vanish on restart while the scene persists to disk. The bridge hides that
// mismatch by mapping scene ids to kernel shape ids and lazily recreating
// primitives from their stored parameters when the kernel has lost them.
package bridge

import (
	"context"
	"math"
	"sync"

	"go.uber.org/zap"

	"cascade-engine/application/history"
	"cascade-engine/application/ports"
	"cascade-engine/application/store"
	domainconfig "cascade-engine/domain/config"
	"cascade-engine/domain/core/entities"
	"cascade-engine/domain/core/valueobjects"
	pkgerrors "cascade-engine/pkg/errors"
)

// defaultDeflection is the tessellation deviation used when an object
// carries no segments hint.
const defaultDeflection = 0.1

// Bridge owns the scene-to-kernel shape id map and orchestrates the
// boolean and modification pipelines. The id map is instance state, not a
// module-level registry, so independent engines and tests do not share it.
type Bridge struct {
	kernel  ports.KernelClient
	store   *store.Store
	history *history.Engine
	cfg     *domainconfig.DomainConfig
	logger  *zap.Logger

	mu       sync.Mutex
	shapeIDs map[string]string // scene object id -> kernel shape id
}

// New creates a bridge with an empty shape id map
func New(
	kernel ports.KernelClient,
	s *store.Store,
	h *history.Engine,
	cfg *domainconfig.DomainConfig,
	logger *zap.Logger,
) *Bridge {
	if cfg == nil {
		cfg = domainconfig.DefaultDomainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{
		kernel:   kernel,
		store:    s,
		history:  h,
		cfg:      cfg,
		logger:   logger,
		shapeIDs: make(map[string]string),
	}
}

// BackendID returns the mapped kernel shape id for a scene object, if any
func (b *Bridge) BackendID(sceneID valueobjects.ObjectID) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id, ok := b.shapeIDs[sceneID.String()]
	return id, ok
}

func (b *Bridge) setBackendID(sceneID valueobjects.ObjectID, backendID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shapeIDs[sceneID.String()] = backendID
}

func (b *Bridge) dropBackendID(sceneID valueobjects.ObjectID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.shapeIDs, sceneID.String())
}

// EnsureShapeInBackend guarantees a scene object has a live kernel shape
// and returns its id. A mapped id that the kernel still knows is returned
// as-is; otherwise the primitive is recreated from its stored type and
// parameters. Compound and imported shapes cannot be recreated and fail
// with a kernel-unavailable error.
func (b *Bridge) EnsureShapeInBackend(ctx context.Context, sceneID valueobjects.ObjectID) (string, error) {
	obj, err := b.store.GetObject(sceneID)
	if err != nil {
		return "", err
	}

	if backendID, ok := b.BackendID(sceneID); ok {
		exists, err := b.kernel.ShapeExists(ctx, backendID)
		if err != nil {
			return "", pkgerrors.NewKernelOperation("shape existence check failed", err)
		}
		if exists {
			return backendID, nil
		}
		// The kernel restarted since this shape was created.
		b.dropBackendID(sceneID)
	}

	kind := ports.PrimitiveKind(obj.MetadataString(entities.MetaPrimitiveType))
	if !kind.IsRecreatable() {
		return "", pkgerrors.NewKernelUnavailable(
			"shape cannot be recreated from parameters: " + obj.Name())
	}
	params := primitiveParams(obj)
	result, err := b.kernel.CreatePrimitive(ctx, kind, params)
	if err != nil {
		return "", pkgerrors.NewKernelOperation("primitive recreation failed", err)
	}

	b.setBackendID(sceneID, result.ID)
	if _, err := b.store.UpdateObject(sceneID, store.UpdateRequest{
		Metadata: map[string]any{entities.MetaBackendShapeID: result.ID},
	}); err != nil {
		b.logger.Warn("failed to record recreated backend id", zap.Error(err))
	}
	return result.ID, nil
}

// ApplyTransformToBackend bakes a scene transform into kernel geometry.
// The kernel only understands untransformed B-Rep solids plus explicit
// transform operators, each returning a new shape id, so the bake issues
// uniform scale, then rotation about X, Y and Z, then translation. Steps
// of negligible magnitude are skipped to avoid needless round trips.
// Intermediate shapes superseded by a later step are deleted; the input
// shape is left alone.
func (b *Bridge) ApplyTransformToBackend(ctx context.Context, backendID string, t valueobjects.Transform) (string, error) {
	eps := b.cfg.TransformEpsilon
	current := backendID
	advance := func(next string) {
		if current != backendID {
			b.discardShape(ctx, current)
		}
		current = next
	}

	if scale := t.UniformScale(); math.Abs(scale-1.0) > eps {
		result, err := b.kernel.Transform(ctx, ports.TransformScale, current, scale)
		if err != nil {
			return "", pkgerrors.NewKernelOperation("scale failed", err)
		}
		advance(result.ID)
	}

	rotations := []struct {
		op    ports.TransformOp
		angle float64
	}{
		{ports.TransformRotateX, t.Rotation.X},
		{ports.TransformRotateY, t.Rotation.Y},
		{ports.TransformRotateZ, t.Rotation.Z},
	}
	for _, rot := range rotations {
		if math.Abs(rot.angle) <= eps {
			continue
		}
		result, err := b.kernel.Transform(ctx, rot.op, current, rot.angle)
		if err != nil {
			if current != backendID {
				b.discardShape(ctx, current)
			}
			return "", pkgerrors.NewKernelOperation("rotation failed", err)
		}
		advance(result.ID)
	}

	if t.Position.Length() > eps {
		result, err := b.kernel.Transform(ctx, ports.TransformTranslate, current,
			t.Position.X, t.Position.Y, t.Position.Z)
		if err != nil {
			if current != backendID {
				b.discardShape(ctx, current)
			}
			return "", pkgerrors.NewKernelOperation("translation failed", err)
		}
		advance(result.ID)
	}
	return current, nil
}

// discardShape deletes a pipeline-owned intermediate kernel shape,
// best-effort.
func (b *Bridge) discardShape(ctx context.Context, backendID string) {
	if err := b.kernel.DeleteShape(ctx, backendID); err != nil {
		b.logger.Warn("intermediate shape not deleted",
			zap.String("backendId", backendID), zap.Error(err))
	}
}

// CleanupShape deletes an object's kernel shape and drops the id mapping,
// called when a scene object is deliberately deleted.
func (b *Bridge) CleanupShape(ctx context.Context, sceneID valueobjects.ObjectID) {
	backendID, ok := b.BackendID(sceneID)
	if !ok {
		return
	}
	if err := b.kernel.DeleteShape(ctx, backendID); err != nil {
		b.logger.Warn("backend shape deletion failed",
			zap.String("backendId", backendID), zap.Error(err))
	}
	b.dropBackendID(sceneID)
}

// ClearAllShapes wipes the kernel and the entire id map
func (b *Bridge) ClearAllShapes(ctx context.Context) error {
	if err := b.kernel.ClearAll(ctx); err != nil {
		return pkgerrors.NewKernelOperation("kernel clear failed", err)
	}
	b.mu.Lock()
	b.shapeIDs = make(map[string]string)
	b.mu.Unlock()
	return nil
}

// primitiveParams reads the stored primitive parameters from metadata,
// tolerating the numeric types a JSON round trip produces.
func primitiveParams(obj *entities.SceneObject) map[string]float64 {
	out := make(map[string]float64)
	raw, ok := obj.MetadataValue(entities.MetaPrimitiveParams)
	if !ok {
		return out
	}
	switch params := raw.(type) {
	case map[string]float64:
		for k, v := range params {
			out[k] = v
		}
	case map[string]any:
		for k, v := range params {
			switch n := v.(type) {
			case float64:
				out[k] = n
			case int:
				out[k] = float64(n)
			}
		}
	}
	return out
}
