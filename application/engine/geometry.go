package engine

import (
	"context"

	"cascade-engine/application/ports"
	"cascade-engine/domain/core/entities"
	"cascade-engine/domain/core/valueobjects"
)

// CreatePrimitive creates a kernel-backed primitive as one undo step
func (e *Engine) CreatePrimitive(ctx context.Context, kind ports.PrimitiveKind, name string, params map[string]float64) (*entities.SceneObject, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	obj, err := e.bridge.CreatePrimitive(ctx, kind, name, params)
	if err != nil {
		return nil, err
	}
	e.analyzer.AnalyzeScene()
	return obj, nil
}

// ExecuteBoolean runs a boolean pipeline over the given operands
func (e *Engine) ExecuteBoolean(ctx context.Context, op ports.BooleanOp, ids []valueobjects.ObjectID) (*entities.SceneObject, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	result, err := e.bridge.ExecuteBoolean(ctx, op, ids)
	if err != nil {
		return nil, err
	}
	e.analyzer.AnalyzeScene()
	return result, nil
}

// ApplyModification applies a fillet, chamfer or shell to one shape
func (e *Engine) ApplyModification(ctx context.Context, op ports.ModifyOp, id valueobjects.ObjectID, parameter float64) (*entities.SceneObject, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	result, err := e.bridge.ApplyModification(ctx, op, id, parameter)
	if err != nil {
		return nil, err
	}
	e.analyzer.AnalyzeScene()
	return result, nil
}

// UpdateShapeParameters regenerates a primitive from edited parameters
func (e *Engine) UpdateShapeParameters(ctx context.Context, id valueobjects.ObjectID, params map[string]float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.bridge.UpdateShapeParameters(ctx, id, params); err != nil {
		return err
	}
	e.analyzer.AnalyzeScene()
	return nil
}

// ImportStep brings an external STEP model into the scene
func (e *Engine) ImportStep(ctx context.Context, path string) (*entities.SceneObject, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	obj, err := e.bridge.ImportStep(ctx, path)
	if err != nil {
		return nil, err
	}
	e.analyzer.AnalyzeScene()
	return obj, nil
}

// RecalculateChain re-derives every chain from its roots
func (e *Engine) RecalculateChain() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.propagator.RecalculateHydraulicChain()
	e.analyzer.AnalyzeScene()
}
