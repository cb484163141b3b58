// Package ports declares the interfaces the engine consumes; concrete
// implementations live under infrastructure.
package ports

import (
	"context"

	"cascade-engine/domain/core/valueobjects"
)

// PrimitiveKind enumerates the primitives the kernel can build from
// parameters. Only these kinds can be lazily recreated after the kernel
// loses its state; compounds and imports cannot.
type PrimitiveKind string

const (
	PrimitiveBox      PrimitiveKind = "box"
	PrimitiveCylinder PrimitiveKind = "cylinder"
	PrimitiveSphere   PrimitiveKind = "sphere"
	PrimitiveCone     PrimitiveKind = "cone"
	PrimitiveTorus    PrimitiveKind = "torus"
)

// IsRecreatable reports whether a shape of this kind can be rebuilt in the
// kernel from stored parameters alone.
func (k PrimitiveKind) IsRecreatable() bool {
	switch k {
	case PrimitiveBox, PrimitiveCylinder, PrimitiveSphere, PrimitiveCone, PrimitiveTorus:
		return true
	default:
		return false
	}
}

// Parameter keys used in primitive parameter maps
const (
	ParamWidth       = "width"
	ParamDepth       = "depth"
	ParamHeight      = "height"
	ParamRadius      = "radius"
	ParamTopRadius   = "topRadius"
	ParamMajorRadius = "majorRadius"
	ParamMinorRadius = "minorRadius"
)

// BooleanOp enumerates the kernel's constructive solid operations
type BooleanOp string

const (
	BooleanFuse   BooleanOp = "fuse"
	BooleanCut    BooleanOp = "cut"
	BooleanCommon BooleanOp = "common"
)

// ModifyOp enumerates single-shape modification operators
type ModifyOp string

const (
	ModifyFillet  ModifyOp = "fillet"
	ModifyChamfer ModifyOp = "chamfer"
	ModifyShell   ModifyOp = "shell"
)

// TransformOp enumerates geometric transform operators. Each call returns
// a new shape id; kernel shapes are immutable per call.
type TransformOp string

const (
	TransformTranslate TransformOp = "translate"
	TransformRotateX   TransformOp = "rotateX"
	TransformRotateY   TransformOp = "rotateY"
	TransformRotateZ   TransformOp = "rotateZ"
	TransformScale     TransformOp = "scale"
)

// ShapeAnalysis carries the kernel's mass-property report for a shape
type ShapeAnalysis struct {
	Volume      float64 `json:"volume"`
	SurfaceArea float64 `json:"surfaceArea"`
	IsValid     bool    `json:"isValid"`
}

// ShapeResult is the kernel's response to any shape-producing call
type ShapeResult struct {
	ID       string         `json:"id"`
	Analysis *ShapeAnalysis `json:"analysis,omitempty"`
}

// KernelClient is the geometry kernel contract: an external, process
// scoped, non-durable constructive-solid-geometry service addressed by
// opaque shape ids. All calls are request/response and may fail if the
// kernel restarted since the shape was created.
type KernelClient interface {
	CreatePrimitive(ctx context.Context, kind PrimitiveKind, params map[string]float64) (ShapeResult, error)
	Boolean(ctx context.Context, op BooleanOp, idA, idB string) (ShapeResult, error)
	Modify(ctx context.Context, op ModifyOp, id string, parameter float64) (ShapeResult, error)
	Transform(ctx context.Context, op TransformOp, id string, args ...float64) (ShapeResult, error)
	Tessellate(ctx context.Context, id string, deflection float64) (*valueobjects.Mesh, error)
	ShapeExists(ctx context.Context, id string) (bool, error)
	DeleteShape(ctx context.Context, id string) error
	ClearAll(ctx context.Context) error
	SerializeShape(ctx context.Context, id string) (string, error)
	ImportStep(ctx context.Context, path string) (ShapeResult, error)
}
