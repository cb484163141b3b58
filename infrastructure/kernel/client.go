// Package kernel implements the geometry kernel client over HTTP. The
// kernel is a separate process holding shape state in memory; every call
// goes through a circuit breaker so a dead kernel fails fast instead of
// stalling scene mutations.
package kernel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"cascade-engine/application/ports"
	"cascade-engine/domain/core/valueobjects"
	"cascade-engine/infrastructure/config"
	"cascade-engine/pkg/errors"
	"cascade-engine/pkg/observability"
)

// Client talks to the kernel's HTTP API
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
	metrics *observability.Collector
	logger  *zap.Logger
}

var _ ports.KernelClient = (*Client)(nil)

// New creates a kernel client from configuration. The metrics collector
// is optional.
func New(cfg config.KernelConfig, metrics *observability.Collector, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "geometry-kernel",
		MaxRequests: cfg.Breaker.MaxRequests,
		Interval:    cfg.Breaker.Interval,
		Timeout:     cfg.Breaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.Breaker.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.Breaker.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("kernel circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{},
		breaker: breaker,
		timeout: cfg.RequestTimeout,
		metrics: metrics,
		logger:  logger,
	}
}

type primitiveRequest struct {
	Type   string             `json:"type"`
	Params map[string]float64 `json:"params"`
}

type booleanRequest struct {
	Op string `json:"op"`
	A  string `json:"a"`
	B  string `json:"b"`
}

type modifyRequest struct {
	Op        string  `json:"op"`
	Parameter float64 `json:"parameter"`
}

type transformRequest struct {
	Op   string    `json:"op"`
	Args []float64 `json:"args"`
}

type meshRequest struct {
	Deflection float64 `json:"deflection"`
}

type meshResponse struct {
	Vertices []float32 `json:"vertices"`
	Indices  []uint32  `json:"indices"`
	Normals  []float32 `json:"normals"`
}

type brepResponse struct {
	Brep string `json:"brep"`
}

type importRequest struct {
	Path string `json:"path"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// CreatePrimitive builds a parametric primitive in the kernel
func (c *Client) CreatePrimitive(ctx context.Context, kind ports.PrimitiveKind, params map[string]float64) (ports.ShapeResult, error) {
	var result ports.ShapeResult
	err := c.call(ctx, "create_primitive", http.MethodPost, "/v1/shapes/primitive",
		primitiveRequest{Type: string(kind), Params: params}, &result)
	return result, err
}

// Boolean runs a constructive solid operation on two shapes
func (c *Client) Boolean(ctx context.Context, op ports.BooleanOp, idA, idB string) (ports.ShapeResult, error) {
	var result ports.ShapeResult
	err := c.call(ctx, "boolean_"+string(op), http.MethodPost, "/v1/shapes/boolean",
		booleanRequest{Op: string(op), A: idA, B: idB}, &result)
	return result, err
}

// Modify applies a single-shape modification operator
func (c *Client) Modify(ctx context.Context, op ports.ModifyOp, id string, parameter float64) (ports.ShapeResult, error) {
	var result ports.ShapeResult
	err := c.call(ctx, "modify_"+string(op), http.MethodPost, c.shapePath(id, "modify"),
		modifyRequest{Op: string(op), Parameter: parameter}, &result)
	return result, err
}

// Transform applies a geometric transform, yielding a new shape id
func (c *Client) Transform(ctx context.Context, op ports.TransformOp, id string, args ...float64) (ports.ShapeResult, error) {
	var result ports.ShapeResult
	err := c.call(ctx, "transform_"+string(op), http.MethodPost, c.shapePath(id, "transform"),
		transformRequest{Op: string(op), Args: args}, &result)
	return result, err
}

// Tessellate requests a triangle mesh for a shape
func (c *Client) Tessellate(ctx context.Context, id string, deflection float64) (*valueobjects.Mesh, error) {
	var resp meshResponse
	err := c.call(ctx, "tessellate", http.MethodPost, c.shapePath(id, "mesh"),
		meshRequest{Deflection: deflection}, &resp)
	if err != nil {
		return nil, err
	}
	return &valueobjects.Mesh{
		Vertices: resp.Vertices,
		Indices:  resp.Indices,
		Normals:  resp.Normals,
	}, nil
}

// ShapeExists reports whether the kernel still holds the shape
func (c *Client) ShapeExists(ctx context.Context, id string) (bool, error) {
	err := c.call(ctx, "shape_exists", http.MethodGet, c.shapePath(id, ""), nil, nil)
	if err != nil {
		if errors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// DeleteShape releases a shape in the kernel
func (c *Client) DeleteShape(ctx context.Context, id string) error {
	err := c.call(ctx, "delete_shape", http.MethodDelete, c.shapePath(id, ""), nil, nil)
	if errors.IsNotFound(err) {
		return nil
	}
	return err
}

// ClearAll wipes every shape the kernel holds
func (c *Client) ClearAll(ctx context.Context) error {
	return c.call(ctx, "clear_all", http.MethodPost, "/v1/clear", nil, nil)
}

// SerializeShape returns the kernel's BREP serialization of a shape
func (c *Client) SerializeShape(ctx context.Context, id string) (string, error) {
	var resp brepResponse
	if err := c.call(ctx, "serialize_shape", http.MethodGet, c.shapePath(id, "brep"), nil, &resp); err != nil {
		return "", err
	}
	return resp.Brep, nil
}

// ImportStep loads a STEP file from disk into the kernel
func (c *Client) ImportStep(ctx context.Context, path string) (ports.ShapeResult, error) {
	var result ports.ShapeResult
	err := c.call(ctx, "import_step", http.MethodPost, "/v1/import/step",
		importRequest{Path: path}, &result)
	return result, err
}

func (c *Client) shapePath(id, action string) string {
	p := "/v1/shapes/" + url.PathEscape(id)
	if action != "" {
		p += "/" + action
	}
	return p
}

// call runs one kernel round trip through the circuit breaker with the
// configured per-request timeout.
func (c *Client) call(ctx context.Context, operation, method, path string, body, out any) error {
	start := time.Now()
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.doRequest(ctx, method, path, body, out)
	})
	if c.metrics != nil {
		c.metrics.RecordKernelCall(operation, time.Since(start), err)
	}
	if err == nil {
		return nil
	}
	switch err {
	case gobreaker.ErrOpenState, gobreaker.ErrTooManyRequests:
		return errors.NewKernelUnavailable("geometry kernel circuit open")
	}
	return err
}

func (c *Client) doRequest(ctx context.Context, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.NewInternal("encode kernel request", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.NewInternal("build kernel request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.NewKernelUnavailable(fmt.Sprintf("geometry kernel unreachable: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errors.NewNotFound("kernel shape not found")
	}
	if resp.StatusCode >= 400 {
		var kernelErr errorResponse
		message := resp.Status
		if decodeErr := json.NewDecoder(resp.Body).Decode(&kernelErr); decodeErr == nil && kernelErr.Error != "" {
			message = kernelErr.Error
		}
		return errors.NewKernelOperation("kernel "+method+" "+path+" failed: "+message, nil)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.NewKernelOperation("decode kernel response", err)
	}
	return nil
}
