package server

import (
	"encoding/json"
	"fmt"
	"image"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/blobcount/internal/config"
	"github.com/ironsheep/blobcount/internal/imaging"
	"github.com/ironsheep/blobcount/internal/report"
	"github.com/ironsheep/blobcount/internal/segmentation"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "blob_segment").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.WithFields(logrus.Fields{"tool": params.Name}).WithError(err).Warn("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each blob_* handler:
//  1. Unmarshals arguments from JSON
//  2. Layers the per-call overrides on the server configuration
//  3. Loads the image from cache and runs the pipeline
//  4. Renders or reports the requested product
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	// Blob Segmentation
	case "blob_segment":
		return s.handleBlobSegment(args)
	case "blob_mask":
		return s.handleBlobMask(args)
	case "blob_annotate":
		return s.handleBlobAnnotate(args)
	case "blob_crop":
		return s.handleBlobCrop(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

// === Blob Segmentation Handlers ===

// pipelineArgs are the per-call overrides accepted by every blob_* tool.
// Nil fields keep the configured value.
type pipelineArgs struct {
	Path            string   `json:"path"`
	Preset          string   `json:"preset"`
	Mode            *string  `json:"mode"`
	Polarity        *string  `json:"polarity"`
	Cutoff          *int     `json:"cutoff"`
	Window          *int     `json:"window"`
	Offset          *int     `json:"offset"`
	Blur            *float64 `json:"blur"`
	Radius          *int     `json:"radius"`
	Open            *int     `json:"open"`
	Dilate          *int     `json:"dilate"`
	Close           *int     `json:"close"`
	MinArea         *int     `json:"min_area"`
	MinAreaFraction *float64 `json:"min_area_fraction"`
}

// config returns a copy of base with the overrides applied.
func (a *pipelineArgs) config(base *config.Config) (*config.Config, error) {
	var cfg config.Config
	switch a.Preset {
	case "", "default":
		cfg = *base
	case "adaptive":
		cfg = *config.AdaptivePreset()
		cfg.Annotation = base.Annotation
		cfg.Workers = base.Workers
	default:
		return nil, fmt.Errorf("unknown preset: %s", a.Preset)
	}

	setString(&cfg.Threshold.Mode, a.Mode)
	setString(&cfg.Threshold.Polarity, a.Polarity)
	setInt(&cfg.Threshold.Cutoff, a.Cutoff)
	setInt(&cfg.Threshold.Window, a.Window)
	setInt(&cfg.Threshold.Offset, a.Offset)
	setFloat(&cfg.Threshold.Blur, a.Blur)
	setInt(&cfg.Morphology.Radius, a.Radius)
	setInt(&cfg.Morphology.Open, a.Open)
	setInt(&cfg.Morphology.Dilate, a.Dilate)
	setInt(&cfg.Morphology.Close, a.Close)
	if a.MinArea != nil {
		cfg.Filter.MinArea = *a.MinArea
		cfg.Filter.MinAreaFraction = 0
	}
	setFloat(&cfg.Filter.MinAreaFraction, a.MinAreaFraction)
	return &cfg, nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// segmentationRun holds one pipeline run and what produced it.
type segmentationRun struct {
	img image.Image
	cfg *config.Config
	res *segmentation.Result
}

// segment loads a.Path and runs the pipeline with the effective config.
func (s *Server) segment(a *pipelineArgs) (*segmentationRun, error) {
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	cfg, err := a.config(s.cfg)
	if err != nil {
		return nil, err
	}
	segCfg, err := cfg.Segmentation()
	if err != nil {
		return nil, err
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	runner := segmentation.NewRunner(s.log.WithField("image", a.Path))
	res, err := runner.Run(imaging.ToGray(img, cfg.Threshold.Blur), segCfg)
	if err != nil {
		return nil, err
	}
	return &segmentationRun{img: img, cfg: cfg, res: res}, nil
}

type blobSegmentArgs struct {
	pipelineArgs
	IncludeRejected bool `json:"include_rejected"`
}

// segmentResult is the blob_segment payload.
type segmentResult struct {
	*report.Report
	Rejected []segmentation.Component `json:"rejected,omitempty"`
}

func (s *Server) handleBlobSegment(args json.RawMessage) (interface{}, error) {
	var a blobSegmentArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	run, err := s.segment(&a.pipelineArgs)
	if err != nil {
		return nil, err
	}

	out := segmentResult{Report: report.New(a.Path, run.res)}
	if a.IncludeRejected {
		for _, c := range run.res.Components {
			if float64(c.Area) <= run.res.MinArea {
				out.Rejected = append(out.Rejected, c)
			}
		}
	}
	return out, nil
}

type blobMaskArgs struct {
	pipelineArgs
	Stage string `json:"stage"`
}

func (s *Server) handleBlobMask(args json.RawMessage) (interface{}, error) {
	var a blobMaskArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Stage == "" {
		a.Stage = "cleaned"
	}
	switch a.Stage {
	case "binary", "cleaned", "labels":
	default:
		return nil, fmt.Errorf("invalid stage: %s (must be binary, cleaned or labels)", a.Stage)
	}

	run, err := s.segment(&a.pipelineArgs)
	if err != nil {
		return nil, err
	}
	switch a.Stage {
	case "binary":
		return imaging.RenderMask(run.res.Binary)
	case "labels":
		return imaging.RenderLabels(run.res.Labels, uint32(len(run.res.Components)))
	default:
		return imaging.RenderMask(run.res.Cleaned)
	}
}

type blobAnnotateArgs struct {
	pipelineArgs
	SavePath string `json:"save_path"`
}

// annotateResult is the blob_annotate payload.
type annotateResult struct {
	*imaging.ImageResult
	Count   int    `json:"count"`
	SavedTo string `json:"saved_to,omitempty"`
}

func (s *Server) handleBlobAnnotate(args json.RawMessage) (interface{}, error) {
	var a blobAnnotateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	run, err := s.segment(&a.pipelineArgs)
	if err != nil {
		return nil, err
	}

	out := annotateResult{Count: len(run.res.Accepted)}
	if a.SavePath == "" {
		out.ImageResult, err = imaging.RenderAnnotated(run.img, run.res.Accepted, run.cfg.Annotation)
		if err != nil {
			return nil, err
		}
		return out, nil
	}

	annotated, err := imaging.Annotate(run.img, run.res.Accepted, run.cfg.Annotation)
	if err != nil {
		return nil, err
	}
	if err := imaging.SaveImage(annotated, a.SavePath); err != nil {
		return nil, err
	}
	if out.ImageResult, err = imaging.EncodePNG(annotated); err != nil {
		return nil, err
	}
	out.SavedTo = a.SavePath
	return out, nil
}

type blobCropArgs struct {
	pipelineArgs
	Index   int     `json:"index"`
	Padding int     `json:"padding"`
	Scale   float64 `json:"scale"`
}

func (s *Server) handleBlobCrop(args json.RawMessage) (interface{}, error) {
	var a blobCropArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	run, err := s.segment(&a.pipelineArgs)
	if err != nil {
		return nil, err
	}
	if a.Index < 1 || a.Index > len(run.res.Accepted) {
		return nil, fmt.Errorf("index %d out of range: %d objects accepted", a.Index, len(run.res.Accepted))
	}
	return imaging.CropBlob(run.img, run.res.Accepted[a.Index-1], a.Padding, a.Scale)
}
