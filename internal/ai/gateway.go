// Package ai adapts user prompts into requests against the external
// generation service and normalizes what comes back into builder shapes.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"pagecraft/internal/builder"
)

// Target selects what kind of entity the service should produce.
type Target string

const (
	TargetComponent Target = "component"
	TargetTemplate  Target = "template"
	TargetLayout    Target = "layout"
)

// Valid reports whether t is a known generation target.
func (t Target) Valid() bool {
	switch t {
	case TargetComponent, TargetTemplate, TargetLayout:
		return true
	}
	return false
}

// GenerationContext carries optional hints about the document being
// edited; the service folds them into its prompt.
type GenerationContext struct {
	ExistingComponents []builder.Component `json:"existingComponents,omitempty"`
	CurrentLayout      *builder.Layout     `json:"currentLayout,omitempty"`
	TargetSection      string              `json:"targetSection,omitempty"`
}

// Metadata records how a successful generation came to be.
type Metadata struct {
	GeneratedAt time.Time `json:"generatedAt"`
	Prompt      string    `json:"prompt"`
	Type        Target    `json:"type"`
}

// Result is the gateway's typed outcome. Exactly one of Component,
// Template or Layout is set on success, matching the requested target.
// The gateway never propagates errors as Go errors across this boundary.
type Result struct {
	Success   bool               `json:"success"`
	Component *builder.Component `json:"component,omitempty"`
	Template  *builder.Template  `json:"template,omitempty"`
	Layout    *builder.Layout    `json:"layout,omitempty"`
	Warning   string             `json:"warning,omitempty"`
	Error     string             `json:"error,omitempty"`
	Metadata  *Metadata          `json:"metadata,omitempty"`
}

func failure(format string, args ...any) Result {
	return Result{Success: false, Error: fmt.Sprintf(format, args...)}
}

// generationRequest is the wire request understood by the service.
type generationRequest struct {
	UserPrompt string             `json:"userPrompt"`
	Target     Target             `json:"target"`
	Context    *GenerationContext `json:"context,omitempty"`
}

// serviceResponse is the wire response. On upstream parse failures the
// service substitutes a well-formed fallback entity and sets Warning
// instead of erroring.
type serviceResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Details string          `json:"details"`
	Warning string          `json:"warning"`
}

// Gateway is the request/response adapter around the generation service.
type Gateway struct {
	serviceURL string
	apiKey     string
	client     *http.Client
	logger     *slog.Logger
}

// NewGateway builds a gateway for the given service endpoint. One request
// per call, no retries; the transport timeout is the only deadline.
func NewGateway(serviceURL, apiKey string, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		serviceURL: strings.TrimRight(strings.TrimSpace(serviceURL), "/"),
		apiKey:     apiKey,
		client:     &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

// Generate issues one generation request. An empty prompt fails fast
// without touching the network. The store is never mutated here; callers
// decide what to do with the result.
func (g *Gateway) Generate(ctx context.Context, prompt string, target Target, genCtx *GenerationContext) Result {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return failure("prompt must not be empty")
	}
	if !target.Valid() {
		return failure("invalid generation target %q", target)
	}
	if g.serviceURL == "" {
		return failure("generation service is not configured")
	}

	body, err := json.Marshal(generationRequest{
		UserPrompt: prompt,
		Target:     target,
		Context:    genCtx,
	})
	if err != nil {
		return failure("encode generation request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.serviceURL, bytes.NewReader(body))
	if err != nil {
		return failure("build generation request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Warn("generation request failed", slog.Any("error", err))
		return failure("generation service unreachable: %v", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return failure("read generation response: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var svcErr serviceResponse
		if json.Unmarshal(payload, &svcErr) == nil && svcErr.Error != "" {
			return failure("generation service: %s", svcErr.Error)
		}
		return failure("generation service status %d", resp.StatusCode)
	}

	var svc serviceResponse
	if err := json.Unmarshal(payload, &svc); err != nil {
		return failure("decode generation response: %v", err)
	}
	if !svc.Success {
		msg := svc.Error
		if msg == "" {
			msg = "generation failed"
		}
		return failure("%s", msg)
	}

	result, err := g.normalize(svc.Data, target, prompt)
	if err != nil {
		return failure("invalid %s payload: %v", target, err)
	}
	result.Warning = svc.Warning
	result.Metadata = &Metadata{
		GeneratedAt: time.Now(),
		Prompt:      prompt,
		Type:        target,
	}
	return result
}

// normalize decodes the service data into the requested entity shape and
// verifies the minimal fields the contract guarantees. Extra fields in
// the payload are ignored; this is the one forgiving boundary.
func (g *Gateway) normalize(data json.RawMessage, target Target, prompt string) (Result, error) {
	if len(data) == 0 {
		return Result{}, fmt.Errorf("no data in response")
	}

	switch target {
	case TargetComponent:
		var comp builder.Component
		if err := json.Unmarshal(data, &comp); err != nil {
			return Result{}, err
		}
		if comp.ID == "" || !comp.Type.Valid() || comp.Content == nil {
			return Result{}, fmt.Errorf("missing id, type or content")
		}
		comp.IsAIGenerated = true
		comp.AIPrompt = prompt
		return Result{Success: true, Component: &comp}, nil

	case TargetTemplate:
		var tpl builder.Template
		if err := json.Unmarshal(data, &tpl); err != nil {
			return Result{}, err
		}
		if tpl.ID == "" || tpl.Name == "" || len(tpl.Components) == 0 {
			return Result{}, fmt.Errorf("missing id, name or components")
		}
		tpl.IsAIGenerated = true
		tpl.AIPrompt = prompt
		return Result{Success: true, Template: &tpl}, nil

	case TargetLayout:
		var layout builder.Layout
		if err := json.Unmarshal(data, &layout); err != nil {
			return Result{}, err
		}
		if layout.ID == "" || layout.Name == "" || len(layout.Sections) == 0 {
			return Result{}, fmt.Errorf("missing id, name or sections")
		}
		layout.IsAIGenerated = true
		layout.AIPrompt = prompt
		return Result{Success: true, Layout: &layout}, nil
	}

	return Result{}, fmt.Errorf("unknown target")
}
