package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"pagecraft/internal/builder"
)

func serveJSON(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerateEmptyPromptSkipsNetwork(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	g := NewGateway(srv.URL, "", nil)
	result := g.Generate(context.Background(), "   ", TargetComponent, nil)

	if result.Success {
		t.Fatalf("empty prompt succeeded")
	}
	if result.Error == "" {
		t.Fatalf("no error message for empty prompt")
	}
	if hits.Load() != 0 {
		t.Fatalf("empty prompt hit the network %d times", hits.Load())
	}
}

func TestGenerateInvalidTarget(t *testing.T) {
	g := NewGateway("http://localhost:1", "", nil)
	result := g.Generate(context.Background(), "a hero", Target("banner"), nil)
	if result.Success {
		t.Fatalf("invalid target succeeded")
	}
}

func TestGenerateUnconfiguredService(t *testing.T) {
	g := NewGateway("", "", nil)
	result := g.Generate(context.Background(), "a hero", TargetComponent, nil)
	if result.Success {
		t.Fatalf("unconfigured gateway succeeded")
	}
}

func TestGenerateComponentSuccess(t *testing.T) {
	var gotAuth string
	var gotReq generationRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"id":      "component_gen",
				"type":    "hero",
				"content": map[string]any{"title": "Welcome"},
				"extra":   "ignored",
			},
		})
	}))
	defer srv.Close()

	g := NewGateway(srv.URL, "secret-key", nil)
	result := g.Generate(context.Background(), "  a welcome hero  ", TargetComponent, &GenerationContext{TargetSection: "sec_hero"})

	if !result.Success {
		t.Fatalf("generate failed: %s", result.Error)
	}
	if gotAuth != "Bearer secret-key" {
		t.Fatalf("authorization header = %q", gotAuth)
	}
	if gotReq.UserPrompt != "a welcome hero" {
		t.Fatalf("prompt not trimmed on the wire: %q", gotReq.UserPrompt)
	}
	if gotReq.Context == nil || gotReq.Context.TargetSection != "sec_hero" {
		t.Fatalf("context not forwarded")
	}

	comp := result.Component
	if comp == nil || comp.ID != "component_gen" || comp.Type != builder.ComponentHero {
		t.Fatalf("component not decoded: %+v", comp)
	}
	if !comp.IsAIGenerated || comp.AIPrompt != "a welcome hero" {
		t.Fatalf("provenance not set: %+v", comp)
	}
	if result.Metadata == nil || result.Metadata.Type != TargetComponent {
		t.Fatalf("metadata not set: %+v", result.Metadata)
	}
}

func TestGenerateCarriesWarning(t *testing.T) {
	srv := serveJSON(t, http.StatusOK, `{
		"success": true,
		"warning": "fell back to a simpler component",
		"data": {"id": "component_fb", "type": "text", "content": {"text": "hi"}}
	}`)

	g := NewGateway(srv.URL, "", nil)
	result := g.Generate(context.Background(), "something exotic", TargetComponent, nil)
	if !result.Success {
		t.Fatalf("generate failed: %s", result.Error)
	}
	if result.Warning != "fell back to a simpler component" {
		t.Fatalf("warning lost: %q", result.Warning)
	}
}

func TestGenerateServiceError(t *testing.T) {
	srv := serveJSON(t, http.StatusBadRequest, `{"error": "quota exceeded", "details": "free tier"}`)

	g := NewGateway(srv.URL, "", nil)
	result := g.Generate(context.Background(), "a hero", TargetComponent, nil)
	if result.Success {
		t.Fatalf("service error treated as success")
	}
	if result.Error == "" {
		t.Fatalf("service error message lost")
	}
}

func TestGenerateRejectsMalformedEntities(t *testing.T) {
	cases := map[string]struct {
		target Target
		body   string
	}{
		"component missing type": {
			TargetComponent,
			`{"success": true, "data": {"id": "x", "content": {}}}`,
		},
		"component unknown type": {
			TargetComponent,
			`{"success": true, "data": {"id": "x", "type": "marquee", "content": {}}}`,
		},
		"template without components": {
			TargetTemplate,
			`{"success": true, "data": {"id": "t", "name": "T", "components": []}}`,
		},
		"layout without sections": {
			TargetLayout,
			`{"success": true, "data": {"id": "l", "name": "L", "sections": []}}`,
		},
		"no data at all": {
			TargetComponent,
			`{"success": true}`,
		},
	}

	for name, tc := range cases {
		srv := serveJSON(t, http.StatusOK, tc.body)
		g := NewGateway(srv.URL, "", nil)
		result := g.Generate(context.Background(), "prompt", tc.target, nil)
		if result.Success {
			t.Fatalf("%s: malformed entity accepted", name)
		}
	}
}

func TestGenerateTemplateAndLayoutSuccess(t *testing.T) {
	tplSrv := serveJSON(t, http.StatusOK, `{
		"success": true,
		"data": {
			"id": "template_gen", "name": "Gen Landing",
			"components": [{"id": "c1", "type": "hero", "content": {}}]
		}
	}`)
	g := NewGateway(tplSrv.URL, "", nil)
	result := g.Generate(context.Background(), "a landing page", TargetTemplate, nil)
	if !result.Success || result.Template == nil || !result.Template.IsAIGenerated {
		t.Fatalf("template generation failed: %+v", result)
	}

	layoutSrv := serveJSON(t, http.StatusOK, `{
		"success": true,
		"data": {
			"id": "layout_gen", "name": "Gen Layout",
			"sections": [{"id": "s1", "type": "hero", "components": []}]
		}
	}`)
	g = NewGateway(layoutSrv.URL, "", nil)
	result = g.Generate(context.Background(), "a page structure", TargetLayout, nil)
	if !result.Success || result.Layout == nil || len(result.Layout.Sections) != 1 {
		t.Fatalf("layout generation failed: %+v", result)
	}
}
