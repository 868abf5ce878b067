package builder

import (
	"context"
	"encoding/json"
	"testing"
)

func TestExportEnvelopeShape(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	s.AddComponent(ctx, Component{Type: ComponentText})
	s.AddDynamicTemplate(ctx, Template{Name: "Gen"})

	envelope := s.ExportProject()
	if envelope.Version != ExportVersion {
		t.Fatalf("version = %q", envelope.Version)
	}
	if envelope.ExportedAt.IsZero() {
		t.Fatalf("exportedAt not set")
	}
	if len(envelope.Project.Components) != 1 || len(envelope.DynamicTemplates) != 1 {
		t.Fatalf("envelope missing collections: %+v", envelope)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	source, _ := newTestStore(t)
	installLayout(t, source, layoutWithSections(section("sec_a", SectionConstraints{})))
	placed, _ := source.AddComponentToSection(ctx, Component{Type: ComponentHero}, "sec_a", &Position{X: 1, Y: 2})
	source.AddDynamicComponent(ctx, Component{Type: ComponentText})

	raw, err := json.Marshal(source.ExportProject())
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}

	dest, _ := newTestStore(t)
	if !dest.ImportProject(ctx, raw) {
		t.Fatalf("import rejected a valid envelope")
	}

	project := dest.Project()
	if project.ID != source.Project().ID {
		t.Fatalf("imported project id = %q", project.ID)
	}
	got := project.Component(placed.ID)
	if got == nil || got.SectionID != "sec_a" {
		t.Fatalf("membership lost in round trip")
	}
	if members := project.Layout.Section("sec_a").Components; len(members) != 1 || members[0] != placed.ID {
		t.Fatalf("section membership lost: %v", members)
	}
	if len(dest.DynamicComponents()) != 1 {
		t.Fatalf("dynamic components not appended")
	}
}

func TestImportAppendsDynamicCollections(t *testing.T) {
	ctx := context.Background()
	dest, _ := newTestStore(t)
	existing := dest.AddDynamicTemplate(ctx, Template{Name: "Existing"})

	source, _ := newTestStore(t)
	source.AddDynamicTemplate(ctx, Template{Name: "Incoming"})
	raw, _ := json.Marshal(source.ExportProject())

	if !dest.ImportProject(ctx, raw) {
		t.Fatalf("import rejected")
	}

	templates := dest.DynamicTemplates()
	if len(templates) != 2 {
		t.Fatalf("import replaced instead of appended: %d templates", len(templates))
	}
	if templates[0].ID != existing.ID {
		t.Fatalf("existing template lost")
	}
}

func TestImportRejectsMalformedPayloads(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	before := s.Project()

	for _, raw := range [][]byte{
		[]byte("not json at all"),
		[]byte(`{"dynamicTemplates": []}`), // no project
		[]byte(`{"project": 42}`),
	} {
		if s.ImportProject(ctx, raw) {
			t.Fatalf("import accepted %q", raw)
		}
	}

	if s.Project().ID != before.ID {
		t.Fatalf("rejected import changed the project")
	}
}

func TestImportToleratesUnknownAndMissingFields(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	raw := []byte(`{
		"project": {"id": "project_old", "name": "Old Export", "components": []},
		"futureField": {"anything": true}
	}`)
	if !s.ImportProject(ctx, raw) {
		t.Fatalf("tolerant import rejected")
	}
	if s.Project().ID != "project_old" {
		t.Fatalf("imported project not applied")
	}
}

func TestSanitizeExportName(t *testing.T) {
	cases := map[string]string{
		"My Landing Page": "my_landing_page",
		"Shop 24/7!":      "shop_24_7_",
		"ALLCAPS":         "allcaps",
		"":                "",
	}
	for in, want := range cases {
		if got := SanitizeExportName(in); got != want {
			t.Fatalf("SanitizeExportName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExportFilename(t *testing.T) {
	s, _ := newTestStore(t)
	project := s.Project()
	project.Name = "My Landing Page"
	s.LoadProject(context.Background(), project)

	if got := s.ExportFilename(); got != "my_landing_page_export.json" {
		t.Fatalf("filename = %q", got)
	}
}

func TestDimensionJSONForms(t *testing.T) {
	size := Size{Width: Full, Height: PxDimension(80)}
	raw, err := json.Marshal(size)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"width":"100%","height":80}` {
		t.Fatalf("size serialized as %s", raw)
	}

	var back Size
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != size {
		t.Fatalf("round trip changed value: %+v", back)
	}

	var bad Dimension
	if err := json.Unmarshal([]byte("true"), &bad); err == nil {
		t.Fatalf("boolean accepted as dimension")
	}
}
