package builder

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"pagecraft/internal/persist"
)

func newTestStore(t *testing.T) (*Store, *persist.Memory) {
	t.Helper()
	port := persist.NewMemory()
	return NewStore(context.Background(), port, nil), port
}

func layoutWithSections(sections ...Section) *Layout {
	return &Layout{
		ID:       "layout_test",
		Name:     "Test Layout",
		Sections: sections,
	}
}

func section(id string, constraints SectionConstraints) Section {
	return Section{
		ID:          id,
		Name:        id,
		Type:        SectionCustom,
		Height:      Auto,
		Components:  []string{},
		Constraints: constraints,
	}
}

func installLayout(t *testing.T, s *Store, l *Layout) {
	t.Helper()
	project := s.Project()
	project.Layout = l
	s.LoadProject(context.Background(), project)
}

func TestNewStoreDefaults(t *testing.T) {
	s, _ := newTestStore(t)

	project := s.Project()
	if project.Name != "New Project" {
		t.Fatalf("default project name = %q", project.Name)
	}
	if len(project.Components) != 0 {
		t.Fatalf("default project has %d components", len(project.Components))
	}
	if s.DeviceView() != ViewDesktop {
		t.Fatalf("default device view = %q", s.DeviceView())
	}
	if s.Selected() != "" {
		t.Fatalf("default selection = %q", s.Selected())
	}
}

func TestHydrateFromPersistedState(t *testing.T) {
	ctx := context.Background()
	port := persist.NewMemory()

	first := NewStore(ctx, port, nil)
	first.AddComponent(ctx, Component{Type: ComponentText})
	first.SetDeviceView(ctx, ViewMobile)
	savedID := first.Project().ID

	second := NewStore(ctx, port, nil)
	if got := second.Project().ID; got != savedID {
		t.Fatalf("rehydrated project id = %q, want %q", got, savedID)
	}
	if len(second.Project().Components) != 1 {
		t.Fatalf("rehydrated project lost components")
	}
	if second.DeviceView() != ViewMobile {
		t.Fatalf("rehydrated device view = %q", second.DeviceView())
	}
}

func TestHydrateCorruptStateFallsBack(t *testing.T) {
	ctx := context.Background()
	port := persist.NewMemory()
	if err := port.Save(ctx, persist.KeyCurrentProject, []byte("{not json")); err != nil {
		t.Fatalf("seed corrupt state: %v", err)
	}

	s := NewStore(ctx, port, nil)
	if s.Project().Name != "New Project" {
		t.Fatalf("corrupt state did not fall back to default project")
	}
}

func TestAddComponentMintsIDAndSelects(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	created := s.AddComponent(ctx, Component{
		ID:        "ignored",
		Type:      ComponentHero,
		SectionID: "also-ignored",
	})

	if created.ID == "" || created.ID == "ignored" {
		t.Fatalf("component id not minted: %q", created.ID)
	}
	if created.SectionID != "" {
		t.Fatalf("new component inherited a section id %q", created.SectionID)
	}
	if s.Selected() != created.ID {
		t.Fatalf("new component not selected")
	}
	if len(s.Project().Components) != 1 {
		t.Fatalf("component not appended")
	}
}

func TestUpdateComponentPatchSemantics(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	created := s.AddComponent(ctx, Component{
		Type:    ComponentText,
		Content: map[string]any{"text": "hello", "align": "left"},
		Styles:  map[string]any{"color": "#000"},
	})

	newContent := map[string]any{"text": "bye"}
	if !s.UpdateComponent(ctx, created.ID, ComponentPatch{Content: newContent}) {
		t.Fatalf("update rejected")
	}

	proj := s.Project()
	got := *proj.Component(created.ID)
	// addressed field replaced wholesale
	if _, stillThere := got.Content["align"]; stillThere {
		t.Fatalf("content merge happened, want wholesale replace: %v", got.Content)
	}
	if got.Content["text"] != "bye" {
		t.Fatalf("content not replaced: %v", got.Content)
	}
	// unaddressed field untouched
	if got.Styles["color"] != "#000" {
		t.Fatalf("styles changed by unrelated patch: %v", got.Styles)
	}
}

func TestUpdateComponentEmptyPatchKeepsEverything(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	created := s.AddComponent(ctx, Component{
		Type:     ComponentButton,
		Content:  map[string]any{"label": "Go"},
		Position: Position{X: 5, Y: 6},
	})

	if !s.UpdateComponent(ctx, created.ID, ComponentPatch{}) {
		t.Fatalf("empty patch rejected")
	}

	proj := s.Project()
	got := *proj.Component(created.ID)
	if got.Content["label"] != "Go" || got.Position != (Position{X: 5, Y: 6}) || got.Type != ComponentButton {
		t.Fatalf("empty patch changed fields: %+v", got)
	}
}

func TestUpdateComponentUnknownIDIsNoOp(t *testing.T) {
	s, _ := newTestStore(t)
	before := s.Project().LastModified

	if s.UpdateComponent(context.Background(), "component_missing", ComponentPatch{}) {
		t.Fatalf("update of missing component reported success")
	}
	if !s.Project().LastModified.Equal(before) {
		t.Fatalf("no-op stamped the project")
	}
}

func TestDeleteComponentRemovesMembershipAndSelection(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	installLayout(t, s, layoutWithSections(section("sec_a", SectionConstraints{})))

	created, ok := s.AddComponentToSection(ctx, Component{Type: ComponentText}, "sec_a", nil)
	if !ok {
		t.Fatalf("section add rejected")
	}
	if s.Selected() != created.ID {
		t.Fatalf("section add did not select")
	}

	if !s.DeleteComponent(ctx, created.ID) {
		t.Fatalf("delete rejected")
	}

	project := s.Project()
	if len(project.Components) != 0 {
		t.Fatalf("component still in flat list")
	}
	if got := project.Layout.Section("sec_a").Components; len(got) != 0 {
		t.Fatalf("membership list still references deleted component: %v", got)
	}
	if s.Selected() != "" {
		t.Fatalf("selection still points at deleted component")
	}
}

func TestDuplicateComponentOffsetAndCanvasPlacement(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	installLayout(t, s, layoutWithSections(section("sec_a", SectionConstraints{})))

	source, ok := s.AddComponentToSection(ctx, Component{Type: ComponentImage}, "sec_a", &Position{X: 50, Y: 100})
	if !ok {
		t.Fatalf("section add rejected")
	}

	dup, ok := s.DuplicateComponent(ctx, source.ID)
	if !ok {
		t.Fatalf("duplicate rejected")
	}
	if dup.ID == source.ID {
		t.Fatalf("duplicate kept the source id")
	}
	if dup.Position != (Position{X: 70, Y: 120}) {
		t.Fatalf("duplicate position = %+v", dup.Position)
	}
	// the copy lands on the open canvas, not in the source's section
	if dup.SectionID != "" {
		t.Fatalf("duplicate inherited section %q", dup.SectionID)
	}
	if got := s.Project().Layout.Section("sec_a").Components; len(got) != 1 {
		t.Fatalf("section membership grew on duplicate: %v", got)
	}
	if s.Selected() != dup.ID {
		t.Fatalf("duplicate not selected")
	}
}

func TestSelectComponent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	created := s.AddComponent(ctx, Component{Type: ComponentText})

	if !s.SelectComponent(created.ID) {
		t.Fatalf("select of existing component rejected")
	}
	if s.SelectComponent("component_missing") {
		t.Fatalf("select of missing component accepted")
	}
	if s.Selected() != created.ID {
		t.Fatalf("failed select changed the selection")
	}
	if !s.SelectComponent("") {
		t.Fatalf("clear selection rejected")
	}
	if s.Selected() != "" {
		t.Fatalf("selection not cleared")
	}
}

func TestLoadTemplateRemapsMembershipAndDerivesBackReferences(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	tmpl := Template{
		ID:   "template_x",
		Name: "Landing X",
		Components: []Component{
			{ID: "old_a", Type: ComponentHero},
			{ID: "old_b", Type: ComponentText},
		},
		Layout: layoutWithSections(Section{
			ID:         "sec_hero",
			Type:       SectionHero,
			Components: []string{"old_a", "stale_ref"},
		}),
	}

	project := s.LoadTemplate(ctx, tmpl)

	if project.Name != "Landing X" {
		t.Fatalf("project not renamed after template: %q", project.Name)
	}
	if len(project.Components) != 2 {
		t.Fatalf("template components not copied")
	}
	for _, comp := range project.Components {
		if comp.ID == "old_a" || comp.ID == "old_b" {
			t.Fatalf("template component id reused: %q", comp.ID)
		}
	}

	members := project.Layout.Section("sec_hero").Components
	if len(members) != 1 {
		t.Fatalf("membership remap kept stale refs: %v", members)
	}
	placed := project.Component(members[0])
	if placed == nil || placed.Type != ComponentHero {
		t.Fatalf("membership points at the wrong component")
	}
	if placed.SectionID != "sec_hero" {
		t.Fatalf("back-reference not derived: %q", placed.SectionID)
	}

	for _, comp := range project.Components {
		if comp.Type == ComponentText && comp.SectionID != "" {
			t.Fatalf("unplaced component got a section id %q", comp.SectionID)
		}
	}
	if s.Selected() != "" {
		t.Fatalf("template load kept a selection")
	}
}

func TestLoadLayoutIsDestructive(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	s.AddComponent(ctx, Component{Type: ComponentText})

	layout := *layoutWithSections(Section{
		ID:         "sec_a",
		Type:       SectionHero,
		Components: []string{"phantom"},
	})
	project := s.LoadLayout(ctx, layout)

	if len(project.Components) != 0 {
		t.Fatalf("layout swap kept components")
	}
	if got := project.Layout.Section("sec_a").Components; len(got) != 0 {
		t.Fatalf("layout sections not emptied: %v", got)
	}
}

func TestLoadLayoutNormalizesSectionOrder(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	secLast := section("sec_last", SectionConstraints{})
	secLast.Order = 2
	secFirst := section("sec_first", SectionConstraints{})
	secFirst.Order = 0
	secTieA := section("sec_tie_a", SectionConstraints{})
	secTieA.Order = 1
	secTieB := section("sec_tie_b", SectionConstraints{})
	secTieB.Order = 1

	project := s.LoadLayout(ctx, *layoutWithSections(secLast, secTieA, secTieB, secFirst))

	got := make([]string, 0, len(project.Layout.Sections))
	for _, sec := range project.Layout.Sections {
		got = append(got, sec.ID)
	}
	want := []string{"sec_first", "sec_tie_a", "sec_tie_b", "sec_last"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("section order = %v, want %v", got, want)
		}
	}
}

func TestLoadProjectNormalizesSectionOrder(t *testing.T) {
	s, _ := newTestStore(t)

	secB := section("sec_b", SectionConstraints{})
	secB.Order = 5
	secA := section("sec_a", SectionConstraints{})
	secA.Order = 1
	installLayout(t, s, layoutWithSections(secB, secA))

	sections := s.Project().Layout.Sections
	if sections[0].ID != "sec_a" || sections[1].ID != "sec_b" {
		t.Fatalf("sections not normalized: %s, %s", sections[0].ID, sections[1].ID)
	}
}

func TestUpdateSectionIgnoresMembership(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	installLayout(t, s, layoutWithSections(section("sec_a", SectionConstraints{})))
	created, _ := s.AddComponentToSection(ctx, Component{Type: ComponentText}, "sec_a", nil)

	name := "Renamed"
	padding := 32.0
	if !s.UpdateSection(ctx, "sec_a", SectionPatch{Name: &name, Padding: &padding}) {
		t.Fatalf("section update rejected")
	}

	got := s.Project().Layout.Section("sec_a")
	if got.Name != "Renamed" || got.Padding != 32 {
		t.Fatalf("section patch not applied: %+v", got)
	}
	if len(got.Components) != 1 || got.Components[0] != created.ID {
		t.Fatalf("section patch touched membership: %v", got.Components)
	}
}

func TestDeleteSectionCascades(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	installLayout(t, s, layoutWithSections(
		section("sec_a", SectionConstraints{}),
		section("sec_b", SectionConstraints{}),
	))

	inA, _ := s.AddComponentToSection(ctx, Component{Type: ComponentText}, "sec_a", nil)
	inB, _ := s.AddComponentToSection(ctx, Component{Type: ComponentText}, "sec_b", nil)
	free := s.AddComponent(ctx, Component{Type: ComponentButton})

	if !s.DeleteSection(ctx, "sec_a") {
		t.Fatalf("section delete rejected")
	}

	project := s.Project()
	if project.Layout.Section("sec_a") != nil {
		t.Fatalf("section still present")
	}
	if project.Component(inA.ID) != nil {
		t.Fatalf("hosted component survived the cascade")
	}
	if project.Component(inB.ID) == nil || project.Component(free.ID) == nil {
		t.Fatalf("cascade deleted unrelated components")
	}
}

func TestDynamicCollections(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	tmpl := s.AddDynamicTemplate(ctx, Template{ID: "from_service", Name: "Gen"})
	comp := s.AddDynamicComponent(ctx, Component{ID: "from_service", Type: ComponentHero})

	if tmpl.ID == "from_service" || comp.ID == "from_service" {
		t.Fatalf("dynamic entries kept service-issued ids")
	}
	if len(s.DynamicTemplates()) != 1 || len(s.DynamicComponents()) != 1 {
		t.Fatalf("dynamic collections not updated")
	}

	if s.RemoveDynamicTemplate(ctx, "nope") {
		t.Fatalf("removed a template that does not exist")
	}
	if !s.RemoveDynamicTemplate(ctx, tmpl.ID) {
		t.Fatalf("remove dynamic template rejected")
	}
	if !s.RemoveDynamicComponent(ctx, comp.ID) {
		t.Fatalf("remove dynamic component rejected")
	}
	if len(s.DynamicTemplates()) != 0 || len(s.DynamicComponents()) != 0 {
		t.Fatalf("dynamic collections not emptied")
	}
}

func TestSetDeviceView(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if s.SetDeviceView(ctx, DeviceView("widescreen")) {
		t.Fatalf("unknown device view accepted")
	}
	if !s.SetDeviceView(ctx, ViewTablet) {
		t.Fatalf("valid device view rejected")
	}
	if s.DeviceView() != ViewTablet {
		t.Fatalf("device view not applied")
	}
}

func TestStorageInfo(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	s.AddDynamicComponent(ctx, Component{Type: ComponentText})

	info := s.StorageInfo()
	if info.ProjectCount != 1 || info.ComponentCount != 1 || info.TemplateCount != 0 {
		t.Fatalf("counts wrong: %+v", info)
	}
	if info.TotalBytes != info.CurrentProjectBytes+info.DynamicTemplatesBytes+info.DynamicComponentsBytes {
		t.Fatalf("total does not add up: %+v", info)
	}
	if info.TotalKB <= 0 {
		t.Fatalf("TotalKB = %v", info.TotalKB)
	}
}

func TestResetBuilder(t *testing.T) {
	ctx := context.Background()
	port := persist.NewMemory()
	s := NewStore(ctx, port, nil)

	s.AddComponent(ctx, Component{Type: ComponentText})
	s.AddDynamicTemplate(ctx, Template{Name: "Gen"})
	s.SetDeviceView(ctx, ViewMobile)

	project := s.ResetBuilder(ctx)

	if len(project.Components) != 0 || project.Name != "New Project" {
		t.Fatalf("reset did not restore the default project")
	}
	if len(s.DynamicTemplates()) != 0 || len(s.DynamicComponents()) != 0 {
		t.Fatalf("reset kept dynamic collections")
	}
	if s.DeviceView() != ViewDesktop || s.Selected() != "" {
		t.Fatalf("reset kept editor state")
	}

	// the fresh defaults are re-persisted, so a rehydrated store agrees
	raw, err := port.Load(ctx, persist.KeyCurrentProject)
	if err != nil {
		t.Fatalf("defaults not persisted after reset: %v", err)
	}
	var persisted Project
	if err := json.Unmarshal(raw, &persisted); err != nil {
		t.Fatalf("persisted default project corrupt: %v", err)
	}
	if persisted.ID != project.ID {
		t.Fatalf("persisted project id %q != returned %q", persisted.ID, project.ID)
	}
}

func TestPersistFailureDoesNotBlockMutation(t *testing.T) {
	ctx := context.Background()
	s := NewStore(ctx, failingPort{}, nil)

	created := s.AddComponent(ctx, Component{Type: ComponentText})
	proj := s.Project()
	if proj.Component(created.ID) == nil {
		t.Fatalf("mutation rolled back on persist failure")
	}
}

type failingPort struct{}

func (failingPort) Load(context.Context, string) ([]byte, error) {
	return nil, persist.ErrNotFound
}

func (failingPort) Save(context.Context, string, []byte) error {
	return errSaveUnavailable
}

func (failingPort) Delete(context.Context, string) error {
	return errSaveUnavailable
}

var errSaveUnavailable = errors.New("backend unavailable")
