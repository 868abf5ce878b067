// Package builder holds the project document model and its mutation
// protocol: the entity types, the single mutable store, the section
// constraint checks and the export/import envelope.
package builder

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"pagecraft/internal/persist"
)

// Store is the single source of truth for the active project, the two
// AI-generated collections and the transient editor state. All mutations
// go through it; every committed mutation stamps the project and mirrors
// the changed collection through the persistence port, best-effort.
//
// A mutex serializes access because HTTP handlers call in concurrently,
// but logically there is exactly one editing session per durable store.
type Store struct {
	mu     sync.Mutex
	port   persist.Port
	logger *slog.Logger

	project           Project
	dynamicTemplates  []Template
	dynamicComponents []Component
	selected          string
	deviceView        DeviceView
}

// userSettings is the durable slice of transient editor state.
type userSettings struct {
	DeviceView DeviceView `json:"deviceView"`
}

// NewStore hydrates a store from the persistence port. Missing or corrupt
// entries fall back to defaults; hydration never fails.
func NewStore(ctx context.Context, port persist.Port, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		port:              port,
		logger:            logger,
		project:           DefaultProject(),
		dynamicTemplates:  []Template{},
		dynamicComponents: []Component{},
		deviceView:        ViewDesktop,
	}
	s.hydrate(ctx)
	return s
}

func (s *Store) hydrate(ctx context.Context) {
	var project Project
	if s.loadJSON(ctx, persist.KeyCurrentProject, &project) && project.ID != "" {
		s.project = project
	}
	var templates []Template
	if s.loadJSON(ctx, persist.KeyDynamicTemplates, &templates) && templates != nil {
		s.dynamicTemplates = templates
	}
	var components []Component
	if s.loadJSON(ctx, persist.KeyDynamicComponents, &components) && components != nil {
		s.dynamicComponents = components
	}
	var settings userSettings
	if s.loadJSON(ctx, persist.KeyUserSettings, &settings) && settings.DeviceView.Valid() {
		s.deviceView = settings.DeviceView
	}
}

// loadJSON reads and decodes one durable key. False means the caller
// should keep its default.
func (s *Store) loadJSON(ctx context.Context, key string, out any) bool {
	data, err := s.port.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, persist.ErrNotFound) {
			s.logger.Warn("load durable state failed, using default",
				slog.String("key", key), slog.Any("error", err))
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		s.logger.Warn("corrupt durable state, using default",
			slog.String("key", key), slog.Any("error", err))
		return false
	}
	return true
}

// saveJSON mirrors one collection through the port. Failures are logged
// and swallowed: the mutation is already committed in memory.
func (s *Store) saveJSON(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Error("marshal durable state failed",
			slog.String("key", key), slog.Any("error", err))
		return
	}
	if err := s.port.Save(ctx, key, data); err != nil {
		s.logger.Error("save durable state failed",
			slog.String("key", key), slog.Any("error", err))
	}
}

func (s *Store) persistProject(ctx context.Context) {
	s.saveJSON(ctx, persist.KeyCurrentProject, s.project)
}

func (s *Store) persistTemplates(ctx context.Context) {
	s.saveJSON(ctx, persist.KeyDynamicTemplates, s.dynamicTemplates)
}

func (s *Store) persistComponents(ctx context.Context) {
	s.saveJSON(ctx, persist.KeyDynamicComponents, s.dynamicComponents)
}

func (s *Store) persistSettings(ctx context.Context) {
	s.saveJSON(ctx, persist.KeyUserSettings, userSettings{DeviceView: s.deviceView})
}

func (s *Store) stamp() { s.project.LastModified = time.Now() }

// Project returns a deep copy of the active project.
func (s *Store) Project() Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.project.Clone()
}

// DynamicTemplates returns a copy of the AI template collection.
func (s *Store) DynamicTemplates() []Template {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Template, len(s.dynamicTemplates))
	for i, t := range s.dynamicTemplates {
		out[i] = t.Clone()
	}
	return out
}

// DynamicComponents returns a copy of the AI component collection.
func (s *Store) DynamicComponents() []Component {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Component, len(s.dynamicComponents))
	for i, c := range s.dynamicComponents {
		out[i] = c.Clone()
	}
	return out
}

// Selected returns the id of the selected component, or "".
func (s *Store) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// DeviceView returns the current preview viewport.
func (s *Store) DeviceView() DeviceView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deviceView
}

// CreateProject replaces the active project with a fresh default one and
// clears the selection.
func (s *Store) CreateProject(ctx context.Context) Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.project = DefaultProject()
	s.selected = ""
	s.persistProject(ctx)
	return s.project.Clone()
}

// LoadProject replaces the active project wholesale. Sections are
// normalized to ascending order on the way in.
func (s *Store) LoadProject(ctx context.Context, p Project) Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.project = p.Clone()
	if s.project.Layout != nil {
		s.project.Layout.Sections = s.project.Layout.SortedSections()
	}
	s.stamp()
	s.selected = ""
	s.persistProject(ctx)
	return s.project.Clone()
}

// SaveProject stamps and persists the active project.
func (s *Store) SaveProject(ctx context.Context) Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamp()
	s.persistProject(ctx)
	return s.project.Clone()
}

// AddComponent appends a component with a freshly minted id and selects it.
func (s *Store) AddComponent(ctx context.Context, draft Component) Component {
	s.mu.Lock()
	defer s.mu.Unlock()
	comp := draft.Clone()
	comp.ID = NewComponentID()
	comp.SectionID = ""
	s.project.Components = append(s.project.Components, comp)
	s.selected = comp.ID
	s.stamp()
	s.persistProject(ctx)
	return comp.Clone()
}

// ComponentPatch addresses the fields UpdateComponent may replace.
// Addressed fields are replaced wholesale, unaddressed fields are kept.
type ComponentPatch struct {
	Type     *ComponentType `json:"type,omitempty"`
	Content  map[string]any `json:"content,omitempty"`
	Styles   map[string]any `json:"styles,omitempty"`
	Position *Position      `json:"position,omitempty"`
	Size     *Size          `json:"size,omitempty"`
	AIPrompt *string        `json:"aiPrompt,omitempty"`
}

// UpdateComponent applies a field-level patch. Missing ids are a no-op.
// Section constraints are not re-checked here; only the add path
// validates them.
func (s *Store) UpdateComponent(ctx context.Context, id string, patch ComponentPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	comp := s.project.Component(id)
	if comp == nil {
		return false
	}
	applyComponentPatch(comp, patch)
	s.stamp()
	s.persistProject(ctx)
	return true
}

func applyComponentPatch(comp *Component, patch ComponentPatch) {
	if patch.Type != nil {
		comp.Type = *patch.Type
	}
	if patch.Content != nil {
		comp.Content = cloneMap(patch.Content)
	}
	if patch.Styles != nil {
		comp.Styles = cloneMap(patch.Styles)
	}
	if patch.Position != nil {
		comp.Position = *patch.Position
	}
	if patch.Size != nil {
		comp.Size = *patch.Size
	}
	if patch.AIPrompt != nil {
		comp.AIPrompt = *patch.AIPrompt
	}
}

// MoveComponent updates only the position of a component.
func (s *Store) MoveComponent(ctx context.Context, id string, pos Position) bool {
	return s.UpdateComponent(ctx, id, ComponentPatch{Position: &pos})
}

// DeleteComponent removes a component from the flat list and from any
// section membership, clearing the selection if it pointed at it.
func (s *Store) DeleteComponent(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project.Component(id) == nil {
		return false
	}
	s.removeComponentsLocked(map[string]struct{}{id: {}})
	s.stamp()
	s.persistProject(ctx)
	return true
}

// removeComponentsLocked drops the given ids from the flat list and from
// every section membership list, and fixes the selection.
func (s *Store) removeComponentsLocked(ids map[string]struct{}) {
	kept := s.project.Components[:0]
	for _, comp := range s.project.Components {
		if _, gone := ids[comp.ID]; !gone {
			kept = append(kept, comp)
		}
	}
	s.project.Components = kept

	if s.project.Layout != nil {
		for i := range s.project.Layout.Sections {
			section := &s.project.Layout.Sections[i]
			members := section.Components[:0]
			for _, memberID := range section.Components {
				if _, gone := ids[memberID]; !gone {
					members = append(members, memberID)
				}
			}
			section.Components = members
		}
	}

	if _, gone := ids[s.selected]; gone {
		s.selected = ""
	}
}

// duplicateOffset is the fixed position delta applied to copies.
const duplicateOffset = 20

// DuplicateComponent clones a component with a new id, offset by
// (+20,+20), and selects the copy. The copy lands on the open canvas:
// section membership is not inherited, so the membership lists stay
// consistent.
func (s *Store) DuplicateComponent(ctx context.Context, id string) (Component, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	source := s.project.Component(id)
	if source == nil {
		return Component{}, false
	}
	dup := source.Clone()
	dup.ID = NewComponentID()
	dup.SectionID = ""
	dup.Position.X += duplicateOffset
	dup.Position.Y += duplicateOffset
	s.project.Components = append(s.project.Components, dup)
	s.selected = dup.ID
	s.stamp()
	s.persistProject(ctx)
	return dup.Clone(), true
}

// SelectComponent sets the selection to an existing component id, or
// clears it when id is empty. Unknown ids leave the selection untouched.
func (s *Store) SelectComponent(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		s.selected = ""
		return true
	}
	if s.project.Component(id) == nil {
		return false
	}
	s.selected = id
	return true
}

// SetDeviceView switches the preview viewport and persists it.
func (s *Store) SetDeviceView(ctx context.Context, view DeviceView) bool {
	if !view.Valid() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deviceView = view
	s.persistSettings(ctx)
	return true
}

// LoadTemplate replaces the project contents with fresh copies of the
// template's components (new ids), applies its layout if present and
// renames the project after the template. Section membership lists are
// remapped onto the new ids; stale references are dropped.
func (s *Store) LoadTemplate(ctx context.Context, t Template) Project {
	s.mu.Lock()
	defer s.mu.Unlock()

	idMap := make(map[string]string, len(t.Components))
	components := make([]Component, 0, len(t.Components))
	for _, src := range t.Components {
		comp := src.Clone()
		comp.ID = NewComponentID()
		comp.SectionID = ""
		idMap[src.ID] = comp.ID
		components = append(components, comp)
	}

	var layout *Layout
	if t.Layout != nil {
		clone := t.Layout.Clone()
		sortSectionsStable(clone.Sections)
		for i := range clone.Sections {
			section := &clone.Sections[i]
			members := make([]string, 0, len(section.Components))
			for _, oldID := range section.Components {
				if newID, ok := idMap[oldID]; ok {
					members = append(members, newID)
				}
			}
			section.Components = members
		}
		layout = &clone
	}

	// Membership lists are authoritative: derive the back-references.
	if layout != nil {
		byID := make(map[string]*Component, len(components))
		for i := range components {
			byID[components[i].ID] = &components[i]
		}
		for _, section := range layout.Sections {
			for _, memberID := range section.Components {
				if comp, ok := byID[memberID]; ok {
					comp.SectionID = section.ID
				}
			}
		}
	}

	s.project.Name = t.Name
	s.project.Components = components
	s.project.Layout = layout
	s.selected = ""
	s.stamp()
	s.persistProject(ctx)
	return s.project.Clone()
}

// LoadLayout replaces the active layout with a deep copy whose sections
// start empty, and discards every current component. Switching layouts is
// destructive regardless of where the components came from.
func (s *Store) LoadLayout(ctx context.Context, layout Layout) Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := layout.Clone()
	sortSectionsStable(clone.Sections)
	for i := range clone.Sections {
		clone.Sections[i].Components = []string{}
	}
	s.project.Layout = &clone
	s.project.Components = []Component{}
	s.selected = ""
	s.stamp()
	s.persistProject(ctx)
	return s.project.Clone()
}

// SectionPatch addresses the fields UpdateSection may replace. Membership
// is deliberately absent: only the constraint-checked add path and the
// delete cascades touch it.
type SectionPatch struct {
	Name            *string             `json:"name,omitempty"`
	Type            *SectionType        `json:"type,omitempty"`
	Order           *int                `json:"order,omitempty"`
	Height          *Dimension          `json:"height,omitempty"`
	BackgroundColor *string             `json:"backgroundColor,omitempty"`
	Padding         *float64            `json:"padding,omitempty"`
	Constraints     *SectionConstraints `json:"constraints,omitempty"`
}

// UpdateSection merges fields into the named section. No active layout or
// unknown id is a no-op.
func (s *Store) UpdateSection(ctx context.Context, sectionID string, patch SectionPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project.Layout == nil {
		return false
	}
	section := s.project.Layout.Section(sectionID)
	if section == nil {
		return false
	}
	if patch.Name != nil {
		section.Name = *patch.Name
	}
	if patch.Type != nil {
		section.Type = *patch.Type
	}
	if patch.Order != nil {
		section.Order = *patch.Order
	}
	if patch.Height != nil {
		section.Height = *patch.Height
	}
	if patch.BackgroundColor != nil {
		section.BackgroundColor = *patch.BackgroundColor
	}
	if patch.Padding != nil {
		section.Padding = *patch.Padding
	}
	if patch.Constraints != nil {
		section.Constraints = *patch.Constraints
	}
	s.stamp()
	s.persistProject(ctx)
	return true
}

// DeleteSection removes the section from the layout and deletes every
// component it contained from the flat list, not just the links.
func (s *Store) DeleteSection(ctx context.Context, sectionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project.Layout == nil {
		return false
	}
	section := s.project.Layout.Section(sectionID)
	if section == nil {
		return false
	}

	doomed := make(map[string]struct{}, len(section.Components))
	for _, id := range section.Components {
		doomed[id] = struct{}{}
	}

	sections := s.project.Layout.Sections[:0]
	for _, sec := range s.project.Layout.Sections {
		if sec.ID != sectionID {
			sections = append(sections, sec)
		}
	}
	s.project.Layout.Sections = sections

	s.removeComponentsLocked(doomed)
	s.stamp()
	s.persistProject(ctx)
	return true
}

// AddDynamicTemplate registers an AI-generated template under a fresh id
// and returns the stored copy.
func (s *Store) AddDynamicTemplate(ctx context.Context, t Template) Template {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := t.Clone()
	stored.ID = NewDynamicTemplateID()
	s.dynamicTemplates = append(s.dynamicTemplates, stored)
	s.persistTemplates(ctx)
	return stored.Clone()
}

// AddDynamicComponent registers an AI-generated component under a fresh
// id and returns the stored copy.
func (s *Store) AddDynamicComponent(ctx context.Context, c Component) Component {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := c.Clone()
	stored.ID = NewDynamicComponentID()
	s.dynamicComponents = append(s.dynamicComponents, stored)
	s.persistComponents(ctx)
	return stored.Clone()
}

// RemoveDynamicTemplate drops a template from the AI collection.
func (s *Store) RemoveDynamicTemplate(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.dynamicTemplates[:0]
	found := false
	for _, t := range s.dynamicTemplates {
		if t.ID == id {
			found = true
			continue
		}
		kept = append(kept, t)
	}
	s.dynamicTemplates = kept
	if found {
		s.persistTemplates(ctx)
	}
	return found
}

// RemoveDynamicComponent drops a component from the AI collection.
func (s *Store) RemoveDynamicComponent(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.dynamicComponents[:0]
	found := false
	for _, c := range s.dynamicComponents {
		if c.ID == id {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	s.dynamicComponents = kept
	if found {
		s.persistComponents(ctx)
	}
	return found
}

// StorageInfo reports the serialized size of each durable collection.
type StorageInfo struct {
	CurrentProjectBytes    int     `json:"currentProject"`
	DynamicTemplatesBytes  int     `json:"dynamicTemplates"`
	DynamicComponentsBytes int     `json:"dynamicComponents"`
	TotalBytes             int     `json:"total"`
	TotalKB                float64 `json:"totalKB"`
	ProjectCount           int     `json:"projectCount"`
	TemplateCount          int     `json:"templateCount"`
	ComponentCount         int     `json:"componentCount"`
}

// StorageInfo sizes the durable collections as they would be persisted.
func (s *Store) StorageInfo() StorageInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	info := StorageInfo{
		ProjectCount:   1,
		TemplateCount:  len(s.dynamicTemplates),
		ComponentCount: len(s.dynamicComponents),
	}
	if data, err := json.Marshal(s.project); err == nil {
		info.CurrentProjectBytes = len(data)
	}
	if data, err := json.Marshal(s.dynamicTemplates); err == nil {
		info.DynamicTemplatesBytes = len(data)
	}
	if data, err := json.Marshal(s.dynamicComponents); err == nil {
		info.DynamicComponentsBytes = len(data)
	}
	info.TotalBytes = info.CurrentProjectBytes + info.DynamicTemplatesBytes + info.DynamicComponentsBytes
	info.TotalKB = math.Round(float64(info.TotalBytes)/1024*100) / 100
	return info
}

// ResetBuilder wipes all durable keys and returns every piece of state to
// its initial default. The fresh defaults are persisted immediately, the
// same way any other committed mutation would be.
func (s *Store) ResetBuilder(ctx context.Context) Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range persist.Keys {
		if err := s.port.Delete(ctx, key); err != nil {
			s.logger.Error("delete durable state failed",
				slog.String("key", key), slog.Any("error", err))
		}
	}
	s.project = DefaultProject()
	s.dynamicTemplates = []Template{}
	s.dynamicComponents = []Component{}
	s.selected = ""
	s.deviceView = ViewDesktop
	s.persistProject(ctx)
	s.persistTemplates(ctx)
	s.persistComponents(ctx)
	s.persistSettings(ctx)
	return s.project.Clone()
}
