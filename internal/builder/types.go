package builder

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// ComponentType enumerates the placeable content blocks.
type ComponentType string

const (
	ComponentHero        ComponentType = "hero"
	ComponentFeature     ComponentType = "feature"
	ComponentTestimonial ComponentType = "testimonial"
	ComponentPricing     ComponentType = "pricing"
	ComponentContact     ComponentType = "contact"
	ComponentText        ComponentType = "text"
	ComponentImage       ComponentType = "image"
	ComponentButton      ComponentType = "button"
)

// Valid reports whether t is a member of the closed component type set.
func (t ComponentType) Valid() bool {
	switch t {
	case ComponentHero, ComponentFeature, ComponentTestimonial, ComponentPricing,
		ComponentContact, ComponentText, ComponentImage, ComponentButton:
		return true
	}
	return false
}

// SectionType enumerates the named regions a layout may declare.
type SectionType string

const (
	SectionHeader       SectionType = "header"
	SectionHero         SectionType = "hero"
	SectionFeatures     SectionType = "features"
	SectionTestimonials SectionType = "testimonials"
	SectionPricing      SectionType = "pricing"
	SectionContact      SectionType = "contact"
	SectionFooter       SectionType = "footer"
	SectionCustom       SectionType = "custom"
)

// SectionLayout is the positioning strategy inside a section.
type SectionLayout string

const (
	LayoutFlex     SectionLayout = "flex"
	LayoutGrid     SectionLayout = "grid"
	LayoutAbsolute SectionLayout = "absolute"
)

// TemplateCategory classifies built-in and generated templates.
type TemplateCategory string

const (
	CategoryBusiness  TemplateCategory = "business"
	CategoryPortfolio TemplateCategory = "portfolio"
	CategoryEcommerce TemplateCategory = "ecommerce"
	CategorySaaS      TemplateCategory = "saas"
	CategoryAgency    TemplateCategory = "agency"
	CategoryBlog      TemplateCategory = "blog"
)

// DeviceView is the preview viewport selected in the editor.
type DeviceView string

const (
	ViewDesktop DeviceView = "desktop"
	ViewTablet  DeviceView = "tablet"
	ViewMobile  DeviceView = "mobile"
)

// Valid reports whether v is a known device view.
func (v DeviceView) Valid() bool {
	switch v {
	case ViewDesktop, ViewTablet, ViewMobile:
		return true
	}
	return false
}

// Position is an absolute canvas coordinate in pixels.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dimension is either a pixel count or a literal sentinel such as
// "100%" or "auto". The sentinel wins when both are set.
type Dimension struct {
	Px       float64
	Sentinel string
}

// Auto is the stretch sentinel used by section heights.
var Auto = Dimension{Sentinel: "auto"}

// Full is the auto-fill (100%) sentinel used by component widths.
var Full = Dimension{Sentinel: "100%"}

// PxDimension returns a fixed pixel dimension.
func PxDimension(px float64) Dimension { return Dimension{Px: px} }

func (d Dimension) MarshalJSON() ([]byte, error) {
	if d.Sentinel != "" {
		return json.Marshal(d.Sentinel)
	}
	return json.Marshal(d.Px)
}

func (d *Dimension) UnmarshalJSON(data []byte) error {
	var px float64
	if err := json.Unmarshal(data, &px); err == nil {
		*d = Dimension{Px: px}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("dimension must be a number or string: %s", string(data))
	}
	*d = Dimension{Sentinel: s}
	return nil
}

// Size is a component's width/height pair.
type Size struct {
	Width  Dimension `json:"width"`
	Height Dimension `json:"height"`
}

// Component is a single placeable unit of page content. Content and
// Styles stay open mappings: their shape depends on Type and is authored
// by users or the generation service, never enforced structurally.
type Component struct {
	ID            string         `json:"id"`
	Type          ComponentType  `json:"type"`
	Content       map[string]any `json:"content"`
	Styles        map[string]any `json:"styles"`
	Position      Position       `json:"position"`
	Size          Size           `json:"size"`
	SectionID     string         `json:"sectionId,omitempty"`
	IsAIGenerated bool           `json:"isAIGenerated,omitempty"`
	AIPrompt      string         `json:"aiPrompt,omitempty"`
}

// Clone returns a deep copy of the component.
func (c Component) Clone() Component {
	out := c
	out.Content = cloneMap(c.Content)
	out.Styles = cloneMap(c.Styles)
	return out
}

// SectionConstraints is the declarative membership policy of a section.
// Zero values mean unconstrained.
type SectionConstraints struct {
	MaxComponents int             `json:"maxComponents,omitempty"`
	AllowedTypes  []ComponentType `json:"allowedTypes,omitempty"`
	Layout        SectionLayout   `json:"layout,omitempty"`
	Columns       int             `json:"columns,omitempty"`
}

// Allows reports whether the constraint set admits the given type.
func (sc SectionConstraints) Allows(t ComponentType) bool {
	if len(sc.AllowedTypes) == 0 {
		return true
	}
	for _, allowed := range sc.AllowedTypes {
		if allowed == t {
			return true
		}
	}
	return false
}

// Section is a named region of a layout. Components holds the
// authoritative membership list, ordered.
type Section struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	Type            SectionType        `json:"type"`
	Order           int                `json:"order"`
	Height          Dimension          `json:"height"`
	BackgroundColor string             `json:"backgroundColor"`
	Padding         float64            `json:"padding"`
	Components      []string           `json:"components"`
	Constraints     SectionConstraints `json:"constraints"`
}

// Clone returns a deep copy of the section.
func (s Section) Clone() Section {
	out := s
	out.Components = append([]string(nil), s.Components...)
	out.Constraints.AllowedTypes = append([]ComponentType(nil), s.Constraints.AllowedTypes...)
	return out
}

// GlobalStyles are the shared visual defaults of a layout.
type GlobalStyles struct {
	FontFamily      string `json:"fontFamily"`
	PrimaryColor    string `json:"primaryColor"`
	SecondaryColor  string `json:"secondaryColor"`
	BackgroundColor string `json:"backgroundColor"`
}

// Layout is an ordered collection of sections plus shared defaults.
type Layout struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Description   string       `json:"description"`
	Category      string       `json:"category"`
	Sections      []Section    `json:"sections"`
	GlobalStyles  GlobalStyles `json:"globalStyles"`
	IsAIGenerated bool         `json:"isAIGenerated,omitempty"`
	AIPrompt      string       `json:"aiPrompt,omitempty"`
}

// Clone returns a deep copy of the layout.
func (l Layout) Clone() Layout {
	out := l
	out.Sections = make([]Section, len(l.Sections))
	for i, s := range l.Sections {
		out.Sections[i] = s.Clone()
	}
	return out
}

// Section returns a pointer to the section with the given id, or nil.
func (l *Layout) Section(id string) *Section {
	for i := range l.Sections {
		if l.Sections[i].ID == id {
			return &l.Sections[i]
		}
	}
	return nil
}

// SortedSections returns the sections ordered ascending by Order.
// Ties keep insertion order.
func (l Layout) SortedSections() []Section {
	out := make([]Section, len(l.Sections))
	for i, s := range l.Sections {
		out[i] = s.Clone()
	}
	sortSectionsStable(out)
	return out
}

// Template is a reusable bundle of components, optionally with a layout.
type Template struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Category      TemplateCategory `json:"category"`
	Thumbnail     string           `json:"thumbnail"`
	Components    []Component      `json:"components"`
	Description   string           `json:"description"`
	Layout        *Layout          `json:"layout,omitempty"`
	IsAIGenerated bool             `json:"isAIGenerated,omitempty"`
	AIPrompt      string           `json:"aiPrompt,omitempty"`
}

// Clone returns a deep copy of the template.
func (t Template) Clone() Template {
	out := t
	out.Components = make([]Component, len(t.Components))
	for i, c := range t.Components {
		out.Components[i] = c.Clone()
	}
	if t.Layout != nil {
		layout := t.Layout.Clone()
		out.Layout = &layout
	}
	return out
}

// ProjectSettings are per-project editor defaults.
type ProjectSettings struct {
	Theme        string `json:"theme"`
	PrimaryColor string `json:"primaryColor"`
	FontFamily   string `json:"fontFamily"`
}

// Project is the root aggregate being edited. Components is the flat,
// single source of truth for every component regardless of section
// membership; Layout is the optional active section layout.
type Project struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Components   []Component     `json:"components"`
	Layout       *Layout         `json:"layout,omitempty"`
	Settings     ProjectSettings `json:"settings"`
	LastModified time.Time       `json:"lastModified"`
}

// Component returns a pointer to the component with the given id, or nil.
func (p *Project) Component(id string) *Component {
	for i := range p.Components {
		if p.Components[i].ID == id {
			return &p.Components[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the project.
func (p Project) Clone() Project {
	out := p
	out.Components = make([]Component, len(p.Components))
	for i, c := range p.Components {
		out.Components[i] = c.Clone()
	}
	if p.Layout != nil {
		layout := p.Layout.Clone()
		out.Layout = &layout
	}
	return out
}

// DefaultProject builds a fresh, empty project with editor defaults.
func DefaultProject() Project {
	return Project{
		ID:         NewProjectID(),
		Name:       "New Project",
		Components: []Component{},
		Settings: ProjectSettings{
			Theme:        "light",
			PrimaryColor: "#3B82F6",
			FontFamily:   "Inter",
		},
		LastModified: time.Now(),
	}
}

// ID minting. Prefixes match the original storage format so exported
// documents stay recognizable across versions.

func NewProjectID() string   { return "project_" + uuid.NewString() }
func NewComponentID() string { return "component_" + uuid.NewString() }

// NewDynamicTemplateID and NewDynamicComponentID mint ids for entities
// registered in the AI collections.
func NewDynamicTemplateID() string  { return "ai_template_" + uuid.NewString() }
func NewDynamicComponentID() string { return "ai_component_" + uuid.NewString() }

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func sortSectionsStable(sections []Section) {
	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].Order < sections[j].Order
	})
}
