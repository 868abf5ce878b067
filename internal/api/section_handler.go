package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pagecraft/internal/builder"
)

// SectionHandler serves section mutations and section-scoped component
// placement. Constraint rejections do not change state; the endpoint
// reports them as a 409.
type SectionHandler struct {
	store *builder.Store
}

// NewSectionHandler builds the handler.
func NewSectionHandler(store *builder.Store) *SectionHandler {
	return &SectionHandler{store: store}
}

// UpdateSection merges a field patch into the named section.
func (h *SectionHandler) UpdateSection(c *gin.Context) {
	var patch builder.SectionPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		BadRequest(c, err.Error())
		return
	}

	id := c.Param("id")
	if !h.store.UpdateSection(c.Request.Context(), id, patch) {
		NotFound(c, "section not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": h.store.Project()})
}

// DeleteSection removes a section and every component it hosts.
func (h *SectionHandler) DeleteSection(c *gin.Context) {
	id := c.Param("id")
	if !h.store.DeleteSection(c.Request.Context(), id) {
		NotFound(c, "section not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": h.store.Project()})
}

// addToSectionRequest covers both placement shapes: an existing
// component re-homed by id, or a fresh component described inline.
type addToSectionRequest struct {
	ComponentID string               `json:"componentId"`
	Component   *addComponentRequest `json:"component"`
	Position    *builder.Position    `json:"position"`
}

// AddComponentToSection places a component into a section, subject to
// the section's type and capacity constraints.
func (h *SectionHandler) AddComponentToSection(c *gin.Context) {
	var req addToSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	sectionID := c.Param("id")
	ctx := c.Request.Context()

	switch {
	case req.ComponentID != "":
		if !h.store.AttachComponentToSection(ctx, req.ComponentID, sectionID, req.Position) {
			Conflict(c, "section placement rejected")
			return
		}
		c.JSON(http.StatusOK, gin.H{"project": h.store.Project()})

	case req.Component != nil:
		if !req.Component.Type.Valid() {
			BadRequest(c, "unknown component type")
			return
		}
		draft := builder.Component{
			Type:    req.Component.Type,
			Content: req.Component.Content,
			Styles:  req.Component.Styles,
		}
		if req.Component.Size != nil {
			draft.Size = *req.Component.Size
		}
		pos := req.Position
		if pos == nil {
			pos = req.Component.Position
		}
		created, ok := h.store.AddComponentToSection(ctx, draft, sectionID, pos)
		if !ok {
			Conflict(c, "section placement rejected")
			return
		}
		c.JSON(http.StatusCreated, gin.H{"component": created, "project": h.store.Project()})

	default:
		BadRequest(c, "componentId or component is required")
	}
}
