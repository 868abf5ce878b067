package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pagecraft/internal/builder"
)

// ComponentHandler serves the component mutation endpoints. Store
// rejections come back as 404s where the id is knowably missing;
// everything else mirrors the store's no-op semantics.
type ComponentHandler struct {
	store *builder.Store
}

// NewComponentHandler builds the handler.
func NewComponentHandler(store *builder.Store) *ComponentHandler {
	return &ComponentHandler{store: store}
}

type addComponentRequest struct {
	Type     builder.ComponentType `json:"type" binding:"required"`
	Content  map[string]any        `json:"content"`
	Styles   map[string]any        `json:"styles"`
	Position *builder.Position     `json:"position"`
	Size     *builder.Size         `json:"size"`
}

// AddComponent appends a component to the canvas and selects it.
func (h *ComponentHandler) AddComponent(c *gin.Context) {
	var req addComponentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if !req.Type.Valid() {
		BadRequest(c, "unknown component type")
		return
	}

	draft := builder.Component{
		Type:    req.Type,
		Content: req.Content,
		Styles:  req.Styles,
	}
	if req.Position != nil {
		draft.Position = *req.Position
	}
	if req.Size != nil {
		draft.Size = *req.Size
	}

	created := h.store.AddComponent(c.Request.Context(), draft)
	c.JSON(http.StatusCreated, gin.H{"component": created})
}

// UpdateComponent applies a field-level patch.
func (h *ComponentHandler) UpdateComponent(c *gin.Context) {
	var patch builder.ComponentPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if patch.Type != nil && !patch.Type.Valid() {
		BadRequest(c, "unknown component type")
		return
	}

	id := c.Param("id")
	if !h.store.UpdateComponent(c.Request.Context(), id, patch) {
		NotFound(c, "component not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": h.store.Project()})
}

// DeleteComponent removes a component and its section membership.
func (h *ComponentHandler) DeleteComponent(c *gin.Context) {
	id := c.Param("id")
	if !h.store.DeleteComponent(c.Request.Context(), id) {
		NotFound(c, "component not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": h.store.Project()})
}

type moveComponentRequest struct {
	Position builder.Position `json:"position"`
}

// MoveComponent updates a component's canvas position.
func (h *ComponentHandler) MoveComponent(c *gin.Context) {
	var req moveComponentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	id := c.Param("id")
	if !h.store.MoveComponent(c.Request.Context(), id, req.Position) {
		NotFound(c, "component not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": h.store.Project()})
}

// DuplicateComponent clones a component with a small canvas offset.
func (h *ComponentHandler) DuplicateComponent(c *gin.Context) {
	id := c.Param("id")
	dup, ok := h.store.DuplicateComponent(c.Request.Context(), id)
	if !ok {
		NotFound(c, "component not found")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"component": dup})
}

type selectionRequest struct {
	ComponentID string `json:"componentId"`
}

// SetSelection selects a component, or clears the selection when the
// id is empty.
func (h *ComponentHandler) SetSelection(c *gin.Context) {
	var req selectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	if !h.store.SelectComponent(req.ComponentID) {
		NotFound(c, "component not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"selectedComponent": h.store.Selected()})
}

type deviceViewRequest struct {
	View builder.DeviceView `json:"view" binding:"required"`
}

// SetDeviceView switches the preview viewport.
func (h *ComponentHandler) SetDeviceView(c *gin.Context) {
	var req deviceViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	if !h.store.SetDeviceView(c.Request.Context(), req.View) {
		BadRequest(c, "unknown device view")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deviceView": h.store.DeviceView()})
}
