package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pagecraft/internal/builder"
	"pagecraft/internal/catalog"
)

// TemplateHandler serves the template and layout catalogs and applies
// them to the active project.
type TemplateHandler struct {
	store *builder.Store
}

// NewTemplateHandler builds the handler.
func NewTemplateHandler(store *builder.Store) *TemplateHandler {
	return &TemplateHandler{store: store}
}

// ListTemplates returns the built-in catalog plus session-generated
// templates.
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"templates": catalog.Templates(),
		"dynamic":   h.store.DynamicTemplates(),
	})
}

// ApplyTemplate loads a catalog or dynamic template into the project.
func (h *TemplateHandler) ApplyTemplate(c *gin.Context) {
	id := c.Param("id")

	tmpl, ok := catalog.Template(id)
	if !ok {
		tmpl, ok = h.dynamicTemplate(id)
	}
	if !ok {
		NotFound(c, "template not found")
		return
	}

	project := h.store.LoadTemplate(c.Request.Context(), tmpl)
	c.JSON(http.StatusOK, gin.H{"project": project})
}

// ListLayouts returns the built-in layout catalog.
func (h *TemplateHandler) ListLayouts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"layouts": catalog.Layouts()})
}

// ApplyLayout swaps the project's layout structure. This drops existing
// components; clients confirm before calling.
func (h *TemplateHandler) ApplyLayout(c *gin.Context) {
	id := c.Param("id")

	layout, ok := catalog.Layout(id)
	if !ok {
		NotFound(c, "layout not found")
		return
	}

	project := h.store.LoadLayout(c.Request.Context(), layout)
	c.JSON(http.StatusOK, gin.H{"project": project})
}

// RemoveDynamicTemplate drops a generated template from the library.
func (h *TemplateHandler) RemoveDynamicTemplate(c *gin.Context) {
	if !h.store.RemoveDynamicTemplate(c.Request.Context(), c.Param("id")) {
		NotFound(c, "dynamic template not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"dynamic": h.store.DynamicTemplates()})
}

// RemoveDynamicComponent drops a generated component from the library.
func (h *TemplateHandler) RemoveDynamicComponent(c *gin.Context) {
	if !h.store.RemoveDynamicComponent(c.Request.Context(), c.Param("id")) {
		NotFound(c, "dynamic component not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"dynamic": h.store.DynamicComponents()})
}

func (h *TemplateHandler) dynamicTemplate(id string) (builder.Template, bool) {
	for _, t := range h.store.DynamicTemplates() {
		if t.ID == id {
			return t, true
		}
	}
	return builder.Template{}, false
}
