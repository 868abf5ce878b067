package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pagecraft/internal/builder"
)

// ProjectHandler serves the active project and its lifecycle operations.
type ProjectHandler struct {
	store *builder.Store
}

// NewProjectHandler builds the handler.
func NewProjectHandler(store *builder.Store) *ProjectHandler {
	return &ProjectHandler{store: store}
}

// GetProject returns the active project together with the editor view
// state the clients need to rehydrate.
func (h *ProjectHandler) GetProject(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"project":           h.store.Project(),
		"selectedComponent": h.store.Selected(),
		"deviceView":        h.store.DeviceView(),
	})
}

// CreateProject replaces the active project with a fresh default one.
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	project := h.store.CreateProject(c.Request.Context())
	c.JSON(http.StatusCreated, gin.H{"project": project})
}

// LoadProject swaps the active project for the one in the request body.
func (h *ProjectHandler) LoadProject(c *gin.Context) {
	var project builder.Project
	if err := c.ShouldBindJSON(&project); err != nil {
		BadRequest(c, "invalid project payload")
		return
	}
	if project.ID == "" {
		BadRequest(c, "project id is required")
		return
	}

	loaded := h.store.LoadProject(c.Request.Context(), project)
	c.JSON(http.StatusOK, gin.H{"project": loaded})
}

// SaveProject stamps and persists the active project.
func (h *ProjectHandler) SaveProject(c *gin.Context) {
	project := h.store.SaveProject(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"project": project})
}

// ResetBuilder wipes all durable state and restores defaults.
func (h *ProjectHandler) ResetBuilder(c *gin.Context) {
	project := h.store.ResetBuilder(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"project": project})
}

// GetStorageInfo reports serialized sizes of the durable collections.
func (h *ProjectHandler) GetStorageInfo(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.StorageInfo())
}
