package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"pagecraft/internal/ai"
	"pagecraft/internal/api/middleware"
	"pagecraft/internal/builder"
)

// GenerateHandler fronts the external generation service and commits
// accepted results into the store.
type GenerateHandler struct {
	gateway     *ai.Gateway
	store       *builder.Store
	redisClient *redis.Client
	rateLimit   int
	logger      *slog.Logger
}

// NewGenerateHandler builds the handler.
func NewGenerateHandler(gateway *ai.Gateway, store *builder.Store, redisClient *redis.Client, rateLimit int, logger *slog.Logger) *GenerateHandler {
	return &GenerateHandler{
		gateway:     gateway,
		store:       store,
		redisClient: redisClient,
		rateLimit:   rateLimit,
		logger:      logger,
	}
}

type generateRequest struct {
	Prompt  string                `json:"prompt"`
	Target  ai.Target             `json:"target" binding:"required"`
	Context *ai.GenerationContext `json:"context"`
}

// Generate forwards a prompt to the generation service. Failures come
// back inside the result envelope, never as transport errors; only rate
// limiting and malformed requests produce error statuses here.
func (h *GenerateHandler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	if !h.allowRequest(c) {
		return
	}

	genCtx := req.Context
	if genCtx == nil {
		project := h.store.Project()
		genCtx = &ai.GenerationContext{
			ExistingComponents: project.Components,
			CurrentLayout:      project.Layout,
		}
	}

	result := h.gateway.Generate(c.Request.Context(), req.Prompt, req.Target, genCtx)
	c.JSON(http.StatusOK, result)
}

type acceptGenerationRequest struct {
	Target    ai.Target          `json:"target" binding:"required"`
	Component *builder.Component `json:"component"`
	Template  *builder.Template  `json:"template"`
	Layout    *builder.Layout    `json:"layout"`
	SectionID string             `json:"sectionId"`
}

// AcceptGeneration commits a previewed result: components and templates
// are registered in the dynamic libraries, then applied to the project.
func (h *GenerateHandler) AcceptGeneration(c *gin.Context) {
	var req acceptGenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	switch req.Target {
	case ai.TargetComponent:
		if req.Component == nil {
			BadRequest(c, "component payload is required")
			return
		}
		registered := h.store.AddDynamicComponent(ctx, *req.Component)
		if req.SectionID != "" {
			placed, ok := h.store.AddComponentToSection(ctx, registered, req.SectionID, nil)
			if !ok {
				Conflict(c, "section placement rejected")
				return
			}
			c.JSON(http.StatusCreated, gin.H{"component": placed, "project": h.store.Project()})
			return
		}
		placed := h.store.AddComponent(ctx, registered)
		c.JSON(http.StatusCreated, gin.H{"component": placed, "project": h.store.Project()})

	case ai.TargetTemplate:
		if req.Template == nil {
			BadRequest(c, "template payload is required")
			return
		}
		registered := h.store.AddDynamicTemplate(ctx, *req.Template)
		project := h.store.LoadTemplate(ctx, registered)
		c.JSON(http.StatusOK, gin.H{"template": registered, "project": project})

	case ai.TargetLayout:
		if req.Layout == nil {
			BadRequest(c, "layout payload is required")
			return
		}
		project := h.store.LoadLayout(ctx, *req.Layout)
		c.JSON(http.StatusOK, gin.H{"project": project})

	default:
		BadRequest(c, "unknown generation target")
	}
}

// allowRequest applies the hourly per-session generation quota. Redis
// being down fails open with a log line.
func (h *GenerateHandler) allowRequest(c *gin.Context) bool {
	if h.rateLimit <= 0 || h.redisClient == nil {
		return true
	}

	subject := c.GetString("sessionID")
	if subject == "" {
		subject = c.ClientIP()
	}
	key := fmt.Sprintf("ai_rate:%s", subject)

	count, err := incrWithTTL(c.Request.Context(), h.redisClient, key, time.Hour)
	if err != nil {
		h.logger.Error("ai rate counter unavailable",
			slog.String("correlation_id", middleware.GetCorrelationID(c)),
			slog.Any("error", err),
		)
		return true
	}
	if count > int64(h.rateLimit) {
		Error(c, http.StatusTooManyRequests, "generation limit reached, try again later")
		return false
	}
	return true
}
