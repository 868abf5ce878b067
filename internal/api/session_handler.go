package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"pagecraft/internal/auth"
)

// currentSessionKey marks who last claimed the editing seat. Purely
// informational: claims are not mutually exclusive, but a takeover is
// visible to the previous holder and in logs.
const currentSessionKey = "builder_session:current"

// SessionHandler hands out editing-session tokens.
type SessionHandler struct {
	sessions    *auth.SessionService
	gate        *auth.Gate
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewSessionHandler builds the handler.
func NewSessionHandler(sessions *auth.SessionService, gate *auth.Gate, redisClient *redis.Client, logger *slog.Logger) *SessionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionHandler{
		sessions:    sessions,
		gate:        gate,
		redisClient: redisClient,
		logger:      logger,
	}
}

type claimSessionRequest struct {
	Password string `json:"password"`
}

// ClaimSession issues a session token, checking the gate password when
// one is configured. The body is optional when the gate is disabled.
func (h *SessionHandler) ClaimSession(c *gin.Context) {
	var req claimSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		BadRequest(c, "invalid request body")
		return
	}

	if !h.gate.Check(req.Password) {
		h.logger.Warn("session claim rejected", slog.String("client_ip", c.ClientIP()))
		Unauthorized(c)
		return
	}

	token, sessionID, err := h.sessions.IssueToken()
	if err != nil {
		h.logger.Error("issue session token", slog.Any("error", err))
		Internal(c, "failed to issue session token")
		return
	}

	var takenOver string
	if h.redisClient != nil {
		ctx := c.Request.Context()
		previous, err := h.redisClient.GetSet(ctx, currentSessionKey, sessionID).Result()
		switch {
		case err == redis.Nil:
			// first claim
		case err != nil:
			h.logger.Warn("record session marker failed", slog.Any("error", err))
		case previous != "" && previous != sessionID:
			takenOver = previous
			h.logger.Info("editing session taken over",
				slog.String("previous_session_id", previous),
				slog.String("session_id", sessionID),
			)
		}
		_ = h.redisClient.Expire(ctx, currentSessionKey, h.sessions.SessionTTL()).Err()
	}

	resp := gin.H{
		"token":      token,
		"session_id": sessionID,
		"expires_in": int(h.sessions.SessionTTL().Seconds()),
	}
	if takenOver != "" {
		resp["replaced_session_id"] = takenOver
	}
	c.JSON(http.StatusCreated, resp)
}
