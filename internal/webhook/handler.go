package webhook

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KevinSGarrett/RichPanel-sub000/platform/httpkit"
	"github.com/KevinSGarrett/RichPanel-sub000/platform/validator"
)

const (
	errInvalidPayload = "invalid payload"
	errValidation     = "validation error"
)

// eventIdentifiers is validated after normalization so malformed ids are
// rejected before they reach the queue.
type eventIdentifiers struct {
	EventID        string `validate:"required,max=128"`
	ConversationID string `validate:"max=128"`
}

// Handler handles webhook HTTP requests.
type Handler struct {
	service *Service
	val     *validator.Validator
}

// NewHandler creates a new webhook handler.
func NewHandler(service *Service, val *validator.Validator) *Handler {
	return &Handler{service: service, val: val}
}

// HandleRichpanelEvent processes an inbound ticket event.
// POST /api/v1/webhook/richpanel
// Authenticated via X-Webhook-API-Key header (checked by middleware).
func (h *Handler) HandleRichpanelEvent(c *gin.Context) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidPayload)
		return
	}
	if len(raw) == 0 {
		httpkit.Error(c, http.StatusBadRequest, "empty payload")
		return
	}

	env := NormalizeEnvelope(raw, time.Now())

	ids := eventIdentifiers{EventID: env.EventID, ConversationID: env.ConversationID}
	if err := h.val.Struct(ids); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errValidation)
		return
	}

	result, err := h.service.ProcessEvent(c.Request.Context(), env)
	if httpkit.HandleError(c, err) {
		return
	}

	if result.Duplicate {
		c.JSON(http.StatusOK, gin.H{
			"eventId": result.EventID,
			"message": "duplicate event ignored",
		})
		return
	}

	c.JSON(http.StatusAccepted, result)
}
