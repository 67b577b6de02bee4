package audit

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"github.com/KevinSGarrett/RichPanel-sub000/internal/store"
	"github.com/KevinSGarrett/RichPanel-sub000/platform/apperr"
	"github.com/KevinSGarrett/RichPanel-sub000/platform/httpkit"
)

// ExecutionReader is the slice of the repository the handlers need.
// Satisfied by store.Repository.
type ExecutionReader interface {
	LatestExecution(ctx context.Context, conversationID string) (store.ExecutionRow, error)
}

// Handler handles audit read requests.
type Handler struct {
	reader ExecutionReader
}

// NewHandler creates a new audit handler.
func NewHandler(reader ExecutionReader) *Handler {
	return &Handler{reader: reader}
}

type executionResponse struct {
	EventID        string    `json:"eventId"`
	ConversationID string    `json:"conversationId"`
	Sent           bool      `json:"sent"`
	Reason         string    `json:"reason"`
	Candidate      string    `json:"candidate,omitempty"`
	Attempts       int       `json:"attempts"`
	CreatedAt      time.Time `json:"createdAt"`
}

// HandleLatestExecution returns the most recent execution outcome for a
// conversation.
// GET /api/v1/audit/conversations/:conversationId/execution
func (h *Handler) HandleLatestExecution(c *gin.Context) {
	conversationID := strings.TrimSpace(c.Param("conversationId"))
	if conversationID == "" {
		httpkit.Error(c, http.StatusBadRequest, "missing conversation id")
		return
	}

	row, err := h.reader.LatestExecution(c.Request.Context(), conversationID)
	if errors.Is(err, pgx.ErrNoRows) {
		httpkit.HandleError(c, apperr.NotFound("no execution recorded for conversation"))
		return
	}
	if err != nil {
		httpkit.HandleError(c, apperr.Wrap(apperr.KindInternal, "failed to load execution", err))
		return
	}

	httpkit.OK(c, executionResponse{
		EventID:        row.EventID,
		ConversationID: row.ConversationID,
		Sent:           row.Sent,
		Reason:         row.Reason,
		Candidate:      row.Candidate,
		Attempts:       row.Attempts,
		CreatedAt:      row.CreatedAt,
	})
}
