package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"github.com/KevinSGarrett/RichPanel-sub000/internal/store"
)

type fakeReader struct {
	row store.ExecutionRow
	err error
}

func (f *fakeReader) LatestExecution(ctx context.Context, conversationID string) (store.ExecutionRow, error) {
	if f.err != nil {
		return store.ExecutionRow{}, f.err
	}
	return f.row, nil
}

func newTestRouter(reader ExecutionReader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	handler := NewHandler(reader)
	engine.GET("/conversations/:conversationId/execution", handler.HandleLatestExecution)
	return engine
}

func TestHandleLatestExecutionReturnsRow(t *testing.T) {
	reader := &fakeReader{row: store.ExecutionRow{
		EventID:        "evt-1",
		ConversationID: "conv-1",
		Sent:           true,
		Reason:         "sent",
		Candidate:      "status_top_level",
		Attempts:       3,
		CreatedAt:      time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}}
	router := newTestRouter(reader)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/conversations/conv-1/execution", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if body["eventId"] != "evt-1" || body["sent"] != true {
		t.Fatalf("unexpected response: %v", body)
	}
	if body["attempts"] != float64(3) {
		t.Fatalf("attempts = %v", body["attempts"])
	}
}

func TestHandleLatestExecutionNotFound(t *testing.T) {
	router := newTestRouter(&fakeReader{err: pgx.ErrNoRows})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/conversations/conv-2/execution", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandleLatestExecutionBlankConversationID(t *testing.T) {
	router := newTestRouter(&fakeReader{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/conversations/%20/execution", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "conversation id") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}
