// internal/server/server_test.go
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "lubebot/internal/common/errors"
	"lubebot/internal/common/logger"
	"lubebot/internal/models"
	"lubebot/internal/pipeline"
)

// ==========================
// Test Helper Functions
// ==========================

type fakePipeline struct {
	reply *pipeline.Reply
	err   error
}

func (f *fakePipeline) Converse(_ context.Context, message string, _ []models.ChatTurn) (*pipeline.Reply, error) {
	if strings.TrimSpace(message) == "" {
		return nil, stderrors.NewEmptyMessageError()
	}
	return f.reply, f.err
}

func newTestServer(t *testing.T, p Conversationalist) *Server {
	return New(Options{
		Pipeline: p,
		Logger:   logger.NewTestLogger(t),
	})
}

func recommendationReply() *pipeline.Reply {
	return &pipeline.Reply{
		Answer: &pipeline.Answer{
			Intent: models.Intent{Type: models.IntentProductRecommendation},
			Products: []models.ScoredCandidate{
				{Entry: models.CatalogEntry{Title: "Motorbike 4T", PartNumber: "LM-2210", Size: "1L"}, Score: 180},
			},
		},
		Text: "Use Motorbike 4T (part LM-2210).",
	}
}

// ==========================
// Chat Endpoint Tests
// ==========================

func TestHandleChat_Success(t *testing.T) {
	srv := newTestServer(t, &fakePipeline{reply: recommendationReply()})

	body := `{"sessionId": "session-1", "message": "oil for my classic 350"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp chatResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "session-1", resp.SessionID)
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, "product_recommendation", resp.IntentType)
	assert.Contains(t, resp.Reply, "LM-2210")
	require.Len(t, resp.Products, 1)
	assert.Equal(t, "LM-2210", resp.Products[0].PartNumber)
}

func TestHandleChat_SessionGeneratedWhenAbsent(t *testing.T) {
	srv := newTestServer(t, &fakePipeline{reply: recommendationReply()})

	req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(`{"message": "hello oil"}`))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	var resp chatResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp.SessionID)
}

func TestHandleChat_EmptyMessageIsBadRequest(t *testing.T) {
	srv := newTestServer(t, &fakePipeline{reply: recommendationReply()})

	req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(`{"message": "   "}`))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, string(stderrors.ErrCodeEmptyMessage), resp.Code)
}

func TestHandleChat_InvalidBody(t *testing.T) {
	srv := newTestServer(t, &fakePipeline{reply: recommendationReply()})

	req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleChat_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &fakePipeline{reply: recommendationReply()})

	req := httptest.NewRequest(http.MethodGet, "/v1/chat", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, &fakePipeline{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleChat_ProductListCapped(t *testing.T) {
	reply := recommendationReply()
	for i := 0; i < 15; i++ {
		reply.Answer.Products = append(reply.Answer.Products, models.ScoredCandidate{
			Entry: models.CatalogEntry{Title: "Extra Oil"},
		})
	}
	srv := newTestServer(t, &fakePipeline{reply: reply})

	req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(`{"message": "oil"}`))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	var resp chatResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Products, 8)
}
