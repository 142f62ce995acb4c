// internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	goerrors "errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	stderrors "lubebot/internal/common/errors"
	"lubebot/internal/common/logger"
	"lubebot/internal/history"
	"lubebot/internal/models"
	"lubebot/internal/notify"
	"lubebot/internal/pipeline"
)

// Conversationalist is the pipeline surface the server needs.
type Conversationalist interface {
	Converse(ctx context.Context, message string, history []models.ChatTurn) (*pipeline.Reply, error)
}

type Server struct {
	pipeline       Conversationalist
	history        *history.Store
	notifier       *notify.Notifier
	requestTimeout time.Duration
	historyTurns   int
	logger         logger.Logger
}

type Options struct {
	Pipeline       Conversationalist
	History        *history.Store
	Notifier       *notify.Notifier
	RequestTimeout time.Duration
	HistoryTurns   int
	Logger         logger.Logger
}

func New(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	turns := opts.HistoryTurns
	if turns <= 0 {
		turns = 10
	}
	return &Server{
		pipeline:       opts.Pipeline,
		history:        opts.History,
		notifier:       opts.Notifier,
		requestTimeout: timeout,
		historyTurns:   turns,
		logger:         log.WithFields(map[string]interface{}{"component": "server"}),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/chat", s.handleChat)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type chatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type chatProduct struct {
	Title      string `json:"title"`
	PartNumber string `json:"partNumber,omitempty"`
	ProductURL string `json:"productUrl,omitempty"`
	Size       string `json:"size,omitempty"`
}

type chatResponse struct {
	SessionID  string        `json:"sessionId"`
	RequestID  string        `json:"requestId"`
	Reply      string        `json:"reply"`
	IntentType string        `json:"intentType"`
	Products   []chatProduct `json:"products,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed", Code: "METHOD_NOT_ALLOWED"})
		return
	}

	requestID := uuid.New().String()
	log := s.logger.WithFields(map[string]interface{}{"requestId": requestID})

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Code: "BAD_REQUEST"})
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	turns := s.loadHistory(ctx, req.SessionID, log)

	reply, err := s.pipeline.Converse(ctx, req.Message, turns)
	if err != nil {
		var stdErr *stderrors.StandardError
		status := http.StatusInternalServerError
		code := "INTERNAL"
		if goerrors.As(err, &stdErr) {
			code = string(stdErr.Code)
			if stdErr.Code == stderrors.ErrCodeEmptyMessage {
				status = http.StatusBadRequest
			}
		}
		log.Error("chat request failed", map[string]interface{}{"error": err.Error()})
		writeJSON(w, status, errorResponse{Error: "could not process message", Code: code})
		return
	}

	s.persistTurns(req.SessionID, req.Message, reply.Text, log)
	s.dispatchNotifications(req.SessionID, req.Message, reply.Answer.Intent.Type)

	resp := chatResponse{
		SessionID:  req.SessionID,
		RequestID:  requestID,
		Reply:      reply.Text,
		IntentType: string(reply.Answer.Intent.Type),
	}
	for _, candidate := range reply.Answer.Products {
		resp.Products = append(resp.Products, chatProduct{
			Title:      candidate.Entry.Title,
			PartNumber: candidate.Entry.PartNumber,
			ProductURL: candidate.Entry.ProductURL,
			Size:       candidate.Entry.Size,
		})
		if len(resp.Products) >= 8 {
			break
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) loadHistory(ctx context.Context, sessionID string, log logger.Logger) []models.ChatTurn {
	if s.history == nil {
		return nil
	}
	turns, err := s.history.Recent(ctx, sessionID, s.historyTurns)
	if err != nil {
		log.Warn("history load failed, continuing without context", map[string]interface{}{
			"session": sessionID,
			"error":   err.Error(),
		})
		return nil
	}
	return turns
}

// persistTurns stores the exchange outside the request deadline so a slow
// insert cannot delay the reply that already went out.
func (s *Server) persistTurns(sessionID, message, reply string, log logger.Logger) {
	if s.history == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.history.SaveTurn(ctx, sessionID, models.ChatTurn{Role: "user", Text: message}); err != nil {
			log.Warn("user turn not saved", map[string]interface{}{"error": err.Error()})
			return
		}
		if err := s.history.SaveTurn(ctx, sessionID, models.ChatTurn{Role: "assistant", Text: reply}); err != nil {
			log.Warn("assistant turn not saved", map[string]interface{}{"error": err.Error()})
		}
	}()
}

func (s *Server) dispatchNotifications(sessionID, message string, intentType models.IntentType) {
	if s.notifier == nil {
		return
	}
	switch intentType {
	case models.IntentCooperationInquiry:
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			s.notifier.ForwardCooperationLead(ctx, sessionID, message)
		}()
	case models.IntentAuthentication:
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			s.notifier.CounterfeitAlert(ctx, sessionID, message)
		}()
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
