package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mikey/llm-notify-gateway/internal/core"
	"go.uber.org/zap"
)

// Server exposes the gateway workflow over HTTP
type Server struct {
	service    *core.GatewayService
	reconciler *core.CallbackReconciler
	logger     *zap.Logger
	listenAddr string
	server     *http.Server
}

// NewServer creates a new HTTP server
func NewServer(
	service *core.GatewayService,
	reconciler *core.CallbackReconciler,
	logger *zap.Logger,
	listenAddr string,
) *Server {
	return &Server{
		service:    service,
		reconciler: reconciler,
		logger:     logger,
		listenAddr: listenAddr,
	}
}

// Handler returns the route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/message", s.handleMessage)
	mux.HandleFunc("/forget", s.handleForget)
	mux.HandleFunc("/memories", s.handleMemories)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/webhook/telegram", s.handleTelegramWebhook)
	return mux
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    s.listenAddr,
		Handler: s.Handler(),
		// Message processing waits on the LLM, so the write timeout is generous
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	s.logger.Info("Starting HTTP server", zap.String("address", s.listenAddr))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop stops the HTTP server
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("Stopping HTTP server")
	return s.server.Close()
}

type messageRequest struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := s.service.ProcessMessage(r.Context(), req.Text, req.Source)
	if err != nil {
		if err == core.ErrEmptyMessage {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("Failed to process message", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

type forgetRequest struct {
	Query string `json:"query"`
}

type forgetResponse struct {
	Forgotten int    `json:"forgotten"`
	Query     string `json:"query"`
}

func (s *Server) handleForget(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req forgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	removed, err := s.service.Forget(r.Context(), req.Query)
	if err != nil {
		if err == core.ErrEmptyQuery {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("Failed to forget memories", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to forget memories")
		return
	}

	s.writeJSON(w, http.StatusOK, forgetResponse{Forgotten: removed, Query: req.Query})
}

func (s *Server) handleMemories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	page, err := s.service.Memories(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error("Failed to list memories", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to list memories")
		return
	}

	s.writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	status, err := s.service.Health(r.Context())
	if err != nil {
		s.logger.Error("Health check failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "health check failed")
		return
	}

	s.writeJSON(w, http.StatusOK, status)
}

// handleTelegramWebhook processes button presses and typed replies pushed by
// Telegram. The webhook always acknowledges with 200 so Telegram does not
// retry; handler failures are logged instead.
func (s *Server) handleTelegramWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	switch {
	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		alertID := ""
		if cq.Message != nil {
			alertID = strconv.Itoa(cq.Message.MessageID)
		}
		if _, err := s.reconciler.HandleCallback(r.Context(), cq.Data, alertID, cq.ID); err != nil {
			s.logger.Error("Failed to handle callback", zap.Error(err))
		}

	case update.Message != nil && update.Message.ReplyToMessage != nil && update.Message.Text != "":
		err := s.reconciler.HandleReply(r.Context(), update.Message.Text, update.Message.ReplyToMessage.Text)
		if err != nil {
			s.logger.Error("Failed to handle reply", zap.Error(err))
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
