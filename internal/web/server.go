// Package web exposes the chat agent over HTTP and WebSocket.
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/lexiqai/rag-agent/internal/llm"
	"github.com/lexiqai/rag-agent/internal/observability"
	"github.com/lexiqai/rag-agent/internal/orchestrator"
	"github.com/lexiqai/rag-agent/internal/report"
	"github.com/lexiqai/rag-agent/internal/retrieval"
	"github.com/lexiqai/rag-agent/internal/tools"
)

const emptyMessageError = "Please enter a message"

// Dependencies are the collaborators shared by every request
type Dependencies struct {
	LLM       llm.Client
	Registry  *tools.Registry
	Retriever retrieval.Gateway
	Options   orchestrator.Options

	OpenAIConfigured    bool
	VectorizeConfigured bool

	// Checks back the /ready endpoint
	Checks         map[string]observability.HealthCheckFunc
	MetricsEnabled bool
}

// Server routes API, websocket and operational endpoints
type Server struct {
	deps   Dependencies
	router *mux.Router
	logger zerolog.Logger
}

// New creates a server with CORS enabled for all origins
func New(deps Dependencies) *Server {
	s := &Server{
		deps:   deps,
		router: mux.NewRouter(),
		logger: observability.ComponentLogger("web"),
	}

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	s.router.Use(c.Handler)
	s.registerRoutes()
	return s
}

// Handler returns the http.Handler for the server
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/api/chat", s.handleChat).Methods(http.MethodPost, http.MethodOptions)
	s.router.HandleFunc("/api/tools", s.handleTools).Methods(http.MethodGet)
	s.router.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)
	s.router.HandleFunc("/ws/chat", s.handleChatWS)

	s.router.HandleFunc("/health", observability.HealthCheckHandler()).Methods(http.MethodGet)
	s.router.HandleFunc("/ready", observability.ReadinessHandler(s.deps.Checks)).Methods(http.MethodGet)
	if s.deps.MetricsEnabled {
		s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}
}

// ChatRequest is the body of POST /api/chat
type ChatRequest struct {
	Message string `json:"message"`
	// Mode selects "chat" for the fixed RAG pipeline; anything else runs the agent
	Mode string `json:"mode,omitempty"`
}

// ChatResponse carries the answer and every event reported during the turn
type ChatResponse struct {
	Success     bool           `json:"success"`
	Response    string         `json:"response,omitempty"`
	Messages    []report.Event `json:"messages,omitempty"`
	UserMessage string         `json:"user_message,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// ToolInfo is one entry of GET /api/tools
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Status is the body of GET /api/status
type Status struct {
	OpenAIConfigured    bool `json:"openai_configured"`
	VectorizeConfigured bool `json:"vectorize_configured"`
	RAGAvailable        bool `json:"rag_available"`
	TotalTools          int  `json:"total_tools"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ChatResponse{Error: "invalid request body"})
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeJSON(w, http.StatusBadRequest, ChatResponse{Error: emptyMessageError})
		return
	}

	rec := &report.Recorder{}
	turn, err := s.runTurn(r.Context(), req.Mode, message, rec)

	resp := ChatResponse{
		Success:     err == nil,
		Messages:    rec.Events(),
		UserMessage: message,
	}
	if turn != nil {
		resp.Response = turn.Answer
	}
	if err != nil {
		s.logger.Error().Err(err).Str("mode", req.Mode).Msg("Chat turn failed")
		resp.Error = err.Error()
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTools(w http.ResponseWriter, _ *http.Request) {
	descriptors := s.deps.Registry.ListTools()
	list := make([]ToolInfo, 0, len(descriptors))
	for _, d := range descriptors {
		list = append(list, ToolInfo{Name: d.Name, Description: d.Description})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"tools":   list,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"status": Status{
			OpenAIConfigured:    s.deps.OpenAIConfigured,
			VectorizeConfigured: s.deps.VectorizeConfigured,
			RAGAvailable:        s.deps.Registry.RAGAvailable(),
			TotalTools:          len(s.deps.Registry.ListTools()),
		},
	})
}

// runTurn builds a fresh orchestrator per request so no state leaks between turns
func (s *Server) runTurn(ctx context.Context, mode, question string, sink report.Sink) (*orchestrator.Turn, error) {
	if mode == orchestrator.ModeChat {
		return orchestrator.NewRAGChat(s.deps.LLM, s.deps.Retriever, sink, s.deps.Options).Run(ctx, question)
	}
	return orchestrator.NewAgent(s.deps.LLM, s.deps.Registry, sink, s.deps.Options).Run(ctx, question)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
