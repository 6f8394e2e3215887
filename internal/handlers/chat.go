package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/request"
	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/service"
	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/services/ai"
	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/store"
)

// ChatHandler handles AI chat requests
type ChatHandler struct {
	chatService *ai.ChatService
	provider    store.Provider
	logger      *zap.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *ai.ChatService, provider store.Provider, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		provider:    provider,
		logger:      logger,
	}
}

// RegisterRoutes registers chat routes
func (h *ChatHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/chat", h.SendMessage).Methods("POST")
	r.HandleFunc("/chat", h.CloseChat).Methods("DELETE")
}

// ChatMessageRequest represents a chat message request
type ChatMessageRequest struct {
	Message string `json:"message" validate:"required"`
}

// SendMessage sends a message in the owner's chat session. The model picks a
// task operation, the handler runs it, and the reply describes the outcome.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	owner := request.OwnerFromContext(r)
	if owner == "" {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Owner not found in context")
		return
	}

	var req ChatMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Message == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Message is required")
		return
	}

	st, err := h.provider.For(r.Context(), owner)
	if err != nil {
		h.logger.Error("store_resolve_failed", zap.String("owner", owner), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to access task store")
		return
	}
	svc := service.New(st, service.WithLogger(h.logger))

	session := h.chatService.GetOrCreateSession(owner)
	h.chatService.AddMessage(session, "user", req.Message)

	reply, err := h.chatService.GetResponse(r.Context(), session, svc)
	if err != nil {
		if service.IsValidation(err) || service.IsNotFound(err) {
			respondJSONError(w, http.StatusUnprocessableEntity, "Unprocessable Entity", err.Error())
			return
		}
		if ai.IsRateLimitError(err) {
			respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "The assistant is rate limited, try again shortly")
			return
		}
		h.logger.Error("chat_response_failed", zap.Error(err))
		respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "Failed to get assistant response")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": reply,
	})
}

// CloseChat discards the owner's chat session.
func (h *ChatHandler) CloseChat(w http.ResponseWriter, r *http.Request) {
	owner := request.OwnerFromContext(r)
	if owner == "" {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Owner not found in context")
		return
	}

	h.chatService.CloseSession(owner)
	w.WriteHeader(http.StatusNoContent)
}
