package ai

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/service"
)

// ChatService manages chat sessions, one per owner.
type ChatService struct {
	provider Provider
	sessions map[string]*ChatSession
	mu       sync.RWMutex // Protects concurrent access to sessions map
}

// ChatSession represents an active chat session
type ChatSession struct {
	Owner        string
	Messages     []ChatMessage
	CreatedAt    time.Time
	LastActivity time.Time
}

// NewChatService creates a new chat service
func NewChatService(provider Provider) *ChatService {
	return &ChatService{
		provider: provider,
		sessions: make(map[string]*ChatSession),
	}
}

// GetOrCreateSession gets or creates a chat session for an owner
func (s *ChatService) GetOrCreateSession(owner string) *ChatSession {
	// Try read lock first for fast path
	s.mu.RLock()
	if session, exists := s.sessions[owner]; exists {
		s.mu.RUnlock()
		session.LastActivity = time.Now()
		return session
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock
	if session, exists := s.sessions[owner]; exists {
		session.LastActivity = time.Now()
		return session
	}

	session := &ChatSession{
		Owner:        owner,
		Messages:     make([]ChatMessage, 0),
		CreatedAt:    time.Now(),
		LastActivity: time.Now(),
	}

	s.sessions[owner] = session
	return session
}

// AddMessage adds a message to the session
func (s *ChatService) AddMessage(session *ChatSession, role string, content string) {
	session.Messages = append(session.Messages, ChatMessage{
		Role:    role,
		Content: content,
	})
	session.LastActivity = time.Now()
}

// GetResponse asks the model for the next action, executes it against the
// owner's task service, and records the reply in the session.
func (s *ChatService) GetResponse(ctx context.Context, session *ChatSession, svc *service.Service) (string, error) {
	content, err := s.provider.Complete(ctx, session.Messages)
	if err != nil {
		return "", fmt.Errorf("failed to get chat response: %w", err)
	}

	action, err := ParseAction(content)
	if err != nil {
		return "", err
	}

	reply, err := Execute(ctx, svc, action)
	if err != nil {
		return "", err
	}

	s.AddMessage(session, "assistant", reply)
	return reply, nil
}

// CloseSession closes a chat session
func (s *ChatService) CloseSession(owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, owner)
}
