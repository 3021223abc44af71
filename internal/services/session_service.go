package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/askdeck/askdeck/internal/domain"
	"github.com/askdeck/askdeck/internal/repository/store"
	"github.com/askdeck/askdeck/internal/services/engine"
)

// ChatSession is a transient conversation bound to one store, one
// prompt snapshot and one model. It lives only in process memory.
type ChatSession struct {
	StoreID         uint             `json:"store_id"`
	ExternalStoreID string           `json:"-"`
	Prompt          string           `json:"-"`
	ModelID         string           `json:"model_id"`
	History         []domain.Message `json:"history"`
	StartedAt       time.Time        `json:"started_at"`
}

// StartChatResult reports whether a non-empty prompt was attached to
// the new session. UI confirmation only, not a functional gate.
type StartChatResult struct {
	StoreID       uint   `json:"store_id"`
	ModelID       string `json:"model_id"`
	PromptApplied bool   `json:"prompt_applied"`
}

// SessionService holds at most one live session per acting scope.
// Starting a chat replaces the scope's prior session; a sendMessage
// that was in flight against the replaced session fails with
// ErrSessionSuperseded after its engine call returns.
type SessionService struct {
	mu           sync.Mutex
	sessions     map[string]*ChatSession
	storeRepo    store.StoreRepository
	prompts      *PromptService
	engine       engine.Engine
	defaultModel string
	logger       Logger
}

func NewSessionService(storeRepo store.StoreRepository, prompts *PromptService, eng engine.Engine, defaultModel string, logger Logger) (*SessionService, error) {
	if storeRepo == nil {
		return nil, errors.New("session service: store repository is required")
	}
	if prompts == nil {
		return nil, errors.New("session service: prompt service is required")
	}
	if eng == nil {
		return nil, errors.New("session service: engine is required")
	}
	if logger == nil {
		logger = &NoOpLogger{}
	}
	return &SessionService{
		sessions:     make(map[string]*ChatSession),
		storeRepo:    storeRepo,
		prompts:      prompts,
		engine:       eng,
		defaultModel: defaultModel,
		logger:       logger,
	}, nil
}

// StartChat opens a fresh session for the scope, discarding any prior
// one. The effective prompt is the explicit override when given, else
// the store's active prompt, else none; its content is snapshotted, so
// later prompt edits require an explicit restart to take effect.
func (s *SessionService) StartChat(ctx context.Context, scope string, storeID uint, modelID, promptOverride string) (*StartChatResult, error) {
	record, err := s.storeRepo.FindByID(ctx, storeID)
	if err != nil {
		return nil, err
	}

	promptText := promptOverride
	if promptText == "" {
		active, err := s.prompts.ActivePrompt(ctx, storeID)
		if err != nil {
			return nil, err
		}
		if active != nil {
			promptText = active.Content
		}
	}

	if modelID == "" {
		modelID = s.defaultModel
	}

	session := &ChatSession{
		StoreID:         storeID,
		ExternalStoreID: record.ExternalID,
		Prompt:          promptText,
		ModelID:         modelID,
		StartedAt:       time.Now(),
	}

	s.mu.Lock()
	s.sessions[scope] = session
	s.mu.Unlock()

	s.logger.Info("chat session started", "scope", scope, "store_id", storeID, "model", modelID)
	return &StartChatResult{
		StoreID:       storeID,
		ModelID:       modelID,
		PromptApplied: promptText != "",
	}, nil
}

// SendMessage appends the user turn, runs the engine with the full
// history, and appends the model turn on success. On engine failure the
// user turn stays in history (it was genuinely sent) and the caller
// must treat the turn as failed; retrying means a new turn, not a
// resend of the same text.
func (s *SessionService) SendMessage(ctx context.Context, scope, text string) (string, error) {
	if text == "" {
		return "", errors.New("message text cannot be empty")
	}

	s.mu.Lock()
	session, ok := s.sessions[scope]
	if !ok {
		s.mu.Unlock()
		return "", domain.ErrNoActiveSession
	}
	session.History = append(session.History, domain.Message{Role: domain.RoleUser, Content: text})
	history := make([]engine.Turn, len(session.History))
	for i, m := range session.History {
		history[i] = engine.Turn{Role: m.Role, Text: m.Content}
	}
	externalID, promptText, modelID := session.ExternalStoreID, session.Prompt, session.ModelID
	s.mu.Unlock()

	answer, engineErr := s.engine.GenerateAnswer(ctx, externalID, promptText, modelID, history)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sessions[scope] != session {
		// The slot was replaced while this call was in flight. The
		// orphaned session object keeps the user turn; the caller's
		// new session is untouched.
		return "", domain.ErrSessionSuperseded
	}
	if engineErr != nil {
		return "", engineErr
	}

	session.History = append(session.History, domain.Message{Role: domain.RoleModel, Content: answer})
	return answer, nil
}

// GetHistory returns a copy of the scope's session messages in order.
func (s *SessionService) GetHistory(scope string) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[scope]
	if !ok {
		return nil, domain.ErrNoActiveSession
	}
	history := make([]domain.Message, len(session.History))
	copy(history, session.History)
	return history, nil
}

// Terminate drops the scope's session, if any.
func (s *SessionService) Terminate(scope string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, scope)
}

// TerminateForStore drops every live session bound to the store. Called
// by the store deletion cascade.
func (s *SessionService) TerminateForStore(storeID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for scope, session := range s.sessions {
		if session.StoreID == storeID {
			delete(s.sessions, scope)
		}
	}
}

// Query answers a single question against a store without opening a
// session. Prompt resolution matches StartChat.
func (s *SessionService) Query(ctx context.Context, storeID uint, question, modelID, promptOverride string) (string, error) {
	if question == "" {
		return "", errors.New("question cannot be empty")
	}

	record, err := s.storeRepo.FindByID(ctx, storeID)
	if err != nil {
		return "", err
	}

	promptText := promptOverride
	if promptText == "" {
		active, err := s.prompts.ActivePrompt(ctx, storeID)
		if err != nil {
			return "", err
		}
		if active != nil {
			promptText = active.Content
		}
	}
	if modelID == "" {
		modelID = s.defaultModel
	}

	return s.engine.GenerateAnswer(ctx, record.ExternalID, promptText, modelID,
		[]engine.Turn{{Role: domain.RoleUser, Text: question}})
}
