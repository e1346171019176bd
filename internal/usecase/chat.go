package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"advisor/internal/port"
)

// ChatService runs the conversational pipeline for one request:
// load history, condense the question, retrieve documents, generate the
// answer, append the exchange. Stages are strictly sequential; the first
// failure short-circuits the rest and leaves history untouched.
type ChatService struct {
	retriever port.Retriever
	model     port.ChatModel
	history   port.HistoryStore
	topK      int
	logger    *slog.Logger

	// Per-session locks serialize the get-then-append sequence so that
	// concurrent requests for the same session cannot lose or reorder
	// turns. Different sessions proceed in parallel.
	mu           sync.Mutex
	sessionLocks map[string]*sync.Mutex
}

func NewChatService(
	retriever port.Retriever,
	model port.ChatModel,
	history port.HistoryStore,
	topK int,
	logger *slog.Logger,
) (*ChatService, error) {
	if retriever == nil {
		return nil, fmt.Errorf("usecase: retriever must not be nil")
	}
	if model == nil {
		return nil, fmt.Errorf("usecase: chat model must not be nil")
	}
	if history == nil {
		return nil, fmt.Errorf("usecase: history store must not be nil")
	}
	if topK < 1 {
		topK = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatService{
		retriever:    retriever,
		model:        model,
		history:      history,
		topK:         topK,
		logger:       logger,
		sessionLocks: make(map[string]*sync.Mutex),
	}, nil
}

func (s *ChatService) sessionLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.sessionLocks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.sessionLocks[sessionID] = lock
	}
	return lock
}

// Chat answers one question within a session and records the exchange.
func (s *ChatService) Chat(ctx context.Context, sessionID, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", newError(ErrorInvalidInput, "", fmt.Errorf("empty message"))
	}
	if strings.TrimSpace(sessionID) == "" {
		return "", newError(ErrorInvalidInput, "", fmt.Errorf("empty session id"))
	}

	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	answer, err := s.run(ctx, sessionID, question)
	if err != nil {
		var uerr *Error
		stage := ""
		if e, ok := err.(*Error); ok {
			uerr = e
			stage = e.Stage
		}
		s.logger.Error("chat pipeline failed",
			"session_id", sessionID,
			"stage", stage,
			"error", err,
		)
		if uerr != nil {
			return "", uerr
		}
		return "", err
	}
	return answer, nil
}

func (s *ChatService) run(ctx context.Context, sessionID, question string) (string, error) {
	history, err := s.history.Get(ctx, sessionID)
	if err != nil {
		return "", newError(ErrorHistory, StageHistoryLoad, err)
	}

	condensed, err := s.model.Chat(ctx, condenseMessages(history, question))
	if err != nil {
		return "", newError(ErrorGeneration, StageCondense, err)
	}
	condensed = strings.TrimSpace(condensed)
	if condensed == "" {
		condensed = question
	}

	docs, err := s.retriever.Search(ctx, condensed, s.topK)
	if err != nil {
		return "", newError(ErrorRetrieval, StageRetrieve, err)
	}

	// Zero retrieved documents is not an error: the answer prompt instructs
	// the model to state that it has no information on the topic.
	answer, err := s.model.Chat(ctx, answerMessages(question, docs))
	if err != nil {
		return "", newError(ErrorGeneration, StageAnswer, err)
	}

	if err := s.history.AppendExchange(ctx, sessionID, question, answer); err != nil {
		return "", newError(ErrorHistory, StageHistoryAppend, err)
	}

	return answer, nil
}
