package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/familymenu/nutrition-ai/internal/store/redisstore"
)

// Answerer produces an answer for a question given the formatted recent
// history. The RAG chain implements it.
type Answerer interface {
	Answer(ctx context.Context, input, history string) (string, error)
}

// Translator converts text between languages. Implementations are
// best-effort; the service falls back to the untranslated text on error.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Service is the single read/write path for session state: cache-first,
// database-fallback. The durable row is the system of record, the cache
// counter is the authoritative current value while it lives.
type Service struct {
	repo       *Repo
	cache      *redisstore.Store
	chain      Answerer
	translator Translator
	quota      int

	// cosmetic pause before the RAG call for non-greeting questions
	thinkDelay time.Duration
}

func NewService(repo *Repo, cache *redisstore.Store, chain Answerer, translator Translator, quota int) *Service {
	if quota <= 0 {
		quota = 30
	}
	return &Service{
		repo:       repo,
		cache:      cache,
		chain:      chain,
		translator: translator,
		quota:      quota,
		thinkDelay: time.Second,
	}
}

// CreateSession inserts the durable row first, then initializes the cache
// counter. A crash between the two leaves a durable session with no cache
// entry, which self-heals on next access via read-through rehydration. The
// reverse order would risk a cache counter whose owning row does not exist.
func (s *Service) CreateSession(ctx context.Context, userID uint64) (string, error) {
	sessionID := uuid.NewString()

	if err := s.repo.CreateSession(ctx, &Session{
		SessionID: sessionID,
		UserID:    userID,
	}); err != nil {
		return "", err
	}
	if err := s.cache.SetCount(ctx, sessionID, 0); err != nil {
		return "", err
	}
	log.Printf("chat: new session created session_id=%s user_id=%d", sessionID, userID)
	return sessionID, nil
}

// ResolveSession validates that the session exists and belongs to the
// claimed user. A mismatch is never silently accepted.
func (s *Service) ResolveSession(ctx context.Context, sessionID string, userID uint64) error {
	sess, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	if sess.UserID != userID {
		return ErrNotSessionOwner
	}
	return nil
}

// GetAndIncrementCount enforces the quota and returns the post-increment
// count. On a cache miss the counter is rehydrated from the durable row
// before the check. The check and the increment are separate cache commands;
// two concurrent requests for one session can overshoot the ceiling by a
// small margin.
func (s *Service) GetAndIncrementCount(ctx context.Context, sessionID string) (int, error) {
	count, ok, err := s.cache.Count(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	if !ok {
		sess, err := s.repo.GetSession(ctx, sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, ErrSessionNotFound
			}
			return 0, err
		}
		if err := s.cache.SetCount(ctx, sessionID, sess.QuestionCount); err != nil {
			return 0, err
		}
		count = sess.QuestionCount
	}

	if count >= s.quota {
		return 0, ErrQuotaExceeded
	}
	return s.cache.IncrCount(ctx, sessionID)
}

// AppendTurn records one answered question: the bounded history list for
// conversational context, and a pending-sync record for the reconciler.
// Exactly one pending key is registered per turn.
func (s *Service) AppendTurn(ctx context.Context, sessionID string, userID uint64, question, answer string) error {
	entry := fmt.Sprintf("User: %s\nAI: %s", question, answer)
	if err := s.cache.PushHistory(ctx, sessionID, entry); err != nil {
		return err
	}
	_, err := s.cache.StageTurn(ctx, sessionID, redisstore.Turn{
		UserID:    userID,
		Question:  question,
		Answer:    answer,
		Timestamp: time.Now().Format(time.RFC3339),
	})
	return err
}

// Ask runs one full chat turn: resolve or create the session, enforce the
// quota, build context from recent history, translate, invoke the chain,
// and stage the turn for reconciliation. Returns the answer and the session
// id actually used (a fresh one when none was supplied).
func (s *Service) Ask(ctx context.Context, userID uint64, sessionID, question string) (answer, usedSessionID string, err error) {
	if sessionID == "" {
		sessionID, err = s.CreateSession(ctx, userID)
		if err != nil {
			return "", "", err
		}
	} else if err = s.ResolveSession(ctx, sessionID, userID); err != nil {
		return "", "", err
	}

	count, err := s.GetAndIncrementCount(ctx, sessionID)
	if err != nil {
		return "", sessionID, err
	}
	log.Printf("chat: question accepted session_id=%s count=%d", sessionID, count)

	history, err := s.cache.History(ctx, sessionID)
	if err != nil {
		return "", sessionID, err
	}
	historyStr := strings.Join(history, "\n")

	// smooth perceived latency; greetings answer immediately
	if s.thinkDelay > 0 && !isGreeting(question) {
		select {
		case <-time.After(s.thinkDelay):
		case <-ctx.Done():
			return "", sessionID, ctx.Err()
		}
	}

	questionEN := s.translate(ctx, question, "vi", "en")

	reply, err := s.chain.Answer(ctx, "User: "+questionEN, historyStr)
	if err != nil {
		return "", sessionID, err
	}

	answer = s.translate(ctx, reply, "en", "vi")

	if err := s.AppendTurn(ctx, sessionID, userID, question, answer); err != nil {
		return "", sessionID, err
	}
	return answer, sessionID, nil
}

func (s *Service) translate(ctx context.Context, text, from, to string) string {
	if s.translator == nil {
		return text
	}
	out, err := s.translator.Translate(ctx, text, from, to)
	if err != nil {
		log.Printf("chat: translation %s->%s failed, keeping original: %v", from, to, err)
		return text
	}
	return out
}

func isGreeting(question string) bool {
	q := strings.ToLower(strings.TrimSpace(question))
	return q == "xin chào" || strings.HasPrefix(q, "hello")
}
