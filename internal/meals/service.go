package meals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/familymenu/nutrition-ai/internal/ai"
	"github.com/familymenu/nutrition-ai/internal/common"
	"github.com/familymenu/nutrition-ai/internal/rag"
)

// SessionResolver is the slice of the chat facade the meal service needs.
type SessionResolver interface {
	CreateSession(ctx context.Context, userID uint64) (string, error)
	ResolveSession(ctx context.Context, sessionID string, userID uint64) error
}

type Service struct {
	repo     *Repo
	provider ai.Provider
	matcher  *ProductMatcher
	sessions SessionResolver
}

func NewService(repo *Repo, provider ai.Provider, matcher *ProductMatcher, sessions SessionResolver) *Service {
	return &Service{repo: repo, provider: provider, matcher: matcher, sessions: sessions}
}

// Suggest generates a structured meal plan, resolves ingredients to store
// products, and stores the result. Persisting the suggestion is best-effort;
// the generated plan is returned even when the insert fails.
func (s *Service) Suggest(ctx context.Context, req SuggestionRequest) (*SuggestionResult, uint64, error) {
	sessionID, err := s.resolveOrCreate(ctx, req)
	if err != nil {
		return nil, 0, err
	}

	familySize := req.FamilySize
	if familySize <= 0 {
		familySize = 1
	}

	healthJSON, err := json.Marshal(req.HealthInfo)
	if err != nil {
		return nil, 0, err
	}
	prefsJSON, err := json.Marshal(req.Preferences)
	if err != nil {
		return nil, 0, err
	}

	input := fmt.Sprintf(
		"Gợi ý món ăn phù hợp cho người có thông tin sức khỏe như đã cung cấp. Size gia đình: %d người.",
		familySize,
	)

	raw, err := s.provider.Generate(ctx, rag.MealSuggestionPrompt(string(healthJSON), string(prefsJSON), input))
	if err != nil {
		return nil, 0, err
	}

	var plan MealPlan
	if err := rag.ExtractJSON(raw, &plan); err != nil {
		return nil, 0, err
	}

	processed := s.matcher.ProcessMeals(ctx, plan.Meals)

	result := &SuggestionResult{
		SessionID:   sessionID,
		Analysis:    plan.Analysis,
		Suggestions: processed,
		Advice:      plan.Advice,
	}

	suggestionID := s.persist(ctx, req, sessionID, string(healthJSON), processed)
	return result, suggestionID, nil
}

func (s *Service) resolveOrCreate(ctx context.Context, req SuggestionRequest) (string, error) {
	if req.SessionID == "" {
		return s.sessions.CreateSession(ctx, req.UserID)
	}
	if err := s.sessions.ResolveSession(ctx, req.SessionID, req.UserID); err != nil {
		return "", err
	}
	return req.SessionID, nil
}

func (s *Service) persist(ctx context.Context, req SuggestionRequest, sessionID, healthJSON string, processed []ProcessedMeal) uint64 {
	payload := map[string]any{
		"suggestion": map[string]any{"processed_meals": processed},
		"request": map[string]any{
			"health_info": req.HealthInfo,
			"preferences": req.Preferences,
			"family_size": req.FamilySize,
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("meals: encode suggestion session_id=%s: %v", sessionID, err)
		return 0
	}

	row := &Suggestion{
		UserID:         req.UserID,
		SessionID:      sessionID,
		SuggestionData: string(data),
		HealthData:     healthJSON,
	}
	if err := s.repo.InsertSuggestion(ctx, row); err != nil {
		log.Printf("meals: save suggestion session_id=%s: %v", sessionID, err)
		return 0
	}
	return row.ID
}

// Enqueue registers an async suggestion job. The session is resolved or
// created up front so the job row always references a real session.
func (s *Service) Enqueue(ctx context.Context, req SuggestionRequest, idempotencyKey *string) (job *Job, created bool, err error) {
	sessionID, err := s.resolveOrCreate(ctx, req)
	if err != nil {
		return nil, false, err
	}
	req.SessionID = sessionID

	data, err := json.Marshal(req)
	if err != nil {
		return nil, false, err
	}

	jobID, err := common.NewULID()
	if err != nil {
		return nil, false, err
	}

	return s.repo.CreateJobOrGetExisting(ctx, &Job{
		ID:             jobID,
		UserID:         req.UserID,
		SessionID:      sessionID,
		RequestData:    string(data),
		IdempotencyKey: idempotencyKey,
		Status:         JobQueued,
	})
}

func (s *Service) GetJob(ctx context.Context, jobID string) (*Job, error) {
	return s.repo.GetJobByID(ctx, jobID)
}

// RunJob executes one queued job to completion, recording the outcome on
// the job row.
func (s *Service) RunJob(ctx context.Context, jobID string) error {
	_ = s.repo.UpdateJobStatusRunning(ctx, jobID)

	job, err := s.repo.GetJobByID(ctx, jobID)
	if err != nil {
		return err
	}

	var req SuggestionRequest
	if err := json.Unmarshal([]byte(job.RequestData), &req); err != nil {
		_ = s.repo.MarkJobFailed(ctx, jobID, err.Error())
		return err
	}

	_, suggestionID, err := s.Suggest(ctx, req)
	if err != nil {
		_ = s.repo.MarkJobFailed(ctx, jobID, err.Error())
		return err
	}
	if suggestionID == 0 {
		err := errors.New("suggestion generated but not persisted")
		_ = s.repo.MarkJobFailed(ctx, jobID, err.Error())
		return err
	}

	return s.repo.MarkJobSucceeded(ctx, jobID, suggestionID)
}

// History returns a user's stored suggestions decoded for the API.
func (s *Service) History(ctx context.Context, userID uint64) ([]map[string]any, error) {
	rows, err := s.repo.ListSuggestionsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		var suggestionData map[string]any
		if err := json.Unmarshal([]byte(row.SuggestionData), &suggestionData); err != nil {
			log.Printf("meals: decode suggestion id=%d: %v", row.ID, err)
			continue
		}
		var healthData map[string]any
		if err := json.Unmarshal([]byte(row.HealthData), &healthData); err != nil {
			log.Printf("meals: decode health data id=%d: %v", row.ID, err)
			continue
		}

		meals, _ := suggestionData["suggestion"].(map[string]any)
		out = append(out, map[string]any{
			"id":          row.ID,
			"session_id":  row.SessionID,
			"timestamp":   row.Timestamp,
			"health_info": healthData,
			"meals":       meals["processed_meals"],
		})
	}
	return out, nil
}
