package meals

import (
	"context"
	"errors"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/familymenu/nutrition-ai/internal/ai"
	"github.com/familymenu/nutrition-ai/internal/rag"
)

const planJSON = "```json\n" + `{
  "analysis": "Cần bổ sung đạm và rau xanh",
  "meals": [
    {
      "name": "Gà luộc rau cải",
      "ingredients": [
        {"name": "Thịt gà", "quantity": "300g"},
        {"name": "Nấm hương", "quantity": "50g"}
      ],
      "benefits": "Giàu đạm, ít béo",
      "preparation": "Luộc gà, xào rau"
    }
  ],
  "advice": "Uống đủ nước"
}` + "\n```"

type fakeProvider struct {
	reply string
	err   error
}

func (p *fakeProvider) Chat(ctx context.Context, messages []ai.Message) (string, error) {
	_ = ctx
	_ = messages
	if p.err != nil {
		return "", p.err
	}
	return p.reply, nil
}

func (p *fakeProvider) Generate(ctx context.Context, prompt string) (string, error) {
	_ = ctx
	_ = prompt
	if p.err != nil {
		return "", p.err
	}
	return p.reply, nil
}

type fakeSessions struct {
	created    int
	resolveErr error
}

func (f *fakeSessions) CreateSession(ctx context.Context, userID uint64) (string, error) {
	_ = ctx
	_ = userID
	f.created++
	return "fake-session-id", nil
}

func (f *fakeSessions) ResolveSession(ctx context.Context, sessionID string, userID uint64) error {
	_ = ctx
	_ = sessionID
	_ = userID
	return f.resolveErr
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(gormsqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Suggestion{}, &Job{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, prov *fakeProvider) (*Service, *Repo, *fakeSessions) {
	t.Helper()
	repo := NewRepo(openTestDB(t))
	sessions := &fakeSessions{}
	matcher := NewProductMatcher(nil, nil, "")
	return NewService(repo, prov, matcher, sessions), repo, sessions
}

func TestSuggest_ParsesPlanAndPersists(t *testing.T) {
	svc, repo, sessions := newTestService(t, &fakeProvider{reply: planJSON})

	req := SuggestionRequest{
		UserID:     301,
		HealthInfo: HealthInfo{Age: 34, Goals: []string{"giảm cân"}},
		FamilySize: 2,
	}
	result, suggestionID, err := svc.Suggest(context.Background(), req)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if sessions.created != 1 {
		t.Fatalf("expected a session to be created, got %d", sessions.created)
	}
	if result.SessionID != "fake-session-id" {
		t.Fatalf("unexpected session id: %q", result.SessionID)
	}
	if result.Analysis != "Cần bổ sung đạm và rau xanh" || result.Advice != "Uống đủ nước" {
		t.Fatalf("unexpected plan fields: %+v", result)
	}
	if len(result.Suggestions) != 1 {
		t.Fatalf("expected 1 meal, got %d", len(result.Suggestions))
	}

	meal := result.Suggestions[0]
	if meal.Name != "Gà luộc rau cải" {
		t.Fatalf("unexpected meal name: %q", meal.Name)
	}
	if len(meal.Ingredients.Available) != 1 || meal.Ingredients.Available[0].Ingredient.Name != "Thịt gà" {
		t.Fatalf("expected chicken resolved to a product, got %+v", meal.Ingredients.Available)
	}
	if len(meal.Ingredients.Unavailable) != 1 || meal.Ingredients.Unavailable[0].Name != "Nấm hương" {
		t.Fatalf("expected mushrooms unresolved, got %+v", meal.Ingredients.Unavailable)
	}

	if suggestionID == 0 {
		t.Fatalf("expected the suggestion to be persisted")
	}
	rows, err := repo.ListSuggestionsByUser(context.Background(), 301)
	if err != nil {
		t.Fatalf("list suggestions: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != suggestionID {
		t.Fatalf("unexpected stored rows: %+v", rows)
	}
}

func TestSuggest_UnparseableReplyIsAnError(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeProvider{reply: "Xin lỗi, tôi không thể trả lời."})

	_, _, err := svc.Suggest(context.Background(), SuggestionRequest{UserID: 302})
	if !errors.Is(err, rag.ErrNoJSON) {
		t.Fatalf("expected ErrNoJSON, got %v", err)
	}
}

func TestEnqueue_IdempotencyReturnsExistingJob(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeProvider{reply: planJSON})

	key := "req-abc-123"
	req := SuggestionRequest{UserID: 303}

	first, created, err := svc.Enqueue(context.Background(), req, &key)
	if err != nil {
		t.Fatalf("first enqueue: %v", err)
	}
	if !created {
		t.Fatalf("expected first enqueue to create the job")
	}
	if first.Status != JobQueued {
		t.Fatalf("expected queued status, got %q", first.Status)
	}

	second, created, err := svc.Enqueue(context.Background(), req, &key)
	if err != nil {
		t.Fatalf("second enqueue: %v", err)
	}
	if created {
		t.Fatalf("expected second enqueue to return the existing job")
	}
	if second.ID != first.ID {
		t.Fatalf("expected same job id, got %q and %q", first.ID, second.ID)
	}
}

func TestRunJob_Succeeds(t *testing.T) {
	svc, repo, _ := newTestService(t, &fakeProvider{reply: planJSON})

	job, _, err := svc.Enqueue(context.Background(), SuggestionRequest{UserID: 304}, nil)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if err := svc.RunJob(context.Background(), job.ID); err != nil {
		t.Fatalf("run job: %v", err)
	}

	done, err := repo.GetJobByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if done.Status != JobSucceeded {
		t.Fatalf("expected succeeded, got %q (error=%v)", done.Status, done.Error)
	}
	if done.ResultSuggestionID == nil || *done.ResultSuggestionID == 0 {
		t.Fatalf("expected a result suggestion id")
	}
}

func TestRunJob_MarksFailed(t *testing.T) {
	svc, repo, _ := newTestService(t, &fakeProvider{err: errors.New("model unavailable")})

	job, _, err := svc.Enqueue(context.Background(), SuggestionRequest{UserID: 305}, nil)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if err := svc.RunJob(context.Background(), job.ID); err == nil {
		t.Fatalf("expected run job to fail")
	}

	failed, err := repo.GetJobByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if failed.Status != JobFailed {
		t.Fatalf("expected failed, got %q", failed.Status)
	}
	if failed.Error == nil || *failed.Error == "" {
		t.Fatalf("expected the failure reason to be recorded")
	}
}
