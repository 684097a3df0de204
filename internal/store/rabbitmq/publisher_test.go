package rabbitmq

import (
	"encoding/json"
	"testing"
)

func TestTopology_DeadLetterWiring(t *testing.T) {
	specs := topology("meal_jobs")
	if len(specs) != 3 {
		t.Fatalf("expected 3 queue declarations, got %d", len(specs))
	}

	byName := make(map[string]queueSpec, len(specs))
	for _, q := range specs {
		byName[q.name] = q
	}

	dlq, ok := byName["meal_jobs.dlq"]
	if !ok || dlq.args != nil {
		t.Fatalf("expected a plain DLQ declaration, got %+v", dlq)
	}

	retry, ok := byName["meal_jobs.retry"]
	if !ok {
		t.Fatalf("missing retry queue")
	}
	if retry.args["x-dead-letter-routing-key"] != "meal_jobs" {
		t.Fatalf("retry queue must dead-letter back to the main queue, got %v", retry.args)
	}

	main, ok := byName["meal_jobs"]
	if !ok {
		t.Fatalf("missing main queue")
	}
	if main.args["x-dead-letter-routing-key"] != "meal_jobs.dlq" {
		t.Fatalf("main queue must dead-letter to the DLQ, got %v", main.args)
	}

	// DLQ and retry must be declared before the main queue references them
	if specs[2].name != "meal_jobs" {
		t.Fatalf("main queue must be declared last, got order %v", []string{specs[0].name, specs[1].name, specs[2].name})
	}
}

func TestMainQueueArgs_MatchesTopology(t *testing.T) {
	specs := topology("meal_jobs")
	main := specs[2]
	args := MainQueueArgs("meal_jobs")
	if main.args["x-dead-letter-routing-key"] != args["x-dead-letter-routing-key"] ||
		main.args["x-dead-letter-exchange"] != args["x-dead-letter-exchange"] {
		t.Fatalf("consumer declaration diverges from publisher topology: %v vs %v", main.args, args)
	}
}

func TestMealJobMessage_WireFields(t *testing.T) {
	b, err := json.Marshal(MealJobMessage{JobID: "01ABC", SessionID: "sess-1", UserID: 7})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["job_id"] != "01ABC" || decoded["session_id"] != "sess-1" || decoded["user_id"] != float64(7) {
		t.Fatalf("unexpected wire payload: %v", decoded)
	}
}
