package tui

import (
	"errors"
	"testing"
	"time"
)

func TestModel(t *testing.T) {
	model := NewModel(3)

	// Test queueing images
	model.AddScore("id1", "photos/cat.jpg")
	model.AddScore("id2", "photos/dog.jpg")

	if len(model.scores) != 2 {
		t.Errorf("Expected 2 queued images, got %d", len(model.scores))
	}
	if model.scores["id1"].Name != "cat.jpg" {
		t.Errorf("Expected item name cat.jpg, got %s", model.scores["id1"].Name)
	}

	// Queueing the same id twice must not duplicate it
	model.AddScore("id1", "photos/cat.jpg")
	if len(model.scoreOrder) != 2 {
		t.Errorf("Expected 2 ordered items after duplicate add, got %d", len(model.scoreOrder))
	}

	// Test starting a score
	model.StartScore("id1")
	if model.activeScores != 1 {
		t.Errorf("Expected 1 active score, got %d", model.activeScores)
	}

	// Test completing a score
	item := model.CompleteScore("id1", 8.2, 1540)
	if item == nil {
		t.Fatal("CompleteScore returned nil for known id")
	}
	if item.Score != 8.2 {
		t.Errorf("Expected score 8.2, got %f", item.Score)
	}
	if model.activeScores != 0 {
		t.Errorf("Expected 0 active scores, got %d", model.activeScores)
	}
	if model.totalScored != 1 {
		t.Errorf("Expected 1 total scored, got %d", model.totalScored)
	}
	if model.totalTokens != 1540 {
		t.Errorf("Expected 1540 total tokens, got %d", model.totalTokens)
	}

	// Test failing a score
	model.StartScore("id2")
	failed := model.FailScore("id2", errors.New("timeout"))
	if failed == nil {
		t.Fatal("FailScore returned nil for known id")
	}
	if model.totalFailed != 1 {
		t.Errorf("Expected 1 failed, got %d", model.totalFailed)
	}
	if model.activeScores != 0 {
		t.Errorf("Expected 0 active scores after failure, got %d", model.activeScores)
	}

	// Unknown ids are ignored
	if item := model.CompleteScore("missing", 5.0, 10); item != nil {
		t.Error("Expected nil for unknown id")
	}

	// Test rate limit update
	resetTime := time.Now().Add(time.Minute)
	model.UpdateRateLimit(50, 600, resetTime)
	if model.rateLimitUsed != 50 {
		t.Errorf("Expected rate limit used to be 50, got %d", model.rateLimitUsed)
	}

	// Test cost update
	model.UpdateCost(0.1234, "¥")
	if model.costSoFar != "¥0.1234" {
		t.Errorf("Expected cost ¥0.1234, got %s", model.costSoFar)
	}

	// Test log messages
	model.AddLogMessage("INFO", "Test message")
	if len(model.logMessages) != 1 {
		t.Errorf("Expected 1 log message, got %d", len(model.logMessages))
	}
}

func TestScoreQueues(t *testing.T) {
	model := NewModel(2)

	model.AddScore("a", "x/a.jpg")
	model.AddScore("b", "x/b.jpg")
	model.AddScore("c", "x/c.jpg")
	model.StartScore("a")
	model.CompleteScore("a", 7.0, 900)
	model.StartScore("b")

	if got := len(model.GetActiveScores()); got != 1 {
		t.Errorf("Expected 1 active score, got %d", got)
	}
	if got := len(model.GetPendingScores()); got != 1 {
		t.Errorf("Expected 1 pending score, got %d", got)
	}
	completed := model.GetCompletedScores()
	if len(completed) != 1 {
		t.Fatalf("Expected 1 completed score, got %d", len(completed))
	}
	if completed[0].Score != 7.0 {
		t.Errorf("Expected completed score 7.0, got %f", completed[0].Score)
	}
}

func TestGetScoreStats(t *testing.T) {
	model := NewModel(2)
	model.SetTotal(10)
	model.sessionStartTime = time.Now().Add(-time.Minute)

	model.AddScore("a", "a.jpg")
	model.StartScore("a")
	model.CompleteScore("a", 6.5, 800)

	rate, eta := model.GetScoreStats()
	if rate <= 0 {
		t.Errorf("Expected positive rate, got %f", rate)
	}
	if eta <= 0 {
		t.Errorf("Expected positive ETA with 9 images remaining, got %v", eta)
	}
}

func TestFormatTokens(t *testing.T) {
	tests := []struct {
		tokens   int64
		expected string
	}{
		{500, "500 tok"},
		{1000, "1.0k tok"},
		{1540, "1.5k tok"},
		{1000000, "1.0M tok"},
		{2500000, "2.5M tok"},
	}

	for _, test := range tests {
		result := FormatTokens(test.tokens)
		if result != test.expected {
			t.Errorf("FormatTokens(%d) = %s, expected %s", test.tokens, result, test.expected)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{-time.Second, "00:00:00"},
		{42 * time.Second, "00:42"},
		{3*time.Minute + 5*time.Second, "03:05"},
		{2*time.Hour + 3*time.Minute + 4*time.Second, "02:03:04"},
	}

	for _, test := range tests {
		result := formatDuration(test.d)
		if result != test.expected {
			t.Errorf("formatDuration(%v) = %s, expected %s", test.d, result, test.expected)
		}
	}
}
