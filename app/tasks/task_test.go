package tasks

import (
	"testing"
)

func TestTaskRetryAccounting(t *testing.T) {
	task := NewTask(TaskTypeProcessMessage, "newsletter")

	if task.GetRetryCount() != 0 {
		t.Errorf("Expected retry count 0, got %d", task.GetRetryCount())
	}
	if task.GetMaxRetries() != DefaultMaxRetries {
		t.Errorf("Expected max retries %d, got %d", DefaultMaxRetries, task.GetMaxRetries())
	}

	for i := 0; i < DefaultMaxRetries; i++ {
		if !task.CanRetry() {
			t.Fatalf("Expected retry %d to be allowed", i+1)
		}
		task.IncrementRetryCount()
	}

	if task.CanRetry() {
		t.Error("Expected retries exhausted")
	}
}

func TestTaskIdentity(t *testing.T) {
	a := NewTask(TaskTypePollFeed, "weekly")
	b := NewTask(TaskTypePollFeed, "weekly")

	if a.GetID() == "" || b.GetID() == "" {
		t.Error("Expected non-empty task IDs")
	}
	if a.GetID() == b.GetID() {
		t.Error("Expected unique task IDs")
	}
	if a.GetType() != TaskTypePollFeed {
		t.Errorf("Expected type %s, got %s", TaskTypePollFeed, a.GetType())
	}
	if a.GetSourceName() != "weekly" {
		t.Errorf("Expected source name 'weekly', got %s", a.GetSourceName())
	}
}

func TestTaskDuration(t *testing.T) {
	task := NewTask(TaskTypeSyncSource, "s")

	if task.GetDuration() != 0 {
		t.Errorf("Expected zero duration before start, got %v", task.GetDuration())
	}

	task.Start()
	if task.GetDuration() < 0 {
		t.Errorf("Expected non-negative duration, got %v", task.GetDuration())
	}
}
