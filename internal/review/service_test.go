package review

import (
	"testing"
	"time"

	"github.com/AHGGG/nce-english-practices-sub006/internal/database"
)

func testService(t *testing.T) *Service {
	t.Helper()
	db, err := database.New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewService(db)
}

func TestAddCard(t *testing.T) {
	svc := testService(t)

	card, err := svc.AddCard("serendipity", "found it by serendipity", "ep-1")
	if err != nil {
		t.Fatalf("add card failed: %v", err)
	}
	if card.Ease != defaultEase {
		t.Errorf("expected default ease %v, got %v", defaultEase, card.Ease)
	}
	if card.Repetitions != 0 {
		t.Errorf("expected 0 repetitions, got %d", card.Repetitions)
	}

	// Same word again returns the existing card.
	again, err := svc.AddCard("serendipity", "", "")
	if err != nil {
		t.Fatalf("re-add failed: %v", err)
	}
	if again.ID != card.ID {
		t.Errorf("expected existing card %s, got %s", card.ID, again.ID)
	}

	if _, err := svc.AddCard("", "", ""); err == nil {
		t.Error("expected error for empty word")
	}
}

func TestDue(t *testing.T) {
	svc := testService(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	if _, err := svc.AddCard("first", "", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddCard("second", "", ""); err != nil {
		t.Fatal(err)
	}

	due, err := svc.Due(10)
	if err != nil {
		t.Fatalf("due query failed: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("expected 2 due cards, got %d", len(due))
	}

	// Grading pushes the card into the future.
	if _, err := svc.GradeCard(due[0].ID, GradeGood); err != nil {
		t.Fatalf("grade failed: %v", err)
	}
	due, err = svc.Due(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 1 {
		t.Fatalf("expected 1 due card after grading, got %d", len(due))
	}

	count, err := svc.DueCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected due count 1, got %d", count)
	}

	// A day later the graded card comes back.
	svc.now = func() time.Time { return base.Add(25 * time.Hour) }
	due, err = svc.Due(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 2 {
		t.Errorf("expected 2 due cards a day later, got %d", len(due))
	}
}

func TestGradeCard(t *testing.T) {
	svc := testService(t)

	card, err := svc.AddCard("ubiquitous", "", "")
	if err != nil {
		t.Fatal(err)
	}

	graded, err := svc.GradeCard(card.ID, GradeGood)
	if err != nil {
		t.Fatalf("grade failed: %v", err)
	}
	if graded.Repetitions != 1 || graded.IntervalDays != 1 {
		t.Errorf("unexpected state after good: reps=%d interval=%v", graded.Repetitions, graded.IntervalDays)
	}

	reloaded, err := svc.Card(card.ID)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Repetitions != 1 {
		t.Errorf("grade was not persisted, reps=%d", reloaded.Repetitions)
	}

	var logs int
	if err := svc.db.QueryRow("SELECT COUNT(*) FROM review_logs WHERE card_id = ?", card.ID).Scan(&logs); err != nil {
		t.Fatal(err)
	}
	if logs != 1 {
		t.Errorf("expected 1 review log, got %d", logs)
	}

	if _, err := svc.GradeCard(card.ID, "brilliant"); err == nil {
		t.Error("expected error for unknown grade")
	}
	if _, err := svc.GradeCard("missing", GradeGood); err == nil {
		t.Error("expected error for unknown card")
	}
}

func TestPruneLogs(t *testing.T) {
	svc := testService(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	svc.now = func() time.Time { return base.Add(-200 * 24 * time.Hour) }
	card, err := svc.AddCard("vestigial", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GradeCard(card.ID, GradeGood); err != nil {
		t.Fatal(err)
	}

	svc.now = func() time.Time { return base }
	if _, err := svc.GradeCard(card.ID, GradeGood); err != nil {
		t.Fatal(err)
	}

	n, err := svc.PruneLogs(180 * 24 * time.Hour)
	if err != nil {
		t.Fatalf("prune failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 pruned log, got %d", n)
	}

	var remaining int
	if err := svc.db.QueryRow("SELECT COUNT(*) FROM review_logs").Scan(&remaining); err != nil {
		t.Fatal(err)
	}
	if remaining != 1 {
		t.Errorf("expected 1 remaining log, got %d", remaining)
	}
}

func TestDeleteCard(t *testing.T) {
	svc := testService(t)

	card, err := svc.AddCard("ephemeral", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteCard(card.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := svc.DeleteCard(card.ID); err == nil {
		t.Error("expected error deleting a missing card")
	}
}
