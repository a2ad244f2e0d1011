package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAppendToStory_MarksUsed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s1 := seedSentence(t, s, "cats are great", "cat")
	seedSentence(t, s, "cats sleep a lot", "cat")
	catID := subjectID(t, s, "cat")

	if _, err := s.AppendToStory(ctx, catID, s1); err != nil {
		t.Fatalf("AppendToStory: %v", err)
	}

	rows, err := s.GetStory(ctx, catID)
	if err != nil {
		t.Fatalf("GetStory: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 story rows, got %d", len(rows))
	}

	var used, available int
	for _, r := range rows {
		if r.Used {
			used++
			if r.SentenceID != s1 {
				t.Errorf("used sentence = %d, want %d", r.SentenceID, s1)
			}
			if r.UsedAt.IsZero() {
				t.Error("used row has zero UsedAt")
			}
		} else {
			available++
			if !r.UsedAt.IsZero() {
				t.Error("available row has nonzero UsedAt")
			}
		}
	}
	if used != 1 || available != 1 {
		t.Errorf("partition = (%d used, %d available), want (1, 1)", used, available)
	}
}

func TestAppendToStory_NoLink(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	catSentence := seedSentence(t, s, "cats are great", "cat")
	seedSentence(t, s, "dogs bark", "dog")
	dogID := subjectID(t, s, "dog")

	// catSentence is not linked to dog.
	_, err := s.AppendToStory(ctx, dogID, catSentence)
	if !errors.Is(err, ErrConstraint) {
		t.Fatalf("expected ErrConstraint, got %v", err)
	}

	// The failed append must never surface in the story.
	rows, err := s.GetStory(ctx, dogID)
	if err != nil {
		t.Fatalf("GetStory: %v", err)
	}
	for _, r := range rows {
		if r.Used {
			t.Fatalf("sentence %d marked used after failed append", r.SentenceID)
		}
	}
}

func TestGetStory_UnknownSubject(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetStory(context.Background(), 999)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetStory_OrderedByAppendTime(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s1 := seedSentence(t, s, "first pick", "cat")
	s2 := seedSentence(t, s, "second pick", "cat")
	s3 := seedSentence(t, s, "third pick", "cat")
	catID := subjectID(t, s, "cat")

	// Append out of sentence-id order to prove ordering follows the log.
	for _, id := range []int64{s2, s3, s1} {
		if _, err := s.AppendToStory(ctx, catID, id); err != nil {
			t.Fatalf("AppendToStory(%d): %v", id, err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	rows, err := s.GetStory(ctx, catID)
	if err != nil {
		t.Fatalf("GetStory: %v", err)
	}

	var usedOrder []int64
	for _, r := range rows {
		if r.Used {
			usedOrder = append(usedOrder, r.SentenceID)
		}
	}
	want := []int64{s2, s3, s1}
	if len(usedOrder) != len(want) {
		t.Fatalf("used rows = %d, want %d", len(usedOrder), len(want))
	}
	for i := range want {
		if usedOrder[i] != want[i] {
			t.Fatalf("used order = %v, want %v", usedOrder, want)
		}
	}
}

func TestAppendToStory_Monotonic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s1 := seedSentence(t, s, "cats are great", "cat")
	s2 := seedSentence(t, s, "cats sleep", "cat")
	s3 := seedSentence(t, s, "cats purr", "cat")
	catID := subjectID(t, s, "cat")

	if _, err := s.AppendToStory(ctx, catID, s1); err != nil {
		t.Fatalf("AppendToStory: %v", err)
	}

	// Later appends for other sentences never flip s1 back to available.
	for _, id := range []int64{s2, s3} {
		if _, err := s.AppendToStory(ctx, catID, id); err != nil {
			t.Fatalf("AppendToStory(%d): %v", id, err)
		}
		rows, err := s.GetStory(ctx, catID)
		if err != nil {
			t.Fatalf("GetStory: %v", err)
		}
		found := false
		for _, r := range rows {
			if r.SentenceID == s1 && r.Used {
				found = true
			}
		}
		if !found {
			t.Fatalf("sentence %d no longer used after appending %d", s1, id)
		}
	}
}

func TestGetStory_MultiSubjectSentence(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	shared := seedSentence(t, s, "cats chase dogs", "cat", "dog")
	catID := subjectID(t, s, "cat")
	dogID := subjectID(t, s, "dog")

	// Using a sentence for cat's story leaves it available for dog.
	if _, err := s.AppendToStory(ctx, catID, shared); err != nil {
		t.Fatalf("AppendToStory: %v", err)
	}

	dogRows, err := s.GetStory(ctx, dogID)
	if err != nil {
		t.Fatalf("GetStory(dog): %v", err)
	}
	if len(dogRows) != 1 || dogRows[0].Used {
		t.Fatalf("expected sentence available for dog, got %+v", dogRows)
	}
}
