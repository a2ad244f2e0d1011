package realtime

import (
	"context"

	"github.com/pellmark/skein/internal/store"
	"github.com/pellmark/skein/internal/story"
)

// Service performs the store work behind join and submit events.
type Service struct {
	st store.Store
}

// NewService wraps a store for the realtime channel.
func NewService(st store.Store) *Service {
	return &Service{st: st}
}

// JoinView loads the current story view for a subject.
func (s *Service) JoinView(ctx context.Context, subjectID int64) (*story.View, error) {
	return story.Load(ctx, s.st, subjectID)
}

// Submit appends a pick to the subject's story and re-reads the full
// view from the ledger. The re-read is deliberate: the broadcast state
// comes from what actually committed, never from what the client sent,
// so concurrent submits resolve the same way for every viewer.
func (s *Service) Submit(ctx context.Context, subjectID, sentenceID int64) (*story.View, error) {
	if _, err := s.st.AppendToStory(ctx, subjectID, sentenceID); err != nil {
		return nil, err
	}
	return story.Load(ctx, s.st, subjectID)
}
