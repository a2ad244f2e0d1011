// Package story builds the read model behind the collaborative story
// experience: for one subject, the partition of every linked sentence
// into the ordered, already-picked story and the pool still available.
package story

import (
	"context"

	"github.com/pellmark/skein/internal/store"
)

// Pick is one sentence as presented to story viewers.
type Pick struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
	Link string `json:"link"`
}

// View is the full state pushed to every viewer of a subject's room.
// Used holds the story so far in append order; Available holds the
// sentences not yet picked. Together they cover every sentence ever
// linked to the subject, with no overlap.
type View struct {
	Subject   int64  `json:"subject"`
	Used      []Pick `json:"used"`
	Available []Pick `json:"available"`
}

// Load reconstructs the current view for a subject from the ledger.
// The slices are always non-nil so the encoded payload carries empty
// arrays rather than nulls.
func Load(ctx context.Context, st store.Store, subjectID int64) (*View, error) {
	rows, err := st.GetStory(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	v := &View{
		Subject:   subjectID,
		Used:      []Pick{},
		Available: []Pick{},
	}
	for _, r := range rows {
		p := Pick{ID: r.SentenceID, Text: r.Text, Link: r.Link}
		if r.Used {
			v.Used = append(v.Used, p)
		} else {
			v.Available = append(v.Available, p)
		}
	}
	return v, nil
}
