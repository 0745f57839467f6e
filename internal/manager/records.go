package manager

import (
	"time"

	"github.com/sandeepkv93/trf/internal/model"
	"github.com/sandeepkv93/trf/internal/storage"
)

func toRecord(t *model.Tracker) storage.Tracker {
	history := make([]storage.Completion, 0, len(t.History))
	for _, c := range t.History {
		history = append(history, storage.Completion{At: c.At, Adjustment: c.Adjustment})
	}
	return storage.Tracker{
		ID:         t.ID,
		Name:       t.Name,
		CreatedAt:  t.Created,
		ModifiedAt: t.Modified,
		History:    history,
	}
}

// fromRecord moves stored UTC instants into loc for display.
func fromRecord(r storage.Tracker, eta float64, loc *time.Location) *model.Tracker {
	history := make([]model.CompletionEvent, 0, len(r.History))
	for _, c := range r.History {
		history = append(history, model.CompletionEvent{At: c.At.In(loc), Adjustment: c.Adjustment})
	}
	return model.RestoreTracker(r.ID, r.Name, r.CreatedAt.In(loc), r.ModifiedAt.In(loc), history, eta)
}
