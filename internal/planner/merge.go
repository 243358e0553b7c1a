package planner

import (
	"context"
	"strings"

	appLog "studydash/internal/log"
	"studydash/internal/model"
)

// ImportedPrefix marks event ids that came from an ICS feed.
const ImportedPrefix = "ics:"

// SourcePrefix is the id prefix shared by every event imported from source.
func SourcePrefix(sourceID string) string {
	return ImportedPrefix + sourceID + ":"
}

// MergeResult counts what a merge changed.
type MergeResult struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Removed int `json:"removed"`
}

// MergeEvents folds events imported from sourceID into existing.
//
// Events whose id matches get the imported date and title, new ids are
// appended, and events previously imported from sourceID that are no longer
// in imported are dropped. Events entered by the user are left untouched.
func MergeEvents(existing, imported []model.Event, sourceID string) ([]model.Event, MergeResult) {
	var res MergeResult
	prefix := SourcePrefix(sourceID)

	incoming := make(map[string]model.Event, len(imported))
	order := make([]string, 0, len(imported))
	for _, ev := range imported {
		if _, dup := incoming[ev.ID]; !dup {
			order = append(order, ev.ID)
		}
		incoming[ev.ID] = ev
	}

	out := make([]model.Event, 0, len(existing)+len(imported))
	seen := make(map[string]bool, len(existing))
	for _, ev := range existing {
		if in, ok := incoming[ev.ID]; ok {
			if in.Date != ev.Date || in.Title != ev.Title {
				res.Updated++
			}
			out = append(out, in)
			seen[ev.ID] = true
			continue
		}
		if strings.HasPrefix(ev.ID, prefix) {
			res.Removed++
			continue
		}
		out = append(out, ev)
	}

	for _, id := range order {
		if seen[id] {
			continue
		}
		out = append(out, incoming[id])
		res.Added++
	}
	return out, res
}

// ImportEvents merges imported events for sourceID into the stored record.
// Events that fail validation are skipped with a warning. Nothing is written
// when the merge changes nothing.
func (s *Service) ImportEvents(ctx context.Context, sourceID string, imported []model.Event) (MergeResult, error) {
	valid := make([]model.Event, 0, len(imported))
	for _, ev := range imported {
		if err := s.store.Validate(ev); err != nil {
			appLog.Warn("import: skipping invalid event", "source", sourceID, "id", ev.ID, "err", err)
			continue
		}
		valid = append(valid, ev)
	}
	imported = valid

	var res MergeResult
	_, err := s.store.Update(ctx, func(rec *model.UserRecord) (bool, error) {
		rec.Events, res = MergeEvents(rec.Events, imported, sourceID)
		return res != MergeResult{}, nil
	})
	if err != nil {
		return MergeResult{}, err
	}
	appLog.Info("events imported", "source", sourceID, "added", res.Added, "updated", res.Updated, "removed", res.Removed)
	return res, nil
}
