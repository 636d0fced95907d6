package syncengine

import (
	"slices"

	"github.com/gokigennote/gokigen/internal/client/models"
	"github.com/google/uuid"
)

// Merge combines local and remote entries by id. On collision the copy with
// the later UpdatedAt wins and ties keep the local copy, so an unsynced
// local edit is never replaced by an equally old remote one. Remote ids in
// skip are dropped. The result is sorted by Date, newest first.
//
// Concurrent edits of one entry on two devices lose the older edit whole.
func Merge(local, remote []models.Entry, skip map[uuid.UUID]struct{}) []models.Entry {
	byID := make(map[uuid.UUID]int, len(local)+len(remote))
	out := make([]models.Entry, 0, len(local)+len(remote))

	for _, e := range local {
		if i, ok := byID[e.ID]; ok {
			out[i] = e
			continue
		}
		byID[e.ID] = len(out)
		out = append(out, e)
	}

	for _, r := range remote {
		if _, drop := skip[r.ID]; drop {
			continue
		}
		i, ok := byID[r.ID]
		if !ok {
			byID[r.ID] = len(out)
			out = append(out, r)
			continue
		}
		if r.UpdatedAt.After(out[i].UpdatedAt) {
			out[i] = r
		}
	}

	sortByDateDesc(out)
	return out
}

func sortByDateDesc(entries []models.Entry) {
	slices.SortStableFunc(entries, func(a, b models.Entry) int {
		return b.Date.Compare(a.Date)
	})
}

func idSet(ids []uuid.UUID) map[uuid.UUID]struct{} {
	m := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}
