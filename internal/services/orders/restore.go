package orders

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/bazaar_be/internal/models"
)

// auditTarget matches the target the audit writer records for orders.
const auditTarget = "week_entry"

// MissingOrder is an order the audit log knows about that is no longer
// on its sheet. Deleted is set when it was removed on purpose.
type MissingOrder struct {
	models.WeekOrder
	Deleted bool `json:"deleted"`
}

// Missing rebuilds, from the audit log, the last known state of every
// order of weekID ("" for all weeks) that is not stored any more.
func (s *Service) Missing(ctx context.Context, actor models.Actor, weekID string) ([]MissingOrder, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	return s.missing(ctx, weekID)
}

func (s *Service) missing(ctx context.Context, weekID string) ([]MissingOrder, error) {
	stored, err := s.store.ListOrders(ctx, weekID)
	if err != nil {
		return nil, err
	}
	present := make(map[uuid.UUID]bool, len(stored))
	for i := range stored {
		present[stored[i].ID] = true
	}

	logs, err := s.store.ListAudit(ctx, 0)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	out := make([]MissingOrder, 0)
	// Newest first: the first row per order is its last state.
	for i := range logs {
		l := &logs[i]
		if l.Target != auditTarget || seen[l.TargetID] {
			continue
		}
		seen[l.TargetID] = true

		raw, deleted := l.DataAfter, false
		if l.Action == "delete" {
			raw, deleted = l.DataBefore, true
		}
		if len(raw) == 0 {
			continue
		}
		var o models.WeekOrder
		if err := json.Unmarshal(raw, &o); err != nil || o.ID == uuid.Nil {
			continue
		}
		if present[o.ID] || (weekID != "" && o.WeekID != weekID) {
			continue
		}
		out = append(out, MissingOrder{WeekOrder: o, Deleted: deleted})
	}
	return out, nil
}

// Restore puts the chosen missing orders back with their last known
// values. Ids that are not missing are ignored.
func (s *Service) Restore(ctx context.Context, actor models.Actor, weekID string, ids []uuid.UUID) ([]models.WeekOrder, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	missing, err := s.missing(ctx, weekID)
	if err != nil {
		return nil, err
	}
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	restored := make([]models.WeekOrder, 0, len(ids))
	for i := range missing {
		o := missing[i].WeekOrder
		if !want[o.ID] {
			continue
		}
		o.UpdatedAt = s.now()
		if err := s.store.SaveOrder(ctx, &o); err != nil {
			return restored, err
		}
		s.record(ctx, actor, "restore", nil, &o)
		restored = append(restored, o)
	}
	return restored, nil
}
