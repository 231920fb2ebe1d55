package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"gorm.io/datatypes"

	"github.com/Windi-Fikriyansyah/bazaar_be/internal/models"
)

// AuditWriter turns committed changes into audit log rows.
type AuditWriter struct {
	Store interface {
		AppendAudit(ctx context.Context, entry *models.AuditLog) error
	}
	Now func() time.Time
}

func NewAuditWriter(st Store) *AuditWriter {
	return &AuditWriter{Store: st, Now: time.Now}
}

// LogAction records before and after as JSON. Either may be nil, but
// not both.
func (w *AuditWriter) LogAction(ctx context.Context, actor, action string, before, after any) error {
	ref := after
	if ref == nil {
		ref = before
	}
	if ref == nil {
		return fmt.Errorf("audit %s: nothing to record", action)
	}
	target, id := describe(ref)

	entry := &models.AuditLog{
		Actor:     actor,
		Action:    action,
		Target:    target,
		TargetID:  id,
		CreatedAt: w.Now(),
	}
	var err error
	if entry.DataBefore, err = encode(before); err != nil {
		return fmt.Errorf("audit %s: %w", action, err)
	}
	if entry.DataAfter, err = encode(after); err != nil {
		return fmt.Errorf("audit %s: %w", action, err)
	}
	return w.Store.AppendAudit(ctx, entry)
}

func describe(v any) (target, id string) {
	switch r := v.(type) {
	case *models.Registration:
		return "registration", r.ID
	case *models.Announcement:
		return "announcement", r.ID
	case *models.Product:
		return "product", strconv.FormatUint(uint64(r.ID), 10)
	case *models.User:
		return "user", r.Name
	case *models.WeekOrder:
		return "week_entry", r.ID.String()
	}
	return fmt.Sprintf("%T", v), ""
}

func encode(v any) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
