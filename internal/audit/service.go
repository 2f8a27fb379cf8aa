package audit

import (
	"context"
	"errors"
	"time"

	"deedledger/internal/platform/metrics"
	dErrors "deedledger/pkg/domain-errors"
	"deedledger/pkg/platform/sentinel"
)

// Store persists entries. Implementations expose no mutation beyond Append.
type Store interface {
	Append(ctx context.Context, e Entry) error
	Query(ctx context.Context, f Filter, page, limit int) (Page, error)
}

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// Recorder captures structured audit entries and serves filtered, paginated
// queries. It is the only write path into the trail.
type Recorder struct {
	store   Store
	metrics *metrics.Metrics
}

func NewRecorder(store Store, m *metrics.Metrics) *Recorder {
	return &Recorder{store: store, metrics: m}
}

// Append validates and writes one entry. The timestamp defaults to write
// time; a transaction id collision is a conflict.
func (r *Recorder) Append(ctx context.Context, e Entry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if e.DeedNumber == "" {
		e.DeedNumber = "-"
	}
	if err := e.Validate(); err != nil {
		return err
	}
	if err := r.store.Append(ctx, e); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "duplicate transaction id")
		}
		return dErrors.Wrap(dErrors.CodeInternal, "append audit entry", err)
	}
	if r.metrics != nil {
		r.metrics.AuditEntries.WithLabelValues(string(e.Action)).Inc()
	}
	return nil
}

// Query returns a timestamp-descending page plus totals. Page and limit
// default to 1 and 10; Action "All" disables the action filter.
func (r *Recorder) Query(ctx context.Context, f Filter, page, limit int) (Page, error) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if f.Action == "All" {
		f.Action = ""
	}
	result, err := r.store.Query(ctx, f, page, limit)
	if err != nil {
		return Page{}, dErrors.Wrap(dErrors.CodeInternal, "query audit trail", err)
	}
	return result, nil
}
