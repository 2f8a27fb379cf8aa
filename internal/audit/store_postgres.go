package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"deedledger/pkg/platform/sentinel"
	txcontext "deedledger/pkg/platform/tx"
)

// PostgresStore persists the trail in PostgreSQL. It honors a context-carried
// transaction so an audit append can commit together with the deed write it
// documents.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, e Entry) error {
	query := `
		INSERT INTO audit_entries (transaction_id, deed_number, action, performed_by, performed_at, details)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		e.TransactionID, e.DeedNumber, string(e.Action), e.PerformedBy, e.Timestamp, e.Details,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) Query(ctx context.Context, f Filter, page, limit int) (Page, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.DeedNumber != "" {
		conds = append(conds, "deed_number ILIKE "+arg("%"+f.DeedNumber+"%"))
	}
	if f.Action != "" {
		conds = append(conds, "action = "+arg(string(f.Action)))
	}
	if f.Username != "" {
		conds = append(conds, "performed_by = "+arg(f.Username))
	} else if f.PerformedBy != "" {
		conds = append(conds, "performed_by ILIKE "+arg("%"+f.PerformedBy+"%"))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	err := s.execer(ctx).QueryRowContext(ctx,
		"SELECT count(*) FROM audit_entries"+where, args...).Scan(&total)
	if err != nil {
		return Page{}, fmt.Errorf("count audit entries: %w", err)
	}

	offset := (page - 1) * limit
	query := "SELECT transaction_id, deed_number, action, performed_by, performed_at, details FROM audit_entries" +
		where + fmt.Sprintf(" ORDER BY performed_at DESC LIMIT %d OFFSET %d", limit, offset)

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return Page{}, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var action string
		if err := rows.Scan(&e.TransactionID, &e.DeedNumber, &action, &e.PerformedBy, &e.Timestamp, &e.Details); err != nil {
			return Page{}, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Action = Action(action)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return Page{}, err
	}

	return Page{
		Entries:    entries,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}, nil
}
