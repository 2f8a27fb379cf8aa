package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"deedledger/internal/deed"
	"deedledger/pkg/platform/sentinel"
	txcontext "deedledger/pkg/platform/tx"
)

// PostgresStore persists deeds in PostgreSQL. Uniqueness of the title number,
// deed number and fingerprint is enforced by unique constraints, so concurrent
// registrations of the same numbers cannot race past a pre-check.
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

const deedColumns = `id, land_title_number, deed_number, owner_name, owner_nic,
	land_location, province, district, land_area, survey_ref,
	registration_date, status, fingerprint, registered_by, document_url, document_id`

func (s *PostgresStore) Create(ctx context.Context, d deed.Deed) error {
	query := `
		INSERT INTO deeds (` + deedColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		d.ID, d.LandTitleNumber, d.DeedNumber, d.OwnerName, d.OwnerNIC,
		d.LandLocation, d.Province, d.District, d.LandArea, d.SurveyRef,
		d.RegistrationDate, string(d.Status), d.Fingerprint, d.RegisteredBy,
		d.DocumentURL, d.DocumentID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert deed: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (deed.Deed, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+deedColumns+` FROM deeds WHERE id = $1`, id)
	return scanDeed(row)
}

func (s *PostgresStore) FindByNumber(ctx context.Context, number string) (deed.Deed, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+deedColumns+` FROM deeds WHERE land_title_number = $1 OR deed_number = $1`, number)
	return scanDeed(row)
}

func (s *PostgresStore) Query(ctx context.Context, filter deed.QueryFilter) ([]deed.Deed, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	like := func(col, v string) {
		conds = append(conds, col+" ILIKE "+arg("%"+escapeLike(v)+"%"))
	}

	if filter.LandTitleNumber != "" {
		like("land_title_number", filter.LandTitleNumber)
	}
	if filter.DeedNumber != "" {
		like("deed_number", filter.DeedNumber)
	}
	if filter.OwnerName != "" {
		like("owner_name", filter.OwnerName)
	}
	if filter.OwnerNIC != "" {
		like("owner_nic", filter.OwnerNIC)
	}
	if filter.District != "" {
		conds = append(conds, "district = "+arg(filter.District))
	}
	if filter.Status != "" {
		conds = append(conds, "status = "+arg(string(filter.Status)))
	}
	if filter.Search != "" {
		p := arg("%" + escapeLike(filter.Search) + "%")
		conds = append(conds, fmt.Sprintf(
			"(deed_number ILIKE %s OR land_title_number ILIKE %s OR owner_nic ILIKE %s)", p, p, p))
	}

	query := `SELECT ` + deedColumns + ` FROM deeds`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY registration_date DESC"

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query deeds: %w", err)
	}
	defer rows.Close()

	var out []deed.Deed
	for rows.Next() {
		d, err := scanDeedRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, id string, fields deed.UpdateFields, fingerprint string) error {
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	setIf := func(col string, v *string) {
		if v != nil {
			set(col, *v)
		}
	}
	setIf("land_title_number", fields.LandTitleNumber)
	setIf("deed_number", fields.DeedNumber)
	setIf("owner_name", fields.OwnerName)
	setIf("owner_nic", fields.OwnerNIC)
	setIf("land_location", fields.LandLocation)
	setIf("province", fields.Province)
	setIf("district", fields.District)
	setIf("land_area", fields.LandArea)
	setIf("survey_ref", fields.SurveyRef)
	setIf("document_url", fields.DocumentURL)
	setIf("document_id", fields.DocumentID)
	if fields.Status != nil {
		set("status", string(*fields.Status))
	}
	set("fingerprint", fingerprint)

	args = append(args, id)
	query := fmt.Sprintf("UPDATE deeds SET %s WHERE id = $%d",
		strings.Join(sets, ", "), len(args))

	res, err := s.execer(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("update deed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update deed: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM deeds WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete deed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete deed: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDeed(row *sql.Row) (deed.Deed, error) {
	d, err := scanDeedRows(row)
	if errors.Is(err, sql.ErrNoRows) {
		return deed.Deed{}, sentinel.ErrNotFound
	}
	return d, err
}

func scanDeedRows(row rowScanner) (deed.Deed, error) {
	var d deed.Deed
	var status string
	err := row.Scan(
		&d.ID, &d.LandTitleNumber, &d.DeedNumber, &d.OwnerName, &d.OwnerNIC,
		&d.LandLocation, &d.Province, &d.District, &d.LandArea, &d.SurveyRef,
		&d.RegistrationDate, &status, &d.Fingerprint, &d.RegisteredBy,
		&d.DocumentURL, &d.DocumentID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return deed.Deed{}, err
		}
		return deed.Deed{}, fmt.Errorf("scan deed: %w", err)
	}
	d.Status = deed.Status(status)
	return d, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
