package roster

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/couchcryptid/emergency-site-monitor/internal/config"
	"github.com/couchcryptid/emergency-site-monitor/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteSource reads roster rows from a table holding the roster columns.
type SQLiteSource struct {
	db    *sql.DB
	path  string
	table string
}

// NewSQLiteSource opens the database at path. table must be a plain identifier.
func NewSQLiteSource(path, table string) (*SQLiteSource, error) {
	if !config.IsIdentifier(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &SQLiteSource{db: db, path: path, table: table}, nil
}

func (s *SQLiteSource) Describe() string { return s.path + "#" + s.table }

// ReadRows selects the roster columns. Values are read as text so that
// coordinate validation happens in one place.
func (s *SQLiteSource) ReadRows(ctx context.Context) ([]domain.SiteRow, error) {
	cols := make([]string, len(domain.SourceColumns))
	for i, c := range domain.SourceColumns {
		cols[i] = "CAST(" + c + " AS TEXT)"
	}
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), s.table)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query roster: %w", err)
	}
	defer rows.Close()

	var out []domain.SiteRow
	vals := make([]sql.NullString, len(domain.SourceColumns))
	dest := make([]any, len(vals))
	for i := range vals {
		dest[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan roster row: %w", err)
		}
		row := make(domain.SiteRow, len(vals))
		for i, c := range domain.SourceColumns {
			row[c] = vals[i].String
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roster rows: %w", err)
	}
	return out, nil
}

func (s *SQLiteSource) Close() error {
	return s.db.Close()
}
