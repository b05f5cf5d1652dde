package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/lib/pq"

	"ContentEngine/internal/domain"
	"ContentEngine/internal/ports"
)

// Driver names accepted by OpenSQLLedger.
const (
	DriverDuckDB   = "duckdb"
	DriverPostgres = "postgres"
)

// SQLLedger persists ledger rows into DuckDB or Postgres.
type SQLLedger struct {
	db      *sql.DB
	table   string
	builder sq.StatementBuilderType
}

var _ ports.Ledger = (*SQLLedger)(nil)

// NewSQLLedger wires a sql.DB implementation.
func NewSQLLedger(db *sql.DB, table string) *SQLLedger {
	if table == "" {
		table = "content_ledger"
	}
	return &SQLLedger{
		db:      db,
		table:   pq.QuoteIdentifier(table),
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// OpenSQLLedger opens the database, checks connectivity and ensures the table exists.
func OpenSQLLedger(ctx context.Context, driver, dsn, table string) (*SQLLedger, error) {
	switch driver {
	case DriverDuckDB, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported sql ledger driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	ledger := NewSQLLedger(db, table)
	if err := ledger.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return ledger, nil
}

// EnsureSchema creates the ledger table when missing.
func (l *SQLLedger) EnsureSchema(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, l.schema()); err != nil {
		return fmt.Errorf("create ledger table: %w", err)
	}
	return nil
}

func (l *SQLLedger) schema() string {
	types := map[string]string{
		"recorded_at": "TIMESTAMP NOT NULL",
		"posted_at":   "TIMESTAMP",
		"relevance":   "INTEGER",
		"virality":    "INTEGER",
		"clicks":      "INTEGER",
		"likes":       "INTEGER",
		"reposts":     "INTEGER",
		"comments":    "INTEGER",
		"row_id":      "TEXT PRIMARY KEY",
	}
	defs := make([]string, 0, len(ledgerColumns))
	for _, col := range ledgerColumns {
		typ, ok := types[col]
		if !ok {
			typ = "TEXT"
		}
		defs = append(defs, col+" "+typ)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", l.table, strings.Join(defs, ", "))
}

// Close releases the database handle.
func (l *SQLLedger) Close() error {
	return l.db.Close()
}

// Append inserts one row. Rows are never updated.
func (l *SQLLedger) Append(ctx context.Context, row domain.LedgerRow) error {
	query, args, err := l.insertQuery(row)
	if err != nil {
		return err
	}
	if _, err := l.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert ledger row: %w", err)
	}
	return nil
}

func (l *SQLLedger) insertQuery(row domain.LedgerRow) (string, []any, error) {
	values, err := rowValues(row)
	if err != nil {
		return "", nil, err
	}
	query, args, err := l.builder.Insert(l.table).Columns(ledgerColumns...).Values(values...).ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build insert: %w", err)
	}
	return query, args, nil
}

// ListSeenIdentifiers returns every hash with at least one row other than score_failed.
func (l *SQLLedger) ListSeenIdentifiers(ctx context.Context) (map[string]struct{}, error) {
	query, args, err := l.seenQuery()
	if err != nil {
		return nil, err
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query seen: %w", err)
	}

	result := make(map[string]struct{})
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan hash: %w", err)
		}
		result[hash] = struct{}{}
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return result, nil
}

func (l *SQLLedger) seenQuery() (string, []any, error) {
	query, args, err := l.builder.Select("hash").Distinct().From(l.table).
		Where(sq.NotEq{"status": string(domain.StatusScoreFailed)}).
		Where(sq.NotEq{"hash": ""}).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build seen query: %w", err)
	}
	return query, args, nil
}

// ListByStatus returns the latest row of every hash whose latest status is status.
func (l *SQLLedger) ListByStatus(ctx context.Context, status domain.Status) ([]domain.LedgerRow, error) {
	rows, err := l.listHistory(ctx, status)
	if err != nil {
		return nil, err
	}
	return domain.FilterLatest(rows, status), nil
}

// listHistory loads every row of hashes that were ever recorded with status.
func (l *SQLLedger) listHistory(ctx context.Context, status domain.Status) ([]domain.LedgerRow, error) {
	query, args, err := l.historyQuery(status)
	if err != nil {
		return nil, err
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}

	var result []domain.LedgerRow
	for rows.Next() {
		cells := make([]any, len(ledgerColumns))
		dest := make([]any, len(ledgerColumns))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		row, err := decodeRow(cells)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("decode ledger row: %w", err)
		}
		result = append(result, row)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return result, nil
}

func (l *SQLLedger) historyQuery(status domain.Status) (string, []any, error) {
	// Placeholders of the subquery are rewritten by the outer builder.
	sub, subArgs, err := sq.Select("hash").From(l.table).Where(sq.Eq{"status": string(status)}).ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build status subquery: %w", err)
	}
	query, args, err := l.builder.Select(ledgerColumns...).From(l.table).
		Where("hash IN ("+sub+")", subArgs...).
		OrderBy("recorded_at").
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build history query: %w", err)
	}
	return query, args, nil
}
