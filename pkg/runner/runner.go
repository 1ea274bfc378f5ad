// Package runner executes editor buffers against the configured database.
package runner

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// ErrReadOnly is returned for statements that would change data or schema.
var ErrReadOnly = errors.New("only read queries are supported")

// ErrEmptyQuery is returned for blank input.
var ErrEmptyQuery = errors.New("empty query")

// writePattern matches statements that start with a DDL or DML keyword,
// after leading whitespace and comments. Writes nested in a CTE or following
// a semicolon are not matched; the read-only transaction in Execute refuses them.
var writePattern = regexp.MustCompile(`(?is)^(?:\s|--[^\n]*\n|/\*.*?\*/)*(INSERT|UPDATE|DELETE|MERGE|UPSERT|REPLACE|CREATE|ALTER|DROP|TRUNCATE|RENAME|GRANT|REVOKE|COMMENT|COPY|VACUUM|CALL|DO)\b`)

var blankPattern = regexp.MustCompile(`^(?:\s|;)*$`)

// Executor runs one SQL text and returns its rows.
type Executor interface {
	Execute(ctx context.Context, query string) (*Result, error)
}

// Result is a fully materialised query result. Values are rendered as text.
type Result struct {
	RunID     uuid.UUID
	Columns   []string
	Rows      [][]string
	Truncated bool
	Elapsed   time.Duration
}

// txBeginner is the part of *sql.DB that Execute needs.
type txBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// DBRunner executes against a database/sql handle.
type DBRunner struct {
	db      txBeginner
	maxRows int
	timeout time.Duration
}

// NewDBRunner caps results at maxRows (0 means no cap) and each query at timeout (0 means none).
func NewDBRunner(db *sql.DB, maxRows int, timeout time.Duration) *DBRunner {
	return &DBRunner{db: db, maxRows: maxRows, timeout: timeout}
}

// CheckReadOnly rejects empty input and statements starting with a write
// keyword. It is a fast path for obvious writes, not the guard itself.
func CheckReadOnly(query string) error {
	if blankPattern.MatchString(query) {
		return ErrEmptyQuery
	}
	if m := writePattern.FindStringSubmatch(query); m != nil {
		return errors.Wrapf(ErrReadOnly, "statement starts with %s", m[1])
	}
	return nil
}

// Execute runs query inside a read-only transaction, which is what stops
// writes CheckReadOnly lets through.
func (r *DBRunner) Execute(ctx context.Context, query string) (*Result, error) {
	if err := CheckReadOnly(query); err != nil {
		return nil, err
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	runID := uuid.New()
	start := time.Now()

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin read-only transaction")
	}
	// nothing to commit
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(err, "run %s failed", runID)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read result columns")
	}

	result := &Result{RunID: runID, Columns: columns}
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if r.maxRows > 0 && len(result.Rows) >= r.maxRows {
			result.Truncated = true
			break
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrap(err, "failed to scan result row")
		}
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "run %s failed while reading rows", runID)
	}

	result.Elapsed = time.Since(start)
	log.Debug("Query executed", "run", runID, "rows", len(result.Rows),
		"truncated", result.Truncated, "took", result.Elapsed)
	return result, nil
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	case string:
		return x
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}
