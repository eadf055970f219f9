// Package postgres implements storage.Repository on pgx connection pools.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"icsv/internal/storage"
)

// Repo implements storage.Repository for Postgres.
//
// Table names are passed through untouched so schema-qualified names like
// "public.obs" keep working; when the name carries a schema qualifier,
// EnsureTable creates the schema first.
type Repo struct {
	pool *pgxpool.Pool
}

// New builds a pgx pool from the DSN. Connections are established lazily,
// so a bad DSN surfaces on first use rather than here.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	return &Repo{pool: pool}, nil
}

func (r *Repo) Close() { r.pool.Close() }

// EnsureTable creates the destination schema (when the table name is
// qualified) and table if they do not exist.
func (r *Repo) EnsureTable(ctx context.Context, spec storage.TableSpec) error {
	schemaSQL, tableSQL, err := buildCreateSQL(spec)
	if err != nil {
		return err
	}
	if schemaSQL != "" {
		if _, err := r.pool.Exec(ctx, schemaSQL); err != nil {
			return fmt.Errorf("postgres: create schema for %s: %w", spec.Name, err)
		}
	}
	if _, err := r.pool.Exec(ctx, tableSQL); err != nil {
		return fmt.Errorf("postgres: create table %s: %w", spec.Name, err)
	}
	return nil
}

// InsertRows performs chunked multi-row inserts with $N placeholders.
//
// Postgres caps bound parameters per statement at 65535; chunking keeps
// wide tables under the cap with headroom.
func (r *Repo) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if table == "" {
		return 0, fmt.Errorf("postgres: table is empty")
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("postgres: insert into %s: no columns", table)
	}

	maxRows := 65000 / max(1, len(columns))
	if maxRows < 1 {
		maxRows = 1
	}

	var total int64
	for start := 0; start < len(rows); start += maxRows {
		end := start + maxRows
		if end > len(rows) {
			end = len(rows)
		}

		q, args := buildInsertSQL(table, columns, rows[start:end])

		cmd, err := r.pool.Exec(ctx, q, args...)
		if err != nil {
			return total, fmt.Errorf("postgres: insert into %s: %w", table, err)
		}
		total += cmd.RowsAffected()
	}
	return total, nil
}

// sqlType maps the document's logical types onto Postgres column types.
// Datetimes land in TIMESTAMP (no zone): the documents carry local
// timestamps without offsets.
func sqlType(logical string) string {
	switch logical {
	case "integer":
		return "BIGINT"
	case "number":
		return "DOUBLE PRECISION"
	case "datetime":
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

func pgIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// splitQualifiedName splits "schema.table" into its parts. Names with zero
// or more than one dot yield an empty schema and the input unchanged.
func splitQualifiedName(name string) (schema, table string) {
	parts := strings.Split(name, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", name
	}
	return parts[0], parts[1]
}

func buildCreateSQL(t storage.TableSpec) (schemaSQL, tableSQL string, err error) {
	if strings.TrimSpace(t.Name) == "" {
		return "", "", fmt.Errorf("postgres: table name is empty")
	}
	if len(t.Columns) == 0 {
		return "", "", fmt.Errorf("postgres: table %s has no columns", t.Name)
	}

	if schema, _ := splitQualifiedName(t.Name); schema != "" {
		schemaSQL = fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s;", pgIdent(schema))
	}

	parts := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		col := fmt.Sprintf("%s %s", pgIdent(c.Name), sqlType(c.Type))
		if !c.Nullable {
			col += " NOT NULL"
		}
		parts = append(parts, col)
	}

	tableSQL = fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);", t.Name, strings.Join(parts, ",\n  "))
	return schemaSQL, tableSQL, nil
}

// buildInsertSQL constructs a single multi-row INSERT with $N placeholders
// numbered across all rows. It is pure, so numbering and arg alignment are
// unit-testable without a database.
func buildInsertSQL(table string, columns []string, rows [][]any) (string, []any) {
	colList := make([]string, 0, len(columns))
	for _, c := range columns {
		colList = append(colList, pgIdent(c))
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	b.WriteString(" (")
	b.WriteString(strings.Join(colList, ", "))
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	p := 1
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range columns {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", p)
			p++
		}
		b.WriteString(")")
		args = append(args, row...)
	}
	return b.String(), args
}
