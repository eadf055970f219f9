// Package mssql implements storage.Repository on the go-mssqldb driver.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/microsoft/go-mssqldb"

	"icsv/internal/storage"
)

// Repo implements storage.Repository for Microsoft SQL Server.
//
// Identifiers are bracket-quoted; schema-qualified table names quote each
// part ("dbo.obs" becomes [dbo].[obs]). T-SQL has no CREATE TABLE IF NOT
// EXISTS, so EnsureTable guards the DDL with an OBJECT_ID check instead.
type Repo struct {
	db *sql.DB
}

func init() {
	storage.Register("mssql", New)
}

// New opens a connection pool with the "sqlserver" driver and validates
// connectivity.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Close() { _ = r.db.Close() }

// EnsureTable creates the destination table when it does not exist, keeping
// ingestion idempotent across reruns.
func (r *Repo) EnsureTable(ctx context.Context, spec storage.TableSpec) error {
	ddl, err := buildCreateTableSQL(spec)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("mssql: create table %s: %w", spec.Name, err)
	}
	return nil
}

// InsertRows performs chunked multi-row inserts with @pN placeholders.
//
// SQL Server caps bound parameters per statement at 2100; chunking keeps
// wide tables under the cap.
func (r *Repo) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if table == "" {
		return 0, fmt.Errorf("mssql: table is empty")
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("mssql: insert into %s: no columns", table)
	}

	maxRows := 2000 / max(1, len(columns))
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

		res, err := r.db.ExecContext(ctx, q, args...)
		if err != nil {
			return total, fmt.Errorf("mssql: insert into %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

// sqlType maps the document's logical types onto SQL Server column types.
func sqlType(logical string) string {
	switch logical {
	case "integer":
		return "BIGINT"
	case "number":
		return "FLOAT"
	case "datetime":
		return "DATETIME2"
	default:
		return "NVARCHAR(MAX)"
	}
}

// mssqlIdent quotes a single identifier in brackets, escaping closing
// brackets by doubling.
func mssqlIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// mssqlTableIdent quotes a possibly schema-qualified table name part by
// part: "dbo.obs" -> [dbo].[obs].
func mssqlTableIdent(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = mssqlIdent(p)
	}
	return strings.Join(parts, ".")
}

func buildCreateTableSQL(t storage.TableSpec) (string, error) {
	if strings.TrimSpace(t.Name) == "" {
		return "", fmt.Errorf("mssql: table name is empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("mssql: table %s has no columns", t.Name)
	}

	parts := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		col := fmt.Sprintf("%s %s", mssqlIdent(c.Name), sqlType(c.Type))
		if !c.Nullable {
			col += " NOT NULL"
		}
		parts = append(parts, col)
	}

	quoted := mssqlTableIdent(t.Name)
	return fmt.Sprintf(
		"IF OBJECT_ID(N'%s', N'U') IS NULL BEGIN CREATE TABLE %s (\n  %s\n); END;",
		t.Name, quoted, strings.Join(parts, ",\n  "),
	), nil
}

// buildInsertSQL constructs a single multi-row INSERT with @pN placeholders
// numbered across all rows, matching the driver's 1-based named args.
func buildInsertSQL(table string, columns []string, rows [][]any) (string, []any) {
	colList := make([]string, 0, len(columns))
	for _, c := range columns {
		colList = append(colList, mssqlIdent(c))
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(mssqlTableIdent(table))
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
			fmt.Fprintf(&b, "@p%d", p)
			p++
		}
		b.WriteString(")")
		args = append(args, row...)
	}
	return b.String(), args
}
