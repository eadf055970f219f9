package mssql

import (
	"strings"
	"testing"

	"icsv/internal/storage"
)

func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	spec := storage.TableSpec{
		Name: "dbo.obs",
		Columns: []storage.ColumnSpec{
			{Name: "station_id", Type: "integer", Nullable: false},
			{Name: "air_temp", Type: "number", Nullable: true},
			{Name: "day", Type: "datetime", Nullable: true},
			{Name: "note", Type: "string", Nullable: true},
		},
	}

	ddl, err := buildCreateTableSQL(spec)
	if err != nil {
		t.Fatalf("buildCreateTableSQL: %v", err)
	}

	if !strings.HasPrefix(ddl, "IF OBJECT_ID(N'dbo.obs', N'U') IS NULL BEGIN CREATE TABLE [dbo].[obs] (") {
		t.Errorf("missing OBJECT_ID guard:\n%s", ddl)
	}
	if !strings.HasSuffix(ddl, "END;") {
		t.Errorf("guard not closed:\n%s", ddl)
	}
	wantContains := []string{
		"[station_id] BIGINT NOT NULL",
		"[air_temp] FLOAT",
		"[day] DATETIME2",
		"[note] NVARCHAR(MAX)",
	}
	for _, want := range wantContains {
		if !strings.Contains(ddl, want) {
			t.Errorf("DDL missing %q:\n%s", want, ddl)
		}
	}
}

func TestBuildCreateTableSQLErrors(t *testing.T) {
	t.Parallel()

	if _, err := buildCreateTableSQL(storage.TableSpec{Name: " "}); err == nil {
		t.Error("expected error for empty table name")
	}
	if _, err := buildCreateTableSQL(storage.TableSpec{Name: "obs"}); err == nil {
		t.Error("expected error for table without columns")
	}
}

func TestBuildInsertSQL(t *testing.T) {
	t.Parallel()

	columns := []string{"station_id", "air_temp", "note"}
	rows := [][]any{
		{int64(7), 3.5, "ok"},
		{int64(8), nil, "wet"},
	}

	q, args := buildInsertSQL("dbo.obs", columns, rows)

	if !strings.HasPrefix(q, "INSERT INTO [dbo].[obs] ([station_id], [air_temp], [note]) VALUES ") {
		t.Errorf("unexpected prefix:\n%s", q)
	}
	if !strings.Contains(q, "(@p1, @p2, @p3), (@p4, @p5, @p6)") {
		t.Errorf("placeholder numbering wrong:\n%s", q)
	}
	if len(args) != 6 {
		t.Fatalf("len(args) = %d, want 6", len(args))
	}
	if args[0] != int64(7) || args[3] != int64(8) {
		t.Errorf("args out of row order: %v", args)
	}
}

func TestMssqlIdent(t *testing.T) {
	t.Parallel()

	if got := mssqlIdent("plain"); got != "[plain]" {
		t.Errorf("mssqlIdent(plain) = %s", got)
	}
	if got := mssqlIdent("we]ird"); got != "[we]]ird]" {
		t.Errorf("mssqlIdent(we]ird) = %s", got)
	}
	if got := mssqlTableIdent("dbo.obs"); got != "[dbo].[obs]" {
		t.Errorf("mssqlTableIdent(dbo.obs) = %s", got)
	}
	if got := mssqlTableIdent("obs"); got != "[obs]" {
		t.Errorf("mssqlTableIdent(obs) = %s", got)
	}
}

func TestSQLType(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"integer":  "BIGINT",
		"number":   "FLOAT",
		"datetime": "DATETIME2",
		"string":   "NVARCHAR(MAX)",
	}
	for logical, want := range cases {
		if got := sqlType(logical); got != want {
			t.Errorf("sqlType(%q) = %q, want %q", logical, got, want)
		}
	}
}
