package database

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"bookshelf/pkg/logging"
)

func TestSplitStatementsDropsComments(t *testing.T) {
	stmts := SplitStatements("-- header\nCREATE TABLE a (id TEXT);\n\n-- note\nCREATE INDEX i ON a (id);\n")
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %v", len(stmts), stmts)
	}
	if !strings.HasPrefix(stmts[0], "CREATE TABLE a") || !strings.HasPrefix(stmts[1], "CREATE INDEX i") {
		t.Fatalf("unexpected statements: %v", stmts)
	}
}

func TestSchemaPerDriver(t *testing.T) {
	pg, err := Schema(DriverPostgres)
	if err != nil {
		t.Fatalf("postgres schema: %v", err)
	}
	if !strings.Contains(pg, "BIGSERIAL") {
		t.Fatalf("expected postgres sequence column")
	}
	lite, err := Schema(DriverSQLite)
	if err != nil {
		t.Fatalf("sqlite schema: %v", err)
	}
	if strings.Contains(lite, "BIGSERIAL") {
		t.Fatalf("sqlite schema should not use BIGSERIAL")
	}
	if _, err := Schema("oracle"); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestMigrateExecutesEveryStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	ddl, _ := Schema(DriverPostgres)
	for range SplitStatements(ddl) {
		mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	if err := Migrate(context.Background(), db, DriverPostgres); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestConnectSQLiteAndMigrate(t *testing.T) {
	logger := logging.NewLogger()
	cfg := SQLiteConfig(filepath.Join(t.TempDir(), "test.db"))

	db, err := Connect(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer db.Close()

	if err := Migrate(context.Background(), db, DriverSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// Second run must be a no-op.
	if err := Migrate(context.Background(), db, DriverSQLite); err != nil {
		t.Fatalf("re-migrate: %v", err)
	}
}

func TestConnectRequiresURL(t *testing.T) {
	if _, err := Connect(context.Background(), Config{}, logging.NewLogger()); err == nil {
		t.Fatalf("expected error for empty URL")
	}
}
