package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"io/fs"
	"strings"
	"sync"
	"testing"
	"time"

	"review-backend/internal/shared/telemetry"
)

type nopDriver struct{}

func (d nopDriver) Open(name string) (driver.Conn, error) {
	return nopConn{}, nil
}

type nopConn struct{}

func (nopConn) Prepare(query string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (nopConn) Close() error                              { return nil }
func (nopConn) Begin() (driver.Tx, error)                 { return nil, errors.New("not supported") }
func (nopConn) Ping(ctx context.Context) error            { return nil }

var registerTestDriverOnce sync.Once

func withTestDriver(t *testing.T) {
	t.Helper()
	registerTestDriverOnce.Do(func() {
		sql.Register("dbtest", nopDriver{})
	})
	prev := openDB
	openDB = func(name, dsn string) (*sql.DB, error) {
		return sql.Open("dbtest", dsn)
	}
	t.Cleanup(func() { openDB = prev })
	t.Cleanup(telemetry.SetOutput(io.Discard))
}

func TestConnectRejectsEmptyURL(t *testing.T) {
	if _, err := Connect(context.Background(), "  ", DefaultServerOptions()); err == nil {
		t.Fatalf("expected error for empty DATABASE_URL")
	}
}

type downDriver struct {
	mu    sync.Mutex
	opens int
}

func (d *downDriver) Open(name string) (driver.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opens++
	return nil, errors.New("connection refused")
}

func TestOptionsWithKeepsDefaultsForZeroFields(t *testing.T) {
	opts := DefaultServerOptions().With(Options{MaxOpenConns: 7, ConnMaxIdleTime: 45 * time.Second})
	if opts.MaxOpenConns != 7 || opts.ConnMaxIdleTime != 45*time.Second {
		t.Fatalf("overrides not applied: %+v", opts)
	}
	if opts.MaxIdleConns != 5 || opts.PingTimeout != 5*time.Second || opts.ConnectRetries != 3 {
		t.Fatalf("defaults lost: %+v", opts)
	}
}

func TestConnectAppliesPoolOptions(t *testing.T) {
	withTestDriver(t)

	db, err := Connect(context.Background(), "ignored", DefaultMigrateOptions().With(Options{MaxOpenConns: 4}))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer db.Close()

	if stats := db.Stats(); stats.MaxOpenConnections != 4 {
		t.Fatalf("expected MaxOpenConnections=4, got %d", stats.MaxOpenConnections)
	}
}

var registerDownDriverOnce sync.Once
var down = &downDriver{}

func TestConnectRetriesBeforeGivingUp(t *testing.T) {
	withTestDriver(t)
	registerDownDriverOnce.Do(func() {
		sql.Register("dbtest-down", down)
	})
	openDB = func(name, dsn string) (*sql.DB, error) {
		return sql.Open("dbtest-down", dsn)
	}
	down.mu.Lock()
	down.opens = 0
	down.mu.Unlock()

	_, err := Connect(context.Background(), "ignored", Options{
		PingTimeout:    100 * time.Millisecond,
		ConnectRetries: 2,
		RetryBase:      time.Millisecond,
	})
	if err == nil {
		t.Fatalf("expected connect error")
	}
	if !strings.Contains(err.Error(), "after 3 attempts") {
		t.Fatalf("unexpected error %v", err)
	}
	down.mu.Lock()
	defer down.mu.Unlock()
	if down.opens < 3 {
		t.Fatalf("expected at least 3 dial attempts, got %d", down.opens)
	}
}

func TestEmbeddedMigrationsCoverTables(t *testing.T) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	if len(entries) != len(Tables) {
		t.Fatalf("expected %d migrations, got %d", len(Tables), len(entries))
	}
	for i, table := range Tables {
		body, err := fs.ReadFile(migrationFiles, "migrations/"+entries[i].Name())
		if err != nil {
			t.Fatalf("read %s: %v", entries[i].Name(), err)
		}
		if !strings.Contains(string(body), "CREATE TABLE IF NOT EXISTS "+table+" (") {
			t.Fatalf("migration %s does not create %s", entries[i].Name(), table)
		}
		if !strings.Contains(string(body), "-- +goose Down") {
			t.Fatalf("migration %s has no down section", entries[i].Name())
		}
	}
}

func TestRunMigrationsNilDatabase(t *testing.T) {
	if err := RunMigrations(context.Background(), nil); err != nil {
		t.Fatalf("expected nil database to be a no-op, got %v", err)
	}
}
