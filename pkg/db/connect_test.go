package db

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenDBConnection_MemorySharedAcrossPool(t *testing.T) {
	db, err := OpenDBConnection(MemoryPath, true, "NORMAL")
	if err != nil {
		t.Fatalf("OpenDBConnection failed: %v", err)
	}
	defer db.Close()

	if err := UpgradeDB(db, MemoryPath, TargetSchemaVersion); err != nil {
		t.Fatalf("UpgradeDB failed: %v", err)
	}

	ctx := context.Background()
	held, err := db.Conn(ctx)
	if err != nil {
		t.Fatalf("Failed to take a connection: %v", err)
	}
	defer held.Close()

	if _, err := held.ExecContext(ctx, `INSERT INTO journeys (id, title) VALUES ('j1', 'Gift')`); err != nil {
		t.Fatalf("Insert on the held connection failed: %v", err)
	}

	// The held connection is busy, so this runs on another one.
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM journeys`).Scan(&n); err != nil {
		t.Fatalf("Query on a second connection failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected the second connection to see 1 journey, got %d", n)
	}
}

func TestOpenDBConnection_MemoryDatabasesAreSeparate(t *testing.T) {
	first, err := OpenDBConnection(MemoryPath, false, "")
	if err != nil {
		t.Fatalf("OpenDBConnection failed: %v", err)
	}
	defer first.Close()
	if err := InitializeSchema(first, TargetSchemaVersion); err != nil {
		t.Fatalf("InitializeSchema failed: %v", err)
	}

	second, err := OpenDBConnection(MemoryPath, false, "")
	if err != nil {
		t.Fatalf("OpenDBConnection failed: %v", err)
	}
	defer second.Close()

	version, err := GetComponentSchemaVersion(second, JourneysDBComponent)
	if err != nil {
		t.Fatalf("GetComponentSchemaVersion failed: %v", err)
	}
	if version != 0 {
		t.Errorf("Expected a fresh database, got schema version %d", version)
	}
}

func TestOpenDBConnection_ForeignKeysOnEveryConnection(t *testing.T) {
	db, err := OpenDBConnection(MemoryPath, false, "NORMAL")
	if err != nil {
		t.Fatalf("OpenDBConnection failed: %v", err)
	}
	defer db.Close()
	if err := InitializeSchema(db, TargetSchemaVersion); err != nil {
		t.Fatalf("InitializeSchema failed: %v", err)
	}

	ctx := context.Background()
	held, err := db.Conn(ctx)
	if err != nil {
		t.Fatalf("Failed to take a connection: %v", err)
	}
	defer held.Close()

	_, err = db.ExecContext(ctx, `INSERT INTO checkout_sessions (id, journey_id, session_id) VALUES ('c1', 'missing', 'cs_1')`)
	if err == nil || !strings.Contains(err.Error(), "FOREIGN KEY") {
		t.Errorf("Expected a foreign key violation, got %v", err)
	}
}

func TestOpenDBConnection_FileWithWAL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.db")
	db, err := OpenDBConnection(path, true, "full")
	if err != nil {
		t.Fatalf("OpenDBConnection failed: %v", err)
	}
	defer db.Close()

	var mode string
	if err := db.QueryRow(`PRAGMA journal_mode`).Scan(&mode); err != nil {
		t.Fatalf("Failed to read journal mode: %v", err)
	}
	if strings.ToLower(mode) != "wal" {
		t.Errorf("Expected WAL journal mode, got %q", mode)
	}
}

func TestOpenDBConnection_InvalidSync(t *testing.T) {
	if _, err := OpenDBConnection(MemoryPath, false, "sometimes"); err == nil {
		t.Errorf("Expected an invalid sync pragma to be rejected")
	}
}

func TestRegistryDSN(t *testing.T) {
	dsn, err := registryDSN(MemoryPath, true, "normal")
	if err != nil {
		t.Fatalf("registryDSN failed: %v", err)
	}
	if !strings.HasPrefix(dsn, "file:giftjourney-") || !strings.Contains(dsn, "cache=shared") || !strings.Contains(dsn, "mode=memory") {
		t.Errorf("Unexpected memory DSN %q", dsn)
	}
	if strings.Contains(dsn, "_journal_mode") {
		t.Errorf("Memory DSN must not ask for WAL: %q", dsn)
	}

	dsn, err = registryDSN("/tmp/r.db?_busy_timeout=5000", true, "")
	if err != nil {
		t.Fatalf("registryDSN failed: %v", err)
	}
	if !strings.HasPrefix(dsn, "/tmp/r.db?_busy_timeout=5000&") || !strings.Contains(dsn, "_journal_mode=WAL") || !strings.Contains(dsn, "_foreign_keys=1") {
		t.Errorf("Unexpected file DSN %q", dsn)
	}
}
