package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// MemoryPath opens a private in-memory registry instead of a file.
const MemoryPath = ":memory:"

var syncModes = []string{"OFF", "NORMAL", "FULL", "EXTRA"}

// OpenDBConnection opens the registry database at path.
//
// Foreign keys are enforced on every pooled connection so that a forgotten
// journey takes its checkout sessions with it. enableWAL switches the journal
// to WAL for file databases; syncPragma is one of OFF, NORMAL, FULL or EXTRA.
//
// MemoryPath gets a uniquely named shared-cache database, so all connections
// of the returned pool see the same tables. It lives until the pool is closed.
func OpenDBConnection(path string, enableWAL bool, syncPragma string) (*sql.DB, error) {
	dsn, err := registryDSN(path, enableWAL, syncPragma)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open registry %s: %w", path, err)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to registry %s: %w", path, err)
	}

	return db, nil
}

// registryDSN builds the go-sqlite3 DSN for path with the registry's pragmas.
func registryDSN(path string, enableWAL bool, syncPragma string) (string, error) {
	params := url.Values{}
	params.Set("_foreign_keys", "1")

	if syncPragma != "" {
		mode := strings.ToUpper(syncPragma)
		valid := false
		for _, m := range syncModes {
			valid = valid || m == mode
		}
		if !valid {
			return "", fmt.Errorf("invalid sync pragma value: %s. Must be one of %s", syncPragma, strings.Join(syncModes, ", "))
		}
		params.Set("_synchronous", mode)
	}

	base := path
	if path == MemoryPath {
		// WAL does not apply to memory databases.
		base = "file:giftjourney-" + uuid.NewString()
		params.Set("mode", "memory")
		params.Set("cache", "shared")
	} else if enableWAL {
		params.Set("_journal_mode", "WAL")
	}

	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + params.Encode(), nil
}
