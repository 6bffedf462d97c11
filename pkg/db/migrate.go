package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const (
	// TargetSchemaVersion is the highest schema version this build supports for the journeysdb component.
	TargetSchemaVersion int64 = 1
	// JourneysDBComponent names the local journeys registry in the versions table.
	JourneysDBComponent = "journeysdb"
)

// GetComponentSchemaVersion retrieves the schema version for a given component.
// Returns 0 if the component is not found, the versions table is uninitialized, or the table doesn't exist.
func GetComponentSchemaVersion(db *sql.DB, componentName string) (int64, error) {
	query := `SELECT version FROM giftjourney_versions WHERE component = ?;`
	row := db.QueryRow(query, componentName)

	var version int64
	err := row.Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		if strings.Contains(err.Error(), "no such table") && strings.Contains(err.Error(), "giftjourney_versions") {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to scan version for component '%s': %w", componentName, err)
	}
	return version, nil
}

// InitializeSchema creates the registry tables and records schemaVersionToSet
// for the journeysdb component.
func InitializeSchema(db *sql.DB, schemaVersionToSet int64) error {
	_, err := db.Exec(SchemaV1)
	if err != nil {
		return fmt.Errorf("failed to execute schema v1 SQL: %w", err)
	}

	insertVersionSQL := `
INSERT INTO giftjourney_versions (component, version) VALUES (?, ?)
ON CONFLICT(component) DO UPDATE SET version = excluded.version, created_at = unixepoch();`

	_, err = db.Exec(insertVersionSQL, JourneysDBComponent, schemaVersionToSet)
	if err != nil {
		return fmt.Errorf("failed to insert/update version for component %s to %d: %w", JourneysDBComponent, schemaVersionToSet, err)
	}

	fmt.Fprintf(os.Stderr, "Component %s initialized/updated to schema version %d\n", JourneysDBComponent, schemaVersionToSet)
	return nil
}

// UpgradeDB brings the journeysdb component of db to appTargetSchemaVersion.
// A fresh database is initialized; a version mismatch is reported, not migrated.
// dbIdentifierForLog only appears in messages.
func UpgradeDB(db *sql.DB, dbIdentifierForLog string, appTargetSchemaVersion int64) error {
	currentDBVersion, err := GetComponentSchemaVersion(db, JourneysDBComponent)
	if err != nil {
		return err
	}

	if currentDBVersion == 0 {
		fmt.Fprintf(os.Stderr, "Component %s in database '%s' appears to be uninitialized or at version 0. Initializing/Upgrading to schema version %d...\n", JourneysDBComponent, dbIdentifierForLog, appTargetSchemaVersion)
		err = InitializeSchema(db, appTargetSchemaVersion)
		if err != nil {
			return fmt.Errorf("failed to initialize component %s in database '%s': %w", JourneysDBComponent, dbIdentifierForLog, err)
		}
		return nil
	} else if currentDBVersion == appTargetSchemaVersion {
		fmt.Fprintf(os.Stderr, "Component %s in database '%s' is already up to date (schema version %d).\n", JourneysDBComponent, dbIdentifierForLog, currentDBVersion)
		return nil
	} else if currentDBVersion < appTargetSchemaVersion {
		return fmt.Errorf("component %s in database '%s' has schema version %d, which is older than application's target schema version %d. Automatic migration from this older version is not yet supported", JourneysDBComponent, dbIdentifierForLog, currentDBVersion, appTargetSchemaVersion)
	} else { // currentDBVersion > appTargetSchemaVersion
		return fmt.Errorf("component %s in database '%s' has schema version %d, which is newer than application's target schema version %d. Please upgrade the application", JourneysDBComponent, dbIdentifierForLog, currentDBVersion, appTargetSchemaVersion)
	}
}
