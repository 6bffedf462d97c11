// Package store keeps the local registry of journeys and checkout sessions
// so the CLI can list, resume and re-check them.
package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/unowned-ai/giftjourney/pkg/journeys"
)

var (
	ErrJourneyNotFound = errors.New("journey not saved locally")
)

const (
	saveJourneyStatement = `
	INSERT INTO journeys (id, title, paid, shareable_token, stop_count, api_base)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		title = excluded.title,
		paid = (journeys.paid OR excluded.paid),
		shareable_token = CASE WHEN excluded.shareable_token != '' THEN excluded.shareable_token ELSE journeys.shareable_token END,
		stop_count = excluded.stop_count,
		api_base = CASE WHEN excluded.api_base != '' THEN excluded.api_base ELSE journeys.api_base END,
		updated_at = unixepoch()
	`

	getJourneyStatement = `
	SELECT id, title, paid, COALESCE(shareable_token, ''), stop_count, COALESCE(api_base, ''), created_at, updated_at
	FROM journeys
	WHERE id = ?
	`

	listJourneysStatement = `
	SELECT id, title, paid, COALESCE(shareable_token, ''), stop_count, COALESCE(api_base, ''), created_at, updated_at
	FROM journeys
	ORDER BY updated_at DESC, rowid DESC
	`

	markPaidStatement = `
	UPDATE journeys
	SET paid = 1,
		shareable_token = CASE WHEN ? != '' THEN ? ELSE shareable_token END,
		updated_at = unixepoch()
	WHERE id = ?
	`

	deleteJourneyStatement = `
	DELETE FROM journeys
	WHERE id = ?
	`
)

// SaveJourney records j, or refreshes the existing record. Payment is never
// unrecorded: once a journey is saved as paid it stays paid, and an empty
// token does not erase a known one.
func SaveJourney(ctx context.Context, db *sql.DB, j journeys.Journey, apiBase string) (SavedJourney, error) {
	id := strings.TrimSpace(j.ID)
	if id == "" {
		return SavedJourney{}, journeys.ErrEmptyID
	}

	_, err := db.ExecContext(
		ctx,
		saveJourneyStatement,
		id,
		j.Title,
		j.Paid,
		j.ShareableToken,
		len(j.Stops),
		apiBase,
	)
	if err != nil {
		return SavedJourney{}, err
	}

	return GetJourney(ctx, db, id)
}

// GetJourney retrieves a saved journey by its server id.
func GetJourney(ctx context.Context, db *sql.DB, id string) (SavedJourney, error) {
	var sj SavedJourney

	err := db.QueryRowContext(ctx, getJourneyStatement, id).Scan(
		&sj.ID,
		&sj.Title,
		&sj.Paid,
		&sj.ShareableToken,
		&sj.StopCount,
		&sj.APIBase,
		&sj.CreatedAt,
		&sj.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SavedJourney{}, ErrJourneyNotFound
		}
		return SavedJourney{}, err
	}

	return sj, nil
}

// ListJourneys returns saved journeys, most recently touched first.
func ListJourneys(ctx context.Context, db *sql.DB) ([]SavedJourney, error) {
	rows, err := db.QueryContext(ctx, listJourneysStatement)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []SavedJourney
	for rows.Next() {
		var sj SavedJourney
		err := rows.Scan(
			&sj.ID,
			&sj.Title,
			&sj.Paid,
			&sj.ShareableToken,
			&sj.StopCount,
			&sj.APIBase,
			&sj.CreatedAt,
			&sj.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		list = append(list, sj)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

// MarkJourneyPaid records that a saved journey was paid, keeping its other
// fields. It returns ErrJourneyNotFound for journeys this machine never saved.
func MarkJourneyPaid(ctx context.Context, db *sql.DB, id, token string) (SavedJourney, error) {
	res, err := db.ExecContext(ctx, markPaidStatement, token, token, id)
	if err != nil {
		return SavedJourney{}, err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return SavedJourney{}, err
	}

	if rowsAffected == 0 {
		return SavedJourney{}, ErrJourneyNotFound
	}

	return GetJourney(ctx, db, id)
}

// ForgetJourney removes a journey and its checkout sessions from the registry.
// The journey on the server is untouched.
func ForgetJourney(ctx context.Context, db *sql.DB, id string) error {
	res, err := db.ExecContext(ctx, deleteJourneyStatement, id)
	if err != nil {
		return err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrJourneyNotFound
	}

	return nil
}
