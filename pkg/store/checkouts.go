package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/unowned-ai/giftjourney/pkg/journeys"
)

var (
	ErrCheckoutNotFound = errors.New("checkout session not found")
)

const (
	recordCheckoutStatement = `
	INSERT INTO checkout_sessions (id, journey_id, session_id, status)
	VALUES (?, ?, ?, ?)
	`

	getCheckoutStatement = `
	SELECT id, journey_id, session_id, status, created_at, updated_at
	FROM checkout_sessions
	WHERE session_id = ?
	`

	updateCheckoutStatusStatement = `
	UPDATE checkout_sessions
	SET status = ?, updated_at = unixepoch()
	WHERE session_id = ?
	`

	listCheckoutsStatement = `
	SELECT id, journey_id, session_id, status, created_at, updated_at
	FROM checkout_sessions
	WHERE journey_id = ?
	ORDER BY created_at DESC, rowid DESC
	`

	latestCheckoutStatement = `
	SELECT id, journey_id, session_id, status, created_at, updated_at
	FROM checkout_sessions
	WHERE journey_id = ?
	ORDER BY created_at DESC, rowid DESC
	LIMIT 1
	`
)

// RecordCheckout remembers a checkout session started for a saved journey.
func RecordCheckout(ctx context.Context, db *sql.DB, journeyID, sessionID string) (Checkout, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return Checkout{}, journeys.ErrNoSessionID
	}

	if _, err := GetJourney(ctx, db, journeyID); err != nil {
		return Checkout{}, err
	}

	_, err := db.ExecContext(ctx, recordCheckoutStatement, uuid.New(), journeyID, sessionID, StatusOpen)
	if err != nil {
		return Checkout{}, err
	}

	return GetCheckout(ctx, db, sessionID)
}

// GetCheckout retrieves a checkout by its session id.
func GetCheckout(ctx context.Context, db *sql.DB, sessionID string) (Checkout, error) {
	return scanCheckout(db.QueryRowContext(ctx, getCheckoutStatement, sessionID))
}

// UpdateCheckoutStatus stores the last status reported for a session.
func UpdateCheckoutStatus(ctx context.Context, db *sql.DB, sessionID, status string) (Checkout, error) {
	res, err := db.ExecContext(ctx, updateCheckoutStatusStatement, status, sessionID)
	if err != nil {
		return Checkout{}, err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return Checkout{}, err
	}

	if rowsAffected == 0 {
		return Checkout{}, ErrCheckoutNotFound
	}

	return GetCheckout(ctx, db, sessionID)
}

// ListCheckouts returns the sessions of a journey, newest first.
func ListCheckouts(ctx context.Context, db *sql.DB, journeyID string) ([]Checkout, error) {
	if _, err := GetJourney(ctx, db, journeyID); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, listCheckoutsStatement, journeyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Checkout
	for rows.Next() {
		var c Checkout
		err := rows.Scan(
			&c.ID,
			&c.JourneyID,
			&c.SessionID,
			&c.Status,
			&c.CreatedAt,
			&c.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

// LatestCheckout returns the most recent session of a journey.
func LatestCheckout(ctx context.Context, db *sql.DB, journeyID string) (Checkout, error) {
	return scanCheckout(db.QueryRowContext(ctx, latestCheckoutStatement, journeyID))
}

func scanCheckout(row *sql.Row) (Checkout, error) {
	var c Checkout
	err := row.Scan(
		&c.ID,
		&c.JourneyID,
		&c.SessionID,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Checkout{}, ErrCheckoutNotFound
		}
		return Checkout{}, err
	}
	return c, nil
}
