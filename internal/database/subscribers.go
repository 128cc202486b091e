package database

import (
	"context"
	"database/sql"
	"strings"
)

// InsertSubscriber adds a new recipient. Returns the ID on success, 0 if
// the email is already subscribed.
func (db *DB) InsertSubscriber(email string) (int64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	result, err := db.conn.Exec(
		"INSERT INTO subscribers (email) VALUES (?)", email,
	)
	if err != nil {
		// Duplicate email constraint
		return 0, nil //nolint: nilerr
	}
	return result.LastInsertId()
}

// GetAllSubscribers returns all subscribers ordered by signup time.
func (db *DB) GetAllSubscribers() ([]Subscriber, error) {
	rows, err := db.conn.Query(
		"SELECT id, email, is_active, created_at FROM subscribers ORDER BY id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []Subscriber
	for rows.Next() {
		var s Subscriber
		if err := rows.Scan(&s.ID, &s.Email, &s.IsActive, &s.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// GetSubscriber returns a single subscriber by ID.
func (db *DB) GetSubscriber(id int64) (*Subscriber, error) {
	row := db.conn.QueryRow(
		"SELECT id, email, is_active, created_at FROM subscribers WHERE id = ?", id,
	)

	var s Subscriber
	if err := row.Scan(&s.ID, &s.Email, &s.IsActive, &s.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// DeleteSubscriber removes a subscriber.
func (db *DB) DeleteSubscriber(id int64) error {
	_, err := db.conn.Exec("DELETE FROM subscribers WHERE id = ?", id)
	return err
}

// ToggleSubscriber flips a subscriber's active flag.
func (db *DB) ToggleSubscriber(id int64) error {
	_, err := db.conn.Exec(
		"UPDATE subscribers SET is_active = NOT is_active WHERE id = ?", id,
	)
	return err
}

// SubscriberSource adapts the subscribers table to flow.SubscriberSource.
// The list is read fresh on every call so late signups make the send.
type SubscriberSource struct {
	db *DB
}

// Subscribers returns the recipient lookup backed by this database.
func (db *DB) Subscribers() *SubscriberSource {
	return &SubscriberSource{db: db}
}

// List returns the email addresses of all active subscribers.
func (s *SubscriberSource) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		"SELECT email FROM subscribers WHERE is_active = 1 ORDER BY id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}
