package database

import "database/sql"

// InsertNewsletter archives a published newsletter.
func (db *DB) InsertNewsletter(runID, date, bodyMarkdown string, recipientCount int) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT OR REPLACE INTO newsletters (run_id, date, body_markdown, recipient_count)
		VALUES (?, ?, ?, ?)`,
		runID, date, bodyMarkdown, recipientCount,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetNewsletter returns the archived newsletter for a run.
func (db *DB) GetNewsletter(runID string) (*Newsletter, error) {
	row := db.conn.QueryRow(
		`SELECT id, run_id, date, body_markdown, recipient_count, published_at
		FROM newsletters WHERE run_id = ?`, runID,
	)
	return scanNewsletter(row)
}

// GetAllNewsletters returns all archived newsletters, newest first.
func (db *DB) GetAllNewsletters() ([]Newsletter, error) {
	rows, err := db.conn.Query(
		`SELECT id, run_id, date, body_markdown, recipient_count, published_at
		FROM newsletters ORDER BY date DESC, id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var letters []Newsletter
	for rows.Next() {
		var n Newsletter
		if err := rows.Scan(&n.ID, &n.RunID, &n.Date, &n.BodyMarkdown,
			&n.RecipientCount, &n.PublishedAt); err != nil {
			return nil, err
		}
		letters = append(letters, n)
	}
	return letters, rows.Err()
}

func scanNewsletter(row *sql.Row) (*Newsletter, error) {
	var n Newsletter
	if err := row.Scan(&n.ID, &n.RunID, &n.Date, &n.BodyMarkdown,
		&n.RecipientCount, &n.PublishedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}
