package database

// InsertSourceArticle caches a gathered article for a run date. Returns the
// ID on success, 0 if the URL was already cached for that date.
func (db *DB) InsertSourceArticle(runDate, url, title string, source, publishedDate, content *string) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO source_articles (run_date, url, title, source, published_date, content)
		VALUES (?, ?, ?, ?, ?, ?)`,
		runDate, url, title, source, publishedDate, content,
	)
	if err != nil {
		// Duplicate url for this run date
		return 0, nil //nolint: nilerr
	}
	return result.LastInsertId()
}

// GetSourceArticles returns the cached source material for a run date.
func (db *DB) GetSourceArticles(runDate string) ([]SourceArticle, error) {
	rows, err := db.conn.Query(
		`SELECT id, run_date, url, title, source, published_date, content, collected_at
		FROM source_articles WHERE run_date = ? ORDER BY published_date DESC, id`,
		runDate,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []SourceArticle
	for rows.Next() {
		var a SourceArticle
		if err := rows.Scan(&a.ID, &a.RunDate, &a.URL, &a.Title, &a.Source,
			&a.PublishedDate, &a.Content, &a.CollectedAt); err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}
