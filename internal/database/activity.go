package database

import "database/sql"

// UpsertThreadActivity stores the latest enrichment result for a thread URL.
func (db *DB) UpsertThreadActivity(a ThreadActivity) error {
	_, err := db.conn.Exec(
		`INSERT INTO thread_activity (url, comments, latest_at, excerpt)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			comments = excluded.comments,
			latest_at = excluded.latest_at,
			excerpt = excluded.excerpt,
			fetched_at = datetime('now')`,
		a.URL, a.Comments, a.LatestAt, a.Excerpt,
	)
	return err
}

// GetThreadActivity returns the stored activity for a URL, or nil.
func (db *DB) GetThreadActivity(url string) (*ThreadActivity, error) {
	var a ThreadActivity
	err := db.conn.QueryRow(
		`SELECT url, comments, latest_at, excerpt, fetched_at FROM thread_activity WHERE url = ?`, url,
	).Scan(&a.URL, &a.Comments, &a.LatestAt, &a.Excerpt, &a.FetchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
