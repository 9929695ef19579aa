package database

// GetStats returns aggregate statistics over the stored history.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{RunsByKind: make(map[string]int)}

	rows, err := db.conn.Query("SELECT kind, COUNT(*) FROM runs GROUP BY kind")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		s.RunsByKind[kind] = n
		s.TotalRuns += n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(DISTINCT keyword) FROM runs", &s.Keywords},
		{"SELECT COUNT(DISTINCT brand) FROM brand_stats", &s.BrandsTracked},
		{"SELECT COUNT(*) FROM opportunities", &s.Opportunities},
		{"SELECT COUNT(*) FROM thread_activity", &s.ThreadsEnriched},
	}
	for _, c := range counts {
		if err := db.conn.QueryRow(c.query).Scan(c.dest); err != nil {
			return nil, err
		}
	}

	if err := db.conn.QueryRow("SELECT MAX(created_at) FROM runs").Scan(&s.LastRunAt); err != nil {
		return nil, err
	}
	return s, nil
}
