package database

import (
	"encoding/json"
	"fmt"
)

// InsertBrandStats stores the aggregated sentiment of a run, keeping order.
func (db *DB) InsertBrandStats(runID string, stats []BrandStat) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, s := range stats {
		praise, err := marshalStrings(s.Praise)
		if err != nil {
			return err
		}
		complaints, err := marshalStrings(s.Complaints)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO brand_stats
			(run_id, position, brand, positive, negative, neutral, threads, praise, complaints)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, i, s.Brand, s.Positive, s.Negative, s.Neutral, s.Threads, praise, complaints,
		); err != nil {
			return fmt.Errorf("inserting brand stat %q: %w", s.Brand, err)
		}
	}
	return tx.Commit()
}

// GetBrandStats returns the brand stats of a run in stored order.
func (db *DB) GetBrandStats(runID string) ([]BrandStat, error) {
	rows, err := db.conn.Query(
		`SELECT run_id, brand, positive, negative, neutral, threads, praise, complaints
		FROM brand_stats WHERE run_id = ? ORDER BY position`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []BrandStat
	for rows.Next() {
		var s BrandStat
		var praise, complaints *string
		if err := rows.Scan(&s.RunID, &s.Brand, &s.Positive, &s.Negative, &s.Neutral,
			&s.Threads, &praise, &complaints); err != nil {
			return nil, err
		}
		s.Praise = unmarshalStrings(praise)
		s.Complaints = unmarshalStrings(complaints)
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// InsertOpportunities stores the opportunity threads of a run.
func (db *DB) InsertOpportunities(runID string, opps []Opportunity) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, o := range opps {
		brands, err := marshalStrings(o.Brands)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO opportunities
			(run_id, position, title, url, estimated_traffic, brands)
			VALUES (?, ?, ?, ?, ?, ?)`,
			runID, i, o.Title, o.URL, o.EstimatedTraffic, brands,
		); err != nil {
			return fmt.Errorf("inserting opportunity %q: %w", o.URL, err)
		}
	}
	return tx.Commit()
}

// GetOpportunities returns the opportunities of a run in stored order.
func (db *DB) GetOpportunities(runID string) ([]Opportunity, error) {
	rows, err := db.conn.Query(
		`SELECT run_id, title, url, estimated_traffic, brands
		FROM opportunities WHERE run_id = ? ORDER BY position`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var opps []Opportunity
	for rows.Next() {
		var o Opportunity
		var brands *string
		if err := rows.Scan(&o.RunID, &o.Title, &o.URL, &o.EstimatedTraffic, &brands); err != nil {
			return nil, err
		}
		o.Brands = unmarshalStrings(brands)
		opps = append(opps, o)
	}
	return opps, rows.Err()
}

func marshalStrings(items []string) (*string, error) {
	if items == nil {
		return nil, nil
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	s := string(data)
	return &s, nil
}

func unmarshalStrings(s *string) []string {
	if s == nil {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(*s), &out); err != nil {
		return nil
	}
	return out
}
