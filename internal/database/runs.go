package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// InsertRun stores a successful API call and returns its generated ID.
func (db *DB) InsertRun(kind, endpoint, keyword string, request any, response []byte) (string, error) {
	reqJSON, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	id := uuid.NewString()
	_, err = db.conn.Exec(
		`INSERT INTO runs (id, kind, endpoint, keyword, request_json, response_json)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, kind, endpoint, keyword, string(reqJSON), string(response),
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}
	return id, nil
}

// GetRun returns a run by ID, or nil if it does not exist.
func (db *DB) GetRun(id string) (*Run, error) {
	row := db.conn.QueryRow(
		`SELECT id, kind, endpoint, keyword, request_json, response_json, created_at
		FROM runs WHERE id = ?`, id,
	)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListRuns returns the most recent runs first. A non-positive limit returns all.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	query := `SELECT id, kind, endpoint, keyword, request_json, response_json, created_at
		FROM runs ORDER BY created_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Kind, &r.Endpoint, &r.Keyword,
			&r.RequestJSON, &r.ResponseJSON, &r.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run together with its brand stats and opportunities.
func (db *DB) DeleteRun(id string) error {
	_, err := db.conn.Exec("DELETE FROM runs WHERE id = ?", id)
	return err
}

func scanRun(row *sql.Row) (*Run, error) {
	var r Run
	if err := row.Scan(&r.ID, &r.Kind, &r.Endpoint, &r.Keyword,
		&r.RequestJSON, &r.ResponseJSON, &r.CreatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}
