package db

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var database *sql.DB

// InitDB initializes the SQLite database used for the prediction audit log
func InitDB(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	var err error
	database, err = sql.Open("sqlite3", path)
	if err != nil {
		return err
	}

	query := `
    CREATE TABLE IF NOT EXISTS predictions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        request_id TEXT NOT NULL,
        house TEXT NOT NULL,
        cache_hit INTEGER DEFAULT 0,
        duration_ms REAL DEFAULT 0,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions(created_at);
    `

	_, err = database.Exec(query)
	return err
}

// Close closes the database handle.
func Close() error {
	if database == nil {
		return nil
	}
	return database.Close()
}

// PredictionRow is one audit entry for a served prediction.
type PredictionRow struct {
	RequestID  string    `json:"request_id"`
	House      string    `json:"house_affiliation"`
	CacheHit   bool      `json:"cache_hit"`
	DurationMs float64   `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// SavePrediction appends one audit entry.
func SavePrediction(row PredictionRow) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}
	_, err := database.Exec(`
        INSERT INTO predictions (request_id, house, cache_hit, duration_ms, created_at)
        VALUES (?, ?, ?, ?, ?)`,
		row.RequestID, row.House, row.CacheHit, row.DurationMs, row.CreatedAt)
	return err
}

// QueryRecentPredictions returns the most recent audit entries, newest first.
func QueryRecentPredictions(limit int) ([]PredictionRow, error) {
	if database == nil {
		return nil, errors.New("database not initialized")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := database.Query(`
        SELECT request_id, house, cache_hit, duration_ms, created_at
        FROM predictions
        ORDER BY created_at DESC, id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PredictionRow
	for rows.Next() {
		var row PredictionRow
		if err := rows.Scan(&row.RequestID, &row.House, &row.CacheHit, &row.DurationMs, &row.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
