package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/chargeplan/core/history"
)

// SQLiteStore keeps plan history in an in-memory SQLite database so queries
// filter through the ts index. The database lives as long as the store.
type SQLiteStore struct {
	db       *sql.DB
	capacity int
}

// NewSQLiteStore creates an empty in-memory database holding at most
// capacity records; older ones are pruned on append.
func NewSQLiteStore(capacity int) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	schema := `CREATE TABLE plan_history (
        seq INTEGER PRIMARY KEY AUTOINCREMENT,
        id TEXT,
        ts INTEGER,
        kind TEXT,
        vehicle_id TEXT,
        status TEXT,
        record TEXT
    );`
	index := `CREATE INDEX plan_history_ts ON plan_history(ts);`
	for _, stmt := range []string{schema, index} {
		if _, err := db.Exec(stmt); err != nil {
			if cerr := db.Close(); cerr != nil {
				return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
			}
			return nil, err
		}
	}
	return &SQLiteStore{db: db, capacity: capacity}, nil
}

// Append writes the record to the database.
func (s *SQLiteStore) Append(ctx context.Context, rec history.Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO plan_history (id, ts, kind, vehicle_id, status, record) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Time.UnixNano(), string(rec.Kind), rec.VehicleID, string(rec.Status), string(b))
	if err != nil || s.capacity <= 0 {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`DELETE FROM plan_history WHERE seq <= (SELECT MAX(seq) FROM plan_history) - ?`, s.capacity)
	return err
}

// Query returns records matching q in chronological order.
func (s *SQLiteStore) Query(ctx context.Context, q history.Query) ([]history.Record, error) {
	var args []any
	query := `SELECT record FROM plan_history WHERE 1=1`
	if !q.Start.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, q.Start.UnixNano())
	}
	if !q.End.IsZero() {
		query += ` AND ts <= ?`
		args = append(args, q.End.UnixNano())
	}
	if q.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(q.Kind))
	}
	if q.VehicleID != "" {
		query += ` AND vehicle_id = ?`
		args = append(args, q.VehicleID)
	}
	if q.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(q.Status))
	}
	query += ` ORDER BY ts DESC, seq DESC`
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []history.Record
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var r history.Record
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(res)-1; i < j; i, j = i+1, j-1 {
		res[i], res[j] = res[j], res[i]
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
