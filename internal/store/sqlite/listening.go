package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/lectioapp/lectio-server/internal/domain"
	lectioerrors "github.com/lectioapp/lectio-server/internal/errors"
)

// ErrRecordExists is returned when inserting a record whose ID is taken.
var ErrRecordExists = errors.New("listening record already exists")

// ErrRecordNotFound carries the NOT_FOUND domain code so API handlers map
// it to a 404 directly.
var ErrRecordNotFound = lectioerrors.NotFound("listening record not found")

// listeningRecordColumns is the ordered list of columns selected in
// listening record queries. Must match the scan order in
// scanListeningRecord.
const listeningRecordColumns = `id, client_id, reading_id, reading_type,
	started_at, finished_at, completed, listen_time_ms, last_word_index`

// scanListeningRecord scans a sql.Row (or sql.Rows via its Scan method)
// into a domain.ListeningRecord.
func scanListeningRecord(scanner interface{ Scan(dest ...any) error }) (*domain.ListeningRecord, error) {
	var r domain.ListeningRecord

	var (
		startedAt  string
		finishedAt sql.NullString
		completed  int
	)

	err := scanner.Scan(
		&r.ID,
		&r.ClientID,
		&r.ReadingID,
		&r.ReadingType,
		&startedAt,
		&finishedAt,
		&completed,
		&r.ListenTimeMs,
		&r.LastWordIdx,
	)
	if err != nil {
		return nil, err
	}

	r.Completed = completed != 0

	r.StartedAt, err = parseTime(startedAt)
	if err != nil {
		return nil, err
	}
	r.FinishedAt, err = parseNullableTime(finishedAt)
	if err != nil {
		return nil, err
	}

	return &r, nil
}

// CreateListeningRecord inserts a new listening record.
func (s *Store) CreateListeningRecord(ctx context.Context, record *domain.ListeningRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO listening_records (
			id, client_id, reading_id, reading_type,
			started_at, finished_at, completed, listen_time_ms, last_word_index
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.ClientID,
		record.ReadingID,
		record.ReadingType,
		formatTime(record.StartedAt),
		nullTimeString(record.FinishedAt),
		boolToInt(record.Completed),
		record.ListenTimeMs,
		record.LastWordIdx,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrRecordExists
		}
		return err
	}
	return nil
}

// GetListeningRecord retrieves a listening record by ID.
func (s *Store) GetListeningRecord(ctx context.Context, id string) (*domain.ListeningRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+listeningRecordColumns+` FROM listening_records WHERE id = ?`, id)

	record, err := scanListeningRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// FinishListeningRecord closes an open record with its final stats.
func (s *Store) FinishListeningRecord(ctx context.Context, record *domain.ListeningRecord) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE listening_records
		SET finished_at = ?, completed = ?, listen_time_ms = ?, last_word_index = ?
		WHERE id = ?`,
		nullTimeString(record.FinishedAt),
		boolToInt(record.Completed),
		record.ListenTimeMs,
		record.LastWordIdx,
		record.ID,
	)
	return err
}

// GetListeningRecords retrieves all records for a client, newest first.
func (s *Store) GetListeningRecords(ctx context.Context, clientID string) ([]*domain.ListeningRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+listeningRecordColumns+` FROM listening_records
		 WHERE client_id = ? ORDER BY started_at DESC`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.ListeningRecord
	for rows.Next() {
		record, err := scanListeningRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// GetListeningRecordsForReading retrieves all records for a reading,
// newest first.
func (s *Store) GetListeningRecordsForReading(ctx context.Context, readingID string) ([]*domain.ListeningRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+listeningRecordColumns+` FROM listening_records
		 WHERE reading_id = ? ORDER BY started_at DESC`, readingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.ListeningRecord
	for rows.Next() {
		record, err := scanListeningRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// ListeningStats summarizes a client's listening history.
type ListeningStats struct {
	TotalListens     int   `json:"total_listens"`
	CompletedListens int   `json:"completed_listens"`
	TotalListenMs    int64 `json:"total_listen_ms"`
}

// GetListeningStats aggregates listen counts and time for one client.
func (s *Store) GetListeningStats(ctx context.Context, clientID string) (*ListeningStats, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(completed), 0),
		       COALESCE(SUM(listen_time_ms), 0)
		FROM listening_records WHERE client_id = ?`, clientID)

	var stats ListeningStats
	if err := row.Scan(&stats.TotalListens, &stats.CompletedListens, &stats.TotalListenMs); err != nil {
		return nil, err
	}
	return &stats, nil
}
