package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/semanteco/internal/ir"
)

// Execution is one recorded SPARQL round trip.
type Execution struct {
	ID            string `json:"id"`
	RequestID     string `json:"request_id"`
	Seq           int64  `json:"seq"`
	Extension     string `json:"extension,omitempty"`
	QueryHash     string `json:"query_hash"`
	QueryText     string `json:"query_text"`
	Accept        string `json:"accept"`
	Outcome       string `json:"outcome"`
	ErrorCode     string `json:"error_code,omitempty"`
	ResponseBytes int64  `json:"response_bytes"`
}

// RecordExecution appends an execution to the log.
//
// QueryHash and ID are computed when empty. Recording an execution whose
// id already exists is silently ignored.
func (s *Store) RecordExecution(ctx context.Context, e Execution) error {
	if e.QueryHash == "" {
		e.QueryHash = ir.QueryHash(e.QueryText)
	}
	if e.ID == "" {
		id, err := ir.ExecutionID(e.RequestID, e.Seq, e.QueryHash)
		if err != nil {
			return fmt.Errorf("record execution: %w", err)
		}
		e.ID = id
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO executions
		(id, request_id, seq, extension, query_hash, query_text, accept, outcome, error_code, response_bytes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		e.ID,
		e.RequestID,
		e.Seq,
		e.Extension,
		e.QueryHash,
		e.QueryText,
		e.Accept,
		e.Outcome,
		e.ErrorCode,
		e.ResponseBytes,
	)
	if err != nil {
		return fmt.Errorf("record execution: %w", err)
	}

	return nil
}

// ReadExecutions returns the executions of one request, ordered by
// seq ASC, id ASC COLLATE BINARY. Returns an empty slice when none exist.
func (s *Store) ReadExecutions(ctx context.Context, requestID string) ([]Execution, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, request_id, seq, extension, query_hash, query_text, accept, outcome, error_code, response_bytes
		FROM executions
		WHERE request_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, requestID)
	if err != nil {
		return nil, fmt.Errorf("query executions: %w", err)
	}
	return scanExecutions(rows)
}

// RecentExecutions returns up to limit executions, most recently recorded
// first. A limit of zero or less returns all executions.
func (s *Store) RecentExecutions(ctx context.Context, limit int) ([]Execution, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, request_id, seq, extension, query_hash, query_text, accept, outcome, error_code, response_bytes
		FROM executions
		ORDER BY rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent executions: %w", err)
	}
	return scanExecutions(rows)
}

func scanExecutions(rows *sql.Rows) ([]Execution, error) {
	defer rows.Close()

	executions := []Execution{}
	for rows.Next() {
		var e Execution
		if err := rows.Scan(
			&e.ID,
			&e.RequestID,
			&e.Seq,
			&e.Extension,
			&e.QueryHash,
			&e.QueryText,
			&e.Accept,
			&e.Outcome,
			&e.ErrorCode,
			&e.ResponseBytes,
		); err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}
		executions = append(executions, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate executions: %w", err)
	}

	return executions, nil
}
