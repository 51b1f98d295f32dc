package db

import (
	"database/sql"
	"time"

	"github.com/hpungsan/trail/internal/errors"
)

// UsageTotal aggregates token spend for one operation.
type UsageTotal struct {
	Operation    string `json:"operation"`
	Calls        int    `json:"calls"`
	InputTokens  int64  `json:"input_tokens"`
	OutputTokens int64  `json:"output_tokens"`
}

// RecordUsage stores one LLM call's token accounting, tagged with the
// operation name and mapper run ID for cost attribution.
func (s *Store) RecordUsage(operation, model, runID string, inputTokens, outputTokens int64) error {
	_, err := s.conn.Exec(`
		INSERT INTO llm_usage (operation, model, run_id, input_tokens, output_tokens, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, operation, nullIfEmpty(model), nullIfEmpty(runID), inputTokens, outputTokens, time.Now().Unix())
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// UsageTotals returns per-operation token totals.
func (s *Store) UsageTotals() ([]UsageTotal, error) {
	rows, err := s.conn.Query(`
		SELECT operation, COUNT(*), SUM(input_tokens), SUM(output_tokens)
		FROM llm_usage
		GROUP BY operation
		ORDER BY operation
	`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var totals []UsageTotal
	for rows.Next() {
		var u UsageTotal
		if err := rows.Scan(&u.Operation, &u.Calls, &u.InputTokens, &u.OutputTokens); err != nil {
			return nil, errors.NewInternal(err)
		}
		totals = append(totals, u)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return totals, nil
}

// nullIfEmpty converts "" to NULL for optional text columns.
func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
