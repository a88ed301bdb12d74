package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/oauth2"

	"availability-engine/internal/external"
)

func (s *Store) ListCalendarConnections(ctx context.Context, resourceID string) ([]external.Connection, error) {
	const op = "storage.postgres.ListCalendarConnections"

	rows, err := s.pool.Query(ctx, `
		SELECT resource_id, provider, calendar_id, token
		FROM calendar_connections
		WHERE resource_id = $1
		ORDER BY provider, calendar_id
	`, resourceID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []external.Connection
	for rows.Next() {
		var (
			c   external.Connection
			raw []byte
		)
		if err := rows.Scan(&c.ResourceID, &c.Provider, &c.CalendarID, &raw); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		var token oauth2.Token
		if err := json.Unmarshal(raw, &token); err != nil {
			return nil, fmt.Errorf("%s: token for %s/%s: %w", op, c.Provider, c.CalendarID, err)
		}
		c.Token = &token
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}
