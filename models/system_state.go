package models

import "time"

// SystemState is a singleton row (id = 1) recording the last observed
// session and position picture. It is informational on restart: the
// exchange's own open-order list is the source of truth.
type SystemState struct {
	ID                       int       `db:"id"`
	MarketStreamStatus       string    `db:"market_stream_status"`
	UserStreamStatus         string    `db:"user_stream_status"`
	LastError                string    `db:"last_error"`
	ReconnectionAttempts     int       `db:"reconnection_attempts"`
	LastProcessedTime        time.Time `db:"last_processed_time"`
	OpenPositionCount        int       `db:"open_position_count"`
	OldestPositionAgeSeconds int64     `db:"oldest_position_age_seconds"`
	UpdatedAt                time.Time `db:"updated_at"`
}
