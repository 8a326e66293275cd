package postgres

import (
	"time"

	"swingbot/models"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const (
	ChannelMarket = "market"
	ChannelUser   = "user"
)

// StateRepository maintains the singleton system-state row. The row is
// created lazily on the first write.
type StateRepository struct {
	conn *sqlx.DB
}

func NewStateRepository(conn *sqlx.DB) StateRepo {
	return &StateRepository{
		conn: conn,
	}
}

func (r *StateRepository) Get() (*models.SystemState, error) {
	var state models.SystemState

	if err := r.conn.QueryRowx("SELECT * FROM system_state WHERE id = 1 LIMIT 1").StructScan(&state); err != nil {
		return nil, err
	}

	return &state, nil
}

func (r *StateRepository) SetStreamStatus(channel, status, lastError string, attempts int) error {
	var column string

	switch channel {
	case ChannelMarket:
		column = "market_stream_status"
	case ChannelUser:
		column = "user_stream_status"
	default:
		return errors.Errorf("unknown stream channel %q", channel)
	}

	now := time.Now().UTC()

	if _, err := r.conn.Exec(
		`INSERT INTO system_state (id, `+column+`, last_error, reconnection_attempts, last_processed_time, updated_at)
		VALUES (1, $1, $2, $3, $4, $4)
		ON CONFLICT (id) DO UPDATE SET
			`+column+` = $1,
			last_error = $2,
			reconnection_attempts = $3,
			last_processed_time = $4,
			updated_at = $4;`,
		status, lastError, attempts, now); err != nil {
		return err
	}

	return nil
}

func (r *StateRepository) SetPositions(count int, oldestAgeSeconds int64) error {
	now := time.Now().UTC()

	if _, err := r.conn.Exec(
		`INSERT INTO system_state (id, open_position_count, oldest_position_age_seconds, last_processed_time, updated_at)
		VALUES (1, $1, $2, $3, $3)
		ON CONFLICT (id) DO UPDATE SET
			open_position_count = $1,
			oldest_position_age_seconds = $2,
			last_processed_time = $3,
			updated_at = $3;`,
		count, oldestAgeSeconds, now); err != nil {
		return err
	}

	return nil
}
