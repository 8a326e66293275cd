package session

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ic2hrmk/promtail"
	"github.com/sirupsen/logrus"

	"swingbot/internal/repository/postgres"
)

// channel owns one streaming connection's lifecycle: dial, read,
// health check, reconnect with backoff, REST fallback, fatal stop.
type channel struct {
	name string
	cfg  Config

	dial          func(ctx context.Context) (*websocket.Conn, error)
	handleMessage func(data []byte)
	fallback      func(ctx context.Context)
	onStop        func()

	stateRepo postgres.StateRepo
	onFatal   func(name string, err error)

	logger   *logrus.Logger
	promTail promtail.Client

	mu             sync.Mutex
	conn           *websocket.Conn
	status         ChannelStatus
	attempts       int
	firstFailure   time.Time
	lastMessage    time.Time
	fallbackCancel context.CancelFunc
	closed         bool
}

func (c *channel) run(ctx context.Context) {
	for {
		if ctx.Err() != nil || c.isClosed() {
			return
		}

		c.setStatus(StatusConnecting)

		conn, err := c.dial(ctx)
		if err != nil {
			if c.backoff(ctx, err) {
				return
			}
			continue
		}

		c.adopt(conn)
		err = c.readLoop(conn)
		_ = conn.Close()

		if ctx.Err() != nil || c.isClosed() {
			return
		}
		if c.backoff(ctx, err) {
			return
		}
	}
}

func (c *channel) adopt(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.status = StatusConnected
	c.attempts = 0
	c.firstFailure = time.Time{}
	c.lastMessage = time.Now()
	if c.fallbackCancel != nil {
		c.fallbackCancel()
		c.fallbackCancel = nil
	}
	c.mu.Unlock()

	c.persist(StatusConnected, nil, 0)

	c.logger.
		WithField("channel", c.name).
		Info("stream connected")
}

func (c *channel) readLoop(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		c.touch()
		c.handleMessage(data)
	}
}

// backoff sleeps out one reconnect delay. It returns true when the
// channel must stop for good (fatal ceiling crossed or context done).
func (c *channel) backoff(ctx context.Context, cause error) bool {
	c.mu.Lock()
	if c.firstFailure.IsZero() {
		c.firstFailure = time.Now()
		if c.fallback != nil && c.fallbackCancel == nil {
			fctx, cancel := context.WithCancel(ctx)
			c.fallbackCancel = cancel
			go c.fallback(fctx)
		}
	}

	delay := NextDelay(c.cfg.InitialRetryDelay, c.attempts, c.cfg.MaxRetryDelay)
	c.attempts++
	attempts := c.attempts
	elapsed := time.Since(c.firstFailure)

	if c.fallback != nil {
		c.status = StatusFallbackREST
	} else {
		c.status = StatusReconnecting
	}
	status := c.status
	c.mu.Unlock()

	c.persist(status, cause, attempts)

	if elapsed > c.cfg.FatalTimeout {
		c.fatal(cause)
		return true
	}

	c.logger.
		WithField("channel", c.name).
		WithField("attempt", attempts).
		WithField("delay", delay.String()).
		WithError(cause).
		Warn("stream connection lost, retrying")

	select {
	case <-time.After(delay):
		return false
	case <-ctx.Done():
		return true
	}
}

// fatal is the deliberate fail-fast path: a stale order or price view
// is worse than no process.
func (c *channel) fatal(cause error) {
	c.mu.Lock()
	c.status = StatusFatalStopped
	if c.fallbackCancel != nil {
		c.fallbackCancel()
		c.fallbackCancel = nil
	}
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	c.persist(StatusFatalStopped, cause, c.Attempts())

	if conn != nil {
		_ = conn.Close()
	}

	c.logger.
		WithField("channel", c.name).
		WithError(cause).
		Error("reconnection ceiling exceeded, stopping")
	if c.promTail != nil {
		c.promTail.Errorf("session: %s channel fatal: %v", c.name, cause)
	}

	if c.onFatal != nil {
		c.onFatal(c.name, cause)
	}
}

// healthLoop force-closes a nominally connected transport that has
// gone quiet, so the reconnect path runs instead of waiting on a
// half-open connection.
func (c *channel) healthLoop(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			stale := c.status == StatusConnected &&
				time.Since(c.lastMessage) > c.cfg.HealthTimeout
			conn := c.conn
			c.mu.Unlock()

			if stale && conn != nil {
				c.logger.
					WithField("channel", c.name).
					Warn("no messages within health timeout, forcing reconnect")
				_ = conn.Close()
			}
		}
	}
}

// close is idempotent and never raises on an already-closed transport.
func (c *channel) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.fallbackCancel != nil {
		c.fallbackCancel()
		c.fallbackCancel = nil
	}
	conn := c.conn
	c.conn = nil
	c.status = StatusDisconnected
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	if c.onStop != nil {
		c.onStop()
	}
}

func (c *channel) forceClose() {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
}

func (c *channel) touch() {
	c.mu.Lock()
	c.lastMessage = time.Now()
	c.mu.Unlock()
}

func (c *channel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *channel) Status() ChannelStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *channel) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

func (c *channel) setStatus(status ChannelStatus) {
	c.mu.Lock()
	c.status = status
	c.mu.Unlock()
}

func (c *channel) persist(status ChannelStatus, cause error, attempts int) {
	if c.stateRepo == nil {
		return
	}

	lastErr := ""
	if cause != nil {
		lastErr = cause.Error()
	}

	if err := c.stateRepo.SetStreamStatus(c.name, status.ToString(), lastErr, attempts); err != nil {
		c.logger.
			WithField("channel", c.name).
			WithError(err).
			Error("failed to persist stream status")
	}
}
