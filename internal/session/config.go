package session

import "time"

type Config struct {
	Symbol string

	// APIURL is the REST base, e.g. https://api.binance.com/api.
	// StreamURL is the websocket base, e.g. wss://stream.binance.com:9443.
	APIURL    string
	StreamURL string

	InitialRetryDelay   time.Duration
	MaxRetryDelay       time.Duration
	FatalTimeout        time.Duration
	HealthTimeout       time.Duration
	HealthCheckInterval time.Duration
	RESTPollInterval    time.Duration
	KeepAliveInterval   time.Duration
}

func (c Config) withDefaults() Config {
	if c.InitialRetryDelay <= 0 {
		c.InitialRetryDelay = time.Second
	}
	if c.MaxRetryDelay <= 0 {
		c.MaxRetryDelay = 60 * time.Second
	}
	if c.FatalTimeout <= 0 {
		c.FatalTimeout = 15 * time.Minute
	}
	if c.HealthTimeout <= 0 {
		c.HealthTimeout = 60 * time.Second
	}
	if c.HealthCheckInterval <= 0 {
		c.HealthCheckInterval = 5 * time.Second
	}
	if c.RESTPollInterval <= 0 {
		c.RESTPollInterval = 10 * time.Second
	}
	if c.KeepAliveInterval <= 0 {
		// Listen keys are valid for 60 minutes; renew at half that.
		c.KeepAliveInterval = 30 * time.Minute
	}
	return c
}

// NextDelay computes the reconnect backoff for the given attempt:
// initial * 2^attempt, capped at max.
func NextDelay(initial time.Duration, attempt int, max time.Duration) time.Duration {
	delay := initial
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}
	if delay > max {
		return max
	}
	return delay
}
