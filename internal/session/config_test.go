package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_NextDelay(t *testing.T) {
	t.Run("doubles per attempt", func(t *testing.T) {
		assert.Equal(t, time.Second, NextDelay(time.Second, 0, time.Minute))
		assert.Equal(t, 2*time.Second, NextDelay(time.Second, 1, time.Minute))
		assert.Equal(t, 4*time.Second, NextDelay(time.Second, 2, time.Minute))
		assert.Equal(t, 32*time.Second, NextDelay(time.Second, 5, time.Minute))
	})

	t.Run("caps at max", func(t *testing.T) {
		assert.Equal(t, time.Minute, NextDelay(time.Second, 6, time.Minute))
		assert.Equal(t, time.Minute, NextDelay(time.Second, 20, time.Minute))
		assert.Equal(t, time.Minute, NextDelay(time.Second, 63, time.Minute))
	})

	t.Run("initial above max", func(t *testing.T) {
		assert.Equal(t, time.Minute, NextDelay(2*time.Minute, 0, time.Minute))
	})
}

func Test_ConfigDefaults(t *testing.T) {
	cfg := Config{Symbol: "BTCBUSD"}.withDefaults()

	assert.Equal(t, time.Second, cfg.InitialRetryDelay)
	assert.Equal(t, 60*time.Second, cfg.MaxRetryDelay)
	assert.Equal(t, 15*time.Minute, cfg.FatalTimeout)
	assert.Equal(t, 60*time.Second, cfg.HealthTimeout)

	custom := Config{FatalTimeout: time.Minute}.withDefaults()
	assert.Equal(t, time.Minute, custom.FatalTimeout)
}
