package idlesession_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stockroom/pkg/idlesession"
)

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, idlesession.DefaultConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*idlesession.Config)
	}{
		{"zero timeout", func(c *idlesession.Config) { c.Timeout = 0 }},
		{"negative lead", func(c *idlesession.Config) { c.WarningLead = -time.Second }},
		{"lead equals timeout", func(c *idlesession.Config) { c.WarningLead = c.Timeout }},
		{"empty key", func(c *idlesession.Config) { c.StorageKey = "" }},
		{"negative throttle", func(c *idlesession.Config) { c.ActivityThrottle = -time.Second }},
		{"throttle not below lead", func(c *idlesession.Config) { c.ActivityThrottle = c.WarningLead }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := idlesession.DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), idlesession.ErrInvalidConfig)
		})
	}
}

func TestActivityKind(t *testing.T) {
	t.Parallel()

	for _, k := range idlesession.ActivityKinds() {
		parsed, err := idlesession.ParseActivityKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}

	k, err := idlesession.ParseActivityKind(" KeyPress ")
	require.NoError(t, err)
	assert.Equal(t, idlesession.ActivityKeyPress, k)

	k, err = idlesession.ParseActivityKind("pointermove")
	require.NoError(t, err)
	assert.Equal(t, idlesession.ActivityMouseMove, k)

	_, err = idlesession.ParseActivityKind("wheel")
	assert.ErrorIs(t, err, idlesession.ErrUnknownActivity)

	assert.True(t, idlesession.ActivityMouseMove.HighFrequency())
	assert.True(t, idlesession.ActivityScroll.HighFrequency())
	assert.False(t, idlesession.ActivityClick.HighFrequency())
	assert.False(t, idlesession.ActivityVisible.HighFrequency())
}
