package main

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/paper-swipe-service/internal/config"
	"github.com/helixir/paper-swipe-service/internal/feed"
)

func TestBuildSource_Remote(t *testing.T) {
	saved := opts
	t.Cleanup(func() { opts = saved })

	t.Run("focus defaults to the configured default", func(t *testing.T) {
		opts = options{serverURL: "http://localhost:8080", watermark: 4}

		src, watermark, focus, err := buildSource(zerolog.Nop())

		require.NoError(t, err)
		assert.IsType(t, &feed.RemoteSource{}, src)
		assert.Equal(t, 4, watermark)
		assert.Equal(t, config.DefaultFocus, focus)
	})

	t.Run("focus flag wins", func(t *testing.T) {
		opts = options{serverURL: "http://localhost:8080", focus: "Robotics"}

		_, _, focus, err := buildSource(zerolog.Nop())

		require.NoError(t, err)
		assert.Equal(t, "Robotics", focus)
	})
}
