package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func loggerApp() *cli.App {
	return &cli.App{
		Name: "test",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Value: "info",
			},
		},
		Before: setupLogger,
		Action: func(c *cli.Context) error {
			return nil
		},
	}
}

func TestSetupLogger(t *testing.T) {
	t.Run("valid log levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error"} {
			t.Run(level, func(t *testing.T) {
				err := loggerApp().Run([]string{"test", "--log-level", level})
				require.NoError(t, err)
			})
		}
	})

	t.Run("case insensitive", func(t *testing.T) {
		err := loggerApp().Run([]string{"test", "--log-level", "WaRn"})
		require.NoError(t, err)
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		err := loggerApp().Run([]string{"test", "--log-level", "loud"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "short", snippet("  short  ", 10))
	assert.Equal(t, "abcde...", snippet("abcdefgh", 5))
}

func TestIndent(t *testing.T) {
	assert.Equal(t, "  a\n  b", indent("a\nb", "  "))
}
