package utils_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xRadioAc7iv/go-flashdir/internal/utils"
)

func TestSplitStringIntoCommandAndArguments(t *testing.T) {
	tests := []struct {
		name string
		line string
		cmd  string
		args []string
	}{
		{"bare command", "stats", "stats", []string{}},
		{"command is lower-cased", "CHECK 65", "check", []string{"65"}},
		{"extra whitespace", "  put   65   1000 ", "put", []string{"65", "1000"}},
		{"quoted argument", `put '65' "1000"`, "put", []string{"65", "1000"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args, err := utils.SplitStringIntoCommandAndArguments(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.cmd, cmd)
			assert.Equal(t, tt.args, args)
		})
	}

	t.Run("unterminated quote", func(t *testing.T) {
		_, _, err := utils.SplitStringIntoCommandAndArguments(`put "65`)
		assert.Error(t, err)
	})

	t.Run("empty line", func(t *testing.T) {
		_, _, err := utils.SplitStringIntoCommandAndArguments("   ")
		assert.Error(t, err)
	})
}

func TestPathExists(t *testing.T) {
	dir := t.TempDir()
	assert.True(t, utils.PathExists(dir))
	assert.False(t, utils.PathExists(filepath.Join(dir, "missing")))
	assert.False(t, utils.PathExists(filepath.Join(dir, "missing", "flash.img")))

	image := filepath.Join(dir, "flash.img")
	require.NoError(t, os.WriteFile(image, nil, 0o644))
	assert.True(t, utils.PathExists(image))
}

func TestListenReturnsOnContextDone(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		utils.ListenForProcessInterruptOrKill(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("listener did not return after context cancellation")
	}
}
