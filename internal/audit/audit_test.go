package audit_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xRadioAc7iv/go-flashdir/internal/audit"
)

func openLog(t *testing.T, path string) *audit.Log {
	t.Helper()

	l, err := audit.Open(path)
	require.NoError(t, err)
	return l
}

func collect(t *testing.T, l *audit.Log) []audit.Entry {
	t.Helper()

	var entries []audit.Entry
	require.NoError(t, l.Walk(func(_ uint64, e audit.Entry) error {
		entries = append(entries, e)
		return nil
	}))
	return entries
}

func TestAppendWalkOrder(t *testing.T) {
	l := openLog(t, filepath.Join(t.TempDir(), "audit.db"))
	defer l.Close()

	base := time.Unix(1000, 0).UTC()
	for i, verdict := range []string{"granted", "unknown", "expired"} {
		require.NoError(t, l.Append(audit.Entry{
			Time:       base.Add(time.Duration(i) * time.Second),
			Door:       6,
			Credential: "65",
			Verdict:    verdict,
		}))
	}

	entries := collect(t, l)
	require.Len(t, entries, 3)
	assert.Equal(t, "granted", entries[0].Verdict)
	assert.Equal(t, "unknown", entries[1].Verdict)
	assert.Equal(t, "expired", entries[2].Verdict)
	assert.True(t, entries[2].Time.Equal(base.Add(2*time.Second)))
	assert.Equal(t, uint16(6), entries[0].Door)
}

func TestSequenceNumbers(t *testing.T) {
	l := openLog(t, filepath.Join(t.TempDir(), "audit.db"))
	defer l.Close()

	for i := 0; i < 300; i++ {
		require.NoError(t, l.Append(audit.Entry{Verdict: "granted"}))
	}

	// big-endian keys keep numeric order past one byte
	var last uint64
	require.NoError(t, l.Walk(func(seq uint64, _ audit.Entry) error {
		assert.Equal(t, last+1, seq)
		last = seq
		return nil
	}))
	assert.Equal(t, uint64(300), last)
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "audit.db")

	l := openLog(t, path)
	require.NoError(t, l.Append(audit.Entry{Credential: "aa", Verdict: "granted"}))
	require.NoError(t, l.Close())

	l = openLog(t, path)
	defer l.Close()
	require.NoError(t, l.Append(audit.Entry{Credential: "bb", Verdict: "unknown"}))

	entries := collect(t, l)
	require.Len(t, entries, 2)
	assert.Equal(t, "aa", entries[0].Credential)
	assert.Equal(t, "bb", entries[1].Credential)
}

func TestWalkStopsOnError(t *testing.T) {
	l := openLog(t, filepath.Join(t.TempDir(), "audit.db"))
	defer l.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Append(audit.Entry{}))
	}

	stop := errors.New("stop")
	visited := 0
	err := l.Walk(func(uint64, audit.Entry) error {
		visited++
		return stop
	})
	assert.Equal(t, stop, errors.Cause(err))
	assert.Equal(t, 1, visited)
}
