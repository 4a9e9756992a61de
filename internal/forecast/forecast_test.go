package forecast

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCache(t *testing.T, dir string, today, tomorrow, dayAfter string, fetchedAt time.Time) {
	t.Helper()
	files := map[string]string{
		fileToday:    today,
		fileTomorrow: tomorrow,
		fileDayAfter: dayAfter,
		fileFetched:  fetchedAt.Format(time.RFC3339),
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body+"\n"), 0o644))
	}
}

func TestReadCompleteCache(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 6, 21, 14, 0, 0, 0, time.UTC)
	writeCache(t, dir, "9.5", "7.0", "2.5", now.Add(-2*time.Hour))

	h, err := NewStore(dir, 24*time.Hour).Read(now)
	require.NoError(t, err)

	assert.Equal(t, 9.5, h.Today)
	assert.Equal(t, 7.0, h.Tomorrow)
	assert.Equal(t, 2.5, h.DayAfter)
	assert.False(t, h.Stale)
}

func TestReadStaleCache(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 6, 21, 14, 0, 0, 0, time.UTC)
	writeCache(t, dir, "9.5", "7.0", "2.5", now.Add(-30*time.Hour))

	h, err := NewStore(dir, 24*time.Hour).Read(now)
	require.NoError(t, err)

	assert.True(t, h.Stale, "cache older than max age must be flagged")
}

func TestReadMissingCache(t *testing.T) {
	h, err := NewStore(t.TempDir(), 24*time.Hour).Read(time.Now())

	assert.Nil(t, h)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestReadPartialCacheIsUnavailable(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 6, 21, 14, 0, 0, 0, time.UTC)
	writeCache(t, dir, "9.5", "7.0", "2.5", now)
	require.NoError(t, os.Remove(filepath.Join(dir, fileTomorrow)))

	h, err := NewStore(dir, 24*time.Hour).Read(now)

	assert.Nil(t, h)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestReadRejectsGarbage(t *testing.T) {
	cases := []struct {
		name string
		file string
		body string
	}{
		{"not a number", fileToday, "cloudy"},
		{"negative hours", fileTomorrow, "-3"},
		{"more hours than a day", fileDayAfter, "25.1"},
		{"bad timestamp", fileFetched, "yesterday"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			now := time.Date(2025, 6, 21, 14, 0, 0, 0, time.UTC)
			writeCache(t, dir, "9.5", "7.0", "2.5", now)
			require.NoError(t, os.WriteFile(filepath.Join(dir, tc.file), []byte(tc.body), 0o644))

			_, err := NewStore(dir, 24*time.Hour).Read(now)
			assert.ErrorIs(t, err, ErrUnavailable)
		})
	}
}
