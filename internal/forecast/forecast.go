// Package forecast reads the sunshine forecast cache that an external fetch
// job keeps as flat files. The display only ever consumes the cache; fetching
// is somebody else's cron problem, and an absent or rotten cache must never
// disturb the control loop.
package forecast

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Cache file names, one float per value file, RFC3339 in the fetched file.
const (
	fileToday    = ".sun-today"
	fileTomorrow = ".sun-tomorrow"
	fileDayAfter = ".sun-dayafter"
	fileFetched  = ".sun-fetched"
)

// ErrUnavailable means the cache is missing or unreadable. Callers render
// placeholders and move on.
var ErrUnavailable = errors.New("forecast unavailable")

// Hours is one complete forecast reading.
type Hours struct {
	Today    float64
	Tomorrow float64
	DayAfter float64

	// FetchedAt is when the external job last refreshed the cache.
	FetchedAt time.Time
	// Stale is set when FetchedAt is older than the configured max age.
	Stale bool
}

// Store reads the cache directory.
type Store struct {
	dir    string
	maxAge time.Duration
}

func NewStore(dir string, maxAge time.Duration) *Store {
	return &Store{dir: dir, maxAge: maxAge}
}

// Read loads the full cache. It either returns a complete forecast or
// ErrUnavailable; a partially present cache counts as unavailable.
func (s *Store) Read(now time.Time) (*Hours, error) {
	var h Hours
	var err error

	if h.Today, err = s.readHours(fileToday); err != nil {
		return nil, err
	}
	if h.Tomorrow, err = s.readHours(fileTomorrow); err != nil {
		return nil, err
	}
	if h.DayAfter, err = s.readHours(fileDayAfter); err != nil {
		return nil, err
	}
	if h.FetchedAt, err = s.readFetchedAt(); err != nil {
		return nil, err
	}

	h.Stale = now.Sub(h.FetchedAt) > s.maxAge
	return &h, nil
}

func (s *Store) readHours(name string) (float64, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrUnavailable, name, err)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrUnavailable, name, err)
	}
	if v < 0 || v > 24 {
		return 0, fmt.Errorf("%w: %s: %.1f hours out of range", ErrUnavailable, name, v)
	}
	return v, nil
}

func (s *Store) readFetchedAt() (time.Time, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, fileFetched))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", ErrUnavailable, fileFetched, err)
	}
	at, err := time.Parse(time.RFC3339, strings.TrimSpace(string(raw)))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", ErrUnavailable, fileFetched, err)
	}
	return at, nil
}
