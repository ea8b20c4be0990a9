package repository

import "time"

// Option applies a configuration option to the SQLiteKV.
type Option func(*SQLiteKV)

// WithBusyTimeout sets how long a writer waits on a locked database.
func WithBusyTimeout(d time.Duration) Option {
	return func(s *SQLiteKV) {
		if d > 0 {
			s.busyTimeout = d
		}
	}
}

// WithClock overrides the clock used for updated_at stamps.
func WithClock(now func() time.Time) Option {
	return func(s *SQLiteKV) {
		if now != nil {
			s.now = now
		}
	}
}
