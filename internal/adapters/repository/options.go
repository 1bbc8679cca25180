package repository

import "time"

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithSnapshotInterval sets how often the read snapshot is rebuilt.
func WithSnapshotInterval(interval time.Duration) Option {
	return func(s *TreapStore) {
		if interval > 0 {
			s.snapshotInterval = interval
		}
	}
}

// WithTopCacheSize sets how many leading entries a snapshot keeps.
func WithTopCacheSize(n int) Option {
	return func(s *TreapStore) {
		if n > 0 {
			s.topCacheSize = n
		}
	}
}

// WithMaxRecords bounds the number of records. The oldest submissions are
// dropped first once the bound is reached; zero keeps everything.
func WithMaxRecords(n int) Option {
	return func(s *TreapStore) {
		if n >= 0 {
			s.maxRecords = n
		}
	}
}
