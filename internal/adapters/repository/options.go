// Package repository implements the remote service on top of database/sql.
package repository

import "time"

// Option applies a configuration option to the SQLStore.
type Option func(*SQLStore)

// WithNow overrides the clock used for created_at columns.
func WithNow(now func() time.Time) Option {
	return func(s *SQLStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides how row ids and session tokens are minted.
func WithIDGenerator(gen func() string) Option {
	return func(s *SQLStore) {
		if gen != nil {
			s.newID = gen
		}
	}
}
