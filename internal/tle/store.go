package tle

import (
	"sync/atomic"
	"time"
)

// Store holds the current TLE dataset behind an atomic pointer so
// request handlers can read it without locking while a reload swaps
// in a fresh catalog.
type Store struct {
	current atomic.Pointer[Dataset]
}

// NewStore returns an empty store. Get returns nil until Set is called.
func NewStore() *Store {
	return &Store{}
}

// Get returns the currently loaded dataset, or nil if none is loaded.
func (s *Store) Get() *Dataset {
	return s.current.Load()
}

// Set replaces the current dataset.
func (s *Store) Set(ds *Dataset) {
	s.current.Store(ds)
}

// AgeSeconds returns the time since the current dataset was loaded,
// or -1 if no dataset is loaded.
func (s *Store) AgeSeconds(now time.Time) float64 {
	ds := s.current.Load()
	if ds == nil {
		return -1
	}
	return now.Sub(ds.LoadedAt).Seconds()
}
