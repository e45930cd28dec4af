// Package persist mirrors application state into the key/value facilities.
//
// The session key lives in the secure facility; the three list snapshots live
// in the general one. Writes go through Queue, which keeps them in order per
// key.
package persist

import (
	"errors"
	"slices"

	"animehub/internal/kvstore"
)

const (
	KeySession   = "session"
	KeyFavorites = "favorites"
	KeyWatching  = "watching"
	KeyCompleted = "completed"
)

// Keys lists every persisted key.
var Keys = []string{KeySession, KeyFavorites, KeyWatching, KeyCompleted}

// IsSecure reports whether key holds credential material.
func IsSecure(key string) bool {
	return key == KeySession
}

// IsKnown reports whether key is one of Keys.
func IsKnown(key string) bool {
	return slices.Contains(Keys, key)
}

var ErrSharedFacility = errors.New("persist: session and lists must not share a storage facility")

// Facilities routes each key to its storage facility.
type Facilities struct {
	Secure  kvstore.Store
	General kvstore.Store
}

// NewFacilities refuses to build when credentials would share a store with
// the cached lists.
func NewFacilities(secure, general kvstore.Store) (*Facilities, error) {
	if secure == nil || general == nil {
		return nil, errors.New("persist: both facilities are required")
	}
	if secure == general {
		return nil, ErrSharedFacility
	}
	return &Facilities{Secure: secure, General: general}, nil
}

// For returns the facility that owns key.
func (f *Facilities) For(key string) kvstore.Store {
	if IsSecure(key) {
		return f.Secure
	}
	return f.General
}

// Close closes both facilities.
func (f *Facilities) Close() error {
	return errors.Join(f.Secure.Close(), f.General.Close())
}
