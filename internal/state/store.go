// Package state is the in-memory source of truth: the signed-in session and
// three id-deduplicated anime lists.
//
// Every mutation is applied under one lock and, before the lock is released,
// hands the affected key's full snapshot to the Persister. Persisted writes
// are therefore issued in mutation order; the Persister keeps them ordered
// per key.
package state

import (
	"context"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"animehub/internal/apperr"
	"animehub/internal/auth"
	"animehub/pkg/models"
)

// Persister mirrors state to storage. Save must not retain v after it
// returns, and neither method may block on storage.
type Persister interface {
	Save(key string, v any)
	Remove(key string)
}

type Store struct {
	persister Persister
	logger    *zap.Logger

	mu      sync.RWMutex
	session *models.Session
	lists   map[ListName][]models.Anime
	ready   bool
	readyCh chan struct{}
	version uint64

	notifyMu    sync.Mutex
	listeners   map[int]func(Snapshot)
	nextID      int
	notified    uint64 // version of the last snapshot handed to listeners
	subscribers atomic.Int32
}

// New returns an empty, not yet ready store. A nil persister keeps state in
// memory only.
func New(persister Persister, logger *zap.Logger) *Store {
	if persister == nil {
		persister = nopPersister{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		persister: persister,
		logger:    logger.Named("state"),
		lists:     make(map[ListName][]models.Anime, len(Lists)),
		readyCh:   make(chan struct{}),
		listeners: make(map[int]func(Snapshot)),
	}
	for _, l := range Lists {
		s.lists[l] = []models.Anime{}
	}
	return s
}

// RestoreSession installs a session read back from storage. It is not
// written again.
func (s *Store) RestoreSession(session *models.Session) {
	s.mu.Lock()
	s.session = session.Clone()
	s.commit()
}

// LoginSuccess signs session in and persists it.
func (s *Store) LoginSuccess(session *models.Session) {
	if session == nil {
		return
	}
	s.mu.Lock()
	s.session = session.Clone()
	s.persister.Save(SessionKey, s.session)
	s.logger.Info("signed_in", zap.String("user_id", session.ID))
	s.commit()
}

// UpdateProfile replaces the signed-in user's name and email.
func (s *Store) UpdateProfile(name, email string) error {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if err := auth.ValidateProfile(name, email); err != nil {
		return err
	}

	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return apperr.ErrNotAuthenticated
	}
	updated := s.session.Clone()
	updated.Name = name
	updated.Email = email
	s.session = updated
	s.persister.Save(SessionKey, s.session)
	s.commit()
	return nil
}

// Logout clears the session in memory and in storage.
func (s *Store) Logout() {
	s.mu.Lock()
	if s.session != nil {
		s.logger.Info("signed_out", zap.String("user_id", s.session.ID))
	}
	s.session = nil
	s.persister.Remove(SessionKey)
	s.commit()
}

// AddToList appends anime unless its id is already in list. It reports
// whether the list changed.
func (s *Store) AddToList(list ListName, anime models.Anime) bool {
	s.mu.Lock()
	if !s.validLocked(list) {
		return false
	}
	added := s.addLocked(list, anime)
	if added {
		s.saveLocked(list)
	}
	s.commit()
	return added
}

// RemoveFromList drops id from list and reports whether it was there. The
// snapshot is persisted either way.
func (s *Store) RemoveFromList(list ListName, id int) bool {
	s.mu.Lock()
	if !s.validLocked(list) {
		return false
	}
	removed := s.removeLocked(list, id)
	s.saveLocked(list)
	s.commit()
	return removed
}

// MoveToWatching puts anime in watching and takes it out of completed in a
// single step.
func (s *Store) MoveToWatching(anime models.Anime) {
	s.move(anime, Watching, Completed)
}

// MoveToCompleted puts anime in completed and takes it out of watching in a
// single step.
func (s *Store) MoveToCompleted(anime models.Anime) {
	s.move(anime, Completed, Watching)
}

func (s *Store) move(anime models.Anime, to, from ListName) {
	s.mu.Lock()
	s.addLocked(to, anime)
	s.removeLocked(from, anime.ID)
	s.saveLocked(to)
	s.saveLocked(from)
	s.logger.Debug("moved", zap.Int("id", anime.ID), zap.String("to", string(to)))
	s.commit()
}

// ToggleFavorite flips anime's favorites membership and reports whether it
// is a favorite afterwards.
func (s *Store) ToggleFavorite(anime models.Anime) bool {
	s.mu.Lock()
	favorite := !s.containsLocked(Favorites, anime.ID)
	if favorite {
		s.addLocked(Favorites, anime)
	} else {
		s.removeLocked(Favorites, anime.ID)
	}
	s.saveLocked(Favorites)
	s.commit()
	return favorite
}

// SetList replaces list wholesale without persisting it. Later duplicates of
// an id are dropped.
func (s *Store) SetList(list ListName, items []models.Anime) {
	s.mu.Lock()
	if !s.validLocked(list) {
		return
	}
	out := make([]models.Anime, 0, len(items))
	seen := make(map[int]struct{}, len(items))
	for _, a := range items {
		if _, dup := seen[a.ID]; dup {
			continue
		}
		seen[a.ID] = struct{}{}
		out = append(out, a.Clone())
	}
	if dropped := len(items) - len(out); dropped > 0 {
		s.logger.Warn("duplicate_ids_dropped", zap.String("list", string(list)), zap.Int("count", dropped))
	}
	s.lists[list] = out
	s.commit()
}

// MarkReady records that restoration finished. Only the first call has an
// effect.
func (s *Store) MarkReady() {
	s.mu.Lock()
	if s.ready {
		s.mu.Unlock()
		return
	}
	s.ready = true
	close(s.readyCh)
	s.commit()
}

func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// WaitReady blocks until MarkReady has been called or ctx ends.
func (s *Store) WaitReady(ctx context.Context) error {
	select {
	case <-s.readyCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// List returns a copy of list.
func (s *Store) List(list ListName) []models.Anime {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneList(s.lists[list])
}

func (s *Store) Contains(list ListName, id int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.containsLocked(list, id)
}

// Session returns a copy of the signed-in session, or nil.
func (s *Store) Session() *models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Clone()
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session != nil
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Favorites: len(s.lists[Favorites]),
		Watching:  len(s.lists[Watching]),
		Completed: len(s.lists[Completed]),
	}
}

// Subscribe registers fn to receive a snapshot after changes. fn runs outside
// the state lock and may read the store but must not mutate it. Snapshots
// arrive in order; when changes race, fn may only see the newest. The
// returned func unregisters fn.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.subscribers.Add(1)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.notifyMu.Lock()
			defer s.notifyMu.Unlock()
			delete(s.listeners, id)
			s.subscribers.Add(-1)
		})
	}
}

// commit releases s.mu, which the caller holds, and notifies listeners.
func (s *Store) commit() {
	s.version++
	if s.subscribers.Load() == 0 {
		s.mu.Unlock()
		return
	}
	version := s.version
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if version <= s.notified {
		return
	}
	s.notified = version
	for _, fn := range s.listeners {
		fn(snap)
	}
}

func (s *Store) validLocked(list ListName) bool {
	if list.Valid() {
		return true
	}
	s.logger.Warn("unknown_list", zap.String("list", string(list)))
	s.mu.Unlock()
	return false
}

func (s *Store) addLocked(list ListName, anime models.Anime) bool {
	if s.containsLocked(list, anime.ID) {
		return false
	}
	s.lists[list] = append(s.lists[list], anime.Clone())
	return true
}

func (s *Store) removeLocked(list ListName, id int) bool {
	before := len(s.lists[list])
	s.lists[list] = slices.DeleteFunc(s.lists[list], func(a models.Anime) bool { return a.ID == id })
	return len(s.lists[list]) < before
}

func (s *Store) containsLocked(list ListName, id int) bool {
	return slices.ContainsFunc(s.lists[list], func(a models.Anime) bool { return a.ID == id })
}

func (s *Store) saveLocked(list ListName) {
	s.persister.Save(string(list), s.lists[list])
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Session:         s.session.Clone(),
		IsAuthenticated: s.session != nil,
		Ready:           s.ready,
		Favorites:       cloneList(s.lists[Favorites]),
		Watching:        cloneList(s.lists[Watching]),
		Completed:       cloneList(s.lists[Completed]),
	}
}

func cloneList(items []models.Anime) []models.Anime {
	out := make([]models.Anime, len(items))
	for i, a := range items {
		out[i] = a.Clone()
	}
	return out
}

type nopPersister struct{}

func (nopPersister) Save(string, any) {}
func (nopPersister) Remove(string)    {}
