package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/themainkeys/wingman.app-sub000/internal/cart"
	"github.com/themainkeys/wingman.app-sub000/internal/wizard"
)

// session is one user's aggregate. mu serializes every mutation of that user's collections.
// refs and touched are guarded by the registry lock.
type session struct {
	mu     sync.Mutex
	userID int64
	loaded bool
	cart   *cart.Cart

	refs    int
	touched time.Time
}

// sessionRegistry keeps loaded sessions in memory. Sessions nobody holds that stay idle
// longer than ttl are dropped and reloaded from the store on next use.
type sessionRegistry struct {
	mu     sync.Mutex
	byUser map[int64]*session
	store  cart.Store
	now    func() time.Time
	ttl    time.Duration
}

func newSessionRegistry(store cart.Store, now func() time.Time, ttl time.Duration) *sessionRegistry {
	return &sessionRegistry{byUser: make(map[int64]*session), store: store, now: now, ttl: ttl}
}

// acquire returns the user's session locked; the caller must hand it back with release.
func (r *sessionRegistry) acquire(ctx context.Context, userID int64) (*session, error) {
	r.mu.Lock()
	now := r.now()
	for id, old := range r.byUser {
		if old.refs == 0 && now.Sub(old.touched) > r.ttl {
			delete(r.byUser, id)
		}
	}
	s, ok := r.byUser[userID]
	if !ok {
		s = &session{userID: userID}
		r.byUser[userID] = s
	}
	s.refs++
	s.touched = now
	r.mu.Unlock()

	s.mu.Lock()
	if !s.loaded {
		state, err := r.store.Load(ctx, userID)
		if err != nil {
			r.release(s)
			return nil, err
		}
		s.cart = cart.New(state, r.now)
		s.loaded = true
	}
	return s, nil
}

// release unlocks a session returned by acquire. A session that never loaded is forgotten.
func (r *sessionRegistry) release(s *session) {
	r.mu.Lock()
	s.refs--
	s.touched = r.now()
	if s.refs == 0 && !s.loaded && r.byUser[s.userID] == s {
		delete(r.byUser, s.userID)
	}
	r.mu.Unlock()
	s.mu.Unlock()
}

type wizardEntry struct {
	mu         sync.Mutex
	userID     int64
	touched    time.Time
	table      *wizard.TableWizard
	experience *wizard.ExperienceWizard
}

// wizardRegistry keeps in-progress wizards by id. Entries idle longer than ttl are dropped.
type wizardRegistry struct {
	mu      sync.Mutex
	entries map[string]*wizardEntry
	now     func() time.Time
	ttl     time.Duration
}

func newWizardRegistry(now func() time.Time, ttl time.Duration) *wizardRegistry {
	return &wizardRegistry{entries: make(map[string]*wizardEntry), now: now, ttl: ttl}
}

func (r *wizardRegistry) put(e *wizardEntry) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for id, old := range r.entries {
		if now.Sub(old.touched) > r.ttl {
			delete(r.entries, id)
		}
	}
	e.touched = now
	id := uuid.NewString()
	r.entries[id] = e
	return id
}

// acquire returns the user's wizard locked; the caller must unlock it.
func (r *wizardRegistry) acquire(userID int64, id string) (*wizardEntry, error) {
	r.mu.Lock()
	e, ok := r.entries[id]
	now := r.now()
	if ok && now.Sub(e.touched) > r.ttl {
		delete(r.entries, id)
		ok = false
	}
	if !ok || e.userID != userID {
		r.mu.Unlock()
		return nil, ErrWizardNotFound
	}
	e.touched = now
	r.mu.Unlock()
	e.mu.Lock()
	return e, nil
}

func (r *wizardRegistry) remove(userID int64, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok || e.userID != userID {
		return ErrWizardNotFound
	}
	delete(r.entries, id)
	return nil
}
