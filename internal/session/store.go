package session

import (
	"sort"
	"sync"
	"time"
)

// Store is the process-wide call-state table, keyed by call id.
//
// Webhooks for one call arrive sequentially from the telephony side, but we
// do not rely on that: every mutation runs under the per-session lock via
// Update, and the map itself is guarded separately.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry

	now func() time.Time
}

type entry struct {
	mu   sync.Mutex
	sess *Session
}

// NewStore builds an empty store. now is injectable for tests; nil means
// time.Now.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{entries: map[string]*entry{}, now: now}
}

func (st *Store) lookup(callID string, create bool) *entry {
	st.mu.Lock()
	defer st.mu.Unlock()
	e := st.entries[callID]
	if e == nil && create {
		e = &entry{sess: &Session{
			CallID:      callID,
			State:       StateGreeting,
			LastTouched: st.now(),
		}}
		st.entries[callID] = e
	}
	return e
}

// Update runs fn with exclusive access to the call's session, creating the
// session on first contact. LastTouched is refreshed afterwards.
func (st *Store) Update(callID string, fn func(*Session)) {
	e := st.lookup(callID, true)
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.sess)
	e.sess.LastTouched = st.now()
}

// Get returns a copy of the session, if present. The copy shares the
// transcript backing array; callers must treat it as read-only.
func (st *Store) Get(callID string) (Session, bool) {
	e := st.lookup(callID, false)
	if e == nil {
		return Session{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return *e.sess, true
}

// Remove atomically takes the session out of the table. The second caller
// for the same id gets nothing, which is what makes completion handling
// idempotent.
func (st *Store) Remove(callID string) (*Session, bool) {
	st.mu.Lock()
	e := st.entries[callID]
	delete(st.entries, callID)
	st.mu.Unlock()
	if e == nil {
		return nil, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess, true
}

// Len reports the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.entries)
}

// EvictIdle removes sessions untouched for longer than ttl and returns
// them so the caller can best-effort persist any partial transcripts.
// This is the guard against calls whose completion callback never arrives.
func (st *Store) EvictIdle(ttl time.Duration) []*Session {
	cutoff := st.now().Add(-ttl)

	st.mu.Lock()
	var stale []string
	for id, e := range st.entries {
		e.mu.Lock()
		if e.sess.LastTouched.Before(cutoff) {
			stale = append(stale, id)
		}
		e.mu.Unlock()
	}
	st.mu.Unlock()

	var out []*Session
	for _, id := range stale {
		if sess, ok := st.Remove(id); ok {
			out = append(out, sess)
		}
	}
	return out
}

// Summary is the transcript-free view served by /debug/sessions.
type Summary struct {
	CallID      string    `json:"call_id"`
	State       State     `json:"state"`
	Intent      string    `json:"intent,omitempty"`
	CallerName  string    `json:"caller_name,omitempty"`
	Lines       int       `json:"transcript_lines"`
	LastTouched time.Time `json:"last_touched"`
}

// Snapshot returns a point-in-time view of the session table.
func (st *Store) Snapshot() []Summary {
	st.mu.Lock()
	entries := make([]*entry, 0, len(st.entries))
	for _, e := range st.entries {
		entries = append(entries, e)
	}
	st.mu.Unlock()

	out := make([]Summary, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, Summary{
			CallID:      e.sess.CallID,
			State:       e.sess.State,
			Intent:      string(e.sess.Intent),
			CallerName:  e.sess.CallerName,
			Lines:       len(e.sess.Transcript),
			LastTouched: e.sess.LastTouched,
		})
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CallID < out[j].CallID })
	return out
}
