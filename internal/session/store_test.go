package session

import (
	"sync"
	"testing"
	"time"
)

func TestStore_UpdateCreatesAndMutates(t *testing.T) {
	st := NewStore(nil)

	st.Update("CA1", func(s *Session) {
		if s.State != StateGreeting {
			t.Fatalf("new session state = %s, want greeting", s.State)
		}
		s.CallerName = "Jane"
	})

	got, ok := st.Get("CA1")
	if !ok || got.CallerName != "Jane" {
		t.Fatalf("Get = %+v, %v", got, ok)
	}
	if st.Len() != 1 {
		t.Fatalf("Len = %d, want 1", st.Len())
	}
}

func TestStore_RemoveIsAtomicTake(t *testing.T) {
	st := NewStore(nil)
	st.Update("CA1", func(s *Session) {})

	if _, ok := st.Remove("CA1"); !ok {
		t.Fatalf("first Remove should return the session")
	}
	if _, ok := st.Remove("CA1"); ok {
		t.Fatalf("second Remove must come up empty")
	}
	if st.Len() != 0 {
		t.Fatalf("Len = %d after remove", st.Len())
	}
}

func TestStore_ConcurrentUpdatesSerialize(t *testing.T) {
	st := NewStore(nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st.Update("CA1", func(s *Session) { s.Retries++ })
		}()
	}
	wg.Wait()

	got, _ := st.Get("CA1")
	if got.Retries != 50 {
		t.Fatalf("Retries = %d, want 50", got.Retries)
	}
}

func TestStore_EvictIdle(t *testing.T) {
	cur := time.Unix(1700000000, 0)
	st := NewStore(func() time.Time { return cur })

	st.Update("CA-old", func(s *Session) { s.AddCallerLine("hello") })
	cur = cur.Add(45 * time.Minute)
	st.Update("CA-fresh", func(s *Session) {})

	evicted := st.EvictIdle(30 * time.Minute)
	if len(evicted) != 1 || evicted[0].CallID != "CA-old" {
		t.Fatalf("evicted = %+v, want just CA-old", evicted)
	}
	if _, ok := st.Get("CA-old"); ok {
		t.Fatalf("evicted session still present")
	}
	if _, ok := st.Get("CA-fresh"); !ok {
		t.Fatalf("fresh session was evicted")
	}
}

func TestStore_SnapshotSorted(t *testing.T) {
	st := NewStore(nil)
	for _, id := range []string{"CA3", "CA1", "CA2"} {
		st.Update(id, func(s *Session) { s.AddAgentLine("hi") })
	}

	snap := st.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("snapshot size = %d", len(snap))
	}
	for i, want := range []string{"CA1", "CA2", "CA3"} {
		if snap[i].CallID != want {
			t.Fatalf("snapshot[%d] = %s, want %s", i, snap[i].CallID, want)
		}
		if snap[i].Lines != 1 {
			t.Fatalf("snapshot[%d].Lines = %d, want 1", i, snap[i].Lines)
		}
	}
}

func TestSession_AddAgentLineSkipsConsecutiveDuplicates(t *testing.T) {
	s := &Session{}
	s.AddAgentLine("hello there")
	s.AddAgentLine("hello there")
	s.AddCallerLine("hi")
	s.AddAgentLine("hello there")

	if len(s.Transcript) != 3 {
		t.Fatalf("transcript = %+v, want 3 lines", s.Transcript)
	}
}
