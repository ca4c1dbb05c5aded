package reservation

import (
	"sync"

	"spotwise/internal/pkg/errs"
)

// StatusEvent is one record from the resStatus feed.
type StatusEvent struct {
	ReservationID string
	ResStatus     Status
	SlotID        int
}

// Notice is a user-visible message the store surfaces on inbound decline
// events. It is delivered at most once per declined reservation id even
// when the feed redelivers the same event.
type Notice struct {
	ReservationID string
	Message       string
}

// Store is the single holder of the user's reservation state. All mutations
// go through Apply, which runs the transform against the latest committed
// snapshot under the lock. Watchers receive every committed snapshot.
type Store struct {
	mu       sync.Mutex
	current  Snapshot
	declined map[string]struct{}

	watchMu  sync.Mutex
	nextID   int
	watchers map[int]func(Snapshot)
	notices  map[int]func(Notice)
}

func NewStore() *Store {
	return &Store{
		current:  Inactive(),
		declined: make(map[string]struct{}),
		watchers: make(map[int]func(Snapshot)),
		notices:  make(map[int]func(Notice)),
	}
}

func (s *Store) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Apply commits a transform atomically. On error nothing changes and no
// watcher fires. A transform returning the unchanged snapshot is a no-op
// and is not republished.
func (s *Store) Apply(t Transform) (Snapshot, error) {
	s.mu.Lock()
	next, err := t(s.current)
	if err != nil {
		s.mu.Unlock()
		return s.current, err
	}
	if next == s.current {
		s.mu.Unlock()
		return next, nil
	}
	if invErr := next.checkInvariant(); invErr != nil {
		s.mu.Unlock()
		return s.current, errs.Mark(invErr, errs.ErrInvalidTransition)
	}
	s.current = next
	s.mu.Unlock()

	s.publish(next)
	return next, nil
}

// HandleStatusEvent routes one resStatus feed record. Events whose id does
// not match the current reservation are stale and dropped. Redelivered
// events are idempotent.
func (s *Store) HandleStatusEvent(ev StatusEvent) {
	s.mu.Lock()
	cur := s.current
	if !cur.Matches(ev.ReservationID) {
		s.mu.Unlock()
		return
	}

	var next Snapshot
	switch ev.ResStatus {
	case StatusApproval, StatusAccepted:
		if !canTransition(cur.Status, ev.ResStatus) {
			s.mu.Unlock()
			return
		}
		next = cur
		next.Status = ev.ResStatus
	case StatusDeclined:
		if !canTransition(cur.Status, StatusDeclined) {
			s.mu.Unlock()
			return
		}
		// Declined is transient: fields clear in the same commit, so no
		// consumer ever observes a declined snapshot with stale slot data.
		next = Inactive()
	default:
		s.mu.Unlock()
		return
	}

	s.current = next
	var notice *Notice
	if ev.ResStatus == StatusDeclined {
		if _, seen := s.declined[ev.ReservationID]; !seen {
			s.declined[ev.ReservationID] = struct{}{}
			notice = &Notice{
				ReservationID: ev.ReservationID,
				Message:       "Your reservation request has been declined.",
			}
		}
	}
	s.mu.Unlock()

	s.publish(next)
	if notice != nil {
		s.publishNotice(*notice)
	}
}

// Watch registers a snapshot consumer. The returned cancel is idempotent.
func (s *Store) Watch(fn func(Snapshot)) func() {
	s.watchMu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = fn
	s.watchMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.watchMu.Lock()
			delete(s.watchers, id)
			s.watchMu.Unlock()
		})
	}
}

// OnNotice registers a consumer for user-visible notices (declines).
func (s *Store) OnNotice(fn func(Notice)) func() {
	s.watchMu.Lock()
	id := s.nextID
	s.nextID++
	s.notices[id] = fn
	s.watchMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.watchMu.Lock()
			delete(s.notices, id)
			s.watchMu.Unlock()
		})
	}
}

func (s *Store) publish(snap Snapshot) {
	s.watchMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	s.watchMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (s *Store) publishNotice(n Notice) {
	s.watchMu.Lock()
	fns := make([]func(Notice), 0, len(s.notices))
	for _, fn := range s.notices {
		fns = append(fns, fn)
	}
	s.watchMu.Unlock()

	for _, fn := range fns {
		fn(n)
	}
}
