package matchmaking

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/DoyleJ11/wordbattle-backend/internal/types"
	"github.com/DoyleJ11/wordbattle-backend/pkg/protocol"
)

type Entry struct {
	protocol.Identity
	Conn       types.Sender
	EnqueuedAt time.Time
}

type Pair [2]Entry

// Queue pairs waiting players first in, first out. Every method is a
// critical section, so an entry can only ever be claimed by one pairing.
type Queue struct {
	mu      sync.Mutex
	entries []Entry
	clock   clockwork.Clock
}

func NewQueue(clock clockwork.Clock) *Queue {
	return &Queue{clock: clock}
}

// Enqueue inserts e, replacing any earlier entry for the same user. Once two
// players are waiting the two oldest are removed and returned as a pair.
func (q *Queue) Enqueue(e Entry) (Pair, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.remove(e.UserID)
	e.EnqueuedAt = q.clock.Now()
	q.entries = append(q.entries, e)

	if len(q.entries) < 2 {
		return Pair{}, false
	}
	pair := Pair{q.entries[0], q.entries[1]}
	q.entries = append([]Entry(nil), q.entries[2:]...)
	return pair, true
}

// Leave removes the user's entry. It reports whether one was queued.
func (q *Queue) Leave(userID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.remove(userID)
}

func (q *Queue) Contains(userID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range q.entries {
		if e.UserID == userID {
			return true
		}
	}
	return false
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

func (q *Queue) remove(userID string) bool {
	for i, e := range q.entries {
		if e.UserID == userID {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}
