// Package audit implements the append-only campaign audit log.
//
// Every successful state transition of a campaign appends one immutable
// Record. The log is write-only from the core's perspective; external
// observers (dashboards, indexers) consume it through Subscribe or by
// reading a Store.
package audit

import (
	"sync"

	"github.com/google/uuid"
)

// Record is one immutable audit log entry.
type Record struct {
	Seq       uint64 `json:"seq"`
	ID        string `json:"id"`
	Op        string `json:"op"`
	Caller    string `json:"caller"`
	Amount    string `json:"amount,omitempty"` // decimal, operation dependent
	Phase     string `json:"phase"`            // campaign phase after the transition
	Milestone int    `json:"milestone"`        // current milestone index after the transition
	Time      uint64 `json:"time"`             // externally supplied operation time
}

// Log is an append-only audit log with optional persistence and live
// subscriptions. Appends are serialized with the campaign operations that
// produce them; subscriber delivery is best-effort and never blocks an
// append.
type Log struct {
	mu     sync.Mutex
	seq    uint64
	store  Store
	subs   map[int]chan Record
	nextID int
}

// NewLog creates an audit log. store may be nil for a feed-only log.
func NewLog(store Store) *Log {
	return &Log{store: store, subs: make(map[int]chan Record)}
}

// Append assigns the next sequence number and a fresh id to rec, persists it
// if a store is configured, and fans it out to subscribers. The returned
// record carries the assigned Seq and ID.
func (l *Log) Append(rec Record) (Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec.Seq = l.seq
	rec.ID = uuid.New().String()
	if l.store != nil {
		if err := l.store.Put(rec); err != nil {
			return Record{}, err
		}
	}
	l.seq++
	for _, ch := range l.subs {
		select {
		case ch <- rec:
		default: // slow subscriber, record dropped from its feed
		}
	}
	return rec, nil
}

// Len returns the number of records appended so far.
func (l *Log) Len() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seq
}

// Subscribe registers a buffered feed of future records. The returned cancel
// function removes the subscription and closes the channel.
func (l *Log) Subscribe(buffer int) (<-chan Record, func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextID
	l.nextID++
	ch := make(chan Record, buffer)
	l.subs[id] = ch
	return ch, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if sub, ok := l.subs[id]; ok {
			delete(l.subs, id)
			close(sub)
		}
	}
}
