// Package delivery keeps the table of outbound messages that have been sent
// at least once but not yet acknowledged. The table is a value: every change
// returns a new Snapshot, which lets an entity embed it in its persisted state.
package delivery

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ayo6706/transfer-saga/internal/codec"
)

// Unconfirmed is one outbound message waiting for an acknowledgment.
type Unconfirmed struct {
	DeliveryID  int64
	Destination string
	Message     any
}

type unconfirmedJSON struct {
	DeliveryID  int64          `json:"delivery_id"`
	Destination string         `json:"destination"`
	Message     codec.Envelope `json:"message"`
}

func (u Unconfirmed) MarshalJSON() ([]byte, error) {
	env, err := codec.Default.Wrap(u.Message)
	if err != nil {
		return nil, fmt.Errorf("delivery %d: %w", u.DeliveryID, err)
	}
	return json.Marshal(unconfirmedJSON{
		DeliveryID:  u.DeliveryID,
		Destination: u.Destination,
		Message:     env,
	})
}

func (u *Unconfirmed) UnmarshalJSON(data []byte) error {
	var raw unconfirmedJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	msg, err := codec.Default.Unwrap(raw.Message)
	if err != nil {
		return fmt.Errorf("delivery %d: %w", raw.DeliveryID, err)
	}
	u.DeliveryID = raw.DeliveryID
	u.Destination = raw.Destination
	u.Message = msg
	return nil
}

// Snapshot is the full at-least-once delivery state of one sender.
type Snapshot struct {
	CurrentDeliveryID int64         `json:"current_delivery_id"`
	Unconfirmed       []Unconfirmed `json:"unconfirmed"`
}

// Deliver issues the next delivery id and records the message built for it.
func (s Snapshot) Deliver(destination string, build func(deliveryID int64) any) Snapshot {
	id := s.CurrentDeliveryID + 1
	next := Snapshot{
		CurrentDeliveryID: id,
		Unconfirmed:       make([]Unconfirmed, 0, len(s.Unconfirmed)+1),
	}
	next.Unconfirmed = append(next.Unconfirmed, s.Unconfirmed...)
	next.Unconfirmed = append(next.Unconfirmed, Unconfirmed{
		DeliveryID:  id,
		Destination: destination,
		Message:     build(id),
	})
	return next
}

// Confirm removes deliveryID. The boolean reports whether it was pending.
func (s Snapshot) Confirm(deliveryID int64) (Snapshot, bool) {
	next := Snapshot{CurrentDeliveryID: s.CurrentDeliveryID}
	found := false
	for _, u := range s.Unconfirmed {
		if u.DeliveryID == deliveryID {
			found = true
			continue
		}
		next.Unconfirmed = append(next.Unconfirmed, u)
	}
	return next, found
}

// Lookup returns the unconfirmed delivery with deliveryID.
func (s Snapshot) Lookup(deliveryID int64) (Unconfirmed, bool) {
	for _, u := range s.Unconfirmed {
		if u.DeliveryID == deliveryID {
			return u, true
		}
	}
	return Unconfirmed{}, false
}

// Since returns the unconfirmed deliveries issued after deliveryID.
func (s Snapshot) Since(deliveryID int64) []Unconfirmed {
	var out []Unconfirmed
	for _, u := range s.Unconfirmed {
		if u.DeliveryID > deliveryID {
			out = append(out, u)
		}
	}
	return out
}

// Len returns the number of unconfirmed deliveries.
func (s Snapshot) Len() int {
	return len(s.Unconfirmed)
}

// Tracker remembers when each delivery was last transmitted. It lives in memory
// only, so after a restart every unconfirmed delivery is immediately due.
type Tracker struct {
	interval time.Duration
	sent     map[int64]time.Time
}

func NewTracker(interval time.Duration) *Tracker {
	return &Tracker{interval: interval, sent: make(map[int64]time.Time)}
}

// Interval is the minimum time between two transmissions of the same delivery.
func (t *Tracker) Interval() time.Duration {
	return t.interval
}

// Sent records a transmission of deliveryID at now.
func (t *Tracker) Sent(deliveryID int64, now time.Time) {
	t.sent[deliveryID] = now
}

// Due returns the deliveries of s that have not been transmitted within the interval,
// and drops bookkeeping for deliveries that are no longer pending.
func (t *Tracker) Due(s Snapshot, now time.Time) []Unconfirmed {
	pending := make(map[int64]struct{}, len(s.Unconfirmed))
	var due []Unconfirmed
	for _, u := range s.Unconfirmed {
		pending[u.DeliveryID] = struct{}{}
		last, ok := t.sent[u.DeliveryID]
		if !ok || now.Sub(last) >= t.interval {
			due = append(due, u)
		}
	}
	for id := range t.sent {
		if _, ok := pending[id]; !ok {
			delete(t.sent, id)
		}
	}
	return due
}
