package delivery

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/ayo6706/transfer-saga/internal/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ping struct {
	DeliveryID int64  `json:"delivery_id"`
	Note       string `json:"note"`
}

func init() {
	codec.Default.Register("delivery_test.ping", ping{})
}

func build(note string) func(int64) any {
	return func(id int64) any { return ping{DeliveryID: id, Note: note} }
}

func TestSnapshot_DeliverAndConfirm(t *testing.T) {
	var s Snapshot
	s = s.Deliver("a", build("first"))
	s = s.Deliver("b", build("second"))

	assert.Equal(t, int64(2), s.CurrentDeliveryID)
	assert.Equal(t, 2, s.Len())
	_, ok := s.Lookup(1)
	assert.True(t, ok)
	assert.Equal(t, ping{DeliveryID: 2, Note: "second"}, s.Unconfirmed[1].Message)

	next, ok := s.Confirm(1)
	require.True(t, ok)
	_, ok = next.Lookup(1)
	assert.False(t, ok)
	_, ok = s.Lookup(1)
	assert.True(t, ok, "confirm must not alter the original snapshot")

	_, ok = next.Confirm(1)
	assert.False(t, ok)

	next = next.Deliver("a", build("third"))
	assert.Equal(t, int64(3), next.CurrentDeliveryID)
	assert.Len(t, next.Since(2), 1)
}

func TestSnapshot_JSONRoundTrip(t *testing.T) {
	var s Snapshot
	s = s.Deliver("dest", build("payload"))

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded Snapshot
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, s, decoded)
}

func TestTracker_Due(t *testing.T) {
	tr := NewTracker(100 * time.Millisecond)
	now := time.Now()

	var s Snapshot
	s = s.Deliver("a", build("x"))
	s = s.Deliver("a", build("y"))

	assert.Len(t, tr.Due(s, now), 2, "never sent deliveries are due")

	tr.Sent(1, now)
	tr.Sent(2, now)
	assert.Empty(t, tr.Due(s, now.Add(50*time.Millisecond)))
	assert.Len(t, tr.Due(s, now.Add(100*time.Millisecond)), 2)

	s, _ = s.Confirm(1)
	due := tr.Due(s, now.Add(time.Second))
	require.Len(t, due, 1)
	assert.Equal(t, int64(2), due[0].DeliveryID)
	_, tracked := tr.sent[1]
	assert.False(t, tracked)
}
