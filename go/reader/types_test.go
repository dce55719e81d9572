package reader

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestTfPos_Ordering(t *testing.T) {
	require.True(t, TfPos{Commit: 1, Prepare: 0}.Less(TfPos{Commit: 2, Prepare: 0}))
	require.True(t, TfPos{Commit: 1, Prepare: 0}.Less(TfPos{Commit: 1, Prepare: 1}))
	require.False(t, TfPos{Commit: 1, Prepare: 1}.Less(TfPos{Commit: 1, Prepare: 1}))
	require.True(t, TfPos{Commit: 1, Prepare: 1}.LessOrEqual(TfPos{Commit: 1, Prepare: 1}))
	require.True(t, TfPosBefore.Less(TfPos{}))
}

func TestParseCheckpointTag(t *testing.T) {
	raw := json.RawMessage(`{"$v":"v1","$s":{"a":1},"$p":{"commit":10,"prepare":20}}`)
	pos, err := ParseCheckpointTag(raw)
	require.NoError(t, err)
	require.Equal(t, TfPos{Commit: 10, Prepare: 20}, pos)
}

func TestParseCheckpointTag_EmptyIsProtocolViolation(t *testing.T) {
	_, err := ParseCheckpointTag(nil)
	require.True(t, errors.Is(err, ErrProtocolViolation))
}

func TestPendingEvent_Resolved(t *testing.T) {
	original := EventRecord{StreamId: "s-1", EventId: uuid.New()}

	withoutLink := PendingEvent{Event: original, PositionEvent: original}
	resolved := withoutLink.Resolved()
	require.Nil(t, resolved.Link)
	require.Equal(t, original, resolved.Event)

	link := EventRecord{StreamId: "$et-A", EventId: uuid.New()}
	withLink := PendingEvent{Event: original, PositionEvent: link}
	resolved = withLink.Resolved()
	require.NotNil(t, resolved.Link)
	require.Equal(t, link, *resolved.Link)
	require.Equal(t, original, resolved.Event)
}

func TestEventTypeStreamKey(t *testing.T) {
	require.Equal(t, StreamKey("$et-Foo"), EventTypeStreamKey("Foo"))
}
