package reader

import (
	"encoding/json"
	"testing"

	"github.com/bradleyjkemp/cupaloy"
	"github.com/nsf/jsondiff"
	"github.com/stretchr/testify/require"
)

// deliveredSummary is the flattened shape snapshotted below -- just enough
// of each CommittedEventDistributed to make an ordering regression visible
// in a diff, without pinning down incidental fields like event IDs.
type deliveredSummary struct {
	EventType string `json:"eventType"`
	Commit    int64  `json:"commit"`
	Prepare   int64  `json:"prepare"`
	FromIndex bool   `json:"fromIndex"`
}

// TestIntegration_OrderedDeliverySequence drives a full index-then-TF run
// across three types and snapshots the resulting delivery order, the same
// "build up state, drive reads, observe ordered output" shape as a
// consumer-shuffle integration test.
func TestIntegration_OrderedDeliverySequence(t *testing.T) {
	h := newHarness(t, baseOptions("A", "B", "C"))
	h.c.Start()

	h.popCheckpointBackward(ResultSuccess, []ResolvedEvent{
		checkpointEvent(t, 0, 100, 0),
	})

	h.popStreamForward(EventTypeStreamKey("A"), ResultSuccess, []ResolvedEvent{
		indexEvent(t, "A", "s", 0, "$et-A", 0, 10, 0),
		indexEvent(t, "A", "s", 1, "$et-A", 1, 40, 0),
	}, 2, 2)
	h.popStreamForward(EventTypeStreamKey("B"), ResultSuccess, []ResolvedEvent{
		indexEvent(t, "B", "s", 0, "$et-B", 0, 20, 0),
	}, 1, 1)
	h.popStreamForward(EventTypeStreamKey("C"), ResultSuccess, []ResolvedEvent{
		indexEvent(t, "C", "s", 0, "$et-C", 0, 30, 0),
	}, 1, 1)

	// Drain every stream below the checkpoint so the reader is free to
	// switch to TfMode and pick up the remainder past commit 100.
	h.popStreamForward(EventTypeStreamKey("B"), ResultNoStream, nil, 0, 0)
	h.popStreamForward(EventTypeStreamKey("C"), ResultNoStream, nil, 0, 0)
	h.popStreamForward(EventTypeStreamKey("A"), ResultNoStream, nil, 0, 0)

	h.popTfRead(ResultSuccess, []ResolvedEvent{
		tfEvent("B", 150, 0),
		tfEvent("A", 200, 0),
	}, TfPos{Commit: 250, Prepare: 0}, 250)

	var got []deliveredSummary
	for _, msg := range h.sub.Committed {
		require.NotNil(t, msg.SafeJoinPos)
		got = append(got, deliveredSummary{
			EventType: msg.ResolvedEvent.Event.EventType,
			Commit:    msg.SafeJoinPos.Commit,
			Prepare:   msg.SafeJoinPos.Prepare,
			FromIndex: msg.ResolvedEvent.Link != nil,
		})
	}

	gotJSON, err := json.Marshal(got)
	require.NoError(t, err)

	// TF-mode deliveries carry only the prepare position in SafeJoinPos
	// (Commit left zero); index deliveries carry the full TfPos.
	const wantJSON = `[` +
		`{"eventType":"A","commit":10,"prepare":0,"fromIndex":true},` +
		`{"eventType":"B","commit":20,"prepare":0,"fromIndex":true},` +
		`{"eventType":"C","commit":30,"prepare":0,"fromIndex":true},` +
		`{"eventType":"A","commit":40,"prepare":0,"fromIndex":true},` +
		`{"eventType":"B","commit":0,"prepare":0,"fromIndex":false},` +
		`{"eventType":"A","commit":0,"prepare":0,"fromIndex":false}` +
		`]`

	diffOptions := jsondiff.DefaultConsoleOptions()
	mode, diff := jsondiff.Compare(gotJSON, []byte(wantJSON), &diffOptions)
	require.Containsf(t, []jsondiff.Difference{jsondiff.FullMatch, jsondiff.SupersetMatch}, mode,
		"delivered sequence mismatch:\n%s", diff)

	cupaloy.SnapshotT(t, got)
}
