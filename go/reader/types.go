// Package reader implements a multi-type event reader over a log-structured
// event-store transaction log (the "TF log"). It publishes, in strictly
// increasing log-position order, every event whose type belongs to a
// caller-supplied set, switching from a type-indexed read phase to a raw
// forward scan of the TF log once the index catches up with the present.
//
// A Coordinator has no internal locking: it follows a cooperative,
// single-threaded dispatch model, and the host must serialize every call
// into it (Dispatch, the OnX handlers, Start/Pause/Resume/Dispose, and
// Timer callbacks) under its own mailbox discipline.
package reader

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TfPos is a totally ordered position in the transaction log: a (commit,
// prepare) pair, ordered lexicographically. TfPosBefore denotes "before any
// event."
type TfPos struct {
	Commit  int64
	Prepare int64
}

// TfPosBefore is the sentinel position preceding any real event.
var TfPosBefore = TfPos{Commit: 0, Prepare: -10}

// Less reports whether p orders strictly before o.
func (p TfPos) Less(o TfPos) bool {
	if p.Commit != o.Commit {
		return p.Commit < o.Commit
	}
	return p.Prepare < o.Prepare
}

// LessOrEqual reports whether p orders at or before o.
func (p TfPos) LessOrEqual(o TfPos) bool {
	return p == o || p.Less(o)
}

func (p TfPos) String() string {
	return fmt.Sprintf("(%d,%d)", p.Commit, p.Prepare)
}

// EventRecord is the minimal payload carried by an event stored in the TF
// log: a stream-scoped sequence number, a type, its raw bytes, and (for
// events read directly off the TF log) the position at which it was
// committed.
type EventRecord struct {
	StreamId    string
	EventNumber int32
	EventId     uuid.UUID
	EventType   string
	Data        json.RawMessage
	Metadata    json.RawMessage
	IsJSON      bool
	Timestamp   time.Time
	// LogPosition is populated only for events read from the TF log
	// directly (the TF Reader's "original position"); events read via a
	// type-index stream carry their TfPos in the link's Metadata instead
	// (see ParseCheckpointTag).
	LogPosition TfPos
}

// ResolvedEvent pairs an EventRecord with the optional link event that
// resolved to it. When reading from a type-index stream, Link is the
// link-entry found in the stream and Event is the original event it
// resolves to; when reading from the TF log, Link is nil.
type ResolvedEvent struct {
	Event EventRecord
	Link  *EventRecord
}

// PositionEvent returns the link event when present, else the event itself.
// This is the record whose Metadata carries the checkpoint tag a type-index
// read must parse to recover the event's TfPos.
func (r ResolvedEvent) PositionEvent() EventRecord {
	if r.Link != nil {
		return *r.Link
	}
	return r.Event
}

// PendingEvent is a type-indexed event queued for delivery, already
// decorated with the TfPos and progress needed to merge it against other
// streams and to publish it. Event is the original event; PositionEvent is
// the link that resolved to it when one was present, else Event again.
type PendingEvent struct {
	Event         EventRecord
	PositionEvent EventRecord
	TfPos         TfPos
	Progress      float64
}

// Resolved reconstructs the ResolvedEvent this PendingEvent was built from:
// a link is present iff PositionEvent differs from Event.
func (p PendingEvent) Resolved() ResolvedEvent {
	if p.PositionEvent.EventId == p.Event.EventId && p.PositionEvent.StreamId == p.Event.StreamId {
		return ResolvedEvent{Event: p.Event}
	}
	link := p.PositionEvent
	return ResolvedEvent{Event: p.Event, Link: &link}
}

// StreamKey names a stream the Index Reader tracks: either a per-type
// index stream ("$et-<type>") or the checkpoint stream ("$et").
type StreamKey string

// CheckpointStreamKey is the meta-stream certifying type-index completeness.
const CheckpointStreamKey StreamKey = "$et"

// EventTypeStreamKey returns the type-index stream name for eventType.
func EventTypeStreamKey(eventType string) StreamKey {
	return StreamKey("$et-" + eventType)
}

// checkpointTag is the projection checkpoint document embedded in
// positionEvent.Metadata (index reads) and in $et event payloads
// (checkpoint-stream reads). Only $p is required by this reader; $v and $s
// are round-tripped by the surrounding projection system and are of no
// concern here.
type checkpointTag struct {
	Version string         `json:"$v"`
	Streams map[string]int `json:"$s"`
	Pos     checkpointPos  `json:"$p"`
}

type checkpointPos struct {
	Commit  int64 `json:"commit"`
	Prepare int64 `json:"prepare"`
}

// ParseCheckpointTag decodes a checkpoint-tag JSON document and returns the
// TfPos recorded under its "$p" key.
func ParseCheckpointTag(raw json.RawMessage) (TfPos, error) {
	if len(raw) == 0 {
		return TfPos{}, fmt.Errorf("%w: empty checkpoint tag", ErrProtocolViolation)
	}
	var tag checkpointTag
	if err := json.Unmarshal(raw, &tag); err != nil {
		return TfPos{}, fmt.Errorf("decoding checkpoint tag: %w", err)
	}
	return TfPos{Commit: tag.Pos.Commit, Prepare: tag.Pos.Prepare}, nil
}
