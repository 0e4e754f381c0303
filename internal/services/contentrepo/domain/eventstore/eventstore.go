// Package eventstore defines the append-only event log contract used by the
// content repository and an in-memory implementation of it.
package eventstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	apperrors "github.com/louisbranch/contentrepository/internal/platform/errors"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/event"
)

// ErrConcurrencyConflict reports an expected-version mismatch. Nothing of the
// rejected batch was appended.
var ErrConcurrencyConflict = apperrors.New(apperrors.CodeConcurrencyConflict, "expected version mismatch")

// NoVersion is the version of a stream without events.
const NoVersion int64 = -1

type expectation int

const (
	expectAny expectation = iota
	expectNoStream
	expectExactly
)

// ExpectedVersion is the optimistic concurrency guard of a commit.
type ExpectedVersion struct {
	kind    expectation
	version int64
}

// Any accepts whatever version the stream is at.
func Any() ExpectedVersion { return ExpectedVersion{kind: expectAny} }

// NoStream requires the stream to have no events.
func NoStream() ExpectedVersion { return ExpectedVersion{kind: expectNoStream, version: NoVersion} }

// Exactly requires the stream's last event to carry version.
func Exactly(version int64) ExpectedVersion {
	return ExpectedVersion{kind: expectExactly, version: version}
}

// Matches reports whether a stream at current satisfies the expectation.
func (e ExpectedVersion) Matches(current int64) bool {
	switch e.kind {
	case expectNoStream:
		return current == NoVersion
	case expectExactly:
		return current == e.version
	default:
		return true
	}
}

func (e ExpectedVersion) String() string {
	switch e.kind {
	case expectNoStream:
		return "no-stream"
	case expectExactly:
		return strconv.FormatInt(e.version, 10)
	default:
		return "any"
	}
}

// Pending is an event waiting to be committed.
type Pending struct {
	Event    event.Event
	Metadata event.Metadata
}

// EventsToPublish is what every command handler returns: one atomic batch for
// one stream, guarded by an expected version.
type EventsToPublish struct {
	StreamName      event.StreamName
	Events          []Pending
	ExpectedVersion ExpectedVersion
}

// NewEventsToPublish builds a batch without metadata.
func NewEventsToPublish(stream event.StreamName, expected ExpectedVersion, events ...event.Event) EventsToPublish {
	pending := make([]Pending, 0, len(events))
	for _, evt := range events {
		pending = append(pending, Pending{Event: evt})
	}
	return EventsToPublish{StreamName: stream, Events: pending, ExpectedVersion: expected}
}

// WithCommandMetadata attaches metadata to the first event unless a handler
// already did.
func (p EventsToPublish) WithCommandMetadata(metadata event.Metadata) EventsToPublish {
	if len(p.Events) == 0 || !p.Events[0].Metadata.IsZero() {
		return p
	}
	events := make([]Pending, len(p.Events))
	copy(events, p.Events)
	events[0].Metadata = metadata
	p.Events = events
	return p
}

// WithInitiatingUser stamps every event of the batch with userID. An empty id
// leaves the batch untouched.
func (p EventsToPublish) WithInitiatingUser(userID string) EventsToPublish {
	if userID == "" || len(p.Events) == 0 {
		return p
	}
	events := make([]Pending, len(p.Events))
	copy(events, p.Events)
	for i := range events {
		events[i].Metadata.InitiatingUserID = userID
	}
	p.Events = events
	return p
}

// IsEmpty reports whether the batch carries no events.
func (p EventsToPublish) IsEmpty() bool { return len(p.Events) == 0 }

// Record is a committed event.
type Record struct {
	Sequence   uint64
	StreamName event.StreamName
	Version    int64
	Type       event.Type
	Payload    []byte
	Metadata   event.Metadata
	RecordedAt time.Time
	Event      event.Event
}

// CommitResult describes the last record of a committed batch.
type CommitResult struct {
	Version  int64
	Sequence uint64
	Records  []Record
}

// Store is the append-only event log.
type Store interface {
	// Load returns the records of one stream with a version above afterVersion.
	// Passing NoVersion loads the whole stream.
	Load(ctx context.Context, stream event.StreamName, afterVersion int64) ([]Record, error)
	// LoadAll returns up to limit records of every stream in commit order with
	// a sequence above afterSequence.
	LoadAll(ctx context.Context, afterSequence uint64, limit int) ([]Record, error)
	// Commit appends the events atomically when expected matches.
	Commit(ctx context.Context, stream event.StreamName, events []Pending, expected ExpectedVersion) (CommitResult, error)
	// StreamVersion returns the version of the last event, or NoVersion.
	StreamVersion(ctx context.Context, stream event.StreamName) (int64, error)
	// DeleteStream removes every record of the stream.
	DeleteStream(ctx context.Context, stream event.StreamName) error
}

// Publish commits a handler batch.
func Publish(ctx context.Context, store Store, batch EventsToPublish) (CommitResult, error) {
	if store == nil {
		return CommitResult{}, fmt.Errorf("event store is required")
	}
	return store.Commit(ctx, batch.StreamName, batch.Events, batch.ExpectedVersion)
}

// NewConcurrencyConflict reports that stream is at actual instead of expected.
func NewConcurrencyConflict(stream event.StreamName, expected ExpectedVersion, actual int64) error {
	return apperrors.WithMetadata(apperrors.CodeConcurrencyConflict,
		fmt.Sprintf("stream %s is at version %d, expected %s", stream, actual, expected),
		map[string]string{
			"StreamName":      string(stream),
			"ExpectedVersion": expected.String(),
			"ActualVersion":   strconv.FormatInt(actual, 10),
		})
}

// EncodeRecord serializes one pending event into a record at version. The
// sequence and recording time are left to the store.
func EncodeRecord(stream event.StreamName, version int64, pending Pending) (Record, error) {
	if pending.Event == nil {
		return Record{}, fmt.Errorf("event is required")
	}
	payload, err := event.Encode(pending.Event)
	if err != nil {
		return Record{}, err
	}
	return Record{
		StreamName: stream,
		Version:    version,
		Type:       pending.Event.EventType(),
		Payload:    payload,
		Metadata:   pending.Metadata,
		Event:      pending.Event,
	}, nil
}
