package eventstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/event"
)

// Memory is an in-memory Store.
type Memory struct {
	mu       sync.RWMutex
	streams  map[event.StreamName][]Record
	all      []Record
	sequence uint64
	now      func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		streams: make(map[event.StreamName][]Record),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Load returns the records of one stream after a version.
func (m *Memory) Load(ctx context.Context, stream event.StreamName, afterVersion int64) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("event store is required")
	}
	if stream == event.AllStreams {
		return m.LoadAll(ctx, 0, 0)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	records := m.streams[stream]
	out := make([]Record, 0, len(records))
	for _, record := range records {
		if record.Version > afterVersion {
			out = append(out, record)
		}
	}
	return out, nil
}

// LoadAll returns records of every stream in commit order. A limit of zero
// loads everything.
func (m *Memory) LoadAll(ctx context.Context, afterSequence uint64, limit int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("event store is required")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Record
	for _, record := range m.all {
		if record.Sequence <= afterSequence {
			continue
		}
		out = append(out, record)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Commit appends events atomically.
func (m *Memory) Commit(ctx context.Context, stream event.StreamName, events []Pending, expected ExpectedVersion) (CommitResult, error) {
	if err := ctx.Err(); err != nil {
		return CommitResult{}, err
	}
	if m == nil {
		return CommitResult{}, fmt.Errorf("event store is required")
	}
	if stream == "" || stream == event.AllStreams {
		return CommitResult{}, fmt.Errorf("stream name %q cannot be written", stream)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.versionLocked(stream)
	if !expected.Matches(current) {
		return CommitResult{}, NewConcurrencyConflict(stream, expected, current)
	}
	if len(events) == 0 {
		return CommitResult{Version: current, Sequence: m.sequence}, nil
	}

	recordedAt := m.now()
	records := make([]Record, 0, len(events))
	sequence := m.sequence
	for i, pending := range events {
		record, err := EncodeRecord(stream, current+int64(i)+1, pending)
		if err != nil {
			return CommitResult{}, fmt.Errorf("event %d: %w", i, err)
		}
		// Decoding the payload detaches the stored event from the caller.
		decoded, err := event.Decode(record.Type, record.Payload)
		if err != nil {
			return CommitResult{}, fmt.Errorf("event %d: %w", i, err)
		}
		sequence++
		record.Event = decoded
		record.Sequence = sequence
		record.RecordedAt = recordedAt
		records = append(records, record)
	}

	m.sequence = sequence
	m.streams[stream] = append(m.streams[stream], records...)
	m.all = append(m.all, records...)

	last := records[len(records)-1]
	return CommitResult{Version: last.Version, Sequence: last.Sequence, Records: records}, nil
}

// StreamVersion returns the version of the last event of a stream.
func (m *Memory) StreamVersion(ctx context.Context, stream event.StreamName) (int64, error) {
	if err := ctx.Err(); err != nil {
		return NoVersion, err
	}
	if m == nil {
		return NoVersion, fmt.Errorf("event store is required")
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.versionLocked(stream), nil
}

// DeleteStream removes a stream. The global sequence is not reused.
func (m *Memory) DeleteStream(ctx context.Context, stream event.StreamName) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("event store is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.streams[stream]; !ok {
		return nil
	}
	delete(m.streams, stream)
	kept := m.all[:0]
	for _, record := range m.all {
		if record.StreamName != stream {
			kept = append(kept, record)
		}
	}
	m.all = kept
	return nil
}

func (m *Memory) versionLocked(stream event.StreamName) int64 {
	records := m.streams[stream]
	if len(records) == 0 {
		return NoVersion
	}
	return records[len(records)-1].Version
}
