package eventstore

import (
	"context"
	"fmt"

	apperrors "github.com/louisbranch/contentrepository/internal/platform/errors"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/event"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"
)

// LoadWithAncestry returns the logical history of a content stream: the
// history of its fork source up to the fork version, followed by its own
// records. Fork markers are kept in place.
func LoadWithAncestry(ctx context.Context, store Store, id node.ContentStreamID) ([]Record, error) {
	if store == nil {
		return nil, fmt.Errorf("event store is required")
	}

	var segments [][]Record
	visited := make(map[node.ContentStreamID]bool)
	current := id
	bounded := false
	upTo := NoVersion

	for {
		if visited[current] {
			return nil, apperrors.WithMetadata(apperrors.CodeContentStreamLineageIsCorrupted,
				fmt.Sprintf("content stream %s appears twice in its own ancestry", current),
				map[string]string{"ContentStreamID": string(current)})
		}
		visited[current] = true

		records, err := store.Load(ctx, event.ContentStreamStreamName(current), NoVersion)
		if err != nil {
			return nil, err
		}
		if bounded {
			records = truncate(records, upTo)
		}
		segments = append(segments, records)

		if len(records) == 0 {
			break
		}
		fork, ok := records[0].Event.(event.ContentStreamWasForked)
		if !ok {
			break
		}
		current = fork.SourceContentStreamID
		bounded = true
		upTo = fork.VersionOfSourceContentStream
	}

	var history []Record
	for i := len(segments) - 1; i >= 0; i-- {
		history = append(history, segments[i]...)
	}
	return history, nil
}

// OwnRecords returns the records of a stream written after its fork marker.
func OwnRecords(ctx context.Context, store Store, id node.ContentStreamID) ([]Record, error) {
	if store == nil {
		return nil, fmt.Errorf("event store is required")
	}
	records, err := store.Load(ctx, event.ContentStreamStreamName(id), NoVersion)
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(records))
	for _, record := range records {
		switch record.Event.(type) {
		case event.ContentStreamWasCreated, event.ContentStreamWasForked, event.ContentStreamWasClosed, event.ContentStreamWasRemoved:
			continue
		}
		out = append(out, record)
	}
	return out, nil
}

func truncate(records []Record, upTo int64) []Record {
	out := records[:0:0]
	for _, record := range records {
		if record.Version <= upTo {
			out = append(out, record)
		}
	}
	return out
}
