package event

import (
	"encoding/json"
	"fmt"

	apperrors "github.com/louisbranch/contentrepository/internal/platform/errors"
)

// Encode serializes the event payload as a flat JSON object.
func Encode(evt Event) ([]byte, error) {
	if evt == nil {
		return nil, fmt.Errorf("event is required")
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", evt.EventType(), err)
	}
	return data, nil
}

// Decode rebuilds an event of the given type from its payload.
func Decode(eventType Type, payload []byte) (Event, error) {
	switch eventType {
	case TypeContentStreamWasCreated:
		return decodeAs[ContentStreamWasCreated](eventType, payload)
	case TypeContentStreamWasForked:
		return decodeAs[ContentStreamWasForked](eventType, payload)
	case TypeContentStreamWasClosed:
		return decodeAs[ContentStreamWasClosed](eventType, payload)
	case TypeContentStreamWasRemoved:
		return decodeAs[ContentStreamWasRemoved](eventType, payload)
	case TypeRootWorkspaceWasCreated:
		return decodeAs[RootWorkspaceWasCreated](eventType, payload)
	case TypeWorkspaceWasCreated:
		return decodeAs[WorkspaceWasCreated](eventType, payload)
	case TypeWorkspaceWasRebased:
		return decodeAs[WorkspaceWasRebased](eventType, payload)
	case TypeWorkspaceRebaseFailed:
		return decodeAs[WorkspaceRebaseFailed](eventType, payload)
	case TypeWorkspaceWasPublished:
		return decodeAs[WorkspaceWasPublished](eventType, payload)
	case TypeWorkspaceWasPartiallyPublished:
		return decodeAs[WorkspaceWasPartiallyPublished](eventType, payload)
	case TypeWorkspaceWasDiscarded:
		return decodeAs[WorkspaceWasDiscarded](eventType, payload)
	case TypeWorkspaceWasPartiallyDiscarded:
		return decodeAs[WorkspaceWasPartiallyDiscarded](eventType, payload)
	case TypeRootNodeAggregateWithNodeWasCreated:
		return decodeAs[RootNodeAggregateWithNodeWasCreated](eventType, payload)
	case TypeNodeAggregateWithNodeWasCreated:
		return decodeAs[NodeAggregateWithNodeWasCreated](eventType, payload)
	case TypeNodePropertiesWereSet:
		return decodeAs[NodePropertiesWereSet](eventType, payload)
	case TypeNodeReferencesWereSet:
		return decodeAs[NodeReferencesWereSet](eventType, payload)
	case TypeNodeAggregateWasDisabled:
		return decodeAs[NodeAggregateWasDisabled](eventType, payload)
	case TypeNodeAggregateWasEnabled:
		return decodeAs[NodeAggregateWasEnabled](eventType, payload)
	case TypeNodeAggregateWasRemoved:
		return decodeAs[NodeAggregateWasRemoved](eventType, payload)
	case TypeNodeSpecializationVariantWasCreated:
		return decodeAs[NodeSpecializationVariantWasCreated](eventType, payload)
	case TypeNodeGeneralizationVariantWasCreated:
		return decodeAs[NodeGeneralizationVariantWasCreated](eventType, payload)
	case TypeNodePeerVariantWasCreated:
		return decodeAs[NodePeerVariantWasCreated](eventType, payload)
	case TypeNodeAggregateNameWasChanged:
		return decodeAs[NodeAggregateNameWasChanged](eventType, payload)
	case TypeNodeAggregateTypeWasChanged:
		return decodeAs[NodeAggregateTypeWasChanged](eventType, payload)
	case TypeNodeAggregateWasMoved:
		return decodeAs[NodeAggregateWasMoved](eventType, payload)
	case TypeSubtreeWasTagged:
		return decodeAs[SubtreeWasTagged](eventType, payload)
	case TypeSubtreeWasUntagged:
		return decodeAs[SubtreeWasUntagged](eventType, payload)
	default:
		return nil, apperrors.WithMetadata(apperrors.CodeUnknownEventType,
			fmt.Sprintf("unknown event type %q", eventType),
			map[string]string{"EventType": string(eventType)})
	}
}

func decodeAs[T Event](eventType Type, payload []byte) (Event, error) {
	var evt T
	if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, fmt.Errorf("decode %s: %w", eventType, err)
	}
	return evt, nil
}
