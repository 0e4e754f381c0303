package command

import (
	"encoding/json"
	"fmt"

	apperrors "github.com/louisbranch/contentrepository/internal/platform/errors"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/event"
)

// Encode serializes the command as a flat JSON object.
func Encode(cmd Command) ([]byte, error) {
	if cmd == nil {
		return nil, fmt.Errorf("command is required")
	}
	data, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", cmd.CommandType(), err)
	}
	return data, nil
}

// Decode rebuilds a command of the given type from its payload.
func Decode(commandType Type, payload []byte) (Command, error) {
	switch commandType {
	case TypeCreateContentStream:
		return decodeAs[CreateContentStream](commandType, payload)
	case TypeForkContentStream:
		return decodeAs[ForkContentStream](commandType, payload)
	case TypeCloseContentStream:
		return decodeAs[CloseContentStream](commandType, payload)
	case TypeRemoveContentStream:
		return decodeAs[RemoveContentStream](commandType, payload)
	case TypeCreateRootWorkspace:
		return decodeAs[CreateRootWorkspace](commandType, payload)
	case TypeCreateWorkspace:
		return decodeAs[CreateWorkspace](commandType, payload)
	case TypeRebaseWorkspace:
		return decodeAs[RebaseWorkspace](commandType, payload)
	case TypePublishWorkspace:
		return decodeAs[PublishWorkspace](commandType, payload)
	case TypePublishIndividualNodesFromWorkspace:
		return decodeAs[PublishIndividualNodesFromWorkspace](commandType, payload)
	case TypeDiscardWorkspace:
		return decodeAs[DiscardWorkspace](commandType, payload)
	case TypeDiscardIndividualNodesFromWorkspace:
		return decodeAs[DiscardIndividualNodesFromWorkspace](commandType, payload)
	case TypeCreateRootNodeAggregateWithNode:
		return decodeAs[CreateRootNodeAggregateWithNode](commandType, payload)
	case TypeCreateNodeAggregateWithNode:
		return decodeAs[CreateNodeAggregateWithNode](commandType, payload)
	case TypeSetSerializedNodeProperties:
		return decodeAs[SetSerializedNodeProperties](commandType, payload)
	case TypeSetSerializedNodeReferences:
		return decodeAs[SetSerializedNodeReferences](commandType, payload)
	case TypeDisableNodeAggregate:
		return decodeAs[DisableNodeAggregate](commandType, payload)
	case TypeEnableNodeAggregate:
		return decodeAs[EnableNodeAggregate](commandType, payload)
	case TypeRemoveNodeAggregate:
		return decodeAs[RemoveNodeAggregate](commandType, payload)
	case TypeCreateNodeVariant:
		return decodeAs[CreateNodeVariant](commandType, payload)
	case TypeChangeNodeAggregateName:
		return decodeAs[ChangeNodeAggregateName](commandType, payload)
	case TypeChangeNodeAggregateType:
		return decodeAs[ChangeNodeAggregateType](commandType, payload)
	case TypeMoveNodeAggregate:
		return decodeAs[MoveNodeAggregate](commandType, payload)
	case TypeTagSubtree:
		return decodeAs[TagSubtree](commandType, payload)
	case TypeUntagSubtree:
		return decodeAs[UntagSubtree](commandType, payload)
	default:
		return nil, apperrors.WithMetadata(apperrors.CodeUnknownCommand,
			fmt.Sprintf("unknown command type %q", commandType),
			map[string]string{"CommandType": string(commandType)})
	}
}

func decodeAs[T Command](commandType Type, payload []byte) (Command, error) {
	var cmd T
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidArgument,
			fmt.Sprintf("decode %s", commandType), err)
	}
	return cmd, nil
}

// NewMetadata embeds the command into event metadata.
func NewMetadata(cmd Command) (event.Metadata, error) {
	payload, err := Encode(cmd)
	if err != nil {
		return event.Metadata{}, err
	}
	return event.Metadata{CommandType: string(cmd.CommandType()), CommandPayload: payload}, nil
}

// FromMetadata decodes the command that produced a batch. ok is false when the
// metadata carries no command.
func FromMetadata(metadata event.Metadata) (cmd Command, ok bool, err error) {
	if metadata.IsZero() {
		return nil, false, nil
	}
	cmd, err = Decode(Type(metadata.CommandType), metadata.CommandPayload)
	if err != nil {
		return nil, false, err
	}
	return cmd, true, nil
}
