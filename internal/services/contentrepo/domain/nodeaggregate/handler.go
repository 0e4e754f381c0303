// Package nodeaggregate decides node commands. Every handler runs its
// constraint checks against the content graph, builds the events of one
// content stream and returns them with the stream version the checks saw.
package nodeaggregate

import (
	"fmt"

	apperrors "github.com/louisbranch/contentrepository/internal/platform/errors"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/command"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/constraint"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/contentgraph"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/dimension"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/event"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/eventstore"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"
)

// Variation resolves how dimension space points relate.
type Variation interface {
	GetSpecializationSet(point dimension.DimensionSpacePoint) dimension.DimensionSpacePointSet
	GetGeneralizationSet(point dimension.DimensionSpacePoint) dimension.DimensionSpacePointSet
	Relation(source, target dimension.DimensionSpacePoint) dimension.Relation
}

// Subspace lists the allowed dimension space points.
type Subspace interface {
	AllowedDimensionSubspace() dimension.DimensionSpacePointSet
}

// Handler decides node commands.
type Handler struct {
	checker   *constraint.Checker
	graph     contentgraph.ContentGraph
	variation Variation
	subspace  Subspace
	newID     func() node.NodeAggregateID
}

// NewHandler creates a handler.
func NewHandler(checker *constraint.Checker, graph contentgraph.ContentGraph, variation Variation, subspace Subspace) *Handler {
	return &Handler{
		checker:   checker,
		graph:     graph,
		variation: variation,
		subspace:  subspace,
		newID:     node.NewNodeAggregateID,
	}
}

// Handle dispatches cmd to its decider. The returned batch carries the
// command in the metadata of its first event, including ids generated for
// tethered descendants, so a replay produces the same aggregates.
func (h *Handler) Handle(cmd command.NodeCommand) (eventstore.EventsToPublish, error) {
	var (
		decided command.NodeCommand
		events  []event.Event
		version int64
		err     error
	)
	switch c := cmd.(type) {
	case command.CreateRootNodeAggregateWithNode:
		decided, events, version, err = h.handleCreateRoot(c)
	case command.CreateNodeAggregateWithNode:
		decided, events, version, err = h.handleCreate(c)
	case command.SetSerializedNodeProperties:
		events, version, err = h.handleSetProperties(c)
	case command.SetSerializedNodeReferences:
		events, version, err = h.handleSetReferences(c)
	case command.DisableNodeAggregate:
		events, version, err = h.handleDisable(c)
	case command.EnableNodeAggregate:
		events, version, err = h.handleEnable(c)
	case command.TagSubtree:
		events, version, err = h.handleTag(c)
	case command.UntagSubtree:
		events, version, err = h.handleUntag(c)
	case command.RemoveNodeAggregate:
		events, version, err = h.handleRemove(c)
	case command.CreateNodeVariant:
		events, version, err = h.handleCreateVariant(c)
	case command.ChangeNodeAggregateName:
		events, version, err = h.handleChangeName(c)
	case command.ChangeNodeAggregateType:
		decided, events, version, err = h.handleChangeType(c)
	case command.MoveNodeAggregate:
		events, version, err = h.handleMove(c)
	default:
		return eventstore.EventsToPublish{}, apperrors.WithMetadata(apperrors.CodeUnknownCommand,
			fmt.Sprintf("unknown node command %T", cmd),
			map[string]string{"CommandType": fmt.Sprintf("%T", cmd)})
	}
	if err != nil {
		return eventstore.EventsToPublish{}, err
	}
	if decided == nil {
		decided = cmd
	}
	batch := eventstore.NewEventsToPublish(
		event.ContentStreamStreamName(cmd.StreamID()),
		eventstore.Exactly(version),
		events...,
	)
	metadata, err := command.NewMetadata(decided)
	if err != nil {
		return eventstore.EventsToPublish{}, err
	}
	return batch.WithCommandMetadata(metadata), nil
}

// openStream returns the version of an existing, open content stream.
func (h *Handler) openStream(cs node.ContentStreamID) (int64, error) {
	state, err := h.checker.RequireContentStreamToBeOpen(cs)
	if err != nil {
		return 0, err
	}
	return state.Version, nil
}

// withSpecializations returns point and all its specializations.
func (h *Handler) withSpecializations(point dimension.DimensionSpacePoint) dimension.DimensionSpacePointSet {
	return h.variation.GetSpecializationSet(point).With(point)
}

// selectPoints resolves the points a command touches from point.
func (h *Handler) selectPoints(agg *contentgraph.NodeAggregate, point dimension.DimensionSpacePoint, strategy node.NodeVariantSelectionStrategy) dimension.DimensionSpacePointSet {
	if strategy == node.VariantSelectionAllVariants {
		return agg.CoveredDimensionSpacePoints()
	}
	return h.withSpecializations(point).Intersect(agg.CoveredDimensionSpacePoints())
}

// visibility returns the points a node of agg authored in target would be
// visible in: target and its specializations, minus the branches owned by
// other, more specialized origins, within the points of within.
func (h *Handler) visibility(agg *contentgraph.NodeAggregate, target dimension.DimensionSpacePoint, within dimension.DimensionSpacePointSet) dimension.DimensionSpacePointSet {
	points := h.withSpecializations(target)
	for _, origin := range agg.OccupiedDimensionSpacePoints().Points() {
		point := origin.ToDimensionSpacePoint()
		if point.Equal(target) || !points.Contains(point) {
			continue
		}
		points = points.Difference(h.withSpecializations(point))
	}
	return points.Intersect(within)
}

func requireNewParent(id node.NodeAggregateID) error {
	if id.IsEmpty() {
		return apperrors.WithMetadata(apperrors.CodeInvalidArgument,
			"MoveNodeAggregate: newParentNodeAggregateId is required",
			map[string]string{"CommandType": string(command.TypeMoveNodeAggregate), "Reason": "newParentNodeAggregateId is required"})
	}
	return nil
}
