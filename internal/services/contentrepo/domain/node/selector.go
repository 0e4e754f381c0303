package node

import "github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/dimension"

// NodeIDToPublishOrDiscard selects the changes of one node in one dimension
// space point for partial publishing or discarding.
type NodeIDToPublishOrDiscard struct {
	ContentStreamID     ContentStreamID               `json:"contentStreamId"`
	NodeAggregateID     NodeAggregateID               `json:"nodeAggregateId"`
	DimensionSpacePoint dimension.DimensionSpacePoint `json:"dimensionSpacePoint"`
}

// Matches compares by value on all three fields.
func (n NodeIDToPublishOrDiscard) Matches(contentStreamID ContentStreamID, nodeAggregateID NodeAggregateID, point dimension.DimensionSpacePoint) bool {
	return n.ContentStreamID == contentStreamID &&
		n.NodeAggregateID == nodeAggregateID &&
		n.DimensionSpacePoint.Equal(point)
}
