package command

import "github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"

const (
	TypeCreateRootWorkspace                 Type = "CreateRootWorkspace"
	TypeCreateWorkspace                     Type = "CreateWorkspace"
	TypeRebaseWorkspace                     Type = "RebaseWorkspace"
	TypePublishWorkspace                    Type = "PublishWorkspace"
	TypePublishIndividualNodesFromWorkspace Type = "PublishIndividualNodesFromWorkspace"
	TypeDiscardWorkspace                    Type = "DiscardWorkspace"
	TypeDiscardIndividualNodesFromWorkspace Type = "DiscardIndividualNodesFromWorkspace"
)

// CreateRootWorkspace creates a workspace without base on a new empty stream.
type CreateRootWorkspace struct {
	WorkspaceName      node.WorkspaceName   `json:"workspaceName"`
	WorkspaceTitle     string               `json:"workspaceTitle,omitempty"`
	NewContentStreamID node.ContentStreamID `json:"newContentStreamId"`
}

// CreateWorkspace creates a workspace on a fork of its base.
type CreateWorkspace struct {
	WorkspaceName      node.WorkspaceName   `json:"workspaceName"`
	BaseWorkspaceName  node.WorkspaceName   `json:"baseWorkspaceName"`
	WorkspaceTitle     string               `json:"workspaceTitle,omitempty"`
	NewContentStreamID node.ContentStreamID `json:"newContentStreamId"`
}

// RebaseWorkspace replays the workspace's own commands onto the base tip.
// An empty RebasedContentStreamID is generated by the handler.
type RebaseWorkspace struct {
	WorkspaceName          node.WorkspaceName   `json:"workspaceName"`
	RebasedContentStreamID node.ContentStreamID `json:"rebasedContentStreamId,omitempty"`
	Strategy               RebaseStrategy       `json:"strategy,omitempty"`
}

// PublishWorkspace copies every change of the workspace into its base.
type PublishWorkspace struct {
	WorkspaceName      node.WorkspaceName   `json:"workspaceName"`
	NewContentStreamID node.ContentStreamID `json:"newContentStreamId,omitempty"`
}

// PublishIndividualNodesFromWorkspace publishes the commands matching
// NodesToPublish and keeps the rest on a new stream for the workspace.
type PublishIndividualNodesFromWorkspace struct {
	WorkspaceName                   node.WorkspaceName              `json:"workspaceName"`
	NodesToPublish                  []node.NodeIDToPublishOrDiscard `json:"nodesToPublish"`
	ContentStreamIDForMatchingPart  node.ContentStreamID            `json:"contentStreamIdForMatchingPart,omitempty"`
	ContentStreamIDForRemainingPart node.ContentStreamID            `json:"contentStreamIdForRemainingPart,omitempty"`
}

// DiscardWorkspace drops every change of the workspace.
type DiscardWorkspace struct {
	WorkspaceName      node.WorkspaceName   `json:"workspaceName"`
	NewContentStreamID node.ContentStreamID `json:"newContentStreamId,omitempty"`
}

// DiscardIndividualNodesFromWorkspace drops the commands matching
// NodesToDiscard and keeps the rest.
type DiscardIndividualNodesFromWorkspace struct {
	WorkspaceName      node.WorkspaceName              `json:"workspaceName"`
	NodesToDiscard     []node.NodeIDToPublishOrDiscard `json:"nodesToDiscard"`
	NewContentStreamID node.ContentStreamID            `json:"newContentStreamId,omitempty"`
}

func (CreateRootWorkspace) CommandType() Type { return TypeCreateRootWorkspace }
func (CreateWorkspace) CommandType() Type     { return TypeCreateWorkspace }
func (RebaseWorkspace) CommandType() Type     { return TypeRebaseWorkspace }
func (PublishWorkspace) CommandType() Type    { return TypePublishWorkspace }
func (PublishIndividualNodesFromWorkspace) CommandType() Type {
	return TypePublishIndividualNodesFromWorkspace
}
func (DiscardWorkspace) CommandType() Type { return TypeDiscardWorkspace }
func (DiscardIndividualNodesFromWorkspace) CommandType() Type {
	return TypeDiscardIndividualNodesFromWorkspace
}

func (CreateRootWorkspace) command()                 {}
func (CreateWorkspace) command()                     {}
func (RebaseWorkspace) command()                     {}
func (PublishWorkspace) command()                    {}
func (PublishIndividualNodesFromWorkspace) command() {}
func (DiscardWorkspace) command()                    {}
func (DiscardIndividualNodesFromWorkspace) command() {}

func (c CreateRootWorkspace) Validate() error {
	return required(TypeCreateRootWorkspace,
		field{"workspaceName", string(c.WorkspaceName)},
		field{"newContentStreamId", string(c.NewContentStreamID)})
}

func (c CreateWorkspace) Validate() error {
	return required(TypeCreateWorkspace,
		field{"workspaceName", string(c.WorkspaceName)},
		field{"baseWorkspaceName", string(c.BaseWorkspaceName)},
		field{"newContentStreamId", string(c.NewContentStreamID)})
}

func (c RebaseWorkspace) Validate() error {
	if err := required(TypeRebaseWorkspace, field{"workspaceName", string(c.WorkspaceName)}); err != nil {
		return err
	}
	switch c.Strategy {
	case "", RebaseFailOnConflict, RebaseForce:
		return nil
	default:
		return invalid(TypeRebaseWorkspace, "strategy", "is unknown")
	}
}

func (c PublishWorkspace) Validate() error {
	return required(TypePublishWorkspace, field{"workspaceName", string(c.WorkspaceName)})
}

func (c PublishIndividualNodesFromWorkspace) Validate() error {
	return required(TypePublishIndividualNodesFromWorkspace, field{"workspaceName", string(c.WorkspaceName)})
}

func (c DiscardWorkspace) Validate() error {
	return required(TypeDiscardWorkspace, field{"workspaceName", string(c.WorkspaceName)})
}

func (c DiscardIndividualNodesFromWorkspace) Validate() error {
	return required(TypeDiscardIndividualNodesFromWorkspace, field{"workspaceName", string(c.WorkspaceName)})
}

// EffectiveStrategy defaults an empty strategy to fail-on-conflict.
func (c RebaseWorkspace) EffectiveStrategy() RebaseStrategy {
	if c.Strategy == "" {
		return RebaseFailOnConflict
	}
	return c.Strategy
}
