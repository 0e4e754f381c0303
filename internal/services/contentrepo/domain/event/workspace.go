package event

import "github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"

const (
	TypeRootWorkspaceWasCreated        Type = "RootWorkspaceWasCreated"
	TypeWorkspaceWasCreated            Type = "WorkspaceWasCreated"
	TypeWorkspaceWasRebased            Type = "WorkspaceWasRebased"
	TypeWorkspaceRebaseFailed          Type = "WorkspaceRebaseFailed"
	TypeWorkspaceWasPublished          Type = "WorkspaceWasPublished"
	TypeWorkspaceWasPartiallyPublished Type = "WorkspaceWasPartiallyPublished"
	TypeWorkspaceWasDiscarded          Type = "WorkspaceWasDiscarded"
	TypeWorkspaceWasPartiallyDiscarded Type = "WorkspaceWasPartiallyDiscarded"
)

// RootWorkspaceWasCreated creates a workspace without base.
type RootWorkspaceWasCreated struct {
	WorkspaceName      node.WorkspaceName   `json:"workspaceName"`
	WorkspaceTitle     string               `json:"workspaceTitle,omitempty"`
	NewContentStreamID node.ContentStreamID `json:"newContentStreamId"`
}

// WorkspaceWasCreated creates a workspace on top of a base workspace.
type WorkspaceWasCreated struct {
	WorkspaceName      node.WorkspaceName   `json:"workspaceName"`
	BaseWorkspaceName  node.WorkspaceName   `json:"baseWorkspaceName"`
	WorkspaceTitle     string               `json:"workspaceTitle,omitempty"`
	NewContentStreamID node.ContentStreamID `json:"newContentStreamId"`
}

// WorkspaceWasRebased switches a workspace to its rebased content stream.
type WorkspaceWasRebased struct {
	WorkspaceName           node.WorkspaceName   `json:"workspaceName"`
	NewContentStreamID      node.ContentStreamID `json:"newContentStreamId"`
	PreviousContentStreamID node.ContentStreamID `json:"previousContentStreamId"`
	SkippedCommands         []CommandConflict    `json:"skippedCommands,omitempty"`
}

// WorkspaceRebaseFailed records the conflicts of an aborted rebase. The
// workspace keeps its content stream.
type WorkspaceRebaseFailed struct {
	WorkspaceName            node.WorkspaceName   `json:"workspaceName"`
	CandidateContentStreamID node.ContentStreamID `json:"candidateContentStreamId"`
	PreviousContentStreamID  node.ContentStreamID `json:"previousContentStreamId"`
	Conflicts                []CommandConflict    `json:"conflicts"`
}

// WorkspaceWasPublished records that all changes reached the base workspace.
type WorkspaceWasPublished struct {
	SourceWorkspaceName           node.WorkspaceName   `json:"sourceWorkspaceName"`
	TargetWorkspaceName           node.WorkspaceName   `json:"targetWorkspaceName"`
	NewSourceContentStreamID      node.ContentStreamID `json:"newSourceContentStreamId"`
	PreviousSourceContentStreamID node.ContentStreamID `json:"previousSourceContentStreamId"`
}

// WorkspaceWasPartiallyPublished records that selected changes reached the
// base workspace.
type WorkspaceWasPartiallyPublished struct {
	SourceWorkspaceName           node.WorkspaceName              `json:"sourceWorkspaceName"`
	TargetWorkspaceName           node.WorkspaceName              `json:"targetWorkspaceName"`
	NewSourceContentStreamID      node.ContentStreamID            `json:"newSourceContentStreamId"`
	PreviousSourceContentStreamID node.ContentStreamID            `json:"previousSourceContentStreamId"`
	PublishedNodes                []node.NodeIDToPublishOrDiscard `json:"publishedNodes"`
}

// WorkspaceWasDiscarded records that all changes were dropped.
type WorkspaceWasDiscarded struct {
	WorkspaceName           node.WorkspaceName   `json:"workspaceName"`
	NewContentStreamID      node.ContentStreamID `json:"newContentStreamId"`
	PreviousContentStreamID node.ContentStreamID `json:"previousContentStreamId"`
}

// WorkspaceWasPartiallyDiscarded records that selected changes were dropped.
type WorkspaceWasPartiallyDiscarded struct {
	WorkspaceName           node.WorkspaceName              `json:"workspaceName"`
	NewContentStreamID      node.ContentStreamID            `json:"newContentStreamId"`
	PreviousContentStreamID node.ContentStreamID            `json:"previousContentStreamId"`
	DiscardedNodes          []node.NodeIDToPublishOrDiscard `json:"discardedNodes"`
}

func (RootWorkspaceWasCreated) EventType() Type        { return TypeRootWorkspaceWasCreated }
func (WorkspaceWasCreated) EventType() Type            { return TypeWorkspaceWasCreated }
func (WorkspaceWasRebased) EventType() Type            { return TypeWorkspaceWasRebased }
func (WorkspaceRebaseFailed) EventType() Type          { return TypeWorkspaceRebaseFailed }
func (WorkspaceWasPublished) EventType() Type          { return TypeWorkspaceWasPublished }
func (WorkspaceWasPartiallyPublished) EventType() Type { return TypeWorkspaceWasPartiallyPublished }
func (WorkspaceWasDiscarded) EventType() Type          { return TypeWorkspaceWasDiscarded }
func (WorkspaceWasPartiallyDiscarded) EventType() Type { return TypeWorkspaceWasPartiallyDiscarded }
