// Package command defines the closed set of content repository commands.
//
// Commands are plain intent values. They are never persisted on their own;
// the command that produced a batch of events travels in the metadata of the
// first event so that rebase and publish can re-run it on another content
// stream.
package command

import (
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/contentrepository/internal/platform/errors"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"
)

// Type identifies a command variant on the wire.
type Type string

// Command is implemented only by the variants of this package.
type Command interface {
	CommandType() Type
	// Validate checks the fields that must be present regardless of state.
	Validate() error
	command()
}

// NodeCommand targets one node aggregate in one content stream and can be
// replayed onto another content stream.
type NodeCommand interface {
	Command
	StreamID() node.ContentStreamID
	AggregateID() node.NodeAggregateID
	CopyForContentStream(node.ContentStreamID) NodeCommand
	MatchesNodeID(node.NodeIDToPublishOrDiscard) bool
}

// RebaseStrategy decides what happens to commands that no longer apply.
type RebaseStrategy string

const (
	// RebaseFailOnConflict aborts the rebase when any command conflicts.
	RebaseFailOnConflict RebaseStrategy = "failOnConflict"
	// RebaseForce skips conflicting commands and reports them.
	RebaseForce RebaseStrategy = "force"
)

// TypeChangeStrategy decides what happens to children the new type forbids.
type TypeChangeStrategy string

const (
	// TypeChangeHappyPath rejects the change if any child would be invalid.
	TypeChangeHappyPath TypeChangeStrategy = "happypath"
	// TypeChangeDelete removes the children the new type forbids.
	TypeChangeDelete TypeChangeStrategy = "delete"
)

type field struct {
	name  string
	value string
}

func required(cmd Type, fields ...field) error {
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return invalid(cmd, f.name, "is required")
		}
	}
	return nil
}

func invalid(cmd Type, name, reason string) error {
	return apperrors.WithMetadata(apperrors.CodeInvalidArgument,
		fmt.Sprintf("%s: %s %s", cmd, name, reason),
		map[string]string{"CommandType": string(cmd), "Field": name, "Reason": name + " " + reason})
}
