// Package contentstream tracks the lifecycle of content streams and decides
// the commands that create, fork, close and remove them.
//
// A content stream is the branch a workspace writes to. Streams are never
// rewritten: rebase, publish and discard switch workspaces to fresh forks, and
// the superseded streams become NO_LONGER_IN_USE until the pruner removes
// them from the read models and later from the event store.
package contentstream
