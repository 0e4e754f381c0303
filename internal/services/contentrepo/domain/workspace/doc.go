// Package workspace gives content streams stable names and implements the
// branching operations on top of them: rebase, publish and discard.
//
// Each operation is a sequence of atomic steps. The handler forks content
// streams and replays recorded commands through a CommandBus, and finally
// returns the workspace event that switches the workspace to its new stream.
package workspace
