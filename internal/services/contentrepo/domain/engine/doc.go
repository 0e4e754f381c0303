// Package engine wires command validation, decision routing, event append,
// and projection catch-up for one content repository.
//
// Handlers never append. They return an EventsToPublish batch guarded by an
// expected version; the engine commits it, brings every projection up to the
// committed sequence and drops the runtime cache of the content graph before
// the next command is decided. Workspace operations that need several atomic
// steps call back into the engine through the workspace.CommandBus contract.
package engine
