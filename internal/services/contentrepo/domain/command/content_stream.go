package command

import "github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"

const (
	TypeCreateContentStream Type = "CreateContentStream"
	TypeForkContentStream   Type = "ForkContentStream"
	TypeCloseContentStream  Type = "CloseContentStream"
	TypeRemoveContentStream Type = "RemoveContentStream"
)

// CreateContentStream starts an empty content stream.
type CreateContentStream struct {
	ContentStreamID node.ContentStreamID `json:"contentStreamId"`
}

// ForkContentStream branches a new stream off the current tip of the source.
type ForkContentStream struct {
	NewContentStreamID    node.ContentStreamID `json:"newContentStreamId"`
	SourceContentStreamID node.ContentStreamID `json:"sourceContentStreamId"`
}

// CloseContentStream forbids further writes.
type CloseContentStream struct {
	ContentStreamID node.ContentStreamID `json:"contentStreamId"`
}

// RemoveContentStream drops a stream from the read models. The event history
// stays until the pruner deletes it.
type RemoveContentStream struct {
	ContentStreamID node.ContentStreamID `json:"contentStreamId"`
}

func (CreateContentStream) CommandType() Type { return TypeCreateContentStream }
func (ForkContentStream) CommandType() Type   { return TypeForkContentStream }
func (CloseContentStream) CommandType() Type  { return TypeCloseContentStream }
func (RemoveContentStream) CommandType() Type { return TypeRemoveContentStream }

func (CreateContentStream) command() {}
func (ForkContentStream) command()   {}
func (CloseContentStream) command()  {}
func (RemoveContentStream) command() {}

func (c CreateContentStream) Validate() error {
	return required(TypeCreateContentStream, field{"contentStreamId", string(c.ContentStreamID)})
}

func (c ForkContentStream) Validate() error {
	return required(TypeForkContentStream,
		field{"newContentStreamId", string(c.NewContentStreamID)},
		field{"sourceContentStreamId", string(c.SourceContentStreamID)})
}

func (c CloseContentStream) Validate() error {
	return required(TypeCloseContentStream, field{"contentStreamId", string(c.ContentStreamID)})
}

func (c RemoveContentStream) Validate() error {
	return required(TypeRemoveContentStream, field{"contentStreamId", string(c.ContentStreamID)})
}
