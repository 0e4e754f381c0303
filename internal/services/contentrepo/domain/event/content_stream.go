package event

import "github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"

const (
	TypeContentStreamWasCreated Type = "ContentStreamWasCreated"
	TypeContentStreamWasForked  Type = "ContentStreamWasForked"
	TypeContentStreamWasClosed  Type = "ContentStreamWasClosed"
	TypeContentStreamWasRemoved Type = "ContentStreamWasRemoved"
)

// ContentStreamWasCreated starts an empty content stream.
type ContentStreamWasCreated struct {
	ContentStreamID node.ContentStreamID `json:"contentStreamId"`
}

// ContentStreamWasForked starts a content stream whose history is the source
// stream up to VersionOfSourceContentStream.
type ContentStreamWasForked struct {
	NewContentStreamID           node.ContentStreamID `json:"newContentStreamId"`
	SourceContentStreamID        node.ContentStreamID `json:"sourceContentStreamId"`
	VersionOfSourceContentStream int64                `json:"versionOfSourceContentStream"`
}

// ContentStreamWasClosed forbids further writes to a content stream.
type ContentStreamWasClosed struct {
	ContentStreamID node.ContentStreamID `json:"contentStreamId"`
}

// ContentStreamWasRemoved drops a content stream from the read models.
type ContentStreamWasRemoved struct {
	ContentStreamID node.ContentStreamID `json:"contentStreamId"`
}

func (ContentStreamWasCreated) EventType() Type { return TypeContentStreamWasCreated }
func (ContentStreamWasForked) EventType() Type  { return TypeContentStreamWasForked }
func (ContentStreamWasClosed) EventType() Type  { return TypeContentStreamWasClosed }
func (ContentStreamWasRemoved) EventType() Type { return TypeContentStreamWasRemoved }

func (e ContentStreamWasCreated) StreamID() node.ContentStreamID { return e.ContentStreamID }
func (e ContentStreamWasForked) StreamID() node.ContentStreamID  { return e.NewContentStreamID }
func (e ContentStreamWasClosed) StreamID() node.ContentStreamID  { return e.ContentStreamID }
func (e ContentStreamWasRemoved) StreamID() node.ContentStreamID { return e.ContentStreamID }
