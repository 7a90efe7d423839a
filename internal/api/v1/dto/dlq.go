package dto

// PubSubPushRequest is the envelope Pub/Sub wraps around a pushed message.
// The dead-letter subscription delivers failed notification events in this
// shape.
type PubSubPushRequest struct {
	Message      PubSubMessage `json:"message"`
	Subscription string        `json:"subscription"`
}

// PubSubMessage is the pushed message itself. Data is base64-encoded; the
// original delivery attempt count arrives in Attributes.
type PubSubMessage struct {
	Data        string            `json:"data"`
	MessageID   string            `json:"messageId"`
	Attributes  map[string]string `json:"attributes"`
	PublishTime string            `json:"publishTime"`
}
