package rpc

import (
	"encoding/json"

	"github.com/goevery/chatrelay/internal/ierr"
)

type EventType string

const (
	EventTypeConnect    EventType = "CONNECT"
	EventTypeDisconnect EventType = "DISCONNECT"
	EventTypeMessage    EventType = "MESSAGE"
)

const (
	ActionSendMessage       = "sendMessage"
	ActionGetRecentMessages = "getRecentMessages"
	ActionPing              = "ping"
)

// Event is an inbound transport event, as delivered by the gateway.
type Event struct {
	Type         EventType       `json:"eventType"`
	ConnectionId string          `json:"connectionId"`
	Body         json.RawMessage `json:"body,omitempty"`
}

// Request is one of the typed variants an Event decodes to.
type Request interface {
	ConnectionID() string
}

type LifecycleRequest struct {
	ConnectionId string
	EventType    EventType
}

type SubmitRequest struct {
	ConnectionId string
	Username     *string
	Content      *string
}

type FetchRecentRequest struct {
	ConnectionId string
}

type PingRequest struct {
	ConnectionId string
}

type UnrecognizedActionRequest struct {
	ConnectionId string
	Action       string
}

// InvalidRequest is a known action whose fields could not be decoded.
type InvalidRequest struct {
	ConnectionId string
	Action       string
	Err          error
}

func (r LifecycleRequest) ConnectionID() string { return r.ConnectionId }
func (r SubmitRequest) ConnectionID() string { return r.ConnectionId }
func (r FetchRecentRequest) ConnectionID() string { return r.ConnectionId }
func (r PingRequest) ConnectionID() string { return r.ConnectionId }
func (r UnrecognizedActionRequest) ConnectionID() string { return r.ConnectionId }
func (r InvalidRequest) ConnectionID() string { return r.ConnectionId }

// Decode turns an event into its typed request. Anything that is not a message
// is handed to the lifecycle manager, which rejects unknown event types.
// The action is read first, each variant then decodes only the fields it uses.
func Decode(event Event) Request {
	if event.Type != EventTypeMessage {
		return LifecycleRequest{
			ConnectionId: event.ConnectionId,
			EventType:    event.Type,
		}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(event.Body, &fields); err != nil || fields == nil {
		return UnrecognizedActionRequest{ConnectionId: event.ConnectionId}
	}

	var action string
	if raw, ok := fields["action"]; ok {
		if err := json.Unmarshal(raw, &action); err != nil {
			return UnrecognizedActionRequest{ConnectionId: event.ConnectionId}
		}
	}

	switch action {
	case ActionSendMessage:
		return decodeSubmit(event.ConnectionId, fields)
	case ActionGetRecentMessages:
		return FetchRecentRequest{ConnectionId: event.ConnectionId}
	case ActionPing:
		return PingRequest{ConnectionId: event.ConnectionId}
	default:
		return UnrecognizedActionRequest{
			ConnectionId: event.ConnectionId,
			Action:       action,
		}
	}
}

func decodeSubmit(connectionId string, fields map[string]json.RawMessage) Request {
	username, err := optionalString(fields, "username")
	if err != nil {
		return InvalidRequest{connectionId, ActionSendMessage, err}
	}

	content, err := optionalString(fields, "content")
	if err != nil {
		return InvalidRequest{connectionId, ActionSendMessage, err}
	}

	return SubmitRequest{
		ConnectionId: connectionId,
		Username:     username,
		Content:      content,
	}
}

// optionalString returns nil when the key is absent. A present null decodes to "".
func optionalString(fields map[string]json.RawMessage, name string) (*string, error) {
	raw, ok := fields[name]
	if !ok {
		return nil, nil
	}

	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, ierr.Newf(ierr.ErrorCodeInvalidArgument, "'"+name+"' must be a string")
	}

	return &value, nil
}

type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

func NewResponse(statusCode int, body string) Response {
	return Response{
		StatusCode: statusCode,
		Body:       body,
	}
}

func (r Response) IsFailure() bool {
	return r.StatusCode >= 400
}
