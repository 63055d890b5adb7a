package chat

import "github.com/goevery/chatrelay/internal/messagelog"

type PayloadMessage struct {
	Username string `json:"username"`
	Content  string `json:"content"`
}

// Payload is the body pushed to connections, for broadcasts and history alike.
type Payload struct {
	Messages []PayloadMessage `json:"messages"`
}

func toPayloadMessage(message messagelog.Message) PayloadMessage {
	return PayloadMessage{
		Username: message.Username,
		Content:  message.Content,
	}
}
