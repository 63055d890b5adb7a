package messagelog

import (
	"context"
	"sort"
	"sync"
)

type InMemoryLog struct {
	mu          sync.RWMutex
	maxAttempts int

	messagesByRoom map[string][]Message
}

func NewInMemoryLog(maxAttempts int) *InMemoryLog {
	return &InMemoryLog{
		maxAttempts:    maxAttempts,
		messagesByRoom: make(map[string][]Message),
	}
}

func (l *InMemoryLog) NextIndex(ctx context.Context, room string) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	messages := l.messagesByRoom[room]
	if len(messages) == 0 {
		return 0, nil
	}

	return messages[len(messages)-1].Index + 1, nil
}

func (l *InMemoryLog) Append(ctx context.Context, message Message) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	messages := l.messagesByRoom[message.Room]

	// Kept sorted by index so the tail is always the most recent entry
	position := sort.Search(len(messages), func(i int) bool {
		return messages[i].Index >= message.Index
	})

	if position < len(messages) && messages[position].Index == message.Index {
		return ErrIndexConflict
	}

	messages = append(messages, Message{})
	copy(messages[position+1:], messages[position:])
	messages[position] = message

	l.messagesByRoom[message.Room] = messages

	return nil
}

func (l *InMemoryLog) AppendWithSequence(
	ctx context.Context,
	room string,
	timestamp int64,
	username string,
	content string,
) (Message, error) {
	return AppendWithRetry(ctx, l, l.maxAttempts, room, timestamp, username, content)
}

func (l *InMemoryLog) RecentN(ctx context.Context, room string, n int) ([]Message, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	messages := l.messagesByRoom[room]
	if n > len(messages) {
		n = len(messages)
	}

	if n <= 0 {
		return []Message{}, nil
	}

	recent := make([]Message, 0, n)
	for i := len(messages) - 1; i >= len(messages)-n; i-- {
		recent = append(recent, messages[i])
	}

	return recent, nil
}
