package messagelog

import (
	"context"
	"errors"
	"fmt"
)

// ErrIndexConflict is returned when an entry already exists at (room, index).
var ErrIndexConflict = errors.New("message index already taken")

const DefaultMaxAttempts = 8

type Sequencer interface {
	// NextIndex returns the index following the most recent entry of the room, or 0 when it is empty
	NextIndex(ctx context.Context, room string) (uint64, error)

	// Append stores the message under (room, index), failing with ErrIndexConflict if the key is taken
	Append(ctx context.Context, message Message) error
}

// Log is an append-only, per-room ordered message store.
type Log interface {
	Sequencer

	// AppendWithSequence assigns the next free index of the room and stores the message
	AppendWithSequence(ctx context.Context, room string, timestamp int64, username string, content string) (Message, error)

	// RecentN returns up to n messages with the highest indices, newest first
	RecentN(ctx context.Context, room string, n int) ([]Message, error)
}

// AppendWithRetry runs the optimistic sequence assignment shared by every backend:
// read the next index, attempt a conditional insert and start over when another writer
// claimed the index first.
func AppendWithRetry(
	ctx context.Context,
	sequencer Sequencer,
	maxAttempts int,
	room string,
	timestamp int64,
	username string,
	content string,
) (Message, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Message{}, err
		}

		index, err := sequencer.NextIndex(ctx, room)
		if err != nil {
			return Message{}, err
		}

		message := Message{
			Room:      room,
			Index:     index,
			Timestamp: timestamp,
			Username:  username,
			Content:   content,
		}

		err = sequencer.Append(ctx, message)
		if err == nil {
			return message, nil
		}

		if !errors.Is(err, ErrIndexConflict) {
			return Message{}, err
		}
	}

	return Message{}, fmt.Errorf("append to room %q after %d attempts: %w", room, maxAttempts, ErrIndexConflict)
}
