package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goevery/chatrelay/internal/messagelog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type Connection struct {
	Id          string    `bson:"_id"`
	ConnectTime time.Time `bson:"connectTime"`
}

type Message struct {
	Room      string `bson:"room"`
	Index     int64  `bson:"index"`
	Timestamp int64  `bson:"timestamp"`
	Username  string `bson:"username"`
	Content   string `bson:"content"`
}

func (m Message) toMessage() messagelog.Message {
	return messagelog.Message{
		Room:      m.Room,
		Index:     uint64(m.Index),
		Timestamp: m.Timestamp,
		Username:  m.Username,
		Content:   m.Content,
	}
}

type PersistenceEngine struct {
	client      *mongo.Client
	connections *mongo.Collection
	messages    *mongo.Collection
	maxAttempts int
}

func Connect(uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	return client, nil
}

func NewPersistenceEngine(client *mongo.Client, databaseName string, maxAttempts int) *PersistenceEngine {
	database := client.Database(databaseName)

	return &PersistenceEngine{
		client:      client,
		connections: database.Collection("connections"),
		messages:    database.Collection("messages"),
		maxAttempts: maxAttempts,
	}
}

func (e *PersistenceEngine) Setup(ctx context.Context) error {
	roomIndexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "room", Value: 1},
			{Key: "index", Value: -1},
		},
		Options: options.Index().SetUnique(true),
	}

	_, err := e.messages.Indexes().CreateOne(ctx, roomIndexModel)
	if err != nil {
		return fmt.Errorf("create message indexes: %w", err)
	}

	return nil
}

func (e *PersistenceEngine) Close(ctx context.Context) error {
	return e.client.Disconnect(ctx)
}

func (e *PersistenceEngine) Add(ctx context.Context, connectionId string) error {
	_, err := e.connections.UpdateOne(ctx,
		bson.M{"_id": connectionId},
		bson.M{"$setOnInsert": bson.M{"connectTime": time.Now()}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("add connection: %w", err)
	}

	return nil
}

func (e *PersistenceEngine) Remove(ctx context.Context, connectionId string) error {
	_, err := e.connections.DeleteOne(ctx, bson.M{"_id": connectionId})
	if err != nil {
		return fmt.Errorf("remove connection: %w", err)
	}

	return nil
}

func (e *PersistenceEngine) ListAll(ctx context.Context) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})

	cursor, err := e.connections.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}

	var connections []Connection
	if err := cursor.All(ctx, &connections); err != nil {
		return nil, fmt.Errorf("decode connections: %w", err)
	}

	connectionIds := make([]string, len(connections))
	for i, connection := range connections {
		connectionIds[i] = connection.Id
	}

	return connectionIds, nil
}

func (e *PersistenceEngine) NextIndex(ctx context.Context, room string) (uint64, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "index", Value: -1}})

	var latest Message
	err := e.messages.FindOne(ctx, bson.M{"room": room}, opts).Decode(&latest)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query latest message: %w", err)
	}

	return uint64(latest.Index) + 1, nil
}

func (e *PersistenceEngine) Append(ctx context.Context, message messagelog.Message) error {
	_, err := e.messages.InsertOne(ctx, Message{
		Room:      message.Room,
		Index:     int64(message.Index),
		Timestamp: message.Timestamp,
		Username:  message.Username,
		Content:   message.Content,
	})
	if mongo.IsDuplicateKeyError(err) {
		return messagelog.ErrIndexConflict
	}
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	return nil
}

func (e *PersistenceEngine) AppendWithSequence(
	ctx context.Context,
	room string,
	timestamp int64,
	username string,
	content string,
) (messagelog.Message, error) {
	return messagelog.AppendWithRetry(ctx, e, e.maxAttempts, room, timestamp, username, content)
}

func (e *PersistenceEngine) RecentN(ctx context.Context, room string, n int) ([]messagelog.Message, error) {
	// A zero limit means no limit to MongoDB
	if n <= 0 {
		return []messagelog.Message{}, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "index", Value: -1}}).
		SetLimit(int64(n))

	cursor, err := e.messages.Find(ctx, bson.M{"room": room}, opts)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}

	var mongoMessages []Message
	if err := cursor.All(ctx, &mongoMessages); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}

	messages := make([]messagelog.Message, len(mongoMessages))
	for i, m := range mongoMessages {
		messages[i] = m.toMessage()
	}

	return messages, nil
}
