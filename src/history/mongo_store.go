package history

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore persists transcripts in a MongoDB collection.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

const mongoCloseTimeout = 5 * time.Second

func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	if uri == "" {
		return nil, errors.New("mongo: uri is required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "mongo: connect")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, "mongo: ping")
	}
	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

type mongoConversation struct {
	ID        string    `bson:"_id"`
	Turns     []Turn    `bson:"turns"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (m *MongoStore) Load(ctx context.Context, id string) ([]Turn, error) {
	var doc mongoConversation
	err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "mongo: load conversation")
	}
	return doc.Turns, nil
}

func (m *MongoStore) Save(ctx context.Context, id string, turns []Turn) error {
	_, err := m.collection.ReplaceOne(ctx,
		bson.M{"_id": id},
		mongoConversation{ID: id, Turns: turns, UpdatedAt: time.Now().UTC()},
		options.Replace().SetUpsert(true))
	return errors.Wrap(err, "mongo: save conversation")
}

func (m *MongoStore) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, mongoCloseTimeout)
	defer cancel()
	return m.client.Disconnect(ctx)
}
