package repository

import (
	"chessrush/internal/model"
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AttemptRepo handles MongoDB operations for puzzle attempts
type AttemptRepo interface {
	Create(ctx context.Context, attempt *model.Attempt) error
	ListByPlayer(ctx context.Context, playerID string, limit int) ([]*model.Attempt, error)
	Summary(ctx context.Context, playerID string) (*model.AttemptSummary, error)
	EnsureIndexes(ctx context.Context) error
}

type attemptRepo struct {
	collection *mongo.Collection
}

// NewAttemptRepo creates a new attempt repository
func NewAttemptRepo(db *mongo.Database) AttemptRepo {
	return &attemptRepo{
		collection: db.Collection("attempts"),
	}
}

func (r *attemptRepo) Create(ctx context.Context, attempt *model.Attempt) error {
	if attempt.ID == "" {
		attempt.ID = uuid.New().String()
	}
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now()
	}

	_, err := r.collection.InsertOne(ctx, attempt)
	return err
}

// ListByPlayer returns the player's most recent attempts, newest first
func (r *attemptRepo) ListByPlayer(ctx context.Context, playerID string, limit int) ([]*model.Attempt, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{"playerId": playerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	attempts := []*model.Attempt{}
	if err := cursor.All(ctx, &attempts); err != nil {
		return nil, err
	}
	return attempts, nil
}

// Summary counts the player's attempts and distinct solved positions
func (r *attemptRepo) Summary(ctx context.Context, playerID string) (*model.AttemptSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"playerId": playerID}}},
		{{Key: "$group", Value: bson.M{
			"_id":      nil,
			"attempts": bson.M{"$sum": 1},
			"correct":  bson.M{"$sum": bson.M{"$cond": bson.A{"$correct", 1, 0}}},
			"solved":   bson.M{"$addToSet": bson.M{"$cond": bson.A{"$correct", "$fen", "$$REMOVE"}}},
		}}},
		{{Key: "$project", Value: bson.M{
			"attempts": 1,
			"correct":  1,
			"solved":   bson.M{"$size": "$solved"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	summary := &model.AttemptSummary{PlayerID: playerID}
	if cursor.Next(ctx) {
		if err := cursor.Decode(summary); err != nil {
			return nil, err
		}
		summary.PlayerID = playerID
	}
	return summary, cursor.Err()
}

func (r *attemptRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "playerId", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	return err
}
