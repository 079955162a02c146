package repository

import (
	"chessrush/internal/model"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PositionRepo handles MongoDB operations for the curated position deck
type PositionRepo interface {
	List(ctx context.Context) ([]*model.CuratedPosition, error)
	GetByKey(ctx context.Context, key string) (*model.CuratedPosition, error)
	Upsert(ctx context.Context, position *model.CuratedPosition) error
}

type positionRepo struct {
	collection *mongo.Collection
}

// NewPositionRepo creates a new position repository
func NewPositionRepo(db *mongo.Database) PositionRepo {
	return &positionRepo{
		collection: db.Collection("positions"),
	}
}

func (r *positionRepo) List(ctx context.Context) ([]*model.CuratedPosition, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	positions := []*model.CuratedPosition{}
	if err := cursor.All(ctx, &positions); err != nil {
		return nil, err
	}
	return positions, nil
}

func (r *positionRepo) GetByKey(ctx context.Context, key string) (*model.CuratedPosition, error) {
	var position model.CuratedPosition
	err := r.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&position)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &position, nil
}

// Upsert replaces the position with the same key, keeping its creation time
func (r *positionRepo) Upsert(ctx context.Context, position *model.CuratedPosition) error {
	if position.CreatedAt.IsZero() {
		position.CreatedAt = time.Now()
	}

	update := bson.M{
		"$set": bson.M{
			"name":  position.Name,
			"eco":   position.ECO,
			"fen":   position.FEN,
			"order": position.Order,
		},
		"$setOnInsert": bson.M{"createdAt": position.CreatedAt},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": position.Key}, update, options.Update().SetUpsert(true))
	return err
}
