package model

import "time"

// CuratedPosition is a named opening position in the trainer's deck
type CuratedPosition struct {
	Key       string    `json:"key" bson:"_id"` // stable slug, e.g. "sicilian-open"
	Name      string    `json:"name" bson:"name"`
	ECO       string    `json:"eco,omitempty" bson:"eco,omitempty"`
	FEN       string    `json:"fen" bson:"fen"`
	Order     int       `json:"order" bson:"order"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
