package identity

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/swifthaul/chat-service/internal/apperr"
	"github.com/swifthaul/chat-service/internal/domain"
)

type profileDoc struct {
	ID          string `bson:"_id"`
	DisplayName string `bson:"display_name"`
	AvatarURL   string `bson:"avatar_url"`
	Role        string `bson:"role"`
}

// MongoSource serves a profile collection for one participant kind.
// Users and employees both live in Mongo, in separate collections.
type MongoSource struct {
	coll *mongo.Collection
}

func NewMongoSource(coll *mongo.Collection) *MongoSource {
	return &MongoSource{coll: coll}
}

func (s *MongoSource) Lookup(ctx context.Context, id string) (*domain.Identity, error) {
	var doc profileDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("profile lookup: %w", err)
	}
	return &domain.Identity{
		DisplayName: doc.DisplayName,
		AvatarURL:   doc.AvatarURL,
		Role:        doc.Role,
	}, nil
}
