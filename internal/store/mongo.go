package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/swifthaul/chat-service/internal/domain"
)

// EventPublisher receives the insert event after a successful write.
// Publish failures are logged, never returned: the message is already
// durable and the feed redelivers from the store on reconnect.
type EventPublisher interface {
	PublishInsert(ctx context.Context, m domain.Message) error
}

type mongoGateway struct {
	coll      *mongo.Collection
	publisher EventPublisher
	log       *zap.SugaredLogger
}

func NewMongoGateway(coll *mongo.Collection, publisher EventPublisher, log *zap.SugaredLogger) Gateway {
	idx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "receiver.id", Value: 1}, {Key: "receiver.kind", Value: 1}, {Key: "read", Value: 1}}},
	}
	_, _ = coll.Indexes().CreateMany(context.Background(), idx)
	return &mongoGateway{coll: coll, publisher: publisher, log: log}
}

func (g *mongoGateway) Insert(ctx context.Context, m *domain.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if m.ConversationID == "" {
		m.ConversationID = domain.PairConversationID(m.Sender, m.Receiver)
	}
	if _, err := g.coll.InsertOne(ctx, m); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	if g.publisher != nil {
		if err := g.publisher.PublishInsert(ctx, *m); err != nil {
			g.log.Errorw("publish insert event", "err", err, "message_id", m.ID)
		}
	}
	return nil
}

func participantFilter(field string, ref domain.ParticipantRef) bson.M {
	return bson.M{field + ".id": ref.ID, field + ".kind": ref.Kind}
}

func (g *mongoGateway) ListForParticipant(ctx context.Context, ref domain.ParticipantRef) ([]domain.Message, error) {
	filter := bson.M{"$or": []bson.M{
		participantFilter("sender", ref),
		participantFilter("receiver", ref),
	}}
	return g.list(ctx, filter)
}

func (g *mongoGateway) ListConversation(ctx context.Context, viewer, counterpart domain.ParticipantRef) ([]domain.Message, error) {
	filter := bson.M{"conversation_id": domain.PairConversationID(viewer, counterpart)}
	return g.list(ctx, filter)
}

func (g *mongoGateway) list(ctx context.Context, filter bson.M) ([]domain.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := g.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find messages: %w", err)
	}
	defer cur.Close(ctx)
	var out []domain.Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return out, nil
}

func (g *mongoGateway) MarkConversationRead(ctx context.Context, viewer, counterpart domain.ParticipantRef) (int64, error) {
	filter := bson.M{
		"sender.id":     counterpart.ID,
		"sender.kind":   counterpart.Kind,
		"receiver.id":   viewer.ID,
		"receiver.kind": viewer.Kind,
		"read":          false,
	}
	res, err := g.coll.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}
	return res.ModifiedCount, nil
}
