package conversation

import (
	"context"

	"go.uber.org/zap"

	"github.com/swifthaul/chat-service/internal/domain"
	"github.com/swifthaul/chat-service/internal/identity"
	"github.com/swifthaul/chat-service/internal/store"
)

// Service produces the conversation listing for a viewer.
type Service struct {
	gw       store.Gateway
	resolver identity.Resolver
	log      *zap.SugaredLogger
}

func NewService(gw store.Gateway, resolver identity.Resolver, log *zap.SugaredLogger) *Service {
	return &Service{gw: gw, resolver: resolver, log: log}
}

// List fetches the viewer's messages and aggregates them. A fetch
// failure degrades to an empty list with a logged error; there is no
// retry loop.
func (s *Service) List(ctx context.Context, viewer domain.ParticipantRef) domain.ConversationList {
	msgs, err := s.gw.ListForParticipant(ctx, viewer)
	if err != nil {
		s.log.Errorw("list messages for aggregation", "err", err, "viewer", viewer.Key())
		return domain.ConversationList{}
	}
	return Aggregate(ctx, viewer, msgs, s.resolver)
}
