package identity

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/swifthaul/chat-service/internal/domain"
)

var ErrUnknownKind = errors.New("unknown participant kind")

// Resolver maps an (id, kind) pair to display metadata.
type Resolver interface {
	Resolve(ctx context.Context, ref domain.ParticipantRef) (*domain.Identity, error)
}

// Source looks ids up in the profile store of a single participant kind.
type Source interface {
	Lookup(ctx context.Context, id string) (*domain.Identity, error)
}

// KindResolver dispatches on the kind tag to the source registered for
// it. There is exactly one source per kind; nothing inspects the shape
// of a profile record to guess where it came from.
type KindResolver struct {
	sources map[domain.ParticipantKind]Source
	log     *zap.SugaredLogger
}

func NewKindResolver(log *zap.SugaredLogger) *KindResolver {
	return &KindResolver{sources: make(map[domain.ParticipantKind]Source), log: log}
}

func (r *KindResolver) Register(kind domain.ParticipantKind, src Source) {
	r.sources[kind] = src
}

func (r *KindResolver) Resolve(ctx context.Context, ref domain.ParticipantRef) (*domain.Identity, error) {
	src, ok := r.sources[ref.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, ref.Kind)
	}
	id, err := src.Lookup(ctx, ref.ID)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", ref.Key(), err)
	}
	id.Ref = ref
	return id, nil
}

// Placeholder is the identity used when resolution fails. Listing and
// aggregation degrade to it instead of failing wholesale.
func Placeholder(ref domain.ParticipantRef) *domain.Identity {
	name := "Unknown"
	if ref.Kind == domain.KindGuest {
		name = "Guest"
	}
	return &domain.Identity{Ref: ref, DisplayName: name}
}
