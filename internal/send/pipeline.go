package send

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/swifthaul/chat-service/internal/auth"
	"github.com/swifthaul/chat-service/internal/domain"
	"github.com/swifthaul/chat-service/internal/metrics"
	"github.com/swifthaul/chat-service/internal/store"
)

var (
	// ErrEmptyContent rejects whitespace-only messages before any I/O.
	ErrEmptyContent = errors.New("empty message content")
	// ErrNoSender means neither an auth context nor a guest token was
	// present. Surfaced as a warning, never a crash.
	ErrNoSender = errors.New("no sender identity")

	ErrInvalidReceiver = errors.New("invalid receiver")
)

// Notifier is the best-effort fan-out hook invoked after persistence.
type Notifier interface {
	MessageCreated(ctx context.Context, m *domain.Message)
}

// Pipeline validates and persists outgoing messages. There is no
// pre-confirmation local append: the transcript update rides the persist
// return and the feed event, reconciled by message id. A persistence
// failure is returned to the caller; there is no automatic retry and no
// rollback of messages already persisted.
type Pipeline struct {
	gw       store.Gateway
	notifier Notifier
	log      *zap.SugaredLogger
}

func NewPipeline(gw store.Gateway, notifier Notifier, log *zap.SugaredLogger) *Pipeline {
	return &Pipeline{gw: gw, notifier: notifier, log: log}
}

func (p *Pipeline) Send(ctx context.Context, actx auth.Context, receiver domain.ParticipantRef, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		metrics.SendRejected.WithLabelValues("empty").Inc()
		return nil, ErrEmptyContent
	}

	sender, ok := actx.SenderRef()
	if !ok {
		metrics.SendRejected.WithLabelValues("no_sender").Inc()
		return nil, ErrNoSender
	}

	if err := receiver.Validate(); err != nil {
		metrics.SendRejected.WithLabelValues("receiver").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidReceiver, err)
	}
	if receiver.Equal(sender) {
		metrics.SendRejected.WithLabelValues("receiver").Inc()
		return nil, fmt.Errorf("%w: cannot message self", ErrInvalidReceiver)
	}

	m := &domain.Message{
		Sender:   sender,
		Receiver: receiver,
		Content:  content,
	}
	if err := p.gw.Insert(ctx, m); err != nil {
		return nil, fmt.Errorf("persist message: %w", err)
	}
	metrics.MessagesSent.Inc()

	if p.notifier != nil {
		p.notifier.MessageCreated(ctx, m)
	}
	return m, nil
}
