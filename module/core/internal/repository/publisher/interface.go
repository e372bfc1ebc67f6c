package publisher

import (
	"context"

	"github.com/chalosafe/safezone/module/core/domain"
)

type EventPublisher interface {
	PublishAlert(ctx context.Context, alert *domain.Alert) error
	PublishEmergency(ctx context.Context, e *domain.Emergency) error
}
