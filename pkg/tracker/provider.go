// Package tracker supplies position samples for a subject from a GPS feed or
// a scripted route.
package tracker

import (
	"context"

	"github.com/chalosafe/safezone/module/core/domain"
)

// Provider yields position samples in the order the source produced them.
// Next returns io.EOF once the source is exhausted.
type Provider interface {
	Next(ctx context.Context) (domain.Sample, error)
}
