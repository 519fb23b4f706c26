// Package observability holds request-scoped timing helpers.
package observability

import (
	"context"

	servertiming "github.com/mitchellh/go-server-timing"
)

// Span is a running Server-Timing metric. The zero value is a no-op.
type Span struct {
	metric *servertiming.Metric
}

func (s *Span) Stop() {
	if s != nil && s.metric != nil {
		s.metric.Stop()
	}
}

// StartSpan starts a Server-Timing metric when the request carries a timing
// header, and a no-op span otherwise.
func StartSpan(ctx context.Context, name, desc string) *Span {
	timing := servertiming.FromContext(ctx)
	if timing == nil {
		return &Span{}
	}
	metric := timing.NewMetric(name)
	if desc != "" {
		metric = metric.WithDesc(desc)
	}
	return &Span{metric: metric.Start()}
}
