package llm

import (
	"context"
	"time"

	"github.com/helixir/paper-swipe-service/internal/observability"
)

// instrumentedCompleter records request metrics around another Completer.
type instrumentedCompleter struct {
	next    Completer
	metrics *observability.Metrics
}

// WithMetrics wraps c so every call is recorded in metrics. A nil c or nil
// metrics returns c unchanged.
func WithMetrics(c Completer, metrics *observability.Metrics) Completer {
	if c == nil || metrics == nil {
		return c
	}
	return &instrumentedCompleter{next: c, metrics: metrics}
}

func (i *instrumentedCompleter) Complete(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := i.next.Complete(ctx, req)
	if err != nil {
		i.metrics.RecordLLMRequestFailed(i.next.Provider(), i.next.Model(), ErrorType(err))
		return nil, err
	}
	i.metrics.RecordLLMRequest(i.next.Provider(), i.next.Model(), time.Since(start).Seconds(), resp.InputTokens, resp.OutputTokens)
	return resp, nil
}

func (i *instrumentedCompleter) Provider() string { return i.next.Provider() }

func (i *instrumentedCompleter) Model() string { return i.next.Model() }
