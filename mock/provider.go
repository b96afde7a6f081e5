// Package mock provides test doubles for pilot interfaces using function fields.
package mock

import (
	"context"
	"fmt"

	"github.com/fwojciec/pilot"
)

// Interface compliance check.
var _ pilot.Provider = (*Provider)(nil)

// Provider is a test double for pilot.Provider.
// Set GenerateFn before calling Generate.
type Provider struct {
	GenerateFn func(ctx context.Context, req pilot.Request) (pilot.AssistantMessage, error)
}

// Generate delegates to GenerateFn.
func (p *Provider) Generate(ctx context.Context, req pilot.Request) (pilot.AssistantMessage, error) {
	return p.GenerateFn(ctx, req)
}

// Script returns a Provider that answers successive Generate calls with
// replies in order and appends every request it receives to *requests when
// requests is non-nil. Calls past the end of replies fail.
func Script(requests *[]pilot.Request, replies ...pilot.AssistantMessage) *Provider {
	next := 0
	return &Provider{
		GenerateFn: func(_ context.Context, req pilot.Request) (pilot.AssistantMessage, error) {
			if requests != nil {
				*requests = append(*requests, req)
			}
			if next >= len(replies) {
				return pilot.AssistantMessage{}, fmt.Errorf("mock: unexpected call %d, only %d replies scripted", next+1, len(replies))
			}
			reply := replies[next]
			next++
			return reply, nil
		},
	}
}
