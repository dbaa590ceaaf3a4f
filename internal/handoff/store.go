// Package handoff carries a pending extraction draft across a navigation
// boundary: the flow that extracts writes it, the flow that reviews reads it
// exactly once.
package handoff

import (
	"context"
	"encoding/json"
)

// Pending is one extracted draft waiting for review on a policy.
type Pending struct {
	DocumentID string          `json:"documentId"`
	Draft      json.RawMessage `json:"draft"`
}

// Store is a keyed, consume-once slot addressed by policy ID. Put overwrites
// any value already present (last-write-wins); TakeIfPresent removes what it
// returns, so a second take without an intervening Put reports absent.
type Store interface {
	Put(ctx context.Context, policyID string, pending Pending) error
	TakeIfPresent(ctx context.Context, policyID string) (Pending, bool, error)
	Drop(ctx context.Context, policyID string) error
}
