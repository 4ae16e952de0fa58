package domain

import "context"

// QueryBridge runs read-only scripts against the host application.
//
// Query returns the raw output, which is empty when the script produced
// nothing. Decode parses raw output into nested map[string]any, []any and
// scalar values.
type QueryBridge interface {
	Query(ctx context.Context, script string, args ...string) ([]byte, error)
	Decode(raw []byte) (any, error)
}

// MutationBridge runs side-effecting scripts against the host application and
// returns their textual result, if any.
type MutationBridge interface {
	Mutate(ctx context.Context, script string, args ...string) (string, error)
}
