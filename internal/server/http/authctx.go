package httpserver

import (
	"context"

	"github.com/gofrs/uuid/v5"
)

type ctxKey string

const agentIDKey ctxKey = "sd.agentID"

// WithAgentID stores the authenticated agent ID in context.
func WithAgentID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, agentIDKey, id)
}

// AgentIDFromCtx fetches the agent ID from context.
func AgentIDFromCtx(ctx context.Context) (uuid.UUID, bool) {
	v := ctx.Value(agentIDKey)
	if v == nil {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
