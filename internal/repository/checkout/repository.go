package checkout

import "context"

// Repository stores the serialized checkout of a browser session.
type Repository interface {
	Get(ctx context.Context, tenantID, sessionID string) ([]byte, error)
	Save(ctx context.Context, tenantID, sessionID string, state []byte) error
	Delete(ctx context.Context, tenantID, sessionID string) error
}
