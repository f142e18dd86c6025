package outbound

import "context"

// ArtifactStorePort writes output artifacts. Retryable write failures surface
// as *domain.TransientStorageError.
type ArtifactStorePort interface {
	Put(ctx context.Context, key string, payload []byte) error
}
