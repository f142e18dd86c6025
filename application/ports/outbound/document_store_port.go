package outbound

import "context"

// DocumentStorePort reads input documents by key. Missing or unreadable
// objects surface as domain.ErrObjectNotFound / domain.ErrStorageAccessDenied.
type DocumentStorePort interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}
