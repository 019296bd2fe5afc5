// Package artifact mirrors rendered session reports to object storage so
// they can be served or emailed later without hitting the relational store.
package artifact

import "context"

// Store persists report artifacts keyed by session and relative path.
type Store interface {
	Put(ctx context.Context, sessionID, path string, content []byte) error
	Get(ctx context.Context, sessionID, path string) ([]byte, error)
	List(ctx context.Context, sessionID string) ([]string, error)
}
