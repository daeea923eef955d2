package settings

import "context"

type Repo interface {
	// Get never fails on an empty store; it returns zero-value Settings.
	Get(ctx context.Context) (*Settings, error)
	Put(ctx context.Context, s *Settings) error
}
