package store

import "context"

type prefixedStorage struct {
	base   Storage
	prefix string
}

// WithPrefix scopes base to keys starting with prefix. The API uses it to give
// every client device its own session tiers on a shared backend.
func WithPrefix(base Storage, prefix string) Storage {
	if prefix == "" {
		return base
	}
	return &prefixedStorage{base: base, prefix: prefix}
}

func (p *prefixedStorage) Get(ctx context.Context, key string) ([]byte, error) {
	return p.base.Get(ctx, p.prefix+key)
}

func (p *prefixedStorage) Set(ctx context.Context, key string, value []byte) error {
	return p.base.Set(ctx, p.prefix+key, value)
}

func (p *prefixedStorage) Remove(ctx context.Context, key string) error {
	return p.base.Remove(ctx, p.prefix+key)
}

func (p *prefixedStorage) Ping(ctx context.Context) error {
	if pinger, ok := p.base.(Pinger); ok {
		return pinger.Ping(ctx)
	}
	return nil
}
