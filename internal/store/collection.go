package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Collection is a typed view over one key holding a JSON array. Insertion
// order is preserved and is the display order.
type Collection[T any] struct {
	storage Storage
	key     string
}

func NewCollection[T any](s Storage, key string) Collection[T] {
	return Collection[T]{storage: s, key: key}
}

func (c Collection[T]) Key() string { return c.key }

// Load returns the stored list, or an empty list when the key was never written.
func (c Collection[T]) Load(ctx context.Context) ([]T, error) {
	raw, err := c.storage.Get(ctx, c.key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", c.key, err)
	}

	items := []T{}
	if len(raw) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.key, err)
	}
	return items, nil
}

// Save replaces the whole list. A failed write leaves the previous list intact.
func (c Collection[T]) Save(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.key, err)
	}
	if err := c.storage.Set(ctx, c.key, raw); err != nil {
		return fmt.Errorf("write %s: %w", c.key, err)
	}
	return nil
}

func (c Collection[T]) Clear(ctx context.Context) error {
	if err := c.storage.Remove(ctx, c.key); err != nil {
		return fmt.Errorf("remove %s: %w", c.key, err)
	}
	return nil
}

// Value is a typed view over one key holding a single JSON object.
type Value[T any] struct {
	storage Storage
	key     string
}

func NewValue[T any](s Storage, key string) Value[T] {
	return Value[T]{storage: s, key: key}
}

func (v Value[T]) Key() string { return v.key }

// Load returns nil without error when the key is absent.
func (v Value[T]) Load(ctx context.Context) (*T, error) {
	raw, err := v.storage.Get(ctx, v.key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", v.key, err)
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", v.key, err)
	}
	return &out, nil
}

func (v Value[T]) Save(ctx context.Context, item T) error {
	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode %s: %w", v.key, err)
	}
	if err := v.storage.Set(ctx, v.key, raw); err != nil {
		return fmt.Errorf("write %s: %w", v.key, err)
	}
	return nil
}

func (v Value[T]) Clear(ctx context.Context) error {
	if err := v.storage.Remove(ctx, v.key); err != nil {
		return fmt.Errorf("remove %s: %w", v.key, err)
	}
	return nil
}
