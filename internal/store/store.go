// Package store is the persistence port used by the identity and booking
// packages. Every record collection lives under one namespaced key as a flat,
// ordered list; writes replace the whole list.
package store

import (
	"context"
	"errors"
)

var ErrKeyNotFound = errors.New("key not found")

// Storage is a byte-oriented key-value backend. Implementations must be safe
// for concurrent use.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// Pinger is implemented by backends that can report their own health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Locker serialises read-modify-write cycles on one key.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// Collection keys shared by the identity and booking packages.
const (
	KeyPatients       = "sus_users"
	KeyDoctors        = "sus_doctors"
	KeyLegacyBookings = "sus_appointments"
	KeyDoctorSlots    = "sus_doctor_appointments"
)
