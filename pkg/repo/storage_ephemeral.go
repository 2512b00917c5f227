package repo

import (
	"context"
	"os"
)

// EphemeralStorage is the fallback used when no durable backend is
// configured. Nothing is retained: writes and deletes succeed without
// effect and listings are always empty.
type EphemeralStorage struct{}

// NewEphemeralStorage creates the non-persistent fallback storage.
func NewEphemeralStorage() *EphemeralStorage {
	return &EphemeralStorage{}
}

func (e *EphemeralStorage) Write(_ context.Context, _ string, _ []byte, _ string) error {
	return nil
}

func (e *EphemeralStorage) Read(_ context.Context, _ string) ([]byte, error) {
	return nil, os.ErrNotExist
}

func (e *EphemeralStorage) List(_ context.Context, _ string) ([]string, error) {
	return nil, nil
}

func (e *EphemeralStorage) Delete(_ context.Context, _ string) error {
	return nil
}

func (e *EphemeralStorage) Persistent() bool {
	return false
}

func (e *EphemeralStorage) Close() error {
	return nil
}
