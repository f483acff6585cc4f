// Package storage provides versioned key-value persistence for quota and
// usage state. Each component stores its whole state under one key.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by Load when the key has never been saved.
var ErrNotFound = errors.New("storage: key not found")

// Envelope wraps a persisted value with its schema version.
type Envelope struct {
	UpdatedAt time.Time       `json:"updatedAt"`
	Data      json.RawMessage `json:"data"`
	Version   int             `json:"version"`
}

// Store is a durable key-value store.
type Store interface {
	Load(ctx context.Context, key string) (Envelope, error)
	Save(ctx context.Context, key string, env Envelope) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Encode marshals v into an envelope with the given schema version.
func Encode(version int, v any) (Envelope, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal state: %w", err)
	}
	return Envelope{Version: version, Data: data, UpdatedAt: time.Now().UTC()}, nil
}

// Decode unmarshals the envelope payload into v after checking the version.
func (e Envelope) Decode(version int, v any) error {
	if e.Version != version {
		return &VersionError{Got: e.Version, Want: version}
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return nil
}

// VersionError reports a persisted schema version the caller cannot read.
type VersionError struct {
	Got  int
	Want int
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("storage: schema version %d, want %d", e.Got, e.Want)
}
