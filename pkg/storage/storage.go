package storage

import (
	"context"
	"encoding/json"

	pkgerrors "github.com/dmoreno/shopfront/pkg/errors"
)

// Store is the durable local key/value surface the client persists session,
// cart, and UI flags into. Values are whole-object snapshots; there is no
// partial-write discipline below the envelope version check.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, keys ...string) error
}

// envelope wraps every persisted snapshot so shape changes between
// deployments discard stale blobs instead of crashing on restore.
type envelope struct {
	Version int             `json:"version"`
	Payload json.RawMessage `json:"payload"`
}

// SaveJSON writes payload under key wrapped in a versioned envelope.
func SaveJSON(ctx context.Context, s Store, key string, version int, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal snapshot payload")
	}
	blob, err := json.Marshal(envelope{Version: version, Payload: raw})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal snapshot envelope")
	}
	if err := s.Set(ctx, key, blob); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist snapshot")
	}
	return nil
}

// LoadJSON restores the snapshot at key into out. It reports false without
// error when the key is absent, undecodable, or carries a different schema
// version; a stale snapshot is discarded, never a fatal condition.
func LoadJSON(ctx context.Context, s Store, key string, version int, out any) (bool, error) {
	blob, found, err := s.Get(ctx, key)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read snapshot")
	}
	if !found {
		return false, nil
	}

	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return false, nil
	}
	if env.Version != version {
		return false, nil
	}
	if err := json.Unmarshal(env.Payload, out); err != nil {
		return false, nil
	}
	return true, nil
}
