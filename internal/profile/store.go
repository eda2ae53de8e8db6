package profile

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/user/voicegate/internal/kv"
)

// ErrNoProfile is returned when no profile exists for an identity. It cannot
// be recovered locally; the identity must enroll first.
var ErrNoProfile = errors.New("profile: identity not enrolled")

const keyPrefix = "profile:"

// Store persists one profile per identity behind a key-value blob store.
// A save replaces the whole profile; re-enrollment overwrites wholesale and
// no partial profile is ever observable.
//
// Concurrent operations on distinct identities do not interact. Writes to
// the same identity must be serialized by the caller.
type Store struct {
	kv kv.Store
}

// NewStore creates a profile Store on top of a key-value backend.
func NewStore(backend kv.Store) *Store {
	return &Store{kv: backend}
}

// Save validates and persists a profile, overwriting any previous one for
// the same identity.
func (s *Store) Save(ctx context.Context, p *Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	data, err := p.Encode()
	if err != nil {
		return err
	}

	if err := s.kv.Put(ctx, keyPrefix+p.Identity, data); err != nil {
		return err
	}

	log.Info().
		Str("identity", p.Identity).
		Int("components", p.Model.Components()).
		Int("dim", p.Model.Dim()).
		Int("blob_bytes", len(data)).
		Msg("Saved speaker profile")

	return nil
}

// Load returns the profile for an identity, or ErrNoProfile.
func (s *Store) Load(ctx context.Context, identity string) (*Profile, error) {
	data, err := s.kv.Get(ctx, keyPrefix+identity)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, ErrNoProfile
	}
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Exists reports whether an identity has an enrolled profile. This is the
// authoritative "registered" query; no separate bookkeeping is kept.
func (s *Store) Exists(ctx context.Context, identity string) (bool, error) {
	return s.kv.Has(ctx, keyPrefix+identity)
}

// Delete removes an identity's profile. No error if absent.
func (s *Store) Delete(ctx context.Context, identity string) error {
	return s.kv.Delete(ctx, keyPrefix+identity)
}

// Identities returns all enrolled identities, sorted.
func (s *Store) Identities(ctx context.Context) ([]string, error) {
	keys, err := s.kv.Keys(ctx, keyPrefix)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = strings.TrimPrefix(k, keyPrefix)
	}
	return ids, nil
}

// Close closes the underlying backend.
func (s *Store) Close() error {
	return s.kv.Close()
}
