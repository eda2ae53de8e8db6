// Package profile defines the per-identity speaker profile: the
// normalization statistics and trained mixture model produced at enrollment,
// plus the store that persists profiles as opaque blobs keyed by identity.
package profile

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/user/voicegate/internal/gmm"
)

// Profile bundles everything needed to verify one identity. A profile's
// model is only ever scored against features normalized by that same
// profile's stats.
type Profile struct {
	Identity   string     `msgpack:"identity"`
	Stats      *Stats     `msgpack:"stats"`
	Model      *gmm.Model `msgpack:"model"`
	EnrolledAt time.Time  `msgpack:"enrolled_at"`
}

// Validate checks internal consistency before persisting or scoring.
func (p *Profile) Validate() error {
	if p.Identity == "" {
		return fmt.Errorf("profile: empty identity")
	}
	if p.Stats == nil || p.Model == nil {
		return fmt.Errorf("profile: %s: incomplete profile", p.Identity)
	}
	if p.Stats.Dim() != p.Model.Dim() {
		return fmt.Errorf("profile: %s: stats dim %d does not match model dim %d",
			p.Identity, p.Stats.Dim(), p.Model.Dim())
	}
	return nil
}

// Encode serializes the profile to its persisted blob form.
func (p *Profile) Encode() ([]byte, error) {
	data, err := msgpack.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode profile: %w", err)
	}
	return data, nil
}

// Decode deserializes a profile blob.
func Decode(data []byte) (*Profile, error) {
	var p Profile
	if err := msgpack.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}
