// Package trace records per-activation execution history: a CBOR
// snapshot of an abandoned activation's slots (grounded on the
// teacher's vm/dist/wire.go canonical-encoding pattern) and a durable
// SQLite log of method name, duration, and outcome (spec §5's
// abandon-on-timeout model, watched over by internal/watchdog).
package trace

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("trace: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Snapshot is a point-in-time capture of an activation abandoned by a
// watchdog timeout: its arguments and locals at the moment of
// abandonment, for post-mortem inspection. Object bodies are captured
// as their CBOR-safe representation (Kind tag plus payload), not as
// vm.Object directly, since vm.Object's fields are unexported.
type Snapshot struct {
	ActivationID string    `cbor:"id"`
	MethodPath   string    `cbor:"method"`
	IP           int       `cbor:"ip"`
	Args         []ObjectView `cbor:"args"`
	Locals       []ObjectView `cbor:"locals"`
}

// ObjectView is the CBOR-serializable projection of a vm.Object.
type ObjectView struct {
	Kind    uint8  `cbor:"kind"`
	Integer uint64 `cbor:"integer,omitempty"`
	Bytes   []byte `cbor:"bytes,omitempty"`
}

// MarshalSnapshot serializes a Snapshot to canonical CBOR bytes.
func MarshalSnapshot(s *Snapshot) ([]byte, error) {
	return cborEncMode.Marshal(s)
}

// UnmarshalSnapshot deserializes a Snapshot from CBOR bytes.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("trace: unmarshal snapshot: %w", err)
	}
	return &s, nil
}
