// Package id provides ULID-based identifiers for demo runs.
//
// ULIDs sort by creation time, so run IDs attached to spans and exported
// results line up with the order the runs happened in.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// RunID identifies one execution of a demo, e.g.
// run_01HQZX3V5K8TYGJ2M4N6P7R9S0.
type RunID string

// RunPrefix marks run IDs in logs and span attributes.
const RunPrefix = "run"

var (
	entropyMu sync.Mutex
	entropy   io.Reader = ulid.Monotonic(rand.Reader, 0)
)

// NewRunID returns a run ID stamped with the current time. IDs created
// within one millisecond still sort in creation order.
func NewRunID() RunID {
	return newRunID(time.Now(), nil)
}

// newRunID uses src instead of the shared monotonic source when non-nil.
func newRunID(now time.Time, src io.Reader) RunID {
	if src == nil {
		entropyMu.Lock()
		defer entropyMu.Unlock()
		src = entropy
	}
	return RunID(RunPrefix + "_" + ulid.MustNew(ulid.Timestamp(now), src).String())
}

// ParseRunID checks that s is a prefixed ULID.
func ParseRunID(s string) (RunID, error) {
	if _, err := parse(s); err != nil {
		return "", err
	}
	return RunID(s), nil
}

func parse(s string) (ulid.ULID, error) {
	raw, ok := strings.CutPrefix(s, RunPrefix+"_")
	if !ok {
		return ulid.ULID{}, fmt.Errorf("invalid run id %q: missing %q prefix", s, RunPrefix+"_")
	}
	u, err := ulid.ParseStrict(raw)
	if err != nil {
		return ulid.ULID{}, fmt.Errorf("invalid run id %q: %w", s, err)
	}
	return u, nil
}

func (id RunID) String() string { return string(id) }

// Time returns when the run started, to the millisecond.
func (id RunID) Time() (time.Time, error) {
	u, err := parse(string(id))
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()), nil
}
