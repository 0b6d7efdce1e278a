package settings

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/veil/common"
	"github.com/sirupsen/logrus"
)

var (
	// ErrUnknownKey is returned when a mutation names a key that is not a tunable.
	ErrUnknownKey = errors.New("unknown settings key")

	// ErrInvalidValue is returned for NaN and infinite values.
	ErrInvalidValue = errors.New("invalid settings value")

	// ErrPersist wraps a failed durable commit. The new snapshot is still published when it is returned.
	ErrPersist = errors.New("settings not persisted")
)

// State is the Configuration State: the single owner of every runtime tunable.
// Reads are lock-free through Snapshot. Writers are serialized, clamp their input, publish a new
// immutable Snapshot and commit the change to the Store before returning.
type State interface {
	// Snapshot returns the current immutable parameter snapshot. The returned pointer must not be mutated.
	//
	// Returns:
	//   - *Snapshot: the current snapshot
	Snapshot() *Snapshot

	// Get returns the current value of a tunable.
	//
	// Parameters:
	//   - key: the tunable to read
	//
	// Returns:
	//   - float64: the current value, or 0 for an unknown key
	Get(key Key) float64

	// Set clamps v into the key's range and stores it. Setting the value already held is a no-op that
	// neither publishes a snapshot nor touches the Store.
	//
	// Parameters:
	//   - key: the tunable to write
	//   - v: the requested value
	//
	// Returns:
	//   - bool: true if the stored value changed
	//   - error: ErrUnknownKey, ErrInvalidValue, or an error wrapping ErrPersist
	Set(key Key, v float64) (bool, error)

	// SetMany clamps and stores several values as one mutation: a single snapshot is published and the
	// Store commits once. Nothing is applied if any key or value is invalid.
	//
	// Parameters:
	//   - values: the requested value per key
	//
	// Returns:
	//   - bool: true if any stored value changed
	//   - error: see Set
	SetMany(values map[Key]float64) (bool, error)

	// Adjust adds delta to the current value of key and stores the clamped result.
	//
	// Parameters:
	//   - key: the tunable to write
	//   - delta: the relative change
	//
	// Returns:
	//   - bool: true if the stored value changed
	//   - error: see Set
	Adjust(key Key, delta float64) (bool, error)

	// Reset restores every tunable except the resolution index to its default with a single commit.
	//
	// Returns:
	//   - bool: true if anything changed
	//   - error: an error wrapping ErrPersist if the commit failed
	Reset() (bool, error)

	// Range returns the effective bounds of key for this State.
	//
	// Parameters:
	//   - key: the tunable
	//
	// Returns:
	//   - float64: the lower bound
	//   - float64: the upper bound
	Range(key Key) (float64, float64)

	// Close closes the underlying Store.
	//
	// Returns:
	//   - error: an error if the store failed to close
	Close() error
}

// state is the implementation of the State interface.
type state struct {
	mu              sync.Mutex
	snapshot        atomic.Pointer[Snapshot]
	store           Store
	resolutionCount int
}

var _ State = &state{}

// NewState bulk loads every tunable from store and returns a State ready for the first frame.
// Stored values outside their range are clamped on load.
//
// Parameters:
//   - store: the durable backend
//   - options: variadic list of StateBuilderOption functions to configure the State
//
// Returns:
//   - State: the loaded State
func NewState(store Store, options ...StateBuilderOption) State {
	s := &state{
		store:           store,
		resolutionCount: 1,
	}
	for _, opt := range options {
		opt(s)
	}

	snap := Snapshot{}
	for _, k := range keyOrder {
		v, err := s.clamp(k, store.Get(string(k), tunables[k].def))
		if err != nil {
			v = tunables[k].def
		}
		tunables[k].set(&snap, v)
	}
	s.snapshot.Store(&snap)

	common.Logger().WithFields(logrus.Fields{
		"convergence": snap.Eyes.Convergence,
		"resolution":  snap.ResolutionIndex,
	}).Info("settings loaded")
	return s
}

func (s *state) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

func (s *state) Get(key Key) float64 {
	tn, ok := tunables[key]
	if !ok {
		return 0
	}
	return tn.get(s.snapshot.Load())
}

func (s *state) Set(key Key, v float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLocked(map[Key]float64{key: v})
}

func (s *state) SetMany(values map[Key]float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLocked(values)
}

func (s *state) Adjust(key Key, delta float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tn, ok := tunables[key]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return s.setLocked(map[Key]float64{key: tn.get(s.snapshot.Load()) + delta})
}

// setLocked validates every value before touching the snapshot, then publishes one snapshot and
// commits once for whatever actually changed.
func (s *state) setLocked(values map[Key]float64) (bool, error) {
	clamped := make(map[Key]float64, len(values))
	for key, v := range values {
		if _, ok := tunables[key]; !ok {
			return false, fmt.Errorf("%w: %q", ErrUnknownKey, key)
		}
		c, err := s.clamp(key, v)
		if err != nil {
			return false, err
		}
		clamped[key] = c
	}

	cur := s.snapshot.Load()
	next := *cur
	var changed []Key
	for _, key := range keyOrder {
		v, ok := clamped[key]
		if !ok {
			continue
		}
		tn := tunables[key]
		if tn.get(cur) == v {
			continue
		}
		tn.set(&next, v)
		s.store.Put(string(key), v)
		changed = append(changed, key)
	}
	if len(changed) == 0 {
		return false, nil
	}

	s.snapshot.Store(&next)
	if err := s.store.Commit(); err != nil {
		return true, fmt.Errorf("%w: %v: %w", ErrPersist, changed, err)
	}

	for _, key := range changed {
		common.Logger().WithFields(logrus.Fields{
			"key":   string(key),
			"value": clamped[key],
		}).Debug("setting changed")
	}
	return true, nil
}

func (s *state) Reset() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.snapshot.Load()
	next := *cur
	changed := false
	for _, k := range keyOrder {
		if k == KeyResolutionIndex {
			continue
		}
		tn := tunables[k]
		if tn.get(cur) == tn.def {
			continue
		}
		tn.set(&next, tn.def)
		s.store.Put(string(k), tn.def)
		changed = true
	}
	if !changed {
		return false, nil
	}

	s.snapshot.Store(&next)
	if err := s.store.Commit(); err != nil {
		return true, fmt.Errorf("%w: reset: %w", ErrPersist, err)
	}
	common.Logger().Info("settings reset to defaults")
	return true, nil
}

func (s *state) Range(key Key) (float64, float64) {
	if key == KeyResolutionIndex {
		return 0, float64(s.resolutionCount - 1)
	}
	return key.Range()
}

func (s *state) Close() error {
	return s.store.Close()
}

// clamp validates v and forces it into the effective range of key. Integer keys are rounded first.
func (s *state) clamp(key Key, v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s is %v", ErrInvalidValue, key, v)
	}
	if tunables[key].integer {
		v = math.Round(v)
	}
	lo, hi := s.Range(key)
	return common.Clamp(v, lo, hi), nil
}
