package settings

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"
)

// countingStore records how often the State commits.
type countingStore struct {
	Store
	commits int
	fail    error
}

func (c *countingStore) Commit() error {
	c.commits++
	if c.fail != nil {
		return c.fail
	}
	return c.Store.Commit()
}

func TestDefaults(t *testing.T) {
	d := Defaults()
	if d.Post.Contrast != 1 || d.Post.Saturation != 1 || d.Post.VerticalScale != 1 {
		t.Errorf("unexpected post defaults: %+v", d.Post)
	}
	if d.Lens.LeftCenter != (OpticalCenter{0.5, 0.5}) || d.Lens.RightCenter != (OpticalCenter{0.5, 0.5}) {
		t.Errorf("unexpected lens centers: %+v", d.Lens)
	}
	if !d.Interpolation.Enabled || d.Interpolation.MinDelay != 10*time.Millisecond {
		t.Errorf("unexpected interpolation defaults: %+v", d.Interpolation)
	}
}

func TestSetClamps(t *testing.T) {
	s := NewState(NewMemoryStore(), WithResolutionCount(3))
	tests := []struct {
		key  Key
		in   float64
		want float64
	}{
		{KeyConvergence, 1.7, 1},
		{KeyConvergence, -0.2, 0},
		{KeyContrast, 0.1, 0.5},
		{KeyBrightness, 0.9, 0.5},
		{KeySaturation, 5, 2},
		{KeyVerticalScale, 0, 0.1},
		{KeyLensK1, -3, -2},
		{KeyLensCenterRightY, 1.2, 1},
		{KeyLeftEyeOffsetX, -12345, -12345},
		{KeyRightEyeOffsetY, 4.6, 5},
		{KeyResolutionIndex, 7, 2},
		{KeyResolutionIndex, -1, 0},
		{KeyInterpolationMinDelayMs, 500, 100},
	}
	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			if _, err := s.Set(tt.key, tt.in); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if got := s.Get(tt.key); got != tt.want {
				t.Errorf("Get(%s) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestSetRejectsInvalid(t *testing.T) {
	s := NewState(NewMemoryStore())
	if _, err := s.Set("bogus", 1); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("unknown key error = %v", err)
	}
	nan := 0.0
	nan = nan / nan
	if _, err := s.Set(KeyContrast, nan); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("NaN error = %v", err)
	}
}

func TestSetIdempotent(t *testing.T) {
	store := &countingStore{Store: NewMemoryStore()}
	s := NewState(store)

	changed, err := s.Set(KeySharpness, 0.4)
	if err != nil || !changed {
		t.Fatalf("first Set = %v, %v", changed, err)
	}
	first := s.Snapshot()

	changed, err = s.Set(KeySharpness, 0.4)
	if err != nil || changed {
		t.Fatalf("second Set = %v, %v", changed, err)
	}
	if store.commits != 1 {
		t.Errorf("commits = %d, want 1", store.commits)
	}
	if s.Snapshot() != first {
		t.Error("identical Set published a new snapshot")
	}
}

func TestSnapshotIsImmutable(t *testing.T) {
	s := NewState(NewMemoryStore())
	before := s.Snapshot()
	if _, err := s.Set(KeyConvergence, 0.3); err != nil {
		t.Fatal(err)
	}
	if before.Eyes.Convergence != 0 {
		t.Errorf("old snapshot mutated: %v", before.Eyes.Convergence)
	}
	if s.Snapshot().Eyes.Convergence != 0.3 {
		t.Errorf("new snapshot convergence = %v", s.Snapshot().Eyes.Convergence)
	}
}

func TestAdjust(t *testing.T) {
	s := NewState(NewMemoryStore())
	for range 30 {
		if _, err := s.Adjust(KeyConvergence, 0.05); err != nil {
			t.Fatal(err)
		}
	}
	if got := s.Get(KeyConvergence); got != 1 {
		t.Errorf("convergence after repeated adjust = %v, want 1", got)
	}
	if _, err := s.Adjust(KeyLeftEyeOffsetY, -3); err != nil {
		t.Fatal(err)
	}
	if got := s.Snapshot().Eyes.Left.Y; got != -3 {
		t.Errorf("left Y = %d", got)
	}
}

func TestReset(t *testing.T) {
	store := &countingStore{Store: NewMemoryStore()}
	s := NewState(store, WithResolutionCount(3))
	s.Set(KeyContrast, 1.3)
	s.Set(KeyLensK2, 0.7)
	s.Set(KeyResolutionIndex, 2)
	commits := store.commits

	changed, err := s.Reset()
	if err != nil || !changed {
		t.Fatalf("Reset = %v, %v", changed, err)
	}
	if store.commits != commits+1 {
		t.Errorf("Reset committed %d times", store.commits-commits)
	}
	if s.Get(KeyContrast) != 1 || s.Get(KeyLensK2) != 0 {
		t.Errorf("tunables not reset: %+v", s.Snapshot())
	}
	if s.Get(KeyResolutionIndex) != 2 {
		t.Errorf("resolution index reset to %v", s.Get(KeyResolutionIndex))
	}

	if changed, _ := s.Reset(); changed {
		t.Error("second Reset reported a change")
	}
}

func TestPersistFailureStillPublishes(t *testing.T) {
	store := &countingStore{Store: NewMemoryStore(), fail: errors.New("disk full")}
	s := NewState(store)
	changed, err := s.Set(KeyBrightness, 0.2)
	if !changed || !errors.Is(err, ErrPersist) {
		t.Fatalf("Set = %v, %v", changed, err)
	}
	if s.Get(KeyBrightness) != 0.2 {
		t.Errorf("brightness = %v", s.Get(KeyBrightness))
	}
}

func TestRoundTripSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.db")
	values := map[Key]float64{
		KeyLeftEyeOffsetX:          -42,
		KeyLeftEyeOffsetY:          7,
		KeyRightEyeOffsetX:         13,
		KeyRightEyeOffsetY:         -2,
		KeyConvergence:             0.3,
		KeySharpness:               0.6,
		KeyContrast:                1.2,
		KeyBrightness:              -0.1,
		KeySaturation:              1.5,
		KeyVerticalScale:           1.4,
		KeyLensK1:                  0.22,
		KeyLensK2:                  -0.05,
		KeyLensK3:                  0.01,
		KeyLensCenterLeftX:         0.48,
		KeyLensCenterLeftY:         0.52,
		KeyLensCenterRightX:        0.51,
		KeyLensCenterRightY:        0.49,
		KeyResolutionIndex:         1,
		KeyInterpolationEnabled:    0,
		KeyInterpolationMinDelayMs: 12,
	}
	if len(values) != len(Keys()) {
		t.Fatalf("round trip covers %d of %d keys", len(values), len(Keys()))
	}

	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	s := NewState(store, WithResolutionCount(3))
	for k, v := range values {
		if _, err := s.Set(k, v); err != nil {
			t.Fatalf("Set(%s): %v", k, err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	store, err = NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	reloaded := NewState(store, WithResolutionCount(3))
	for k, want := range values {
		if got := reloaded.Get(k); !approx(got, want) {
			t.Errorf("%s = %v after reload, want %v", k, got, want)
		}
	}
}

func TestSQLiteCommitAfterClose(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	store.Close()
	store.Put("contrast", 1.1)
	if err := store.Commit(); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("Commit after Close = %v", err)
	}
}

func TestSetHugeOffsetStaysInRange(t *testing.T) {
	store := &countingStore{Store: NewMemoryStore()}
	s := NewState(store)

	changed, err := s.Set(KeyLeftEyeOffsetX, 1e23)
	if err != nil || !changed {
		t.Fatalf("first Set = %v, %v", changed, err)
	}
	if got := s.Snapshot().Eyes.Left.X; got != math.MaxInt32 {
		t.Errorf("snapshot X = %d, want %d", got, math.MaxInt32)
	}
	if got := store.Get(string(KeyLeftEyeOffsetX), 0); got != math.MaxInt32 {
		t.Errorf("stored X = %v, want %d", got, math.MaxInt32)
	}

	changed, err = s.Set(KeyLeftEyeOffsetX, 1e23)
	if err != nil || changed {
		t.Errorf("second Set = %v, %v", changed, err)
	}
	if store.commits != 1 {
		t.Errorf("commits = %d, want 1", store.commits)
	}
}

func TestSetManyCommitsOnce(t *testing.T) {
	store := &countingStore{Store: NewMemoryStore()}
	s := NewState(store)
	before := s.Snapshot()

	changed, err := s.SetMany(map[Key]float64{
		KeyLeftEyeOffsetX:  -8,
		KeyRightEyeOffsetX: -8,
		KeySharpness:       0,
	})
	if err != nil || !changed {
		t.Fatalf("SetMany = %v, %v", changed, err)
	}
	if store.commits != 1 {
		t.Errorf("commits = %d, want 1", store.commits)
	}
	snap := s.Snapshot()
	if snap == before || snap.Eyes.Left.X != -8 || snap.Eyes.Right.X != -8 {
		t.Errorf("snapshot = %+v", snap.Eyes)
	}

	changed, err = s.SetMany(map[Key]float64{KeyLeftEyeOffsetX: -8, KeyRightEyeOffsetX: -8})
	if err != nil || changed {
		t.Errorf("repeated SetMany = %v, %v", changed, err)
	}
	if store.commits != 1 {
		t.Errorf("commits after repeat = %d, want 1", store.commits)
	}
}

func TestSetManyAppliesNothingOnInvalid(t *testing.T) {
	store := &countingStore{Store: NewMemoryStore()}
	s := NewState(store)
	before := s.Snapshot()

	if _, err := s.SetMany(map[Key]float64{KeySharpness: 0.5, KeyContrast: math.NaN()}); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("NaN error = %v", err)
	}
	if _, err := s.SetMany(map[Key]float64{KeySharpness: 0.5, "bogus": 1}); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("unknown key error = %v", err)
	}
	if s.Snapshot() != before || store.commits != 0 {
		t.Errorf("invalid SetMany applied a change (commits=%d)", store.commits)
	}
}
