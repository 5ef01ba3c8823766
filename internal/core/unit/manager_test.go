package unit

import (
	"errors"
	"slices"
	"testing"

	"github.com/boraty14/Becs/internal/config"
	"github.com/boraty14/Becs/internal/core/pool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeUnit struct {
	id        int
	active    bool
	destroyed bool
}

// recorder counts lifecycle calls per unit.
type recorder struct {
	nextID      int
	created     int
	activated   []int
	deactivated []int
	destroyed   []int
}

func (r *recorder) Create() *fakeUnit {
	r.nextID++
	r.created++
	return &fakeUnit{id: r.nextID}
}

func (r *recorder) Activate(u *fakeUnit) {
	u.active = true
	r.activated = append(r.activated, u.id)
}

func (r *recorder) Deactivate(u *fakeUnit) {
	u.active = false
	r.deactivated = append(r.deactivated, u.id)
}

func (r *recorder) Destroy(u *fakeUnit) {
	u.active = false
	u.destroyed = true
	r.destroyed = append(r.destroyed, u.id)
}

func newTestManager(t *testing.T, cfg config.PoolConfig) (*Manager[*fakeUnit], *recorder, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.WarnLevel)
	rec := &recorder{}
	m := New[*fakeUnit](rec, zap.New(core))
	if err := m.InitPool(cfg); err != nil {
		t.Fatalf("InitPool: %v", err)
	}
	return m, rec, logs
}

func addN(t *testing.T, m *Manager[*fakeUnit], n int) []*fakeUnit {
	t.Helper()
	out := make([]*fakeUnit, 0, n)
	for i := 0; i < n; i++ {
		u, err := m.AddUnit()
		if err != nil {
			t.Fatalf("AddUnit: %v", err)
		}
		out = append(out, u)
	}
	return out
}

func TestUninitializedPool(t *testing.T) {
	m := New[*fakeUnit](&recorder{}, nil)

	if _, err := m.AddUnit(); !errors.Is(err, ErrPoolNotInitialized) {
		t.Fatalf("AddUnit before InitPool: got %v, want ErrPoolNotInitialized", err)
	}
	if _, err := m.AddSingle(); !errors.Is(err, ErrPoolNotInitialized) {
		t.Fatalf("AddSingle before InitPool: got %v, want ErrPoolNotInitialized", err)
	}
	if err := m.RemoveUnit(&fakeUnit{}); !errors.Is(err, ErrPoolNotInitialized) {
		t.Fatalf("RemoveUnit before InitPool: got %v, want ErrPoolNotInitialized", err)
	}
	if s := m.Stats(); s != (PoolStats{}) {
		t.Errorf("Stats before InitPool = %+v, want zero", s)
	}
}

func TestInitPoolRejectsInvalidMax(t *testing.T) {
	m := New[*fakeUnit](&recorder{}, nil)
	if err := m.InitPool(config.PoolConfig{Initial: 1, Max: 0}); err == nil {
		t.Fatal("InitPool with max 0 should fail")
	}
}

func TestInitPoolRequiresConstructor(t *testing.T) {
	tests := []struct {
		name string
		lc   Lifecycle[*fakeUnit]
	}{
		{"nil lifecycle", nil},
		{"hooks without OnCreate", Hooks[*fakeUnit]{OnDestroy: func(*fakeUnit) {}}},
		{"nil hooks pointer", (*Hooks[*fakeUnit])(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(tt.lc, nil)
			if err := m.InitPool(config.DefaultPool()); !errors.Is(err, pool.ErrNoFactory) {
				t.Fatalf("InitPool: got %v, want ErrNoFactory", err)
			}
			if _, err := m.AddUnit(); !errors.Is(err, ErrPoolNotInitialized) {
				t.Fatalf("AddUnit after failed InitPool: got %v", err)
			}
		})
	}

	m := New[*fakeUnit](Hooks[*fakeUnit]{OnCreate: func() *fakeUnit { return &fakeUnit{id: 1} }}, nil)
	if err := m.InitPool(config.DefaultPool()); err != nil {
		t.Fatalf("InitPool with OnCreate: %v", err)
	}
	if u, err := m.AddUnit(); err != nil || u.id != 1 {
		t.Fatalf("AddUnit = %v, %v", u, err)
	}
}

func TestAddRemoveCount(t *testing.T) {
	m, rec, _ := newTestManager(t, config.DefaultPool())

	units := addN(t, m, 3)
	if m.Count() != 3 || m.IsEmpty() {
		t.Fatalf("Count = %d, IsEmpty = %v after 3 adds", m.Count(), m.IsEmpty())
	}
	for _, u := range units {
		if !u.active {
			t.Errorf("unit %d not activated on add", u.id)
		}
	}

	if err := m.RemoveUnit(units[1]); err != nil {
		t.Fatalf("RemoveUnit: %v", err)
	}
	if got := m.Units(); !slices.Equal(got, []*fakeUnit{units[0], units[2]}) {
		t.Fatalf("live units after removal = %v", got)
	}
	if units[1].active {
		t.Error("removed unit still active")
	}

	// Removing a unit that is not live is a no-op and releases nothing.
	if err := m.RemoveUnit(units[1]); err != nil {
		t.Fatalf("RemoveUnit of non-live unit: %v", err)
	}
	if err := m.RemoveUnit(&fakeUnit{id: 99}); err != nil {
		t.Fatalf("RemoveUnit of foreign unit: %v", err)
	}
	if m.Count() != 2 {
		t.Fatalf("Count = %d, want 2", m.Count())
	}
	if len(rec.deactivated) != 1 {
		t.Fatalf("deactivated %v, want exactly one release", rec.deactivated)
	}
}

func TestCountMatchesAddsMinusRemoves(t *testing.T) {
	m, _, _ := newTestManager(t, config.DefaultPool())

	ops := []string{"add", "add", "remove", "remove", "remove", "add", "add", "add", "remove", "add"}
	adds, removes := 0, 0
	for _, op := range ops {
		switch op {
		case "add":
			if _, err := m.AddUnit(); err != nil {
				t.Fatal(err)
			}
			adds++
		case "remove":
			if m.IsEmpty() {
				continue
			}
			if err := m.RemoveUnit(m.Units()[0]); err != nil {
				t.Fatal(err)
			}
			removes++
		}
		if m.Count() != adds-removes || m.Count() < 0 {
			t.Fatalf("after %s: Count = %d, want %d", op, m.Count(), adds-removes)
		}
	}
}

func TestUnitsIsReadOnlyView(t *testing.T) {
	m, _, _ := newTestManager(t, config.DefaultPool())
	addN(t, m, 2)

	view := m.Units()
	view[0] = nil
	_ = append(view[:1], &fakeUnit{id: 42})

	if got := m.Units(); got[0] == nil || got[1].id == 42 {
		t.Fatal("mutating the returned slice changed the live list")
	}
}

func TestRecycling(t *testing.T) {
	m, rec, _ := newTestManager(t, config.DefaultPool())

	first := addN(t, m, 1)[0]
	if err := m.RemoveUnit(first); err != nil {
		t.Fatal(err)
	}
	again := addN(t, m, 1)[0]

	if again != first {
		t.Fatal("released unit was not reused")
	}
	if rec.created != 1 {
		t.Fatalf("created %d units, want 1", rec.created)
	}
	if s := m.Stats(); s.All != 1 || s.Active != 1 || s.Inactive != 0 {
		t.Fatalf("Stats = %+v", s)
	}
}

func TestReleaseBeyondMaxDestroys(t *testing.T) {
	m, rec, _ := newTestManager(t, config.PoolConfig{Initial: 1, Max: 2})

	addN(t, m, 3)
	if err := m.ClearUnits(); err != nil {
		t.Fatal(err)
	}

	if len(rec.deactivated) != 2 {
		t.Errorf("deactivated %v, want 2 units", rec.deactivated)
	}
	if len(rec.destroyed) != 1 {
		t.Fatalf("destroyed %v, want 1 unit", rec.destroyed)
	}
	if slices.Contains(rec.deactivated, rec.destroyed[0]) {
		t.Errorf("unit %d was both deactivated and destroyed", rec.destroyed[0])
	}
	if s := m.Stats(); s.Inactive != 2 || s.All != 2 {
		t.Fatalf("Stats = %+v, want 2 retained", s)
	}
}

func TestRemoveIndex(t *testing.T) {
	m, _, _ := newTestManager(t, config.DefaultPool())
	units := addN(t, m, 3)

	if err := m.RemoveIndex(1); err != nil {
		t.Fatal(err)
	}
	if got := m.Units(); !slices.Equal(got, []*fakeUnit{units[0], units[2]}) {
		t.Fatalf("live units = %v", got)
	}

	for _, bad := range []int{-1, 2, 10} {
		if err := m.RemoveIndex(bad); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("RemoveIndex(%d) = %v, want ErrIndexOutOfRange", bad, err)
		}
	}
	if m.Count() != 2 {
		t.Fatalf("failed removals changed the count to %d", m.Count())
	}
}

func TestRemoveIndices(t *testing.T) {
	tests := []struct {
		name    string
		count   int
		indices []int
		want    []int // positions (pre-batch) that remain
	}{
		{"ascending input", 5, []int{0, 2, 4}, []int{1, 3}},
		{"unsorted input", 5, []int{3, 0, 1}, []int{2, 4}},
		{"out of range skipped", 3, []int{1, 7, 3}, []int{0, 2}},
		{"all", 4, []int{3, 2, 1, 0}, nil},
		{"empty batch", 2, nil, []int{0, 1}},
		// The second 2 is processed after the first removal shrinks the
		// list to 2 units, so it is skipped.
		{"duplicate at tail", 3, []int{2, 2}, []int{0, 1}},
		// The second 1 removes the unit that shifted into slot 1.
		{"duplicate in middle", 4, []int{1, 1}, []int{0, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, _ := newTestManager(t, config.DefaultPool())
			units := addN(t, m, tt.count)

			input := slices.Clone(tt.indices)
			if err := m.RemoveIndices(input); err != nil {
				t.Fatalf("RemoveIndices: %v", err)
			}
			if !slices.Equal(input, tt.indices) {
				t.Errorf("caller's slice was reordered to %v", input)
			}

			want := make([]*fakeUnit, 0, len(tt.want))
			for _, i := range tt.want {
				want = append(want, units[i])
			}
			if got := m.Units(); !slices.Equal(got, want) {
				t.Fatalf("remaining = %v, want %v", ids(got), ids(want))
			}
		})
	}
}

func TestRemoveIndicesNegative(t *testing.T) {
	m, _, _ := newTestManager(t, config.DefaultPool())
	units := addN(t, m, 3)

	err := m.RemoveIndices([]int{-1, 2})
	if !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("got %v, want ErrIndexOutOfRange", err)
	}
	// Valid higher positions are processed before the negative one.
	if got := m.Units(); !slices.Equal(got, units[:2]) {
		t.Fatalf("remaining = %v", ids(got))
	}
}

func TestClearUnits(t *testing.T) {
	for _, n := range []int{0, 1, 5} {
		m, rec, _ := newTestManager(t, config.DefaultPool())
		units := addN(t, m, n)
		if err := m.ClearUnits(); err != nil {
			t.Fatal(err)
		}
		if m.Count() != 0 || !m.IsEmpty() {
			t.Fatalf("Count = %d after ClearUnits", m.Count())
		}
		// Highest index first.
		for i, id := range rec.deactivated {
			if id != units[n-1-i].id {
				t.Fatalf("release order %v", rec.deactivated)
			}
		}
	}
}

func TestAddSingle(t *testing.T) {
	m, _, logs := newTestManager(t, config.DefaultPool())

	first, err := m.AddSingle()
	if err != nil {
		t.Fatal(err)
	}
	if logs.Len() != 0 {
		t.Fatalf("AddSingle on empty manager logged %d warnings", logs.Len())
	}

	addN(t, m, 2)
	second, err := m.AddSingle()
	if err != nil {
		t.Fatal(err)
	}
	if m.Count() != 1 {
		t.Fatalf("Count = %d after AddSingle, want 1", m.Count())
	}
	if got, _ := m.Single(); got != second {
		t.Fatal("Single did not return the unit added by AddSingle")
	}
	if first.active && first != second {
		t.Error("previous unit still active after AddSingle")
	}

	warns := logs.FilterMessage("unit is not single").All()
	if len(warns) != 1 {
		t.Fatalf("got %d warnings, want exactly 1", len(warns))
	}
	if got := warns[0].ContextMap()["count"]; got != int64(3) {
		t.Errorf("warning count field = %v, want 3", got)
	}
}

func TestSingle(t *testing.T) {
	t.Run("one unit", func(t *testing.T) {
		m, _, logs := newTestManager(t, config.DefaultPool())
		u := addN(t, m, 1)[0]
		got, err := m.Single()
		if err != nil || got != u {
			t.Fatalf("Single = %v, %v", got, err)
		}
		if logs.Len() != 0 {
			t.Fatalf("logged %d warnings", logs.Len())
		}
	})

	t.Run("empty", func(t *testing.T) {
		m, _, _ := newTestManager(t, config.DefaultPool())
		if _, err := m.Single(); !errors.Is(err, ErrIndexOutOfRange) {
			t.Fatalf("got %v, want ErrIndexOutOfRange", err)
		}
	})

	t.Run("several units", func(t *testing.T) {
		m, _, logs := newTestManager(t, config.DefaultPool())
		units := addN(t, m, 3)
		got, err := m.Single()
		if err != nil || got != units[0] {
			t.Fatalf("Single = %v, %v, want first unit", got, err)
		}
		if logs.Len() != 1 {
			t.Fatalf("logged %d warnings, want 1", logs.Len())
		}
		if logs.All()[0].Level != zapcore.WarnLevel {
			t.Errorf("level = %v", logs.All()[0].Level)
		}
	})
}

func TestEnumerate(t *testing.T) {
	m, _, _ := newTestManager(t, config.DefaultPool())
	units := addN(t, m, 3)

	var gotIdx []int
	var gotUnits []*fakeUnit
	for i, u := range m.Enumerate() {
		gotIdx = append(gotIdx, i)
		gotUnits = append(gotUnits, u)
	}
	if !slices.Equal(gotIdx, []int{0, 1, 2}) || !slices.Equal(gotUnits, units) {
		t.Fatalf("Enumerate yielded %v / %v", gotIdx, ids(gotUnits))
	}

	// Early break stops the sequence.
	n := 0
	for range m.Enumerate() {
		n++
		break
	}
	if n != 1 {
		t.Fatalf("iterated %d times after break", n)
	}
}

func TestReinitializeKeepsLiveUnits(t *testing.T) {
	m, rec, _ := newTestManager(t, config.DefaultPool())
	units := addN(t, m, 2)

	if err := m.InitPool(config.PoolConfig{Initial: 0, Max: 1}); err != nil {
		t.Fatal(err)
	}
	if m.Count() != 2 {
		t.Fatalf("Count = %d after re-init", m.Count())
	}
	if err := m.ClearUnits(); err != nil {
		t.Fatal(err)
	}
	// New pool retains one; the other is destroyed.
	if len(rec.deactivated) != 1 || len(rec.destroyed) != 1 {
		t.Fatalf("deactivated %v destroyed %v", rec.deactivated, rec.destroyed)
	}
	if rec.destroyed[0] != units[0].id {
		t.Errorf("destroyed unit %d, want %d", rec.destroyed[0], units[0].id)
	}
	want := PoolStats{All: 1, Active: 0, Inactive: 1, Max: 1}
	if s := m.Stats(); s != want {
		t.Errorf("Stats after draining into new pool = %+v, want %+v", s, want)
	}
}

func TestCollectionChecks(t *testing.T) {
	m, _, _ := newTestManager(t, config.PoolConfig{Initial: 2, Max: 4, CollectionChecks: true})
	u := addN(t, m, 1)[0]
	if err := m.RemoveUnit(u); err != nil {
		t.Fatal(err)
	}
	// Not live any more, so the manager never reaches the pool.
	if err := m.RemoveUnit(u); err != nil {
		t.Fatalf("second RemoveUnit: %v", err)
	}
}

func TestDisposeDestroysRetained(t *testing.T) {
	m, rec, _ := newTestManager(t, config.DefaultPool())
	addN(t, m, 3)
	if err := m.RemoveIndex(0); err != nil {
		t.Fatal(err)
	}
	m.Dispose()
	if len(rec.destroyed) != 1 {
		t.Fatalf("destroyed %v, want the one retained unit", rec.destroyed)
	}
	if m.Count() != 2 {
		t.Fatalf("Dispose touched live units: count %d", m.Count())
	}
}

func ids(units []*fakeUnit) []int {
	out := make([]int, len(units))
	for i, u := range units {
		out[i] = u.id
	}
	return out
}
