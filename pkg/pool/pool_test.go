package pool

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/matzehuels/artboard/pkg/cull"
)

func vis(ids ...int) []cull.Visible {
	out := make([]cull.Visible, len(ids))
	for i, id := range ids {
		out[i] = cull.Visible{ItemID: id, ScreenX: float64(id * 10), ScreenY: float64(id), Width: 350, Height: 200}
	}
	return out
}

func idSet(vs []cull.Visible) []int {
	var ids []int
	for _, v := range vs {
		if !slices.Contains(ids, v.ItemID) {
			ids = append(ids, v.ItemID)
		}
	}
	slices.Sort(ids)
	return ids
}

func TestReconcileCreatesAndDestroys(t *testing.T) {
	mem := NewMemory()
	p := New(mem)

	st := p.Reconcile(vis(1, 2, 3))
	if st.Created != 3 || st.Destroyed != 0 || st.Updated != 3 {
		t.Errorf("first reconcile stats = %+v", st)
	}

	st = p.Reconcile(vis(2, 3, 4))
	if st.Created != 1 || st.Destroyed != 1 || st.Updated != 3 {
		t.Errorf("second reconcile stats = %+v", st)
	}
	if got := p.Keys(); !slices.Equal(got, []int{2, 3, 4}) {
		t.Errorf("Keys() = %v, want [2 3 4]", got)
	}
	if mem.Live() != 3 {
		t.Errorf("backend live nodes = %d, want 3", mem.Live())
	}
	if c := mem.Counts(); c.Created != 4 || c.Destroyed != 1 || c.Moved != 6 {
		t.Errorf("backend counts = %+v", c)
	}
}

func TestReconcileIdempotent(t *testing.T) {
	p := New(NewMemory())
	p.Reconcile(vis(5, 6, 7))
	st := p.Reconcile(vis(5, 6, 7))
	if st.Created != 0 || st.Destroyed != 0 {
		t.Errorf("repeat reconcile changed node set: %+v", st)
	}
	if st.Updated != 3 {
		t.Errorf("repeat reconcile Updated = %d, want 3", st.Updated)
	}
}

func TestReconcileMovesNodes(t *testing.T) {
	mem := NewMemory()
	p := New(mem)
	p.Reconcile(vis(1))

	moved := []cull.Visible{{ItemID: 1, ScreenX: -40, ScreenY: 12, Width: 350, Height: 200}}
	p.Reconcile(moved)

	want := Rect{X: -40, Y: 12, Width: 350, Height: 200}
	if n, _ := p.Node(1); n.Bounds != want {
		t.Errorf("node bounds = %+v, want %+v", n.Bounds, want)
	}
	if r, _ := mem.Bounds(1); r != want {
		t.Errorf("backend bounds = %+v, want %+v", r, want)
	}
}

func TestReconcileDuplicates(t *testing.T) {
	mem := NewMemory()
	p := New(mem)

	in := append(vis(1, 2), cull.Visible{ItemID: 1, ScreenX: 999})
	st := p.Reconcile(in)
	if st.Created != 2 || st.Updated != 2 {
		t.Errorf("stats = %+v, want 2 created and 2 updated", st)
	}
	if mem.Live() != 2 {
		t.Errorf("backend live nodes = %d, want 2", mem.Live())
	}
	if n, _ := p.Node(1); n.Bounds.X != 10 {
		t.Errorf("duplicate should keep the first occurrence, got x=%v", n.Bounds.X)
	}
}

func TestReconcileRandomSequence(t *testing.T) {
	mem := NewMemory()
	p := New(mem)
	rng := rand.New(rand.NewPCG(7, 11))

	for frame := 0; frame < 500; frame++ {
		n := rng.IntN(60)
		ids := make([]int, n)
		for i := range ids {
			ids[i] = rng.IntN(80) + 1
		}
		in := vis(ids...)
		p.Reconcile(in)

		want := idSet(in)
		if got := p.Keys(); !slices.Equal(got, want) {
			t.Fatalf("frame %d: keys %v, want %v", frame, got, want)
		}
		if mem.Live() != p.Len() {
			t.Fatalf("frame %d: backend holds %d nodes, pool %d", frame, mem.Live(), p.Len())
		}
	}

	c := mem.Counts()
	if c.Created-c.Destroyed != p.Len() {
		t.Errorf("created %d - destroyed %d != live %d", c.Created, c.Destroyed, p.Len())
	}
}

func TestReconcileEmpty(t *testing.T) {
	mem := NewMemory()
	p := New(mem)
	p.Reconcile(vis(1, 2))
	st := p.Reconcile(nil)
	if st.Destroyed != 2 || p.Len() != 0 || mem.Live() != 0 {
		t.Errorf("empty visible set should destroy everything: %+v len=%d live=%d", st, p.Len(), mem.Live())
	}
}

func TestClickWiring(t *testing.T) {
	mem := NewMemory()
	var clicked []int
	p := New(mem, WithClick(func(id int) { clicked = append(clicked, id) }))
	p.Reconcile(vis(3, 4))

	if !mem.Click(4) {
		t.Fatal("Click(4) found no node")
	}
	if mem.Click(9) {
		t.Error("Click(9) should report a missing node")
	}
	if !slices.Equal(clicked, []int{4}) {
		t.Errorf("clicked = %v, want [4]", clicked)
	}

	p.SetClick(func(id int) { clicked = append(clicked, -id) })
	mem.Click(3)
	if !slices.Equal(clicked, []int{4, -3}) {
		t.Errorf("replaced handler not used: %v", clicked)
	}

	p.Reconcile(vis(3))
	if mem.Click(4) {
		t.Error("destroyed node should not be clickable")
	}
}

func TestClear(t *testing.T) {
	mem := NewMemory()
	p := New(mem)
	p.Reconcile(vis(1, 2, 3))

	if n := p.Clear(); n != 3 {
		t.Errorf("Clear() = %d, want 3", n)
	}
	if p.Len() != 0 || mem.Live() != 0 {
		t.Errorf("after Clear: pool %d, backend %d", p.Len(), mem.Live())
	}
	if st := p.Reconcile(vis(1)); st.Created != 1 {
		t.Errorf("reconcile after Clear should recreate, got %+v", st)
	}
}

func TestNodesOrdered(t *testing.T) {
	p := New(nil)
	p.Reconcile(vis(9, 2, 5))
	var got []int
	for _, n := range p.Nodes() {
		got = append(got, n.ItemID)
	}
	if !slices.Equal(got, []int{2, 5, 9}) {
		t.Errorf("Nodes() order = %v", got)
	}
	if _, ok := p.Node(7); ok {
		t.Error("Node(7) should not exist")
	}
}

func TestMemoryIgnoresForeignHandles(t *testing.T) {
	mem := NewMemory()
	mem.Move("not-a-uuid", Rect{})
	mem.Destroy(42)
	if c := mem.Counts(); c != (MemoryCounts{}) {
		t.Errorf("foreign handles should be ignored, counts = %+v", c)
	}
}
