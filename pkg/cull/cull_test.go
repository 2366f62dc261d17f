package cull

import (
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/matzehuels/artboard/pkg/camera"
	"github.com/matzehuels/artboard/pkg/item"
	"github.com/matzehuels/artboard/pkg/layout"
	"github.com/matzehuels/artboard/pkg/world"
)

func testWorld(t *testing.T, n int) *world.World {
	t.Helper()
	items := make([]item.Item, n)
	for i := range items {
		// Ratios 1, 2 and 0.5 keep every coordinate an exact float.
		items[i] = item.Item{ID: i + 1, AspectRatio: []float64{1, 2, 0.5}[i%3]}
	}
	w, err := layout.Masonry(items, layout.Config{Columns: 12, ColumnWidth: 350, Gap: 80})
	if err != nil {
		t.Fatalf("Masonry: %v", err)
	}
	return w
}

func ids(vs []Visible) []int {
	out := make([]int, len(vs))
	for i, v := range vs {
		out[i] = v.ItemID
	}
	slices.Sort(out)
	return out
}

var testViewport = Viewport{Width: 1280, Height: 800, Buffer: 1000}

func TestEmptyWorld(t *testing.T) {
	for _, w := range []*world.World{nil, world.Empty(), world.New([]item.Item{{ID: 1, Width: 1, Height: 1}}, 0, 0)} {
		if got := Compute(camera.Position{X: 123, Y: -456}, w, testViewport); len(got) != 0 {
			t.Errorf("Compute on degenerate world = %v, want empty", got)
		}
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name                string
		pos, offset, period float64
		want                float64
	}{
		{"already nearest", 100, 0, 1000, 100},
		{"camera one period right", 100, -1000, 1000, 1100},
		{"camera one period left", 100, 1000, 1000, -900},
		{"far away", 50, -10_000, 1000, 10_050},
		{"tie below rounds up", 0, 500, 1000, 0},
		{"tie above rounds up", 0, -500, 1000, 1000},
		{"tie one period left", 0, 1500, 1000, -1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Wrap(tt.pos, tt.offset, tt.period); got != tt.want {
				t.Errorf("Wrap(%v, %v, %v) = %v, want %v", tt.pos, tt.offset, tt.period, got, tt.want)
			}
		})
	}
}

func TestWrapPeriodicity(t *testing.T) {
	w := testWorld(t, 600)
	cams := []camera.Position{
		{X: 0, Y: 0},
		{X: -2000, Y: -3000},
		{X: 1234, Y: 5678},
		{X: -w.Width / 2, Y: -w.Height / 2},
	}
	for _, cam := range cams {
		base := Compute(cam, w, testViewport)
		for _, k := range []float64{-2, -1, 1, 3} {
			shifted := camera.Position{X: cam.X + k*w.Width, Y: cam.Y}
			got := Compute(shifted, w, testViewport)
			if !slices.Equal(ids(base), ids(got)) {
				t.Fatalf("cam %+v shifted by %v periods: ids differ", cam, k)
			}
			for i := range got {
				if math.Abs(got[i].ScreenX-base[i].ScreenX) > 1e-6 || math.Abs(got[i].ScreenY-base[i].ScreenY) > 1e-6 {
					t.Fatalf("screen position changed for item %d", got[i].ItemID)
				}
			}
		}
		vshift := camera.Position{X: cam.X, Y: cam.Y - w.Height}
		if !slices.Equal(ids(base), ids(Compute(vshift, w, testViewport))) {
			t.Fatalf("cam %+v shifted by one vertical period: ids differ", cam)
		}
	}
}

func TestWrapPeriodicityAtTies(t *testing.T) {
	w := world.New([]item.Item{{ID: 1, X: 0, Y: 0, Width: 350, Height: 350}}, 5160, 5000)
	vp := Viewport{Width: 2000, Height: 800, Buffer: 600}
	if !vp.SingleInstance(w) {
		t.Fatal("test world must hold a single instance")
	}

	for _, x := range []float64{-w.Width / 2, w.Width / 2, -1.5 * w.Width} {
		base := Compute(camera.Position{X: x}, w, vp)
		for _, k := range []float64{-1, 1, 2} {
			got := Compute(camera.Position{X: x + k*w.Width}, w, vp)
			if !slices.Equal(ids(base), ids(got)) {
				t.Errorf("cam.X=%v shifted by %v periods: ids %v, want %v", x, k, ids(got), ids(base))
			}
		}
	}
}

// bruteForce checks every copy within a few periods and reports ids with
// any copy intersecting the buffered viewport.
func bruteForce(cam camera.Position, w *world.World, vp Viewport) []int {
	minX, maxX := -cam.X-vp.Buffer, -cam.X+vp.Width+vp.Buffer
	minY, maxY := -cam.Y-vp.Buffer, -cam.Y+vp.Height+vp.Buffer
	var out []int
	for _, it := range w.Items {
		k0x := math.Floor(-cam.X / w.Width)
		k0y := math.Floor(-cam.Y / w.Height)
	search:
		for kx := k0x - 3; kx <= k0x+3; kx++ {
			for ky := k0y - 3; ky <= k0y+3; ky++ {
				x := it.X + kx*w.Width
				y := it.Y + ky*w.Height
				if x <= maxX && x+it.Width >= minX && y <= maxY && y+it.Height >= minY {
					out = append(out, it.ID)
					break search
				}
			}
		}
	}
	slices.Sort(out)
	return out
}

func TestComputeMatchesBruteForce(t *testing.T) {
	w := testWorld(t, 900)
	if !testViewport.SingleInstance(w) {
		t.Fatalf("test world %vx%v too small for single-instance culling", w.Width, w.Height)
	}

	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 200; i++ {
		cam := camera.Position{
			X: math.Round((rng.Float64() - 0.5) * 8 * w.Width),
			Y: math.Round((rng.Float64() - 0.5) * 8 * w.Height),
		}
		got := ids(Compute(cam, w, testViewport))
		want := bruteForce(cam, w, testViewport)
		if !slices.Equal(got, want) {
			t.Fatalf("cam %+v: got %d visible, brute force %d", cam, len(got), len(want))
		}
	}
}

func TestComputeAcrossSeam(t *testing.T) {
	it := item.Item{ID: 1, X: 0, Y: 0, Width: 100, Height: 100}
	w := world.New([]item.Item{it}, 5000, 5000)
	vp := Viewport{Width: 1000, Height: 1000}

	// Viewport spans world x in [4500, 5500): the item's copy at 5000 shows.
	got := Compute(camera.Position{X: -4500, Y: 0}, w, vp)
	if len(got) != 1 {
		t.Fatalf("got %d visible, want 1", len(got))
	}
	if got[0].WorldX != 5000 || got[0].ScreenX != 500 {
		t.Errorf("wrapped copy at world %v screen %v, want 5000 / 500", got[0].WorldX, got[0].ScreenX)
	}
}

func TestComputeClosedInterval(t *testing.T) {
	w := world.New([]item.Item{{ID: 1, X: 0, Y: 0, Width: 100, Height: 100}}, 10_000, 10_000)
	vp := Viewport{Width: 500, Height: 500, Buffer: 50}

	// Viewport left edge at world 150, buffered to 100: the item's right edge touches it.
	if got := Compute(camera.Position{X: -150, Y: 0}, w, vp); len(got) != 1 {
		t.Errorf("touching rectangle should be visible, got %d", len(got))
	}
	if got := Compute(camera.Position{X: -151, Y: 0}, w, vp); len(got) != 0 {
		t.Errorf("rectangle one unit away should be culled, got %d", len(got))
	}
}

func TestAppendReusesSlice(t *testing.T) {
	w := testWorld(t, 300)
	cam := camera.Position{X: -100, Y: -100}
	buf := make([]Visible, 0, 512)
	got := Append(buf, cam, w, testViewport)
	if len(got) == 0 {
		t.Fatal("expected visible items")
	}
	if &got[0] != &buf[:1][0] {
		t.Error("Append should reuse the provided backing array")
	}
	if !slices.Equal(ids(got), ids(Compute(cam, w, testViewport))) {
		t.Error("Append and Compute disagree")
	}
}

func TestSingleInstance(t *testing.T) {
	w := world.New([]item.Item{{ID: 1, Width: 1, Height: 1}}, 3000, 3000)
	if !(Viewport{Width: 800, Height: 600, Buffer: 1000}).SingleInstance(w) {
		t.Error("3000 > 800+2000 should hold single instance")
	}
	if (Viewport{Width: 1280, Height: 600, Buffer: 1000}).SingleInstance(w) {
		t.Error("3000 < 1280+2000 should not hold single instance")
	}
}
