package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/artboard/pkg/artboard"
	"github.com/matzehuels/artboard/pkg/clock"
	"github.com/matzehuels/artboard/pkg/errors"
	"github.com/matzehuels/artboard/pkg/item"
	"github.com/matzehuels/artboard/pkg/observability"
	"github.com/matzehuels/artboard/pkg/source"
)

var testTags = []string{"Painting", "Sculpture", "Photo"}

func testItems(n int) []item.Item {
	items := make([]item.Item, n)
	for i := range items {
		id := i + 1
		items[i] = item.Item{
			ID:          id,
			Title:       fmt.Sprintf("Work %d", id),
			Tag:         testTags[i%len(testTags)],
			AspectRatio: item.AspectFromID(id),
		}
	}
	return items
}

type fixture struct {
	eng *artboard.Engine
	clk *clock.Manual
	ts  *httptest.Server
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	clk := clock.NewManual()
	eng, err := artboard.New(artboard.DefaultConfig(), artboard.WithClock(clk))
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.Load(testItems(600)); err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(New(eng, Config{}, opts...).Handler())
	t.Cleanup(func() {
		ts.Close()
		eng.Close()
	})
	return &fixture{eng: eng, clk: clk, ts: ts}
}

func (f *fixture) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, f.ts.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func expectError(t *testing.T, resp *http.Response, status int, code errors.Code) {
	t.Helper()
	if resp.StatusCode != status {
		t.Errorf("status = %d, want %d", resp.StatusCode, status)
	}
	body := decode[errorBody](t, resp)
	if body.Code != code || body.Error == "" {
		t.Errorf("error body = %+v, want code %s", body, code)
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/healthz", "")
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "ok\n" {
		t.Errorf("healthz = %d %q", resp.StatusCode, body)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Error("missing X-Request-Id")
	}

	req, _ := http.NewRequest(http.MethodGet, f.ts.URL+"/healthz", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	if got := resp2.Header.Get("X-Request-Id"); got != "abc-123" {
		t.Errorf("request id not echoed: %q", got)
	}
}

func TestWorldItemsTags(t *testing.T) {
	f := newFixture(t)

	world := decode[WorldSummary](t, f.do(t, http.MethodGet, "/api/world", ""))
	if world.Items != 600 || world.Loaded != 600 || world.Filter != artboard.FilterAll {
		t.Errorf("world = %+v", world)
	}
	if world.Width != 5160 || !world.SingleInstance {
		t.Errorf("world geometry = %+v", world)
	}

	items := decode[[]item.Item](t, f.do(t, http.MethodGet, "/api/items", ""))
	if len(items) != 600 || !items[0].Placed() {
		t.Errorf("items: len=%d first=%+v", len(items), items[0])
	}

	tags := decode[struct {
		Tags   []string `json:"tags"`
		Active string   `json:"active"`
	}](t, f.do(t, http.MethodGet, "/api/tags", ""))
	if strings.Join(tags.Tags, ",") != "Painting,Photo,Sculpture" || tags.Active != "all" {
		t.Errorf("tags = %+v", tags)
	}
}

func TestFilter(t *testing.T) {
	f := newFixture(t)

	world := decode[WorldSummary](t, f.do(t, http.MethodPost, "/api/filter?tag=painting", ""))
	if world.Items != 200 || world.Loaded != 600 {
		t.Errorf("filtered world = %+v", world)
	}
	for _, n := range f.eng.Nodes() {
		it, _ := f.eng.World().Item(n.ItemID)
		if it.Tag != "Painting" {
			t.Fatalf("node %d has tag %q after filtering", n.ItemID, it.Tag)
		}
	}

	world = decode[WorldSummary](t, f.do(t, http.MethodPost, "/api/filter", ""))
	if world.Items != 600 || world.Filter != "all" {
		t.Errorf("reset world = %+v", world)
	}

	expectError(t, f.do(t, http.MethodPost, "/api/filter?tag=bad%09tag", ""), http.StatusBadRequest, errors.ErrCodeInvalidInput)
}

func TestTickAndFrame(t *testing.T) {
	f := newFixture(t)

	stats := decode[artboard.FrameStats](t, f.do(t, http.MethodPost, "/api/tick?n=3&dt=20ms", ""))
	if stats.Frame != 3 || stats.DT != 20*time.Millisecond || stats.Visible == 0 {
		t.Errorf("tick stats = %+v", stats)
	}

	frame := decode[Frame](t, f.do(t, http.MethodGet, "/api/frame", ""))
	if frame.Stats.Frame != 3 || len(frame.Nodes) != frame.Stats.Visible {
		t.Errorf("frame: stats=%+v nodes=%d", frame.Stats, len(frame.Nodes))
	}
	if frame.Dragging || frame.Camera.Speed != 0 {
		t.Errorf("camera should be at rest: %+v", frame.Camera)
	}

	for _, bad := range []string{"n=0", "n=601", "n=x", "dt=soon", "dt=-1s"} {
		expectError(t, f.do(t, http.MethodPost, "/api/tick?"+bad, ""), http.StatusBadRequest, errors.ErrCodeInvalidInput)
	}
}

func TestStats(t *testing.T) {
	if resp := newFixture(t).do(t, http.MethodGet, "/api/stats", ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("stats without WithStats: status = %d, want 404", resp.StatusCode)
	}

	counters := observability.NewCounters()
	observability.Register(counters)
	t.Cleanup(observability.Reset)

	f := newFixture(t, WithStats(counters))
	f.do(t, http.MethodPost, "/api/tick?n=3", "")

	st := decode[observability.Stats](t, f.do(t, http.MethodGet, "/api/stats", ""))
	if st.Frames != 3 || st.Layouts == 0 || st.LastVisible == 0 {
		t.Errorf("stats = %+v", st)
	}
}

func TestInputDrag(t *testing.T) {
	f := newFixture(t)
	before := f.eng.Camera()

	for _, ev := range []string{
		`{"type":"pointerdown","x":100,"y":100}`,
		`{"type":"pointermove","x":400,"y":100}`,
		`{"type":"pointerup","x":400,"y":100}`,
	} {
		if resp := f.do(t, http.MethodPost, "/api/input", ev); resp.StatusCode != http.StatusNoContent {
			t.Fatalf("input %s: status %d", ev, resp.StatusCode)
		}
	}
	after := f.eng.Camera()
	if after.TargetX != before.TargetX+300 || after.TargetY != before.TargetY {
		t.Errorf("target moved from (%v,%v) to (%v,%v), want +300 on x",
			before.TargetX, before.TargetY, after.TargetX, after.TargetY)
	}

	expectError(t, f.do(t, http.MethodPost, "/api/input", `{"type":"hover"}`), http.StatusBadRequest, errors.ErrCodeInvalidInput)
	expectError(t, f.do(t, http.MethodPost, "/api/input", `{`), http.StatusBadRequest, errors.ErrCodeInvalidInput)
}

func TestClick(t *testing.T) {
	f := newFixture(t)
	nodes := f.eng.Nodes()
	if len(nodes) == 0 {
		t.Fatal("no live nodes")
	}
	id := nodes[0].ItemID

	detail := decode[artboard.Detail](t, f.do(t, http.MethodPost, fmt.Sprintf("/api/items/%d/click", id), ""))
	if detail.ID != id || detail.Title != fmt.Sprintf("Work %d", id) {
		t.Errorf("detail = %+v", detail)
	}

	expectError(t, f.do(t, http.MethodPost, "/api/items/abc/click", ""), http.StatusBadRequest, errors.ErrCodeInvalidInput)
	expectError(t, f.do(t, http.MethodPost, "/api/items/0/click", ""), http.StatusBadRequest, errors.ErrCodeInvalidInput)
	expectError(t, f.do(t, http.MethodPost, "/api/items/99999/click", ""), http.StatusNotFound, errors.ErrCodeNotFound)

	// Drag, then tick once so the camera is moving fast.
	f.do(t, http.MethodPost, "/api/input", `{"type":"pointerdown","x":0,"y":0}`)
	f.do(t, http.MethodPost, "/api/input", `{"type":"pointermove","x":300,"y":0}`)
	f.do(t, http.MethodPost, "/api/tick", "")
	expectError(t, f.do(t, http.MethodPost, fmt.Sprintf("/api/items/%d/click", id), ""), http.StatusConflict, errors.ErrCodeConflict)
}

func TestResize(t *testing.T) {
	f := newFixture(t)

	world := decode[WorldSummary](t, f.do(t, http.MethodPost, "/api/resize?w=640&h=480", ""))
	if world.Viewport.Width != 640 || world.Viewport.Height != 480 {
		t.Errorf("viewport = %+v", world.Viewport)
	}
	expectError(t, f.do(t, http.MethodPost, "/api/resize?w=abc&h=480", ""), http.StatusBadRequest, errors.ErrCodeInvalidInput)
	expectError(t, f.do(t, http.MethodPost, "/api/resize?w=640", ""), http.StatusBadRequest, errors.ErrCodeInvalidInput)
	expectError(t, f.do(t, http.MethodPost, "/api/resize?w=-1&h=480", ""), http.StatusBadRequest, errors.ErrCodeInvalidInput)
}

func TestReload(t *testing.T) {
	f := newFixture(t)
	expectError(t, f.do(t, http.MethodPost, "/api/reload", ""), http.StatusNotImplemented, errors.ErrCodeUnsupported)

	g := newFixture(t, WithSource(source.Static(testItems(10))))
	resp := g.do(t, http.MethodPost, "/api/reload", "")
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("reload status = %d", resp.StatusCode)
	}
	if got := decode[map[string]int](t, resp)["submitted"]; got != 10 {
		t.Errorf("submitted = %d", got)
	}
	if g.eng.World().Len() != 600 {
		t.Error("submitted items must not apply before the next tick")
	}
	g.do(t, http.MethodPost, "/api/tick", "")
	if g.eng.World().Len() != 10 {
		t.Errorf("world after tick has %d items, want 10", g.eng.World().Len())
	}
}

func TestListenAndServe(t *testing.T) {
	clk := clock.NewManual()
	eng, err := artboard.New(artboard.DefaultConfig(), artboard.WithClock(clk))
	if err != nil {
		t.Fatal(err)
	}
	defer eng.Close()

	srv := New(eng, Config{Addr: "127.0.0.1:0", FrameInterval: time.Second / 30})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for !clk.Running() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !clk.Running() {
		t.Fatal("frame clock was not started")
	}
	if !clk.Step(time.Second / 30) {
		t.Error("Step should tick the running engine")
	}
	if eng.LastFrame().Frame != 1 {
		t.Errorf("frame = %d, want 1", eng.LastFrame().Frame)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
