package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/artboard/pkg/artboard"
	"github.com/matzehuels/artboard/pkg/clock"
	"github.com/matzehuels/artboard/pkg/cull"
	"github.com/matzehuels/artboard/pkg/errors"
	"github.com/matzehuels/artboard/pkg/input"
	"github.com/matzehuels/artboard/pkg/item"
	"github.com/matzehuels/artboard/pkg/pool"
)

// WorldSummary describes the current world.
type WorldSummary struct {
	Width          float64       `json:"width"`
	Height         float64       `json:"height"`
	Items          int           `json:"items"`
	Loaded         int           `json:"loaded"`
	Filter         string        `json:"filter"`
	SingleInstance bool          `json:"single_instance"`
	Viewport       cull.Viewport `json:"viewport"`
}

// CameraState is the camera part of a frame.
type CameraState struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	TargetX float64 `json:"target_x"`
	TargetY float64 `json:"target_y"`
	Speed   float64 `json:"speed"`
}

// Frame is the body of GET /api/frame.
type Frame struct {
	Stats    artboard.FrameStats `json:"stats"`
	Camera   CameraState         `json:"camera"`
	Dragging bool                `json:"dragging"`
	Nodes    []pool.Node         `json:"nodes"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) summary() WorldSummary {
	wld := s.eng.World()
	vp := s.eng.Viewport()
	return WorldSummary{
		Width:          wld.Width,
		Height:         wld.Height,
		Items:          wld.Len(),
		Loaded:         len(s.eng.Items()),
		Filter:         s.eng.ActiveFilter(),
		SingleInstance: vp.SingleInstance(wld),
		Viewport:       vp,
	}
}

func (s *Server) handleWorld(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.summary())
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	items := s.eng.World().Items
	if items == nil {
		items = []item.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"tags":   s.eng.Tags(),
		"active": s.eng.ActiveFilter(),
	})
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	if err := s.eng.Filter(r.URL.Query().Get("tag")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.summary())
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	width, err := parseFloat(q.Get("w"), "w")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	height, err := parseFloat(q.Get("h"), "h")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.eng.Resize(width, height); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.summary())
}

func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	var ev input.Event
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&ev); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode input event"))
		return
	}
	s.eng.Input(ev)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	n := 1
	if v := q.Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > MaxTicks {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "n must be an integer in [1, %d], got %q", MaxTicks, v))
			return
		}
		n = parsed
	}

	dt := s.cfg.FrameInterval
	if dt <= 0 {
		dt = clock.DefaultInterval
	}
	if v := q.Get("dt"); v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil || parsed <= 0 {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "dt must be a positive duration, got %q", v))
			return
		}
		dt = parsed
	}

	var stats artboard.FrameStats
	for range n {
		stats = s.eng.Tick(dt)
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	cam := s.eng.Camera()
	nodes := s.eng.Nodes()
	if nodes == nil {
		nodes = []pool.Node{}
	}
	writeJSON(w, http.StatusOK, Frame{
		Stats: s.eng.LastFrame(),
		Camera: CameraState{
			X:       cam.CurrentX,
			Y:       cam.CurrentY,
			TargetX: cam.TargetX,
			TargetY: cam.TargetY,
			Speed:   cam.Speed(),
		},
		Dragging: s.eng.Dragging(),
		Nodes:    nodes,
	})
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid item id %q", raw))
		return
	}
	if err := errors.ValidateItemID(id); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid item id"))
		return
	}
	detail, err := s.eng.Click(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.src == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "no content source configured"))
		return
	}
	items, err := s.src.FetchItems(r.Context())
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeNetwork, err, "fetch items"))
		return
	}
	s.eng.Submit(items)
	s.loggerFor(r).Info("reload submitted", "items", len(items))
	writeJSON(w, http.StatusAccepted, map[string]int{"submitted": len(items)})
}

func parseFloat(v, name string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "%s must be a number, got %q", name, v)
	}
	return f, nil
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.stats.Snapshot())
}
