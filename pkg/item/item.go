// Package item defines the flat media-tile record shared by content sources,
// the layout engine and the render pool.
//
// Items arrive from a content source with identity and presentation fields
// filled in; geometry (X, Y, Width, Height) is assigned exactly once by the
// layout engine and never modified afterwards.
package item

import (
	"math"
	"sort"
	"strings"

	"github.com/matzehuels/artboard/pkg/errors"
)

// DefaultAspectRatio is substituted for malformed (non-positive, NaN or
// infinite) aspect ratios so layout never divides by zero.
const DefaultAspectRatio = 1.0

// All is the filter sentinel selecting every item regardless of tag.
const All = "all"

// Uncategorized is the tag assigned by sources when a record carries none.
const Uncategorized = "Uncategorized"

// Item is a single media tile.
type Item struct {
	ID          int      `json:"id" bson:"id"`
	Title       string   `json:"title" bson:"title"`
	ImageRef    string   `json:"image,omitempty" bson:"image,omitempty"`
	GalleryRefs []string `json:"gallery,omitempty" bson:"gallery,omitempty"`
	Description string   `json:"description,omitempty" bson:"description,omitempty"`
	Author      string   `json:"author,omitempty" bson:"author,omitempty"`
	Avatar      string   `json:"avatar,omitempty" bson:"avatar,omitempty"`
	Tag         string   `json:"tag,omitempty" bson:"tag,omitempty"`
	AspectRatio float64  `json:"aspect_ratio" bson:"aspect_ratio"`

	// Geometry in world units, assigned by layout.
	X      float64 `json:"x" bson:"-"`
	Y      float64 `json:"y" bson:"-"`
	Width  float64 `json:"width" bson:"-"`
	Height float64 `json:"height" bson:"-"`
}

// Ratio returns the aspect ratio used for layout: AspectRatio when it is a
// positive finite number, DefaultAspectRatio otherwise.
func (it Item) Ratio() float64 {
	if validRatio(it.AspectRatio) {
		return it.AspectRatio
	}
	return DefaultAspectRatio
}

// Placed reports whether layout assigned finite, positive geometry.
func (it Item) Placed() bool {
	return finite(it.X) && finite(it.Y) &&
		finite(it.Width) && it.Width > 0 &&
		finite(it.Height) && it.Height > 0
}

// Validate checks identity and aspect ratio.
func (it Item) Validate() error {
	if err := errors.ValidateItemID(it.ID); err != nil {
		return err
	}
	if !validRatio(it.AspectRatio) {
		return errors.New(errors.ErrCodeInvalidItem, "item %d: aspect ratio must be positive, got %v", it.ID, it.AspectRatio)
	}
	return nil
}

// MatchesTag reports whether the item belongs to tag. The empty tag and All
// match everything; otherwise the comparison is case-insensitive.
func (it Item) MatchesTag(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" || strings.EqualFold(tag, All) {
		return true
	}
	return strings.EqualFold(it.Tag, tag)
}

// AspectFromID derives a stable aspect ratio in [0.8, 1.6) from an id, so
// records without a ratio lay out identically across reloads.
func AspectFromID(id int) float64 {
	seed := id*9301 + 49297
	rnd := float64(seed%233280) / 233280.0
	if rnd < 0 {
		rnd += 1
	}
	return 0.8 + rnd*0.8
}

// Normalize returns a copy of items with non-positive or duplicate ids
// removed (first occurrence wins) and malformed aspect ratios replaced by
// DefaultAspectRatio. It also reports how many records were dropped.
func Normalize(items []Item) ([]Item, int) {
	out := make([]Item, 0, len(items))
	seen := make(map[int]struct{}, len(items))
	dropped := 0
	for _, it := range items {
		if it.ID <= 0 {
			dropped++
			continue
		}
		if _, dup := seen[it.ID]; dup {
			dropped++
			continue
		}
		seen[it.ID] = struct{}{}
		it.AspectRatio = it.Ratio()
		out = append(out, it)
	}
	return out, dropped
}

// Filter returns the items matching tag, preserving order.
func Filter(items []Item, tag string) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.MatchesTag(tag) {
			out = append(out, it)
		}
	}
	return out
}

// Tags returns the distinct non-empty tags of items, sorted.
func Tags(items []Item) []string {
	set := make(map[string]struct{})
	for _, it := range items {
		if it.Tag != "" {
			set[it.Tag] = struct{}{}
		}
	}
	tags := make([]string, 0, len(set))
	for t := range set {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

func validRatio(r float64) bool {
	return r > 0 && finite(r)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
