// Package strapi reads projects and tags from a Strapi CMS.
//
// Strapi v4 wraps every record's fields in "attributes" and every relation
// in "data"; v5 returns flat records. The normalizer accepts both, and any
// mix of the two, and flattens projects into [item.Item] values:
//
//   - title falls back to name, then to "Untitled Project"
//   - author falls back to "Unknown"
//   - tag is the first related tag's name, or "Uncategorized"
//   - a missing aspect ratio is derived from the id with [item.AspectFromID]
//   - server-relative media URLs are prefixed with the CMS base URL
package strapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/artboard/pkg/cache"
	"github.com/matzehuels/artboard/pkg/integrations"
	"github.com/matzehuels/artboard/pkg/item"
)

const (
	projectsPath = "/api/projects?populate=*&pagination[limit]=100"
	tagsPath     = "/api/tags?pagination[limit]=100"

	untitled      = "Untitled Project"
	unknownAuthor = "Unknown"
)

// Client fetches and normalizes Strapi content.
type Client struct {
	*integrations.Client
	baseURL string

	// Refresh bypasses the response cache.
	Refresh bool
}

// NewClient returns a client for the CMS at baseURL. The token, if set, is
// sent as a bearer token; Strapi's public role needs none.
func NewClient(backend cache.Cache, baseURL, token string, ttl time.Duration) *Client {
	headers := map[string]string{
		"Content-Type": "application/json",
	}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	return &Client{
		Client:  integrations.NewClient(backend, "strapi:", ttl, headers),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// BaseURL returns the CMS base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchItems returns the normalized projects.
func (c *Client) FetchItems(ctx context.Context) ([]item.Item, error) {
	raw, err := c.fetch(ctx, c.baseURL+projectsPath)
	if err != nil {
		return nil, fmt.Errorf("strapi projects: %w", err)
	}
	return NormalizeProjects(raw, c.baseURL)
}

// FetchTagNames returns the names of all tags.
func (c *Client) FetchTagNames(ctx context.Context) ([]string, error) {
	raw, err := c.fetch(ctx, c.baseURL+tagsPath)
	if err != nil {
		return nil, fmt.Errorf("strapi tags: %w", err)
	}
	return NormalizeTags(raw), nil
}

func (c *Client) fetch(ctx context.Context, url string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.Cached(ctx, url, c.Refresh, &raw, func() error {
		return c.Get(ctx, url, &raw)
	})
	return raw, err
}

// =============================================================================
// Normalization
// =============================================================================

type project struct {
	Title       string          `json:"title"`
	Name        string          `json:"name"`
	Description json.RawMessage `json:"description"`
	AspectRatio float64         `json:"aspectRatio"`
	Cover       json.RawMessage `json:"cover"`
	Gallery     json.RawMessage `json:"gallery"`
	Author      json.RawMessage `json:"author"`
	Tags        json.RawMessage `json:"tags"`
}

type author struct {
	Name   string          `json:"name"`
	Avatar json.RawMessage `json:"avatar"`
}

type media struct {
	URL        string `json:"url"`
	Attributes *struct {
		URL string `json:"url"`
	} `json:"attributes"`
}

// NormalizeProjects flattens a projects response body. The body may be the
// {"data": [...]} envelope or the bare list.
func NormalizeProjects(body json.RawMessage, baseURL string) ([]item.Item, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(unwrap(body), &records); err != nil {
		return nil, fmt.Errorf("projects payload is not a list: %w", err)
	}

	items := make([]item.Item, 0, len(records))
	for _, rec := range records {
		var head struct {
			ID int `json:"id"`
		}
		if err := json.Unmarshal(rec, &head); err != nil {
			continue
		}
		var p project
		if err := json.Unmarshal(attributes(rec), &p); err != nil {
			continue
		}

		name, avatar := authorOf(p.Author, baseURL)
		it := item.Item{
			ID:          head.ID,
			Title:       firstNonEmpty(p.Title, p.Name, untitled),
			ImageRef:    mediaURL(p.Cover, baseURL),
			GalleryRefs: galleryURLs(p.Gallery, baseURL),
			Description: plainText(p.Description),
			Author:      name,
			Avatar:      avatar,
			Tag:         firstTag(p.Tags),
			AspectRatio: p.AspectRatio,
		}
		if !(it.AspectRatio > 0) {
			it.AspectRatio = item.AspectFromID(it.ID)
		}
		items = append(items, it)
	}
	return items, nil
}

// NormalizeTags returns the non-empty tag names of a tags response body.
func NormalizeTags(body json.RawMessage) []string {
	var records []json.RawMessage
	if err := json.Unmarshal(unwrap(body), &records); err != nil {
		return []string{}
	}
	names := make([]string, 0, len(records))
	for _, rec := range records {
		var t struct {
			Name string `json:"name"`
		}
		if json.Unmarshal(attributes(rec), &t) == nil && t.Name != "" {
			names = append(names, t.Name)
		}
	}
	return names
}

// unwrap returns the value under "data" when raw is an object carrying it,
// and raw otherwise. JSON null yields nil.
func unwrap(raw json.RawMessage) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if isNull(raw) {
		return nil
	}
	if raw[0] == '{' {
		var env struct {
			Data json.RawMessage `json:"data"`
		}
		if json.Unmarshal(raw, &env) == nil && env.Data != nil {
			if isNull(env.Data) {
				return nil
			}
			return env.Data
		}
	}
	return raw
}

// attributes returns the v4 "attributes" object when present, else raw.
func attributes(raw json.RawMessage) json.RawMessage {
	var rec struct {
		Attributes json.RawMessage `json:"attributes"`
	}
	if json.Unmarshal(raw, &rec) == nil && !isNull(rec.Attributes) {
		return rec.Attributes
	}
	return raw
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func mediaURL(raw json.RawMessage, baseURL string) string {
	data := unwrap(raw)
	if data == nil {
		return ""
	}
	var m media
	if json.Unmarshal(data, &m) != nil {
		return ""
	}
	url := m.URL
	if m.Attributes != nil && m.Attributes.URL != "" {
		url = m.Attributes.URL
	}
	return integrations.AbsoluteURL(baseURL, url)
}

func galleryURLs(raw json.RawMessage, baseURL string) []string {
	data := unwrap(raw)
	if data == nil {
		return nil
	}
	var entries []json.RawMessage
	if json.Unmarshal(data, &entries) != nil {
		return nil
	}
	var urls []string
	for _, e := range entries {
		if u := mediaURL(e, baseURL); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

func authorOf(raw json.RawMessage, baseURL string) (name, avatar string) {
	data := unwrap(raw)
	if data == nil {
		return unknownAuthor, ""
	}
	var a author
	if json.Unmarshal(attributes(data), &a) != nil {
		return unknownAuthor, ""
	}
	return firstNonEmpty(a.Name, unknownAuthor), mediaURL(a.Avatar, baseURL)
}

func firstTag(raw json.RawMessage) string {
	data := unwrap(raw)
	if data == nil {
		return item.Uncategorized
	}
	var tags []json.RawMessage
	if json.Unmarshal(data, &tags) != nil || len(tags) == 0 {
		return item.Uncategorized
	}
	var t struct {
		Name string `json:"name"`
	}
	if json.Unmarshal(attributes(tags[0]), &t) != nil || t.Name == "" {
		return item.Uncategorized
	}
	return t.Name
}

// block is a node of Strapi v5 rich text.
type block struct {
	Text     string  `json:"text"`
	Children []block `json:"children"`
}

func (b block) plain(sb *strings.Builder) {
	sb.WriteString(b.Text)
	for _, c := range b.Children {
		c.plain(sb)
	}
}

// plainText accepts a plain string or v5 rich-text blocks, which are
// flattened to paragraphs separated by blank lines.
func plainText(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var blocks []block
	if json.Unmarshal(raw, &blocks) != nil {
		return ""
	}
	paragraphs := make([]string, 0, len(blocks))
	for _, b := range blocks {
		var sb strings.Builder
		b.plain(&sb)
		if p := strings.TrimSpace(sb.String()); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return strings.Join(paragraphs, "\n\n")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
