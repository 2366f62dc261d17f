// Package integrations provides HTTP clients for content-management APIs
// that feed the artboard.
//
// # Overview
//
// Each CMS has its own subpackage:
//
//   - [strapi]: Strapi v4 and v5 REST API
//
// # Client Pattern
//
// CMS clients embed [Client] and follow one pattern:
//
//	client := strapi.NewClient(backend, baseURL, token, 24*time.Hour)
//	items, err := client.FetchItems(ctx)
//
// [Client] handles:
//   - default headers (bearer tokens, User-Agent)
//   - response caching through [cache.Cache], keyed by [cache.Keyer]
//   - retries with exponential backoff for network errors, 429 and 5xx
//   - HTTP hooks for request metrics
//
// Status codes map onto [ErrNotFound], [ErrUnauthorized] and [ErrNetwork];
// test them with errors.Is.
//
// [strapi]: github.com/matzehuels/artboard/pkg/integrations/strapi
// [cache.Cache]: github.com/matzehuels/artboard/pkg/cache.Cache
// [cache.Keyer]: github.com/matzehuels/artboard/pkg/cache.Keyer
package integrations
