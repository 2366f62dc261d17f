package errors

import (
	"net/url"
	"strings"
	"unicode"
)

// maxTagLength bounds filter tags accepted from hosts.
const maxTagLength = 128

// ValidateURL validates a content-source base URL.
// It must be absolute and use the http or https scheme.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidURL, "URL cannot be empty")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidURL, "URL must use http or https scheme: %q", rawURL)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidURL, err, "parse %q", rawURL)
	}
	if u.Host == "" {
		return New(ErrCodeInvalidURL, "URL has no host: %q", rawURL)
	}
	return nil
}

// ValidateTag validates a filter tag coming from a host (query string, key binding).
// The empty tag is valid and means "all items".
func ValidateTag(tag string) error {
	if len(tag) > maxTagLength {
		return New(ErrCodeInvalidInput, "tag too long (max %d characters)", maxTagLength)
	}
	for _, r := range tag {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "tag contains control characters")
		}
	}
	return nil
}

// ValidateItemID rejects non-positive item identifiers.
func ValidateItemID(id int) error {
	if id <= 0 {
		return New(ErrCodeInvalidItem, "item id must be positive, got %d", id)
	}
	return nil
}
