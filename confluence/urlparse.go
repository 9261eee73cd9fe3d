package confluence

import (
	"fmt"
	"net/url"
	"strings"
)

// ParsePageURL pulls the instance name and page ID out of a Confluence page URL.  Two
// shapes are in the wild:
//
//	https://ORG.atlassian.net/wiki/pages/viewpage.action?pageId=123456     (legacy)
//	https://ORG.atlassian.net/wiki/spaces/KEY/pages/123456/Some+Title      (cloud)
//
// A bare numeric string is accepted too, in which case the instance comes back empty and
// the caller should fall back to its configured value.
func ParsePageURL(raw string) (instance string, pageID string, err error) {
	if isAllDigits(raw) {
		return "", raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("confluence: couldn't parse page URL: %w", err)
	}

	instance = strings.TrimSuffix(u.Hostname(), ".atlassian.net")
	if instance == u.Hostname() {
		// not an *.atlassian.net host; keep the whole hostname, NewAPI will complain if
		// it's unusable.
		instance = u.Hostname()
	}

	// Legacy shape: pageId query parameter.
	if id := u.Query().Get("pageId"); id != "" {
		return instance, id, nil
	}

	// Cloud shape: /wiki/spaces/KEY/pages/ID/title
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+1 < len(parts); i++ {
		if parts[i] == "pages" && isAllDigits(parts[i+1]) {
			return instance, parts[i+1], nil
		}
	}

	// Last resort: a trailing numeric path segment.
	if len(parts) > 0 && isAllDigits(parts[len(parts)-1]) {
		return instance, parts[len(parts)-1], nil
	}

	return "", "", fmt.Errorf("confluence: couldn't extract pageId from URL: %s", raw)
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
