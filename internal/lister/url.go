// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lister

import (
	"fmt"
	"net/url"
	"strings"
)

// postPathPrefix marks post permalinks on Substack publications.
const postPathPrefix = "/p/"

// NormalizeBaseURL adds https:// when the scheme is missing and strips
// trailing slashes, queries and fragments.
func NormalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty publication URL")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parsing publication URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q in %q", u.Scheme, raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("publication URL %q has no host", raw)
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String(), nil
}

// canonicalKey is the deduplication key of a post URL: no query, no
// fragment, no trailing slash, lowercase host.
func canonicalKey(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return strings.TrimRight(strings.TrimSpace(raw), "/")
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String()
}

// cleanPostURL drops the query and fragment a feed may append for tracking.
func cleanPostURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return strings.TrimSpace(raw)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// isPostURL reports whether raw looks like a post permalink.
func isPostURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return strings.Contains(u.Path, postPathPrefix)
}

// excluded reports whether any path segment of raw equals a keyword.
func excluded(raw string, keywords []string) bool {
	if len(keywords) == 0 {
		return false
	}
	u, err := url.Parse(raw)
	p := raw
	if err == nil {
		p = u.Path
	}
	for _, seg := range strings.Split(strings.Trim(p, "/"), "/") {
		seg = strings.ToLower(seg)
		for _, kw := range keywords {
			if kw != "" && seg == strings.ToLower(kw) {
				return true
			}
		}
	}
	return false
}

// WriterName derives the publication's short name from its host: "foo" for
// foo.substack.com and "example" for www.example.com.
func WriterName(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Hostname() == "" {
		return "publication"
	}
	parts := strings.Split(u.Hostname(), ".")
	if len(parts) > 1 && parts[0] == "www" {
		parts = parts[1:]
	}
	if len(parts) > 1 {
		parts = parts[:len(parts)-1]
	}
	if len(parts) > 1 && parts[len(parts)-1] == "substack" {
		parts = parts[:len(parts)-1]
	}
	return strings.Join(parts, "-")
}
