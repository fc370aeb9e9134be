package models

import "strings"

type URLKind int

const (
	URLEmpty URLKind = iota
	URLDurable
	// URLTransient is a process-local handle (blob:) that dangles after restart.
	URLTransient
	URLInlineData
)

// ClassifyURL tells durable media locations apart from local-only references.
func ClassifyURL(url string) URLKind {
	switch {
	case strings.TrimSpace(url) == "":
		return URLEmpty
	case strings.HasPrefix(url, "blob:"):
		return URLTransient
	case strings.HasPrefix(url, "data:"):
		return URLInlineData
	default:
		return URLDurable
	}
}
