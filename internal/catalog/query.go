package catalog

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/cinedesk/cinedesk/internal/core"
)

const moviesPath = "/api/movies/"

// OrderingFields are the sort keys accepted by the movie list endpoint.
// A "-" prefix sorts descending.
var OrderingFields = []string{"release_date", "vote_average", "budget", "revenue"}

// BuildPath returns the request path for q:
// page first, then search, ordering, release_date and original_language,
// each only when non-empty. Every parameter is followed by "&".
func BuildPath(q core.Query) string {
	page := q.Page
	if page < 1 {
		page = 1
	}

	var sb strings.Builder
	sb.WriteString(moviesPath)
	sb.WriteString("?page=")
	sb.WriteString(strconv.Itoa(page))
	sb.WriteByte('&')

	appendParam(&sb, "search", q.Search)
	appendParam(&sb, "ordering", q.Ordering)
	appendParam(&sb, "release_date", q.ReleaseDate)
	appendParam(&sb, "original_language", q.Language)

	return sb.String()
}

func appendParam(sb *strings.Builder, key, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	sb.WriteString(key)
	sb.WriteByte('=')
	sb.WriteString(EncodeComponent(value))
	sb.WriteByte('&')
}

// componentUnescaper turns url.QueryEscape output into encodeURIComponent
// form: spaces as %20, and !'()* left literal.
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeComponent percent-encodes a query value the way a browser's
// encodeURIComponent does.
func EncodeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}

// OrderingOptions lists the sort select values: none, then each field ascending and descending.
func OrderingOptions() []string {
	opts := make([]string, 0, 1+2*len(OrderingFields))
	opts = append(opts, "")
	for _, f := range OrderingFields {
		opts = append(opts, f, "-"+f)
	}
	return opts
}
