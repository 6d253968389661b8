package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Query holds the list filters sent to the catalog.
type Query struct {
	Search      string // free text matched against title and original title
	Ordering    string // sort key, "-" prefix for descending
	ReleaseDate string // YYYY-MM-DD
	Language    string // original language code
	Page        int    // 1-based
}

// WithPage returns a copy of q pointing at page.
func (q Query) WithPage(page int) Query {
	q.Page = page
	return q
}

// Movie is a catalog row as returned by the API.
type Movie struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title"`
	Overview         string  `json:"overview,omitempty"`
	ReleaseDate      string  `json:"release_date"`
	Budget           float64 `json:"budget"`
	Revenue          float64 `json:"revenue"`
	Runtime          int     `json:"runtime,omitempty"`
	Status           string  `json:"status,omitempty"`
	VoteAverage      Decimal `json:"vote_average"`
	VoteCount        int     `json:"vote_count,omitempty"`
	Homepage         string  `json:"homepage,omitempty"`
	OriginalLanguage string  `json:"original_language,omitempty"`
	Languages        string  `json:"languages,omitempty"`
}

// Page is the paginated envelope of the movie list endpoint.
type Page struct {
	Count       int     `json:"count"`
	NumPages    int     `json:"num_pages"`
	CurrentPage int     `json:"current_page"`
	Results     []Movie `json:"results"`
}

// UploadResult is the body of the CSV upload endpoint.
// Exactly one of Message and Error is expected to be set.
type UploadResult struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Decimal keeps a numeric value as the text the server sent.
// It accepts JSON numbers, JSON strings and null.
type Decimal string

// UnmarshalJSON implements json.Unmarshaler.
func (d *Decimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*d = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = Decimal(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("decimal: %w", err)
		}
		*d = Decimal(n.String())
	}
	return nil
}

// MarshalJSON implements json.Marshaler. Numeric text is written as a JSON
// number whether the server sent it quoted or not; anything else stays a string.
func (d Decimal) MarshalJSON() ([]byte, error) {
	switch {
	case d == "":
		return []byte("null"), nil
	case d.numeric():
		return []byte(d), nil
	default:
		return json.Marshal(string(d))
	}
}

// numeric reports whether d is a valid JSON number literal.
func (d Decimal) numeric() bool {
	if d == "" || (d[0] != '-' && (d[0] < '0' || d[0] > '9')) {
		return false
	}
	return json.Valid([]byte(d))
}

// String returns the value as sent by the server.
func (d Decimal) String() string { return string(d) }

// NoticeLevel classifies a Notice.
type NoticeLevel int

const (
	LevelInfo NoticeLevel = iota
	LevelError
)

// Notice is a message reported by a controller.
type Notice struct {
	Source string // "list" or "upload"
	Level  NoticeLevel
	Text   string
	Err    error
}
