package render

import (
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/cinedesk/cinedesk/internal/core"
)

// NotAvailable is shown for absent values.
const NotAvailable = "N/A"

// DefaultDateLayout renders dates as month/day/year.
const DefaultDateLayout = "1/2/2006"

// MoviesPerPage is the page size the server uses. It only sizes the table.
const MoviesPerPage = 10

// Columns are the results table headers, in row order.
var Columns = []string{"Title", "Original Title", "Release Date", "Budget", "Revenue", "Rating"}

// apiDateLayouts are the date formats the API may return.
var apiDateLayouts = []string{time.DateOnly, time.RFC3339}

// Formatter turns movies into display strings.
type Formatter struct {
	dateLayout string
	printer    *message.Printer
}

// NewFormatter returns a Formatter using dateLayout for release dates and
// US English digit grouping for amounts.
func NewFormatter(dateLayout string) *Formatter {
	if dateLayout == "" {
		dateLayout = DefaultDateLayout
	}
	return &Formatter{
		dateLayout: dateLayout,
		printer:    message.NewPrinter(language.AmericanEnglish),
	}
}

// Row returns the table cells for m, in Columns order.
func (f *Formatter) Row(m core.Movie) []string {
	return []string{
		m.Title,
		m.OriginalTitle,
		f.ReleaseDate(m.ReleaseDate),
		f.Money(m.Budget),
		f.Money(m.Revenue),
		Rating(m.VoteAverage),
	}
}

// Rows formats a page of movies.
func (f *Formatter) Rows(movies []core.Movie) [][]string {
	rows := make([][]string, 0, len(movies))
	for _, m := range movies {
		rows = append(rows, f.Row(m))
	}
	return rows
}

// ReleaseDate formats an API date, N/A when absent.
// Unparseable values are shown unchanged.
func (f *Formatter) ReleaseDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return NotAvailable
	}
	for _, layout := range apiDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(f.dateLayout)
		}
	}
	return raw
}

// Money formats an amount with a dollar sign and digit grouping.
func (f *Formatter) Money(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return "$" + f.printer.Sprintf("%d", int64(v))
	}
	return "$" + f.printer.Sprint(number.Decimal(v, number.MaxFractionDigits(3)))
}

// Rating returns the vote average as sent by the server, N/A when absent.
func Rating(d core.Decimal) string {
	if d == "" {
		return NotAvailable
	}
	return d.String()
}
