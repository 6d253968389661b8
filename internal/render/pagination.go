package render

import "strconv"

// ButtonKind identifies a pagination control.
type ButtonKind int

const (
	ButtonPrev ButtonKind = iota
	ButtonPage
	ButtonNext
)

// Navigation labels.
const (
	PrevLabel = "<"
	NextLabel = ">"
)

// windowRadius is how many pages are shown on each side of the current one.
const windowRadius = 2

// Button describes one pagination control. Page is the page it navigates to.
type Button struct {
	Kind     ButtonKind
	Label    string
	Page     int
	Disabled bool
	Active   bool
}

// Pagination lays out the controls for a result set of totalPages pages
// viewed at currentPage: a previous arrow, a window of up to five page
// buttons around the current page, and a next arrow.
//
// The window is [current-2, current+2] clamped to [1, total]. Near the start
// it becomes [1, min(5, total)], near the end [max(total-4, 1), total].
// With no pages only the two disabled arrows are returned.
func Pagination(totalPages, currentPage int) []Button {
	if totalPages < 1 {
		return []Button{
			{Kind: ButtonPrev, Label: PrevLabel, Page: 0, Disabled: true},
			{Kind: ButtonNext, Label: NextLabel, Page: 0, Disabled: true},
		}
	}
	currentPage = min(max(currentPage, 1), totalPages)

	start := max(1, currentPage-windowRadius)
	end := min(totalPages, currentPage+windowRadius)
	if currentPage <= windowRadius+1 {
		end = min(2*windowRadius+1, totalPages)
	}
	if currentPage >= totalPages-windowRadius {
		start = max(totalPages-2*windowRadius, 1)
	}

	buttons := make([]Button, 0, end-start+3)
	buttons = append(buttons, Button{
		Kind:     ButtonPrev,
		Label:    PrevLabel,
		Page:     currentPage - 1,
		Disabled: currentPage == 1,
	})
	for p := start; p <= end; p++ {
		buttons = append(buttons, Button{
			Kind:   ButtonPage,
			Label:  strconv.Itoa(p),
			Page:   p,
			Active: p == currentPage,
		})
	}
	buttons = append(buttons, Button{
		Kind:     ButtonNext,
		Label:    NextLabel,
		Page:     currentPage + 1,
		Disabled: currentPage == totalPages,
	})
	return buttons
}

// PageNumbers returns the page numbers of the page buttons, in order.
func PageNumbers(buttons []Button) []int {
	var pages []int
	for _, b := range buttons {
		if b.Kind == ButtonPage {
			pages = append(pages, b.Page)
		}
	}
	return pages
}
