// Package window computes the visible slice of the virtualized invoice
// list: a flattened sequence of month headers and invoice rows, positioned
// by cumulative estimated heights. The computation is pure, so scroll and
// resize recompute it idempotently.
package window

import "github.com/notainsight/nota-insight-bff-go/internal/domain"

// Item kinds in the flattened sequence.
const (
	KindHeader = "header"
	KindRow    = "row"
)

// Default estimated heights in pixels, mirroring the list layout.
const (
	DefaultHeaderHeight = 40
	DefaultRowHeight    = 72
	DefaultOverscan     = 5
)

// Item is one entry of the flattened list.
type Item struct {
	Kind    string          `json:"kind"` // header or row
	Month   string          `json:"month,omitempty"`
	Label   string          `json:"label,omitempty"`
	Invoice *domain.Invoice `json:"invoice,omitempty"`
}

// Layout describes the geometry used to position items.
type Layout struct {
	HeaderHeight int
	RowHeight    int
	Overscan     int
}

// DefaultLayout returns the layout the invoice list uses.
func DefaultLayout() Layout {
	return Layout{
		HeaderHeight: DefaultHeaderHeight,
		RowHeight:    DefaultRowHeight,
		Overscan:     DefaultOverscan,
	}
}

// Positioned is a rendered item with its absolute offset.
type Positioned struct {
	Index  int  `json:"index"`
	Offset int  `json:"offset"` // cumulative estimated size of all preceding items
	Height int  `json:"height"`
	Item   Item `json:"item"`
}

// Viewport is the result of a window computation.
type Viewport struct {
	TotalHeight int          `json:"total_height"`
	Start       int          `json:"start"`
	End         int          `json:"end"` // exclusive
	Items       []Positioned `json:"items"`
}

// Flatten turns month groups into the tagged header/row sequence.
func Flatten(groups []domain.InvoiceMonthGroup) []Item {
	var items []Item
	for gi := range groups {
		g := &groups[gi]
		items = append(items, Item{Kind: KindHeader, Month: g.Month, Label: g.Label})
		for ii := range g.Invoices {
			items = append(items, Item{Kind: KindRow, Month: g.Month, Invoice: &g.Invoices[ii]})
		}
	}
	return items
}

func (l Layout) height(kind string) int {
	if kind == KindHeader {
		return l.HeaderHeight
	}
	return l.RowHeight
}

// TotalHeight is the estimated height of the whole sequence.
func (l Layout) TotalHeight(items []Item) int {
	total := 0
	for _, it := range items {
		total += l.height(it.Kind)
	}
	return total
}

// Visible computes the window of items intersecting [scrollTop,
// scrollTop+viewportHeight), widened by the overscan margin on both sides.
// Empty input yields zero rendered items.
func (l Layout) Visible(items []Item, scrollTop, viewportHeight int) Viewport {
	if len(items) == 0 || viewportHeight <= 0 {
		return Viewport{}
	}
	if scrollTop < 0 {
		scrollTop = 0
	}

	// Prefix offsets: offsets[i] is the cumulative height before item i.
	offsets := make([]int, len(items)+1)
	for i, it := range items {
		offsets[i+1] = offsets[i] + l.height(it.Kind)
	}
	total := offsets[len(items)]

	vp := Viewport{TotalHeight: total}
	if scrollTop >= total {
		// Scrolled past the end; nothing intersects.
		return vp
	}

	start := 0
	for start < len(items) && offsets[start+1] <= scrollTop {
		start++
	}
	end := start
	for end < len(items) && offsets[end] < scrollTop+viewportHeight {
		end++
	}

	start -= l.Overscan
	if start < 0 {
		start = 0
	}
	end += l.Overscan
	if end > len(items) {
		end = len(items)
	}

	vp.Start = start
	vp.End = end
	vp.Items = make([]Positioned, 0, end-start)
	for i := start; i < end; i++ {
		vp.Items = append(vp.Items, Positioned{
			Index:  i,
			Offset: offsets[i],
			Height: l.height(items[i].Kind),
			Item:   items[i],
		})
	}
	return vp
}
