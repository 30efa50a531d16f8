package query

import (
	"fmt"
	"strings"

	cerrors "github.com/canonica-labs/esql/internal/errors"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// OrderItem is one sort key.
type OrderItem struct {
	Field     string
	Direction Direction
	Enabled   bool
}

// BuildSort emits one {field:{order:direction}} per enabled item. The input
// order is the sort precedence and is kept as is.
func BuildSort(items []OrderItem) ([]Document, error) {
	return sortClauses(items, true)
}

func sortClauses(items []OrderItem, onlyEnabled bool) ([]Document, error) {
	sort := make([]Document, 0, len(items))
	for _, item := range items {
		if onlyEnabled && !item.Enabled {
			continue
		}
		_, field := DecodeTypedField(item.Field)
		dir := Direction(strings.ToLower(string(item.Direction)))
		switch dir {
		case "":
			dir = Asc
		case Asc, Desc:
		default:
			return nil, cerrors.NewValidation("compile sort", "direction",
				fmt.Sprintf("unknown direction %q on field %s", item.Direction, field), "use asc or desc")
		}
		sort = append(sort, Document{field: Document{"order": string(dir)}})
	}
	return sort, nil
}

// TrackTotalHitsMode selects how precisely the total hit count is computed.
type TrackTotalHitsMode string

const (
	TrackTotalHitsTrue   TrackTotalHitsMode = "true"
	TrackTotalHitsFalse  TrackTotalHitsMode = "false"
	TrackTotalHitsCustom TrackTotalHitsMode = "custom"
)

// TrackTotalHits is the track_total_hits setting of a search.
type TrackTotalHits struct {
	Mode TrackTotalHitsMode
	// Value is the cap used in custom mode.
	Value int64
}

// ParseTrackTotalHits builds a setting from its configured mode and cap.
func ParseTrackTotalHits(mode string, value int64) (TrackTotalHits, error) {
	switch m := TrackTotalHitsMode(strings.ToLower(strings.TrimSpace(mode))); m {
	case TrackTotalHitsTrue, TrackTotalHitsFalse:
		return TrackTotalHits{Mode: m}, nil
	case TrackTotalHitsCustom:
		if value < 0 {
			return TrackTotalHits{}, cerrors.NewValidation("configure search", "track_total_hits",
				fmt.Sprintf("custom cap must not be negative, got %d", value), "")
		}
		return TrackTotalHits{Mode: m, Value: value}, nil
	default:
		return TrackTotalHits{}, cerrors.NewValidation("configure search", "track_total_hits",
			fmt.Sprintf("unknown mode %q", mode), "use true, false or custom")
	}
}

func (t TrackTotalHits) value() any {
	if t.Mode == TrackTotalHitsCustom {
		return t.Value
	}
	return t.Mode == TrackTotalHitsTrue
}

// Page selects a 1-based page of results.
type Page struct {
	Num  int
	Size int
}

// Validate rejects pages below 1.
func (p Page) Validate() error {
	if p.Num < 1 {
		return cerrors.NewValidation("compile search", "page", fmt.Sprintf("page number must be at least 1, got %d", p.Num), "")
	}
	if p.Size < 1 {
		return cerrors.NewValidation("compile search", "page size", fmt.Sprintf("page size must be at least 1, got %d", p.Size), "")
	}
	return nil
}

// From returns the offset of the first hit of the page.
func (p Page) From() int {
	return (p.Num - 1) * p.Size
}

// SearchBody is the body of a POST /{index}/_search request. Field order
// is the wire order.
type SearchBody struct {
	Query          Document   `json:"query"`
	From           int        `json:"from"`
	Size           int        `json:"size"`
	Sort           []Document `json:"sort,omitempty"`
	TrackTotalHits any        `json:"track_total_hits,omitempty"`
	Source         *bool      `json:"_source,omitempty"`
}

// SetTrackTotalHits adds track_total_hits for clusters that understand it
// (7.0 onwards).
func (b *SearchBody) SetTrackTotalHits(major int, t TrackTotalHits) {
	if major >= 7 {
		b.TrackTotalHits = t.value()
	}
}

// FormSearch is a search issued from the query form.
type FormSearch struct {
	Index          string
	Conditions     []ConditionItem
	Order          []OrderItem
	Page           Page
	TrackTotalHits TrackTotalHits
}

// Body compiles the search body for a cluster of the given major version.
func (s FormSearch) Body(major int) (*SearchBody, error) {
	if err := s.Page.Validate(); err != nil {
		return nil, err
	}
	q, err := BuildQuery(s.Conditions)
	if err != nil {
		return nil, err
	}
	sort, err := BuildSort(s.Order)
	if err != nil {
		return nil, err
	}
	body := &SearchBody{Query: q, From: s.Page.From(), Size: s.Page.Size}
	if len(sort) > 0 {
		body.Sort = sort
	}
	body.SetTrackTotalHits(major, s.TrackTotalHits)
	return body, nil
}

// BrowserSearch is a search issued from the data browser. Every order item
// is applied.
type BrowserSearch struct {
	Index          string
	Conditions     BrowserConditions
	Order          []OrderItem
	Page           Page
	TrackTotalHits TrackTotalHits
}

// Body compiles the search body for a cluster of the given major version.
func (s BrowserSearch) Body(major int) (*SearchBody, error) {
	if err := s.Page.Validate(); err != nil {
		return nil, err
	}
	q, err := BuildBrowserQuery(s.Conditions)
	if err != nil {
		return nil, err
	}
	sort, err := sortClauses(s.Order, false)
	if err != nil {
		return nil, err
	}
	source := true
	body := &SearchBody{Query: q, From: s.Page.From(), Size: s.Page.Size, Source: &source}
	if len(sort) > 0 {
		body.Sort = sort
	}
	body.SetTrackTotalHits(major, s.TrackTotalHits)
	return body, nil
}
