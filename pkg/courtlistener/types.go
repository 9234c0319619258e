package courtlistener

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// wireDateFormat is the calendar date format used by the CourtListener API.
const wireDateFormat = "2006-01-02"

// Date is a nullable calendar date in the CourtListener wire format
// (YYYY-MM-DD). The zero value represents an absent date.
type Date struct {
	time.Time
}

// ParseDate parses a YYYY-MM-DD string. An empty string yields a zero Date.
func ParseDate(s string) (Date, error) {
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(wireDateFormat, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// MustDate parses a YYYY-MM-DD string, panicking on failure. Test helper.
func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// SameDay reports whether both dates fall on the same calendar date.
// A zero date is never the same day as anything.
func (d Date) SameDay(o Date) bool {
	if d.IsZero() || o.IsZero() {
		return false
	}
	y1, m1, d1 := d.Date()
	y2, m2, d2 := o.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// String returns the wire format, or "" for an absent date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(wireDateFormat)
}

// UnmarshalJSON accepts a YYYY-MM-DD string or JSON null.
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("unmarshal date: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON emits a YYYY-MM-DD string, or null for an absent date.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// Page is the standard CourtListener result envelope. Next and Previous are
// continuation URLs; nil or empty means no further pages in that direction.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// HasNext reports whether a continuation page exists.
func (p *Page[T]) HasNext() bool {
	return p.Next != nil && *p.Next != ""
}

// Docket is a case record returned by the docket search endpoint.
type Docket struct {
	ID             int64  `json:"id"`
	DocketNumber   string `json:"docket_number"`
	DateFiled      Date   `json:"date_filed"`
	DateTerminated Date   `json:"date_terminated"`
}

// DocketEntry is a child record of a matched docket. EntryNumber is the
// authoritative ordering key for downstream consumers.
type DocketEntry struct {
	ID          int64  `json:"id"`
	EntryNumber int    `json:"entry_number"`
	DateFiled   Date   `json:"date_filed"`
	Description string `json:"description"`
}

// DecodeDocketPage parses a raw docket search response body.
func DecodeDocketPage(body []byte) (*Page[Docket], error) {
	var page Page[Docket]
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode docket page: %w", err)
	}
	return &page, nil
}

// DecodeEntryPage parses a raw docket entry listing response body.
func DecodeEntryPage(body []byte) (*Page[DocketEntry], error) {
	var page Page[DocketEntry]
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode entry page: %w", err)
	}
	return &page, nil
}
