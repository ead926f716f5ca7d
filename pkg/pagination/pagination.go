package pagination

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// Params holds pagination parameters sent as query strings.
type Params struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// DefaultParams returns sensible pagination defaults.
func DefaultParams() Params {
	return Params{
		Page:     1,
		PageSize: 20,
	}
}

// Apply writes the parameters into q. Zero or negative values are left out so
// the backend falls back to its own defaults.
func (p Params) Apply(q url.Values) url.Values {
	if q == nil {
		q = url.Values{}
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(min(p.PageSize, 100)))
	}
	return q
}

type envelope struct {
	Results json.RawMessage `json:"results"`
}

// Normalize turns a list response into its ordered items. The backend answers
// either with a bare array or with an object whose "results" field holds the
// array; anything else yields an empty list. Normalize never fails.
func Normalize(body []byte) []json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return []json.RawMessage{}
	}

	switch trimmed[0] {
	case '[':
		return splitArray(trimmed)
	case '{':
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return []json.RawMessage{}
		}
		results := bytes.TrimSpace(env.Results)
		if len(results) == 0 || results[0] != '[' {
			return []json.RawMessage{}
		}
		return splitArray(results)
	default:
		return []json.RawMessage{}
	}
}

func splitArray(data []byte) []json.RawMessage {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil || items == nil {
		return []json.RawMessage{}
	}
	return items
}

// Decode normalizes body and decodes every item into T, preserving order.
// Envelope problems degrade to an empty list; an item that does not match T
// is reported as an error.
func Decode[T any](body []byte) ([]T, error) {
	raw := Normalize(body)
	out := make([]T, 0, len(raw))
	for i, item := range raw {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			return nil, fmt.Errorf("decode list item %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}
