package apiclient

import (
	"net/url"
	"strconv"
	"time"
)

// Query builds query strings for list endpoints. Zero values are omitted.
type Query struct {
	values url.Values
}

// NewQuery returns an empty Query.
func NewQuery() *Query {
	return &Query{values: url.Values{}}
}

func (q *Query) Set(key, value string) *Query {
	if value != "" {
		q.values.Set(key, value)
	}

	return q
}

func (q *Query) Int(key string, value int) *Query {
	if value != 0 {
		q.values.Set(key, strconv.Itoa(value))
	}

	return q
}

// Bool sets key only when value is non-nil, so "false" can be sent explicitly.
func (q *Query) Bool(key string, value *bool) *Query {
	if value != nil {
		q.values.Set(key, strconv.FormatBool(*value))
	}

	return q
}

// Date sets key as YYYY-MM-DD.
func (q *Query) Date(key string, value time.Time) *Query {
	if !value.IsZero() {
		q.values.Set(key, value.Format(time.DateOnly))
	}

	return q
}

// Path appends the encoded query to path, if any.
func (q *Query) Path(path string) string {
	if len(q.values) == 0 {
		return path
	}

	return path + "?" + q.values.Encode()
}
