package tool

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Accessors for decoded JSON arguments. Schema validation runs before the
// bound function, so the typed getters may assume well-formed values and
// return zero values for absent ones; the Opt variants distinguish absence.

func (a Args) String(name string) string {
	v, _ := a[name].(string)
	return v
}

func (a Args) OptString(name string) *string {
	v, ok := a[name].(string)
	if !ok {
		return nil
	}
	return &v
}

// Int64 reads a JSON number as an integer identifier.
func (a Args) Int64(name string) int64 {
	v, _ := a[name].(float64)
	return int64(v)
}

func (a Args) OptInt64(name string) *int64 {
	v, ok := a[name].(float64)
	if !ok {
		return nil
	}
	n := int64(v)
	return &n
}

func (a Args) OptFloat(name string) *float64 {
	v, ok := a[name].(float64)
	if !ok {
		return nil
	}
	return &v
}

func (a Args) Bool(name string) bool {
	v, _ := a[name].(bool)
	return v
}

func (a Args) OptBool(name string) *bool {
	v, ok := a[name].(bool)
	if !ok {
		return nil
	}
	return &v
}

// Time parses a required datetime-string argument.
func (a Args) Time(name string) (time.Time, error) {
	s, ok := a[name].(string)
	if !ok {
		return time.Time{}, fmt.Errorf("'%s' is required", name)
	}
	t, err := time.Parse(DateTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", name, err)
	}
	return t, nil
}

// OptTime parses an optional datetime-string argument; nil when absent.
func (a Args) OptTime(name string) (*time.Time, error) {
	s, ok := a[name].(string)
	if !ok {
		return nil, nil
	}
	t, err := time.Parse(DateTimeLayout, s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return &t, nil
}

// ParseIDList parses a comma-separated list of numeric identifiers, e.g.
// the contact_ids argument of meeting tools.
func ParseIDList(s string) ([]int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q in list", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
