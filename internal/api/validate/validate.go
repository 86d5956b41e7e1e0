// Package validate parses and checks query parameters for the HTTP handlers.
package validate

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/esmlabs/extended-memory/internal/model"
)

// QueryInt reads an optional integer parameter, returning def when absent.
func QueryInt(q url.Values, name string, def int) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", name, model.ErrValidation)
	}
	return v, nil
}

// QueryBool reads an optional boolean parameter, returning def when absent.
func QueryBool(q url.Values, name string, def bool) (bool, error) {
	raw := q.Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", name, model.ErrValidation)
	}
	return v, nil
}

// QueryTime reads an optional RFC 3339 timestamp parameter.
func QueryTime(q url.Values, name string) (*time.Time, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be RFC 3339: %w", name, model.ErrValidation)
	}
	return &t, nil
}

// QueryList reads an optional comma-separated list parameter.
func QueryList(q url.Values, name string) []string {
	raw := q.Get(name)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
