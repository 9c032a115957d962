package tweet

import (
	"encoding/json"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"chirp/internal/apperr"
	"chirp/internal/metrics"
	"github.com/Jeffail/gabs"
)

var timeLayouts = []string{time.RubyDate, time.RFC1123Z, time.RFC3339}

// Find walks path through a decoded JSON record. It reports false when a
// segment is missing or the value is null or an empty string.
func Find(record any, path []string) (any, bool) {
	if len(path) == 0 || record == nil {
		return nil, false
	}
	c, err := gabs.Consume(record)
	if err != nil {
		return nil, false
	}
	v := c.Search(path...).Data()
	if v == nil {
		return nil, false
	}
	if s, ok := v.(string); ok && s == "" {
		return nil, false
	}
	return v, true
}

func findString(record any, path []string) (string, bool) {
	v, ok := Find(record, path)
	if !ok {
		return "", false
	}
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	default:
		return "", false
	}
}

// New normalizes one raw record. When the record's retweet path holds a
// nested status, the outer author becomes RTUser and every other field is
// read from the nested status with the same paths.
func New(record any, paths FieldPaths) (Tweet, error) {
	if err := paths.Validate(); err != nil {
		return Tweet{}, err
	}
	from, ok := findString(record, paths.FromUser)
	if !ok {
		return Tweet{}, fmt.Errorf("%w: record has no %s", apperr.ErrArgument, strings.Join(paths.FromUser, "."))
	}
	var t Tweet
	fields := record
	if nested, ok := Find(record, paths.Retweet); ok {
		t.RTUser = from
		fields = nested
		if from, ok = findString(fields, paths.FromUser); !ok {
			return Tweet{}, fmt.Errorf("%w: retweeted status has no %s", apperr.ErrArgument, strings.Join(paths.FromUser, "."))
		}
	}
	t.FromUser = from
	t.ToUser, _ = findString(fields, paths.ToUser)
	if s, ok := findString(fields, paths.Status); ok {
		t.Status = html.UnescapeString(s)
	}
	if s, ok := findString(fields, paths.CreatedAt); ok {
		t.CreatedAt = parseTime(s)
	}
	return t, nil
}

func parseTime(s string) time.Time {
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// Records decodes a response body and returns the records found at
// listPath (the root when empty). A single object yields one record.
func Records(body string, listPath []string) ([]any, error) {
	root, err := gabs.ParseJSON([]byte(body))
	if err != nil {
		return nil, &apperr.HTTPError{Message: "malformed response body: " + err.Error()}
	}
	switch v := root.Search(listPath...).Data().(type) {
	case []any:
		return v, nil
	case map[string]any:
		return []any{v}, nil
	case nil:
		return nil, nil
	default:
		return nil, &apperr.HTTPError{Message: fmt.Sprintf("unexpected response body of type %T", v)}
	}
}

// Normalize converts records in order, dropping any that cannot be
// normalized. warn receives one message per dropped record.
func Normalize(records []any, paths FieldPaths, warn func(string)) []Tweet {
	out := make([]Tweet, 0, len(records))
	for _, r := range records {
		t, err := New(r, paths)
		if err != nil {
			metrics.DroppedRecords.Inc()
			if warn != nil {
				warn("Skipping a record that could not be read: " + err.Error())
			}
			continue
		}
		out = append(out, t)
	}
	return out
}

// FromJSON decodes body and normalizes the records under listPath.
func FromJSON(body string, listPath []string, paths FieldPaths, warn func(string)) ([]Tweet, error) {
	recs, err := Records(body, listPath)
	if err != nil {
		return nil, err
	}
	return Normalize(recs, paths, warn), nil
}
