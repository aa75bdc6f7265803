package catalog

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/5w1tchy/book-art/internal/store/shared"
	"github.com/5w1tchy/book-art/internal/validate"
)

// Payload is a decoded request body keyed by camelCase field name. Presence of a key
// is meaningful: absent leaves a column untouched, null clears it.
type Payload map[string]json.RawMessage

// readOnly keys are echoed back by clients that PUT a fetched row; they are ignored.
var readOnly = map[string]bool{"id": true, "createdAt": true, "updatedAt": true}

type colVal struct {
	col string
	val any
}

type write struct {
	cols  []colVal
	links map[string][]string // by Link.Key; present keys only
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// decode validates p against r. creating selects insert rules (required fields must be
// present, immutable fields allowed) over update rules.
func (r *Resource) decode(p Payload, creating bool) (write, error) {
	w := write{links: map[string][]string{}}

	var unknown []string
	for key := range p {
		if readOnly[key] {
			continue
		}
		if _, ok := r.field(key); ok {
			continue
		}
		if _, ok := r.link(key); ok {
			continue
		}
		unknown = append(unknown, key)
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return w, inputErr("Unknown field: %s", unknown[0])
	}

	for _, f := range r.Fields {
		key := f.Key()
		raw, present := p[key]
		if !present {
			if creating && f.Required {
				return w, inputErr("%s is required", key)
			}
			continue
		}
		if f.Immutable && !creating {
			return w, inputErr("%s cannot be changed", key)
		}
		val, err := decodeField(f, raw)
		if err != nil {
			return w, err
		}
		w.cols = append(w.cols, colVal{col: f.Column, val: val})
	}

	for _, l := range r.Links {
		raw, present := p[l.Key]
		if !present {
			continue
		}
		ids, err := decodeIDs(l.Key, raw)
		if err != nil {
			return w, err
		}
		w.links[l.Key] = ids
	}
	return w, nil
}

func decodeField(f Field, raw json.RawMessage) (any, error) {
	key := f.Key()
	if isNull(raw) {
		if f.Required {
			return nil, inputErr("%s is required", key)
		}
		return f.Default, nil
	}

	switch f.Kind {
	case KindInt:
		var n int64
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, inputErr("%s must be an integer", key)
		}
		return n, nil

	case KindTags:
		var tags []string
		if err := json.Unmarshal(raw, &tags); err != nil {
			return nil, inputErr("%s must be an array of strings", key)
		}
		for i, t := range tags {
			tags[i] = shared.CleanText(t)
		}
		return tags, nil

	case KindUUID:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || !validate.IsUUID(s) {
			return nil, inputErr("%s must be a valid id", key)
		}
		return s, nil

	default:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, inputErr("%s must be a string", key)
		}
		s = shared.CleanText(s)
		if s == "" {
			if f.Required {
				return nil, inputErr("%s is required", key)
			}
			return nil, nil
		}
		return s, nil
	}
}

func decodeIDs(key string, raw json.RawMessage) ([]string, error) {
	if isNull(raw) {
		return []string{}, nil
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, inputErr("%s must be an array of ids", key)
	}
	ids = shared.Dedup(ids)
	for _, id := range ids {
		if !validate.IsUUID(id) {
			return nil, inputErr("%s contains an invalid id", key)
		}
	}
	return ids, nil
}
