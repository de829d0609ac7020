package query

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind describes how a raw query-string value is coerced before it is bound
// to a SQL parameter.
type Kind int

const (
	String Kind = iota
	Number
	Integer
	Bool
	Time
	UUID
)

// Field maps a public document field onto a column expression.
type Field struct {
	Column string
	Kind   Kind
}

// Schema lists the fields of an entity that can be filtered, sorted and
// projected. Virtual fields are computed at encoding time and can only be
// projected.
type Schema struct {
	Fields   map[string]Field
	Virtual  []string
	Reserved string
	// Pollution lists the fields allowed to repeat in a query string.
	Pollution []string
}

// Lookup returns the field registered under name.
func (s *Schema) Lookup(name string) (Field, bool) {
	f, ok := s.Fields[name]
	return f, ok
}

func (s *Schema) projectable(name string) bool {
	if _, ok := s.Fields[name]; ok {
		return true
	}
	for _, v := range s.Virtual {
		if v == name {
			return true
		}
	}
	return false
}

func (s *Schema) allowsRepeat(name string) bool {
	for _, p := range s.Pollution {
		if p == name {
			return true
		}
	}
	return false
}

func coerce(field string, kind Kind, raw string) (interface{}, error) {
	switch kind {
	case Number:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, invalidValue(field, raw)
		}
		return v, nil
	case Integer:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, invalidValue(field, raw)
		}
		return v, nil
	case Bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, invalidValue(field, raw)
		}
		return v, nil
	case Time:
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if v, err := time.Parse(layout, raw); err == nil {
				return v, nil
			}
		}
		return nil, invalidValue(field, raw)
	case UUID:
		v, err := uuid.Parse(raw)
		if err != nil {
			return nil, invalidValue(field, raw)
		}
		return v, nil
	default:
		return strings.TrimSpace(raw), nil
	}
}
