package query

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 100
	MaxLimit     = 1000

	defaultSort = "-createdAt"
)

// reserved parameters are consumed by sort, projection and pagination and
// never become filter conditions.
var reserved = map[string]bool{"page": true, "limit": true, "sort": true, "fields": true}

// Params holds raw query-string values in arrival order.
type Params map[string][]string

// Add appends a value for key.
func (p Params) Add(key, value string) {
	p[key] = append(p[key], value)
}

// Set replaces all values of key.
func (p Params) Set(key, value string) {
	p[key] = []string{value}
}

// Get returns the last value of key, so a repeated parameter behaves as if
// only its final occurrence had been sent.
func (p Params) Get(key string) string {
	vs := p[key]
	if len(vs) == 0 {
		return ""
	}
	return vs[len(vs)-1]
}

// Error reports a query parameter that cannot be applied.
type Error struct {
	Param   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid query parameter %s: %s", e.Param, e.Message)
}

func invalidValue(field, raw string) error {
	return &Error{Param: field, Message: fmt.Sprintf("invalid value %q", raw)}
}

// Features applies the query-string stages to a Query in a fixed order:
// filter, sort, field limiting, pagination. The first failing stage records
// its error and the remaining stages become no-ops.
type Features struct {
	query  *Query
	schema *Schema
	params Params
	err    error
}

// NewFeatures wraps q with the parameters of one request.
func NewFeatures(q *Query, schema *Schema, params Params) *Features {
	if params == nil {
		params = Params{}
	}
	return &Features{query: q, schema: schema, params: params}
}

// Scope pre-filters the query by field = value, used for nested resources
// such as the reviews of one tour.
func (f *Features) Scope(field, value string) *Features {
	if f.err != nil {
		return f
	}
	def, ok := f.schema.Lookup(field)
	if !ok {
		f.err = &Error{Param: field, Message: "unknown field"}
		return f
	}
	v, err := coerce(field, def.Kind, value)
	if err != nil {
		f.err = err
		return f
	}
	f.query.Conditions = append(f.query.Conditions, Condition{Field: field, Column: def.Column, Op: OpEq, Values: []interface{}{v}})
	return f
}

// Filter turns every non-reserved parameter into a condition. "field=v" is an
// equality, "field[gte]=v" a comparison.
func (f *Features) Filter() *Features {
	if f.err != nil {
		return f
	}

	keys := make([]string, 0, len(f.params))
	for k := range f.params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if reserved[key] {
			continue
		}
		name, opToken := splitKey(key)

		def, ok := f.schema.Lookup(name)
		if !ok {
			f.err = &Error{Param: key, Message: "unknown field"}
			return f
		}

		values := f.params[key]
		if !f.schema.allowsRepeat(name) {
			values = values[len(values)-1:]
		}

		coerced := make([]interface{}, 0, len(values))
		for _, raw := range values {
			v, err := coerce(key, def.Kind, raw)
			if err != nil {
				f.err = err
				return f
			}
			coerced = append(coerced, v)
		}

		if opToken == "" {
			op := OpEq
			if len(coerced) > 1 {
				op = OpIn
			}
			f.query.Conditions = append(f.query.Conditions, Condition{Field: name, Column: def.Column, Op: op, Values: coerced})
			continue
		}

		op, ok := comparisons[opToken]
		if !ok {
			f.err = &Error{Param: key, Message: fmt.Sprintf("unsupported operator %q", opToken)}
			return f
		}
		for _, v := range coerced {
			f.query.Conditions = append(f.query.Conditions, Condition{Field: name, Column: def.Column, Op: op, Values: []interface{}{v}})
		}
	}

	return f
}

// Sort reads a comma separated field list; a leading "-" sorts descending.
// Without a sort parameter results come newest first. The identifier is
// always appended as a tie-breaker so pages never overlap.
func (f *Features) Sort() *Features {
	if f.err != nil {
		return f
	}

	list := f.params.Get("sort")
	if list == "" {
		list = defaultSort
	}

	hasID := false
	for _, token := range strings.Split(list, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		desc := strings.HasPrefix(token, "-")
		name := strings.TrimPrefix(token, "-")

		def, ok := f.schema.Lookup(name)
		if !ok {
			f.err = &Error{Param: "sort", Message: fmt.Sprintf("unknown field %q", name)}
			return f
		}
		if name == "id" {
			hasID = true
		}
		f.query.Sort = append(f.query.Sort, SortField{Field: name, Column: def.Column, Desc: desc})
	}

	if id, ok := f.schema.Lookup("id"); ok && !hasID {
		f.query.Sort = append(f.query.Sort, SortField{Field: "id", Column: id.Column})
	}

	return f
}

// LimitFields reads a comma separated projection. Either all entries are
// plain names (inclusion) or all start with "-" (exclusion). Without a
// fields parameter the schema's reserved metadata field is hidden.
func (f *Features) LimitFields() *Features {
	if f.err != nil {
		return f
	}

	list := f.params.Get("fields")
	if list == "" {
		if f.schema.Reserved != "" {
			f.query.Projection = Projection{Exclude: []string{f.schema.Reserved}}
		}
		return f
	}

	var include, exclude []string
	for _, token := range strings.Split(list, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		name := strings.TrimPrefix(token, "-")
		if !f.schema.projectable(name) {
			f.err = &Error{Param: "fields", Message: fmt.Sprintf("unknown field %q", name)}
			return f
		}
		if strings.HasPrefix(token, "-") {
			exclude = append(exclude, name)
		} else {
			include = append(include, name)
		}
	}

	if len(include) > 0 && len(exclude) > 0 {
		f.err = &Error{Param: "fields", Message: "cannot mix inclusion and exclusion"}
		return f
	}

	f.query.Projection = Projection{Include: include, Exclude: exclude}
	return f
}

// Paginate reads page and limit. Missing, malformed, zero or negative values
// fall back to the defaults and limit is capped at MaxLimit. Pages past the
// largest representable offset are clamped to it.
func (f *Features) Paginate() *Features {
	if f.err != nil {
		return f
	}

	page := positiveInt(f.params.Get("page"), DefaultPage)
	limit := positiveInt(f.params.Get("limit"), DefaultLimit)
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if page-1 > math.MaxInt/limit {
		page = math.MaxInt/limit + 1
	}

	f.query.Offset = (page - 1) * limit
	f.query.Limit = limit
	return f
}

// Apply runs every stage in order and returns the refined query.
func (f *Features) Apply() (*Query, error) {
	f.Filter().Sort().LimitFields().Paginate()
	if f.err != nil {
		return nil, f.err
	}
	return f.query, nil
}

// Err returns the first stage error.
func (f *Features) Err() error {
	return f.err
}

// Query returns the wrapped query.
func (f *Features) Query() *Query {
	return f.query
}

func splitKey(key string) (string, string) {
	open := strings.IndexByte(key, '[')
	if open < 0 || !strings.HasSuffix(key, "]") {
		return key, ""
	}
	return key[:open], key[open+1 : len(key)-1]
}

func positiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
