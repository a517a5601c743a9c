package postgres

import (
	"strconv"
	"strings"
)

// where accumulates AND-ed predicates with positional arguments.
type where struct {
	conds []string
	args  []any
}

// add appends cond, replacing each "?" with the next placeholder bound to the
// matching value in vals.
func (w *where) add(cond string, vals ...any) {
	var b strings.Builder
	i := 0
	for _, ch := range cond {
		if ch == '?' && i < len(vals) {
			w.args = append(w.args, vals[i])
			i++
			b.WriteString("$" + strconv.Itoa(len(w.args)))
			continue
		}
		b.WriteRune(ch)
	}
	w.conds = append(w.conds, b.String())
}

// next binds v and returns its placeholder.
func (w *where) next(v any) string {
	w.args = append(w.args, v)
	return "$" + strconv.Itoa(len(w.args))
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func (w *where) limitOffset(limit, offset int) string {
	var s string
	if limit > 0 {
		s += " LIMIT " + w.next(limit)
	}
	if offset > 0 {
		s += " OFFSET " + w.next(offset)
	}
	return s
}

func toStrings[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}
