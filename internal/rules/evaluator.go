// internal/rules/evaluator.go
package rules

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/campaignforge/minicrm-backend/internal/model"
)

// Matches evaluates one rule against one customer.
//
// Type mismatches fail closed: an unknown field, an unknown operator, or a
// numeric comparison over a non-numeric value evaluates to false instead of
// raising, so one malformed rule degrades the match set rather than aborting
// the whole audience resolution. Callers that want strictness validate rule
// shape before submission.
func Matches(c *model.Customer, r model.Rule) bool {
	val, ok := fieldValue(c, r.Field)
	if !ok {
		return false
	}

	switch r.Operator {
	case model.OpEquals:
		eq, ok := equal(val, r.Value)
		return ok && eq
	case model.OpNotEquals:
		eq, ok := equal(val, r.Value)
		return ok && !eq
	case model.OpGreaterThan:
		a, okA := toFloat(val)
		b, okB := toFloat(r.Value)
		return okA && okB && a > b
	case model.OpLessThan:
		a, okA := toFloat(val)
		b, okB := toFloat(r.Value)
		return okA && okB && a < b
	case model.OpContains:
		s, okS := toString(val)
		sub, okSub := toString(r.Value)
		return okS && okSub && strings.Contains(strings.ToLower(s), strings.ToLower(sub))
	}
	return false
}

// fieldValue maps a rule field name onto the customer attribute bag.
func fieldValue(c *model.Customer, field string) (any, bool) {
	switch field {
	case "age":
		return c.Age, true
	case "city", "location":
		return c.City, true
	case "spend", "total_spend":
		return c.TotalSpend, true
	case "visits":
		return c.Visits, true
	case "email":
		return c.Email, true
	case "phone":
		return c.Phone, true
	case "first_name":
		return c.FirstName, true
	case "last_name":
		return c.LastName, true
	case "days_inactive":
		if c.LastActiveAt == nil {
			return nil, false
		}
		return int(time.Since(*c.LastActiveAt).Hours() / 24), true
	}
	return nil, false
}

// equal compares numerically when both sides coerce to numbers, otherwise as
// strings. The second return reports whether either comparison applied: a
// value that coerces to neither (nil, a JSON object or array) is incomparable,
// and both equals and notEquals fail closed on it rather than letting a
// negation match the whole population.
func equal(a, b any) (bool, bool) {
	fa, okA := toFloat(a)
	fb, okB := toFloat(b)
	if okA && okB {
		return fa == fb, true
	}
	sa, okA := toString(a)
	sb, okB := toString(b)
	if okA && okB {
		return sa == sb, true
	}
	return false, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

func toString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case int:
		return strconv.Itoa(s), true
	}
	return "", false
}
