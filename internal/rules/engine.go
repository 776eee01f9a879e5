// internal/rules/engine.go
package rules

import (
	"github.com/campaignforge/minicrm-backend/internal/model"

	appErrors "github.com/campaignforge/minicrm-backend/internal/errors"
)

// Expr is a boolean combination of predicates over a customer.
//
// The API accepts a flat rule list plus one conjunction, which compiles to a
// one-level Group; nested groups are supported by the evaluator so the wire
// format can grow without touching resolution.
type Expr interface {
	Eval(c *model.Customer) bool
}

// Predicate is a leaf: a single rule.
type Predicate struct {
	Rule model.Rule
}

func (p Predicate) Eval(c *model.Customer) bool {
	return Matches(c, p.Rule)
}

// Group combines child expressions with a single conjunction.
type Group struct {
	Conjunction model.Conjunction
	Children    []Expr
}

func (g Group) Eval(c *model.Customer) bool {
	if g.Conjunction == model.ConjunctionOr {
		for _, child := range g.Children {
			if child.Eval(c) {
				return true
			}
		}
		return false
	}
	// AND is the default for any other conjunction value.
	for _, child := range g.Children {
		if !child.Eval(c) {
			return false
		}
	}
	return true
}

// FromRuleSet compiles the flat {rules, conjunction} wire shape into an Expr.
// An empty rule set is a caller error: a campaign cannot be previewed or
// created with zero rules.
func FromRuleSet(ruleList []model.Rule, conj model.Conjunction) (Expr, error) {
	if len(ruleList) == 0 {
		return nil, appErrors.ErrEmptyRuleSet
	}
	children := make([]Expr, 0, len(ruleList))
	for _, r := range ruleList {
		children = append(children, Predicate{Rule: r})
	}
	return Group{Conjunction: conj, Children: children}, nil
}

// CustomerSource yields the current customer population.
type CustomerSource interface {
	ListAll() ([]model.Customer, error)
}

// Engine resolves audiences against the live customer population.
type Engine struct {
	Customers CustomerSource
}

func NewEngine(customers CustomerSource) *Engine {
	return &Engine{Customers: customers}
}

// ResolveAudience filters the entire current population through the
// expression. No caching: two calls separated in time may legitimately
// diverge, once for preview and once for creation.
func (e *Engine) ResolveAudience(expr Expr) ([]model.Customer, error) {
	population, err := e.Customers.ListAll()
	if err != nil {
		return nil, err
	}
	audience := []model.Customer{}
	for i := range population {
		if expr.Eval(&population[i]) {
			audience = append(audience, population[i])
		}
	}
	return audience, nil
}
