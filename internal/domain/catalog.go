package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type ItemType string

const (
	ItemEducation ItemType = "education"
	ItemOffer     ItemType = "offer"
)

// CatalogItem is a static, externally supplied education article or
// partner offer. Catalogs are immutable snapshots for the duration of a
// run and may be shared across concurrent per-user runs.
type CatalogItem struct {
	ID                 string           `json:"id"`
	Type               ItemType         `json:"type"`
	Title              string           `json:"title"`
	Category           string           `json:"category"`
	ApplicablePersonas []Persona        `json:"applicable_personas"`
	TriggerSignals     []string         `json:"trigger_signal_names,omitempty"`
	RationaleTemplate  string           `json:"rationale_template"`
	Eligibility        *Predicate       `json:"eligibility_predicate,omitempty"`
	MinMonthlyIncome   *decimal.Decimal `json:"min_monthly_income,omitempty"`
	ProductID          string           `json:"product_id,omitempty"`
	Priority           int              `json:"priority"`
}

func (item *CatalogItem) AppliesTo(persona Persona) bool {
	for _, p := range item.ApplicablePersonas {
		if p == persona {
			return true
		}
	}
	return false
}

type PredicateOp string

const (
	OpAnd     PredicateOp = "and"
	OpOr      PredicateOp = "or"
	OpCompare PredicateOp = "cmp"
)

// Predicate is a declarative AND/OR tree over signal comparisons. It is
// plain data rather than executable code so it can be serialized verbatim
// into a decision trace and evaluated deterministically without capturing
// ambient state.
type Predicate struct {
	Op       PredicateOp  `json:"op"`
	Children []*Predicate `json:"children,omitempty"`

	// Comparison leaves only.
	Signal   string  `json:"signal,omitempty"`
	Operator string  `json:"operator,omitempty"` // ">=", ">", "<=", "<", "=="
	Value    float64 `json:"value,omitempty"`
	FlagIs   *bool   `json:"flag_is,omitempty"`
}

func And(children ...*Predicate) *Predicate {
	return &Predicate{Op: OpAnd, Children: children}
}

func Or(children ...*Predicate) *Predicate {
	return &Predicate{Op: OpOr, Children: children}
}

func Compare(signal, operator string, value float64) *Predicate {
	return &Predicate{Op: OpCompare, Signal: signal, Operator: operator, Value: value}
}

func FlagIs(signal string, want bool) *Predicate {
	return &Predicate{Op: OpCompare, Signal: signal, FlagIs: &want}
}

// Describe renders the predicate as a human-readable condition, used when
// naming the unmet requirement on a requirements-not-met offer.
func (p *Predicate) Describe() string {
	switch p.Op {
	case OpAnd, OpOr:
		joiner := " AND "
		if p.Op == OpOr {
			joiner = " OR "
		}
		out := ""
		for i, child := range p.Children {
			if i > 0 {
				out += joiner
			}
			out += child.Describe()
		}
		return "(" + out + ")"
	default:
		if p.FlagIs != nil {
			return fmt.Sprintf("%s = %t", p.Signal, *p.FlagIs)
		}
		return fmt.Sprintf("%s %s %g", p.Signal, p.Operator, p.Value)
	}
}
