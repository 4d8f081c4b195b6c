package pipeline

import (
	"fmt"
	"sort"

	"spendsense/internal/catalog"
	"spendsense/internal/domain"
)

// SelectedItem is a catalog item that passed selection, before rendering
// and guardrails. Offers whose requirements are not met are still
// selected, marked with the unmet condition, so transparency is shown
// even for non-matches.
type SelectedItem struct {
	Item           *domain.CatalogItem
	Status         domain.RecommendationStatus
	UnmetCondition string
	Refs           []domain.SignalRef
}

// SelectEducation filters the education catalog to the persona, ranks by
// catalog-declared priority, and caps the result. When fewer than min
// items apply, general-wellness items backfill so the surface is never
// empty for a matched user.
func SelectEducation(snapshot *catalog.Snapshot, persona domain.Persona, min, max int) []SelectedItem {
	matched := itemsForPersona(snapshot.Education, persona)

	if len(matched) < min && persona != domain.PersonaGeneralWellness {
		seen := make(map[string]struct{}, len(matched))
		for _, item := range matched {
			seen[item.ID] = struct{}{}
		}
		for _, item := range itemsForPersona(snapshot.Education, domain.PersonaGeneralWellness) {
			if _, dup := seen[item.ID]; !dup {
				matched = append(matched, item)
			}
		}
	}

	rankItems(matched)
	if len(matched) > max {
		matched = matched[:max]
	}

	selected := make([]SelectedItem, 0, len(matched))
	for _, item := range matched {
		selected = append(selected, SelectedItem{Item: item, Status: domain.StatusEligible})
	}
	return selected
}

// SelectOffers filters the offer catalog for the persona. Blocklisted
// categories are excluded absolutely, bypassing ranking entirely;
// already-held products are excluded; minimum-income and eligibility
// predicate failures mark the offer requirements_not_met instead of
// dropping it.
func SelectOffers(
	snapshot *catalog.Snapshot,
	persona domain.Persona,
	signals domain.SignalSet,
	heldProducts map[string]struct{},
	blockedCategories map[string]struct{},
	cap int,
) []SelectedItem {
	var candidates []*domain.CatalogItem
	for i := range snapshot.Offers {
		item := &snapshot.Offers[i]
		if _, blocked := blockedCategories[item.Category]; blocked {
			continue
		}
		if _, held := heldProducts[item.ProductID]; held {
			continue
		}
		if !item.AppliesTo(persona) {
			continue
		}
		candidates = append(candidates, item)
	}

	rankItems(candidates)
	if len(candidates) > cap {
		candidates = candidates[:cap]
	}

	selected := make([]SelectedItem, 0, len(candidates))
	for _, item := range candidates {
		selected = append(selected, evaluateOffer(item, signals))
	}
	return selected
}

func evaluateOffer(item *domain.CatalogItem, signals domain.SignalSet) SelectedItem {
	sel := SelectedItem{Item: item, Status: domain.StatusEligible}

	if item.MinMonthlyIncome != nil {
		required, _ := item.MinMonthlyIncome.Float64()
		condition := fmt.Sprintf("monthly_income >= %.0f", required)
		income, ok := signals.Number("monthly_income")
		if _, present := signals["monthly_income"]; present {
			sel.Refs = append(sel.Refs, signalRef(signals, "monthly_income", condition))
		}
		if !ok || income < required {
			sel.Status = domain.StatusRequirementsNotMet
			sel.UnmetCondition = condition
			return sel
		}
	}

	if item.Eligibility != nil {
		pass, refs, unmet := evaluatePredicate(item.Eligibility, signals)
		sel.Refs = append(sel.Refs, refs...)
		if !pass {
			sel.Status = domain.StatusRequirementsNotMet
			sel.UnmetCondition = unmet
		}
	}

	return sel
}

// evaluatePredicate walks the declarative AND/OR tree against the signal
// set. It returns the citations of every leaf consulted and, on failure,
// the description of the unmet condition. A signal marked undefined never
// satisfies a comparison.
func evaluatePredicate(p *domain.Predicate, signals domain.SignalSet) (bool, []domain.SignalRef, string) {
	switch p.Op {
	case domain.OpAnd:
		var refs []domain.SignalRef
		for _, child := range p.Children {
			pass, childRefs, unmet := evaluatePredicate(child, signals)
			refs = append(refs, childRefs...)
			if !pass {
				return false, refs, unmet
			}
		}
		return true, refs, ""
	case domain.OpOr:
		var refs []domain.SignalRef
		for _, child := range p.Children {
			pass, childRefs, _ := evaluatePredicate(child, signals)
			refs = append(refs, childRefs...)
			if pass {
				return true, refs, ""
			}
		}
		return false, refs, p.Describe()
	default:
		return evaluateComparison(p, signals)
	}
}

func evaluateComparison(p *domain.Predicate, signals domain.SignalSet) (bool, []domain.SignalRef, string) {
	// Only signals actually present may be cited; a trace must never
	// reference a value missing from the set that drove the run.
	var refs []domain.SignalRef
	if _, present := signals[p.Signal]; present {
		refs = append(refs, signalRef(signals, p.Signal, p.Describe()))
	}

	if p.FlagIs != nil {
		if signals.True(p.Signal) == *p.FlagIs {
			return true, refs, ""
		}
		return false, refs, p.Describe()
	}

	value, ok := signals.Number(p.Signal)
	if !ok {
		return false, refs, p.Describe()
	}

	var pass bool
	switch p.Operator {
	case ">":
		pass = value > p.Value
	case ">=":
		pass = value >= p.Value
	case "<":
		pass = value < p.Value
	case "<=":
		pass = value <= p.Value
	case "==":
		pass = value == p.Value
	}
	if !pass {
		return false, refs, p.Describe()
	}
	return true, refs, ""
}

func itemsForPersona(items []domain.CatalogItem, persona domain.Persona) []*domain.CatalogItem {
	var matched []*domain.CatalogItem
	for i := range items {
		if items[i].AppliesTo(persona) {
			matched = append(matched, &items[i])
		}
	}
	return matched
}

// rankItems orders by catalog priority ascending, breaking ties on ID so
// identical inputs always produce identical output order.
func rankItems(items []*domain.CatalogItem) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Priority != items[j].Priority {
			return items[i].Priority < items[j].Priority
		}
		return items[i].ID < items[j].ID
	})
}
