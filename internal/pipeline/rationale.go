package pipeline

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"spendsense/internal/domain"
)

var placeholderPattern = regexp.MustCompile(`\{([a-z_0-9]+)\}`)

// GuardrailConfig holds the phrase lists the renderer validates against.
// The denylist is authoritative: a no-shaming hit excludes the item
// outright, while a tone miss only substitutes the fallback phrasing.
type GuardrailConfig struct {
	Denylist         []string
	TonePatterns     []string
	FallbackTemplate string
}

// RenderResult is the outcome of rendering one catalog item. Failed is
// true when a placeholder could not be substituted or the no-shaming
// gate rejected the text; such items are excluded entirely.
type RenderResult struct {
	Text         string
	Refs         []domain.SignalRef
	NoShaming    bool
	ToneCheck    bool
	UsedFallback bool
	Failed       bool
	FailReason   string
}

// renderContext carries everything a placeholder may cite.
type renderContext struct {
	signals  domain.SignalSet
	accounts []*domain.Account
}

// Renderer substitutes template placeholders with concrete signal values
// and applies the tone and no-shaming guardrails. Rendering fails closed:
// a rationale that cannot cite a concrete data point is never surfaced
// with a silent default.
type Renderer struct {
	cfg    GuardrailConfig
	logger *slog.Logger
}

func NewRenderer(cfg GuardrailConfig, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{cfg: cfg, logger: logger}
}

func (r *Renderer) Render(item *domain.CatalogItem, signals domain.SignalSet, accounts []*domain.Account) RenderResult {
	rctx := renderContext{signals: signals, accounts: accounts}

	text, refs, err := r.substitute(item.RationaleTemplate, rctx)
	if err != nil {
		r.logger.Warn("Rationale rendering failed, item excluded",
			slog.String("catalog_item_id", item.ID),
			slog.String("error", err.Error()))
		return RenderResult{Failed: true, FailReason: err.Error()}
	}

	result := RenderResult{Text: text, Refs: refs, NoShaming: true, ToneCheck: true}

	if phrase, ok := r.findDenylisted(text); ok {
		r.logger.Warn("Rendered rationale violates no-shaming guardrail",
			slog.String("catalog_item_id", item.ID),
			slog.String("phrase", phrase))
		result.NoShaming = false
		result.Failed = true
		result.FailReason = "denylisted phrase: " + phrase
		return result
	}

	if !r.matchesTone(text) {
		fallback, fbRefs, err := r.substitute(r.cfg.FallbackTemplate, rctx)
		if err != nil || !r.passesDenylist(fallback) {
			result.ToneCheck = false
			result.Failed = true
			result.FailReason = "tone fallback unavailable"
			return result
		}
		fallback = strings.ReplaceAll(fallback, "{title}", item.Title)
		result.Text = fallback
		result.Refs = fbRefs
		result.ToneCheck = false
		result.UsedFallback = true
	}

	return result
}

func (r *Renderer) substitute(template string, rctx renderContext) (string, []domain.SignalRef, error) {
	var refs []domain.SignalRef
	var missing []string

	text := placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := strings.Trim(match, "{}")
		if name == "title" {
			// Resolved by the caller for fallbacks.
			return match
		}
		resolver, known := placeholderResolvers[name]
		if !known {
			missing = append(missing, name)
			return match
		}
		value, valueRefs, ok := resolver(rctx)
		if !ok {
			missing = append(missing, name)
			return match
		}
		refs = append(refs, valueRefs...)
		return value
	})

	if len(missing) > 0 {
		sort.Strings(missing)
		return "", nil, fmt.Errorf("unresolved placeholders: %s", strings.Join(missing, ", "))
	}
	return text, refs, nil
}

func (r *Renderer) findDenylisted(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, phrase := range r.cfg.Denylist {
		if strings.Contains(lower, strings.ToLower(phrase)) {
			return phrase, true
		}
	}
	return "", false
}

func (r *Renderer) passesDenylist(text string) bool {
	_, hit := r.findDenylisted(text)
	return !hit
}

func (r *Renderer) matchesTone(text string) bool {
	lower := strings.ToLower(text)
	for _, pattern := range r.cfg.TonePatterns {
		if strings.Contains(lower, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// placeholderResolver maps one placeholder to a concrete formatted value
// plus the signals it consulted. ok is false when the underlying signal
// is absent or undefined, which fails the whole rendering closed.
type placeholderResolver func(renderContext) (string, []domain.SignalRef, bool)

var placeholderResolvers = map[string]placeholderResolver{
	"utilization": func(rctx renderContext) (string, []domain.SignalRef, bool) {
		v, ok := rctx.signals.Number("credit_utilization_max")
		if !ok {
			return "", nil, false
		}
		return fmt.Sprintf("%.0f%%", v*100), []domain.SignalRef{signalRef(rctx.signals, "credit_utilization_max", "")}, true
	},
	"card_name": func(rctx renderContext) (string, []domain.SignalRef, bool) {
		acc, ok := highestUtilizationCard(rctx)
		if !ok {
			return "", nil, false
		}
		name := "credit_utilization_" + acc.ID
		var refs []domain.SignalRef
		if _, present := rctx.signals[name]; present {
			refs = append(refs, signalRef(rctx.signals, name, ""))
		}
		return acc.MaskedName(), refs, true
	},
	"subscription_count": func(rctx renderContext) (string, []domain.SignalRef, bool) {
		v, ok := rctx.signals.Number("recurring_merchant_count")
		if !ok {
			return "", nil, false
		}
		return fmt.Sprintf("%.0f", v), []domain.SignalRef{signalRef(rctx.signals, "recurring_merchant_count", "")}, true
	},
	"monthly_recurring_total": func(rctx renderContext) (string, []domain.SignalRef, bool) {
		v, ok := rctx.signals.Number("monthly_recurring_total")
		if !ok {
			return "", nil, false
		}
		return fmt.Sprintf("$%.2f", v), []domain.SignalRef{signalRef(rctx.signals, "monthly_recurring_total", "")}, true
	},
	"subscription_share": func(rctx renderContext) (string, []domain.SignalRef, bool) {
		v, ok := rctx.signals.Number("subscription_share")
		if !ok {
			return "", nil, false
		}
		return fmt.Sprintf("%.0f%%", v*100), []domain.SignalRef{signalRef(rctx.signals, "subscription_share", "")}, true
	},
	"coverage_months": func(rctx renderContext) (string, []domain.SignalRef, bool) {
		v, ok := rctx.signals.Number("coverage_months")
		if !ok {
			return "", nil, false
		}
		return fmt.Sprintf("%.1f", v), []domain.SignalRef{signalRef(rctx.signals, "coverage_months", "")}, true
	},
	"growth_rate": func(rctx renderContext) (string, []domain.SignalRef, bool) {
		v, ok := rctx.signals.Number("savings_growth_rate_90d")
		if !ok {
			return "", nil, false
		}
		return fmt.Sprintf("%.1f%%", v*100), []domain.SignalRef{signalRef(rctx.signals, "savings_growth_rate_90d", "")}, true
	},
	"cash_flow_buffer": func(rctx renderContext) (string, []domain.SignalRef, bool) {
		v, ok := rctx.signals.Number("cash_flow_buffer")
		if !ok {
			return "", nil, false
		}
		return fmt.Sprintf("%.1f months", v), []domain.SignalRef{signalRef(rctx.signals, "cash_flow_buffer", "")}, true
	},
	"net_inflow": func(rctx renderContext) (string, []domain.SignalRef, bool) {
		v, ok := rctx.signals.Number("savings_net_inflow")
		if !ok {
			return "", nil, false
		}
		return fmt.Sprintf("$%.2f", v), []domain.SignalRef{signalRef(rctx.signals, "savings_net_inflow", "")}, true
	},
}

// highestUtilizationCard picks the credit card the user would recognize
// as "the" card in a utilization rationale.
func highestUtilizationCard(rctx renderContext) (*domain.Account, bool) {
	var best *domain.Account
	bestUtil := -1.0
	for _, acc := range rctx.accounts {
		if !acc.IsCreditCard() {
			continue
		}
		util, _ := rctx.signals.Number("credit_utilization_" + acc.ID)
		if util > bestUtil {
			best, bestUtil = acc, util
		}
	}
	return best, best != nil
}
