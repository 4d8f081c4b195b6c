package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"spendsense/internal/catalog"
	"spendsense/internal/domain"
	"spendsense/pkg/crypto"
	"spendsense/pkg/validator"

	"github.com/google/uuid"
)

// Run failure reason codes surfaced to the caller.
const (
	ReasonIntegrityFailure = "integrity_failure"
	ReasonCancelled        = "cancelled"
	ReasonInternal         = "internal_error"
)

var ErrIntegrity = errors.New("input integrity failure")

// RunError is the single run-level failure the caller sees: a reason
// code plus the underlying cause. No partial bundle accompanies it.
type RunError struct {
	Code string
	Err  error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("pipeline run failed (%s): %v", e.Code, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

type Config struct {
	PrimaryWindow     domain.Window
	EducationMin      int
	EducationMax      int
	OfferCap          int
	BlockedCategories []string
	Guardrails        GuardrailConfig
}

func DefaultConfig() Config {
	return Config{
		PrimaryWindow:     domain.Window30,
		EducationMin:      3,
		EducationMax:      5,
		OfferCap:          3,
		BlockedCategories: []string{"payday_advance", "title_loan"},
		Guardrails: GuardrailConfig{
			Denylist: []string{
				"overspending",
				"bad with money",
				"irresponsible",
				"careless",
				"reckless",
				"wasteful",
				"you failed",
				"ashamed",
				"splurge",
			},
			TonePatterns: []string{
				"you can",
				"can help",
				"can ",
				"helps",
				"control",
				"build",
				"grow",
				"momentum",
				"opportunity",
				"easy",
				"simple",
				"reward",
				"earn",
				"reduce",
				"free up",
				"smooth",
				"stay on top",
				"start",
			},
			FallbackTemplate: "Based on your recent activity, \"{title}\" may be a helpful next step.",
		},
	}
}

// Input is everything a per-user run consumes, fully materialized before
// the pipeline begins. The pipeline performs no I/O of its own.
type Input struct {
	UserID       string
	AsOf         time.Time
	Transactions []*domain.Transaction
	Accounts     []*domain.Account
	HeldProducts []string
	EmployerName string
}

// Pipeline converts one user's transaction and account history into
// signals, persona assignments and recommendations with decision traces.
// It is stateless across runs; the catalog snapshot is read-only for the
// duration of a run and may be shared across concurrent runs.
type Pipeline struct {
	catalog   *catalog.Snapshot
	cfg       Config
	validator *validator.InputValidator
	renderer  *Renderer
	recorder  *TraceRecorder
	logger    *slog.Logger
}

func New(snapshot *catalog.Snapshot, cfg Config, signer *crypto.Signer, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		catalog:   snapshot,
		cfg:       cfg,
		validator: validator.NewInputValidator(),
		renderer:  NewRenderer(cfg.Guardrails, logger),
		recorder:  NewTraceRecorder(signer, logger),
		logger:    logger,
	}
}

// Run executes the full pipeline for one user. The output bundle is
// atomic: either every stage completes and a whole bundle is returned, or
// a RunError is returned and nothing is published. Identical inputs and
// as-of instant produce identical output.
func (p *Pipeline) Run(ctx context.Context, input Input) (*domain.InsightBundle, error) {
	asOf := input.AsOf.UTC()

	if err := p.validator.ValidateAccounts(input.Accounts); err != nil {
		return nil, &RunError{Code: ReasonIntegrityFailure, Err: fmt.Errorf("%w: %w", ErrIntegrity, err)}
	}
	if err := p.validator.ValidateTransactions(input.Transactions); err != nil {
		return nil, &RunError{Code: ReasonIntegrityFailure, Err: fmt.Errorf("%w: %w", ErrIntegrity, err)}
	}

	aggregates := make(map[domain.Window]*WindowAggregates, len(domain.Windows))
	for _, window := range domain.Windows {
		aggregates[window] = Aggregate(input.Transactions, asOf, window)
	}
	agg90 := aggregates[domain.Window90]

	if err := ctx.Err(); err != nil {
		return nil, &RunError{Code: ReasonCancelled, Err: err}
	}

	recurring := DetectRecurring(agg90)

	signals := make(map[domain.Window]domain.SignalSet, len(domain.Windows))
	for _, window := range domain.Windows {
		set, err := p.extractSignals(aggregates[window], agg90, recurring, input)
		if err != nil {
			return nil, &RunError{Code: ReasonInternal, Err: err}
		}
		signals[window] = set
	}

	if err := ctx.Err(); err != nil {
		return nil, &RunError{Code: ReasonCancelled, Err: err}
	}

	personas := make(map[domain.Window]domain.PersonaAssignment, len(domain.Windows))
	classifierRefs := make(map[domain.Window][]domain.SignalRef, len(domain.Windows))
	for _, window := range domain.Windows {
		assignment, refs := ClassifyPersona(input.UserID, window, signals[window], asOf)
		personas[window] = assignment
		classifierRefs[window] = refs
		p.logger.Info("Persona assigned",
			slog.String("user_id", input.UserID),
			slog.String("window", window.Label()),
			slog.String("persona", string(assignment.Persona)),
			slog.String("rule_id", assignment.MatchedRuleID))
	}

	if err := ctx.Err(); err != nil {
		return nil, &RunError{Code: ReasonCancelled, Err: err}
	}

	primary := p.cfg.PrimaryWindow
	primarySignals := signals[primary]
	primaryAssignment := personas[primary]

	heldProducts := make(map[string]struct{}, len(input.HeldProducts))
	for _, product := range input.HeldProducts {
		heldProducts[product] = struct{}{}
	}
	blocked := make(map[string]struct{}, len(p.cfg.BlockedCategories))
	for _, category := range p.cfg.BlockedCategories {
		blocked[category] = struct{}{}
	}

	selected := SelectEducation(p.catalog, primaryAssignment.Persona, p.cfg.EducationMin, p.cfg.EducationMax)
	selected = append(selected, SelectOffers(p.catalog, primaryAssignment.Persona, primarySignals, heldProducts, blocked, p.cfg.OfferCap)...)

	bundle := &domain.InsightBundle{
		UserID:        input.UserID,
		AsOf:          asOf,
		Signals:       signals,
		Personas:      personas,
		PrimaryWindow: primary,
	}

	rank := 0
	for _, sel := range selected {
		if err := ctx.Err(); err != nil {
			return nil, &RunError{Code: ReasonCancelled, Err: err}
		}

		render := p.renderer.Render(sel.Item, primarySignals, input.Accounts)
		if render.Failed {
			reason := domain.RejectRenderFailure
			if !render.NoShaming {
				reason = domain.RejectNoShaming
			}
			bundle.Rejected = append(bundle.Rejected, domain.RejectedItem{
				CatalogItemID: sel.Item.ID,
				Reason:        reason,
				Detail:        render.FailReason,
			})
			continue
		}

		rank++
		rec := domain.Recommendation{
			ID:             recommendationID(input.UserID, sel.Item.ID, asOf),
			UserID:         input.UserID,
			Type:           sel.Item.Type,
			CatalogItemID:  sel.Item.ID,
			Title:          sel.Item.Title,
			Rationale:      render.Text,
			Rank:           rank,
			Status:         sel.Status,
			UnmetCondition: sel.UnmetCondition,
		}

		var refs []domain.SignalRef
		refs = append(refs, classifierRefs[primary]...)
		refs = append(refs, sel.Refs...)
		refs = append(refs, render.Refs...)

		guardrails := domain.GuardrailResults{
			ToneCheck:        render.ToneCheck,
			NoShaming:        render.NoShaming,
			EligibilityCheck: sel.Status == domain.StatusEligible,
		}

		trace, err := p.recorder.Record(&rec, primaryAssignment, sel.Item, refs, guardrails, primarySignals, asOf)
		if err != nil {
			return nil, &RunError{Code: ReasonInternal, Err: err}
		}

		bundle.Recommendations = append(bundle.Recommendations, rec)
		bundle.Traces = append(bundle.Traces, trace)
	}

	p.logger.Info("Pipeline run complete",
		slog.String("user_id", input.UserID),
		slog.String("persona", string(primaryAssignment.Persona)),
		slog.Int("recommendations", len(bundle.Recommendations)),
		slog.Int("rejected", len(bundle.Rejected)))

	return bundle, nil
}

func (p *Pipeline) extractSignals(agg, agg90 *WindowAggregates, recurring []RecurringMerchant, input Input) (domain.SignalSet, error) {
	merged := domain.SignalSet{}

	partials := []domain.SignalSet{
		extractCreditSignals(agg, input.Accounts, p.logger),
		extractSubscriptionSignals(agg90, recurring, p.logger),
		extractSavingsSignals(agg, agg90, input.Accounts, p.logger),
		extractIncomeSignals(agg, agg90, input.Accounts, input.EmployerName, p.logger),
	}
	for _, partial := range partials {
		if err := merged.Merge(partial); err != nil {
			return nil, err
		}
	}

	if flags := merged.UndefinedFlags(); len(flags) > 0 {
		p.logger.Info("Data-quality fallbacks applied",
			slog.String("user_id", input.UserID),
			slog.String("window", agg.Window.Label()),
			slog.Any("flags", flags))
	}

	return merged, nil
}

// recommendationID derives a stable identifier so re-running the pipeline
// on identical inputs yields byte-identical output.
func recommendationID(userID, itemID string, asOf time.Time) string {
	seed := fmt.Sprintf("spendsense:recommendation:%s:%s:%d", userID, itemID, asOf.Unix())
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(seed)).String()
}
