package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"spendsense/internal/domain"
	"spendsense/internal/pipeline"
	"spendsense/internal/repository"
	"spendsense/pkg/metrics"
)

// InsightService coordinates one user's refresh: it materializes the
// pipeline input from the feeds, runs the pipeline, persists the bundle
// and fans out stage events. The pipeline itself stays free of I/O.
type InsightService struct {
	pipeline     *pipeline.Pipeline
	transactions repository.TransactionFeed
	accounts     repository.AccountFeed
	profiles     repository.ProfileFeed
	bundles      repository.BundleStore
	events       *EventService
	metrics      *metrics.MetricsCollector
	logger       *slog.Logger
}

func NewInsightService(
	p *pipeline.Pipeline,
	transactions repository.TransactionFeed,
	accounts repository.AccountFeed,
	profiles repository.ProfileFeed,
	bundles repository.BundleStore,
	events *EventService,
	collector *metrics.MetricsCollector,
	logger *slog.Logger,
) *InsightService {
	if logger == nil {
		logger = slog.Default()
	}
	return &InsightService{
		pipeline:     p,
		transactions: transactions,
		accounts:     accounts,
		profiles:     profiles,
		bundles:      bundles,
		events:       events,
		metrics:      collector,
		logger:       logger,
	}
}

// Refresh runs the full pipeline for one user as of the given instant
// and publishes the resulting bundle. On failure nothing is stored and
// the previously published bundle, if any, remains current.
func (s *InsightService) Refresh(ctx context.Context, userID string, asOf time.Time) (*domain.InsightBundle, error) {
	startTime := time.Now()

	input, err := s.materializeInput(ctx, userID, asOf)
	if err != nil {
		return nil, err
	}

	bundle, err := s.pipeline.Run(ctx, input)
	duration := time.Since(startTime)

	if err != nil {
		reason := pipeline.ReasonInternal
		var runErr *pipeline.RunError
		if errors.As(err, &runErr) {
			reason = runErr.Code
		}
		s.metrics.RecordRun(duration, 0, err, reason)
		if emitErr := s.events.EmitRunFailed(ctx, userID, reason); emitErr != nil {
			s.logger.Warn("Failed to emit run failure event",
				slog.String("user_id", userID),
				slog.String("error", emitErr.Error()))
		}
		return nil, err
	}

	if err := s.bundles.Save(ctx, bundle); err != nil {
		s.metrics.RecordRun(duration, 0, err, pipeline.ReasonInternal)
		return nil, fmt.Errorf("storing insight bundle: %w", err)
	}

	s.metrics.RecordRun(duration, len(bundle.Recommendations), nil, "")
	for _, assignment := range bundle.Personas {
		s.metrics.RecordPersona(string(assignment.Persona), assignment.Window.Label())
	}
	for _, rejected := range bundle.Rejected {
		s.metrics.RecordGuardrailRejection(string(rejected.Reason))
	}
	for _, set := range bundle.Signals {
		s.metrics.RecordDataQualityFlags(len(set.UndefinedFlags()))
	}

	if err := s.events.EmitRunCompleted(ctx, bundle); err != nil {
		s.logger.Warn("Failed to emit stage events",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
	}

	return bundle, nil
}

// Bundle returns the most recently published bundle for a user.
func (s *InsightService) Bundle(ctx context.Context, userID string) (*domain.InsightBundle, error) {
	return s.bundles.GetByUserID(ctx, userID)
}

// Trace returns the stored decision trace for one recommendation.
func (s *InsightService) Trace(ctx context.Context, recommendationID string) (*domain.DecisionTrace, error) {
	return s.bundles.GetTrace(ctx, recommendationID)
}

func (s *InsightService) materializeInput(ctx context.Context, userID string, asOf time.Time) (pipeline.Input, error) {
	transactions, err := s.transactions.GetByUserID(ctx, userID)
	if err != nil {
		return pipeline.Input{}, fmt.Errorf("loading transactions: %w", err)
	}
	accounts, err := s.accounts.GetByUserID(ctx, userID)
	if err != nil {
		return pipeline.Input{}, fmt.Errorf("loading accounts: %w", err)
	}
	heldProducts, err := s.profiles.HeldProducts(ctx, userID)
	if err != nil {
		return pipeline.Input{}, fmt.Errorf("loading held products: %w", err)
	}
	employerName, err := s.profiles.EmployerName(ctx, userID)
	if err != nil {
		return pipeline.Input{}, fmt.Errorf("loading employer name: %w", err)
	}

	return pipeline.Input{
		UserID:       userID,
		AsOf:         asOf,
		Transactions: transactions,
		Accounts:     accounts,
		HeldProducts: heldProducts,
		EmployerName: employerName,
	}, nil
}
