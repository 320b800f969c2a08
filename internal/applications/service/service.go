package service

import (
	"context"
	"errors"
	"time"

	"loan_portal_backend/internal/applications/cache"
	"loan_portal_backend/internal/applications/repository"
	"loan_portal_backend/internal/applications/transport"
	"loan_portal_backend/internal/events"
	"loan_portal_backend/internal/inference"
	"loan_portal_backend/platform/apperr"
	"loan_portal_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	inferenceUnavailableMsg = "inference is unavailable: model artifacts are not loaded"
	statsWindowHours        = 24
)

// Service evaluates loan applications and serves the stored decisions. The
// pipeline may be nil when the model artifacts failed to load; evaluation
// then reports unavailable while the rest of the API keeps working.
type Service struct {
	repo            repository.ApplicationsRepository
	pipeline        *inference.Pipeline
	cache           *cache.DecisionCache
	bus             events.Bus
	log             *logger.Logger
	reviewThreshold float64
}

// New creates the applications service.
func New(repo repository.ApplicationsRepository, pipeline *inference.Pipeline, decisionCache *cache.DecisionCache, bus events.Bus, log *logger.Logger, reviewThreshold float64) *Service {
	return &Service{
		repo:            repo,
		pipeline:        pipeline,
		cache:           decisionCache,
		bus:             bus,
		log:             log,
		reviewThreshold: reviewThreshold,
	}
}

// Available reports whether the inference pipeline is loaded.
func (s *Service) Available() bool {
	return s.pipeline != nil
}

// ModelVersion identifies the loaded model, or empty when unavailable.
func (s *Service) ModelVersion() string {
	if s.pipeline == nil {
		return ""
	}
	return s.pipeline.ModelVersion()
}

// Evaluate runs one application through the pipeline, stores the decision
// and publishes it. Identical feature vectors under the same model are
// served from the decision cache when one is configured.
func (s *Service) Evaluate(ctx context.Context, req transport.EvaluateApplicationRequest) (*transport.PredictionResponse, error) {
	if s.pipeline == nil {
		s.log.PredictionFailed("pipeline_unavailable", nil)
		return nil, apperr.Unavailable(inferenceUnavailableMsg)
	}

	profile, err := s.resolveProfile(req)
	if err != nil {
		return nil, err
	}

	features, err := s.pipeline.Encode(profile.Normalized())
	if err != nil {
		var unknown *inference.UnknownCategoryError
		if errors.As(err, &unknown) {
			s.log.PredictionFailed("unknown_category", err)
			return nil, apperr.Wrap(apperr.KindUnprocessable, "value not known to the model", err).
				WithDetails(map[string]string{"field": unknown.Field, "value": unknown.Value})
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to encode application", err)
	}

	key := cache.Key(s.pipeline.ModelVersion(), features)
	result, fromCache := s.lookupDecision(ctx, key)
	if !fromCache {
		result, err = s.pipeline.Infer(features)
		if err != nil {
			s.log.PredictionFailed("inference_error", err)
			return nil, apperr.Wrap(apperr.KindInternal, "inference failed", err)
		}
	}

	app := &repository.Application{
		ID:                uuid.New(),
		Dependents:        profile.Dependents,
		Education:         profile.Normalized().Education,
		SelfEmployed:      profile.Normalized().SelfEmployed,
		AnnualIncome:      profile.AnnualIncome,
		LoanAmount:        profile.LoanAmount,
		LoanTermYears:     profile.LoanTermYears,
		CreditScore:       profile.CreditScore,
		ResidentialAssets: profile.ResidentialAssets,
		CommercialAssets:  profile.CommercialAssets,
		LuxuryAssets:      profile.LuxuryAssets,
		BankAssets:        profile.BankAssets,
		Status:            result.Status,
		Confidence:        result.Confidence,
		ModelVersion:      result.ModelVersion,
		FromCache:         fromCache,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, app); err != nil {
		s.log.DatabaseError("applications.create", err)
		return nil, apperr.Wrap(apperr.KindInternal, "failed to store decision", err)
	}

	if !fromCache {
		s.cache.Set(ctx, key, &cache.CachedDecision{
			Status:        result.Status,
			Confidence:    result.Confidence,
			Probabilities: result.Probabilities,
			ModelVersion:  result.ModelVersion,
		})
	}

	s.bus.Publish(ctx, events.ApplicationEvaluated{
		BaseEvent:     events.NewBaseEvent(),
		ApplicationID: app.ID,
		Status:        app.Status,
		Confidence:    app.Confidence,
		ModelVersion:  app.ModelVersion,
		FromCache:     fromCache,
	})
	s.log.PredictionEvent(app.ID.String(), app.Status, app.Confidence, fromCache)

	return &transport.PredictionResponse{
		ID:            app.ID,
		Status:        result.Status,
		Confidence:    result.Confidence,
		Probabilities: result.Probabilities,
		ModelVersion:  result.ModelVersion,
		FromCache:     fromCache,
		EvaluatedAt:   app.CreatedAt,
	}, nil
}

// GetByID fetches one stored application.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*transport.ApplicationResponse, error) {
	app, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := transport.ToApplicationResponse(app)
	return &resp, nil
}

// List returns a page of stored applications.
func (s *Service) List(ctx context.Context, req transport.ListApplicationsRequest) (*transport.ListApplicationsResponse, error) {
	params := repository.ListParams{Page: req.Page, PageSize: req.PageSize}
	if req.Status != "" {
		params.Status = &req.Status
	}

	result, err := s.repo.List(ctx, params)
	if err != nil {
		s.log.DatabaseError("applications.list", err)
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list applications", err)
	}

	items := make([]transport.ApplicationResponse, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, transport.ToApplicationResponse(&result.Items[i]))
	}
	return &transport.ListApplicationsResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}, nil
}

// Stats aggregates the last day of decisions.
func (s *Service) Stats(ctx context.Context) (*transport.StatsResponse, error) {
	since := time.Now().UTC().Add(-statsWindowHours * time.Hour)
	stats, err := s.repo.Stats(ctx, since, s.reviewThreshold)
	if err != nil {
		s.log.DatabaseError("applications.stats", err)
		return nil, apperr.Wrap(apperr.KindInternal, "failed to aggregate decisions", err)
	}
	return &transport.StatsResponse{
		Total:         stats.Total,
		Approved:      stats.Approved,
		Rejected:      stats.Rejected,
		AvgConfidence: stats.AvgConfidence,
		FlaggedCount:  stats.FlaggedCount,
		WindowHours:   statsWindowHours,
	}, nil
}

// resolveProfile turns the request into a canonical profile. String values
// take precedence over toggle positions; one of the two must be present per
// categorical field.
func (s *Service) resolveProfile(req transport.EvaluateApplicationRequest) (inference.Profile, error) {
	education := req.Education
	if education == "" {
		if req.EducationToggle == nil {
			return inference.Profile{}, apperr.Validation("education or educationToggle is required")
		}
		var err error
		education, err = inference.EducationFromToggle(*req.EducationToggle)
		if err != nil {
			return inference.Profile{}, apperr.Wrap(apperr.KindValidation, "invalid educationToggle", err)
		}
	}

	selfEmployed := req.SelfEmployed
	if selfEmployed == "" {
		if req.SelfEmployedToggle == nil {
			return inference.Profile{}, apperr.Validation("selfEmployed or selfEmployedToggle is required")
		}
		var err error
		selfEmployed, err = inference.SelfEmployedFromToggle(*req.SelfEmployedToggle)
		if err != nil {
			return inference.Profile{}, apperr.Wrap(apperr.KindValidation, "invalid selfEmployedToggle", err)
		}
	}

	return inference.Profile{
		Dependents:        req.Dependents,
		Education:         education,
		SelfEmployed:      selfEmployed,
		AnnualIncome:      req.AnnualIncome,
		LoanAmount:        req.LoanAmount,
		LoanTermYears:     req.LoanTermYears,
		CreditScore:       req.CreditScore,
		ResidentialAssets: req.ResidentialAssets,
		CommercialAssets:  req.CommercialAssets,
		LuxuryAssets:      req.LuxuryAssets,
		BankAssets:        req.BankAssets,
	}, nil
}

func (s *Service) lookupDecision(ctx context.Context, key string) (*inference.Result, bool) {
	cached := s.cache.Get(ctx, key)
	if cached == nil {
		return nil, false
	}
	return &inference.Result{
		Status:        cached.Status,
		Confidence:    cached.Confidence,
		Probabilities: cached.Probabilities,
		ModelVersion:  cached.ModelVersion,
	}, true
}
