package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"loan_portal_backend/internal/applications/cache"
	"loan_portal_backend/internal/applications/repository"
	"loan_portal_backend/internal/applications/transport"
	"loan_portal_backend/internal/events"
	"loan_portal_backend/internal/inference"
	"loan_portal_backend/platform/apperr"
	"loan_portal_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// stubRepo records created applications in memory.
type stubRepo struct {
	mu      sync.Mutex
	created []repository.Application
	fail    bool
}

func (r *stubRepo) Create(ctx context.Context, app *repository.Application) error {
	if r.fail {
		return errors.New("insert failed")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, *app)
	return nil
}

func (r *stubRepo) GetByID(ctx context.Context, id uuid.UUID) (*repository.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.created {
		if r.created[i].ID == id {
			return &r.created[i], nil
		}
	}
	return nil, apperr.NotFound("application not found")
}

func (r *stubRepo) List(ctx context.Context, params repository.ListParams) (*repository.ListResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &repository.ListResult{
		Items:    r.created,
		Total:    len(r.created),
		Page:     1,
		PageSize: 20,
	}, nil
}

func (r *stubRepo) Stats(ctx context.Context, since time.Time, reviewThreshold float64) (*repository.DecisionStats, error) {
	return &repository.DecisionStats{}, nil
}

// captureBus records published events synchronously.
type captureBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *captureBus) Publish(ctx context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *captureBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *captureBus) Subscribe(eventName string, handler events.Handler) {}

func (b *captureBus) published() []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.events
}

func testService(t *testing.T, repo repository.ApplicationsRepository, decisionCache *cache.DecisionCache, bus events.Bus) *Service {
	t.Helper()
	arts, err := inference.LoadArtifacts("../../inference/testdata")
	if err != nil {
		t.Fatalf("LoadArtifacts: %v", err)
	}
	pipeline, err := inference.NewPipelineFromArtifacts(arts)
	if err != nil {
		t.Fatalf("NewPipelineFromArtifacts: %v", err)
	}
	return New(repo, pipeline, decisionCache, bus, logger.New("test"), 0.65)
}

func evaluateRequest() transport.EvaluateApplicationRequest {
	return transport.EvaluateApplicationRequest{
		Dependents:    2,
		Education:     "Graduate",
		SelfEmployed:  "No",
		AnnualIncome:  9_600_000,
		LoanAmount:    12_000_000,
		LoanTermYears: 12,
		CreditScore:   778,
	}
}

func TestEvaluateStoresAndPublishes(t *testing.T) {
	repo := &stubRepo{}
	bus := &captureBus{}
	svc := testService(t, repo, nil, bus)

	resp, err := svc.Evaluate(context.Background(), evaluateRequest())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if resp.Status != "Approved" {
		t.Errorf("status = %q, want Approved", resp.Status)
	}
	if resp.FromCache {
		t.Error("first evaluation reported as cached")
	}

	if len(repo.created) != 1 {
		t.Fatalf("stored %d applications, want 1", len(repo.created))
	}
	if repo.created[0].Status != resp.Status || repo.created[0].ID != resp.ID {
		t.Errorf("stored application diverges from response: %+v", repo.created[0])
	}

	published := bus.published()
	if len(published) != 1 {
		t.Fatalf("published %d events, want 1", len(published))
	}
	evt, ok := published[0].(events.ApplicationEvaluated)
	if !ok {
		t.Fatalf("published event is %T", published[0])
	}
	if evt.ApplicationID != resp.ID || evt.Status != resp.Status {
		t.Errorf("event diverges from response: %+v", evt)
	}
}

func TestEvaluateUnavailableWithoutPipeline(t *testing.T) {
	svc := New(&stubRepo{}, nil, nil, &captureBus{}, logger.New("test"), 0.65)

	_, err := svc.Evaluate(context.Background(), evaluateRequest())
	if apperr.GetKind(err) != apperr.KindUnavailable {
		t.Fatalf("error = %v, want unavailable", err)
	}
}

func TestEvaluateUnknownCategoryIsUnprocessable(t *testing.T) {
	svc := testService(t, &stubRepo{}, nil, &captureBus{})

	req := evaluateRequest()
	req.Education = "Postgraduate"
	_, err := svc.Evaluate(context.Background(), req)
	if apperr.GetKind(err) != apperr.KindUnprocessable {
		t.Fatalf("error = %v, want unprocessable", err)
	}
	var unknown *inference.UnknownCategoryError
	if !errors.As(err, &unknown) {
		t.Fatalf("cause not preserved: %v", err)
	}
}

func TestEvaluateRequiresCategoricalInput(t *testing.T) {
	svc := testService(t, &stubRepo{}, nil, &captureBus{})

	req := evaluateRequest()
	req.Education = ""
	req.EducationToggle = nil
	_, err := svc.Evaluate(context.Background(), req)
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("error = %v, want validation", err)
	}
}

func TestEvaluateAcceptsToggles(t *testing.T) {
	repo := &stubRepo{}
	svc := testService(t, repo, nil, &captureBus{})

	one := 1
	req := evaluateRequest()
	req.Education = ""
	req.EducationToggle = &one
	req.SelfEmployed = ""
	req.SelfEmployedToggle = &one

	if _, err := svc.Evaluate(context.Background(), req); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if repo.created[0].Education != inference.EducationNotGraduate {
		t.Errorf("education = %q, want %q", repo.created[0].Education, inference.EducationNotGraduate)
	}
	if repo.created[0].SelfEmployed != inference.SelfEmployedYes {
		t.Errorf("self employed = %q, want %q", repo.created[0].SelfEmployed, inference.SelfEmployedYes)
	}
}

func TestEvaluateServesRepeatsFromCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	decisionCache := cache.NewWithClient(client, time.Hour, logger.New("test"))

	repo := &stubRepo{}
	svc := testService(t, repo, decisionCache, &captureBus{})

	first, err := svc.Evaluate(context.Background(), evaluateRequest())
	if err != nil {
		t.Fatalf("first Evaluate: %v", err)
	}
	if first.FromCache {
		t.Error("first evaluation reported as cached")
	}

	second, err := svc.Evaluate(context.Background(), evaluateRequest())
	if err != nil {
		t.Fatalf("second Evaluate: %v", err)
	}
	if !second.FromCache {
		t.Error("repeat evaluation not served from cache")
	}
	if second.Status != first.Status || second.Confidence != first.Confidence {
		t.Errorf("cached decision diverged: %+v vs %+v", second, first)
	}

	// Both evaluations are stored, cached or not.
	if len(repo.created) != 2 {
		t.Errorf("stored %d applications, want 2", len(repo.created))
	}
}

func TestEvaluateDifferentVectorMissesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	decisionCache := cache.NewWithClient(client, time.Hour, logger.New("test"))

	svc := testService(t, &stubRepo{}, decisionCache, &captureBus{})

	if _, err := svc.Evaluate(context.Background(), evaluateRequest()); err != nil {
		t.Fatalf("first Evaluate: %v", err)
	}

	req := evaluateRequest()
	req.CreditScore = 779
	resp, err := svc.Evaluate(context.Background(), req)
	if err != nil {
		t.Fatalf("second Evaluate: %v", err)
	}
	if resp.FromCache {
		t.Error("different vector served from cache")
	}
}

func TestServiceReportsPipelineStatus(t *testing.T) {
	svc := testService(t, &stubRepo{}, nil, &captureBus{})
	if !svc.Available() {
		t.Error("loaded pipeline reported unavailable")
	}
	if svc.ModelVersion() != "rf-test-1" {
		t.Errorf("model version = %q", svc.ModelVersion())
	}

	noPipeline := New(&stubRepo{}, nil, nil, &captureBus{}, logger.New("test"), 0.65)
	if noPipeline.Available() {
		t.Error("nil pipeline reported available")
	}
	if noPipeline.ModelVersion() != "" {
		t.Errorf("nil pipeline model version = %q", noPipeline.ModelVersion())
	}
}
