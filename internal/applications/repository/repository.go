package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"loan_portal_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ── Domain Models ─────────────────────────────────────────────────────────────

// Application is the database model for an evaluated loan application.
type Application struct {
	ID                uuid.UUID `db:"id"`
	Dependents        int       `db:"no_of_dependents"`
	Education         string    `db:"education"`
	SelfEmployed      string    `db:"self_employed"`
	AnnualIncome      float64   `db:"income_annum"`
	LoanAmount        float64   `db:"loan_amount"`
	LoanTermYears     float64   `db:"loan_term"`
	CreditScore       float64   `db:"cibil_score"`
	ResidentialAssets float64   `db:"residential_assets_value"`
	CommercialAssets  float64   `db:"commercial_assets_value"`
	LuxuryAssets      float64   `db:"luxury_assets_value"`
	BankAssets        float64   `db:"bank_asset_value"`
	Status            string    `db:"status"`
	Confidence        float64   `db:"confidence"`
	ModelVersion      string    `db:"model_version"`
	FromCache         bool      `db:"from_cache"`
	CreatedAt         time.Time `db:"created_at"`
}

// ListParams contains parameters for listing evaluated applications.
type ListParams struct {
	Status   *string
	Page     int
	PageSize int
}

// ListResult contains the paginated result of listing applications.
type ListResult struct {
	Items      []Application
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// DecisionStats aggregates decisions inside a time window.
type DecisionStats struct {
	Total         int64
	Approved      int64
	Rejected      int64
	AvgConfidence float64
	FlaggedCount  int64
}

// ApplicationsRepository defines the persistence operations the service
// depends on.
type ApplicationsRepository interface {
	Create(ctx context.Context, app *Application) error
	GetByID(ctx context.Context, id uuid.UUID) (*Application, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Stats(ctx context.Context, since time.Time, reviewThreshold float64) (*DecisionStats, error)
}

// ── Repository ────────────────────────────────────────────────────────────────

const applicationNotFoundMsg = "application not found"

// Repository provides database operations for loan applications.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new applications repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts an evaluated application.
func (r *Repository) Create(ctx context.Context, app *Application) error {
	query := `
		INSERT INTO loan_applications (
			id, no_of_dependents, education, self_employed,
			income_annum, loan_amount, loan_term, cibil_score,
			residential_assets_value, commercial_assets_value, luxury_assets_value, bank_asset_value,
			status, confidence, model_version, from_cache, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	if _, err := r.pool.Exec(ctx, query,
		app.ID, app.Dependents, app.Education, app.SelfEmployed,
		app.AnnualIncome, app.LoanAmount, app.LoanTermYears, app.CreditScore,
		app.ResidentialAssets, app.CommercialAssets, app.LuxuryAssets, app.BankAssets,
		app.Status, app.Confidence, app.ModelVersion, app.FromCache, app.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert application: %w", err)
	}
	return nil
}

// GetByID fetches one evaluated application.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Application, error) {
	query := `
		SELECT id, no_of_dependents, education, self_employed,
			income_annum, loan_amount, loan_term, cibil_score,
			residential_assets_value, commercial_assets_value, luxury_assets_value, bank_asset_value,
			status, confidence, model_version, from_cache, created_at
		FROM loan_applications
		WHERE id = $1`

	var app Application
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&app.ID, &app.Dependents, &app.Education, &app.SelfEmployed,
		&app.AnnualIncome, &app.LoanAmount, &app.LoanTermYears, &app.CreditScore,
		&app.ResidentialAssets, &app.CommercialAssets, &app.LuxuryAssets, &app.BankAssets,
		&app.Status, &app.Confidence, &app.ModelVersion, &app.FromCache, &app.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(applicationNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return &app, nil
}

// List returns a page of evaluated applications, newest first.
func (r *Repository) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}

	where := ""
	args := []any{}
	if params.Status != nil {
		where = "WHERE status = $1"
		args = append(args, *params.Status)
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM loan_applications " + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count applications: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	listQuery := fmt.Sprintf(`
		SELECT id, no_of_dependents, education, self_employed,
			income_annum, loan_amount, loan_term, cibil_score,
			residential_assets_value, commercial_assets_value, luxury_assets_value, bank_asset_value,
			status, confidence, model_version, from_cache, created_at
		FROM loan_applications
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	items := []Application{}
	for rows.Next() {
		var app Application
		if err := rows.Scan(
			&app.ID, &app.Dependents, &app.Education, &app.SelfEmployed,
			&app.AnnualIncome, &app.LoanAmount, &app.LoanTermYears, &app.CreditScore,
			&app.ResidentialAssets, &app.CommercialAssets, &app.LuxuryAssets, &app.BankAssets,
			&app.Status, &app.Confidence, &app.ModelVersion, &app.FromCache, &app.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		items = append(items, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read applications: %w", err)
	}

	totalPages := (total + params.PageSize - 1) / params.PageSize
	return &ListResult{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages,
	}, nil
}

// Stats aggregates decisions created at or after since. FlaggedCount uses
// the review threshold the notification module flags with, so digest numbers
// match the review emails.
func (r *Repository) Stats(ctx context.Context, since time.Time, reviewThreshold float64) (*DecisionStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'Approved'),
			COUNT(*) FILTER (WHERE status = 'Rejected'),
			COALESCE(AVG(confidence), 0),
			COUNT(*) FILTER (WHERE confidence < $2)
		FROM loan_applications
		WHERE created_at >= $1`

	var stats DecisionStats
	if err := r.pool.QueryRow(ctx, query, since, reviewThreshold).Scan(
		&stats.Total, &stats.Approved, &stats.Rejected, &stats.AvgConfidence, &stats.FlaggedCount,
	); err != nil {
		return nil, fmt.Errorf("failed to aggregate decisions: %w", err)
	}
	return &stats, nil
}

var _ ApplicationsRepository = (*Repository)(nil)
