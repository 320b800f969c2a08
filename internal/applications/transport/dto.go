package transport

import (
	"time"

	"loan_portal_backend/internal/applications/repository"

	"github.com/google/uuid"
)

// ── Requests ──────────────────────────────────────────────────────────────────

// EvaluateApplicationRequest carries one applicant profile. Categorical
// fields accept either the string value or a binary toggle position; when
// both are present the string wins.
type EvaluateApplicationRequest struct {
	Dependents         int     `json:"noOfDependents" validate:"min=0,max=20"`
	Education          string  `json:"education" validate:"required_without=EducationToggle,omitempty,max=64"`
	EducationToggle    *int    `json:"educationToggle" validate:"omitempty,oneof=0 1"`
	SelfEmployed       string  `json:"selfEmployed" validate:"required_without=SelfEmployedToggle,omitempty,max=64"`
	SelfEmployedToggle *int    `json:"selfEmployedToggle" validate:"omitempty,oneof=0 1"`
	AnnualIncome       float64 `json:"incomeAnnum" validate:"min=0"`
	LoanAmount         float64 `json:"loanAmount" validate:"required,gt=0"`
	LoanTermYears      float64 `json:"loanTermYears" validate:"required,min=1,max=30"`
	CreditScore        float64 `json:"creditScore" validate:"required,min=300,max=900"`
	ResidentialAssets  float64 `json:"residentialAssetsValue" validate:"min=0"`
	CommercialAssets   float64 `json:"commercialAssetsValue" validate:"min=0"`
	LuxuryAssets       float64 `json:"luxuryAssetsValue" validate:"min=0"`
	BankAssets         float64 `json:"bankAssetValue" validate:"min=0"`
}

// ListApplicationsRequest carries list filters from query parameters.
type ListApplicationsRequest struct {
	Status   string `form:"status" validate:"omitempty,oneof=Approved Rejected"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

// PredictionResponse is the public evaluation result.
type PredictionResponse struct {
	ID            uuid.UUID          `json:"id"`
	Status        string             `json:"status"`
	Confidence    float64            `json:"confidence"`
	Probabilities map[string]float64 `json:"probabilities"`
	ModelVersion  string             `json:"modelVersion"`
	FromCache     bool               `json:"fromCache"`
	EvaluatedAt   time.Time          `json:"evaluatedAt"`
}

// ApplicationResponse is the full stored application for review endpoints.
type ApplicationResponse struct {
	ID                uuid.UUID `json:"id"`
	Dependents        int       `json:"noOfDependents"`
	Education         string    `json:"education"`
	SelfEmployed      string    `json:"selfEmployed"`
	AnnualIncome      float64   `json:"incomeAnnum"`
	LoanAmount        float64   `json:"loanAmount"`
	LoanTermYears     float64   `json:"loanTermYears"`
	CreditScore       float64   `json:"creditScore"`
	ResidentialAssets float64   `json:"residentialAssetsValue"`
	CommercialAssets  float64   `json:"commercialAssetsValue"`
	LuxuryAssets      float64   `json:"luxuryAssetsValue"`
	BankAssets        float64   `json:"bankAssetValue"`
	Status            string    `json:"status"`
	Confidence        float64   `json:"confidence"`
	ModelVersion      string    `json:"modelVersion"`
	FromCache         bool      `json:"fromCache"`
	CreatedAt         time.Time `json:"createdAt"`
}

// ListApplicationsResponse is a paginated application list.
type ListApplicationsResponse struct {
	Items      []ApplicationResponse `json:"items"`
	Total      int                   `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"pageSize"`
	TotalPages int                   `json:"totalPages"`
}

// StatsResponse aggregates recent decisions.
type StatsResponse struct {
	Total         int64   `json:"total"`
	Approved      int64   `json:"approved"`
	Rejected      int64   `json:"rejected"`
	AvgConfidence float64 `json:"avgConfidence"`
	FlaggedCount  int64   `json:"flaggedCount"`
	WindowHours   int     `json:"windowHours"`
}

// ToApplicationResponse maps a database model to its API shape.
func ToApplicationResponse(app *repository.Application) ApplicationResponse {
	return ApplicationResponse{
		ID:                app.ID,
		Dependents:        app.Dependents,
		Education:         app.Education,
		SelfEmployed:      app.SelfEmployed,
		AnnualIncome:      app.AnnualIncome,
		LoanAmount:        app.LoanAmount,
		LoanTermYears:     app.LoanTermYears,
		CreditScore:       app.CreditScore,
		ResidentialAssets: app.ResidentialAssets,
		CommercialAssets:  app.CommercialAssets,
		LuxuryAssets:      app.LuxuryAssets,
		BankAssets:        app.BankAssets,
		Status:            app.Status,
		Confidence:        app.Confidence,
		ModelVersion:      app.ModelVersion,
		FromCache:         app.FromCache,
		CreatedAt:         app.CreatedAt,
	}
}
