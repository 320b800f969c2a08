package inference

import (
	"fmt"
	"strings"
)

// Categorical values the encoders were fitted on. Inputs are matched after
// whitespace trimming; anything else is an unknown category.
const (
	EducationGraduate    = "Graduate"
	EducationNotGraduate = "Not Graduate"

	SelfEmployedNo  = "No"
	SelfEmployedYes = "Yes"
)

// Decision labels after trimming the classifier's output.
const (
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)

// FeatureNames lists the model's input columns in training order. Vector
// assembly must follow this order exactly; the forest addresses features by
// position, not by name.
var FeatureNames = [NumFeatures]string{
	"no_of_dependents",
	"education",
	"self_employed",
	"income_annum",
	"loan_amount",
	"loan_term",
	"cibil_score",
	"residential_assets_value",
	"commercial_assets_value",
	"luxury_assets_value",
	"bank_asset_value",
}

// NumFeatures is the width of the model's input vector.
const NumFeatures = 11

// Binary toggle options in the order they are presented to the caller.
// Index 0 is the first option; the positions are part of the public API
// contract and must not be reordered.
var (
	educationByToggle    = [2]string{EducationGraduate, EducationNotGraduate}
	selfEmployedByToggle = [2]string{SelfEmployedNo, SelfEmployedYes}
)

// EducationFromToggle maps a binary toggle position to its education value.
func EducationFromToggle(idx int) (string, error) {
	if idx < 0 || idx >= len(educationByToggle) {
		return "", fmt.Errorf("education toggle out of range: %d", idx)
	}
	return educationByToggle[idx], nil
}

// SelfEmployedFromToggle maps a binary toggle position to its
// self-employment value.
func SelfEmployedFromToggle(idx int) (string, error) {
	if idx < 0 || idx >= len(selfEmployedByToggle) {
		return "", fmt.Errorf("self employed toggle out of range: %d", idx)
	}
	return selfEmployedByToggle[idx], nil
}

// Profile is one applicant's canonical input record. Categorical fields hold
// the raw string values the encoders were trained on; monetary fields are in
// the currency unit of the training data, and LoanTermYears is whole years.
type Profile struct {
	Dependents        int
	Education         string
	SelfEmployed      string
	AnnualIncome      float64
	LoanAmount        float64
	LoanTermYears     float64
	CreditScore       float64
	ResidentialAssets float64
	CommercialAssets  float64
	LuxuryAssets      float64
	BankAssets        float64
}

// Normalized returns a copy of the profile with categorical fields trimmed of
// leading and trailing whitespace. Numeric fields pass through unchanged.
func (p Profile) Normalized() Profile {
	p.Education = strings.TrimSpace(p.Education)
	p.SelfEmployed = strings.TrimSpace(p.SelfEmployed)
	return p
}
