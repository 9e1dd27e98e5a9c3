package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeeType categorises a charge.
type FeeType string

const (
	FeeTypeRegistration FeeType = "REGISTRATION"
	FeeTypeTuition      FeeType = "TUITION"
	FeeTypeExam         FeeType = "EXAM"
	FeeTypeTransport    FeeType = "TRANSPORT"
	FeeTypeCanteen      FeeType = "CANTEEN"
	FeeTypeOther        FeeType = "OTHER"
)

// FeeScopeType defines which students a fee definition applies to.
type FeeScopeType string

const (
	FeeScopeAll   FeeScopeType = "ALL"
	FeeScopeLevel FeeScopeType = "LEVEL"
	FeeScopeClass FeeScopeType = "CLASS"
)

// FeeDefinition is a configured charge applicable to a scope of students for
// an academic year. Definitions referenced by payments are never deleted,
// only deactivated.
type FeeDefinition struct {
	ID             string          `db:"id" json:"id"`
	AcademicYearID string          `db:"academic_year_id" json:"academic_year_id"`
	Label          string          `db:"label" json:"label"`
	FeeType        FeeType         `db:"fee_type" json:"fee_type"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	ScopeType      FeeScopeType    `db:"scope_type" json:"scope_type"`
	ClassID        *string         `db:"class_id" json:"class_id,omitempty"`
	Level          *string         `db:"level" json:"level,omitempty"`
	Mandatory      bool            `db:"mandatory" json:"mandatory"`
	DueDate        *time.Time      `db:"due_date" json:"due_date,omitempty"`
	Active         bool            `db:"active" json:"active"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// FeeDefinitionFilter narrows fee definition listings.
type FeeDefinitionFilter struct {
	AcademicYearID string
	FeeType        FeeType
	ScopeType      FeeScopeType
	ClassID        string
	Active         *bool
	Page           int
	PageSize       int
}

// ValidFeeType reports whether the value is a known fee type.
func ValidFeeType(t FeeType) bool {
	switch t {
	case FeeTypeRegistration, FeeTypeTuition, FeeTypeExam, FeeTypeTransport, FeeTypeCanteen, FeeTypeOther:
		return true
	default:
		return false
	}
}

// ValidFeeScopeType reports whether the value is a known scope type.
func ValidFeeScopeType(t FeeScopeType) bool {
	switch t {
	case FeeScopeAll, FeeScopeLevel, FeeScopeClass:
		return true
	default:
		return false
	}
}
