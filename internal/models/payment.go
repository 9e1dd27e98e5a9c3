package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMode enumerates accepted settlement channels.
type PaymentMode string

const (
	PaymentModeCash        PaymentMode = "CASH"
	PaymentModeCheck       PaymentMode = "CHECK"
	PaymentModeWire        PaymentMode = "WIRE"
	PaymentModeMobileMoney PaymentMode = "MOBILE_MONEY"
	PaymentModeCard        PaymentMode = "CARD"
)

// PaymentStatus tracks the settlement lifecycle. CANCELLED is terminal and
// excludes the payment from every aggregate.
type PaymentStatus string

const (
	PaymentStatusComplete  PaymentStatus = "COMPLETE"
	PaymentStatusPartial   PaymentStatus = "PARTIAL"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

// Payment records a monetary settlement by a student against one fee
// definition. The fee_id foreign key is what the aggregation joins on.
type Payment struct {
	ID         string          `db:"id" json:"id"`
	StudentID  string          `db:"student_id" json:"student_id"`
	FeeID      string          `db:"fee_id" json:"fee_id"`
	Amount     decimal.Decimal `db:"amount" json:"amount"`
	Mode       PaymentMode     `db:"mode" json:"mode"`
	Status     PaymentStatus   `db:"status" json:"status"`
	Reference  *string         `db:"reference" json:"reference,omitempty"`
	PaidAt     time.Time       `db:"paid_at" json:"paid_at"`
	RecordedBy string          `db:"recorded_by" json:"recorded_by"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

// PaymentDetail enriches Payment with fee context for listings.
type PaymentDetail struct {
	Payment
	FeeLabel    string  `db:"fee_label" json:"fee_label"`
	FeeType     FeeType `db:"fee_type" json:"fee_type"`
	StudentName string  `db:"student_name" json:"student_name"`
}

// PaymentFilter narrows payment listings.
type PaymentFilter struct {
	StudentID      string
	FeeID          string
	AcademicYearID string
	Statuses       []PaymentStatus
	Mode           PaymentMode
	DateFrom       *time.Time
	DateTo         *time.Time
	Page           int
	PageSize       int
}

// ValidPaymentMode reports whether the value is a known payment mode.
func ValidPaymentMode(m PaymentMode) bool {
	switch m {
	case PaymentModeCash, PaymentModeCheck, PaymentModeWire, PaymentModeMobileMoney, PaymentModeCard:
		return true
	default:
		return false
	}
}
