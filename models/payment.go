package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// PaymentStatus is the closed set of states a payment record can be in.
// Transitions only move forward: PENDING -> PROCESSING -> COMPLETED/FAILED,
// or PENDING -> FAILED directly.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "PENDING"
	PaymentProcessing PaymentStatus = "PROCESSING"
	PaymentCompleted  PaymentStatus = "COMPLETED"
	PaymentFailed     PaymentStatus = "FAILED"
)

// Terminal reports whether the status allows no further transition.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentCompleted || s == PaymentFailed
}

// FeeCategory identifies a billable item in the fee catalog.
type FeeCategory string

const (
	FeeTuition FeeCategory = "TUITION"
	FeeExam    FeeCategory = "EXAM"
	FeeHostel  FeeCategory = "HOSTEL"
)

// PaymentMethod is the closed set of methods the gateway accepts.
type PaymentMethod string

const (
	MethodCard       PaymentMethod = "CARD"
	MethodNetBanking PaymentMethod = "NETBANKING"
	MethodUPI        PaymentMethod = "UPI"
	MethodWallet     PaymentMethod = "WALLET"
)

// Valid reports whether m is one of the accepted payment methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCard, MethodNetBanking, MethodUPI, MethodWallet:
		return true
	}
	return false
}

// FeeDetail is one line of a payment's per-category breakdown. Amounts are
// whole rupees.
type FeeDetail struct {
	FeeCategory FeeCategory `json:"fee_category"`
	Amount      int64       `json:"amount"`
}

// FeeDetails is the ordered per-category breakdown, stored as a single JSON
// column so the ledger row stays self-contained.
type FeeDetails []FeeDetail

func (d FeeDetails) Value() (driver.Value, error) {
	return json.Marshal(d)
}

func (d *FeeDetails) Scan(value interface{}) error {
	if value == nil {
		*d = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	}
	return fmt.Errorf("unsupported fee details column type %T", value)
}

// Total sums the per-category amounts.
func (d FeeDetails) Total() int64 {
	var sum int64
	for _, fd := range d {
		sum += fd.Amount
	}
	return sum
}

// PaymentRecord is the permanent ledger entry for one payment attempt, or one
// installment slice of a plan. It is the single source of truth for payment
// state between request/response steps and is never deleted.
type PaymentRecord struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	StudentID    string `gorm:"not null;index" json:"student_id"`
	CollegeID    string `gorm:"index" json:"college_id"`
	DepartmentID string `gorm:"index" json:"department_id"`

	FeeDetails FeeDetails `gorm:"type:jsonb" json:"fee_details"`
	AmountPaid int64      `gorm:"not null" json:"amount_paid"`
	Currency   string     `gorm:"type:varchar(10);not null" json:"currency"`

	// TransactionID is assigned at creation and replaced by the
	// gateway-issued id on successful settlement.
	TransactionID string        `gorm:"uniqueIndex;not null" json:"transaction_id"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null;index" json:"payment_status"`

	IsInstallment     bool  `json:"is_installment"`
	InstallmentNumber int   `json:"installment_number"`
	TotalInstallments int   `json:"total_installments"`
	RemainingAmount   int64 `json:"remaining_amount"`

	PaymentMethod    PaymentMethod `gorm:"type:varchar(20)" json:"payment_method"`
	GatewayReference string        `gorm:"index" json:"gateway_reference"`
	PaymentAttempts  int           `json:"payment_attempts"`
	FailureReason    string        `json:"failure_reason"`

	ReceiptPath string `json:"receipt_path"`
	ReceiptSent bool   `json:"receipt_sent"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// PaymentRecordSummary is the record shape returned to clients.
type PaymentRecordSummary struct {
	ID                uint          `json:"id"`
	StudentID         string        `json:"student_id"`
	FeeDetails        FeeDetails    `json:"fee_details"`
	AmountPaid        int64         `json:"amount_paid"`
	Currency          string        `json:"currency"`
	TransactionID     string        `json:"transaction_id"`
	PaymentStatus     PaymentStatus `json:"payment_status"`
	IsInstallment     bool          `json:"is_installment"`
	InstallmentNumber int           `json:"installment_number,omitempty"`
	TotalInstallments int           `json:"total_installments,omitempty"`
	RemainingAmount   int64         `json:"remaining_amount,omitempty"`
	PaymentMethod     PaymentMethod `json:"payment_method,omitempty"`
	PaymentAttempts   int           `json:"payment_attempts"`
	FailureReason     string        `json:"failure_reason,omitempty"`
	ReceiptPath       string        `json:"receipt_path,omitempty"`
	ReceiptSent       bool          `json:"receipt_sent"`
	CreatedAt         time.Time     `json:"created_at"`
}

// Summary projects the record for API responses.
func (p *PaymentRecord) Summary() PaymentRecordSummary {
	return PaymentRecordSummary{
		ID:                p.ID,
		StudentID:         p.StudentID,
		FeeDetails:        p.FeeDetails,
		AmountPaid:        p.AmountPaid,
		Currency:          p.Currency,
		TransactionID:     p.TransactionID,
		PaymentStatus:     p.PaymentStatus,
		IsInstallment:     p.IsInstallment,
		InstallmentNumber: p.InstallmentNumber,
		TotalInstallments: p.TotalInstallments,
		RemainingAmount:   p.RemainingAmount,
		PaymentMethod:     p.PaymentMethod,
		PaymentAttempts:   p.PaymentAttempts,
		FailureReason:     p.FailureReason,
		ReceiptPath:       p.ReceiptPath,
		ReceiptSent:       p.ReceiptSent,
		CreatedAt:         p.CreatedAt,
	}
}
