package gateway

import (
	"context"

	"github.com/TejasK30/edulink-sub000/models"
)

// Status is the gateway's view of an in-flight authorization.
type Status string

const (
	StatusProcessing  Status = "PROCESSING"
	StatusRequiresOTP Status = "REQUIRES_OTP"
	StatusFailed      Status = "FAILED"
)

// FailureReason is the closed set of business declines a gateway can report.
type FailureReason string

const (
	ReasonInsufficientFunds    FailureReason = "INSUFFICIENT_FUNDS"
	ReasonAuthenticationFailed FailureReason = "AUTHENTICATION_FAILED"
	ReasonPaymentTimedOut      FailureReason = "PAYMENT_TIMED_OUT"
	ReasonGatewayError         FailureReason = "GATEWAY_ERROR"
	ReasonCardDeclined         FailureReason = "CARD_DECLINED"
)

// AuthorizeRequest asks the processor to reserve an amount against a method.
type AuthorizeRequest struct {
	Amount   int64
	Currency string
	Method   models.PaymentMethod
	Details  map[string]string
}

// AuthorizeResponse reports the outcome of an authorization attempt. The
// gateway reference correlates any follow-up OTP or settlement call.
type AuthorizeResponse struct {
	Status           Status
	GatewayReference string
	FailureReason    FailureReason
}

// VerifyResponse reports the outcome of an OTP check.
type VerifyResponse struct {
	Status        Status
	FailureReason FailureReason
}

// SettleResponse reports the outcome of settlement. On success the processor
// issues the final transaction id for the ledger.
type SettleResponse struct {
	Success       bool
	TransactionID string
	FailureReason FailureReason
}

// Processor is the three-call payment processor contract the orchestrator
// depends on. A production integration would sit behind this same interface;
// the shipped implementation is the policy-driven Simulator. Calls block for
// a simulated network round-trip and honor context cancellation.
type Processor interface {
	Authorize(ctx context.Context, req AuthorizeRequest) (AuthorizeResponse, error)
	VerifyOTP(ctx context.Context, gatewayReference, otp string) (VerifyResponse, error)
	Settle(ctx context.Context, gatewayReference string) (SettleResponse, error)
}
