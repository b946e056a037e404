package gateway

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/TejasK30/edulink-sub000/models"
)

// Policy drives every probabilistic branch of the simulator. Tests pin the
// rates to 0 or 1 to force a branch; production wiring uses DefaultPolicy.
type Policy struct {
	// AuthorizeFailureRate is the chance an authorization is declined outright.
	AuthorizeFailureRate float64
	// CardOTPRate is the chance a CARD authorization demands an OTP. Other
	// methods never do.
	CardOTPRate float64
	// OTPSuccessRate is the chance an OTP check passes.
	OTPSuccessRate float64
	// SettleSuccessRate is the chance settlement goes through.
	SettleSuccessRate float64
	// Latency stands in for the network round-trip of each call.
	Latency time.Duration
}

// DefaultPolicy mirrors the observed behavior of the simulated processor.
func DefaultPolicy() Policy {
	return Policy{
		AuthorizeFailureRate: 0.10,
		CardOTPRate:          0.80,
		OTPSuccessRate:       0.95,
		SettleSuccessRate:    0.95,
		Latency:              150 * time.Millisecond,
	}
}

type authorization struct {
	amount   int64
	method   models.PaymentMethod
	verified bool
}

// Simulator is a policy-driven stand-in for a real payment processor. It
// keeps its in-flight authorizations keyed by gateway reference so the OTP
// and settlement legs can validate the correlation id like a real processor
// would. Safe for concurrent use.
type Simulator struct {
	mu     sync.Mutex
	rng    *rand.Rand
	policy Policy
	auths  map[string]*authorization
}

// NewSimulator builds a simulator with the given policy. The seed makes every
// probabilistic branch reproducible.
func NewSimulator(policy Policy, seed int64) *Simulator {
	return &Simulator{
		rng:    rand.New(rand.NewSource(seed)),
		policy: policy,
		auths:  make(map[string]*authorization),
	}
}

// Authorize reserves the amount and either moves straight to PROCESSING,
// demands an OTP (CARD only), or declines with a reason.
func (s *Simulator) Authorize(ctx context.Context, req AuthorizeRequest) (AuthorizeResponse, error) {
	if err := s.roundTrip(ctx); err != nil {
		return AuthorizeResponse{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rng.Float64() < s.policy.AuthorizeFailureRate {
		return AuthorizeResponse{
			Status:        StatusFailed,
			FailureReason: s.declineReason(req.Method),
		}, nil
	}

	ref := "GW-" + uuid.NewString()
	auth := &authorization{amount: req.Amount, method: req.Method}

	if req.Method == models.MethodCard && s.rng.Float64() < s.policy.CardOTPRate {
		s.auths[ref] = auth
		return AuthorizeResponse{Status: StatusRequiresOTP, GatewayReference: ref}, nil
	}

	auth.verified = true
	s.auths[ref] = auth
	return AuthorizeResponse{Status: StatusProcessing, GatewayReference: ref}, nil
}

// VerifyOTP checks the OTP for an in-flight authorization. An unknown
// reference or a failed check declines with AUTHENTICATION_FAILED and voids
// the authorization.
func (s *Simulator) VerifyOTP(ctx context.Context, gatewayReference, otp string) (VerifyResponse, error) {
	if err := s.roundTrip(ctx); err != nil {
		return VerifyResponse{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	auth, ok := s.auths[gatewayReference]
	if !ok {
		return VerifyResponse{Status: StatusFailed, FailureReason: ReasonAuthenticationFailed}, nil
	}
	if s.rng.Float64() < s.policy.OTPSuccessRate {
		auth.verified = true
		return VerifyResponse{Status: StatusProcessing}, nil
	}
	delete(s.auths, gatewayReference)
	return VerifyResponse{Status: StatusFailed, FailureReason: ReasonAuthenticationFailed}, nil
}

// Settle converts a verified authorization into a completed transaction and
// issues the final transaction id.
func (s *Simulator) Settle(ctx context.Context, gatewayReference string) (SettleResponse, error) {
	if err := s.roundTrip(ctx); err != nil {
		return SettleResponse{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	auth, ok := s.auths[gatewayReference]
	if !ok || !auth.verified {
		return SettleResponse{Success: false, FailureReason: ReasonGatewayError}, nil
	}
	if s.rng.Float64() < s.policy.SettleSuccessRate {
		delete(s.auths, gatewayReference)
		return SettleResponse{Success: true, TransactionID: "TXN-" + uuid.NewString()}, nil
	}
	if s.rng.Float64() < 0.5 {
		return SettleResponse{Success: false, FailureReason: ReasonPaymentTimedOut}, nil
	}
	return SettleResponse{Success: false, FailureReason: ReasonGatewayError}, nil
}

// declineReason picks a business decline; CARD is biased toward the card
// reasons the way the real traffic looked.
func (s *Simulator) declineReason(method models.PaymentMethod) FailureReason {
	if method == models.MethodCard {
		switch {
		case s.rng.Float64() < 0.45:
			return ReasonInsufficientFunds
		case s.rng.Float64() < 0.80:
			return ReasonCardDeclined
		default:
			return ReasonGatewayError
		}
	}
	reasons := []FailureReason{ReasonInsufficientFunds, ReasonPaymentTimedOut, ReasonGatewayError}
	return reasons[s.rng.Intn(len(reasons))]
}

// roundTrip blocks for the simulated network latency, bailing out early if
// the caller's context is cancelled.
func (s *Simulator) roundTrip(ctx context.Context) error {
	if s.policy.Latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.policy.Latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
