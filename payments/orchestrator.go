package payments

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"gorm.io/gorm"

	"github.com/google/uuid"

	"github.com/TejasK30/edulink-sub000/fees"
	"github.com/TejasK30/edulink-sub000/gateway"
	"github.com/TejasK30/edulink-sub000/models"
)

// ReceiptRenderer turns a completed payment into an opaque artifact reference
// (a file path or URL).
type ReceiptRenderer interface {
	Render(rec *models.PaymentRecord, student *models.Student) (string, error)
}

// NotificationSender delivers the receipt artifact to the student. A send
// failure never reverses a completed payment.
type NotificationSender interface {
	Send(student *models.Student, rec *models.PaymentRecord, receiptPath string) error
}

// Orchestrator drives a payment record through the gateway across independent
// request/response steps. The ledger row is the only state carried between
// steps; every transition is a conditional update guarded by the expected
// current status, so concurrent retries against the same payment resolve to
// one winner. Abandoned attempts simply stay in their last non-terminal
// status; no expiry is defined.
type Orchestrator struct {
	db        *gorm.DB
	processor gateway.Processor
	catalog   fees.Catalog
	renderer  ReceiptRenderer
	sender    NotificationSender
}

func NewOrchestrator(db *gorm.DB, processor gateway.Processor, catalog fees.Catalog, renderer ReceiptRenderer, sender NotificationSender) *Orchestrator {
	return &Orchestrator{
		db:        db,
		processor: processor,
		catalog:   catalog,
		renderer:  renderer,
		sender:    sender,
	}
}

// InitiateRequest names the fee types to charge and, for installment plans,
// which slice of how many this payment is.
type InitiateRequest struct {
	StudentID          string
	CollegeID          string
	DepartmentID       string
	FeeTypes           []models.FeeCategory
	InstallmentOption  int
	CurrentInstallment int
}

// ProcessResult tells the caller whether an OTP is outstanding. The record
// stays PENDING while it is.
type ProcessResult struct {
	RequiresOTP   bool
	Status        models.PaymentStatus
	FailureReason string
}

// CompleteResult reports the settlement outcome.
type CompleteResult struct {
	Status        models.PaymentStatus
	TransactionID string
	FailureReason string
	ReceiptPath   string
	ReceiptSent   bool
}

// Initiate computes the amount for the requested fee types, applies the
// installment surcharge and split, and persists a new PENDING record. No
// gateway call happens here.
func (o *Orchestrator) Initiate(req InitiateRequest) (*models.PaymentRecord, error) {
	var student models.Student
	if err := o.db.First(&student, "id = ?", req.StudentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError{Resource: "student", ID: req.StudentID}
		}
		return nil, TechnicalError{Op: "initiate", Err: err}
	}

	if len(req.FeeTypes) == 0 {
		return nil, fees.ValidationError{Code: fees.CodeUnknownFeeType, Message: "at least one fee type is required"}
	}
	seen := make(map[models.FeeCategory]bool, len(req.FeeTypes))
	for _, cat := range req.FeeTypes {
		if seen[cat] {
			return nil, fees.ValidationError{Code: fees.CodeDuplicateFeeType, Message: "fee type listed twice: " + string(cat)}
		}
		seen[cat] = true
	}

	n := req.InstallmentOption
	if n == 0 {
		n = 1
	}
	if n < 1 || n > fees.MaxInstallments {
		return nil, fees.ValidationError{
			Code:    fees.CodeInvalidInstallmentCount,
			Message: fmt.Sprintf("installment option must be 1..%d, got %d", fees.MaxInstallments, n),
		}
	}
	k := req.CurrentInstallment
	if k == 0 {
		k = 1
	}

	total, err := o.catalog.TotalFor(req.FeeTypes)
	if err != nil {
		return nil, err
	}

	inflated := fees.WithSurcharge(total, n)
	amount, remaining, err := fees.InstallmentAmount(inflated, n, k)
	if err != nil {
		return nil, err
	}

	var details models.FeeDetails
	if n == 1 {
		// Full payment: the breakdown is simply the catalog prices.
		for _, cat := range req.FeeTypes {
			price, _ := o.catalog.Price(cat)
			details = append(details, models.FeeDetail{FeeCategory: cat, Amount: price})
		}
	} else {
		details, err = fees.Allocate(o.catalog, req.FeeTypes, amount, total)
		if err != nil {
			return nil, err
		}
	}

	rec := &models.PaymentRecord{
		StudentID:     req.StudentID,
		CollegeID:     req.CollegeID,
		DepartmentID:  req.DepartmentID,
		FeeDetails:    details,
		AmountPaid:    amount,
		Currency:      o.catalog.Currency(),
		TransactionID: "TXN-" + uuid.NewString(),
		PaymentStatus: models.PaymentPending,
		IsInstallment: n > 1,
	}
	if n > 1 {
		rec.InstallmentNumber = k
		rec.TotalInstallments = n
		rec.RemainingAmount = remaining
	}

	if err := o.db.Create(rec).Error; err != nil {
		return nil, TechnicalError{Op: "initiate", Err: err}
	}
	return rec, nil
}

// Process authorizes a PENDING payment with the gateway. Exactly one attempt
// is counted per call, before the gateway is contacted.
func (o *Orchestrator) Process(ctx context.Context, paymentID uint, method models.PaymentMethod, details map[string]string) (result ProcessResult, err error) {
	if !method.Valid() {
		return ProcessResult{}, fees.ValidationError{Code: fees.CodeInvalidPaymentMethod, Message: "unsupported payment method: " + string(method)}
	}

	rec, err := o.get(paymentID)
	if err != nil {
		return ProcessResult{}, err
	}
	if rec.PaymentStatus != models.PaymentPending {
		return ProcessResult{}, StateConflictError{PaymentID: paymentID, Operation: "process", Current: rec.PaymentStatus}
	}

	defer func() {
		if r := recover(); r != nil {
			o.forceFail(paymentID)
			result = ProcessResult{}
			err = TechnicalError{Op: "process", Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	res := o.db.Model(&models.PaymentRecord{}).
		Where("id = ? AND payment_status = ?", paymentID, models.PaymentPending).
		Updates(map[string]interface{}{
			"payment_attempts": gorm.Expr("payment_attempts + ?", 1),
			"payment_method":   method,
		})
	if res.Error != nil {
		o.forceFail(paymentID)
		return ProcessResult{}, TechnicalError{Op: "process", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return ProcessResult{}, o.conflict(paymentID, "process")
	}

	resp, gwErr := o.processor.Authorize(ctx, gateway.AuthorizeRequest{
		Amount:   rec.AmountPaid,
		Currency: rec.Currency,
		Method:   method,
		Details:  details,
	})
	if gwErr != nil {
		o.forceFail(paymentID)
		return ProcessResult{}, TechnicalError{Op: "process", Err: gwErr}
	}

	switch resp.Status {
	case gateway.StatusRequiresOTP:
		// OTP outstanding: the record stays PENDING with the reference stored.
		if err := o.transition(paymentID, models.PaymentPending, map[string]interface{}{
			"gateway_reference": resp.GatewayReference,
		}, "process"); err != nil {
			return ProcessResult{}, err
		}
		return ProcessResult{RequiresOTP: true, Status: models.PaymentPending}, nil

	case gateway.StatusProcessing:
		if err := o.transition(paymentID, models.PaymentPending, map[string]interface{}{
			"payment_status":    models.PaymentProcessing,
			"gateway_reference": resp.GatewayReference,
		}, "process"); err != nil {
			return ProcessResult{}, err
		}
		return ProcessResult{Status: models.PaymentProcessing}, nil

	case gateway.StatusFailed:
		if err := o.transition(paymentID, models.PaymentPending, map[string]interface{}{
			"payment_status": models.PaymentFailed,
			"failure_reason": string(resp.FailureReason),
		}, "process"); err != nil {
			return ProcessResult{}, err
		}
		return ProcessResult{Status: models.PaymentFailed, FailureReason: string(resp.FailureReason)}, nil
	}

	o.forceFail(paymentID)
	return ProcessResult{}, TechnicalError{Op: "process", Err: fmt.Errorf("unexpected gateway status %q", resp.Status)}
}

// VerifyOTP forwards the OTP for a payment whose authorization demanded one.
func (o *Orchestrator) VerifyOTP(ctx context.Context, paymentID uint, otp string) (status models.PaymentStatus, err error) {
	if !wellFormedOTP(otp) {
		return "", fees.ValidationError{Code: fees.CodeMalformedOTP, Message: "otp must be 4 to 8 digits"}
	}

	rec, err := o.get(paymentID)
	if err != nil {
		return "", err
	}
	if rec.PaymentStatus != models.PaymentPending || rec.GatewayReference == "" {
		return "", StateConflictError{PaymentID: paymentID, Operation: "verify-otp", Current: rec.PaymentStatus}
	}

	defer func() {
		if r := recover(); r != nil {
			o.forceFail(paymentID)
			status = ""
			err = TechnicalError{Op: "verify-otp", Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	resp, gwErr := o.processor.VerifyOTP(ctx, rec.GatewayReference, otp)
	if gwErr != nil {
		o.forceFail(paymentID)
		return "", TechnicalError{Op: "verify-otp", Err: gwErr}
	}

	if resp.Status == gateway.StatusProcessing {
		if err := o.transition(paymentID, models.PaymentPending, map[string]interface{}{
			"payment_status": models.PaymentProcessing,
		}, "verify-otp"); err != nil {
			return "", err
		}
		return models.PaymentProcessing, nil
	}

	reason := resp.FailureReason
	if reason == "" {
		reason = gateway.ReasonAuthenticationFailed
	}
	if err := o.transition(paymentID, models.PaymentPending, map[string]interface{}{
		"payment_status": models.PaymentFailed,
		"failure_reason": string(reason),
	}, "verify-otp"); err != nil {
		return "", err
	}
	return models.PaymentFailed, nil
}

// Complete settles a PROCESSING payment. On success the gateway-issued
// transaction id replaces the provisional one and receipt generation plus
// email dispatch are delegated out; neither failing reverses the payment.
func (o *Orchestrator) Complete(ctx context.Context, paymentID uint) (result CompleteResult, err error) {
	rec, err := o.get(paymentID)
	if err != nil {
		return CompleteResult{}, err
	}
	if rec.PaymentStatus != models.PaymentProcessing {
		return CompleteResult{}, StateConflictError{PaymentID: paymentID, Operation: "complete", Current: rec.PaymentStatus}
	}

	defer func() {
		if r := recover(); r != nil {
			o.forceFail(paymentID)
			result = CompleteResult{}
			err = TechnicalError{Op: "complete", Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	resp, gwErr := o.processor.Settle(ctx, rec.GatewayReference)
	if gwErr != nil {
		o.forceFail(paymentID)
		return CompleteResult{}, TechnicalError{Op: "complete", Err: gwErr}
	}

	if !resp.Success {
		reason := resp.FailureReason
		if reason == "" {
			reason = gateway.ReasonGatewayError
		}
		if err := o.transition(paymentID, models.PaymentProcessing, map[string]interface{}{
			"payment_status": models.PaymentFailed,
			"failure_reason": string(reason),
		}, "complete"); err != nil {
			return CompleteResult{}, err
		}
		return CompleteResult{Status: models.PaymentFailed, FailureReason: string(reason)}, nil
	}

	// The status guard makes the settlement transition the single winner if
	// a client retries complete concurrently.
	if err := o.transition(paymentID, models.PaymentProcessing, map[string]interface{}{
		"payment_status": models.PaymentCompleted,
		"transaction_id": resp.TransactionID,
	}, "complete"); err != nil {
		return CompleteResult{}, err
	}

	rec.PaymentStatus = models.PaymentCompleted
	rec.TransactionID = resp.TransactionID
	path, sent := o.issueReceipt(rec)

	return CompleteResult{
		Status:        models.PaymentCompleted,
		TransactionID: resp.TransactionID,
		ReceiptPath:   path,
		ReceiptSent:   sent,
	}, nil
}

// Status returns the current ledger entry for a payment.
func (o *Orchestrator) Status(paymentID uint) (*models.PaymentRecord, error) {
	return o.get(paymentID)
}

// History lists a student's payment records, newest first.
func (o *Orchestrator) History(studentID string) ([]models.PaymentRecord, error) {
	var student models.Student
	if err := o.db.First(&student, "id = ?", studentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError{Resource: "student", ID: studentID}
		}
		return nil, TechnicalError{Op: "history", Err: err}
	}
	var records []models.PaymentRecord
	if err := o.db.Where("student_id = ?", studentID).Order("id desc").Find(&records).Error; err != nil {
		return nil, TechnicalError{Op: "history", Err: err}
	}
	return records, nil
}

// issueReceipt renders the receipt and emails it, best effort. ReceiptPath
// and ReceiptSent are the only fields written after a terminal status.
func (o *Orchestrator) issueReceipt(rec *models.PaymentRecord) (string, bool) {
	if o.renderer == nil {
		return "", false
	}
	var student models.Student
	if err := o.db.First(&student, "id = ?", rec.StudentID).Error; err != nil {
		log.Println("receipt: student lookup failed:", err)
		return "", false
	}

	path, err := o.renderer.Render(rec, &student)
	if err != nil {
		log.Println("receipt: render failed:", err)
		return "", false
	}
	if err := o.db.Model(&models.PaymentRecord{}).Where("id = ?", rec.ID).
		Update("receipt_path", path).Error; err != nil {
		log.Println("receipt: saving path failed:", err)
	}
	rec.ReceiptPath = path

	sent := false
	if o.sender != nil {
		if err := o.sender.Send(&student, rec, path); err != nil {
			log.Println("receipt: email dispatch failed:", err)
		} else {
			sent = true
		}
	}
	if sent {
		if err := o.db.Model(&models.PaymentRecord{}).Where("id = ?", rec.ID).
			Update("receipt_sent", true).Error; err != nil {
			log.Println("receipt: saving sent flag failed:", err)
		}
	}
	return path, sent
}

func (o *Orchestrator) get(paymentID uint) (*models.PaymentRecord, error) {
	var rec models.PaymentRecord
	if err := o.db.First(&rec, "id = ?", paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError{Resource: "payment", ID: strconv.FormatUint(uint64(paymentID), 10)}
		}
		return nil, TechnicalError{Op: "load payment", Err: err}
	}
	return &rec, nil
}

// transition applies updates only while the record still holds the expected
// status. Zero rows affected means another call won the race.
func (o *Orchestrator) transition(paymentID uint, expected models.PaymentStatus, updates map[string]interface{}, op string) error {
	res := o.db.Model(&models.PaymentRecord{}).
		Where("id = ? AND payment_status = ?", paymentID, expected).
		Updates(updates)
	if res.Error != nil {
		o.forceFail(paymentID)
		return TechnicalError{Op: op, Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return o.conflict(paymentID, op)
	}
	return nil
}

func (o *Orchestrator) conflict(paymentID uint, op string) error {
	current := models.PaymentStatus("UNKNOWN")
	if rec, err := o.get(paymentID); err == nil {
		current = rec.PaymentStatus
	}
	return StateConflictError{PaymentID: paymentID, Operation: op, Current: current}
}

// forceFail moves a non-terminal record to FAILED with a generic reason so an
// interrupted step never leaves the ledger ambiguous. Terminal records are
// left untouched.
func (o *Orchestrator) forceFail(paymentID uint) {
	err := o.db.Model(&models.PaymentRecord{}).
		Where("id = ? AND payment_status IN ?", paymentID,
			[]models.PaymentStatus{models.PaymentPending, models.PaymentProcessing}).
		Updates(map[string]interface{}{
			"payment_status": models.PaymentFailed,
			"failure_reason": TechnicalFailureReason,
		}).Error
	if err != nil {
		log.Printf("force-fail payment %d: %v", paymentID, err)
	}
}

func wellFormedOTP(otp string) bool {
	if len(otp) < 4 || len(otp) > 8 {
		return false
	}
	for _, r := range otp {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
