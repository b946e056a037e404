package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/TejasK30/edulink-sub000/configuration"
	"github.com/TejasK30/edulink-sub000/fees"
	"github.com/TejasK30/edulink-sub000/models"
	"github.com/TejasK30/edulink-sub000/payments"
)

// PaymentController exposes the payment subsystem's operation contracts over
// HTTP. The surrounding application mounts these alongside its CRUD routes.
type PaymentController struct {
	Orchestrator *payments.Orchestrator
	Dues         *payments.DuesEngine
	validate     *validator.Validate
}

func NewPaymentController(orchestrator *payments.Orchestrator, dues *payments.DuesEngine) *PaymentController {
	return &PaymentController{
		Orchestrator: orchestrator,
		Dues:         dues,
		validate:     validator.New(),
	}
}

type initiateRequest struct {
	StudentID          string   `json:"student_id" validate:"required"`
	CollegeID          string   `json:"college_id"`
	DepartmentID       string   `json:"department_id"`
	FeeTypes           []string `json:"fee_types" validate:"required,min=1"`
	InstallmentOption  int      `json:"installment_option"`
	CurrentInstallment int      `json:"current_installment"`
}

// InitiatePayment creates a new PENDING payment record for the requested fee
// types. No gateway call happens yet.
func (pc *PaymentController) InitiatePayment(c *gin.Context) {
	var req initiateRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"Status": "Failed", "Message": "Invalid request format"})
		return
	}
	if err := pc.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"Status": "Failed", "Message": err.Error()})
		return
	}

	feeTypes := make([]models.FeeCategory, len(req.FeeTypes))
	for i, t := range req.FeeTypes {
		feeTypes[i] = models.FeeCategory(t)
	}

	rec, err := pc.Orchestrator.Initiate(payments.InitiateRequest{
		StudentID:          req.StudentID,
		CollegeID:          req.CollegeID,
		DepartmentID:       req.DepartmentID,
		FeeTypes:           feeTypes,
		InstallmentOption:  req.InstallmentOption,
		CurrentInstallment: req.CurrentInstallment,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"Status":  "Success",
		"Message": "Payment initiated",
		"Data":    rec.Summary(),
	})
}

type processRequest struct {
	Method  string            `json:"method" validate:"required"`
	Details map[string]string `json:"details"`
}

// ProcessPayment runs the gateway authorization step. When the gateway
// demands an OTP the record stays PENDING and the caller is told to verify.
func (pc *PaymentController) ProcessPayment(c *gin.Context) {
	id, ok := paymentID(c)
	if !ok {
		return
	}
	var req processRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"Status": "Failed", "Message": "Invalid request format"})
		return
	}
	if err := pc.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"Status": "Failed", "Message": err.Error()})
		return
	}

	result, err := pc.Orchestrator.Process(c.Request.Context(), id, models.PaymentMethod(req.Method), req.Details)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"Status": "Success",
		"Data": gin.H{
			"requires_otp":   result.RequiresOTP,
			"status":         result.Status,
			"failure_reason": result.FailureReason,
		},
	})
}

type otpRequest struct {
	OTP string `json:"otp" validate:"required"`
}

// VerifyOTP forwards the OTP to the gateway for a payment awaiting one.
func (pc *PaymentController) VerifyOTP(c *gin.Context) {
	id, ok := paymentID(c)
	if !ok {
		return
	}
	var req otpRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"Status": "Failed", "Message": "Invalid request format"})
		return
	}
	if err := pc.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"Status": "Failed", "Message": err.Error()})
		return
	}

	status, err := pc.Orchestrator.VerifyOTP(c.Request.Context(), id, req.OTP)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"Status": "Success",
		"Data":   gin.H{"status": status},
	})
}

// CompletePayment settles the payment and, on success, issues the receipt.
func (pc *PaymentController) CompletePayment(c *gin.Context) {
	id, ok := paymentID(c)
	if !ok {
		return
	}

	result, err := pc.Orchestrator.Complete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	if result.Status == models.PaymentCompleted {
		pc.invalidateStudentCache(id)
	}

	c.JSON(http.StatusOK, gin.H{
		"Status": "Success",
		"Data": gin.H{
			"status":         result.Status,
			"transaction_id": result.TransactionID,
			"failure_reason": result.FailureReason,
			"receipt_path":   result.ReceiptPath,
			"receipt_sent":   result.ReceiptSent,
		},
	})
}

// PaymentStatus returns the current ledger entry.
func (pc *PaymentController) PaymentStatus(c *gin.Context) {
	id, ok := paymentID(c)
	if !ok {
		return
	}
	rec, err := pc.Orchestrator.Status(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"Status": "Success", "Data": rec.Summary()})
}

// PaymentHistory lists a student's payments, newest first.
func (pc *PaymentController) PaymentHistory(c *gin.Context) {
	studentID := c.Param("id")
	records, err := pc.Orchestrator.History(studentID)
	if err != nil {
		respondError(c, err)
		return
	}
	summaries := make([]models.PaymentRecordSummary, len(records))
	for i := range records {
		summaries[i] = records[i].Summary()
	}
	c.JSON(http.StatusOK, gin.H{"Status": "Success", "Data": summaries})
}

// invalidateStudentCache drops the cached dues view once a payment completes.
func (pc *PaymentController) invalidateStudentCache(id uint) {
	if configuration.Client == nil {
		return
	}
	rec, err := pc.Orchestrator.Status(id)
	if err != nil {
		return
	}
	if err := configuration.DelRedis(duesCacheKey(rec.StudentID)); err != nil {
		log.Println("dues cache invalidation failed:", err)
	}
}

func paymentID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"Status": "Failed", "Message": "Invalid payment id"})
		return 0, false
	}
	return uint(id), true
}

// respondError maps the error taxonomy to HTTP codes. Unknown errors stay
// generic; the record has already been force-failed by the orchestrator.
func respondError(c *gin.Context, err error) {
	var ve fees.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{"Status": "Failed", "Message": ve.Message, "Code": ve.Code})
		return
	}
	var nf payments.NotFoundError
	if errors.As(err, &nf) {
		c.JSON(http.StatusNotFound, gin.H{"Status": "Failed", "Message": nf.Error()})
		return
	}
	var sc payments.StateConflictError
	if errors.As(err, &sc) {
		c.JSON(http.StatusConflict, gin.H{"Status": "Failed", "Message": sc.Error()})
		return
	}
	log.Println("payment operation failed:", err)
	c.JSON(http.StatusInternalServerError, gin.H{"Status": "Failed", "Message": "Something went wrong, please try again"})
}
