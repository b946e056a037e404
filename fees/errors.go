package fees

// Validation error codes reported to the client before any state mutation.
const (
	CodeUnknownFeeType          = "UNKNOWN_FEE_TYPE"
	CodeInvalidInstallmentCount = "INVALID_INSTALLMENT_COUNT"
	CodeInvalidInstallmentIndex = "INVALID_INSTALLMENT_INDEX"
	CodeInvalidAmount           = "INVALID_AMOUNT"
	CodeInvalidCompletedCount   = "INVALID_COMPLETED_COUNT"
	CodeDuplicateFeeType        = "DUPLICATE_FEE_TYPE"
	CodeMalformedOTP            = "MALFORMED_OTP"
	CodeInvalidPaymentMethod    = "INVALID_PAYMENT_METHOD"
)

// ValidationError rejects a request before it touches any record.
type ValidationError struct {
	Code    string
	Message string
}

func (e ValidationError) Error() string {
	return e.Code + ": " + e.Message
}
