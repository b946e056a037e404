package payments

import (
	"fmt"

	"github.com/TejasK30/edulink-sub000/models"
)

// TechnicalFailureReason marks records force-failed by the orchestrator's
// fail-safe when an unexpected error interrupts a step.
const TechnicalFailureReason = "TECHNICAL_FAILURE"

// NotFoundError reports an unknown payment or student id.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// StateConflictError reports an operation invoked against a record whose
// current status does not allow it. The record is never silently fixed up.
type StateConflictError struct {
	PaymentID uint
	Operation string
	Current   models.PaymentStatus
}

func (e StateConflictError) Error() string {
	return fmt.Sprintf("cannot %s payment %d in status %s", e.Operation, e.PaymentID, e.Current)
}

// TechnicalError wraps an unexpected failure inside an orchestrator step. By
// the time it reaches the caller the record has already been force-failed.
type TechnicalError struct {
	Op  string
	Err error
}

func (e TechnicalError) Error() string {
	return fmt.Sprintf("payment %s failed: %v", e.Op, e.Err)
}

func (e TechnicalError) Unwrap() error {
	return e.Err
}
