package payments

import (
	"errors"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/TejasK30/edulink-sub000/fees"
	"github.com/TejasK30/edulink-sub000/models"
)

// DueEntry is one fee category a student still owes.
type DueEntry struct {
	FeeCategory models.FeeCategory `json:"fee_category"`
	Amount      int64              `json:"amount"`
	Currency    string             `json:"currency"`
	DueDate     time.Time          `json:"due_date"`
}

// PendingInstallment reports the next slice owed on a partially completed
// installment plan.
type PendingInstallment struct {
	FeeTypes          []models.FeeCategory `json:"fee_types"`
	NextInstallment   int                  `json:"next_installment"`
	TotalInstallments int                  `json:"total_installments"`
	RemainingAmount   int64                `json:"remaining_amount"`
}

// DuesEngine is the read side over completed payment records: what a student
// still owes and which installment comes next. It never mutates the ledger.
type DuesEngine struct {
	db      *gorm.DB
	catalog fees.Catalog
	now     func() time.Time
}

func NewDuesEngine(db *gorm.DB, catalog fees.Catalog) *DuesEngine {
	return &DuesEngine{db: db, catalog: catalog, now: time.Now}
}

// OutstandingDues lists the catalog categories not yet settled for the
// student. A category counts as settled once a COMPLETED record covers it
// that is either a full payment or the final slice of its installment plan.
// Due dates roll 30 days from evaluation time.
func (e *DuesEngine) OutstandingDues(studentID string) ([]DueEntry, error) {
	records, err := e.completed(studentID)
	if err != nil {
		return nil, err
	}

	settled := make(map[models.FeeCategory]bool)
	for _, rec := range records {
		if rec.IsInstallment && rec.InstallmentNumber != rec.TotalInstallments {
			continue
		}
		for _, fd := range rec.FeeDetails {
			settled[fd.FeeCategory] = true
		}
	}

	dueDate := e.now().AddDate(0, 0, 30)
	dues := make([]DueEntry, 0)
	for _, cat := range e.catalog.Categories() {
		if settled[cat] {
			continue
		}
		price, _ := e.catalog.Price(cat)
		dues = append(dues, DueEntry{
			FeeCategory: cat,
			Amount:      price,
			Currency:    e.catalog.Currency(),
			DueDate:     dueDate,
		})
	}
	return dues, nil
}

// PendingInstallments groups the student's completed installment slices by
// the fee-category set they cover and reports the next slice for every plan
// whose final slice has not been paid.
func (e *DuesEngine) PendingInstallments(studentID string) ([]PendingInstallment, error) {
	records, err := e.completed(studentID)
	if err != nil {
		return nil, err
	}

	type planProgress struct {
		feeTypes          []models.FeeCategory
		maxInstallment    int
		totalInstallments int
		remainingAmount   int64
	}
	plans := make(map[string]*planProgress)

	for _, rec := range records {
		if !rec.IsInstallment {
			continue
		}
		key, cats := planKey(rec.FeeDetails)
		plan, ok := plans[key]
		if !ok {
			plan = &planProgress{feeTypes: cats}
			plans[key] = plan
		}
		if rec.InstallmentNumber > plan.maxInstallment {
			plan.maxInstallment = rec.InstallmentNumber
			plan.totalInstallments = rec.TotalInstallments
			plan.remainingAmount = rec.RemainingAmount
		}
	}

	keys := make([]string, 0, len(plans))
	for key := range plans {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pending := make([]PendingInstallment, 0)
	for _, key := range keys {
		plan := plans[key]
		if plan.maxInstallment >= plan.totalInstallments {
			continue
		}
		pending = append(pending, PendingInstallment{
			FeeTypes:          plan.feeTypes,
			NextInstallment:   plan.maxInstallment + 1,
			TotalInstallments: plan.totalInstallments,
			RemainingAmount:   plan.remainingAmount,
		})
	}
	return pending, nil
}

func (e *DuesEngine) completed(studentID string) ([]models.PaymentRecord, error) {
	var student models.Student
	if err := e.db.First(&student, "id = ?", studentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError{Resource: "student", ID: studentID}
		}
		return nil, TechnicalError{Op: "dues", Err: err}
	}
	var records []models.PaymentRecord
	if err := e.db.Where("student_id = ? AND payment_status = ?", studentID, models.PaymentCompleted).
		Find(&records).Error; err != nil {
		return nil, TechnicalError{Op: "dues", Err: err}
	}
	return records, nil
}

// planKey identifies an installment plan by the sorted set of fee categories
// its slices cover.
func planKey(details models.FeeDetails) (string, []models.FeeCategory) {
	cats := make([]models.FeeCategory, 0, len(details))
	for _, fd := range details {
		cats = append(cats, fd.FeeCategory)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	parts := make([]string, len(cats))
	for i, cat := range cats {
		parts[i] = string(cat)
	}
	return strings.Join(parts, "+"), cats
}
