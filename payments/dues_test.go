package payments

import (
	"fmt"
	"testing"

	"gorm.io/gorm"

	"github.com/TejasK30/edulink-sub000/fees"
	"github.com/TejasK30/edulink-sub000/models"
)

func seedCompleted(t *testing.T, db *gorm.DB, rec models.PaymentRecord) models.PaymentRecord {
	t.Helper()
	rec.StudentID = "stu-1"
	rec.Currency = "INR"
	rec.PaymentStatus = models.PaymentCompleted
	if rec.TransactionID == "" {
		rec.TransactionID = fmt.Sprintf("TXN-seed-%d", seededRecords(t, db)+1)
	}
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("seed record: %v", err)
	}
	return rec
}

func seededRecords(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.PaymentRecord{}).Count(&n).Error; err != nil {
		t.Fatalf("count records: %v", err)
	}
	return n
}

func newTestDuesEngine(t *testing.T) (*DuesEngine, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	seedStudent(t, db)
	return NewDuesEngine(db, fees.DefaultCatalog()), db
}

func TestOutstandingDuesNoHistory(t *testing.T) {
	engine, _ := newTestDuesEngine(t)

	dues, err := engine.OutstandingDues("stu-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(dues) != 3 {
		t.Fatalf("dues length = %d, want every catalog category", len(dues))
	}
	for _, d := range dues {
		if d.Amount <= 0 || d.Currency != "INR" {
			t.Errorf("due %+v has bad amount or currency", d)
		}
		if d.DueDate.IsZero() {
			t.Errorf("due %s missing due date", d.FeeCategory)
		}
	}
}

func TestOutstandingDuesFullPaymentSettles(t *testing.T) {
	engine, db := newTestDuesEngine(t)

	seedCompleted(t, db, models.PaymentRecord{
		AmountPaid: 50000,
		FeeDetails: models.FeeDetails{{FeeCategory: models.FeeTuition, Amount: 50000}},
	})

	dues, err := engine.OutstandingDues("stu-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(dues) != 2 {
		t.Fatalf("dues length = %d, want 2", len(dues))
	}
	for _, d := range dues {
		if d.FeeCategory == models.FeeTuition {
			t.Error("settled tuition still reported due")
		}
	}
}

func TestOutstandingDuesPartialInstallmentDoesNotSettle(t *testing.T) {
	engine, db := newTestDuesEngine(t)

	// Slices 1 and 2 of a 3-slice plan: tuition is not settled yet.
	for k := 1; k <= 2; k++ {
		seedCompleted(t, db, models.PaymentRecord{
			AmountPaid:        17500,
			FeeDetails:        models.FeeDetails{{FeeCategory: models.FeeTuition, Amount: 17500}},
			IsInstallment:     true,
			InstallmentNumber: k,
			TotalInstallments: 3,
			RemainingAmount:   int64(52500 - 17500*k),
		})
	}

	dues, err := engine.OutstandingDues("stu-1")
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, d := range dues {
		if d.FeeCategory == models.FeeTuition {
			found = true
		}
	}
	if !found {
		t.Error("tuition dropped from dues before the final slice")
	}
}

func TestOutstandingDuesFinalInstallmentSettles(t *testing.T) {
	engine, db := newTestDuesEngine(t)

	seedCompleted(t, db, models.PaymentRecord{
		AmountPaid:        17500,
		FeeDetails:        models.FeeDetails{{FeeCategory: models.FeeTuition, Amount: 17500}},
		IsInstallment:     true,
		InstallmentNumber: 3,
		TotalInstallments: 3,
		RemainingAmount:   0,
	})

	dues, err := engine.OutstandingDues("stu-1")
	if err != nil {
		t.Fatal(err)
	}
	for _, d := range dues {
		if d.FeeCategory == models.FeeTuition {
			t.Error("tuition still due after its final installment")
		}
	}
}

func TestOutstandingDuesUnknownStudent(t *testing.T) {
	engine, _ := newTestDuesEngine(t)
	if _, err := engine.OutstandingDues("ghost"); err == nil {
		t.Error("expected NotFoundError")
	}
}

func TestPendingInstallmentsReportsNextSlice(t *testing.T) {
	engine, db := newTestDuesEngine(t)

	for k := 1; k <= 2; k++ {
		seedCompleted(t, db, models.PaymentRecord{
			AmountPaid: 18200,
			FeeDetails: models.FeeDetails{
				{FeeCategory: models.FeeTuition, Amount: 17500},
				{FeeCategory: models.FeeExam, Amount: 700},
			},
			IsInstallment:     true,
			InstallmentNumber: k,
			TotalInstallments: 3,
			RemainingAmount:   int64(54600 - 18200*k),
		})
	}

	pending, err := engine.PendingInstallments("stu-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending length = %d, want 1", len(pending))
	}
	p := pending[0]
	if p.NextInstallment != 3 || p.TotalInstallments != 3 {
		t.Errorf("next = %d/%d, want 3/3", p.NextInstallment, p.TotalInstallments)
	}
	if p.RemainingAmount != 18200 {
		t.Errorf("remaining = %d, want 18200", p.RemainingAmount)
	}
	if len(p.FeeTypes) != 2 {
		t.Errorf("fee types = %v", p.FeeTypes)
	}
}

func TestPendingInstallmentsFinishedPlanExcluded(t *testing.T) {
	engine, db := newTestDuesEngine(t)

	for k := 1; k <= 2; k++ {
		seedCompleted(t, db, models.PaymentRecord{
			AmountPaid:        5250,
			FeeDetails:        models.FeeDetails{{FeeCategory: models.FeeHostel, Amount: 5250}},
			IsInstallment:     true,
			InstallmentNumber: k,
			TotalInstallments: 2,
			RemainingAmount:   int64(10500 - 5250*k),
		})
	}

	pending, err := engine.PendingInstallments("stu-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("finished plan still pending: %+v", pending)
	}
}

func TestPendingInstallmentsIgnoresFullPayments(t *testing.T) {
	engine, db := newTestDuesEngine(t)

	seedCompleted(t, db, models.PaymentRecord{
		AmountPaid: 2000,
		FeeDetails: models.FeeDetails{{FeeCategory: models.FeeExam, Amount: 2000}},
	})

	pending, err := engine.PendingInstallments("stu-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("full payment reported as an installment plan: %+v", pending)
	}
}

func TestPendingInstallmentsSeparatePlans(t *testing.T) {
	engine, db := newTestDuesEngine(t)

	// Two open plans over different category sets.
	seedCompleted(t, db, models.PaymentRecord{
		AmountPaid:        26250,
		FeeDetails:        models.FeeDetails{{FeeCategory: models.FeeTuition, Amount: 26250}},
		IsInstallment:     true,
		InstallmentNumber: 1,
		TotalInstallments: 2,
		RemainingAmount:   26250,
	})
	seedCompleted(t, db, models.PaymentRecord{
		AmountPaid:        5250,
		FeeDetails:        models.FeeDetails{{FeeCategory: models.FeeHostel, Amount: 5250}},
		IsInstallment:     true,
		InstallmentNumber: 1,
		TotalInstallments: 2,
		RemainingAmount:   5250,
	})

	pending, err := engine.PendingInstallments("stu-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending length = %d, want 2", len(pending))
	}
}
