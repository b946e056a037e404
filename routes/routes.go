package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/TejasK30/edulink-sub000/controllers"
)

// PaymentRoutes wires the payment subsystem's operation contracts onto a gin
// engine. The surrounding application mounts its CRUD and auth routes around
// these.
func PaymentRoutes(pc *controllers.PaymentController) *gin.Engine {
	r := gin.Default()

	payments := r.Group("/payments")
	{
		payments.POST("/initiate", pc.InitiatePayment)
		payments.POST("/:id/process", pc.ProcessPayment)
		payments.POST("/:id/verify-otp", pc.VerifyOTP)
		payments.POST("/:id/complete", pc.CompletePayment)
		payments.GET("/:id", pc.PaymentStatus)
	}

	students := r.Group("/students")
	{
		students.GET("/:id/payments", pc.PaymentHistory)
		students.GET("/:id/dues", pc.OutstandingDues)
		students.GET("/:id/installments/pending", pc.PendingInstallments)
	}

	return r
}
