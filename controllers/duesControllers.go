package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/TejasK30/edulink-sub000/configuration"
	"github.com/TejasK30/edulink-sub000/payments"
)

const duesCacheTTL = time.Minute

// OutstandingDues reports which catalog fee categories the student still
// owes. The view is cached briefly in redis when it is available.
func (pc *PaymentController) OutstandingDues(c *gin.Context) {
	studentID := c.Param("id")

	if configuration.Client != nil {
		if cached, err := configuration.GetRedis(duesCacheKey(studentID)); err == nil {
			var dues []payments.DueEntry
			if err := json.Unmarshal([]byte(cached), &dues); err == nil {
				c.JSON(http.StatusOK, gin.H{"Status": "Success", "Data": dues})
				return
			}
		}
	}

	dues, err := pc.Dues.OutstandingDues(studentID)
	if err != nil {
		respondError(c, err)
		return
	}

	if configuration.Client != nil {
		if payload, err := json.Marshal(dues); err == nil {
			configuration.SetRedis(duesCacheKey(studentID), payload, duesCacheTTL)
		}
	}

	c.JSON(http.StatusOK, gin.H{"Status": "Success", "Data": dues})
}

// PendingInstallments reports the next slice owed on every partially
// completed installment plan.
func (pc *PaymentController) PendingInstallments(c *gin.Context) {
	studentID := c.Param("id")

	pending, err := pc.Dues.PendingInstallments(studentID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"Status": "Success", "Data": pending})
}

func duesCacheKey(studentID string) string {
	return "dues:" + studentID
}
