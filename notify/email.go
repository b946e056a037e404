package notify

import (
	"fmt"
	"os"

	"github.com/go-gomail/gomail"

	"github.com/TejasK30/edulink-sub000/models"
)

// EmailSender mails payment receipts to students over SMTP.
type EmailSender struct {
	From     string
	Password string
	Host     string
	Port     int
}

// NewEmailSenderFromEnv reads SMTP credentials from the environment.
func NewEmailSenderFromEnv() *EmailSender {
	return &EmailSender{
		From:     os.Getenv("Email"),
		Password: os.Getenv("Password"),
		Host:     "smtp.gmail.com",
		Port:     587,
	}
}

// Send delivers the receipt PDF to the student. A failure here is reported
// to the caller but never affects the payment itself.
func (s *EmailSender) Send(student *models.Student, rec *models.PaymentRecord, receiptPath string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", student.Email)
	m.SetHeader("Subject", "Fee payment confirmation")
	m.SetBody("text/plain", fmt.Sprintf(
		"Hi %s,\n\nYour fee payment of %d %s was successful.\nTransaction ID: %s\n\nYour receipt is attached.",
		student.Name, rec.AmountPaid, rec.Currency, rec.TransactionID))
	if receiptPath != "" {
		m.Attach(receiptPath)
	}

	d := gomail.NewDialer(s.Host, s.Port, s.From, s.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("error sending email: %v", err)
	}
	return nil
}
