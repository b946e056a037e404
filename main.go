package main

import (
	"os"
	"strconv"
	"time"

	"github.com/TejasK30/edulink-sub000/configuration"
	"github.com/TejasK30/edulink-sub000/controllers"
	"github.com/TejasK30/edulink-sub000/fees"
	"github.com/TejasK30/edulink-sub000/gateway"
	"github.com/TejasK30/edulink-sub000/notify"
	"github.com/TejasK30/edulink-sub000/payments"
	"github.com/TejasK30/edulink-sub000/receipt"
	"github.com/TejasK30/edulink-sub000/routes"
)

func Init() {
	configuration.ConfigDB()
	configuration.InitRedis()
}

func main() {
	// Perform application initialization
	Init()

	catalog := fees.DefaultCatalog()
	simulator := gateway.NewSimulator(gateway.DefaultPolicy(), gatewaySeed())

	receiptDir := os.Getenv("RECEIPT_DIR")
	if receiptDir == "" {
		receiptDir = "receipts"
	}

	orchestrator := payments.NewOrchestrator(
		configuration.DB,
		simulator,
		catalog,
		receipt.NewPDFRenderer(receiptDir),
		notify.NewEmailSenderFromEnv(),
	)
	dues := payments.NewDuesEngine(configuration.DB, catalog)

	r := routes.PaymentRoutes(controllers.NewPaymentController(orchestrator, dues))

	// Run the engine in default port
	if err := r.Run(); err != nil {
		panic(err)
	}
}

// gatewaySeed makes the simulator reproducible when GATEWAY_SEED is set.
func gatewaySeed() int64 {
	if s := os.Getenv("GATEWAY_SEED"); s != "" {
		if seed, err := strconv.ParseInt(s, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}
