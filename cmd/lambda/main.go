package main

import (
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/joseph-ayodele/screenwiper/internal/app"
	"github.com/joseph-ayodele/screenwiper/internal/common"
)

func main() {
	logger := app.NewLogger(os.Getenv("LOG_LEVEL"))

	cfg, err := common.LoadConfig()
	if err != nil {
		logger.Error("config.load.failed", "error", err)
		os.Exit(1)
	}
	// Lambda has no useful local filesystem for callers to point at.
	cfg.Acquire.AllowFileRefs = false

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("app.init.failed", "error", err)
		os.Exit(1)
	}

	h := &handler{svc: a.Service, logger: logger}
	lambda.Start(h.handle)
}
