package main

import (
	"fxgate/internal/app"

	"github.com/sirupsen/logrus"
)

// @title fxgate API
// @version 1.0
// @description Account-gated currency exchange rate proxy.
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.
func main() {
	if err := app.Run(); err != nil {
		logrus.WithError(err).Fatal("fxgate stopped")
	}
}
