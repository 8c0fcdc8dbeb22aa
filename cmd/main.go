package main

import (
	"log/slog"
	"os"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"

	// Registers the HTTP functions.
	_ "github.com/KasumiMercury/patotta-stone-function-revenue/functions"
)

// Runs the functions locally. FUNCTION_TARGET selects which one answers, e.g.
// FUNCTION_TARGET=sales go run ./cmd
func main() {
	port := "8080"
	if envPort := os.Getenv("PORT"); envPort != "" {
		port = envPort
	}

	slog.Info("Starting functions framework", slog.Group("local", "port", port, "target", os.Getenv("FUNCTION_TARGET")))
	if err := funcframework.Start(port); err != nil {
		slog.Error("Failed to start functions framework", slog.Group("local", "error", err))
		os.Exit(1)
	}
}
