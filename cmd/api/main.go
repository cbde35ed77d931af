// Package main provides the entry point for the Signboard server application.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/signboardapp/signboard-server/internal/di"
	"github.com/signboardapp/signboard-server/internal/di/providers"
	"github.com/signboardapp/signboard-server/internal/logger"
)

func main() {
	// Create DI container
	injector := di.NewContainer()

	// Bootstrap all services
	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap server: %v\n", err)
		os.Exit(1)
	}

	// Get logger for shutdown messages
	log := do.MustInvoke[*logger.Logger](injector)

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	// Shutdown all services in reverse order. The DI container handles
	// shutdown order automatically for do.Shutdownable providers.
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
	}

	// The stores use wrapper handles; close them explicitly in case the
	// container skipped them.
	if storeHandle, err := do.Invoke[*providers.StoreHandle](injector); err == nil {
		log.Info("Closing document store...")
		if err := storeHandle.Shutdown(); err != nil {
			log.Error("Failed to close document store", "error", err)
		}
	}

	if accessLogHandle, err := do.Invoke[*providers.AccessLogHandle](injector); err == nil {
		log.Info("Closing access log...")
		if err := accessLogHandle.Shutdown(); err != nil {
			log.Error("Failed to close access log", "error", err)
		}
	}

	log.Info("Lights out.")
}
