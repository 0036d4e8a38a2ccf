package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	clog "cosmossdk.io/log"

	"github.com/openalpha/launchpad/api"
)

func main() {
	// Command line flags
	host := flag.String("host", "0.0.0.0", "Server host")
	port := flag.Int("port", 8080, "Server port")
	mockMode := flag.Bool("mock", false, "Serve seeded mock data instead of the keeper backend")
	owner := flag.String("owner", "", "Bech32 address holding the sale admin capability (keeper mode)")
	paymentDenom := flag.String("payment-denom", "", "Denom buyers pay with (keeper mode)")
	benchMode := flag.Bool("bench", false, "Disable rate limiting (benchmarks)")
	flag.Parse()

	config := &api.Config{
		Host:             *host,
		Port:             *port,
		ReadTimeout:      30 * time.Second,
		WriteTimeout:     30 * time.Second,
		MockMode:         *mockMode,
		DisableRateLimit: *benchMode,
	}

	var server *api.Server
	if *mockMode {
		server = api.NewServer(config)
		log.Println("serving mock sale data (development mode)")
	} else {
		service, err := api.NewKeeperService(*owner, *paymentDenom, clog.NewNopLogger())
		if err != nil {
			log.Fatalf("failed to create keeper service: %v", err)
		}
		server = api.NewServerWithService(config, service)
		log.Printf("serving keeper-backed sale engine, owner %s", service.Owner())
	}

	// Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Printf("server stopped: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
