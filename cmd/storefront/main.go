package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/shoplane/storefront-core/httpapi"
	"github.com/shoplane/storefront-core/internal/config"
	"github.com/shoplane/storefront-core/reconcile"
	"github.com/shoplane/storefront-core/server"
	"github.com/shoplane/storefront-core/session"
	"github.com/shoplane/storefront-core/storage/filestore"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running storefront: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Storefront stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())

	store, err := filestore.Open(c.GetStoragePath())
	if err != nil {
		return fmt.Errorf("filestore.Open: %w", err)
	}

	guard, err := session.NewGuard(store)
	if err != nil {
		return fmt.Errorf("session.NewGuard: %w", err)
	}
	if _, err := guard.Hydrate(context.Background()); err != nil {
		log.Printf("Session hydration failed: %s\n", err)
	}

	backendHTTP := &http.Client{Timeout: time.Duration(c.GetBackendTimeoutSeconds()) * time.Second}
	backend, err := httpapi.NewClient(c.GetBackendBaseURL(), guard, httpapi.WithHTTPClient(backendHTTP))
	if err != nil {
		return fmt.Errorf("httpapi.NewClient: %w", err)
	}

	shell, err := server.New(guard, reconcile.Deps{
		Backend: backend,
		Creator: backend,
		Durable: store,
	})
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: shell}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

func listenAndServe(server *http.Server) error {
	log.Printf("Storefront shell listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
