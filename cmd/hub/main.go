package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"token_hub/internal/app"
	"token_hub/internal/config"
	"token_hub/internal/ledger"
	"token_hub/internal/pkg/logger"
	"token_hub/internal/service"
	"token_hub/internal/storage"
)

// openStore picks the persistence adapter: Postgres when a database URI is
// configured, the embedded Badger store otherwise.
func openStore(l *logger.Logger) (storage.Store, string, error) {
	if config.DatabaseURI != "" {
		store, err := storage.NewPostgres(config.DatabaseURI, l)
		return store, "postgres", err
	}
	store, err := storage.NewBadger(config.StorePath, l)
	return store, "badger", err
}

func main() {
	var l *logger.Logger
	var err error
	if l, err = logger.CreateLogger(config.LogLevel); err != nil {
		log.Fatal("Failed to create logger:", err)
	}

	store, storeKind, err := openStore(l)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()
	l.Startup(config.ServerRunAddress, storeKind)

	hydrateCtx := context.Background()
	balances, err := ledger.NewBalances(hydrateCtx, store, l, config.DefaultGrant)
	if err != nil {
		log.Fatal(err)
	}
	transfers, err := ledger.NewTransfers(hydrateCtx, store, l, balances)
	if err != nil {
		log.Fatal(err)
	}

	app := app.NewApp(balances, transfers, store, l)
	service := service.NewService(app, config.ServerRunAddress, l)

	const readHeaderTimeout = 5 * time.Second
	server := &http.Server{Addr: config.ServerRunAddress, Handler: service.NewRouter(), ReadHeaderTimeout: readHeaderTimeout}

	serverCtx, serverStopCtx := context.WithCancel(context.Background())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		const shutdownTimeout = 30 * time.Second
		shutdownCtx, cancel := context.WithTimeout(serverCtx, shutdownTimeout)
		defer cancel()

		go func() {
			<-shutdownCtx.Done()
			if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		defer store.Close()
		log.Fatal(err)
	}

	<-serverCtx.Done()
}
