package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"busline/internal/auth"
	"busline/internal/cache"
	intconfig "busline/internal/config"
	intdb "busline/internal/db"
	"busline/internal/hold"
	router "busline/internal/http"
	"busline/internal/ledger"
	"busline/internal/scheduler"
	"busline/internal/services"

	"github.com/gin-gonic/gin"
)

func main() {
	env := intconfig.LoadEnv()
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	db := intconfig.ConnectDB(env.DBDSN)
	defer intconfig.CloseDB()

	if err := intdb.Migrate(db); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	cache.SetDefault(&cache.Snapshots{
		Client: intconfig.ConnectRedis(env.RedisURL),
		TTL:    env.SnapshotTTL,
	})

	auth.SetSecret(env.JWTSecret)
	hold.SetDefault(hold.NewManager(ledger.MySQLLedger{}, env.HoldTTL))

	// Background reconciliation: expired holds, past trips, orphaned bookings.
	reconcileCtx, stopReconcile := context.WithCancel(context.Background())
	defer stopReconcile()
	go scheduler.New(services.ReconcileService{}, env.ReconcileInterval).Start(reconcileCtx)

	r := router.NewRouter(env)

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("server listening on http://localhost%s", env.AppAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	stopReconcile()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server shutdown failed: %v", err)
	}

	log.Println("server stopped cleanly.")
}
