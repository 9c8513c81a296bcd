package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"pharmadesk.org/internal/audit"
	"pharmadesk.org/internal/auth"
	"pharmadesk.org/internal/httpapi"
	"pharmadesk.org/internal/obs"
	"pharmadesk.org/internal/store"
	"pharmadesk.org/internal/store/pg"
	"pharmadesk.org/internal/stream"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	// Backend selection: Postgres when a DSN is set, the simulated backend
	// with its demo datasets otherwise.
	var backend store.Backend
	var db *sql.DB
	if dsn := os.Getenv("PHARMADESK_PG_DSN"); dsn != "" {
		pgStore, err := pg.Open(dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		backend = pgStore
		db = pgStore.DB()
	} else {
		backend = store.NewSimulated()
	}

	st := store.New(backend)
	auditLog := audit.NewLog()
	st.AddSink(audit.NewRecorder(auditLog))

	bus := stream.New()
	st.AddSink(stream.NewFanout(bus))

	if interval := os.Getenv("PHARMADESK_DEMO_STREAM"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			log.Fatalf("parse PHARMADESK_DEMO_STREAM: %v", err)
		}
		stop := bus.StartRefresh(d)
		defer stop()
	}

	// Warm the dashboard collections before serving. Each fetch fails
	// independently; a single broken collection must not take the others
	// down with it.
	warmCtx, cancelWarm := context.WithTimeout(context.Background(), 15*time.Second)
	var wg sync.WaitGroup
	for name, fetch := range map[string]func(context.Context) error{
		"orders":    st.FetchOrders,
		"products":  st.FetchProducts,
		"officines": st.FetchOfficines,
	} {
		name, fetch := name, fetch
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fetch(warmCtx); err != nil {
				log.Printf("warm %s: %v", name, err)
			}
		}()
	}
	wg.Wait()
	cancelWarm()

	gate := auth.NewService(auth.NewDemoVerifier(auth.NewDemoDirectory()))
	api := httpapi.New(httpapi.ReadyProbe{DB: db}, version, st, gate, auditLog, bus)

	addr := os.Getenv("PHARMADESK_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting pharmadesk-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
