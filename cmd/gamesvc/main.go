package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"

	configs "github.com/avvvet/monopoly-services/configs"
	"github.com/avvvet/monopoly-services/internal/comm"
	"github.com/avvvet/monopoly-services/internal/gamesvc/broker"
	"github.com/avvvet/monopoly-services/internal/gamesvc/config"
	"github.com/avvvet/monopoly-services/internal/gamesvc/db"
	handlers "github.com/avvvet/monopoly-services/internal/gamesvc/handlers"
	"github.com/avvvet/monopoly-services/internal/gamesvc/service"
	"github.com/avvvet/monopoly-services/internal/gamesvc/store"
	nats "github.com/avvvet/monopoly-services/internal/nats"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "game"

var instanceId string

func init() {
	configs.Logging(SERVICE_NAME + "_service")
	configs.LoadEnv(SERVICE_NAME)
	instanceId = configs.CreateUniqueInstance(SERVICE_NAME)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// pg connection
	dbpool, err := db.Connect(cfg.DBUrl)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer db.ClosePool()
	log.Printf("pg connection established successfully")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.Migrate(ctx, dbpool); err != nil {
		cancel()
		log.Fatalf("Failed to migrate DB: %v", err)
	}
	cancel()

	// Connect to NATS
	n, err := nats.Connect(cfg.NatsUrl, cfg.NatsToken, SERVICE_NAME+"-"+instanceId)
	if err != nil {
		log.Errorf("Error: unable to connect to NATS server %v", err)
		os.Exit(1)
	}
	defer n.Conn.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	publisher := broker.NewPublisher(n.Conn, instanceId)
	engine := service.NewGameEngine(store.NewPgStore(dbpool), cfg.Rules, service.SystemRandom(), publisher)

	if cfg.SeedBoard {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if _, err := engine.SeedStandardBoard(ctx); err != nil {
			log.Errorf("Error seeding the standard board %v", err)
		}
		cancel()
	}

	// commands from the socket service, shared across instances
	b := broker.NewBroker(n.Conn, engine, publisher)
	sub, err := b.QueueSubscribSocketService(comm.SocketSubject, SERVICE_NAME+"-workers")
	if err != nil {
		log.Errorf("Error: unable to subscribe to queue %v", err)
		os.Exit(1)
	}

	// Setup router
	r := chi.NewRouter()
	c := configs.CORS()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(configs.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(c.Handler)

	// to protect the service api from any over requests
	r.Use(httprate.LimitByIP(cfg.RateLimit, 1*time.Minute))

	// Init handlers and routes
	h := handlers.NewHandler(engine, cfg.Port)
	h.InitAuth(cfg.JWTSecret)
	h.SetRoutes(r)

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	// Wait for interrupt signal to gracefully shutdown the server
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	sub.Unsubscribe()

	ctx, cancel = context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
