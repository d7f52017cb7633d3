/**
 * @description
 * This is the main entry point for the recharge service. It is responsible for
 * initializing all components of the service, including configuration, database
 * connection, the balance service client, the message broker producer, repositories,
 * the core application service, and the HTTP server. It wires everything together,
 * starts the background reconciler, and runs the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - internal/recharge/*: Internal packages for the service.
 * - pkg/balanceclient: Client for the balance service.
 * - pkg/rabbitmq: Client for RabbitMQ.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/nextcell/mobile-topup/internal/recharge/api"
	"github.com/nextcell/mobile-topup/internal/recharge/app"
	"github.com/nextcell/mobile-topup/internal/recharge/config"
	"github.com/nextcell/mobile-topup/internal/recharge/store"
	"github.com/nextcell/mobile-topup/pkg/balanceclient"
	"github.com/nextcell/mobile-topup/pkg/rabbitmq"
)

func main() {
	// Load .env if present; environment variables take precedence either way.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"jwt secret must be configured\" env=JWT_SECRET")
	}
	if strings.TrimSpace(cfg.BalanceServiceURL) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"balance service url must be configured\" env=BALANCE_SERVICE_URL")
	}

	log.Printf("level=info component=bootstrap msg=\"starting recharge-service\" port=%s", cfg.ServerPort)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}

	// Configure connection pool for high-traffic scenarios.
	poolConfig.MaxConns = 100
	poolConfig.MinConns = 20
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	// Initialize the RabbitMQ producer to publish top-up and reconciliation events.
	var events rabbitmq.Publisher
	producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
	} else {
		defer producer.Close()
		events = producer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	// Initialize the client for the balance service.
	balanceClient := balanceclient.NewClient(cfg.BalanceServiceURL, cfg.BalanceServiceInternalAPIKey)

	// Optional redis for distributed top-up rate limiting.
	var redisClient *redis.Client
	if cfg.TopUpRateLimitPerMinute > 0 {
		if cfg.RedisURL == "" {
			log.Println("level=warn component=bootstrap msg=\"redis url missing; top-up rate limiting disabled\" env=REDIS_URL")
		} else {
			redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
			if parseErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; top-up rate limiting disabled\" err=%v", parseErr)
			} else {
				redisClient = redis.NewClient(redisOptions)
				pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancelPing()
				if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
					log.Printf("level=warn component=bootstrap msg=\"redis ping failed; top-up rate limiting disabled\" err=%v", pingErr)
					redisClient.Close()
					redisClient = nil
				} else {
					defer redisClient.Close()
					log.Println("level=info component=bootstrap msg=\"redis connected\"")
				}
			}
		}
	}

	// Initialize the data access layer (repository).
	repository := store.NewPostgresRepository(dbpool)

	// Initialize the core application service with its dependencies.
	rechargeService := app.NewService(repository, balanceClient, events, app.Config{
		ChargeFee:                      cfg.ChargeFeeFils,
		DefaultUserMonthlyLimit:        cfg.UserMonthlyTopUpLimitFils,
		DefaultBeneficiaryMonthlyLimit: cfg.BeneficiaryMonthlyTopUpLimit,
		TopUpRateLimitPerMinute:        cfg.TopUpRateLimitPerMinute,
		EventExchange:                  cfg.TopUpEventExchange,
	})
	if redisClient != nil {
		rechargeService.SetRateLimiter(app.NewRedisTopUpRateLimiter(redisClient, cfg.RedisRateLimitPrefix))
	}

	authenticator := app.NewAuthenticator(repository, app.AuthConfig{
		JWTSecret: []byte(cfg.JWTSecret),
		TokenTTL:  time.Duration(cfg.JWTTokenTTLMinutes) * time.Minute,
	})

	// Start the background reconciler for orphaned top-up attempts.
	reconcilerCtx, stopReconciler := context.WithCancel(context.Background())
	defer stopReconciler()
	go rechargeService.RunReconciler(
		reconcilerCtx,
		time.Duration(cfg.ReconcileIntervalSeconds)*time.Second,
		time.Duration(cfg.ReconcileOrphanAgeSeconds)*time.Second,
	)

	// Initialize the API handlers and router.
	handlers := api.NewRechargeHandlers(rechargeService, authenticator)
	router := api.RechargeRoutes(handlers, []byte(cfg.JWTSecret))

	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")
	stopReconciler()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
