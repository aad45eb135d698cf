// Command server runs the FoodBridge donation service: the donation
// lifecycle API, the chat API and the websocket fan-out, plus the audit
// worker and the cross-node bridge when their backends are configured.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"foodbridge/internal/chat"
	"foodbridge/internal/donation"
	httpapi "foodbridge/internal/http"
	"foodbridge/internal/identity"
	"foodbridge/internal/inventory"
	"foodbridge/internal/payment"
	"foodbridge/internal/platform/config"
	"foodbridge/internal/platform/httpserver"
	"foodbridge/internal/platform/logger"
	platformredis "foodbridge/internal/platform/redis"
	"foodbridge/internal/ratelimit"
	"foodbridge/internal/realtime"
	"foodbridge/pkg/platform/audit"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: Postgres when configured, otherwise in-process memory.
	var (
		db             *sql.DB
		inventoryStore inventory.Store    = inventory.NewInMemoryStore()
		chatStore      chat.Store         = chat.NewInMemoryStore()
		donationStore  donation.Store     = donation.NewInMemoryStore()
		directory      identity.Directory = identity.NewInMemoryDirectory()
	)
	if cfg.PostgresDSN != "" {
		var err error
		db, err = sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("opening postgres failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		inventoryStore = inventory.NewPostgresStore(db)
		chatStore = chat.NewPostgresStore(db)
		donationStore = donation.NewPostgresStore(db)
		directory = identity.NewPostgresDirectory(db)
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connecting redis failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Realtime: local router, plus the Redis bridge when running multi-node.
	router := realtime.NewRouter()
	var bridge *realtime.Bridge
	if redisClient != nil {
		bridge = realtime.NewBridge(redisClient, router, log)
	}
	fanout := realtime.NewFanout(router, bridge, log)

	// Audit: Kafka when brokers are configured, memory sink otherwise.
	var sink audit.Sink = audit.NewMemorySink()
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("connecting kafka failed", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		sink = kafkaSink
	}
	auditor := audit.NewPublisher(1024, log)

	var payments payment.Authorizer
	if cfg.PaymentProviderURL != "" {
		payments = payment.NewClient(cfg.PaymentProviderURL, cfg.PaymentTimeout, log)
	}

	validator := identity.NewJWTValidator(cfg.JWTSigningKey)
	ledger := inventory.NewLedger(inventoryStore)
	chatService := chat.NewService(chatStore)
	donationService := donation.NewService(donationStore, ledger, chatService,
		fanout, directory, payments, auditor, log)

	checks := map[string]httpapi.HealthChecker{}
	if db != nil {
		checks["postgres"] = dbHealth{db}
	}
	if redisClient != nil {
		checks["redis"] = redisClient
	}

	apiLimiter := ratelimit.NewLimiter(cfg.APIRateLimit, time.Minute)
	messageLimiter := ratelimit.NewLimiter(cfg.MessageRateLimit, time.Minute)

	handler := httpapi.NewRouter(httpapi.Deps{
		Validator: validator,
		Logger:    log,
		API: []httpapi.Registrar{
			donation.NewHandler(donationService, log),
			chat.NewHandler(chatService, chatNotifier{fanout}, log),
		},
		Socket:  realtime.NewHandler(validator, router, fanout, chatService, messageLimiter, log),
		Limiter: apiLimiter,
		Checks:  checks,
	})

	srv := httpserver.New(cfg.Addr, handler)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting foodbridge", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		err := audit.NewWorker(sink, auditor.Inbox(), log).Run(groupCtx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	if bridge != nil {
		group.Go(func() error {
			err := bridge.Run(groupCtx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	group.Go(func() error {
		<-groupCtx.Done()
		router.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

// chatNotifier adapts the realtime fan-out to the chat handler's interface.
type chatNotifier struct {
	fanout *realtime.Fanout
}

func (n chatNotifier) DeliverMessage(ctx context.Context, msg chat.Message, participantIDs []string, excludeUserID string) {
	n.fanout.DeliverMessage(ctx, realtime.MessagePayload{
		ID:        msg.ID,
		ChatID:    msg.ChatID,
		SenderID:  msg.SenderID,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}, participantIDs, excludeUserID)
}

type dbHealth struct {
	db *sql.DB
}

func (h dbHealth) Health(ctx context.Context) error {
	return h.db.PingContext(ctx)
}
