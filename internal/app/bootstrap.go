package app

import (
	"context"
	"log"
	"time"

	"sweepDeskApp/config"
	"sweepDeskApp/internal/app/dto"
	"sweepDeskApp/internal/domain/repository"
	"sweepDeskApp/internal/domain/service"
	ws "sweepDeskApp/internal/handlers/websocket"
	walletcache "sweepDeskApp/internal/infrastructure/cache"
	"sweepDeskApp/internal/infrastructure/queue"
	"sweepDeskApp/internal/infrastructure/sessionctl"
	chrepo "sweepDeskApp/internal/infrastructure/storage"
	"sweepDeskApp/internal/infrastructure/transfer"
)

// Processor defines the common interface for the event processor
type Processor interface {
	Run(ctx context.Context) error
}

// AppContext holds all app dependencies
type AppContext struct {
	Config         *config.Config
	Validation     *service.ValidationController
	Recovery       *service.RecoveryService
	WalletStore    repository.WalletStore
	SweepAudit     repository.SweepAudit
	SessionAPI     repository.SessionControl
	Broadcaster    *ws.WebSocketBroadcaster
	EventProcessor Processor
	KafkaConsumer  *queue.KafkaConsumer
	KafkaProducer  *queue.KafkaProducer
	EventCh        chan *dto.SessionEvent
}

// NewApp initializes the app context with all dependencies
func NewApp(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	app := &AppContext{Config: cfg}
	log.Println("Configuration loaded")

	// Wallet-state store: Redis, with an in-memory fallback so the
	// dashboard still works against demo data when Redis is down
	var wallets repository.WalletStore
	redisStore := walletcache.NewRedisWalletStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	err := redisStore.Ping(pingCtx)
	cancel()
	if err != nil {
		log.Printf("Warning: Redis unavailable (%v), using in-memory wallet store", err)
		wallets = walletcache.NewMemoryWalletStore()
	} else {
		wallets = redisStore
		log.Println("Redis wallet store initialized")
	}
	app.WalletStore = wallets

	// Sweep audit: ClickHouse is optional, sweeps proceed without it
	var audit repository.SweepAudit
	chConfig := chrepo.ClickHouseConfig{
		Addr:     cfg.ClickhouseAddr,
		Username: cfg.ClickhouseUsername,
		Password: cfg.ClickhousePassword,
		Timeout:  cfg.ClickhouseTimeout,
	}
	clickhouseRepo, err := chrepo.NewClickHouseRepository(chConfig)
	if err != nil {
		log.Printf("Warning: Failed to connect to ClickHouse: %v. Continuing without sweep audit.", err)
	} else {
		audit = clickhouseRepo
		log.Println("ClickHouse sweep audit initialized")
	}
	app.SweepAudit = audit

	// Setup broadcaster
	app.Broadcaster = ws.NewWebSocketBroadcaster()

	// External collaborators
	app.SessionAPI = sessionctl.NewClient(cfg.SessionAPIURL, 10*time.Second)
	transfers := transfer.NewHTTPBackend(cfg.TransferAPIURL, 30*time.Second)

	// Domain services
	app.Validation = service.NewValidationController()
	app.Recovery = service.NewRecoveryService(
		wallets,
		transfers,
		audit,
		app.Broadcaster,
		cfg.DustThreshold,
		time.Duration(cfg.SweepSettleDelayMs)*time.Millisecond,
	)
	log.Println("Validation controller and recovery service initialized")

	// Refresh-trigger pipeline: Kafka when configured, direct channel otherwise
	app.EventCh = make(chan *dto.SessionEvent, cfg.EventBufferSize)
	processor := NewEventProcessor(app.EventCh, app.Validation, app.Broadcaster)
	app.EventProcessor = processor

	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaBrokers[0] != "" {
		kafkaConfig := queue.KafkaConfig{
			Brokers:       cfg.KafkaBrokers,
			Topic:         cfg.KafkaTopic,
			ConsumerGroup: cfg.KafkaConsumerGroup,
			BatchSize:     cfg.KafkaBatchSize,
			BatchTimeout:  cfg.KafkaBatchTimeout,
		}
		app.KafkaConsumer = queue.NewKafkaConsumer(kafkaConfig)
		app.KafkaProducer = queue.NewKafkaProducer(kafkaConfig)
		// The processor acks each applied event so its offset is committed
		processor.Acker = app.KafkaConsumer

		eventCh, err := app.KafkaConsumer.Subscribe(ctx)
		if err != nil {
			log.Fatalf("Failed to subscribe to Kafka: %v", err)
		}
		go bridgeEvents(ctx, eventCh, app.EventCh)
		log.Println("Kafka consumer subscribed to session-events topic")
	} else {
		log.Println("Kafka not configured, using direct channel for refresh triggers")
	}

	return app, nil
}

// bridgeEvents forwards consumed Kafka events into the processor channel.
func bridgeEvents(ctx context.Context, from <-chan *dto.SessionEvent, to chan<- *dto.SessionEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, open := <-from:
			if !open {
				return
			}
			select {
			case <-ctx.Done():
				return
			case to <- event:
			}
		}
	}
}

// Cleanup performs graceful shutdown of all components
func (a *AppContext) Cleanup(ctx context.Context) {
	if a.KafkaConsumer != nil {
		log.Println("Closing Kafka consumer...")
		if err := a.KafkaConsumer.Close(); err != nil {
			log.Printf("Error closing Kafka consumer: %v", err)
		}
	}

	if a.KafkaProducer != nil {
		log.Println("Closing Kafka producer...")
		if err := a.KafkaProducer.Close(); err != nil {
			log.Printf("Error closing Kafka producer: %v", err)
		}
	}

	if a.EventCh != nil {
		log.Println("Closing event channel...")
		close(a.EventCh)
	}

	log.Println("All resources cleaned up")
}
