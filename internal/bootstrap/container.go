package bootstrap

import (
	"context"
	"log"
	"time"

	"identity-coach-be/internal/config"
	"identity-coach-be/internal/controller"
	"identity-coach-be/internal/pkg/logger"
	"identity-coach-be/internal/repository/memory"
	"identity-coach-be/internal/repository/unitofwork"
	"identity-coach-be/internal/service"
	"identity-coach-be/pkg/coaching/assistant"
	"identity-coach-be/pkg/coaching/audit"
	"identity-coach-be/pkg/coaching/catalog"
	"identity-coach-be/pkg/coaching/contract"
	"identity-coach-be/pkg/coaching/dispatch"
	"identity-coach-be/pkg/coaching/lock"
	"identity-coach-be/pkg/coaching/prompt"
	"identity-coach-be/pkg/llm/factory"

	pktNats "identity-coach-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	CoachingController controller.ICoachingController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	auditLogger := logger.NewIsolatedLogger(cfg.App.AuditLogFilePath)

	var uowFactory unitofwork.RepositoryFactory
	if cfg.Coaching.StoreDriver == "memory" || db == nil {
		log.Printf("[INFO] Using coaching store: MEMORY")
		uowFactory = memory.NewRepositoryFactory(memory.NewStore())
	} else {
		uowFactory = unitofwork.NewRepositoryFactory(db)
	}

	c := &Container{}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Infrastructure
	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.Coaching.UseRedisLock {
		if rdb := connectRedis(cfg.App.RedisURL); rdb != nil {
			locker = lock.NewRedisLocker(rdb, cfg.Coaching.LockTTL, cfg.Coaching.LockWait, sysLogger)
			c.closers = append(c.closers, func() { _ = rdb.Close() })
			log.Printf("[INFO] Using coaching lock: REDIS")
		} else {
			log.Printf("[INFO] Using coaching lock: LOCAL")
		}
	}

	// Left as a nil interface when forwarding is off.
	var forwarder service.EventPublisher
	if cfg.Coaching.AuditForwardNats {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			forwarder = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	// 4. Coaching Core
	actions := catalog.Default()
	contracts := contract.NewBuilder(actions, sysLogger)
	engine := dispatch.NewEngine(actions, uowFactory, sysLogger,
		dispatch.WithAtomic(cfg.Coaching.DispatchAtomic),
		dispatch.WithLocker(locker),
		dispatch.WithAuditSink(audit.NewWatermillSink(pubSub, cfg.Coaching.AuditTopic, sysLogger)),
	)
	prompts := prompt.NewTableProvider(uowFactory)

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.HuggingFace,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	model := cfg.Coaching.LLMModel
	if model == "" {
		model = cfg.Ai.LLMModel
	}

	// 5. Services
	coachingService := service.NewCoachingService(
		uowFactory,
		engine,
		contracts,
		prompts,
		assistant.New(llmProvider, sysLogger),
		memory.NewDirectiveRepository(cfg.Coaching.DirectiveTTL),
		model,
		sysLogger,
	)
	c.ConsumerService = service.NewConsumerService(
		pubSub,
		cfg.Coaching.AuditTopic,
		uowFactory,
		forwarder,
		auditLogger,
	)

	// 6. Controllers
	c.CoachingController = controller.NewCoachingController(coachingService)

	c.closers = append(c.closers, func() {
		_ = sysLogger.Sync()
		_ = auditLogger.Sync()
	})
	return c
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func connectRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}
