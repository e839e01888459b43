package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"noisemap/backend/libs/db"
	"noisemap/backend/libs/redis"
	"noisemap/backend/services/laeq-service/internal/cache"
	"noisemap/backend/services/laeq-service/internal/clients"
	"noisemap/backend/services/laeq-service/internal/config"
	httpserver "noisemap/backend/services/laeq-service/internal/http"
	"noisemap/backend/services/laeq-service/internal/http/handlers"
	"noisemap/backend/services/laeq-service/internal/http/middleware"
	"noisemap/backend/services/laeq-service/internal/ingest"
	"noisemap/backend/services/laeq-service/internal/observability"
	"noisemap/backend/services/laeq-service/internal/publisher"
	"noisemap/backend/services/laeq-service/internal/repository"
	"noisemap/backend/services/laeq-service/internal/service"
	"noisemap/backend/services/laeq-service/internal/ws"
)

const wfsTimeout = 20 * time.Second

// App wires laeq service dependencies.
type App struct {
	server     *httpserver.Server
	live       *ws.Manager
	subscriber *ingest.Subscriber
	buffer     *ingest.Buffer
	db         *sql.DB
	redis      *goredis.Client
	publisher  *publisher.KafkaPublisher
	logger     *zap.Logger
}

// New constructs application components. Live connections are closed when ctx ends.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{logger: logger}
	metrics := observability.NewMetrics()

	deps := service.Deps{
		Metrics:   metrics,
		Location:  cfg.Location(),
		MaxPoints: cfg.Chart.MaxPoints,
		Logger:    logger.With(zap.String("component", "laeq_service")),
	}

	switch cfg.Source.Kind {
	case config.SourceWFS:
		wfs := clients.NewWFSClient(cfg.GeoServer.URL, clients.WFSConfig{
			SampleTypeName: cfg.GeoServer.TypeName,
			HexTypeName:    cfg.GeoServer.HexLayer,
			User:           cfg.GeoServer.User,
			Password:       cfg.GeoServer.Password,
		}, clients.NewDefaultHTTPClient(wfsTimeout), cfg.Location())
		deps.Cells, deps.Source, deps.View = wfs, wfs, wfs
	default:
		sqlDB, err := db.Open(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		a.db = sqlDB
		hexes := repository.NewHexRepository(sqlDB)
		deps.Cells, deps.Source, deps.View = hexes, repository.NewSampleRepository(sqlDB), hexes
	}

	if cfg.Redis.Addr != "" {
		client, err := redis.NewClient(ctx, redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			a.Close()
			return nil, err
		}
		a.redis = client
		deps.Cache = cache.NewRedisStore(client, cfg.Redis.TTL, metrics)
	} else {
		deps.Cache = cache.NewMemoryStore(cfg.Redis.TTL, metrics)
	}

	if len(cfg.Kafka.Brokers) > 0 {
		pub, err := publisher.NewKafkaPublisher(publisher.Config{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic}, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.publisher = pub
		deps.Publisher = pub
	}

	laeqSvc, err := service.NewLAeqService(deps)
	if err != nil {
		a.Close()
		return nil, err
	}

	var ai service.AIClient
	if cfg.AI.WebhookURL != "" {
		ai = clients.NewAIClient(cfg.AI.WebhookURL, cfg.AI.Timeout, clients.NewDefaultHTTPClient(cfg.AI.Timeout+5*time.Second))
	}
	askSvc := service.NewAskService(laeqSvc, ai, logger.With(zap.String("component", "ask_service")))

	a.buffer = ingest.NewBuffer(cfg.Live.Buffer)
	if cfg.MQTT.Broker != "" {
		clientID := cfg.MQTT.ClientID
		if clientID == "" {
			clientID = fmt.Sprintf("laeq-service-%d", time.Now().UnixNano())
		}
		a.subscriber = ingest.NewSubscriber(ingest.SubscriberConfig{
			Broker:   cfg.MQTT.Broker,
			Topic:    cfg.MQTT.Topic,
			ClientID: clientID,
		}, a.buffer, metrics, logger)
	}
	liveSvc := service.NewLiveService(a.buffer, cfg.Location(), nil)
	a.live = ws.NewManager(liveSvc, cfg.Live.Interval, metrics, logger.With(zap.String("component", "live")))

	routes := httpserver.Routes{
		LAeq:    handlers.NewLAeqHandler(laeqSvc, logger),
		Chart:   handlers.NewChartHandler(laeqSvc, logger),
		Ask:     handlers.NewAskHandler(askSvc, logger),
		Live:    ws.NewServer(ctx, a.live, 10*time.Second, logger),
		Health:  handlers.NewHealthHandler(),
		Metrics: metrics,
		AskAuth: middleware.Auth(cfg.Auth.JWTSecret, cfg.Auth.APIKeyHash),
	}
	router := httpserver.NewRouter(routes, logger)
	a.server = httpserver.NewServer(cfg.HTTPAddress(), router, cfg.AI.Timeout+15*time.Second, logger)

	return a, nil
}

// Run serves HTTP and runs the live pipeline until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	go a.live.Start(ctx)

	if a.subscriber != nil {
		go func() {
			if err := a.subscriber.Run(ctx); err != nil {
				a.logger.Error("mqtt subscriber stopped", zap.Error(err))
			}
		}()
	}

	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("failed to close kafka writer", zap.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
}
