package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"subpay-indexer.backend/internal/config"
	"subpay-indexer.backend/internal/infrastructure/blockchain"
	"subpay-indexer.backend/internal/infrastructure/cache"
	"subpay-indexer.backend/internal/infrastructure/pinning"
	"subpay-indexer.backend/internal/infrastructure/price"
	"subpay-indexer.backend/internal/infrastructure/repositories"
	httpapi "subpay-indexer.backend/internal/interfaces/http"
	"subpay-indexer.backend/internal/interfaces/http/handlers"
	"subpay-indexer.backend/internal/interfaces/http/middleware"
	"subpay-indexer.backend/internal/usecases"
	"subpay-indexer.backend/pkg/logger"
	"subpay-indexer.backend/pkg/redis"
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	}
	runServer = func(ctx context.Context, r *gin.Engine, port string) error {
		srv := &http.Server{Addr: ":" + port, Handler: r}
		go func() {
			<-ctx.Done()
			_ = srv.Shutdown(context.Background())
		}()
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()

	initLog(cfg.Server.Env)
	logger.Info(context.Background(), "logger initialized", zap.String("env", cfg.Server.Env))

	if err := initRedis(cfg.Redis.URL, cfg.Redis.Password); err != nil {
		logger.Error(context.Background(), "failed to initialize redis", zap.Error(err))
		return fmt.Errorf("failed to initialize redis: %w", err)
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := openDB(cfg.Database.URL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()
	sqlDB.SetMaxOpenConns(1)

	if err := repositories.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to auto-migrate schema: %w", err)
	}

	mdb := repositories.NewMutexDB(db)
	store := repositories.NewEntityStore(mdb)
	cursors := repositories.NewCursorRepository(mdb)
	metaRepo := repositories.NewMetadataRepository(mdb)

	pin := pinning.NewClient(cfg.Pinning.BaseURL, cfg.Pinning.APIKey)
	priceVenue := price.NewClient(cfg.Price.VenueBaseURL)
	priceCache := cache.NewPriceCache(30 * time.Second)
	priceOracle := usecases.NewPriceOracle(priceVenue, priceCache, cfg.Price.SymbolByToken)

	log := logger.GetLogger()

	clients := blockchain.NewClientFactory()

	var chainIDs []string
	var chainSchedulers []*usecases.ChainScheduler
	for _, chainCfg := range cfg.Chains {
		chainIDs = append(chainIDs, chainCfg.ChainID)

		client, err := clients.GetEVMClient(chainCfg.RPCURL)
		if err != nil {
			return fmt.Errorf("failed to dial chain %s: %w", chainCfg.ChainID, err)
		}

		resolver := usecases.NewMetadataResolver(metaRepo, pin, log)
		scanner := usecases.NewLogScanner(chainCfg.ChainID, chainCfg.RouterAddress, client, cursors, store, resolver, log)

		var priorityFee *big.Int
		if chainCfg.PriorityFeeWei > 0 {
			priorityFee = new(big.Int).SetUint64(chainCfg.PriorityFeeWei)
		}

		initiator, err := usecases.NewPaymentInitiator(chainCfg.ChainID, chainCfg.RouterAddress, priorityFee,
			cfg.Signing.InitiatorPrivateKeyHex, client, cursors, store, priceOracle, log)
		if err != nil {
			return fmt.Errorf("failed to build payment initiator for chain %s: %w", chainCfg.ChainID, err)
		}

		chainSchedulers = append(chainSchedulers, usecases.NewChainScheduler(chainCfg.ChainID, chainCfg.MinBlock, scanner, initiator, log))
	}

	scheduler := usecases.NewScheduler(chainSchedulers)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go scheduler.Start(ctx)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())

	httpapi.RegisterRoutes(r, httpapi.RouteDeps{
		Subscription: handlers.NewSubscriptionHandler(store),
		Metadata:     handlers.NewMetadataHandler(metaRepo, pin),
		Hash:         handlers.NewHashHandler(),
		Health:       handlers.NewHealthHandler(cursors, chainIDs),
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info("shutting down")
		cancel()
	}()

	log.Info("subpay indexer starting", zap.String("port", cfg.Server.Port))
	if err := runServer(ctx, r, cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
