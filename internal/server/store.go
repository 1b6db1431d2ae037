package server

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/sngm3741/riskboard/api/internal/config"
	"github.com/sngm3741/riskboard/api/internal/infrastructure/memory"
	mongostore "github.com/sngm3741/riskboard/api/internal/infrastructure/mongo"
	"github.com/sngm3741/riskboard/api/internal/infrastructure/postgres"
	surveyapp "github.com/sngm3741/riskboard/api/internal/survey/application"
)

const defaultConnectTimeout = 10 * time.Second

// Store is an opened response repository together with its release function.
type Store struct {
	Repository surveyapp.ResponseRepository
	Close      func(context.Context) error
}

// OpenStore は設定されたドライバで回答ストアへ接続し、インデックスやテーブルを用意する。
func OpenStore(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (*Store, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger = logger.Named("store")

	switch cfg.Driver {
	case config.DriverMemory, "":
		logger.Warn("インメモリストアを使用します。再起動で回答は失われます")
		return &Store{
			Repository: memory.NewResponseRepository(),
			Close:      func(context.Context) error { return nil },
		}, nil

	case config.DriverMongo:
		clientOptions := options.Client().ApplyURI(cfg.MongoURI).SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
		client, err := mongo.Connect(ctx, clientOptions)
		if err != nil {
			return nil, fmt.Errorf("MongoDB 接続に失敗しました: %w", err)
		}
		repo := mongostore.NewResponseRepository(client, cfg.MongoDatabase, cfg.ResponseCollection)
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("MongoDB インデックス作成に失敗しました: %w", err)
		}
		logger.Info("MongoDB に接続しました",
			zap.String("database", cfg.MongoDatabase),
			zap.String("collection", cfg.ResponseCollection),
		)
		return &Store{Repository: repo, Close: client.Disconnect}, nil

	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("PostgreSQL に接続しました")
		return &Store{
			Repository: postgres.NewResponseRepository(pool),
			Close: func(context.Context) error {
				pool.Close()
				return nil
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
