package mongo

import (
	"context"
	"errors"
	"slices"
	"time"

	"Pandemic/internal/shared/serverconfig"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

var (
	ErrEmptyURI      = errors.New("mongodb uri is empty")
	ErrEmptyDatabase = errors.New("mongodb database is empty")
)

// Store 一个连接加上对局快照所在的库。
type Store struct {
	Client  *mongo.Client
	DB      *mongo.Database
	timeout time.Duration
	logger  *zap.Logger
}

func connectTimeout(cfg serverconfig.MongoDBConfig) time.Duration {
	timeout := time.Duration(cfg.ConnectTimeoutS) * time.Second
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return timeout
}

func validate(cfg serverconfig.MongoDBConfig) error {
	if cfg.URI == "" {
		return ErrEmptyURI
	}
	if cfg.Database == "" {
		return ErrEmptyDatabase
	}
	return nil
}

func Open(cfg serverconfig.MongoDBConfig, l *zap.Logger) (*Store, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}
	if l == nil {
		l = zap.NewNop()
	}

	timeout := connectTimeout(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI).SetConnectTimeout(timeout))
	if err != nil {
		return nil, err
	}
	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	l.Info("open mongodb success",
		zap.String("uri", cfg.URI),
		zap.String("database", cfg.Database),
	)
	return &Store{
		Client:  client,
		DB:      client.Database(cfg.Database),
		timeout: timeout,
		logger:  l,
	}, nil
}

// EnsureCollection 集合不存在时显式创建，索引要建在已存在的集合上。
func (s *Store) EnsureCollection(ctx context.Context, name string) (*mongo.Collection, error) {
	names, err := s.DB.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return nil, err
	}
	if !slices.Contains(names, name) {
		if err := s.DB.CreateCollection(ctx, name); err != nil && !isNamespaceExists(err) {
			return nil, err
		}
		s.logger.Info("mongodb collection created", zap.String("collection", name))
	}
	return s.DB.Collection(name), nil
}

// isNamespaceExists 并发启动时另一个进程可能先建好了集合。
func isNamespaceExists(err error) bool {
	var ce mongo.CommandError
	return errors.As(err, &ce) && ce.Code == 48
}

func (s *Store) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.Client.Disconnect(ctx); err != nil {
		s.logger.Warn("mongodb disconnect failed", zap.Error(err))
	}
}
