package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"Pandemic/internal/contagion/app/port"
	"Pandemic/internal/contagion/entity"
	"Pandemic/internal/contagion/infra/persistence/memory"
	contagionmongo "Pandemic/internal/contagion/infra/persistence/mongodb"
	contagionmysql "Pandemic/internal/contagion/infra/persistence/mysql"
	contagionsqlite "Pandemic/internal/contagion/infra/persistence/sqlite"
	"Pandemic/internal/shared/config"
	"Pandemic/internal/shared/gameconfig/board"
	sharedmysql "Pandemic/internal/shared/infrastructure/db"
	sharedmongo "Pandemic/internal/shared/infrastructure/mongo"
	"Pandemic/internal/shared/serverconfig"
	"Pandemic/modules/kit/logx"

	"go.uber.org/zap"
)

// loadSetup 读取开局地图；相对路径从当前目录向上查找。
func loadSetup(path string) (entity.Setup, error) {
	if path == "" {
		path = "configs/board.yml"
	}
	if !filepath.IsAbs(path) {
		wd, err := os.Getwd()
		if err != nil {
			return entity.Setup{}, err
		}
		found, err := config.FindUpward(wd, path)
		if err != nil {
			return entity.Setup{}, err
		}
		path = found
	}
	return board.Load(path)
}

type closer func()

// openRepo 按配置选择快照仓库。
func openRepo(cfg serverconfig.Config, setup entity.Setup, l *zap.Logger) (port.BoardRepository, closer, error) {
	switch cfg.Game.Store {
	case "", "memory":
		return memory.NewBoardRepository(setup), func() {}, nil
	case "mongodb":
		store, err := sharedmongo.Open(cfg.MongoDB, l)
		if err != nil {
			return nil, nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := store.EnsureCollection(ctx, contagionmongo.CollectionName); err != nil {
			store.Close()
			return nil, nil, err
		}
		repo := contagionmongo.NewBoardRepository(store.DB, setup)
		if err := repo.EnsureIndexes(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
		return repo, store.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown game.store %q", cfg.Game.Store)
}

// openJournal 按配置选择事件日志；none 时返回 nil，引擎不记录事件。
func openJournal(cfg serverconfig.Config, logger logx.Logger) (port.JournalFactory, closer, error) {
	switch cfg.Game.Journal {
	case "", "none":
		return nil, func() {}, nil
	case "log":
		return memory.NewJournal(logger, memory.KeepLast(0)), func() {}, nil
	case "mysql":
		db, err := sharedmysql.Open(cfg.MySQL)
		if err != nil {
			return nil, nil, err
		}
		repo := contagionmysql.NewJournalRepo(db)
		if err := repo.AutoMigrate(); err != nil {
			return nil, nil, err
		}
		return repo, func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}, nil
	case "sqlite":
		path := cfg.Game.JournalPath
		if dir := filepath.Dir(path); path != ":memory:" && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, err
			}
		}
		repo, err := contagionsqlite.Open(path)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = repo.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown game.journal %q", cfg.Game.Journal)
}
