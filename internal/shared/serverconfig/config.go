package serverconfig

import (
	"errors"
	"os"

	"Pandemic/internal/shared/config"
)

const defaultConfigRelPath = "configs/conf.yml"

var (
	Conf       Config
	loadedPath string
)

// Load 读取配置：传入路径优先，否则从当前目录向上查找 configs/conf.yml。
func Load(path string) error {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		found, err := config.FindUpward(wd, defaultConfigRelPath)
		if err != nil {
			return err
		}
		path = found
	}
	if err := config.Load(path, &Conf); err != nil {
		return err
	}
	Conf.applyDefaults()
	loadedPath = path
	return nil
}

// WatchLog 监听已加载的配置文件，每次变更后把新的日志配置交给 fn。
// 只热更新日志相关配置，其余字段需要重启生效。
func WatchLog(fn func(LogConfig)) error {
	if loadedPath == "" {
		return errors.New("config not loaded")
	}
	var watched Config
	return config.Load(loadedPath, &watched, config.WithWatch(func(err error) {
		if err == nil {
			fn(watched.Log)
		}
	}))
}

func (c *Config) applyDefaults() {
	if c.Game.Store == "" {
		c.Game.Store = "memory"
	}
	if c.Game.Journal == "" {
		c.Game.Journal = "none"
	}
	if c.Game.JournalPath == "" {
		c.Game.JournalPath = "data/journal.db"
	}
	if c.Game.FlushEveryMs <= 0 {
		c.Game.FlushEveryMs = 3000
	}
	if c.Game.AskTimeoutMs <= 0 {
		c.Game.AskTimeoutMs = 3000
	}
	if c.HTTPServer.Port == 0 {
		c.HTTPServer.Port = 8080
	}
}
