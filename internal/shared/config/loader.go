package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

type options struct {
	hooks    []mapstructure.DecodeHookFunc
	onChange func(error)
}

type Option func(*options)

// WithDecodeHook 追加自定义的 mapstructure 解码钩子（在默认的 duration/slice 钩子之后执行）。
func WithDecodeHook(h mapstructure.DecodeHookFunc) Option {
	return func(o *options) {
		o.hooks = append(o.hooks, h)
	}
}

// WithWatch 开启文件监听，变更后重新解码到 out，并把解码结果回调给 fn。
// 注意：out 会被后台 goroutine 覆盖写，调用方需要自己保证读取时的并发安全。
func WithWatch(fn func(error)) Option {
	return func(o *options) {
		if fn == nil {
			fn = func(error) {}
		}
		o.onChange = fn
	}
}

// Load 读取 configPath 指向的配置文件（yaml/json/toml 按后缀识别）并解码到 out。
func Load(configPath string, out any, opts ...Option) error {
	if !fileExist(configPath) {
		return fmt.Errorf("config file not exist, configPath=%v", configPath)
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	hooks := append([]mapstructure.DecodeHookFunc{
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	}, o.hooks...)
	decode := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(hooks...))

	v := viper.New()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return err
	}
	if err := v.Unmarshal(out, decode); err != nil {
		return err
	}

	if o.onChange != nil {
		v.OnConfigChange(func(e fsnotify.Event) {
			if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
				return
			}
			o.onChange(v.Unmarshal(out, decode))
		})
		v.WatchConfig()
	}
	return nil
}

// MustLoad 同 Load，失败直接 panic，只用于进程启动阶段。
func MustLoad(configPath string, out any, opts ...Option) {
	if err := Load(configPath, out, opts...); err != nil {
		panic(err)
	}
}

// FindUpward 从 startDir 开始逐级向上查找 rel 指向的文件。
func FindUpward(startDir, rel string) (string, error) {
	if filepath.IsAbs(rel) {
		if fileExist(rel) {
			return rel, nil
		}
		return "", fmt.Errorf("config file not exist: %s", rel)
	}
	dir := startDir
	for {
		candidate := filepath.Join(dir, rel)
		if fileExist(candidate) {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("config file not exist, searched " + rel + " from: " + startDir)
		}
		dir = parent
	}
}

func fileExist(fileName string) bool {
	_, err := os.Stat(fileName)
	return err == nil
}
