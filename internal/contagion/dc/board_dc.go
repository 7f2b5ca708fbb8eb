package dc

import (
	"context"
	"errors"
	"sync"
	"time"

	"Pandemic/internal/contagion/app/port"
	"Pandemic/internal/contagion/entity"
	"Pandemic/modules/kit/logx"

	"go.uber.org/zap"
)

const (
	defaultFlushEvery = 3 * time.Second
	retryBackoff      = 200 * time.Millisecond
	// 关闭阶段最多重试的次数，避免仓库一直不可用时卡住退出
	closeRetries = 3
)

// BoardDC 是对局的数据中心：持有内存中的 Board，脏了就生成快照交给后台协程写库。
// 后台只保留最新版本的快照，旧快照会被覆盖。
type BoardDC struct {
	repo       port.BoardRepository
	logger     logx.Logger
	board      *entity.Board
	flushEvery time.Duration

	mu      sync.Mutex
	pending *entity.BoardSnapshot
	version uint64
	closed  bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

func NewBoardDC(repo port.BoardRepository, flushEvery time.Duration, logger logx.Logger) *BoardDC {
	if flushEvery <= 0 {
		flushEvery = defaultFlushEvery
	}
	if logger == nil {
		logger = logx.Nop()
	}
	d := &BoardDC{
		repo:       repo,
		logger:     logger,
		flushEvery: flushEvery,
		wake:       make(chan struct{}, 1),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	go d.writerLoop()
	return d
}

func (d *BoardDC) Load(ctx context.Context, id entity.GameID) (*entity.Board, error) {
	if d.repo == nil {
		return nil, errors.New("board repository is nil")
	}
	b, err := d.repo.LoadBoard(ctx, id)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	// 版本号接着已落库的继续，否则仓库会把新快照当成旧的丢掉
	d.version = b.PersistedVersion()
	d.mu.Unlock()
	d.board = b
	return b, nil
}

func (d *BoardDC) Board() *entity.Board {
	return d.board
}

// Version 是最近一次生成快照时使用的版本号。
func (d *BoardDC) Version() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.version
}

func (d *BoardDC) FlushEvery() time.Duration {
	return d.flushEvery
}

// Flush 把当前的变更做成快照排进写队列，不等待落库。
func (d *BoardDC) Flush(ctx context.Context) error {
	_ = ctx
	if d.board == nil || !d.board.Dirty() {
		return nil
	}
	if d.repo == nil {
		return errors.New("board repository is nil")
	}

	d.mu.Lock()
	d.version++
	version := d.version
	d.mu.Unlock()

	s, ok := d.board.BuildPersistSnapshot(version)
	if !ok {
		return nil
	}
	d.board.ClearDirty()
	d.enqueueLatest(s)
	return nil
}

// Close 先刷最后一次，再等后台协程把队列写完。
func (d *BoardDC) Close(ctx context.Context) error {
	_ = d.Flush(ctx)

	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.stop)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *BoardDC) enqueueLatest(s *entity.BoardSnapshot) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	if d.pending == nil || d.pending.Version < s.Version {
		d.pending = s
	}
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *BoardDC) popPending() *entity.BoardSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.pending
	d.pending = nil
	return s
}

// requeue 写失败时把快照放回去；如果期间已经有更新的快照，以新的为准。
func (d *BoardDC) requeue(s *entity.BoardSnapshot) {
	d.mu.Lock()
	if d.pending == nil || d.pending.Version < s.Version {
		d.pending = s
	}
	d.mu.Unlock()
}

func (d *BoardDC) writerLoop() {
	defer close(d.done)
	for {
		select {
		case <-d.wake:
			d.consumePending(-1)
		case <-d.stop:
			d.consumePending(closeRetries)
			return
		}
	}
}

// consumePending retries < 0 表示一直重试，直到成功或收到 stop。
func (d *BoardDC) consumePending(retries int) {
	failures := 0
	for {
		s := d.popPending()
		if s == nil {
			return
		}
		err := d.repo.Save(context.Background(), s)
		if err == nil {
			failures = 0
			continue
		}
		failures++
		d.logger.Warn("board snapshot save failed",
			zap.String("game_id", string(s.GameID)),
			zap.Uint64("version", s.Version),
			zap.Int("failures", failures),
			zap.Error(err),
		)
		if retries >= 0 && failures > retries {
			return
		}
		d.requeue(s)
		select {
		case <-d.stop:
			if retries < 0 {
				// 进入关闭流程，交给 stop 分支按有限次数重试
				return
			}
		case <-time.After(retryBackoff):
		}
	}
}
