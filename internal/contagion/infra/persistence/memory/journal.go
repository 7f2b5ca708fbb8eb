package memory

import (
	"context"
	"sync"

	"Pandemic/internal/contagion/app/port"
	"Pandemic/internal/contagion/domain"
	"Pandemic/internal/contagion/entity"
	"Pandemic/modules/kit/logx"

	"go.uber.org/zap"
)

// Journal 进程内的事件日志，可选地把每条事件打到日志里（simulate 用）。
type Journal struct {
	logger logx.Logger

	// keep 每局最多留多少条，小于 0 不限
	keep int

	mu     sync.Mutex
	events map[entity.GameID][]domain.Event
}

type JournalOption func(*Journal)

// KeepLast 每局只留最近 n 条事件；n 为 0 时只打日志不留存，常驻进程用这个。
func KeepLast(n int) JournalOption {
	return func(j *Journal) { j.keep = n }
}

func NewJournal(logger logx.Logger, opts ...JournalOption) *Journal {
	j := &Journal{
		logger: logger,
		keep:   -1,
		events: make(map[entity.GameID][]domain.Event),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

func (j *Journal) ForGame(id entity.GameID) port.Journal {
	return &gameJournal{parent: j, gameID: id}
}

// Events 返回一局事件的副本，按追加顺序。
func (j *Journal) Events(id entity.GameID) []domain.Event {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]domain.Event(nil), j.events[id]...)
}

type gameJournal struct {
	parent *Journal
	gameID entity.GameID
}

func (g *gameJournal) Append(ctx context.Context, e domain.Event) error {
	j := g.parent
	if j.keep != 0 {
		j.mu.Lock()
		evs := append(j.events[g.gameID], e)
		if j.keep > 0 && len(evs) > j.keep {
			evs = append(evs[:0:0], evs[len(evs)-j.keep:]...)
		}
		j.events[g.gameID] = evs
		j.mu.Unlock()
	}

	if j.logger != nil {
		j.logger.WithContext(ctx).Info("contagion event",
			zap.Uint64("seq", e.Seq),
			zap.String("kind", string(e.Kind)),
			zap.String("city", string(e.City)),
			zap.String("color", string(e.Color)),
			zap.Int("amount", e.Amount),
		)
	}
	return nil
}
