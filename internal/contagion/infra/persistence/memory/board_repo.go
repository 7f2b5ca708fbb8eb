package memory

import (
	"context"
	"sync"

	"Pandemic/internal/contagion/entity"
)

// BoardRepository 进程内的对局仓库：新对局按开局配置生成，保存的快照留在内存里。
type BoardRepository struct {
	setup entity.Setup
	opts  []entity.BoardOption

	mu    sync.Mutex
	saved map[entity.GameID]*entity.BoardSnapshot
}

func NewBoardRepository(setup entity.Setup, opts ...entity.BoardOption) *BoardRepository {
	return &BoardRepository{
		setup: setup,
		opts:  opts,
		saved: make(map[entity.GameID]*entity.BoardSnapshot),
	}
}

func (r *BoardRepository) LoadBoard(ctx context.Context, id entity.GameID) (*entity.Board, error) {
	_ = ctx
	r.mu.Lock()
	s := r.saved[id]
	r.mu.Unlock()
	if s != nil {
		return entity.HydrateBoard(s, r.opts...)
	}
	return entity.NewBoard(id, r.setup, r.opts...)
}

func (r *BoardRepository) Save(ctx context.Context, s *entity.BoardSnapshot) error {
	_ = ctx
	if s == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.saved[s.GameID]; ok && cur.Version > s.Version {
		return nil
	}
	r.saved[s.GameID] = s
	return nil
}

// Latest 返回最近一次保存的快照，主要给测试和调试用。
func (r *BoardRepository) Latest(id entity.GameID) (*entity.BoardSnapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.saved[id]
	return s, ok
}
