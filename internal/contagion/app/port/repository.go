package port

import (
	"context"

	"Pandemic/internal/contagion/entity"
)

type BoardRepository interface {
	// LoadBoard 读取已有对局；不存在时按开局配置新建。
	LoadBoard(ctx context.Context, id entity.GameID) (*entity.Board, error)
	Save(ctx context.Context, s *entity.BoardSnapshot) error
}

// JournalFactory 为每局对局提供独立的事件日志。
type JournalFactory interface {
	ForGame(id entity.GameID) Journal
}
