package actors

import (
	"Pandemic/internal/contagion/domain"
	"Pandemic/internal/contagion/entity"

	"github.com/asynkron/protoactor-go/actor"
)

// GameMessage 是所有发往对局 actor 的请求，Manager 按 Target 路由。
type GameMessage interface {
	Target() entity.GameID
}

// RunEpidemic 执行一次流行病。
type RunEpidemic struct {
	GameID entity.GameID
}

// RunInfections 执行一次感染阶段。
type RunInfections struct {
	GameID entity.GameID
}

// PlaceCubes 直接向城市放置方块，饱和时爆发。
type PlaceCubes struct {
	GameID entity.GameID
	City   domain.CityID
	Color  domain.Color
	Amount int
}

// TreatCubes 移除方块后检查是否根除。
type TreatCubes struct {
	GameID entity.GameID
	City   domain.CityID
	Color  domain.Color
	Amount int
}

// CureDisease 治愈后检查是否根除。
type CureDisease struct {
	GameID entity.GameID
	Color  domain.Color
}

type GetBoard struct {
	GameID entity.GameID
}

func (m *RunEpidemic) Target() entity.GameID   { return m.GameID }
func (m *RunInfections) Target() entity.GameID { return m.GameID }
func (m *PlaceCubes) Target() entity.GameID    { return m.GameID }
func (m *TreatCubes) Target() entity.GameID    { return m.GameID }
func (m *CureDisease) Target() entity.GameID   { return m.GameID }
func (m *GetBoard) Target() entity.GameID      { return m.GameID }

// Reply 是所有请求的统一应答；Err 不为空时只有 Board 有意义（失败时的棋盘）。
type Reply struct {
	Board      *entity.BoardSnapshot
	Removed    int
	Eradicated bool
	Err        error
}

func ok(p *GameActor) *Reply {
	return &Reply{Board: p.board.Snapshot(p.dc.Version())}
}

func fail(err error) *Reply {
	return &Reply{Err: err}
}

// gameLoadFailed 对局 actor 加载失败后通知 manager 摘掉路由。
type gameLoadFailed struct {
	GameID entity.GameID
	Who    *actor.PID
}
