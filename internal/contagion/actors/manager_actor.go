package actors

import (
	"Pandemic/internal/contagion/entity"

	"github.com/asynkron/protoactor-go/actor"
)

// ManagerActor 按 game id 把请求转发给对应的 GameActor，第一次访问时才创建。
type ManagerActor struct {
	deps  Deps
	games map[entity.GameID]*actor.PID
}

func NewManagerActor(deps Deps) *ManagerActor {
	return &ManagerActor{
		deps:  deps,
		games: make(map[entity.GameID]*actor.PID),
	}
}

func (m *ManagerActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Terminated:
		m.forget(msg.Who)
		return
	case *gameLoadFailed:
		// 先摘路由再 Poison，之后的请求会落到新 actor 上；
		// 已经转发过去的请求排在 Poison 前面，都能拿到加载错误
		if m.forget(msg.Who) {
			ctx.Poison(msg.Who)
		}
		return
	case GameMessage:
		if msg == nil {
			ctx.Respond(fail(errNoHandler))
			return
		}
		ctx.Forward(m.getOrSpawn(ctx, msg.Target()))
	default:
		return
	}
}

func (m *ManagerActor) getOrSpawn(ctx actor.Context, id entity.GameID) *actor.PID {
	if pid, ok := m.games[id]; ok && pid != nil {
		return pid
	}

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewGameActor(id, m.deps)
	})
	pid := ctx.Spawn(props)
	m.games[id] = pid
	return pid
}

// forget 对局 actor 退出后移除路由，下一次请求会重新加载。
func (m *ManagerActor) forget(who *actor.PID) bool {
	if who == nil {
		return false
	}
	for id, pid := range m.games {
		if pid != nil && pid.Equal(who) {
			delete(m.games, id)
			return true
		}
	}
	return false
}
