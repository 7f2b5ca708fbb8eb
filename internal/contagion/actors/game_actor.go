package actors

import (
	"context"
	"time"

	"Pandemic/internal/contagion/app"
	"Pandemic/internal/contagion/app/port"
	"Pandemic/internal/contagion/dc"
	"Pandemic/internal/contagion/domain"
	"Pandemic/internal/contagion/entity"
	"Pandemic/modules/kit/errx"
	"Pandemic/modules/kit/logx"
	"Pandemic/modules/kit/tracex"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

var _ port.State = (*entity.Board)(nil)

type State int

const (
	None State = iota
	Init
	Online
	// Defeated 对局已经失败，只接受只读请求。
	Defeated
	// Failed 加载失败，所有请求都回加载错误，由 manager 摘掉路由后再退出。
	Failed
	Stopping
	Offline
)

// Deps 是每个对局 actor 共享的外部依赖。
type Deps struct {
	Repo       port.BoardRepository
	Journals   port.JournalFactory
	Logger     logx.Logger
	FlushEvery time.Duration
}

// GameActor 独占一局的 Board，邮箱保证同一时刻只跑一个流程。
type GameActor struct {
	state      State
	gameID     entity.GameID
	deps       Deps
	dc         *dc.BoardDC
	board      *entity.Board
	engine     *app.Contagion
	dispatcher *Dispatcher
	logger     logx.Logger
	loadErr    error
	flushStop  chan struct{}
}

type flushTick struct{}

func (flushTick) NotInfluenceReceiveTimeout() {}

func NewGameActor(gameID entity.GameID, deps Deps) *GameActor {
	logger := deps.Logger
	if logger == nil {
		logger = logx.Nop()
	}
	return &GameActor{
		state:      None,
		gameID:     gameID,
		deps:       deps,
		dc:         dc.NewBoardDC(deps.Repo, deps.FlushEvery, logger),
		dispatcher: NewDispatcher(),
		logger:     logger,
	}
}

func (p *GameActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		p.state = Init
		p.init(ctx)
		return
	case *actor.Stopping:
		p.release()
		p.state = Stopping
		return
	case *actor.Stopped:
		p.stopFlushLoop()
		p.state = Offline
		return
	case *actor.Restarting:
		// 重启会换一个新实例，旧实例的写盘协程和未落库的改动要在这里收掉
		p.release()
		p.state = Init
		return
	case flushTick:
		if p.state != Online && p.state != Defeated {
			return
		}
		if err := p.dc.Flush(context.Background()); err != nil {
			p.logger.Error("board periodic flush failed", zap.String("game_id", string(p.gameID)), zap.Error(err))
		}
		return
	case GameMessage:
		ctx.Respond(p.handle(ctx, msg))
	default:
		return
	}
}

func (p *GameActor) handle(ctx actor.Context, msg GameMessage) *Reply {
	switch p.state {
	case Failed:
		return fail(p.loadErr)
	case Defeated:
		if Mutates(msg) {
			r := fail(domain.ErrGameOver)
			r.Board = p.board.Snapshot(p.dc.Version())
			return r
		}
	case Online:
	default:
		return fail(domain.ErrBoardNotFound.WithData("game_id", p.gameID))
	}

	reply := p.dispatcher.Dispatch(ctx, p, msg)
	if reply != nil && reply.Err != nil && p.board != nil {
		reply.Board = p.board.Snapshot(p.dc.Version())
	}
	if reply != nil && domain.IsTerminal(reply.Err) {
		p.state = Defeated
		p.logger.Warn("game defeated",
			zap.String("game_id", string(p.gameID)),
			zap.String("code", string(errx.CodeOf(reply.Err))),
		)
		// 失败是终局状态，立即落库
		if err := p.dc.Flush(context.Background()); err != nil {
			p.logger.Error("board flush after defeat failed", zap.String("game_id", string(p.gameID)), zap.Error(err))
		}
	}
	return reply
}

func (p *GameActor) init(ctx actor.Context) {
	b, err := p.dc.Load(p.workflowCtx(), p.gameID)
	if err != nil {
		p.logger.Error("board load failed", zap.String("game_id", string(p.gameID)), zap.Error(err))
		p.state = Failed
		p.loadErr = err
		// 不能自己 Poison：manager 还会继续往这里转发，退出后的请求没人回
		if parent := ctx.Parent(); parent != nil {
			ctx.Send(parent, &gameLoadFailed{GameID: p.gameID, Who: ctx.Self()})
		}
		return
	}
	p.board = b

	opts := []app.Option{app.WithLogger(p.logger)}
	if p.deps.Journals != nil {
		opts = append(opts, app.WithJournal(p.deps.Journals.ForGame(p.gameID)))
	}
	p.engine = app.NewContagion(b, opts...)

	p.state = Online
	if b.Defeated() {
		p.state = Defeated
	}
	p.startFlushLoop(ctx)
}

// release 停掉定时落库并关闭 DC，关闭时会把最后一份快照写出去。
func (p *GameActor) release() {
	p.stopFlushLoop()
	closeCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := p.dc.Close(closeCtx); err != nil {
		p.logger.Error("board dc close failed", zap.String("game_id", string(p.gameID)), zap.Error(err))
	}
}

// workflowCtx 给流程带上 game_id，日志里据此关联。
func (p *GameActor) workflowCtx() context.Context {
	return tracex.WithGameID(context.Background(), string(p.gameID))
}

func (p *GameActor) GameID() entity.GameID {
	return p.gameID
}

func (p *GameActor) Board() *entity.Board {
	return p.board
}

func (p *GameActor) State() State {
	return p.state
}

func (p *GameActor) startFlushLoop(ctx actor.Context) {
	if p.flushStop != nil {
		return
	}
	interval := p.dc.FlushEvery()
	if interval <= 0 {
		return
	}
	p.flushStop = make(chan struct{})
	self := ctx.Self()
	root := ctx.ActorSystem().Root

	go func(stop <-chan struct{}, every time.Duration) {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				root.Send(self, flushTick{})
			case <-stop:
				return
			}
		}
	}(p.flushStop, interval)
}

func (p *GameActor) stopFlushLoop() {
	if p.flushStop == nil {
		return
	}
	close(p.flushStop)
	p.flushStop = nil
}
