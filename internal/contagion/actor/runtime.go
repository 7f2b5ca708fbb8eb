package actor

import (
	"context"
	"errors"
	"time"

	"Pandemic/internal/contagion/actors"
	"Pandemic/modules/kit/errx"

	protoactor "github.com/asynkron/protoactor-go/actor"
)

const defaultAskTimeout = 3 * time.Second

var errNotReady = errx.NewSys(errx.CodeUnavailable, "actor runtime 未初始化")

// Runtime 包装 actor 系统，对外只暴露按对局的同步请求。
type Runtime struct {
	system  *protoactor.ActorSystem
	root    *protoactor.RootContext
	manager *protoactor.PID
	timeout time.Duration
}

func NewRuntime(deps actors.Deps, askTimeout time.Duration) *Runtime {
	if askTimeout <= 0 {
		askTimeout = defaultAskTimeout
	}

	system := protoactor.NewActorSystem()
	root := system.Root
	managerProps := protoactor.PropsFromProducer(func() protoactor.Actor {
		return actors.NewManagerActor(deps)
	})
	manager := root.Spawn(managerProps)

	return &Runtime{
		system:  system,
		root:    root,
		manager: manager,
		timeout: askTimeout,
	}
}

// Shutdown 停掉 manager（连带所有对局 actor，各自会刷最后一次快照）。
func (r *Runtime) Shutdown() {
	if r == nil {
		return
	}
	if r.root != nil && r.manager != nil {
		_ = r.root.StopFuture(r.manager).Wait()
	}
	if r.system != nil {
		r.system.Shutdown()
	}
}

// Ask 把请求交给对应的对局 actor 并等待应答。
// 超时取 ctx 剩余时间和默认超时中较小的一个。
func (r *Runtime) Ask(ctx context.Context, msg actors.GameMessage) (*actors.Reply, error) {
	if r == nil || r.root == nil || r.manager == nil {
		return nil, errNotReady
	}
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return nil, errx.ErrTimeout.WithCause(err)
		}
	}

	future := r.root.RequestFuture(r.manager, msg, r.timeoutFromContext(ctx))
	res, err := future.Result()
	if err != nil {
		if errors.Is(err, protoactor.ErrTimeout) {
			return nil, errx.ErrTimeout.WithCause(err)
		}
		return nil, errx.ErrUnavailable.WithCause(err)
	}
	reply, ok := res.(*actors.Reply)
	if !ok || reply == nil {
		return nil, errx.ErrInternal.WithData("reply", res)
	}
	if reply.Err != nil {
		return reply, reply.Err
	}
	return reply, nil
}

func (r *Runtime) timeoutFromContext(ctx context.Context) time.Duration {
	if r == nil || r.timeout <= 0 {
		return defaultAskTimeout
	}
	if ctx == nil {
		return r.timeout
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		return r.timeout
	}
	remain := time.Until(deadline)
	if remain <= 0 {
		return time.Millisecond
	}
	if remain < r.timeout {
		return remain
	}
	return r.timeout
}
