package actors

import (
	"reflect"

	"Pandemic/modules/kit/errx"

	"github.com/asynkron/protoactor-go/actor"
)

var errNoHandler = errx.NewSys(errx.CodeInternal, "no handler for game message")

type Dispatcher struct {
	handlers map[reflect.Type]Handler
}

type Handler struct {
	fn      reflect.Value
	reqType reflect.Type
}

func NewDispatcher() *Dispatcher {
	d := &Dispatcher{
		handlers: make(map[reflect.Type]Handler),
	}
	d.registerAll()
	return d
}

func (d *Dispatcher) registerAll() {
	register(d, GH.HandleRunEpidemic)
	register(d, GH.HandleRunInfections)
	register(d, GH.HandlePlaceCubes)
	register(d, GH.HandleTreatCubes)
	register(d, GH.HandleCureDisease)
	register(d, GH.HandleGetBoard)
}

func register[Req any](
	d *Dispatcher,
	fn func(ctx actor.Context, p *GameActor, req Req) *Reply,
) {
	reqType := reflect.TypeOf((*Req)(nil)).Elem()
	if reqType == nil {
		panic("dispatcher req type cannot be nil")
	}

	d.handlers[reqType] = Handler{
		fn:      reflect.ValueOf(fn),
		reqType: reqType,
	}
}

// Dispatch 找到对应的处理函数并返回其应答，由调用方负责 Respond。
func (d *Dispatcher) Dispatch(ctx actor.Context, p *GameActor, req GameMessage) *Reply {
	if req == nil {
		return fail(errNoHandler)
	}

	bodyType := reflect.TypeOf(req)
	handler, found := d.handlers[bodyType]
	if !found {
		return fail(errNoHandler.WithData("type", bodyType.String()))
	}

	out := handler.fn.Call([]reflect.Value{
		reflect.ValueOf(ctx),
		reflect.ValueOf(p),
		reflect.ValueOf(req),
	})
	reply, _ := out[0].Interface().(*Reply)
	return reply
}

// Mutates 判断请求是否会改动对局；只读请求在失败后仍然放行。
func Mutates(req GameMessage) bool {
	_, readOnly := req.(*GetBoard)
	return !readOnly
}
