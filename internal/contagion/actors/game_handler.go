package actors

import (
	"github.com/asynkron/protoactor-go/actor"
)

type GameHandler struct{}

var GH = &GameHandler{}

func (h *GameHandler) HandleRunEpidemic(ctx actor.Context, p *GameActor, req *RunEpidemic) *Reply {
	if err := p.engine.Epidemic(p.workflowCtx()); err != nil {
		return fail(err)
	}
	return ok(p)
}

func (h *GameHandler) HandleRunInfections(ctx actor.Context, p *GameActor, req *RunInfections) *Reply {
	if err := p.engine.Infections(p.workflowCtx()); err != nil {
		return fail(err)
	}
	return ok(p)
}

func (h *GameHandler) HandlePlaceCubes(ctx actor.Context, p *GameActor, req *PlaceCubes) *Reply {
	if err := p.engine.InfectOrOutbreak(p.workflowCtx(), req.City, req.Color, req.Amount); err != nil {
		return fail(err)
	}
	return ok(p)
}

func (h *GameHandler) HandleTreatCubes(ctx actor.Context, p *GameActor, req *TreatCubes) *Reply {
	wctx := p.workflowCtx()
	removed, err := p.board.RemoveCubes(wctx, req.City, req.Color, req.Amount)
	if err != nil {
		return fail(err)
	}
	eradicated, err := p.engine.CheckForEradication(wctx, req.Color)
	if err != nil {
		return fail(err)
	}
	r := ok(p)
	r.Removed = removed
	r.Eradicated = eradicated
	return r
}

func (h *GameHandler) HandleCureDisease(ctx actor.Context, p *GameActor, req *CureDisease) *Reply {
	wctx := p.workflowCtx()
	if err := p.board.Cure(wctx, req.Color); err != nil {
		return fail(err)
	}
	eradicated, err := p.engine.CheckForEradication(wctx, req.Color)
	if err != nil {
		return fail(err)
	}
	r := ok(p)
	r.Eradicated = eradicated
	return r
}

func (h *GameHandler) HandleGetBoard(ctx actor.Context, p *GameActor, req *GetBoard) *Reply {
	return ok(p)
}
