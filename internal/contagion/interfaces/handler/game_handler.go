package handler

import (
	"context"
	"errors"
	nethttp "net/http"

	"Pandemic/internal/contagion/actors"
	"Pandemic/internal/contagion/domain"
	"Pandemic/internal/contagion/entity"
	"Pandemic/internal/shared/transport"
	"Pandemic/modules/kit/errx"
	"Pandemic/modules/kit/logx"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Asker 是 actor.Runtime 对外的请求入口。
type Asker interface {
	Ask(ctx context.Context, msg actors.GameMessage) (*actors.Reply, error)
}

type GameHandler struct {
	rt     Asker
	logger logx.Logger
}

func NewGameHandler(rt Asker, logger logx.Logger) *GameHandler {
	if logger == nil {
		logger = logx.Nop()
	}
	return &GameHandler{rt: rt, logger: logger}
}

// Response 统一响应体，code 为 0 表示成功。
type Response struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
}

type cubesRequest struct {
	City   string `json:"city" binding:"required"`
	Color  string `json:"color" binding:"required"`
	Amount int    `json:"amount" binding:"required,min=1"`
}

type cureRequest struct {
	Color string `json:"color" binding:"required"`
}

type treatData struct {
	Removed    int                   `json:"removed"`
	Eradicated bool                  `json:"eradicated"`
	Board      *entity.BoardSnapshot `json:"board"`
}

type cureData struct {
	Eradicated bool                  `json:"eradicated"`
	Board      *entity.BoardSnapshot `json:"board"`
}

func (h *GameHandler) Register(g *gin.RouterGroup) {
	g.GET("/:id", h.GetBoard)
	g.POST("/:id/epidemic", h.Epidemic)
	g.POST("/:id/infections", h.Infections)
	g.POST("/:id/infect", h.Infect)
	g.POST("/:id/treat", h.Treat)
	g.POST("/:id/cure", h.Cure)
}

func (h *GameHandler) GetBoard(c *gin.Context) {
	reply, err := h.rt.Ask(c.Request.Context(), &actors.GetBoard{GameID: gameID(c)})
	h.respond(c, "get_board", reply, err, boardOf)
}

func (h *GameHandler) Epidemic(c *gin.Context) {
	reply, err := h.rt.Ask(c.Request.Context(), &actors.RunEpidemic{GameID: gameID(c)})
	h.respond(c, "epidemic", reply, err, boardOf)
}

func (h *GameHandler) Infections(c *gin.Context) {
	reply, err := h.rt.Ask(c.Request.Context(), &actors.RunInfections{GameID: gameID(c)})
	h.respond(c, "infections", reply, err, boardOf)
}

func (h *GameHandler) Infect(c *gin.Context) {
	var req cubesRequest
	city, color, ok := h.bindCubes(c, &req)
	if !ok {
		return
	}
	reply, err := h.rt.Ask(c.Request.Context(), &actors.PlaceCubes{
		GameID: gameID(c), City: city, Color: color, Amount: req.Amount,
	})
	h.respond(c, "infect", reply, err, boardOf)
}

func (h *GameHandler) Treat(c *gin.Context) {
	var req cubesRequest
	city, color, ok := h.bindCubes(c, &req)
	if !ok {
		return
	}
	reply, err := h.rt.Ask(c.Request.Context(), &actors.TreatCubes{
		GameID: gameID(c), City: city, Color: color, Amount: req.Amount,
	})
	h.respond(c, "treat", reply, err, func(r *actors.Reply) any {
		return treatData{Removed: r.Removed, Eradicated: r.Eradicated, Board: r.Board}
	})
}

func (h *GameHandler) Cure(c *gin.Context) {
	var req cureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	color, err := domain.ParseColor(req.Color)
	if err != nil {
		h.badRequest(c, err)
		return
	}
	reply, err := h.rt.Ask(c.Request.Context(), &actors.CureDisease{GameID: gameID(c), Color: color})
	h.respond(c, "cure", reply, err, func(r *actors.Reply) any {
		return cureData{Eradicated: r.Eradicated, Board: r.Board}
	})
}

func (h *GameHandler) bindCubes(c *gin.Context, req *cubesRequest) (domain.CityID, domain.Color, bool) {
	if err := c.ShouldBindJSON(req); err != nil {
		h.badRequest(c, err)
		return "", "", false
	}
	color, err := domain.ParseColor(req.Color)
	if err != nil {
		h.badRequest(c, err)
		return "", "", false
	}
	return domain.CityID(req.City), color, true
}

func (h *GameHandler) badRequest(c *gin.Context, err error) {
	ctx := c.Request.Context()
	transport.SetBizCode(ctx, CodeBadRequest)
	transport.SetErrorReason(ctx, err.Error())
	c.JSON(nethttp.StatusBadRequest, Response{Code: CodeBadRequest, Msg: err.Error()})
}

// respond 按错误类型写日志并回包：规则结果（包括失败）是业务响应，HTTP 状态仍为 200。
func (h *GameHandler) respond(c *gin.Context, action string, reply *actors.Reply, err error, data func(*actors.Reply) any) {
	ctx := c.Request.Context()
	if err == nil {
		transport.SetBizCode(ctx, transport.OK)
		c.JSON(nethttp.StatusOK, Response{Code: transport.OK, Msg: "ok", Data: data(reply)})
		return
	}

	code := bizCodeOf(err)
	transport.SetBizCode(ctx, code)
	transport.SetErrorReason(ctx, err.Error())

	var e *errx.Error
	status := nethttp.StatusOK
	msg := err.Error()
	if errors.As(err, &e) {
		msg = e.Msg()
	}
	switch {
	case e != nil && e.IsBiz():
		logx.ReportBizWithLoggerContext(ctx, h.logger, action, err)
	case code == CodeBadRequest:
		logx.ReportBizWithLoggerContext(ctx, h.logger, action, err)
		status = nethttp.StatusBadRequest
	default:
		logx.ReportSysErrorWithLoggerContext(ctx, h.logger, action, err, zap.Int("biz_code", int(code)))
		status = nethttp.StatusInternalServerError
		if code == transport.Timeout || code == transport.Unavailable {
			status = nethttp.StatusServiceUnavailable
		}
	}

	resp := Response{Code: int(code), Msg: msg}
	// 失败时仍回带棋盘，方便客户端展示终局
	if reply != nil && reply.Board != nil {
		resp.Data = reply.Board
	}
	c.JSON(status, resp)
}

func boardOf(r *actors.Reply) any {
	return r.Board
}

func gameID(c *gin.Context) entity.GameID {
	return entity.GameID(c.Param("id"))
}
