package domain

import "Pandemic/modules/kit/errx"

type Code = errx.Code

const (
	// CodeDefeat 方块库存不足以完成一次放置，整局失败。
	CodeDefeat Code = "CONTAGION_DEFEAT"
	// CodeOutbreakLimit 爆发次数达到上限，整局失败（由宿主在记录爆发时判定）。
	CodeOutbreakLimit Code = "CONTAGION_OUTBREAK_LIMIT"
	// CodeGameOver 对局已经失败，不再接受任何变更。
	CodeGameOver Code = "CONTAGION_GAME_OVER"

	CodeUnknownCity   Code = "CONTAGION_UNKNOWN_CITY"
	CodeUnknownColor  Code = "CONTAGION_UNKNOWN_COLOR"
	CodeInvalidAmount Code = "CONTAGION_INVALID_AMOUNT"
	CodeDeckEmpty     Code = "CONTAGION_DECK_EMPTY"
	CodeBadTransition Code = "CONTAGION_BAD_STATUS_TRANSITION"
	CodeInvalidSetup  Code = "CONTAGION_INVALID_SETUP"
	CodeBoardNotFound Code = "CONTAGION_BOARD_NOT_FOUND"
)

type Error = errx.Error

// 规则结果：业务类，不带栈。
var (
	ErrDefeat        = errx.NewBiz(CodeDefeat, "disease cubes exhausted")
	ErrOutbreakLimit = errx.NewBiz(CodeOutbreakLimit, "outbreak limit reached")
	ErrGameOver      = errx.NewBiz(CodeGameOver, "game is over")
)

// 前置条件被破坏：系统类，属于宿主的调用错误，应尽早失败。
var (
	ErrUnknownCity   = errx.NewSys(CodeUnknownCity, "unknown city")
	ErrUnknownColor  = errx.NewSys(CodeUnknownColor, "unknown disease color")
	ErrInvalidAmount = errx.NewSys(CodeInvalidAmount, "invalid cube amount")
	ErrDeckEmpty     = errx.NewSys(CodeDeckEmpty, "infection deck is empty")
	ErrBadTransition = errx.NewSys(CodeBadTransition, "disease status cannot move backwards")
	ErrInvalidSetup  = errx.NewSys(CodeInvalidSetup, "invalid board setup")
	ErrBoardNotFound = errx.NewBiz(CodeBoardNotFound, "board not found")
)

// IsTerminal 判断错误是否代表整局结束（失败信号），这类错误会让当前流程整体展开，不再继续。
func IsTerminal(err error) bool {
	switch errx.CodeOf(err) {
	case CodeDefeat, CodeOutbreakLimit, CodeGameOver:
		return true
	}
	return false
}
