package handler

import (
	"Pandemic/internal/contagion/domain"
	"Pandemic/internal/shared/transport"
	"Pandemic/modules/kit/errx"
)

// 规则域的业务码。
const (
	CodeDefeat        = 201
	CodeOutbreakLimit = 202
	CodeGameOver      = 203
	CodeBadRequest    = 210
	CodeDeckEmpty     = 211
	CodeBadTransition = 212
	CodeNotFound      = 213
)

func bizCodeOf(err error) transport.BizCode {
	switch errx.CodeOf(err) {
	case domain.CodeDefeat:
		return CodeDefeat
	case domain.CodeOutbreakLimit:
		return CodeOutbreakLimit
	case domain.CodeGameOver:
		return CodeGameOver
	case domain.CodeUnknownCity, domain.CodeUnknownColor, domain.CodeInvalidAmount:
		return CodeBadRequest
	case domain.CodeDeckEmpty:
		return CodeDeckEmpty
	case domain.CodeBadTransition:
		return CodeBadTransition
	case domain.CodeBoardNotFound:
		return CodeNotFound
	}
	return transport.FromError(err)
}
