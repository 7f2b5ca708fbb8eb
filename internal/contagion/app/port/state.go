package port

import (
	"context"

	"Pandemic/internal/contagion/domain"
)

// State 是规则引擎与宿主对局状态之间唯一的边界：引擎只通过这些查询/变更读写状态。
// 实现方负责校验城市/颜色是否存在，非法输入应直接返回错误。
type State interface {
	CubesInCity(ctx context.Context, city domain.CityID, color domain.Color) (int, error)
	SupplyExhausted(ctx context.Context, amount int, color domain.Color) (bool, error)
	DiseaseStatus(ctx context.Context, color domain.Color) (domain.DiseaseStatus, error)
	Neighbors(ctx context.Context, city domain.CityID) ([]domain.CityID, error)
	InfectionRate(ctx context.Context) (int, error)
	PeekCard(ctx context.Context, pos domain.DeckPosition) (domain.InfectionCard, error)
	TreatedAllOfColor(ctx context.Context, color domain.Color) (bool, error)

	ApplyCubeDelta(ctx context.Context, city domain.CityID, color domain.Color, delta int) error
	ApplySupplyDelta(ctx context.Context, color domain.Color, delta int) error
	SetDiseaseStatus(ctx context.Context, color domain.Color, status domain.DiseaseStatus) error
	AdvanceInfectionRate(ctx context.Context) error
	DiscardCard(ctx context.Context, pos domain.DeckPosition) error
	IntensifyDeck(ctx context.Context) error
	// RecordOutbreak 爆发计数 +1；是否达到上限由宿主判断，达到时返回终局错误。
	RecordOutbreak(ctx context.Context, city domain.CityID, color domain.Color) error
	BeginInfectionPhase(ctx context.Context) error

	// Defeat 通知宿主整局失败，之后引擎不会再发起任何变更。
	Defeat(ctx context.Context) error
}

// Journal 按顺序接收规则事件，用于回放和审计。
type Journal interface {
	Append(ctx context.Context, e domain.Event) error
}
