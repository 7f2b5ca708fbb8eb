package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"Pandemic/internal/contagion/domain"
	"Pandemic/internal/contagion/entity"
)

// recordingState 包一层 Board，按顺序记录引擎发起的每一次查询/变更。
type recordingState struct {
	*entity.Board
	calls []string
}

func (r *recordingState) log(format string, args ...any) {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *recordingState) CubesInCity(ctx context.Context, city CityID, color Color) (int, error) {
	r.log("cubes %s %s", city, color)
	return r.Board.CubesInCity(ctx, city, color)
}

func (r *recordingState) SupplyExhausted(ctx context.Context, amount int, color Color) (bool, error) {
	r.log("exhausted %d %s", amount, color)
	return r.Board.SupplyExhausted(ctx, amount, color)
}

func (r *recordingState) DiseaseStatus(ctx context.Context, color Color) (domain.DiseaseStatus, error) {
	r.log("status %s", color)
	return r.Board.DiseaseStatus(ctx, color)
}

func (r *recordingState) Neighbors(ctx context.Context, city CityID) ([]CityID, error) {
	r.log("neighbors %s", city)
	return r.Board.Neighbors(ctx, city)
}

func (r *recordingState) InfectionRate(ctx context.Context) (int, error) {
	r.log("rate")
	return r.Board.InfectionRate(ctx)
}

func (r *recordingState) PeekCard(ctx context.Context, pos domain.DeckPosition) (domain.InfectionCard, error) {
	r.log("peek %s", pos)
	return r.Board.PeekCard(ctx, pos)
}

func (r *recordingState) TreatedAllOfColor(ctx context.Context, color Color) (bool, error) {
	r.log("treated %s", color)
	return r.Board.TreatedAllOfColor(ctx, color)
}

func (r *recordingState) ApplyCubeDelta(ctx context.Context, city CityID, color Color, delta int) error {
	r.log("cube_delta %s %s %d", city, color, delta)
	return r.Board.ApplyCubeDelta(ctx, city, color, delta)
}

func (r *recordingState) ApplySupplyDelta(ctx context.Context, color Color, delta int) error {
	r.log("supply_delta %s %d", color, delta)
	return r.Board.ApplySupplyDelta(ctx, color, delta)
}

func (r *recordingState) SetDiseaseStatus(ctx context.Context, color Color, status domain.DiseaseStatus) error {
	r.log("set_status %s %s", color, status)
	return r.Board.SetDiseaseStatus(ctx, color, status)
}

func (r *recordingState) AdvanceInfectionRate(ctx context.Context) error {
	r.log("advance_rate")
	return r.Board.AdvanceInfectionRate(ctx)
}

func (r *recordingState) DiscardCard(ctx context.Context, pos domain.DeckPosition) error {
	r.log("discard %s", pos)
	return r.Board.DiscardCard(ctx, pos)
}

func (r *recordingState) IntensifyDeck(ctx context.Context) error {
	r.log("intensify")
	return r.Board.IntensifyDeck(ctx)
}

func (r *recordingState) RecordOutbreak(ctx context.Context, city CityID, color Color) error {
	r.log("outbreak %s %s", city, color)
	return r.Board.RecordOutbreak(ctx, city, color)
}

func (r *recordingState) BeginInfectionPhase(ctx context.Context) error {
	r.log("begin_phase")
	return r.Board.BeginInfectionPhase(ctx)
}

func (r *recordingState) Defeat(ctx context.Context) error {
	r.log("defeat")
	return r.Board.Defeat(ctx)
}

type memJournal struct {
	events []domain.Event
	err    error
}

func (j *memJournal) Append(ctx context.Context, e domain.Event) error {
	j.events = append(j.events, e)
	return j.err
}

func (j *memJournal) kinds() []string {
	out := make([]string, 0, len(j.events))
	for _, e := range j.events {
		s := string(e.Kind)
		if e.City != "" {
			s += " " + string(e.City)
		}
		out = append(out, s)
	}
	return out
}

func noShuffle([]domain.InfectionCard) {}

// reverseShuffle 用确定性的“洗牌”让强化后的顺序可预测。
func reverseShuffle(cards []domain.InfectionCard) {
	for i, j := 0, len(cards)-1; i < j; i, j = i+1, j-1 {
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// lineSetup 构造一条链：a - b - c - d（全部蓝色），再加一个红色城市 r 挂在 a 上。
func lineSetup() entity.Setup {
	return entity.Setup{
		Rules: domain.Rules{CubesPerColor: 24, OutbreakLimit: 8},
		Cities: []entity.CitySetup{
			{ID: "a", Name: "A", Color: domain.Blue, Neighbors: []CityID{"b", "r"}},
			{ID: "b", Name: "B", Color: domain.Blue, Neighbors: []CityID{"c"}},
			{ID: "c", Name: "C", Color: domain.Blue, Neighbors: []CityID{"d"}},
			{ID: "d", Name: "D", Color: domain.Blue},
			{ID: "r", Name: "R", Color: domain.Red},
		},
		Deck: []CityID{"a", "b", "c", "d", "r"},
	}
}

type fixture struct {
	board   *entity.Board
	state   *recordingState
	journal *memJournal
	engine  *Contagion
}

func newFixture(t *testing.T, setup entity.Setup, opts ...entity.BoardOption) *fixture {
	t.Helper()
	if len(opts) == 0 {
		opts = []entity.BoardOption{entity.WithShuffler(noShuffle)}
	}
	b, err := entity.NewBoard("g-test", setup, opts...)
	if err != nil {
		t.Fatalf("NewBoard err=%v", err)
	}
	st := &recordingState{Board: b}
	j := &memJournal{}
	fixed := time.Unix(1700000000, 0)
	return &fixture{
		board:   b,
		state:   st,
		journal: j,
		engine:  NewContagion(st, WithJournal(j), WithClock(func() time.Time { return fixed })),
	}
}

func mustCubes(t *testing.T, b *entity.Board, city CityID, color Color, want int) {
	t.Helper()
	if got := b.Cubes(city, color); got != want {
		t.Fatalf("%s/%s 方块数=%d，期望 %d", city, color, got, want)
	}
}

func mustErrIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("期望错误 %v，got=%v", target, err)
	}
}
