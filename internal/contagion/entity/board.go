package entity

import (
	"context"
	"math/rand/v2"

	"Pandemic/internal/contagion/domain"
)

type (
	CityID        = domain.CityID
	Color         = domain.Color
	DiseaseStatus = domain.DiseaseStatus
	InfectionCard = domain.InfectionCard
)

// Shuffler 原地打乱弃牌堆，测试里可以替换成确定性的实现。
type Shuffler func(cards []InfectionCard)

func defaultShuffler(cards []InfectionCard) {
	rand.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

// Board 是宿主侧的内存对局状态，实现规则引擎需要的全部查询/变更。
// 非并发安全：同一时刻只允许一个规则流程在上面执行（由 GameActor 保证）。
type Board struct {
	gameID    GameID
	rules     domain.Rules
	cities    map[CityID]domain.City
	cityOrder []CityID
	colors    []Color

	cubes  map[CityID]map[Color]int
	supply map[Color]int
	status map[Color]DiseaseStatus

	rateIndex int
	draw      []InfectionCard // draw[0] 是牌顶
	discard   []InfectionCard // 最后一张是最近弃掉的

	outbreaks int
	phases    int
	defeated  bool

	shuffle Shuffler
	dirty   bool
	// version 是还原时快照的版本，新对局为 0
	version uint64
}

type BoardOption func(*Board)

func WithShuffler(s Shuffler) BoardOption {
	return func(b *Board) {
		if s != nil {
			b.shuffle = s
		}
	}
}

// NewBoard 根据开局配置构建对局：校验地图、补齐无向边、生成感染牌堆、放置初始方块。
func NewBoard(gameID GameID, setup Setup, opts ...BoardOption) (*Board, error) {
	b := &Board{
		gameID:  gameID,
		rules:   setup.Rules.WithDefaults(),
		cities:  make(map[CityID]domain.City, len(setup.Cities)),
		cubes:   make(map[CityID]map[Color]int, len(setup.Cities)),
		supply:  make(map[Color]int),
		status:  make(map[Color]DiseaseStatus),
		shuffle: defaultShuffler,
	}
	for _, opt := range opts {
		opt(b)
	}
	if len(setup.Cities) == 0 {
		return nil, invalidSetup("no cities")
	}

	for _, cs := range setup.Cities {
		if cs.ID == "" {
			return nil, invalidSetup("empty city id")
		}
		if _, dup := b.cities[cs.ID]; dup {
			return nil, invalidSetup("duplicate city", "city", cs.ID)
		}
		if !cs.Color.Valid() {
			return nil, invalidSetup("unknown city color", "city", cs.ID, "color", cs.Color)
		}
		b.cities[cs.ID] = domain.City{ID: cs.ID, Name: cs.Name, Color: cs.Color}
		b.cityOrder = append(b.cityOrder, cs.ID)
		b.cubes[cs.ID] = make(map[Color]int)
		if _, ok := b.supply[cs.Color]; !ok {
			b.colors = append(b.colors, cs.Color)
			b.supply[cs.Color] = b.rules.CubesPerColor
			b.status[cs.Color] = domain.Active
		}
	}
	if err := b.linkNeighbors(setup.Cities); err != nil {
		return nil, err
	}

	for color, st := range setup.Status {
		if _, ok := b.supply[color]; !ok {
			return nil, invalidSetup("status for unknown color", "color", color)
		}
		if !st.Valid() {
			return nil, invalidSetup("unknown status", "color", color, "status", st)
		}
		b.status[color] = st
	}

	if err := b.buildDeck(setup.Deck); err != nil {
		return nil, err
	}

	for _, c := range setup.Cubes {
		if err := b.placeInitial(c); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (b *Board) linkNeighbors(cities []CitySetup) error {
	seen := make(map[CityID]map[CityID]struct{}, len(cities))
	link := func(from, to CityID) {
		if seen[from] == nil {
			seen[from] = make(map[CityID]struct{})
		}
		if _, dup := seen[from][to]; dup {
			return
		}
		seen[from][to] = struct{}{}
		city := b.cities[from]
		city.Neighbors = append(city.Neighbors, to)
		b.cities[from] = city
	}
	// 按配置顺序补边，保证邻居遍历（也就是爆发扩散顺序）是确定的
	for _, cs := range cities {
		for _, n := range cs.Neighbors {
			if n == cs.ID {
				return invalidSetup("city cannot neighbor itself", "city", cs.ID)
			}
			if _, ok := b.cities[n]; !ok {
				return invalidSetup("unknown neighbor", "city", cs.ID, "neighbor", n)
			}
			link(cs.ID, n)
			link(n, cs.ID)
		}
	}
	return nil
}

func (b *Board) buildDeck(order []CityID) error {
	if len(order) == 0 {
		for _, id := range b.cityOrder {
			b.draw = append(b.draw, InfectionCard{City: id, Color: b.cities[id].Color})
		}
		b.shuffle(b.draw)
		return nil
	}
	for _, id := range order {
		city, ok := b.cities[id]
		if !ok {
			return invalidSetup("deck card for unknown city", "city", id)
		}
		b.draw = append(b.draw, InfectionCard{City: id, Color: city.Color})
	}
	return nil
}

func (b *Board) placeInitial(c CubeSetup) error {
	if _, ok := b.cities[c.City]; !ok {
		return invalidSetup("cubes on unknown city", "city", c.City)
	}
	if _, ok := b.supply[c.Color]; !ok {
		return invalidSetup("cubes of unknown color", "color", c.Color)
	}
	next := b.cubes[c.City][c.Color] + c.Count
	if c.Count <= 0 || next > domain.MaxCubesPerCity || b.supply[c.Color] < c.Count {
		return invalidSetup("bad initial cube count", "city", c.City, "color", c.Color, "count", c.Count)
	}
	b.cubes[c.City][c.Color] = next
	b.supply[c.Color] -= c.Count
	return nil
}

func (b *Board) GameID() GameID {
	return b.gameID
}

func (b *Board) Rules() domain.Rules {
	return b.rules
}

func (b *Board) Colors() []Color {
	return append([]Color(nil), b.colors...)
}

func (b *Board) City(id CityID) (domain.City, bool) {
	c, ok := b.cities[id]
	return c, ok
}

func (b *Board) Cities() []CityID {
	return append([]CityID(nil), b.cityOrder...)
}

// Cubes 不做校验的只读访问，未知城市/颜色返回 0。
func (b *Board) Cubes(city CityID, color Color) int {
	return b.cubes[city][color]
}

func (b *Board) Supply(color Color) int {
	return b.supply[color]
}

func (b *Board) Status(color Color) DiseaseStatus {
	return b.status[color]
}

func (b *Board) Outbreaks() int {
	return b.outbreaks
}

func (b *Board) Defeated() bool {
	return b.defeated
}

func (b *Board) InfectionPhases() int {
	return b.phases
}

func (b *Board) DrawPile() []InfectionCard {
	return append([]InfectionCard(nil), b.draw...)
}

func (b *Board) DiscardPile() []InfectionCard {
	return append([]InfectionCard(nil), b.discard...)
}

func (b *Board) Dirty() bool {
	return b.dirty
}

// PersistedVersion 返回加载时已落库的快照版本。
func (b *Board) PersistedVersion() uint64 {
	return b.version
}

func (b *Board) ClearDirty() {
	b.dirty = false
}

func (b *Board) checkCity(id CityID) error {
	if _, ok := b.cities[id]; !ok {
		return domain.ErrUnknownCity.WithData("city", id)
	}
	return nil
}

func (b *Board) checkColor(c Color) error {
	if _, ok := b.supply[c]; !ok {
		return domain.ErrUnknownColor.WithData("color", c)
	}
	return nil
}

func (b *Board) checkCityColor(id CityID, c Color) error {
	if err := b.checkCity(id); err != nil {
		return err
	}
	return b.checkColor(c)
}

func (b *Board) checkAlive() error {
	if b.defeated {
		return domain.ErrGameOver.WithData("game_id", b.gameID)
	}
	return nil
}

// ---- 查询 ----

func (b *Board) CubesInCity(_ context.Context, city CityID, color Color) (int, error) {
	if err := b.checkCityColor(city, color); err != nil {
		return 0, err
	}
	return b.cubes[city][color], nil
}

func (b *Board) SupplyExhausted(_ context.Context, amount int, color Color) (bool, error) {
	if err := b.checkColor(color); err != nil {
		return false, err
	}
	if amount < 0 {
		return false, domain.ErrInvalidAmount.WithData("amount", amount)
	}
	return b.supply[color] < amount, nil
}

func (b *Board) DiseaseStatus(_ context.Context, color Color) (DiseaseStatus, error) {
	if err := b.checkColor(color); err != nil {
		return "", err
	}
	return b.status[color], nil
}

func (b *Board) Neighbors(_ context.Context, city CityID) ([]CityID, error) {
	if err := b.checkCity(city); err != nil {
		return nil, err
	}
	return append([]CityID(nil), b.cities[city].Neighbors...), nil
}

func (b *Board) InfectionRate(_ context.Context) (int, error) {
	return b.rules.InfectionRateTrack[b.rateIndex], nil
}

func (b *Board) PeekCard(_ context.Context, pos domain.DeckPosition) (InfectionCard, error) {
	if len(b.draw) == 0 {
		return InfectionCard{}, domain.ErrDeckEmpty.WithData("position", pos.String())
	}
	if pos == domain.Bottom {
		return b.draw[len(b.draw)-1], nil
	}
	return b.draw[0], nil
}

func (b *Board) TreatedAllOfColor(_ context.Context, color Color) (bool, error) {
	if err := b.checkColor(color); err != nil {
		return false, err
	}
	for _, id := range b.cityOrder {
		if b.cubes[id][color] > 0 {
			return false, nil
		}
	}
	return true, nil
}

// ---- 变更 ----

func (b *Board) ApplyCubeDelta(_ context.Context, city CityID, color Color, delta int) error {
	if err := b.checkAlive(); err != nil {
		return err
	}
	if err := b.checkCityColor(city, color); err != nil {
		return err
	}
	next := b.cubes[city][color] + delta
	if next < 0 || next > domain.MaxCubesPerCity {
		return domain.ErrInvalidAmount.
			WithData("city", city).
			WithData("color", color).
			WithData("delta", delta)
	}
	b.cubes[city][color] = next
	b.dirty = true
	return nil
}

func (b *Board) ApplySupplyDelta(_ context.Context, color Color, delta int) error {
	if err := b.checkAlive(); err != nil {
		return err
	}
	if err := b.checkColor(color); err != nil {
		return err
	}
	next := b.supply[color] + delta
	if next < 0 || next > b.rules.CubesPerColor {
		return domain.ErrInvalidAmount.WithData("color", color).WithData("delta", delta)
	}
	b.supply[color] = next
	b.dirty = true
	return nil
}

func (b *Board) SetDiseaseStatus(_ context.Context, color Color, status DiseaseStatus) error {
	if err := b.checkAlive(); err != nil {
		return err
	}
	if err := b.checkColor(color); err != nil {
		return err
	}
	cur := b.status[color]
	if !domain.CanTransition(cur, status) {
		return domain.ErrBadTransition.
			WithData("color", color).
			WithData("from", cur).
			WithData("to", status)
	}
	b.status[color] = status
	b.dirty = true
	return nil
}

func (b *Board) AdvanceInfectionRate(_ context.Context) error {
	if err := b.checkAlive(); err != nil {
		return err
	}
	if b.rateIndex < len(b.rules.InfectionRateTrack)-1 {
		b.rateIndex++
	}
	b.dirty = true
	return nil
}

func (b *Board) DiscardCard(_ context.Context, pos domain.DeckPosition) error {
	if err := b.checkAlive(); err != nil {
		return err
	}
	if len(b.draw) == 0 {
		return domain.ErrDeckEmpty.WithData("position", pos.String())
	}
	var card InfectionCard
	if pos == domain.Bottom {
		card = b.draw[len(b.draw)-1]
		b.draw = b.draw[:len(b.draw)-1]
	} else {
		card = b.draw[0]
		b.draw = b.draw[1:]
	}
	b.discard = append(b.discard, card)
	b.dirty = true
	return nil
}

// IntensifyDeck 洗混弃牌堆并整体放回抽牌堆顶部。
func (b *Board) IntensifyDeck(_ context.Context) error {
	if err := b.checkAlive(); err != nil {
		return err
	}
	pile := b.discard
	b.discard = nil
	b.shuffle(pile)
	b.draw = append(pile, b.draw...)
	b.dirty = true
	return nil
}

// RecordOutbreak 记录一次爆发；达到上限时由宿主判负，返回 ErrOutbreakLimit。
func (b *Board) RecordOutbreak(_ context.Context, city CityID, color Color) error {
	if err := b.checkAlive(); err != nil {
		return err
	}
	if err := b.checkCityColor(city, color); err != nil {
		return err
	}
	b.outbreaks++
	b.dirty = true
	if b.outbreaks >= b.rules.OutbreakLimit {
		b.defeated = true
		return domain.ErrOutbreakLimit.
			WithData("outbreaks", b.outbreaks).
			WithData("city", city).
			WithData("color", color)
	}
	return nil
}

func (b *Board) BeginInfectionPhase(_ context.Context) error {
	if err := b.checkAlive(); err != nil {
		return err
	}
	b.phases++
	b.dirty = true
	return nil
}

func (b *Board) Defeat(_ context.Context) error {
	b.defeated = true
	b.dirty = true
	return nil
}

// ---- 宿主侧的玩家动作（规则引擎之外） ----

// RemoveCubes 治疗：最多移除 amount 个方块并放回库存，返回实际移除数量。
func (b *Board) RemoveCubes(ctx context.Context, city CityID, color Color, amount int) (int, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidAmount.WithData("amount", amount)
	}
	cur, err := b.CubesInCity(ctx, city, color)
	if err != nil {
		return 0, err
	}
	n := min(amount, cur)
	if n == 0 {
		return 0, b.checkAlive()
	}
	if err := b.ApplyCubeDelta(ctx, city, color, -n); err != nil {
		return 0, err
	}
	if err := b.ApplySupplyDelta(ctx, color, n); err != nil {
		return 0, err
	}
	return n, nil
}

// Cure 研发出解药：active → cured。
func (b *Board) Cure(ctx context.Context, color Color) error {
	return b.SetDiseaseStatus(ctx, color, domain.Cured)
}
