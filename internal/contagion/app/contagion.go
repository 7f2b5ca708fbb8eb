package app

import (
	"context"
	"time"

	"Pandemic/internal/contagion/app/port"
	"Pandemic/internal/contagion/domain"
	"Pandemic/modules/kit/logx"

	"go.uber.org/zap"
)

type (
	CityID = domain.CityID
	Color  = domain.Color
)

// Contagion 执行疾病传播相关的规则流程：流行病、感染阶段、爆发连锁、根除判定。
// 每个流程都是同步的，任何来自 State 的错误（包括失败信号）都会让整个流程立即中止。
// 调用方需要保证同一时刻只有一个流程在执行。
type Contagion struct {
	state   port.State
	journal port.Journal
	logger  logx.Logger
	now     func() time.Time
	seq     uint64
}

type Option func(*Contagion)

func WithJournal(j port.Journal) Option {
	return func(c *Contagion) {
		c.journal = j
	}
}

func WithLogger(l logx.Logger) Option {
	return func(c *Contagion) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Contagion) {
		if now != nil {
			c.now = now
		}
	}
}

func NewContagion(state port.State, opts ...Option) *Contagion {
	c := &Contagion{
		state:  state,
		logger: logx.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UseCubes 往城市放 amount 个方块，超过上限的部分直接丢弃（截到 3）。
// 库存不够时发出失败信号并返回 ErrDefeat，此时不做任何变更。返回实际放置的数量。
func (c *Contagion) UseCubes(ctx context.Context, city CityID, color Color, amount int) (int, error) {
	if amount < 0 {
		return 0, domain.ErrInvalidAmount.WithData("amount", amount)
	}
	count, err := c.state.CubesInCity(ctx, city, color)
	if err != nil {
		return 0, err
	}
	toAdd := max(0, min(amount, domain.MaxCubesPerCity-count))

	exhausted, err := c.state.SupplyExhausted(ctx, toAdd, color)
	if err != nil {
		return 0, err
	}
	if exhausted {
		return 0, c.defeat(ctx, city, color, toAdd)
	}
	if toAdd == 0 {
		return 0, nil
	}

	if err := c.state.ApplySupplyDelta(ctx, color, -toAdd); err != nil {
		return 0, err
	}
	if err := c.state.ApplyCubeDelta(ctx, city, color, toAdd); err != nil {
		return 0, err
	}
	return toAdd, nil
}

func (c *Contagion) defeat(ctx context.Context, city CityID, color Color, needed int) error {
	c.emit(ctx, domain.EventDefeat, city, color, needed)
	c.logger.WithContext(ctx).Warn("disease cubes exhausted",
		zap.String("city", string(city)),
		zap.String("color", string(color)),
		zap.Int("needed", needed),
	)
	err := domain.ErrDefeat.
		WithData("city", city).
		WithData("color", color).
		WithData("needed", needed)
	if serr := c.state.Defeat(ctx); serr != nil {
		return err.WithCause(serr)
	}
	return err
}

// InfectOrOutbreak 感染一个城市；如果放置前该城市这种颜色已经是 3 个，则转为爆发。
func (c *Contagion) InfectOrOutbreak(ctx context.Context, city CityID, color Color, amount int) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount.WithData("amount", amount)
	}
	count, err := c.state.CubesInCity(ctx, city, color)
	if err != nil {
		return err
	}
	// 已饱和时仍走一次 UseCubes：保留库存检查，toAdd 为 0 不会改变状态
	if _, err := c.UseCubes(ctx, city, color, amount); err != nil {
		return err
	}
	c.emit(ctx, domain.EventInfectCity, city, color, amount)

	if count < domain.MaxCubesPerCity {
		return nil
	}
	_, err = c.Outbreak(ctx, city, color)
	return err
}

// Outbreak 从 city 开始处理一次完整的爆发连锁，返回按顺序爆发过的城市。
//
// 队列和 visited 集合只属于这一次连锁：每个城市在一次连锁里最多爆发一次，
// 已饱和的邻居先入队，等当前城市的所有邻居处理完再依次出队（广度优先）。
func (c *Contagion) Outbreak(ctx context.Context, city CityID, color Color) ([]CityID, error) {
	queue := []CityID{city}
	visited := make(map[CityID]struct{})
	// 已在队列里的城市不再重复入队
	queued := map[CityID]struct{}{city: {}}
	var chain []CityID

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if _, done := visited[cur]; done {
			continue
		}
		visited[cur] = struct{}{}
		chain = append(chain, cur)

		if err := c.state.RecordOutbreak(ctx, cur, color); err != nil {
			return chain, err
		}
		c.emit(ctx, domain.EventInitOutbreak, cur, color, 0)

		neighbors, err := c.state.Neighbors(ctx, cur)
		if err != nil {
			return chain, err
		}
		for _, n := range neighbors {
			if _, done := visited[n]; done {
				continue
			}
			if _, waiting := queued[n]; waiting {
				continue
			}
			count, err := c.state.CubesInCity(ctx, n, color)
			if err != nil {
				return chain, err
			}
			if count >= domain.MaxCubesPerCity {
				queue = append(queue, n)
				queued[n] = struct{}{}
				c.emit(ctx, domain.EventQueueOutbreak, n, color, 0)
				continue
			}
			if _, err := c.UseCubes(ctx, n, color, 1); err != nil {
				return chain, err
			}
		}
		c.emit(ctx, domain.EventCompleteOutbreak, cur, color, 0)
	}

	c.logger.WithContext(ctx).Info("outbreak resolved",
		zap.String("origin", string(city)),
		zap.String("color", string(color)),
		zap.Int("chain", len(chain)),
	)
	return chain, nil
}

// Infections 执行一次常规感染阶段：按当前感染速率翻开牌顶的牌，每张感染 1 个方块。
// 已根除的疾病直接弃牌，不会尝试放置方块。
func (c *Contagion) Infections(ctx context.Context) error {
	if err := c.state.BeginInfectionPhase(ctx); err != nil {
		return err
	}
	rate, err := c.state.InfectionRate(ctx)
	if err != nil {
		return err
	}
	for i := 0; i < rate; i++ {
		card, err := c.state.PeekCard(ctx, domain.Top)
		if err != nil {
			return err
		}
		status, err := c.state.DiseaseStatus(ctx, card.Color)
		if err != nil {
			return err
		}
		if status != domain.Eradicated {
			if err := c.InfectOrOutbreak(ctx, card.City, card.Color, 1); err != nil {
				return err
			}
		}
		if err := c.state.DiscardCard(ctx, domain.Top); err != nil {
			return err
		}
		c.emit(ctx, domain.EventDiscardCard, card.City, card.Color, 0)
	}
	return nil
}

// epidemicCubes 流行病一次放 3 个方块。
const epidemicCubes = 3

// Epidemic 处理一张流行病牌：速率前进一格，翻开牌底感染 3 个方块并弃掉，最后强化牌堆。
// 牌底城市的疾病已根除时跳过感染和弃牌，但强化一定会执行。
func (c *Contagion) Epidemic(ctx context.Context) error {
	if err := c.state.AdvanceInfectionRate(ctx); err != nil {
		return err
	}
	c.emit(ctx, domain.EventEpidemicIncrease, "", "", 0)

	card, err := c.state.PeekCard(ctx, domain.Bottom)
	if err != nil {
		return err
	}
	status, err := c.state.DiseaseStatus(ctx, card.Color)
	if err != nil {
		return err
	}
	if status != domain.Eradicated {
		c.emit(ctx, domain.EventEpidemicInfect, card.City, card.Color, epidemicCubes)
		if err := c.InfectOrOutbreak(ctx, card.City, card.Color, epidemicCubes); err != nil {
			return err
		}
		if err := c.state.DiscardCard(ctx, domain.Bottom); err != nil {
			return err
		}
		c.emit(ctx, domain.EventDiscardCard, card.City, card.Color, 0)
	}

	if err := c.state.IntensifyDeck(ctx); err != nil {
		return err
	}
	c.emit(ctx, domain.EventEpidemicIntensify, "", "", 0)
	return nil
}

// CheckForEradication 在移除方块后调用：只有已治愈且场上没有该颜色方块时才根除。
func (c *Contagion) CheckForEradication(ctx context.Context, color Color) (bool, error) {
	treated, err := c.state.TreatedAllOfColor(ctx, color)
	if err != nil || !treated {
		return false, err
	}
	status, err := c.state.DiseaseStatus(ctx, color)
	if err != nil || status != domain.Cured {
		return false, err
	}
	if err := c.state.SetDiseaseStatus(ctx, color, domain.Eradicated); err != nil {
		return false, err
	}
	c.emit(ctx, domain.EventEradicate, "", color, 0)
	c.logger.WithContext(ctx).Info("disease eradicated", zap.String("color", string(color)))
	return true, nil
}

func (c *Contagion) emit(ctx context.Context, kind domain.EventKind, city CityID, color Color, amount int) {
	c.seq++
	if c.journal == nil {
		return
	}
	e := domain.Event{
		Seq:    c.seq,
		Kind:   kind,
		City:   city,
		Color:  color,
		Amount: amount,
		At:     c.now(),
	}
	// 事件日志只用于回放，写失败不影响规则结果
	if err := c.journal.Append(ctx, e); err != nil {
		logx.ReportSysErrorWithLoggerContext(ctx, c.logger, "journal_append", err,
			zap.String("event", string(kind)),
			zap.Uint64("seq", e.Seq),
		)
	}
}
