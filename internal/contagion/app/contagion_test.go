package app

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"Pandemic/internal/contagion/domain"
	"Pandemic/internal/contagion/entity"

	"github.com/google/go-cmp/cmp"
)

func withCubes(s entity.Setup, cubes ...entity.CubeSetup) entity.Setup {
	s.Cubes = append(s.Cubes, cubes...)
	return s
}

func blue(city CityID, n int) entity.CubeSetup {
	return entity.CubeSetup{City: city, Color: domain.Blue, Count: n}
}

func TestUseCubes_放得下时全部放置(t *testing.T) {
	f := newFixture(t, withCubes(lineSetup(), blue("a", 1)))

	n, err := f.engine.UseCubes(context.Background(), "a", domain.Blue, 2)
	if err != nil || n != 2 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	want := []string{"cubes a blue", "exhausted 2 blue", "supply_delta blue -2", "cube_delta a blue 2"}
	if diff := cmp.Diff(want, f.state.calls); diff != "" {
		t.Fatalf("调用顺序不符合预期 (-want +got):\n%s", diff)
	}
	mustCubes(t, f.board, "a", domain.Blue, 3)
	if f.board.Supply(domain.Blue) != 21 {
		t.Fatalf("supply=%d", f.board.Supply(domain.Blue))
	}
}

func TestUseCubes_超过上限时只补到3(t *testing.T) {
	f := newFixture(t, withCubes(lineSetup(), blue("a", 2)))

	n, err := f.engine.UseCubes(context.Background(), "a", domain.Blue, 2)
	if err != nil || n != 1 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	if f.state.calls[1] != "exhausted 1 blue" {
		t.Fatalf("库存检查应按截断后的数量, calls=%v", f.state.calls)
	}
	mustCubes(t, f.board, "a", domain.Blue, 3)
}

func TestUseCubes_已饱和时不做变更(t *testing.T) {
	f := newFixture(t, withCubes(lineSetup(), blue("a", 3)))

	n, err := f.engine.UseCubes(context.Background(), "a", domain.Blue, 1)
	if err != nil || n != 0 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	want := []string{"cubes a blue", "exhausted 0 blue"}
	if diff := cmp.Diff(want, f.state.calls); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestUseCubes_库存不足时判负且不变更(t *testing.T) {
	setup := withCubes(lineSetup(), blue("b", 2))
	setup.Rules.CubesPerColor = 2
	f := newFixture(t, setup)

	n, err := f.engine.UseCubes(context.Background(), "a", domain.Blue, 1)
	mustErrIs(t, err, domain.ErrDefeat)
	if n != 0 {
		t.Fatalf("失败时不应放置方块, n=%d", n)
	}
	want := []string{"cubes a blue", "exhausted 1 blue", "defeat"}
	if diff := cmp.Diff(want, f.state.calls); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	mustCubes(t, f.board, "a", domain.Blue, 0)
	if !f.board.Defeated() {
		t.Fatalf("宿主应收到失败信号")
	}
	if got := f.journal.kinds(); got[len(got)-1] != "defeat a" {
		t.Fatalf("事件日志应以 defeat 结尾: %v", got)
	}
}

func TestUseCubes_非法参数尽早失败(t *testing.T) {
	f := newFixture(t, lineSetup())
	ctx := context.Background()

	_, err := f.engine.UseCubes(ctx, "a", domain.Blue, -1)
	mustErrIs(t, err, domain.ErrInvalidAmount)
	_, err = f.engine.UseCubes(ctx, "nowhere", domain.Blue, 1)
	mustErrIs(t, err, domain.ErrUnknownCity)
	err = f.engine.InfectOrOutbreak(ctx, "a", domain.Blue, 0)
	mustErrIs(t, err, domain.ErrInvalidAmount)
	err = f.engine.InfectOrOutbreak(ctx, "a", "purple", 1)
	mustErrIs(t, err, domain.ErrUnknownColor)
}

func TestInfectOrOutbreak_两个方块再感染一个不爆发(t *testing.T) {
	f := newFixture(t, withCubes(lineSetup(), blue("a", 2)))

	if err := f.engine.InfectOrOutbreak(context.Background(), "a", domain.Blue, 1); err != nil {
		t.Fatalf("err=%v", err)
	}
	mustCubes(t, f.board, "a", domain.Blue, 3)
	if f.board.Outbreaks() != 0 {
		t.Fatalf("不应爆发")
	}
	if diff := cmp.Diff([]string{"infect_city a"}, f.journal.kinds()); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestInfectOrOutbreak_已饱和时转为爆发(t *testing.T) {
	f := newFixture(t, withCubes(lineSetup(), blue("a", 3)))

	if err := f.engine.InfectOrOutbreak(context.Background(), "a", domain.Blue, 1); err != nil {
		t.Fatalf("err=%v", err)
	}
	mustCubes(t, f.board, "a", domain.Blue, 3)
	mustCubes(t, f.board, "b", domain.Blue, 1)
	mustCubes(t, f.board, "r", domain.Blue, 1)
	if f.board.Outbreaks() != 1 {
		t.Fatalf("outbreaks=%d", f.board.Outbreaks())
	}
	want := []string{"infect_city a", "init_outbreak a", "complete_outbreak a"}
	if diff := cmp.Diff(want, f.journal.kinds()); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestOutbreak_饱和邻居先入队再按广度优先处理(t *testing.T) {
	f := newFixture(t, withCubes(lineSetup(), blue("a", 3), blue("b", 3), blue("c", 3)))

	chain, err := f.engine.Outbreak(context.Background(), "a", domain.Blue)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if diff := cmp.Diff([]CityID{"a", "b", "c"}, chain); diff != "" {
		t.Fatalf("爆发顺序 (-want +got):\n%s", diff)
	}
	want := []string{
		"init_outbreak a", "queue_outbreak b", "complete_outbreak a",
		"init_outbreak b", "queue_outbreak c", "complete_outbreak b",
		"init_outbreak c", "complete_outbreak c",
	}
	if diff := cmp.Diff(want, f.journal.kinds()); diff != "" {
		t.Fatalf("事件顺序 (-want +got):\n%s", diff)
	}
	mustCubes(t, f.board, "d", domain.Blue, 1)
	mustCubes(t, f.board, "r", domain.Blue, 1)
	if f.board.Outbreaks() != 3 {
		t.Fatalf("outbreaks=%d", f.board.Outbreaks())
	}
}

func TestOutbreak_完全图上每个城市只爆发一次(t *testing.T) {
	ids := []CityID{"w", "x", "y", "z"}
	setup := entity.Setup{Rules: domain.Rules{OutbreakLimit: 8}}
	for _, id := range ids {
		var others []CityID
		for _, o := range ids {
			if o != id {
				others = append(others, o)
			}
		}
		setup.Cities = append(setup.Cities, entity.CitySetup{ID: id, Color: domain.Blue, Neighbors: others})
		setup.Cubes = append(setup.Cubes, blue(id, 3))
	}
	f := newFixture(t, setup)

	chain, err := f.engine.Outbreak(context.Background(), "w", domain.Blue)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if diff := cmp.Diff(ids, chain); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	if f.board.Outbreaks() != 4 {
		t.Fatalf("outbreaks=%d", f.board.Outbreaks())
	}
	if f.board.Supply(domain.Blue) != 24-12 {
		t.Fatalf("全部饱和时不应再消耗库存, supply=%d", f.board.Supply(domain.Blue))
	}
}

// a、b 都挨着已饱和的 c：c 只入队一次，事件里也只出现一次 queue_outbreak。
func TestOutbreak_两个爆发城市共用的饱和邻居只入队一次(t *testing.T) {
	setup := entity.Setup{
		Rules: domain.Rules{CubesPerColor: 24, OutbreakLimit: 8},
		Cities: []entity.CitySetup{
			{ID: "a", Color: domain.Blue, Neighbors: []CityID{"b", "c"}},
			{ID: "b", Color: domain.Blue, Neighbors: []CityID{"c"}},
			{ID: "c", Color: domain.Blue},
		},
		Cubes: []entity.CubeSetup{blue("a", 3), blue("b", 3), blue("c", 3)},
	}
	f := newFixture(t, setup)

	chain, err := f.engine.Outbreak(context.Background(), "a", domain.Blue)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if diff := cmp.Diff([]CityID{"a", "b", "c"}, chain); diff != "" {
		t.Fatalf("爆发顺序 (-want +got):\n%s", diff)
	}
	want := []string{
		"init_outbreak a", "queue_outbreak b", "queue_outbreak c", "complete_outbreak a",
		"init_outbreak b", "complete_outbreak b",
		"init_outbreak c", "complete_outbreak c",
	}
	if diff := cmp.Diff(want, f.journal.kinds()); diff != "" {
		t.Fatalf("事件顺序 (-want +got):\n%s", diff)
	}
}

func TestOutbreak_连锁中库存耗尽立即中止(t *testing.T) {
	setup := withCubes(lineSetup(), blue("a", 3), blue("b", 3))
	setup.Rules.CubesPerColor = 6
	f := newFixture(t, setup)

	chain, err := f.engine.Outbreak(context.Background(), "a", domain.Blue)
	mustErrIs(t, err, domain.ErrDefeat)
	if diff := cmp.Diff([]CityID{"a"}, chain); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	if f.board.Outbreaks() != 1 {
		t.Fatalf("队列里的 b 不应再爆发, outbreaks=%d", f.board.Outbreaks())
	}
	want := []string{"init_outbreak a", "queue_outbreak b", "defeat r"}
	if diff := cmp.Diff(want, f.journal.kinds()); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestOutbreak_达到爆发上限时中止(t *testing.T) {
	setup := withCubes(lineSetup(), blue("a", 3), blue("b", 3), blue("c", 3))
	setup.Rules.OutbreakLimit = 2
	f := newFixture(t, setup)

	chain, err := f.engine.Outbreak(context.Background(), "a", domain.Blue)
	mustErrIs(t, err, domain.ErrOutbreakLimit)
	if !domain.IsTerminal(err) {
		t.Fatalf("爆发上限应视为终局")
	}
	if diff := cmp.Diff([]CityID{"a", "b"}, chain); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	mustCubes(t, f.board, "d", domain.Blue, 0)
	if f.board.Outbreaks() != 2 {
		t.Fatalf("outbreaks=%d", f.board.Outbreaks())
	}
}

func TestInfections_按感染速率翻牌(t *testing.T) {
	f := newFixture(t, lineSetup())

	if err := f.engine.Infections(context.Background()); err != nil {
		t.Fatalf("err=%v", err)
	}
	want := []string{
		"begin_phase", "rate",
		"peek top", "status blue", "cubes a blue", "cubes a blue", "exhausted 1 blue",
		"supply_delta blue -1", "cube_delta a blue 1", "discard top",
		"peek top", "status blue", "cubes b blue", "cubes b blue", "exhausted 1 blue",
		"supply_delta blue -1", "cube_delta b blue 1", "discard top",
	}
	if diff := cmp.Diff(want, f.state.calls); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	mustCubes(t, f.board, "a", domain.Blue, 1)
	mustCubes(t, f.board, "b", domain.Blue, 1)
	if d := f.board.DiscardPile(); len(d) != 2 || d[0].City != "a" || d[1].City != "b" {
		t.Fatalf("discard=%v", d)
	}
	if f.board.InfectionPhases() != 1 {
		t.Fatalf("宿主应记录感染阶段开始")
	}
}

func TestInfections_已根除的疾病直接弃牌(t *testing.T) {
	setup := lineSetup()
	setup.Rules.InfectionRateTrack = []int{1}
	setup.Deck = []CityID{"r", "a"}
	setup.Status = map[domain.Color]domain.DiseaseStatus{domain.Red: domain.Eradicated}
	f := newFixture(t, setup)

	if err := f.engine.Infections(context.Background()); err != nil {
		t.Fatalf("err=%v", err)
	}
	want := []string{"begin_phase", "rate", "peek top", "status red", "discard top"}
	if diff := cmp.Diff(want, f.state.calls); diff != "" {
		t.Fatalf("已根除时不应有任何放置尝试 (-want +got):\n%s", diff)
	}
	mustCubes(t, f.board, "r", domain.Red, 0)
	if f.board.Supply(domain.Red) != 24 {
		t.Fatalf("库存不应变化")
	}
}

func TestEpidemic_已治愈的疾病照常感染3个并强化(t *testing.T) {
	setup := lineSetup()
	setup.Rules.InfectionRateTrack = []int{1, 2}
	setup.Deck = []CityID{"r", "a", "b", "c", "d"}
	setup.Status = map[domain.Color]domain.DiseaseStatus{domain.Blue: domain.Cured}
	f := newFixture(t, setup, entity.WithShuffler(reverseShuffle))
	ctx := context.Background()

	if err := f.engine.Infections(ctx); err != nil {
		t.Fatalf("err=%v", err)
	}
	f.journal.events = nil
	f.state.calls = nil

	if err := f.engine.Epidemic(ctx); err != nil {
		t.Fatalf("err=%v", err)
	}
	want := []string{"epidemic_increase", "epidemic_infect d", "infect_city d", "discard_card d", "epidemic_intensify"}
	if diff := cmp.Diff(want, f.journal.kinds()); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	if f.state.calls[0] != "advance_rate" || f.state.calls[len(f.state.calls)-1] != "intensify" {
		t.Fatalf("速率提升应最先执行、强化最后执行: %v", f.state.calls)
	}
	mustCubes(t, f.board, "d", domain.Blue, 3)
	if rate, _ := f.board.InfectionRate(ctx); rate != 2 {
		t.Fatalf("rate=%d", rate)
	}
	var order []CityID
	for _, c := range f.board.DrawPile() {
		order = append(order, c.City)
	}
	if diff := cmp.Diff([]CityID{"d", "r", "a", "b", "c"}, order); diff != "" {
		t.Fatalf("弃牌堆应洗混后放回牌顶 (-want +got):\n%s", diff)
	}
	if len(f.board.DiscardPile()) != 0 {
		t.Fatalf("强化后弃牌堆应为空")
	}
}

func TestEpidemic_牌底城市已饱和时爆发(t *testing.T) {
	setup := withCubes(lineSetup(), blue("d", 3))
	setup.Deck = []CityID{"a", "b", "c", "r", "d"}
	f := newFixture(t, setup)

	if err := f.engine.Epidemic(context.Background()); err != nil {
		t.Fatalf("err=%v", err)
	}
	if f.board.Outbreaks() != 1 {
		t.Fatalf("outbreaks=%d", f.board.Outbreaks())
	}
	mustCubes(t, f.board, "c", domain.Blue, 1)
}

func TestEpidemic_已根除时跳过感染但仍然强化(t *testing.T) {
	setup := lineSetup()
	setup.Status = map[domain.Color]domain.DiseaseStatus{domain.Red: domain.Eradicated}
	f := newFixture(t, setup)
	ctx := context.Background()

	if err := f.engine.Epidemic(ctx); err != nil {
		t.Fatalf("err=%v", err)
	}
	want := []string{"advance_rate", "peek bottom", "status red", "intensify"}
	if diff := cmp.Diff(want, f.state.calls); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	if bottom, _ := f.board.PeekCard(ctx, domain.Bottom); bottom.City != "r" {
		t.Fatalf("已根除时牌底的牌不弃掉, bottom=%v", bottom)
	}
	if f.board.Supply(domain.Red) != 24 {
		t.Fatalf("不应放置方块")
	}
}

func TestEpidemic_流程中失败时不再强化(t *testing.T) {
	setup := withCubes(lineSetup(), blue("c", 2))
	setup.Rules.CubesPerColor = 4
	setup.Deck = []CityID{"a", "b", "c", "r", "d"}
	f := newFixture(t, setup)

	err := f.engine.Epidemic(context.Background())
	mustErrIs(t, err, domain.ErrDefeat)
	for _, c := range f.state.calls {
		if c == "intensify" || c == "discard bottom" {
			t.Fatalf("失败后流程应立即展开, calls=%v", f.state.calls)
		}
	}
}

func TestCheckForEradication(t *testing.T) {
	ctx := context.Background()

	t.Run("场上还有方块", func(t *testing.T) {
		setup := withCubes(lineSetup(), blue("a", 1))
		setup.Status = map[domain.Color]domain.DiseaseStatus{domain.Blue: domain.Cured}
		f := newFixture(t, setup)
		ok, err := f.engine.CheckForEradication(ctx, domain.Blue)
		if err != nil || ok {
			t.Fatalf("ok=%v err=%v", ok, err)
		}
		if diff := cmp.Diff([]string{"treated blue"}, f.state.calls); diff != "" {
			t.Fatalf("(-want +got):\n%s", diff)
		}
	})

	t.Run("未治愈不能根除", func(t *testing.T) {
		f := newFixture(t, lineSetup())
		ok, err := f.engine.CheckForEradication(ctx, domain.Blue)
		if err != nil || ok {
			t.Fatalf("ok=%v err=%v", ok, err)
		}
		if f.board.Status(domain.Blue) != domain.Active {
			t.Fatalf("status=%v", f.board.Status(domain.Blue))
		}
	})

	t.Run("已治愈且清空则根除", func(t *testing.T) {
		setup := lineSetup()
		setup.Status = map[domain.Color]domain.DiseaseStatus{domain.Blue: domain.Cured}
		f := newFixture(t, setup)
		ok, err := f.engine.CheckForEradication(ctx, domain.Blue)
		if err != nil || !ok {
			t.Fatalf("ok=%v err=%v", ok, err)
		}
		want := []string{"treated blue", "status blue", "set_status blue eradicated"}
		if diff := cmp.Diff(want, f.state.calls); diff != "" {
			t.Fatalf("(-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]string{"eradicate_disease"}, f.journal.kinds()); diff != "" {
			t.Fatalf("(-want +got):\n%s", diff)
		}
	})

	t.Run("已根除保持不变", func(t *testing.T) {
		setup := lineSetup()
		setup.Status = map[domain.Color]domain.DiseaseStatus{domain.Blue: domain.Eradicated}
		f := newFixture(t, setup)
		ok, err := f.engine.CheckForEradication(ctx, domain.Blue)
		if err != nil || ok {
			t.Fatalf("ok=%v err=%v", ok, err)
		}
		if f.board.Status(domain.Blue) != domain.Eradicated {
			t.Fatalf("状态不应倒退")
		}
	})
}

func TestJournal_写失败不影响规则结果(t *testing.T) {
	f := newFixture(t, lineSetup())
	f.journal.err = errors.New("journal down")

	if err := f.engine.InfectOrOutbreak(context.Background(), "a", domain.Blue, 2); err != nil {
		t.Fatalf("err=%v", err)
	}
	mustCubes(t, f.board, "a", domain.Blue, 2)
	if f.journal.events[0].Seq != 1 || f.journal.events[0].At.IsZero() {
		t.Fatalf("事件应带序号和时间: %+v", f.journal.events[0])
	}
}

// 随机放置序列：任何时候单城单色不超过 3，且场上方块 + 库存 恒等于总量。
func TestProperty_方块上限与守恒(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	cities := []CityID{"a", "b", "c", "d", "r"}
	colors := []Color{domain.Blue, domain.Red}

	for round := 0; round < 20; round++ {
		setup := lineSetup()
		setup.Rules.OutbreakLimit = 1000
		f := newFixture(t, setup)
		ctx := context.Background()

		for step := 0; step < 200; step++ {
			city := cities[rng.IntN(len(cities))]
			color := colors[rng.IntN(len(colors))]
			err := f.engine.InfectOrOutbreak(ctx, city, color, 1+rng.IntN(3))
			for _, col := range colors {
				onBoard := 0
				for _, c := range cities {
					n := f.board.Cubes(c, col)
					if n > domain.MaxCubesPerCity {
						t.Fatalf("round=%d step=%d: %s/%s=%d 超过上限", round, step, c, col, n)
					}
					onBoard += n
				}
				if onBoard+f.board.Supply(col) != setup.Rules.CubesPerColor {
					t.Fatalf("round=%d step=%d: %s 方块不守恒", round, step, col)
				}
			}
			if err != nil {
				if !domain.IsTerminal(err) {
					t.Fatalf("unexpected err=%v", err)
				}
				break
			}
		}
	}
}

// 随机图（可能有环）上的单次连锁：每个城市最多爆发一次，且一定结束。
func TestProperty_连锁在任意图上终止(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	const n = 8

	for round := 0; round < 50; round++ {
		setup := entity.Setup{Rules: domain.Rules{OutbreakLimit: 1000, CubesPerColor: 3 * n}}
		for i := 0; i < n; i++ {
			id := CityID(rune('a' + i))
			cs := entity.CitySetup{ID: id, Color: domain.Blue}
			for j := i + 1; j < n; j++ {
				if rng.IntN(3) == 0 {
					cs.Neighbors = append(cs.Neighbors, CityID(rune('a'+j)))
				}
			}
			setup.Cities = append(setup.Cities, cs)
			if k := rng.IntN(4); k > 0 {
				setup.Cubes = append(setup.Cubes, blue(id, k))
			}
		}
		f := newFixture(t, setup)
		start := CityID(rune('a' + rng.IntN(n)))

		chain, err := f.engine.Outbreak(context.Background(), start, domain.Blue)
		if err != nil {
			t.Fatalf("round=%d err=%v", round, err)
		}
		seen := map[CityID]bool{}
		for _, c := range chain {
			if seen[c] {
				t.Fatalf("round=%d: %s 在一次连锁中爆发两次 chain=%v", round, c, chain)
			}
			seen[c] = true
		}
		if f.board.Outbreaks() != len(chain) {
			t.Fatalf("round=%d: outbreaks=%d chain=%d", round, f.board.Outbreaks(), len(chain))
		}
	}
}
