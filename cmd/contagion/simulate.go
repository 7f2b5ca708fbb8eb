package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"Pandemic/internal/contagion/actor"
	"Pandemic/internal/contagion/actors"
	"Pandemic/internal/contagion/domain"
	"Pandemic/internal/contagion/entity"
	"Pandemic/internal/contagion/infra/persistence/memory"
	"Pandemic/internal/shared/logs"
	"Pandemic/internal/shared/serverconfig"
	"Pandemic/modules/kit/logx"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type simulateOptions struct {
	Turns         int
	EpidemicEvery int
	SetupFile     string
	Seed          uint64
	Quiet         bool
}

func newSimulateCmd() *cobra.Command {
	var opts simulateOptions
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "在内存棋盘上跑若干回合的感染和流行病，并打印每条规则事件",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Turns <= 0 {
				return fmt.Errorf("--turns must be positive")
			}
			level := "info"
			if opts.Quiet {
				level = "warn"
			}
			if err := logs.Init("simulate", serverconfig.LogConfig{Level: level}); err != nil {
				return err
			}
			defer logs.Sync()

			setup, err := loadSetup(opts.SetupFile)
			if err != nil {
				return err
			}
			res, err := simulate(cmd.Context(), setup, opts, logx.NewZapLogger(logs.Logger()))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"game=%s turns=%d outbreaks=%d infection_rate=%d events=%d defeated=%v\n",
				res.GameID, res.Turns, res.Board.Outbreaks, res.Board.Rate, res.Events, res.Board.Defeated)
			return nil
		},
	}
	cmd.Flags().IntVarP(&opts.Turns, "turns", "n", 10, "回合数")
	cmd.Flags().IntVar(&opts.EpidemicEvery, "epidemic-every", 4, "每隔多少回合发生一次流行病，0 表示不发生")
	cmd.Flags().StringVar(&opts.SetupFile, "setup", "configs/board.yml", "开局地图")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "洗牌种子，0 表示随机")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "不打印每条事件")
	return cmd
}

type simulateResult struct {
	GameID entity.GameID
	Turns  int
	Events int
	Board  *entity.BoardSnapshot
}

// simulate 每回合先按间隔触发流行病，再跑一次感染阶段；整局失败时提前结束。
func simulate(ctx context.Context, setup entity.Setup, opts simulateOptions, logger logx.Logger) (simulateResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var boardOpts []entity.BoardOption
	if opts.Seed != 0 {
		rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))
		boardOpts = append(boardOpts, entity.WithShuffler(func(cards []domain.InfectionCard) {
			rng.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
		}))
	}

	journal := memory.NewJournal(logger)
	rt := actor.NewRuntime(actors.Deps{
		Repo:       memory.NewBoardRepository(setup, boardOpts...),
		Journals:   journal,
		Logger:     logger,
		FlushEvery: time.Hour,
	}, 5*time.Second)
	defer rt.Shutdown()

	id := entity.GameID(uuid.NewString())
	res := simulateResult{GameID: id}
	var last *entity.BoardSnapshot

	for turn := 1; turn <= opts.Turns; turn++ {
		res.Turns = turn
		var msgs []actors.GameMessage
		if opts.EpidemicEvery > 0 && turn%opts.EpidemicEvery == 0 {
			msgs = append(msgs, &actors.RunEpidemic{GameID: id})
		}
		msgs = append(msgs, &actors.RunInfections{GameID: id})

		for _, msg := range msgs {
			reply, err := rt.Ask(ctx, msg)
			if reply != nil && reply.Board != nil {
				last = reply.Board
			}
			if err == nil {
				continue
			}
			if domain.IsTerminal(err) {
				logger.Warn("simulation ended in defeat", zap.Int("turn", turn), zap.Error(err))
				res.Board = last
				res.Events = len(journal.Events(id))
				return res, nil
			}
			return res, err
		}
	}
	res.Board = last
	res.Events = len(journal.Events(id))
	return res, nil
}
