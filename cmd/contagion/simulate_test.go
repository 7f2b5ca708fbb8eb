package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"Pandemic/internal/contagion/domain"
	"Pandemic/internal/contagion/entity"
	"Pandemic/internal/shared/security"
	"Pandemic/modules/kit/logx"
)

func TestSimulate_参考地图跑几回合(t *testing.T) {
	setup, err := loadSetup("configs/board.yml")
	if err != nil {
		t.Fatalf("load setup: %v", err)
	}
	res, err := simulate(context.Background(), setup, simulateOptions{Turns: 4, EpidemicEvery: 2, Seed: 7}, logx.Nop())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if res.Board == nil || res.Events == 0 {
		t.Fatalf("res=%+v", res)
	}
	if res.Board.RateIndex != 2 {
		t.Fatalf("两次流行病后 rate_index=%d, want 2", res.Board.RateIndex)
	}
	if res.Board.Phases != res.Turns {
		t.Fatalf("phases=%d turns=%d", res.Board.Phases, res.Turns)
	}
}

func TestSimulate_方块耗尽时提前结束(t *testing.T) {
	setup := entity.Setup{
		Rules: domain.Rules{CubesPerColor: 1},
		Cities: []entity.CitySetup{
			{ID: "a", Color: domain.Blue, Neighbors: []domain.CityID{"b"}},
			{ID: "b", Color: domain.Blue, Neighbors: []domain.CityID{"c"}},
			{ID: "c", Color: domain.Blue},
		},
		Deck: []domain.CityID{"a", "b", "c"},
	}
	res, err := simulate(context.Background(), setup, simulateOptions{Turns: 5}, logx.Nop())
	if err != nil {
		t.Fatalf("失败是正常结局, err=%v", err)
	}
	if res.Turns != 1 || res.Board == nil || !res.Board.Defeated {
		t.Fatalf("res=%+v", res)
	}
	// infect_city a, discard a, defeat
	if res.Events != 3 {
		t.Fatalf("events=%d, want 3", res.Events)
	}
}

func TestSimulateCmd_参数校验(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"simulate", "--turns", "0"})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "--turns") {
		t.Fatalf("err=%v", err)
	}
}

func TestTokenCmd_签发的令牌可校验(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"token", "--game", "g1", "--secret", "s"})
	if err := root.Execute(); err != nil {
		t.Fatalf("err=%v", err)
	}
	if err := security.VerifyGame("s", strings.TrimSpace(out.String()), "g1"); err != nil {
		t.Fatalf("err=%v", err)
	}
}
