package domain

import "testing"

func TestParseColor(t *testing.T) {
	c, err := ParseColor(" Blue ")
	if err != nil || c != Blue {
		t.Fatalf("got=%v err=%v", c, err)
	}
	if _, err := ParseColor("purple"); err == nil {
		t.Fatalf("未知颜色应返回错误")
	}
}

func TestCanTransition_只能逐级向前(t *testing.T) {
	if !CanTransition(Active, Cured) || !CanTransition(Cured, Eradicated) {
		t.Fatalf("active→cured→eradicated 应允许")
	}
	if CanTransition(Active, Eradicated) {
		t.Fatalf("未治愈不能直接根除")
	}
	if CanTransition(Eradicated, Cured) || CanTransition(Cured, Active) {
		t.Fatalf("状态不能倒退")
	}
	if CanTransition(Cured, Cured) {
		t.Fatalf("原地不算状态迁移")
	}
	if CanTransition("bogus", Cured) {
		t.Fatalf("非法状态不能迁移")
	}
}

func TestRules_WithDefaults(t *testing.T) {
	r := Rules{OutbreakLimit: 4}.WithDefaults()
	if r.CubesPerColor != 24 || r.OutbreakLimit != 4 || len(r.InfectionRateTrack) != 7 {
		t.Fatalf("默认值不符合预期: %+v", r)
	}
	r.InfectionRateTrack[0] = 99
	if DefaultInfectionRateTrack[0] != 2 {
		t.Fatalf("WithDefaults 不应共享默认轨道的底层数组")
	}
}
