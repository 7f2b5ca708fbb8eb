package entity

import (
	"Pandemic/internal/contagion/domain"
)

type CubeCount struct {
	City  CityID `json:"city" bson:"city"`
	Color Color  `json:"color" bson:"color"`
	Count int    `json:"count" bson:"count"`
}

// BoardSnapshot 是对局的完整持久化快照（地图 + 全部可变状态），也用作对外的只读视图。
type BoardSnapshot struct {
	Version   uint64                  `json:"version" bson:"version"`
	GameID    GameID                  `json:"game_id" bson:"_id"`
	Rules     domain.Rules            `json:"rules" bson:"rules"`
	Cities    []CitySetup             `json:"cities" bson:"cities"`
	Cubes     []CubeCount             `json:"cubes" bson:"cubes"`
	Supply    map[Color]int           `json:"supply" bson:"supply"`
	Status    map[Color]DiseaseStatus `json:"status" bson:"status"`
	RateIndex int                     `json:"rate_index" bson:"rate_index"`
	Rate      int                     `json:"infection_rate" bson:"infection_rate"`
	Draw      []InfectionCard         `json:"draw" bson:"draw"`
	Discard   []InfectionCard         `json:"discard" bson:"discard"`
	Outbreaks int                     `json:"outbreaks" bson:"outbreaks"`
	Phases    int                     `json:"infection_phases" bson:"infection_phases"`
	Defeated  bool                    `json:"defeated" bson:"defeated"`
}

// Snapshot 无条件生成快照。
func (b *Board) Snapshot(version uint64) *BoardSnapshot {
	s := &BoardSnapshot{
		Version:   version,
		GameID:    b.gameID,
		Rules:     b.rules,
		Supply:    make(map[Color]int, len(b.supply)),
		Status:    make(map[Color]DiseaseStatus, len(b.status)),
		RateIndex: b.rateIndex,
		Rate:      b.rules.InfectionRateTrack[b.rateIndex],
		Draw:      b.DrawPile(),
		Discard:   b.DiscardPile(),
		Outbreaks: b.outbreaks,
		Phases:    b.phases,
		Defeated:  b.defeated,
	}
	s.Rules.InfectionRateTrack = append([]int(nil), b.rules.InfectionRateTrack...)
	for _, id := range b.cityOrder {
		c := b.cities[id]
		s.Cities = append(s.Cities, CitySetup{
			ID:        c.ID,
			Name:      c.Name,
			Color:     c.Color,
			Neighbors: append([]CityID(nil), c.Neighbors...),
		})
		for _, color := range b.colors {
			if n := b.cubes[id][color]; n > 0 {
				s.Cubes = append(s.Cubes, CubeCount{City: id, Color: color, Count: n})
			}
		}
	}
	for k, v := range b.supply {
		s.Supply[k] = v
	}
	for k, v := range b.status {
		s.Status[k] = v
	}
	return s
}

// BuildPersistSnapshot 只有在有未落库的变更时才生成快照。
func (b *Board) BuildPersistSnapshot(version uint64) (*BoardSnapshot, bool) {
	if b == nil || !b.Dirty() {
		return nil, false
	}
	return b.Snapshot(version), true
}

// HydrateBoard 从快照还原对局。
func HydrateBoard(s *BoardSnapshot, opts ...BoardOption) (*Board, error) {
	if s == nil {
		return nil, invalidSetup("nil snapshot")
	}
	deck := make([]CityID, 0, 1)
	for _, c := range s.Draw {
		deck = append(deck, c.City)
	}
	// 先用一张占位牌构建地图，牌堆稍后直接覆盖
	if len(deck) == 0 && len(s.Cities) > 0 {
		deck = append(deck, s.Cities[0].ID)
	}
	b, err := NewBoard(s.GameID, Setup{Rules: s.Rules, Cities: s.Cities, Deck: deck}, opts...)
	if err != nil {
		return nil, err
	}
	for _, cc := range s.Cubes {
		if err := b.checkCityColor(cc.City, cc.Color); err != nil {
			return nil, err
		}
		if cc.Count < 0 || cc.Count > domain.MaxCubesPerCity {
			return nil, invalidSetup("bad cube count in snapshot", "city", cc.City, "count", cc.Count)
		}
		b.cubes[cc.City][cc.Color] = cc.Count
	}
	for color, n := range s.Supply {
		if err := b.checkColor(color); err != nil {
			return nil, err
		}
		b.supply[color] = n
	}
	for color, st := range s.Status {
		if err := b.checkColor(color); err != nil {
			return nil, err
		}
		if !st.Valid() {
			return nil, invalidSetup("unknown status in snapshot", "color", color, "status", st)
		}
		b.status[color] = st
	}
	if s.RateIndex < 0 || s.RateIndex >= len(b.rules.InfectionRateTrack) {
		return nil, invalidSetup("rate index out of range", "rate_index", s.RateIndex)
	}
	b.rateIndex = s.RateIndex
	b.draw = append([]InfectionCard(nil), s.Draw...)
	b.discard = append([]InfectionCard(nil), s.Discard...)
	b.outbreaks = s.Outbreaks
	b.phases = s.Phases
	b.defeated = s.Defeated
	b.version = s.Version
	return b, nil
}
