package entity

import (
	"Pandemic/internal/contagion/domain"
)

type GameID string

// CitySetup 开局地图里的一个城市。Neighbors 只需写一侧，NewBoard 会补成无向边。
type CitySetup struct {
	ID        domain.CityID   `mapstructure:"id" json:"id" bson:"id"`
	Name      string          `mapstructure:"name" json:"name" bson:"name"`
	Color     domain.Color    `mapstructure:"color" json:"color" bson:"color"`
	Neighbors []domain.CityID `mapstructure:"neighbors" json:"neighbors" bson:"neighbors"`
}

// CubeSetup 开局预先放置的方块，会从对应颜色的库存里扣除。
type CubeSetup struct {
	City  domain.CityID `mapstructure:"city"`
	Color domain.Color  `mapstructure:"color"`
	Count int           `mapstructure:"count"`
}

type Setup struct {
	Rules  domain.Rules                          `mapstructure:"rules"`
	Cities []CitySetup                           `mapstructure:"cities"`
	Deck   []domain.CityID                       `mapstructure:"deck"` // 从牌顶到牌底；为空时按城市顺序洗牌生成
	Cubes  []CubeSetup                           `mapstructure:"cubes"`
	Status map[domain.Color]domain.DiseaseStatus `mapstructure:"status"`
}

func invalidSetup(reason string, kv ...any) error {
	err := domain.ErrInvalidSetup.WithData("reason", reason)
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			err = err.WithData(k, kv[i+1])
		}
	}
	return err
}
