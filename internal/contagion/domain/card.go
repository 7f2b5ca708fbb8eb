package domain

// InfectionCard 感染牌：一张牌对应一个城市和该城市的颜色。
type InfectionCard struct {
	City  CityID `json:"city" bson:"city"`
	Color Color  `json:"color" bson:"color"`
}

type DeckPosition int

const (
	Top DeckPosition = iota
	Bottom
)

func (p DeckPosition) String() string {
	if p == Bottom {
		return "bottom"
	}
	return "top"
}
