package domain

type CityID string

// City 是地图上的一个节点，相邻关系在开局时固定，且是无向的。
type City struct {
	ID        CityID
	Name      string
	Color     Color
	Neighbors []CityID
}
