package model

import (
	"time"

	"Pandemic/internal/contagion/domain"
	"Pandemic/internal/contagion/entity"
)

// BoardDoc mongo 中的对局文档，_id 为 game_id。
type BoardDoc struct {
	entity.BoardSnapshot `bson:",inline"`
	UpdatedAt            time.Time `bson:"updated_at"`
}

func SnapshotToDoc(s *entity.BoardSnapshot, now time.Time) BoardDoc {
	return BoardDoc{BoardSnapshot: *s, UpdatedAt: now}
}

func DocToSnapshot(d BoardDoc) *entity.BoardSnapshot {
	s := d.BoardSnapshot
	return &s
}

// Event MySQL 中的规则事件流水。
type Event struct {
	Id        uint64    `gorm:"column:id;type:bigint UNSIGNED;primaryKey;autoIncrement;" json:"id"`
	GameId    string    `gorm:"column:game_id;type:varchar(64);not null;index:idx_game_seq,priority:1;comment:对局id" json:"game_id"`
	Seq       uint64    `gorm:"column:seq;type:bigint UNSIGNED;not null;index:idx_game_seq,priority:2;comment:事件序号" json:"seq"`
	Kind      string    `gorm:"column:kind;type:varchar(32);not null;comment:事件类型" json:"kind"`
	City      string    `gorm:"column:city;type:varchar(64);not null;default:'';comment:城市" json:"city"`
	Color     string    `gorm:"column:color;type:varchar(16);not null;default:'';comment:颜色" json:"color"`
	Amount    int       `gorm:"column:amount;type:int;not null;default:0;comment:方块数量" json:"amount"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;not null;default:CURRENT_TIMESTAMP;" json:"created_at"`
}

func (m *Event) TableName() string {
	return "contagion_event"
}

func EventToModel(gameID entity.GameID, e domain.Event) Event {
	return Event{
		GameId:    string(gameID),
		Seq:       e.Seq,
		Kind:      string(e.Kind),
		City:      string(e.City),
		Color:     string(e.Color),
		Amount:    e.Amount,
		CreatedAt: e.At,
	}
}

func ModelToEvent(m Event) domain.Event {
	return domain.Event{
		Seq:    m.Seq,
		Kind:   domain.EventKind(m.Kind),
		City:   domain.CityID(m.City),
		Color:  domain.Color(m.Color),
		Amount: m.Amount,
		At:     m.CreatedAt,
	}
}
