package domain

import "time"

// EventKind 规则引擎在每一步产生的事件类型，顺序即规则执行顺序。
type EventKind string

const (
	EventInfectCity        EventKind = "infect_city"
	EventInitOutbreak      EventKind = "init_outbreak"
	EventQueueOutbreak     EventKind = "queue_outbreak"
	EventCompleteOutbreak  EventKind = "complete_outbreak"
	EventEpidemicIncrease  EventKind = "epidemic_increase"
	EventEpidemicInfect    EventKind = "epidemic_infect"
	EventEpidemicIntensify EventKind = "epidemic_intensify"
	EventDiscardCard       EventKind = "discard_card"
	EventEradicate         EventKind = "eradicate_disease"
	EventDefeat            EventKind = "defeat"
)

type Event struct {
	Seq    uint64
	Kind   EventKind
	City   CityID
	Color  Color
	Amount int
	At     time.Time
}
