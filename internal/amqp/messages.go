package amqp

import (
	"encoding/json"
	"time"
)

// LedgerEvent announces a ledger mutation to downstream consumers (export
// jobs, notifiers). It carries only the entity and id; consumers fetch the
// full record themselves.
type LedgerEvent struct {
	Entity    string    `json:"entity"` // "transaction", "account", "category", "stock_lot", "budget"
	Action    string    `json:"action"` // "created", "updated", "deleted"
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEvent(entity, action string, id int64) *LedgerEvent {
	return &LedgerEvent{
		Entity:    entity,
		Action:    action,
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
