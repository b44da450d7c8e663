package models

import (
	"time"
)

// EventKind is the checkpoint movement recorded by a bitácora row.
type EventKind string

const (
	EventGateIn      EventKind = "entrada_caseta"
	EventGateOut     EventKind = "salida_caseta"
	EventBuildingIn  EventKind = "entrada_edificio"
	EventBuildingOut EventKind = "salida_edificio"
)

// Bitacora is the append-only audit trail. Rows are written inside the same
// transaction as the state mutation they document and are never updated or
// deleted. Authoritative state lives on the entities, not here.
type Bitacora struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	RegistroID uint      `gorm:"not null;index" json:"registroId"`
	LegID      *uint     `gorm:"index" json:"legId,omitempty"`       // visitor leg, when the event is per-visitor
	VehiculoID *uint     `gorm:"index" json:"vehiculoId,omitempty"`  // vehicle leg, when the event is per-vehicle
	GuardID    string    `gorm:"type:uuid;not null" json:"guardId"`
	Kind       EventKind `gorm:"type:varchar(20);not null;index" json:"kind"`
	Nota       string    `json:"nota,omitempty"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
}

func (Bitacora) TableName() string {
	return "bitacora"
}
