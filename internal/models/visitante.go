package models

import (
	"time"

	"gorm.io/datatypes"
)

// LegStatus is the per-visitor state machine position.
type LegStatus string

const (
	LegAtGate         LegStatus = "en_caseta"
	LegInBuilding     LegStatus = "en_edificio"
	LegExitedBuilding LegStatus = "salio_edificio"
	LegAwaitingPickup LegStatus = "espera_recoleccion"
	LegCompleted      LegStatus = "completado"
)

// TokenKind says which physical token the visitor carries.
type TokenKind string

const (
	TokenTag  TokenKind = "tag"  // printed badge, disposable
	TokenCard TokenKind = "card" // numbered reusable card, exclusive across active sessions
)

// Visitante is a visitor identity. The engine only references it; identity
// capture (photos, IDs) belongs to the registry surface.
type Visitante struct {
	ID         string         `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Nombre     string         `gorm:"not null" json:"nombre"`
	Empresa    string         `json:"empresa,omitempty"`
	Telefono   string         `json:"telefono,omitempty"`
	Documentos datatypes.JSON `json:"documentos,omitempty"` // captured ID/photo metadata
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

func (Visitante) TableName() string {
	return "visitantes"
}

// RegistroVisitante is one visitor's leg inside one session.
//
// Card invariant: when TokenKind is card, CardNumber must be set and must not
// collide with any leg of a non-completed session. CardActive mirrors "the
// session holding this card is still open" so the partial unique index on
// (card_number) WHERE card_active can enforce exclusivity at the schema level.
type RegistroVisitante struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RegistroID  uint      `gorm:"not null;index;uniqueIndex:idx_registro_visitante,priority:1" json:"registroId"`
	VisitanteID string    `gorm:"type:uuid;not null;uniqueIndex:idx_registro_visitante,priority:2" json:"visitanteId"`
	Tag         string    `gorm:"not null" json:"tag"` // <codigo>-CND, <codigo>-V01, ...
	TokenKind   TokenKind `gorm:"type:varchar(10);default:'tag'" json:"tokenKind"`
	CardNumber  *string   `gorm:"type:varchar(20)" json:"cardNumber,omitempty"`
	CardActive  bool      `gorm:"default:false" json:"-"`
	EsConductor bool      `gorm:"default:false" json:"esConductor"`

	Status     LegStatus `gorm:"type:varchar(25);default:'en_caseta';index" json:"status"`
	AlertCount int       `gorm:"default:0" json:"alertCount"`

	GateEntryAt     *time.Time `json:"gateEntryAt,omitempty"`
	BuildingEntryAt *time.Time `json:"buildingEntryAt,omitempty"`
	BuildingExitAt  *time.Time `json:"buildingExitAt,omitempty"`
	GateExitAt      *time.Time `json:"gateExitAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Relations
	Visitante *Visitante `gorm:"foreignKey:VisitanteID" json:"visitante,omitempty"`
}

func (RegistroVisitante) TableName() string {
	return "registro_visitantes"
}
