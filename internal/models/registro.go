package models

import (
	"time"
)

// RegistroKind classifies how a visit session entered the perimeter.
type RegistroKind string

const (
	KindVehicular  RegistroKind = "vehicular"
	KindProveedor  RegistroKind = "proveedor"
	KindNoAgendado RegistroKind = "no_agendado"
	KindPeatonal   RegistroKind = "peatonal"
)

// RegistroStatus is the session-level state. Per-leg movement lives on the
// legs; the session only distinguishes open from sealed.
type RegistroStatus string

const (
	RegistroIniciado   RegistroStatus = "iniciado"
	RegistroCompletado RegistroStatus = "completado"
)

// Registro is one physical pass through the perimeter (caseta -> edificio ->
// caseta). Legs are created with the session or attached later; the session
// is terminal once Completado and is never reopened.
type Registro struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Codigo        string         `gorm:"uniqueIndex" json:"codigo"` // UMX<id><3 letters>, immutable once assigned
	Kind          RegistroKind   `gorm:"type:varchar(20);index" json:"kind"`
	Status        RegistroStatus `gorm:"type:varchar(20);default:'iniciado';index" json:"status"`
	ExpectedCount int            `gorm:"not null" json:"expectedCount"` // authoritative headcount of visitor legs
	DepartedCount int            `gorm:"default:0" json:"departedCount"`

	// Destination and stated purpose
	EdificioDestino string `json:"edificioDestino,omitempty"`
	PersonaVisitada string `json:"personaVisitada,omitempty"`
	Motivo          string `json:"motivo,omitempty"`

	// Milestone timestamps
	GateEntryAt     *time.Time `json:"gateEntryAt,omitempty"`
	BuildingEntryAt *time.Time `json:"buildingEntryAt,omitempty"`
	BuildingExitAt  *time.Time `json:"buildingExitAt,omitempty"`
	GateExitAt      *time.Time `json:"gateExitAt,omitempty"`

	// Guards of record per milestone
	GateEntryGuardID     *string `gorm:"type:uuid" json:"gateEntryGuardId,omitempty"`
	BuildingEntryGuardID *string `gorm:"type:uuid" json:"buildingEntryGuardId,omitempty"`
	BuildingExitGuardID  *string `gorm:"type:uuid" json:"buildingExitGuardId,omitempty"`
	GateExitGuardID      *string `gorm:"type:uuid" json:"gateExitGuardId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Relations
	Visitantes []RegistroVisitante `gorm:"foreignKey:RegistroID" json:"visitantes,omitempty"`
	Vehiculos  []RegistroVehiculo  `gorm:"foreignKey:RegistroID" json:"vehiculos,omitempty"`
	Notas      []RegistroNota      `gorm:"foreignKey:RegistroID" json:"notas,omitempty"`
}

func (Registro) TableName() string {
	return "registros"
}

// Completed reports whether the session is sealed.
func (r *Registro) Completed() bool {
	return r.Status == RegistroCompletado
}

// RegistroNota is one appended note on a session. Notes are rows, never a
// concatenated text blob, so concurrent appends cannot lose each other.
type RegistroNota struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	RegistroID uint      `gorm:"index;not null" json:"registroId"`
	GuardID    string    `gorm:"type:uuid" json:"guardId"`
	Texto      string    `gorm:"not null" json:"texto"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (RegistroNota) TableName() string {
	return "registro_notas"
}
