package models

import (
	"time"
)

// Vehiculo is a vehicle identity referenced by vehicle legs.
type Vehiculo struct {
	ID        string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Placas    string    `gorm:"uniqueIndex;not null" json:"placas"`
	Marca     string    `json:"marca,omitempty"`
	Modelo    string    `json:"modelo,omitempty"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Vehiculo) TableName() string {
	return "vehiculos"
}

// RegistroVehiculo is one vehicle's leg inside one session. A vehicle is
// paired 1:1 with its driver's visitor leg: its exit timestamp is stamped in
// the same transaction that gate-exits the driver. An unpaired vehicle
// (driver leg not registered yet) is stamped when the session completes.
type RegistroVehiculo struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	RegistroID uint    `gorm:"not null;index" json:"registroId"`
	VehiculoID string  `gorm:"type:uuid;not null" json:"vehiculoId"`
	Marbete    *string `gorm:"type:varchar(20)" json:"marbete,omitempty"` // claim-check number
	// Visitor leg of the driver who brought this vehicle in.
	DriverLegID *uint `gorm:"index" json:"driverLegId,omitempty"`
	// Guard who authorized attaching this vehicle after session creation.
	AuthorizedByID *string `gorm:"type:uuid" json:"authorizedById,omitempty"`

	EntryAt *time.Time `json:"entryAt,omitempty"`
	ExitAt  *time.Time `json:"exitAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Relations
	Vehiculo *Vehiculo `gorm:"foreignKey:VehiculoID" json:"vehiculo,omitempty"`
}

func (RegistroVehiculo) TableName() string {
	return "registro_vehiculos"
}
