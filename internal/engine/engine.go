package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/umx-campus/accesogo/internal/database"
	"github.com/umx-campus/accesogo/internal/models"
	"github.com/umx-campus/accesogo/internal/utils"
)

// Guard is the resolved {userId, role} pair every operation requires. The
// identity provider (JWT middleware) builds it; the engine trusts the role
// but still checks it against the transition table.
type Guard struct {
	ID   string
	Role models.GuardRole
}

// Broadcaster receives every bitácora event after its transaction commits.
// Wired to the websocket hub; nil disables the feed.
type Broadcaster interface {
	BroadcastEvent(ev models.Bitacora)
}

// Engine owns the visit lifecycle: session creation, leg attachment, state
// transitions and headcount reconciliation. Every operation is one database
// transaction; the relational store is the only source of truth and nothing
// is cached between calls.
type Engine struct {
	db       *database.DB
	notifier Broadcaster
}

// New creates an Engine on top of the store.
func New(db *database.DB) *Engine {
	return &Engine{db: db}
}

// SetNotifier wires the live event feed.
func (e *Engine) SetNotifier(b Broadcaster) {
	e.notifier = b
}

func (e *Engine) notify(events []models.Bitacora) {
	if e.notifier == nil {
		return
	}
	for _, ev := range events {
		e.notifier.BroadcastEvent(ev)
	}
}

// VisitorLegInput describes one visitor joining a session.
type VisitorLegInput struct {
	VisitanteID string           `json:"visitanteId"`
	TokenKind   models.TokenKind `json:"tokenKind"`
	CardNumber  string           `json:"cardNumber,omitempty"`
}

func (in VisitorLegInput) validate() error {
	if in.VisitanteID == "" {
		return validationf("visitanteId is required")
	}
	switch in.TokenKind {
	case models.TokenTag, "":
	case models.TokenCard:
		if !utils.ValidCardNumber(in.CardNumber) {
			return validationf("card token requires a numeric card number, got %q", in.CardNumber)
		}
	default:
		return validationf("unknown token kind %q", in.TokenKind)
	}
	return nil
}

// CreateSessionInput carries everything the gate captures at first contact.
type CreateSessionInput struct {
	Kind          models.RegistroKind `json:"kind"`
	ExpectedCount int                 `json:"expectedCount"`
	Driver        VisitorLegInput     `json:"driver"`

	// Optional accompanying vehicle
	VehiculoID string `json:"vehiculoId,omitempty"`
	Marbete    string `json:"marbete,omitempty"`

	EdificioDestino string `json:"edificioDestino,omitempty"`
	PersonaVisitada string `json:"personaVisitada,omitempty"`
	Motivo          string `json:"motivo,omitempty"`
	Nota            string `json:"nota,omitempty"`
}

// CreateSession opens a visit session: the session row, its code, the lead
// visitor leg and the optional vehicle leg, atomically. The lead leg is
// tagged -CND when a vehicle comes along, -PRV/-PTN for suppliers and
// pedestrians, -V01 otherwise.
func (e *Engine) CreateSession(ctx context.Context, in CreateSessionInput, guard Guard) (*models.Registro, error) {
	if !roleAllowed(guard.Role, models.RoleGateGuard) {
		return nil, fmt.Errorf("%w: role %s cannot perform gate-entry", ErrInvalidTransition, guard.Role)
	}
	switch in.Kind {
	case models.KindVehicular, models.KindProveedor, models.KindNoAgendado, models.KindPeatonal:
	default:
		return nil, validationf("unknown session kind %q", in.Kind)
	}
	if in.Kind == models.KindVehicular && in.VehiculoID == "" {
		return nil, validationf("vehicular session requires a vehiculoId")
	}
	if in.ExpectedCount < 1 {
		return nil, validationf("expectedCount must be at least 1")
	}
	if err := in.Driver.validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var events []models.Bitacora
	var created models.Registro

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reg := models.Registro{
			Kind:             in.Kind,
			Status:           models.RegistroIniciado,
			ExpectedCount:    in.ExpectedCount,
			EdificioDestino:  in.EdificioDestino,
			PersonaVisitada:  in.PersonaVisitada,
			Motivo:           in.Motivo,
			GateEntryAt:      &now,
			GateEntryGuardID: &guard.ID,
		}
		if err := tx.Create(&reg).Error; err != nil {
			return storagef("create session", err)
		}

		// The code embeds the id, so it can only be assigned after the
		// insert. Immutable from here on.
		reg.Codigo = utils.SessionCode(reg.ID)
		if err := tx.Model(&reg).Update("codigo", reg.Codigo).Error; err != nil {
			return storagef("assign code", err)
		}

		leg := models.RegistroVisitante{
			RegistroID:  reg.ID,
			VisitanteID: in.Driver.VisitanteID,
			TokenKind:   in.Driver.TokenKind,
			Status:      models.LegAtGate,
			GateEntryAt: &now,
			EsConductor: in.VehiculoID != "",
		}
		if leg.TokenKind == "" {
			leg.TokenKind = models.TokenTag
		}
		switch {
		case in.VehiculoID != "":
			leg.Tag = utils.DriverTag(reg.Codigo)
		case in.Kind == models.KindProveedor:
			leg.Tag = utils.SpecialTag(reg.Codigo, utils.SuffixProveedor)
		case in.Kind == models.KindPeatonal:
			leg.Tag = utils.SpecialTag(reg.Codigo, utils.SuffixPeatonal)
		default:
			leg.Tag = utils.VisitorTag(reg.Codigo, 1)
		}
		if leg.TokenKind == models.TokenCard {
			if err := assertCardAvailable(tx, in.Driver.CardNumber); err != nil {
				return err
			}
			leg.CardNumber = &in.Driver.CardNumber
			leg.CardActive = true
		}
		if err := tx.Create(&leg).Error; err != nil {
			return storagef("create lead leg", err)
		}

		ev := models.Bitacora{
			RegistroID: reg.ID,
			LegID:      &leg.ID,
			GuardID:    guard.ID,
			Kind:       models.EventGateIn,
			Nota:       in.Nota,
		}
		if err := tx.Create(&ev).Error; err != nil {
			return storagef("append bitacora", err)
		}
		events = append(events, ev)

		if in.VehiculoID != "" {
			veh := models.RegistroVehiculo{
				RegistroID:  reg.ID,
				VehiculoID:  in.VehiculoID,
				DriverLegID: &leg.ID,
				EntryAt:     &now,
			}
			if in.Marbete != "" {
				veh.Marbete = &in.Marbete
			}
			if err := tx.Create(&veh).Error; err != nil {
				return storagef("create vehicle leg", err)
			}
			vev := models.Bitacora{
				RegistroID: reg.ID,
				VehiculoID: &veh.ID,
				GuardID:    guard.ID,
				Kind:       models.EventGateIn,
			}
			if err := tx.Create(&vev).Error; err != nil {
				return storagef("append bitacora", err)
			}
			events = append(events, vev)
		}

		if in.Nota != "" {
			nota := models.RegistroNota{RegistroID: reg.ID, GuardID: guard.ID, Texto: in.Nota}
			if err := tx.Create(&nota).Error; err != nil {
				return storagef("append note", err)
			}
		}

		return tx.Preload("Visitantes").Preload("Vehiculos").First(&created, reg.ID).Error
	})
	if err != nil {
		return nil, err
	}

	e.notify(events)
	return &created, nil
}

// AttachVisitors adds accompanying visitor legs to an open session with
// sequential -Vnn tags. The session row is locked for the capacity decision:
// the running total of legs may never exceed ExpectedCount.
func (e *Engine) AttachVisitors(ctx context.Context, sessionID uint, legs []VisitorLegInput, guard Guard) ([]models.RegistroVisitante, error) {
	if !roleAllowed(guard.Role, models.RoleGateGuard) {
		return nil, fmt.Errorf("%w: role %s cannot perform gate-entry", ErrInvalidTransition, guard.Role)
	}
	if len(legs) == 0 {
		return nil, validationf("no visitor legs supplied")
	}
	for _, in := range legs {
		if err := in.validate(); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	var events []models.Bitacora
	var created []models.RegistroVisitante

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reg, err := lockSession(tx, sessionID)
		if err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.RegistroVisitante{}).
			Where("registro_id = ?", reg.ID).Count(&existing).Error; err != nil {
			return storagef("count legs", err)
		}
		if int(existing)+len(legs) > reg.ExpectedCount {
			return fmt.Errorf("%w: %d legs would exceed expected %d",
				ErrCapacityExceeded, int(existing)+len(legs), reg.ExpectedCount)
		}

		// Tag numbering continues after the V-tags already handed out;
		// the lead leg may hold V01 or a suffix tag depending on kind.
		var numbered int64
		if err := tx.Model(&models.RegistroVisitante{}).
			Where("registro_id = ? AND tag LIKE ?", reg.ID, "%-V__").
			Count(&numbered).Error; err != nil {
			return storagef("count tags", err)
		}

		for i, in := range legs {
			// A retried attach after an ambiguous failure must not
			// duplicate the leg; the (registro, visitante) unique
			// index backs this check.
			var dup int64
			if err := tx.Model(&models.RegistroVisitante{}).
				Where("registro_id = ? AND visitante_id = ?", reg.ID, in.VisitanteID).
				Count(&dup).Error; err != nil {
				return storagef("duplicate check", err)
			}
			if dup > 0 {
				return validationf("visitor %s already has a leg in session %d", in.VisitanteID, reg.ID)
			}

			leg := models.RegistroVisitante{
				RegistroID:  reg.ID,
				VisitanteID: in.VisitanteID,
				Tag:         utils.VisitorTag(reg.Codigo, int(numbered)+i+1),
				TokenKind:   in.TokenKind,
				Status:      models.LegAtGate,
				GateEntryAt: &now,
			}
			if leg.TokenKind == "" {
				leg.TokenKind = models.TokenTag
			}
			if leg.TokenKind == models.TokenCard {
				if err := assertCardAvailable(tx, in.CardNumber); err != nil {
					return err
				}
				card := in.CardNumber
				leg.CardNumber = &card
				leg.CardActive = true
			}
			if err := tx.Create(&leg).Error; err != nil {
				return storagef("create leg", err)
			}

			ev := models.Bitacora{
				RegistroID: reg.ID,
				LegID:      &leg.ID,
				GuardID:    guard.ID,
				Kind:       models.EventGateIn,
			}
			if err := tx.Create(&ev).Error; err != nil {
				return storagef("append bitacora", err)
			}
			events = append(events, ev)
			created = append(created, leg)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.notify(events)
	return created, nil
}

// AttachVehicleInput describes a supplementary vehicle joining a session.
type AttachVehicleInput struct {
	VehiculoID string `json:"vehiculoId"`
	Marbete    string `json:"marbete,omitempty"`
	// DriverLegID pairs the vehicle with an already-registered visitor leg.
	// Zero means the driver is not registered yet: the vehicle stays
	// unpaired and ExpectedCount grows by one for the implied driver.
	DriverLegID uint `json:"driverLegId,omitempty"`
}

// AttachVehicle adds a supplementary vehicle to an open session; the
// authorizing guard is recorded on the leg. A paired vehicle exits with its
// driver; an unpaired one exits when the session completes.
func (e *Engine) AttachVehicle(ctx context.Context, sessionID uint, in AttachVehicleInput, guard Guard) (*models.RegistroVehiculo, error) {
	if !roleAllowed(guard.Role, models.RoleGateGuard) {
		return nil, fmt.Errorf("%w: role %s cannot perform gate-entry", ErrInvalidTransition, guard.Role)
	}
	if in.VehiculoID == "" {
		return nil, validationf("vehiculoId is required")
	}

	now := time.Now().UTC()
	var events []models.Bitacora
	var veh models.RegistroVehiculo

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reg, err := lockSession(tx, sessionID)
		if err != nil {
			return err
		}

		veh = models.RegistroVehiculo{
			RegistroID:     reg.ID,
			VehiculoID:     in.VehiculoID,
			AuthorizedByID: &guard.ID,
			EntryAt:        &now,
		}
		if in.Marbete != "" {
			veh.Marbete = &in.Marbete
		}
		if in.DriverLegID != 0 {
			var driver models.RegistroVisitante
			if err := tx.Where("id = ? AND registro_id = ?", in.DriverLegID, reg.ID).
				First(&driver).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return validationf("driver leg %d is not part of session %d", in.DriverLegID, reg.ID)
				}
				return storagef("load driver leg", err)
			}
			veh.DriverLegID = &driver.ID
		}
		if err := tx.Create(&veh).Error; err != nil {
			return storagef("create vehicle leg", err)
		}

		// An unpaired vehicle implies one more driver leg to come.
		if in.DriverLegID == 0 {
			if err := tx.Model(reg).
				Update("expected_count", gorm.Expr("expected_count + 1")).Error; err != nil {
				return storagef("bump expected count", err)
			}
		}

		ev := models.Bitacora{
			RegistroID: reg.ID,
			VehiculoID: &veh.ID,
			GuardID:    guard.ID,
			Kind:       models.EventGateIn,
		}
		if err := tx.Create(&ev).Error; err != nil {
			return storagef("append bitacora", err)
		}
		events = append(events, ev)
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.notify(events)
	return &veh, nil
}

// TransitionInput identifies one leg and the action to perform on it.
type TransitionInput struct {
	LegID  uint   `json:"legId"`
	Action Action `json:"action"`
	// Pickup routes a building-exit into espera_recoleccion instead of
	// salio_edificio (visitor handed to an external vehicle pickup).
	Pickup bool   `json:"pickup,omitempty"`
	Nota   string `json:"nota,omitempty"`
}

// Transition advances a single visitor leg through the building checkpoint.
// Gate exits go through BatchGateExit so headcount reconciliation always
// happens under the session lock.
func (e *Engine) Transition(ctx context.Context, in TransitionInput, guard Guard) (*models.RegistroVisitante, error) {
	tr, ok := transitionFor(in.Action)
	if !ok {
		return nil, validationf("unknown action %q", in.Action)
	}
	switch in.Action {
	case ActionBuildingEntry, ActionBuildingExit:
	case ActionGateExit:
		return nil, validationf("gate-exit must go through the batch exit operation")
	default:
		return nil, validationf("action %q does not apply to an existing leg", in.Action)
	}
	if !roleAllowed(guard.Role, tr.Role) {
		return nil, fmt.Errorf("%w: role %s cannot perform %s", ErrInvalidTransition, guard.Role, in.Action)
	}

	now := time.Now().UTC()
	var events []models.Bitacora
	var leg models.RegistroVisitante

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Unlocked read to resolve the session, then session before leg:
		// the same lock order BatchGateExit uses, so concurrent calls on
		// one session queue up instead of deadlocking.
		if err := tx.First(&leg, in.LegID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: leg %d", ErrNotFound, in.LegID)
			}
			return storagef("load leg", err)
		}

		reg, err := lockSession(tx, leg.RegistroID)
		if err != nil {
			return err
		}

		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&leg, in.LegID).Error; err != nil {
			return storagef("load leg", err)
		}

		if !legalFrom(tr, leg.Status) {
			return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, in.Action, leg.Status)
		}

		to := tr.To
		if in.Pickup && tr.PickupTo != "" {
			to = tr.PickupTo
		}

		legUpdates := map[string]interface{}{"status": to}
		regUpdates := map[string]interface{}{}
		switch in.Action {
		case ActionBuildingEntry:
			legUpdates["building_entry_at"] = now
			if reg.BuildingEntryAt == nil {
				regUpdates["building_entry_at"] = now
				regUpdates["building_entry_guard_id"] = guard.ID
			}
		case ActionBuildingExit:
			legUpdates["building_exit_at"] = now
			regUpdates["building_exit_at"] = now
			regUpdates["building_exit_guard_id"] = guard.ID
		}

		if err := tx.Model(&leg).Updates(legUpdates).Error; err != nil {
			return storagef("update leg", err)
		}
		if len(regUpdates) > 0 {
			if err := tx.Model(reg).Updates(regUpdates).Error; err != nil {
				return storagef("update session", err)
			}
		}

		ev := models.Bitacora{
			RegistroID: reg.ID,
			LegID:      &leg.ID,
			GuardID:    guard.ID,
			Kind:       tr.Event,
			Nota:       in.Nota,
		}
		if err := tx.Create(&ev).Error; err != nil {
			return storagef("append bitacora", err)
		}
		events = append(events, ev)

		if in.Nota != "" {
			nota := models.RegistroNota{RegistroID: reg.ID, GuardID: guard.ID, Texto: in.Nota}
			if err := tx.Create(&nota).Error; err != nil {
				return storagef("append note", err)
			}
		}

		return tx.First(&leg, leg.ID).Error
	})
	if err != nil {
		return nil, err
	}

	e.notify(events)
	return &leg, nil
}

// BatchGateExitInput is one exit batch at the gatehouse.
type BatchGateExitInput struct {
	SessionID uint   `json:"sessionId"`
	LegIDs    []uint `json:"legIds"`
	// Final asserts this batch empties the session: if the cumulative
	// exits would not reach ExpectedCount the whole batch is rejected.
	Final bool   `json:"final,omitempty"`
	Nota  string `json:"nota,omitempty"`
}

// BatchGateExit advances a batch of legs through the gate and reconciles the
// session headcount under the session lock. When cumulative exits reach
// ExpectedCount the session is sealed: status completado, cards released,
// paired vehicle exits stamped, guard of record written. A partial batch
// leaves the session open for a later one.
func (e *Engine) BatchGateExit(ctx context.Context, in BatchGateExitInput, guard Guard) (*models.Registro, error) {
	if !roleAllowed(guard.Role, models.RoleGateGuard) {
		return nil, fmt.Errorf("%w: role %s cannot perform gate-exit", ErrInvalidTransition, guard.Role)
	}
	if len(in.LegIDs) == 0 {
		return nil, validationf("no legs in exit batch")
	}

	tr, _ := transitionFor(ActionGateExit)
	now := time.Now().UTC()
	var events []models.Bitacora
	var sealed models.Registro

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reg, err := lockSession(tx, in.SessionID)
		if err != nil {
			return err
		}

		var legs []models.RegistroVisitante
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ? AND registro_id = ?", in.LegIDs, reg.ID).
			Find(&legs).Error; err != nil {
			return storagef("load batch", err)
		}
		if len(legs) != len(in.LegIDs) {
			return fmt.Errorf("%w: batch references legs outside session %d", ErrNotFound, reg.ID)
		}

		departed := reg.DepartedCount + len(legs)
		if departed > reg.ExpectedCount {
			return fmt.Errorf("%w: %d exits against expected %d",
				ErrHeadcountMismatch, departed, reg.ExpectedCount)
		}
		if in.Final && departed != reg.ExpectedCount {
			return fmt.Errorf("%w: final batch leaves %d of %d inside",
				ErrHeadcountMismatch, reg.ExpectedCount-departed, reg.ExpectedCount)
		}

		exiting := make(map[uint]bool, len(legs))
		for i := range legs {
			leg := &legs[i]
			if !legalFrom(tr, leg.Status) {
				return fmt.Errorf("%w: gate-exit from %s (leg %d)",
					ErrInvalidTransition, leg.Status, leg.ID)
			}
			if err := tx.Model(leg).Updates(map[string]interface{}{
				"status":       models.LegCompleted,
				"gate_exit_at": now,
			}).Error; err != nil {
				return storagef("update leg", err)
			}
			exiting[leg.ID] = true

			ev := models.Bitacora{
				RegistroID: reg.ID,
				LegID:      &leg.ID,
				GuardID:    guard.ID,
				Kind:       models.EventGateOut,
				Nota:       in.Nota,
			}
			if err := tx.Create(&ev).Error; err != nil {
				return storagef("append bitacora", err)
			}
			events = append(events, ev)
		}

		complete := departed == reg.ExpectedCount

		// A vehicle rides out with its paired driver leg; on completion
		// every still-open vehicle leg is stamped regardless.
		var vehs []models.RegistroVehiculo
		if err := tx.Where("registro_id = ? AND exit_at IS NULL", reg.ID).
			Find(&vehs).Error; err != nil {
			return storagef("load vehicles", err)
		}
		for i := range vehs {
			veh := &vehs[i]
			driverExits := veh.DriverLegID != nil && exiting[*veh.DriverLegID]
			if !driverExits && !complete {
				continue
			}
			if err := tx.Model(veh).Update("exit_at", now).Error; err != nil {
				return storagef("stamp vehicle exit", err)
			}
			vev := models.Bitacora{
				RegistroID: reg.ID,
				VehiculoID: &veh.ID,
				GuardID:    guard.ID,
				Kind:       models.EventGateOut,
			}
			if err := tx.Create(&vev).Error; err != nil {
				return storagef("append bitacora", err)
			}
			events = append(events, vev)
		}

		regUpdates := map[string]interface{}{"departed_count": departed}
		if complete {
			regUpdates["status"] = models.RegistroCompletado
			regUpdates["gate_exit_at"] = now
			regUpdates["gate_exit_guard_id"] = guard.ID
			if err := releaseCards(tx, reg.ID); err != nil {
				return err
			}
		}
		if err := tx.Model(reg).Updates(regUpdates).Error; err != nil {
			return storagef("update session", err)
		}

		if in.Nota != "" {
			nota := models.RegistroNota{RegistroID: reg.ID, GuardID: guard.ID, Texto: in.Nota}
			if err := tx.Create(&nota).Error; err != nil {
				return storagef("append note", err)
			}
		}

		return tx.Preload("Visitantes").Preload("Vehiculos").First(&sealed, reg.ID).Error
	})
	if err != nil {
		return nil, err
	}

	e.notify(events)
	return &sealed, nil
}

// IncrementAlert bumps the delay-notification counter on a leg. The notifier
// collaborator calls this after sending each alert.
func (e *Engine) IncrementAlert(ctx context.Context, legID uint) error {
	res := e.db.WithContext(ctx).Model(&models.RegistroVisitante{}).
		Where("id = ?", legID).
		UpdateColumn("alert_count", gorm.Expr("alert_count + 1"))
	if res.Error != nil {
		return storagef("increment alert", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: leg %d", ErrNotFound, legID)
	}
	return nil
}

// lockSession reads the session row FOR UPDATE. Every read-then-write
// decision on the aggregate (capacity, headcount, attach) goes through this
// lock so concurrent batches serialize on the session.
func lockSession(tx *gorm.DB, sessionID uint) (*models.Registro, error) {
	var reg models.Registro
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&reg, sessionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: session %d", ErrNotFound, sessionID)
		}
		return nil, storagef("load session", err)
	}
	if reg.Completed() {
		return nil, fmt.Errorf("%w: session %d is sealed", ErrAlreadyCompleted, reg.ID)
	}
	return &reg, nil
}
