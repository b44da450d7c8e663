package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/umx-campus/accesogo/internal/models"
)

// GetSessionByCode assembles the session with all its legs, vehicles and
// notes in one consistent read. Mutating operations commit atomically, so a
// single query can never observe half of a batch.
func (e *Engine) GetSessionByCode(ctx context.Context, code string) (*models.Registro, error) {
	var reg models.Registro
	err := e.db.WithContext(ctx).
		Preload("Visitantes.Visitante").
		Preload("Vehiculos.Vehiculo").
		Preload("Notas").
		Where("codigo = ?", code).
		First(&reg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: session code %s", ErrNotFound, code)
		}
		return nil, storagef("load session", err)
	}
	return &reg, nil
}

// DelayedLeg is one visitor who left the building but has not cleared the
// gate within the threshold.
type DelayedLeg struct {
	Leg            models.RegistroVisitante `json:"leg"`
	SessionCode    string                   `json:"sessionCode"`
	MinutesDelayed int                      `json:"minutesDelayed"`
}

// GetSessionsDelayedAtBuilding lists legs whose building-exit is stamped,
// gate-exit is not, and the elapsed time exceeds the threshold. The external
// notifier consumes this and calls IncrementAlert per message sent.
func (e *Engine) GetSessionsDelayedAtBuilding(ctx context.Context, threshold time.Duration) ([]DelayedLeg, error) {
	cutoff := time.Now().UTC().Add(-threshold)

	var legs []models.RegistroVisitante
	err := e.db.WithContext(ctx).
		Joins("JOIN registros ON registros.id = registro_visitantes.registro_id").
		Where("registro_visitantes.building_exit_at IS NOT NULL").
		Where("registro_visitantes.gate_exit_at IS NULL").
		Where("registro_visitantes.building_exit_at < ?", cutoff).
		Where("registros.status <> ?", models.RegistroCompletado).
		Preload("Visitante").
		Find(&legs).Error
	if err != nil {
		return nil, storagef("delay scan", err)
	}

	// One lookup for all the session codes in the result set
	ids := make([]uint, 0, len(legs))
	for _, leg := range legs {
		ids = append(ids, leg.RegistroID)
	}
	codes := map[uint]string{}
	if len(ids) > 0 {
		var regs []models.Registro
		if err := e.db.WithContext(ctx).
			Select("id", "codigo").
			Where("id IN ?", ids).
			Find(&regs).Error; err != nil {
			return nil, storagef("code lookup", err)
		}
		for _, reg := range regs {
			codes[reg.ID] = reg.Codigo
		}
	}

	now := time.Now().UTC()
	out := make([]DelayedLeg, 0, len(legs))
	for _, leg := range legs {
		out = append(out, DelayedLeg{
			Leg:            leg,
			SessionCode:    codes[leg.RegistroID],
			MinutesDelayed: int(now.Sub(*leg.BuildingExitAt).Minutes()),
		})
	}
	return out, nil
}

// EventsForSession returns the full audit trail, oldest first.
func (e *Engine) EventsForSession(ctx context.Context, sessionID uint) ([]models.Bitacora, error) {
	var events []models.Bitacora
	err := e.db.WithContext(ctx).
		Where("registro_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Find(&events).Error
	if err != nil {
		return nil, storagef("load events", err)
	}
	return events, nil
}

// LastEventForLeg returns the newest bitácora row for a visitor leg, or nil
// when the leg has none.
func (e *Engine) LastEventForLeg(ctx context.Context, legID uint) (*models.Bitacora, error) {
	var ev models.Bitacora
	err := e.db.WithContext(ctx).
		Where("leg_id = ?", legID).
		Order("created_at DESC, id DESC").
		First(&ev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storagef("load last event", err)
	}
	return &ev, nil
}

// SuggestNextActions infers the legal next action(s) for a visitor leg from
// its audit trail and the caller's role. Advisory: the engine re-validates
// the denormalized status at commit time.
func (e *Engine) SuggestNextActions(ctx context.Context, legID uint, role models.GuardRole) ([]Action, error) {
	last, err := e.LastEventForLeg(ctx, legID)
	if err != nil {
		return nil, err
	}
	if last == nil {
		return NextActions(nil, role), nil
	}
	return NextActions(&last.Kind, role), nil
}
