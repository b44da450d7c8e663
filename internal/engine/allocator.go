package engine

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/umx-campus/accesogo/internal/models"
)

// assertCardAvailable verifies that a physical card number is not held by any
// leg of a non-completed session. Must run inside the same transaction as the
// write that claims the card: the candidate rows are read FOR UPDATE so a
// concurrent claim blocks until this transaction commits or rolls back. The
// partial unique index on (card_number) WHERE card_active is the second line
// of defense should a code path ever skip this check.
//
// card_active tracks "the owning session is still open", so no join against
// registros is needed here and the row lock lands on the contended legs.
//
// A FOR UPDATE read cannot lock rows that do not exist yet, so two first-time
// claims of the same number would both see it free. The advisory xact lock on
// the card number serializes those; it is released automatically at
// commit/rollback.
func assertCardAvailable(tx *gorm.DB, cardNumber string) error {
	if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", cardNumber).Error; err != nil {
		return storagef("card lock", err)
	}

	var holders []models.RegistroVisitante
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("card_number = ? AND card_active", cardNumber).
		Find(&holders).Error; err != nil {
		return storagef("card lookup", err)
	}
	if len(holders) > 0 {
		return fmt.Errorf("%w: tarjeta %s asignada al registro %d",
			ErrTokenConflict, cardNumber, holders[0].RegistroID)
	}
	return nil
}

// releaseCards clears card_active on every card-bearing leg of a session,
// freeing the numbers for other sessions. Runs inside the sealing
// transaction.
func releaseCards(tx *gorm.DB, sessionID uint) error {
	err := tx.Model(&models.RegistroVisitante{}).
		Where("registro_id = ? AND card_active", sessionID).
		Update("card_active", false).Error
	if err != nil {
		return storagef("card release", err)
	}
	return nil
}
