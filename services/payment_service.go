package services

import (
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"freshersparty_go/database"
	"freshersparty_go/models"
	"freshersparty_go/services/notifications"
	"freshersparty_go/storage"
)

// PaymentService owns the payment-verification state machine. pending is the
// only state that moves; verify and reject are admin actions, expiry comes
// from the sweeper. The registration side effect of a verify happens in the
// same transaction as the status change.
type PaymentService struct {
	db       *gorm.DB
	notifier *notifications.Service
}

func NewPaymentService() *PaymentService {
	return &PaymentService{
		db:       database.GetDB(),
		notifier: notifications.NewService(),
	}
}

var (
	ErrVerificationClosed   = errors.New("verification is already in a terminal state")
	ErrVerificationExpired  = errors.New("the payment submission window has closed")
	ErrNotVerificationOwner = errors.New("verification does not belong to this user")
)

// SubmitProof attaches a payment screenshot and optional reference to a
// pending verification. The file is validated before any storage call, and
// the record is only updated after the upload succeeds, so a failed upload
// leaves nothing half-written and the student can retry.
func (ps *PaymentService) SubmitProof(verificationID, userID uint, file *multipart.FileHeader, paymentReference string) (*models.PaymentVerification, error) {
	var verification models.PaymentVerification
	if err := ps.db.First(&verification, verificationID).Error; err != nil {
		return nil, err
	}
	if verification.UserID != userID {
		return nil, ErrNotVerificationOwner
	}
	if verification.Terminal() {
		return nil, ErrVerificationClosed
	}
	if time.Now().After(verification.ExpiresAt) {
		return nil, ErrVerificationExpired
	}

	storageService, err := storage.NewStorageService()
	if err != nil {
		return nil, fmt.Errorf("storage service unavailable: %v", err)
	}

	url, err := storageService.UploadScreenshot(file, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"screenshot_url":    url,
		"payment_reference": paymentReference,
	}
	if err := ps.db.Model(&verification).Updates(updates).Error; err != nil {
		return nil, err
	}

	verification.ScreenshotURL = url
	verification.PaymentReference = paymentReference
	return &verification, nil
}

// Verify marks a pending verification as verified and completes the linked
// registration atomically. Repeating the call on an already-verified record
// fails with ErrVerificationClosed; terminal states never move again.
func (ps *PaymentService) Verify(verificationID, adminID uint, adminNotes, paymentReference string) (*models.PaymentVerification, error) {
	var verification models.PaymentVerification

	err := ps.db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&verification, verificationID).Error; err != nil {
			return err
		}
		if !verification.CanTransition(models.VerificationStatusVerified) {
			return ErrVerificationClosed
		}

		now := time.Now()
		verification.Status = models.VerificationStatusVerified
		verification.VerifiedBy = &adminID
		verification.VerifiedAt = &now
		if adminNotes != "" {
			verification.AdminNotes = adminNotes
		}
		if paymentReference != "" {
			verification.PaymentReference = paymentReference
		}
		if err := tx.Save(&verification).Error; err != nil {
			return err
		}

		return tx.Model(&models.Registration{}).
			Where("id = ?", verification.RegistrationID).
			Update("payment_status", models.PaymentStatusCompleted).Error
	})
	if err != nil {
		return nil, err
	}

	ps.notifyDecision(&verification, "Payment verified",
		"Your payment has been verified. Your ticket is ready to download.", "success")
	return &verification, nil
}

// Reject marks a pending verification as rejected with the admin's notes.
// The linked registration keeps its pending payment status.
func (ps *PaymentService) Reject(verificationID, adminID uint, adminNotes string) (*models.PaymentVerification, error) {
	var verification models.PaymentVerification

	err := ps.db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&verification, verificationID).Error; err != nil {
			return err
		}
		if !verification.CanTransition(models.VerificationStatusRejected) {
			return ErrVerificationClosed
		}

		now := time.Now()
		verification.Status = models.VerificationStatusRejected
		verification.VerifiedBy = &adminID
		verification.VerifiedAt = &now
		verification.AdminNotes = adminNotes
		return tx.Save(&verification).Error
	})
	if err != nil {
		return nil, err
	}

	ps.notifyDecision(&verification, "Payment rejected",
		"Your payment proof was rejected. Reason: "+verification.AdminNotes, "error")
	return &verification, nil
}

// ExpireStale moves pending verifications past their deadline with no
// submitted proof to expired, and fails the linked registration in the same
// transaction so the student can register again for a fresh payment window.
// Records with a screenshot stay pending so an admin can still review them.
func (ps *PaymentService) ExpireStale(now time.Time) (int, error) {
	var stale []models.PaymentVerification
	err := ps.db.Where("status = ? AND expires_at < ? AND screenshot_url = ''",
		models.VerificationStatusPending, now).Find(&stale).Error
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range stale {
		verification := &stale[i]
		if !verification.CanTransition(models.VerificationStatusExpired) {
			continue
		}

		moved := false
		err := ps.db.Transaction(func(tx *gorm.DB) error {
			res := tx.Model(verification).
				Where("status = ?", models.VerificationStatusPending).
				Update("status", models.VerificationStatusExpired)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// An admin decision won the race for this record
				return nil
			}
			moved = true
			return tx.Model(&models.Registration{}).
				Where("id = ? AND payment_status = ?", verification.RegistrationID, models.PaymentStatusPending).
				Update("payment_status", models.PaymentStatusFailed).Error
		})
		if err != nil {
			logrus.WithError(err).WithField("verification_id", verification.ID).
				Error("Failed to expire verification")
			continue
		}
		if !moved {
			continue
		}
		expired++
		verification.Status = models.VerificationStatusExpired
		ps.notifyDecision(verification, "Payment window closed",
			"Your payment submission window closed before a screenshot was uploaded. Register again to restart the payment.", "warning")
	}
	return expired, nil
}

// lockForUpdate applies a row lock where the dialect has one. SQLite (used
// by the test harness) serializes writers on its own and rejects FOR UPDATE.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "mysql" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func (ps *PaymentService) notifyDecision(verification *models.PaymentVerification, title, message, typ string) {
	if ps.notifier == nil {
		return
	}
	err := ps.notifier.EnqueueOrCreate([]uint{verification.UserID}, notifications.QueuedWithData(
		title, message, typ,
		map[string]interface{}{
			"verification_id": verification.ID,
			"registration_id": verification.RegistrationID,
			"status":          verification.Status,
		},
	))
	if err != nil {
		logrus.WithError(err).WithField("user_id", verification.UserID).
			Warn("Failed to enqueue payment notification")
	}
}
