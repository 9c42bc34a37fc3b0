package services

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// VerificationSweeper enforces the payment submission window server-side:
// every minute it expires pending verifications whose deadline passed without
// a screenshot. The countdown shown to students is advisory; this is the
// authoritative rule.
type VerificationSweeper struct {
	payments *PaymentService
	cron     *cron.Cron
}

func NewVerificationSweeper() *VerificationSweeper {
	return &VerificationSweeper{
		payments: NewPaymentService(),
		cron:     cron.New(),
	}
}

// Start begins the periodic sweep. Runs once immediately so restarts don't
// leave a backlog of stale records until the first tick.
func (vs *VerificationSweeper) Start() {
	vs.sweep()

	_, err := vs.cron.AddFunc("@every 1m", vs.sweep)
	if err != nil {
		logrus.WithError(err).Error("Failed to schedule verification sweeper")
		return
	}
	vs.cron.Start()
	logrus.Info("Verification expiry sweeper started")
}

// Stop halts the sweeper, waiting for a running sweep to finish.
func (vs *VerificationSweeper) Stop() {
	ctx := vs.cron.Stop()
	<-ctx.Done()
}

func (vs *VerificationSweeper) sweep() {
	expired, err := vs.payments.ExpireStale(time.Now())
	if err != nil {
		logrus.WithError(err).Error("Verification sweep failed")
		return
	}
	if expired > 0 {
		logrus.WithField("expired", expired).Info("Expired stale payment verifications")
	}
}
