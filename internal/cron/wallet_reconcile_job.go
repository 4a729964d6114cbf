package cron

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/himalayan-naturals/storefront-backend/internal/wallet"
	"github.com/himalayan-naturals/storefront-backend/pkg/logger"
)

type walletReconciler interface {
	Reconcile(ctx context.Context, repair bool) (*wallet.ReconcileReport, error)
}

type driftRecorder interface {
	SetWalletDrift(profiles int)
}

type WalletReconcileJobParams struct {
	Logger  *logger.Logger
	Wallet  walletReconciler
	Metrics driftRecorder
	// Repair overwrites drifted cached balances with the ledger sum.
	Repair bool
}

func NewWalletReconcileJob(params WalletReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Wallet == nil {
		return nil, fmt.Errorf("wallet service required")
	}
	return &walletReconcileJob{
		logg:    params.Logger,
		wallet:  params.Wallet,
		metrics: params.Metrics,
		repair:  params.Repair,
	}, nil
}

type walletReconcileJob struct {
	logg    *logger.Logger
	wallet  walletReconciler
	metrics driftRecorder
	repair  bool
}

func (j *walletReconcileJob) Name() string { return "wallet-reconcile" }

func (j *walletReconcileJob) Run(ctx context.Context) error {
	report, err := j.wallet.Reconcile(ctx, j.repair)
	if report == nil {
		if err == nil {
			err = fmt.Errorf("empty report")
		}
		return fmt.Errorf("wallet reconcile: %w", err)
	}
	if j.metrics != nil {
		j.metrics.SetWalletDrift(len(report.Drifts))
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"profiles_checked": report.Checked,
		"profiles_drifted": len(report.Drifts),
		"repair":           j.repair,
	})
	for _, drift := range report.Drifts {
		driftCtx := j.logg.WithFields(logCtx, map[string]any{
			"user_id":        drift.UserID.String(),
			"cached":         drift.Cached.StringFixed(2),
			"ledger_balance": drift.LedgerBalance.StringFixed(2),
		})
		j.logg.Warn(driftCtx, "wallet balance drift")
	}
	if err != nil {
		for _, repairErr := range multierr.Errors(err) {
			j.logg.Error(logCtx, "wallet drift repair failed", repairErr)
		}
		return fmt.Errorf("wallet reconcile repairs: %w", err)
	}
	j.logg.Info(logCtx, "wallet reconcile complete")
	return nil
}
