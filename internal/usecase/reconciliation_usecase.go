package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gotransact/internal/domain"
)

const reconciliationPageSize = 500

// ReconciliationUseCase checks balances against their ledger entries.
type ReconciliationUseCase struct {
	clientRepo  ClientRepository
	balanceRepo BalanceRepository
	entryRepo   BalanceTransactionRepository
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	clientRepo ClientRepository,
	balanceRepo BalanceRepository,
	entryRepo BalanceTransactionRepository,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		clientRepo:  clientRepo,
		balanceRepo: balanceRepo,
		entryRepo:   entryRepo,
	}
}

// ReconciliationResult is the outcome of checking one account.
type ReconciliationResult struct {
	ClientID          int64
	AccountNumber     string
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
	Entries           int
	ChainBreaks       []string
	IsReconciled      bool
	LastChecked       time.Time
}

// ReconciliationReport summarizes a full reconciliation run.
type ReconciliationReport struct {
	TotalAccounts      int
	ReconciledAccounts int
	Discrepancies      []*ReconciliationResult
	CheckedAt          time.Time
}

// CheckAccount reconciles one client account.
func (uc *ReconciliationUseCase) CheckAccount(ctx context.Context, clientIdentification, accountNumber string) (*ReconciliationResult, error) {
	client, err := uc.clientRepo.GetByIdentification(ctx, clientIdentification)
	if err != nil {
		return nil, err
	}

	balance, err := uc.balanceRepo.Get(ctx, client.ID, accountNumber)
	if err != nil {
		return nil, err
	}

	return uc.reconcile(ctx, balance)
}

// CheckAll reconciles every account.
func (uc *ReconciliationUseCase) CheckAll(ctx context.Context) (*ReconciliationReport, error) {
	report := &ReconciliationReport{
		Discrepancies: make([]*ReconciliationResult, 0),
	}

	for offset := 0; ; offset += reconciliationPageSize {
		balances, err := uc.balanceRepo.List(ctx, reconciliationPageSize, offset)
		if err != nil {
			return nil, err
		}

		for _, balance := range balances {
			result, err := uc.reconcile(ctx, balance)
			if err != nil {
				return nil, fmt.Errorf("failed to reconcile account %s: %w", balance.AccountNumber, err)
			}

			report.TotalAccounts++
			if result.IsReconciled {
				report.ReconciledAccounts++
			} else {
				report.Discrepancies = append(report.Discrepancies, result)
			}
		}

		if len(balances) < reconciliationPageSize {
			break
		}
	}

	report.CheckedAt = time.Now().UTC()

	return report, nil
}

// reconcile walks the ledger oldest first. Every entry must start where the
// previous one ended, the first one at zero, and the last one must end at the
// recorded balance.
func (uc *ReconciliationUseCase) reconcile(ctx context.Context, balance *domain.Balance) (*ReconciliationResult, error) {
	entries, err := uc.entryRepo.ListByAccount(ctx, balance.ClientID, balance.AccountNumber)
	if err != nil {
		return nil, err
	}

	result := &ReconciliationResult{
		ClientID:        balance.ClientID,
		AccountNumber:   balance.AccountNumber,
		RecordedBalance: balance.CurrentBalance,
		Entries:         len(entries),
		LastChecked:     time.Now().UTC(),
	}

	running := decimal.Zero
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		if !entry.BalanceBefore.Equal(running) {
			result.ChainBreaks = append(result.ChainBreaks,
				fmt.Sprintf("%s: balance before %s, expected %s", entry.TransactionID, entry.BalanceBefore, running))
		}
		if !entry.IsConsistent() {
			result.ChainBreaks = append(result.ChainBreaks,
				fmt.Sprintf("%s: %s + %s != %s", entry.TransactionID, entry.BalanceBefore, entry.Amount, entry.BalanceAfter))
		}
		running = entry.BalanceAfter
	}

	result.CalculatedBalance = running
	result.Difference = balance.CurrentBalance.Sub(running)
	result.IsReconciled = result.Difference.IsZero() && len(result.ChainBreaks) == 0

	return result, nil
}
