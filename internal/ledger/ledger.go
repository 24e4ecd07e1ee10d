package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/themyzteziz/bankapp/internal/domain"
	"github.com/themyzteziz/bankapp/internal/storage"
	"github.com/themyzteziz/bankapp/pkg/metrics"
)

// StorageKey is the fixed key the whole account collection is persisted
// under. Existing blobs live under this key, so it must not change.
const StorageKey = "bankapp.accounts"

// Ledger owns the in-memory account collection for the process lifetime and
// round-trips it through the external key-value store: the full collection is
// loaded lazily on first use and written back as one JSON blob after every
// mutation. A single mutex serializes all operations, so there is exactly
// one writer for the load/modify/persist cycle.
type Ledger struct {
	mu       sync.Mutex
	store    storage.Store
	key      string
	accounts map[string]*domain.Account
	order    []string
	loaded   bool
	logger   *slog.Logger
	metrics  *metrics.Collector
}

func NewLedger(store storage.Store, collector *metrics.Collector, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		store:    store,
		key:      StorageKey,
		accounts: make(map[string]*domain.Account),
		logger:   logger,
		metrics:  collector,
	}
}

// Initialize loads the account collection from the store. It is idempotent:
// once the in-memory set is populated, later calls are no-ops. Every other
// operation initializes implicitly, so calling it up front is optional.
func (l *Ledger) Initialize(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ensureLoaded(ctx)
}

func (l *Ledger) ensureLoaded(ctx context.Context) error {
	if l.loaded {
		return nil
	}

	data, err := l.store.Get(ctx, l.key)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			l.loaded = true
			return nil
		}
		return fmt.Errorf("load accounts: %w", err)
	}

	var loaded []*domain.Account
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("decode accounts: %w", err)
	}

	for _, account := range loaded {
		if _, exists := l.accounts[account.ID]; exists {
			l.logger.Warn("Skipping duplicate account in stored blob",
				slog.String("account_id", account.ID))
			continue
		}
		l.accounts[account.ID] = account
		l.order = append(l.order, account.ID)
	}
	l.loaded = true

	l.logger.Info("Accounts loaded",
		slog.String("key", l.key),
		slog.Int("count", len(l.order)))
	return nil
}

// CreateAccount builds a new account, adds it to the collection and persists
// the whole collection. Account names are unique across the ledger.
func (l *Ledger) CreateAccount(ctx context.Context, name, currency string, initialBalance decimal.Decimal, accountType domain.AccountType) (*domain.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, ErrInvalidName
	}
	for _, id := range l.order {
		if l.accounts[id].Name == name {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, name)
		}
	}

	account := domain.NewAccount(name, currency, initialBalance, accountType)
	l.accounts[account.ID] = account
	l.order = append(l.order, account.ID)

	if err := l.persist(ctx); err != nil {
		return nil, err
	}

	l.observeAccount(account)
	l.metrics.RecordAccountCreated()
	l.logger.Info("Account created",
		slog.String("account_id", account.ID),
		slog.String("name", account.Name),
		slog.String("type", string(account.AccountType)))
	return account.Clone(), nil
}

// GetAccount returns a snapshot of the account with the given id.
func (l *Ledger) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	account, exists := l.accounts[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
	}
	return account.Clone(), nil
}

// GetAllAccounts returns snapshots of every account in creation order.
// Mutating the returned accounts does not affect the ledger.
func (l *Ledger) GetAllAccounts(ctx context.Context) ([]*domain.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	result := make([]*domain.Account, 0, len(l.order))
	for _, id := range l.order {
		result = append(result, l.accounts[id].Clone())
	}
	return result, nil
}

// DeleteAccount removes the account and persists the collection.
func (l *Ledger) DeleteAccount(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoaded(ctx); err != nil {
		return err
	}
	if _, exists := l.accounts[id]; !exists {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, id)
	}

	delete(l.accounts, id)
	for i, accountID := range l.order {
		if accountID == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}

	if err := l.persist(ctx); err != nil {
		return err
	}

	l.metrics.RecordAccountDeleted()
	l.logger.Info("Account deleted", slog.String("account_id", id))
	return nil
}

// SaveAccounts is an explicit flush of every account, including full
// transaction histories, overwriting the prior stored blob.
func (l *Ledger) SaveAccounts(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoaded(ctx); err != nil {
		return err
	}
	return l.persist(ctx)
}

// Deposit credits an account through the direct mutation path (no history
// entry) and persists.
func (l *Ledger) Deposit(ctx context.Context, id string, amount decimal.Decimal) (*domain.Account, error) {
	return l.mutate(ctx, id, func(a *domain.Account) error {
		return a.Deposit(amount)
	})
}

// Withdraw debits an account through the direct mutation path (no history
// entry) and persists.
func (l *Ledger) Withdraw(ctx context.Context, id string, amount decimal.Decimal) (*domain.Account, error) {
	return l.mutate(ctx, id, func(a *domain.Account) error {
		return a.Withdraw(amount)
	})
}

// AddTransaction appends a transaction to the account's history via the
// audited path and persists. Duplicate transaction ids are silently ignored.
func (l *Ledger) AddTransaction(ctx context.Context, id string, tx *domain.Transaction) (*domain.Account, error) {
	account, err := l.mutate(ctx, id, func(a *domain.Account) error {
		return a.AddTransaction(tx)
	})
	if err != nil {
		if tx != nil {
			l.metrics.RecordTransaction(string(tx.Type), false)
		}
		return nil, err
	}
	l.metrics.RecordTransaction(string(tx.Type), true)
	return account, nil
}

// ApplyMonthlyInterest credits every savings account with one month of the
// given annual rate. The credit goes through the deposit path, so it does not
// appear in transaction history. The collection is persisted once afterwards.
func (l *Ledger) ApplyMonthlyInterest(ctx context.Context, annualRatePercent float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoaded(ctx); err != nil {
		return err
	}

	monthlyRate := decimal.NewFromFloat(annualRatePercent).
		Div(decimal.NewFromInt(12)).
		Div(decimal.NewFromInt(100))

	credited := 0
	for _, id := range l.order {
		account := l.accounts[id]
		if account.AccountType != domain.AccountTypeSavings {
			continue
		}
		interest := account.Balance.Mul(monthlyRate)
		if interest.Sign() <= 0 {
			continue
		}
		if err := account.Deposit(interest); err != nil {
			return fmt.Errorf("credit interest to %s: %w", account.ID, err)
		}
		l.observeAccount(account)
		credited++
	}

	if err := l.persist(ctx); err != nil {
		return err
	}

	l.metrics.RecordInterestRun(credited)
	l.logger.Info("Monthly interest applied",
		slog.Float64("annual_rate_percent", annualRatePercent),
		slog.Int("accounts_credited", credited))
	return nil
}

func (l *Ledger) mutate(ctx context.Context, id string, fn func(*domain.Account) error) (*domain.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	account, exists := l.accounts[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
	}

	if err := fn(account); err != nil {
		return nil, err
	}
	if err := l.persist(ctx); err != nil {
		return nil, err
	}

	l.observeAccount(account)
	return account.Clone(), nil
}

func (l *Ledger) persist(ctx context.Context) error {
	out := make([]*domain.Account, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.accounts[id])
	}

	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("encode accounts: %w", err)
	}
	if err := l.store.Set(ctx, l.key, data); err != nil {
		return fmt.Errorf("save accounts: %w", err)
	}
	return nil
}

func (l *Ledger) observeAccount(account *domain.Account) {
	l.metrics.UpdateAccountBalance(account.ID, account.Currency, account.Balance.InexactFloat64())
}
