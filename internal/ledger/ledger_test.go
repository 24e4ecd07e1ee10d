package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/themyzteziz/bankapp/internal/domain"
	"github.com/themyzteziz/bankapp/internal/storage/memory"
	"github.com/themyzteziz/bankapp/pkg/metrics"
)

func newTestLedger(t *testing.T) (*Ledger, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return NewLedger(store, metrics.NewCollector(nil), nil), store
}

func TestLedger_CreateAndGetAccount(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)

	created, err := l.CreateAccount(ctx, "Alice", "SEK", decimal.NewFromInt(1000), domain.AccountTypeSavings)
	if err != nil {
		t.Fatalf("unexpected error on CreateAccount: %v", err)
	}

	got, err := l.GetAccount(ctx, created.ID)
	if err != nil {
		t.Fatalf("unexpected error on GetAccount: %v", err)
	}
	if got.Name != "Alice" || got.Currency != "SEK" || !got.Balance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected account %+v, got %+v", created, got)
	}
	if got.AccountType != domain.AccountTypeSavings {
		t.Errorf("expected savings account, got %s", got.AccountType)
	}
}

func TestLedger_GetAccount_NotFound(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)

	if _, err := l.GetAccount(ctx, "missing"); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestLedger_CreateAccount_DuplicateName(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)

	if _, err := l.CreateAccount(ctx, "Alice", "SEK", decimal.Zero, domain.AccountTypeDeposit); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := l.CreateAccount(ctx, "Alice", "SEK", decimal.Zero, domain.AccountTypeDeposit); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("expected ErrDuplicateName, got %v", err)
	}
}

func TestLedger_CreateAccount_EmptyName(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)

	if _, err := l.CreateAccount(ctx, "", "SEK", decimal.Zero, domain.AccountTypeDeposit); !errors.Is(err, ErrInvalidName) {
		t.Errorf("expected ErrInvalidName, got %v", err)
	}
}

func TestLedger_DeleteAccount(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)

	account, _ := l.CreateAccount(ctx, "Alice", "SEK", decimal.Zero, domain.AccountTypeDeposit)

	if err := l.DeleteAccount(ctx, account.ID); err != nil {
		t.Fatalf("unexpected error on DeleteAccount: %v", err)
	}
	if _, err := l.GetAccount(ctx, account.ID); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("expected account to be gone, got %v", err)
	}
}

func TestLedger_DeleteAccount_NotFound(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)

	_, _ = l.CreateAccount(ctx, "Alice", "SEK", decimal.Zero, domain.AccountTypeDeposit)

	if err := l.DeleteAccount(ctx, "missing"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	accounts, _ := l.GetAllAccounts(ctx)
	if len(accounts) != 1 {
		t.Errorf("collection should be unchanged after failed delete, got %d accounts", len(accounts))
	}
}

func TestLedger_Initialize_DeduplicatesStoredAccounts(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	account := domain.NewAccount("Alice", "SEK", decimal.NewFromInt(100), domain.AccountTypeDeposit)
	blob, err := json.Marshal([]*domain.Account{account, account})
	if err != nil {
		t.Fatalf("marshal seed blob: %v", err)
	}
	if err := store.Set(ctx, StorageKey, blob); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	l := NewLedger(store, metrics.NewCollector(nil), nil)
	if err := l.Initialize(ctx); err != nil {
		t.Fatalf("unexpected error on Initialize: %v", err)
	}

	accounts, err := l.GetAllAccounts(ctx)
	if err != nil {
		t.Fatalf("unexpected error on GetAllAccounts: %v", err)
	}
	if len(accounts) != 1 {
		t.Errorf("expected 1 account after dedup, got %d", len(accounts))
	}
}

func TestLedger_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	l := NewLedger(store, metrics.NewCollector(nil), nil)

	alice, err := l.CreateAccount(ctx, "Alice", "SEK", decimal.NewFromInt(1000), domain.AccountTypeSavings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bob, err := l.CreateAccount(ctx, "Bob", "SEK", decimal.NewFromInt(50), domain.AccountTypeDeposit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deposit := domain.NewTransaction(domain.TypeDeposit, decimal.NewFromInt(500), "salary", "SEK")
	if _, err := l.AddTransaction(ctx, alice.ID, deposit); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	withdrawal := domain.NewTransaction(domain.TypeWithdrawal, decimal.NewFromInt(200), "rent", "SEK")
	if _, err := l.AddTransaction(ctx, alice.ID, withdrawal); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A fresh ledger over the same store must reproduce identical state.
	reloaded := NewLedger(store, metrics.NewCollector(nil), nil)
	gotAlice, err := reloaded.GetAccount(ctx, alice.ID)
	if err != nil {
		t.Fatalf("account missing after reload: %v", err)
	}
	gotBob, err := reloaded.GetAccount(ctx, bob.ID)
	if err != nil {
		t.Fatalf("account missing after reload: %v", err)
	}

	if !gotAlice.Balance.Equal(decimal.NewFromInt(1300)) {
		t.Errorf("expected reloaded balance 1300, got %s", gotAlice.Balance)
	}
	if !gotBob.Balance.Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected reloaded balance 50, got %s", gotBob.Balance)
	}
	if len(gotAlice.Transactions) != 2 {
		t.Fatalf("expected 2 transactions after reload, got %d", len(gotAlice.Transactions))
	}
	if gotAlice.Transactions[0].ID != deposit.ID || gotAlice.Transactions[1].ID != withdrawal.ID {
		t.Error("transaction order or ids not preserved across reload")
	}
	if !gotAlice.Transactions[0].BalanceAfterTransaction.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("expected stamped balance 1500, got %s", gotAlice.Transactions[0].BalanceAfterTransaction)
	}
	if !gotAlice.Transactions[1].BalanceAfterTransaction.Equal(decimal.NewFromInt(1300)) {
		t.Errorf("expected stamped balance 1300, got %s", gotAlice.Transactions[1].BalanceAfterTransaction)
	}
}

func TestLedger_ApplyMonthlyInterest(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)

	savings, _ := l.CreateAccount(ctx, "Alice", "SEK", decimal.NewFromInt(1200), domain.AccountTypeSavings)
	checking, _ := l.CreateAccount(ctx, "Bob", "SEK", decimal.NewFromInt(1200), domain.AccountTypeDeposit)

	if err := l.ApplyMonthlyInterest(ctx, 12); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	gotSavings, _ := l.GetAccount(ctx, savings.ID)
	if !gotSavings.Balance.Equal(decimal.NewFromInt(1212)) {
		t.Errorf("expected savings balance 1212, got %s", gotSavings.Balance)
	}
	if len(gotSavings.Transactions) != 0 {
		t.Errorf("interest must not appear in history, got %d entries", len(gotSavings.Transactions))
	}

	gotChecking, _ := l.GetAccount(ctx, checking.ID)
	if !gotChecking.Balance.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("deposit account must not accrue interest, got %s", gotChecking.Balance)
	}
}

func TestLedger_ApplyMonthlyInterest_SkipsNonPositiveBalance(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)

	empty, _ := l.CreateAccount(ctx, "Empty", "SEK", decimal.Zero, domain.AccountTypeSavings)

	if err := l.ApplyMonthlyInterest(ctx, 12); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := l.GetAccount(ctx, empty.ID)
	if !got.Balance.Equal(decimal.Zero) {
		t.Errorf("expected balance to stay 0, got %s", got.Balance)
	}
}

func TestLedger_GetAllAccounts_ReturnsSnapshot(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)

	account, _ := l.CreateAccount(ctx, "Alice", "SEK", decimal.NewFromInt(100), domain.AccountTypeDeposit)

	accounts, _ := l.GetAllAccounts(ctx)
	accounts[0].Balance = decimal.NewFromInt(0)
	accounts[0].Name = "tampered"

	got, _ := l.GetAccount(ctx, account.ID)
	if !got.Balance.Equal(decimal.NewFromInt(100)) || got.Name != "Alice" {
		t.Errorf("snapshot mutation leaked into ledger state: %+v", got)
	}
}

func TestLedger_Withdraw_PropagatesInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)

	account, _ := l.CreateAccount(ctx, "Alice", "SEK", decimal.NewFromInt(10), domain.AccountTypeDeposit)

	if _, err := l.Withdraw(ctx, account.ID, decimal.NewFromInt(50)); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestLedger_MutationsPersistToStore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	l := NewLedger(store, metrics.NewCollector(nil), nil)

	account, _ := l.CreateAccount(ctx, "Alice", "SEK", decimal.NewFromInt(100), domain.AccountTypeDeposit)
	if _, err := l.Deposit(ctx, account.ID, decimal.NewFromInt(25)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	blob, err := store.Get(ctx, StorageKey)
	if err != nil {
		t.Fatalf("expected persisted blob: %v", err)
	}
	var persisted []*domain.Account
	if err := json.Unmarshal(blob, &persisted); err != nil {
		t.Fatalf("persisted blob not decodable: %v", err)
	}
	if len(persisted) != 1 || !persisted[0].Balance.Equal(decimal.NewFromInt(125)) {
		t.Errorf("expected persisted balance 125, got %+v", persisted)
	}
}
