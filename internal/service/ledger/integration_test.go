package ledger_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChVMKiran/Financial-Ledger-API-with-Double-Entry-Bookkeeping/internal/domain"
	"github.com/ChVMKiran/Financial-Ledger-API-with-Double-Entry-Bookkeeping/internal/repository"
	"github.com/ChVMKiran/Financial-Ledger-API-with-Double-Entry-Bookkeeping/internal/service"
	"github.com/ChVMKiran/Financial-Ledger-API-with-Double-Entry-Bookkeeping/internal/service/ledger"
	"github.com/ChVMKiran/Financial-Ledger-API-with-Double-Entry-Bookkeeping/internal/testutil"
)

func setupEngine(t *testing.T, db *sql.DB) *ledger.Service {
	t.Helper()
	return ledger.NewService(
		repository.NewAccountRepository(db),
		repository.NewTransactionRepository(db),
		repository.NewLedgerRepository(db),
		db,
	)
}

func setupAccountService(t *testing.T, db *sql.DB) *service.AccountService {
	t.Helper()
	return service.NewAccountService(
		repository.NewAccountRepository(db),
		repository.NewLedgerRepository(db),
	)
}

func getEntries(t *testing.T, db *sql.DB, transactionID uuid.UUID) []domain.LedgerEntry {
	t.Helper()
	entries, err := repository.NewLedgerRepository(db).GetByTransactionID(context.Background(), transactionID)
	require.NoError(t, err)
	return entries
}

func findEntryByAccount(entries []domain.LedgerEntry, accountID uuid.UUID, entryType domain.EntryType) *domain.LedgerEntry {
	for _, e := range entries {
		if e.AccountID == accountID && e.EntryType == entryType {
			return &e
		}
	}
	return nil
}

func TestDeposit_HappyPath(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine := setupEngine(t, db)
	ctx := context.Background()

	acct := testutil.SeedAccount(t, db, uuid.New(), "USD")

	txn, err := engine.Deposit(ctx, ledger.DepositRequest{
		AccountID:   acct.ID,
		Amount:      10000,
		Currency:    domain.CurrencyUSD,
		Description: "payroll",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusCompleted, txn.Status)
	assert.Equal(t, domain.TransactionTypeDeposit, txn.Type)
	assert.Equal(t, int64(10000), txn.Amount)
	assert.NotNil(t, txn.CompletedAt)

	assert.Equal(t, int64(10000), testutil.DerivedBalance(t, db, acct.ID))
	assert.Equal(t, 2, testutil.CountLedgerEntries(t, db, txn.ID))
	assert.Equal(t, 1, testutil.CountSystemAccounts(t, db, "USD"))

	stored, err := repository.NewTransactionRepository(db).GetByID(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusCompleted, stored.Status)
	assert.NotNil(t, stored.CompletedAt)

	entries := getEntries(t, db, txn.ID)
	credit := findEntryByAccount(entries, acct.ID, domain.EntryTypeCredit)
	require.NotNil(t, credit)
	assert.Equal(t, int64(10000), credit.Amount)

	// The other side debits the system counterparty, driving it negative.
	debit := entries[0]
	if debit.EntryType != domain.EntryTypeDebit {
		debit = entries[1]
	}
	assert.Equal(t, domain.EntryTypeDebit, debit.EntryType)
	assert.NotEqual(t, acct.ID, debit.AccountID)
	assert.Equal(t, int64(-10000), testutil.DerivedBalance(t, db, debit.AccountID))
}

func TestDeposit_Preconditions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine := setupEngine(t, db)
	ctx := context.Background()

	acct := testutil.SeedAccount(t, db, uuid.New(), "USD")
	frozen := testutil.SeedFrozenAccount(t, db, uuid.New(), "USD")

	t.Run("currency mismatch", func(t *testing.T) {
		_, err := engine.Deposit(ctx, ledger.DepositRequest{
			AccountID: acct.ID, Amount: 5000, Currency: domain.CurrencyEUR,
		})
		require.ErrorIs(t, err, domain.ErrCurrencyMismatch)
	})

	t.Run("account not found", func(t *testing.T) {
		_, err := engine.Deposit(ctx, ledger.DepositRequest{
			AccountID: uuid.New(), Amount: 5000, Currency: domain.CurrencyUSD,
		})
		require.ErrorIs(t, err, domain.ErrAccountNotFound)
	})

	t.Run("invalid amount", func(t *testing.T) {
		_, err := engine.Deposit(ctx, ledger.DepositRequest{
			AccountID: acct.ID, Amount: 0, Currency: domain.CurrencyUSD,
		})
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
	})

	t.Run("frozen account", func(t *testing.T) {
		_, err := engine.Deposit(ctx, ledger.DepositRequest{
			AccountID: frozen.ID, Amount: 5000, Currency: domain.CurrencyUSD,
		})
		require.ErrorIs(t, err, domain.ErrAccountFrozen)
	})

	// None of the rejected operations may leave durable state behind.
	assert.Equal(t, 0, testutil.CountTransactions(t, db))
	assert.Equal(t, int64(0), testutil.DerivedBalance(t, db, acct.ID))
}

func TestWithdraw_HappyPath(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine := setupEngine(t, db)
	ctx := context.Background()

	acct := testutil.SeedAccount(t, db, uuid.New(), "USD")

	_, err := engine.Deposit(ctx, ledger.DepositRequest{
		AccountID: acct.ID, Amount: 10000, Currency: domain.CurrencyUSD,
	})
	require.NoError(t, err)

	txn, err := engine.Withdraw(ctx, ledger.WithdrawalRequest{
		AccountID:   acct.ID,
		Amount:      4000,
		Currency:    domain.CurrencyUSD,
		Description: "atm",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusCompleted, txn.Status)
	assert.Equal(t, domain.TransactionTypeWithdrawal, txn.Type)

	assert.Equal(t, int64(6000), testutil.DerivedBalance(t, db, acct.ID))
	assert.Equal(t, 2, testutil.CountLedgerEntries(t, db, txn.ID))

	entries := getEntries(t, db, txn.ID)
	debit := findEntryByAccount(entries, acct.ID, domain.EntryTypeDebit)
	require.NotNil(t, debit)
	assert.Equal(t, int64(4000), debit.Amount)
}

func TestWithdraw_InsufficientBalance(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine := setupEngine(t, db)
	ctx := context.Background()

	acct := testutil.SeedAccount(t, db, uuid.New(), "USD")

	_, err := engine.Deposit(ctx, ledger.DepositRequest{
		AccountID: acct.ID, Amount: 10000, Currency: domain.CurrencyUSD,
	})
	require.NoError(t, err)

	_, err = engine.Withdraw(ctx, ledger.WithdrawalRequest{
		AccountID: acct.ID, Amount: 15000, Currency: domain.CurrencyUSD,
	})

	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.Equal(t, int64(10000), testutil.DerivedBalance(t, db, acct.ID))
	assert.Equal(t, 1, testutil.CountTransactions(t, db), "only the deposit may be persisted")
}

func TestWithdraw_ConcurrentOverdraft(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine := setupEngine(t, db)
	ctx := context.Background()

	acct := testutil.SeedAccount(t, db, uuid.New(), "USD")

	_, err := engine.Deposit(ctx, ledger.DepositRequest{
		AccountID: acct.ID, Amount: 10000, Currency: domain.CurrencyUSD,
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make(chan error, 2)

	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Withdraw(ctx, ledger.WithdrawalRequest{
				AccountID: acct.ID, Amount: 6000, Currency: domain.CurrencyUSD,
			})
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	var successes, failures int
	for err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
			failures++
		}
	}

	assert.Equal(t, 1, successes, "exactly one withdrawal should succeed")
	assert.Equal(t, 1, failures, "exactly one withdrawal should fail")
	assert.Equal(t, int64(4000), testutil.DerivedBalance(t, db, acct.ID), "balance must never go negative")
}

func TestTransfer_HappyPath(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine := setupEngine(t, db)
	ctx := context.Background()

	acct1 := testutil.SeedAccount(t, db, uuid.New(), "USD")
	acct2 := testutil.SeedAccount(t, db, uuid.New(), "USD")

	_, err := engine.Deposit(ctx, ledger.DepositRequest{
		AccountID: acct1.ID, Amount: 10000, Currency: domain.CurrencyUSD,
	})
	require.NoError(t, err)

	txn, err := engine.Transfer(ctx, ledger.TransferRequest{
		FromAccountID: acct1.ID,
		ToAccountID:   acct2.ID,
		Amount:        4000,
		Currency:      domain.CurrencyUSD,
		Description:   "rent",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusCompleted, txn.Status)
	assert.Equal(t, domain.TransactionTypeTransfer, txn.Type)

	assert.Equal(t, int64(6000), testutil.DerivedBalance(t, db, acct1.ID))
	assert.Equal(t, int64(4000), testutil.DerivedBalance(t, db, acct2.ID))

	entries := getEntries(t, db, txn.ID)
	require.Len(t, entries, 2)
	require.NotNil(t, findEntryByAccount(entries, acct1.ID, domain.EntryTypeDebit))
	require.NotNil(t, findEntryByAccount(entries, acct2.ID, domain.EntryTypeCredit))
}

func TestTransfer_Preconditions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine := setupEngine(t, db)
	ctx := context.Background()

	acctUSD := testutil.SeedAccount(t, db, uuid.New(), "USD")
	acctEUR := testutil.SeedAccount(t, db, uuid.New(), "EUR")

	_, err := engine.Deposit(ctx, ledger.DepositRequest{
		AccountID: acctUSD.ID, Amount: 10000, Currency: domain.CurrencyUSD,
	})
	require.NoError(t, err)
	txnsBefore := testutil.CountTransactions(t, db)

	t.Run("same account", func(t *testing.T) {
		_, err := engine.Transfer(ctx, ledger.TransferRequest{
			FromAccountID: acctUSD.ID, ToAccountID: acctUSD.ID,
			Amount: 1000, Currency: domain.CurrencyUSD,
		})
		require.ErrorIs(t, err, domain.ErrSelfTransfer)
	})

	t.Run("destination currency mismatch", func(t *testing.T) {
		_, err := engine.Transfer(ctx, ledger.TransferRequest{
			FromAccountID: acctUSD.ID, ToAccountID: acctEUR.ID,
			Amount: 1000, Currency: domain.CurrencyUSD,
		})
		require.ErrorIs(t, err, domain.ErrCurrencyMismatch)
	})

	t.Run("destination not found", func(t *testing.T) {
		_, err := engine.Transfer(ctx, ledger.TransferRequest{
			FromAccountID: acctUSD.ID, ToAccountID: uuid.New(),
			Amount: 1000, Currency: domain.CurrencyUSD,
		})
		require.ErrorIs(t, err, domain.ErrAccountNotFound)
	})

	t.Run("insufficient balance", func(t *testing.T) {
		acct3 := testutil.SeedAccount(t, db, uuid.New(), "USD")
		_, err := engine.Transfer(ctx, ledger.TransferRequest{
			FromAccountID: acct3.ID, ToAccountID: acctUSD.ID,
			Amount: 1, Currency: domain.CurrencyUSD,
		})
		require.ErrorIs(t, err, domain.ErrInsufficientBalance)
	})

	assert.Equal(t, txnsBefore, testutil.CountTransactions(t, db), "rejected transfers must persist nothing")
	assert.Equal(t, int64(10000), testutil.DerivedBalance(t, db, acctUSD.ID))
}

func TestTransfer_OppositeDirectionsNoDeadlock(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine := setupEngine(t, db)
	ctx := context.Background()

	acct1 := testutil.SeedAccount(t, db, uuid.New(), "USD")
	acct2 := testutil.SeedAccount(t, db, uuid.New(), "USD")

	for _, id := range []uuid.UUID{acct1.ID, acct2.ID} {
		_, err := engine.Deposit(ctx, ledger.DepositRequest{
			AccountID: id, Amount: 10000, Currency: domain.CurrencyUSD,
		})
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	results := make(chan error, 2)

	transfer := func(from, to uuid.UUID) {
		defer wg.Done()
		_, err := engine.Transfer(ctx, ledger.TransferRequest{
			FromAccountID: from, ToAccountID: to,
			Amount: 3000, Currency: domain.CurrencyUSD,
		})
		results <- err
	}

	wg.Add(2)
	go transfer(acct1.ID, acct2.ID)
	go transfer(acct2.ID, acct1.ID)
	wg.Wait()
	close(results)

	for err := range results {
		require.NoError(t, err)
	}

	assert.Equal(t, int64(10000), testutil.DerivedBalance(t, db, acct1.ID))
	assert.Equal(t, int64(10000), testutil.DerivedBalance(t, db, acct2.ID))
}

func TestSystemAccount_ConcurrentFirstUse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine := setupEngine(t, db)
	ctx := context.Background()

	const workers = 8
	accounts := make([]uuid.UUID, workers)
	for i := range accounts {
		accounts[i] = testutil.SeedAccount(t, db, uuid.New(), "EUR").ID
	}

	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := range workers {
		wg.Add(1)
		go func(accountID uuid.UUID) {
			defer wg.Done()
			_, err := engine.Deposit(ctx, ledger.DepositRequest{
				AccountID: accountID, Amount: 100, Currency: domain.CurrencyEUR,
			})
			results <- err
		}(accounts[i])
	}

	wg.Wait()
	close(results)

	for err := range results {
		require.NoError(t, err)
	}

	assert.Equal(t, 1, testutil.CountSystemAccounts(t, db, "EUR"),
		"concurrent first use must create exactly one system account")
}

func TestLedger_BalanceAndIdempotentRead(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine := setupEngine(t, db)
	accounts := setupAccountService(t, db)
	ctx := context.Background()

	acct1 := testutil.SeedAccount(t, db, uuid.New(), "USD")
	acct2 := testutil.SeedAccount(t, db, uuid.New(), "USD")

	_, err := engine.Deposit(ctx, ledger.DepositRequest{
		AccountID: acct1.ID, Amount: 10000, Currency: domain.CurrencyUSD,
	})
	require.NoError(t, err)
	_, err = engine.Withdraw(ctx, ledger.WithdrawalRequest{
		AccountID: acct1.ID, Amount: 2500, Currency: domain.CurrencyUSD,
	})
	require.NoError(t, err)
	_, err = engine.Transfer(ctx, ledger.TransferRequest{
		FromAccountID: acct1.ID, ToAccountID: acct2.ID,
		Amount: 3000, Currency: domain.CurrencyUSD,
	})
	require.NoError(t, err)

	details, err := accounts.GetAccount(ctx, acct1.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4500), details.Balance)

	entries, err := accounts.GetLedger(ctx, acct1.ID)
	require.NoError(t, err)
	assert.Equal(t, details.Balance, domain.Balance(entries),
		"reported balance must equal the balance derived from the ledger")

	again, err := accounts.GetLedger(ctx, acct1.ID)
	require.NoError(t, err)
	assert.Equal(t, entries, again, "repeated reads with no writes must return identical sequences")

	for i := 1; i < len(entries); i++ {
		assert.False(t, entries[i].CreatedAt.Before(entries[i-1].CreatedAt),
			"entries must be ordered by creation time")
	}
}
