package postgres

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/marketplace-escrow-ledger/internal/domain/escrow"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestEscrowRepository_Create(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &EscrowRepository{querier: mock, logger: logger}

	ref := "ch_abc"
	now := time.Now()
	entry := &escrow.Entry{
		ID:               uuid.New(),
		ContractID:       uuid.New(),
		Type:             escrow.EntryTypeFund,
		Amount:           dec("1000.00"),
		Currency:         "USD",
		Status:           escrow.EntryStatusCompleted,
		GatewayReference: &ref,
		GatewayMetadata:  map[string]string{"invoice": "inv_1"},
		IdempotencyKey:   "idem-1",
		CorrelationID:    "corr-1",
		CreatedAt:        now,
		ProcessedAt:      &now,
	}

	query := `
		INSERT INTO escrow_transactions \(.+\)
		VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7, \$8, \$9, \$10, \$11, \$12\)
	`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(entry.ID, entry.ContractID, entry.Type, entry.Amount, entry.Currency, entry.Status,
				entry.GatewayReference, entry.GatewayMetadata, entry.IdempotencyKey, entry.CorrelationID,
				entry.CreatedAt, entry.ProcessedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := repo.Create(ctx, entry)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		expectedErr := errors.New("db error")
		mock.ExpectExec(query).
			WithArgs(entry.ID, entry.ContractID, entry.Type, entry.Amount, entry.Currency, entry.Status,
				entry.GatewayReference, entry.GatewayMetadata, entry.IdempotencyKey, entry.CorrelationID,
				entry.CreatedAt, entry.ProcessedAt).
			WillReturnError(expectedErr)

		err := repo.Create(ctx, entry)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create escrow entry")
		assert.ErrorIs(t, err, expectedErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEscrowRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &EscrowRepository{querier: mock, logger: logger}
	entryID := uuid.New()

	query := `
		SELECT .+
		FROM escrow_transactions
		WHERE id = \$1
	`

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(entryID).WillReturnError(pgx.ErrNoRows)

		entry, err := repo.GetByID(ctx, entryID)
		assert.Error(t, err)
		assert.Nil(t, entry)
		var notFoundErr escrow.ErrEntryNotFound
		assert.ErrorAs(t, err, &notFoundErr)
		assert.Equal(t, entryID, notFoundErr.EntryID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("some db error")
		mock.ExpectQuery(query).WithArgs(entryID).WillReturnError(dbErr)

		entry, err := repo.GetByID(ctx, entryID)
		assert.Error(t, err)
		assert.Nil(t, entry)
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEscrowRepository_GetByIdempotencyKey(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &EscrowRepository{querier: mock, logger: logger}

	query := `
		SELECT .+
		FROM escrow_transactions
		WHERE idempotency_key = \$1
	`

	t.Run("not found returns nil without error", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs("missing-key").WillReturnError(pgx.ErrNoRows)

		entry, err := repo.GetByIdempotencyKey(ctx, "missing-key")
		assert.NoError(t, err)
		assert.Nil(t, entry)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEscrowRepository_ContractBalance(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &EscrowRepository{querier: mock, logger: logger}
	contractID := uuid.New()

	query := `
		SELECT
			.+
		FROM escrow_transactions
		WHERE contract_id = \$1 AND status = 'completed'
	`

	t.Run("success", func(t *testing.T) {
		rows := pgxmock.NewRows([]string{"funded", "released", "refunded", "dispute_refunded"}).
			AddRow(dec("2000.00"), dec("500.00"), dec("100.00"), dec("0.00"))
		mock.ExpectQuery(query).WithArgs(contractID).WillReturnRows(rows)

		balance, err := repo.ContractBalance(ctx, contractID)
		require.NoError(t, err)
		assert.Equal(t, "2000.00", balance.Funded.StringFixed(2))
		assert.Equal(t, "1400.00", balance.Unreleased().StringFixed(2))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("balance db error")
		mock.ExpectQuery(query).WithArgs(contractID).WillReturnError(dbErr)

		balance, err := repo.ContractBalance(ctx, contractID)
		assert.Error(t, err)
		assert.Nil(t, balance)
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEscrowRepository_DisputeHeldAmount(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &EscrowRepository{querier: mock, logger: logger}
	contractID := uuid.New()

	query := `
		SELECT COALESCE\(SUM\(amount\), 0\)
		FROM escrow_transactions
		WHERE contract_id = \$1 AND type = 'dispute_hold' AND status = 'completed'
	`

	t.Run("success", func(t *testing.T) {
		rows := pgxmock.NewRows([]string{"sum"}).AddRow(dec("1500.00"))
		mock.ExpectQuery(query).WithArgs(contractID).WillReturnRows(rows)

		held, err := repo.DisputeHeldAmount(ctx, contractID)
		require.NoError(t, err)
		assert.Equal(t, "1500.00", held.StringFixed(2))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEscrowRepository_ReverseDisputeHolds(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &EscrowRepository{querier: mock, logger: logger}
	contractID := uuid.New()

	query := `
		UPDATE escrow_transactions
		SET status = 'reversed', processed_at = NOW\(\)
		WHERE contract_id = \$1 AND type = 'dispute_hold' AND status = 'completed'
	`

	t.Run("reverses completed holds", func(t *testing.T) {
		mock.ExpectExec(query).WithArgs(contractID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 2))

		reversed, err := repo.ReverseDisputeHolds(ctx, contractID)
		assert.NoError(t, err)
		assert.Equal(t, int64(2), reversed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("idempotent when nothing to reverse", func(t *testing.T) {
		mock.ExpectExec(query).WithArgs(contractID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		reversed, err := repo.ReverseDisputeHolds(ctx, contractID)
		assert.NoError(t, err)
		assert.Equal(t, int64(0), reversed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEscrowRepository_FundedWithGatewayRef(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &EscrowRepository{querier: mock, logger: logger}
	contractID := uuid.New()

	query := `
		SELECT .+
		FROM escrow_transactions
		WHERE contract_id = \$1 AND type = 'fund' AND status = 'completed' AND gateway_reference IS NOT NULL
		ORDER BY created_at DESC
	`

	t.Run("returns newest first", func(t *testing.T) {
		refNew, refOld := "ch_new", "ch_old"
		now := time.Now()
		older := now.Add(-time.Hour)
		columns := []string{"id", "contract_id", "type", "amount", "currency", "status",
			"gateway_reference", "gateway_metadata", "idempotency_key", "correlation_id", "created_at", "processed_at"}
		rows := pgxmock.NewRows(columns).
			AddRow(uuid.New(), contractID, escrow.EntryTypeFund, dec("1000.00"), "USD", escrow.EntryStatusCompleted,
				&refNew, map[string]string(nil), "idem-2", "corr-2", now, &now).
			AddRow(uuid.New(), contractID, escrow.EntryTypeFund, dec("1000.00"), "USD", escrow.EntryStatusCompleted,
				&refOld, map[string]string(nil), "idem-1", "corr-1", older, &older)
		mock.ExpectQuery(query).WithArgs(contractID).WillReturnRows(rows)

		entries, err := repo.FundedWithGatewayRef(ctx, contractID)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "ch_new", *entries[0].GatewayReference)
		assert.Equal(t, "ch_old", *entries[1].GatewayReference)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEscrowRepository_WithTx(t *testing.T) {
	logger := newTestLogger()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	originalRepo := &EscrowRepository{querier: mockPool, logger: logger}

	mockPool.ExpectBegin()
	pgxTx, err := mockPool.Begin(context.Background())
	require.NoError(t, err)

	txRepo := originalRepo.WithTx(pgxTx)

	assert.NotNil(t, txRepo)
	assert.Equal(t, originalRepo.logger, txRepo.(*EscrowRepository).logger)
	assert.Equal(t, pgxTx, txRepo.(*EscrowRepository).querier, "Querier in new repo should be the transaction")

	assert.NoError(t, mockPool.ExpectationsWereMet())
}
