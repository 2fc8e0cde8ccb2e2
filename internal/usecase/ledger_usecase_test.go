package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/folio/internal/domain"
	"github.com/iho/folio/internal/usecase"
	"github.com/iho/folio/internal/usecase/mocks"
)

func newLedgerFixture(t *testing.T) (*usecase.LedgerUseCase, *mocks.MockAccountRepository, *mocks.MockTransactionRepository) {
	t.Helper()

	accountRepo := mocks.NewMockAccountRepository()
	ledgerRepo := mocks.NewMockTransactionRepository()

	accountRepo.Create(context.Background(), &domain.Account{
		ID:           "acc-1",
		OwnerID:      "owner-1",
		Name:         "Brokerage",
		Type:         domain.AccountTypeSynced,
		BaseCurrency: "USD",
	})

	uc := usecase.NewLedgerUseCase(
		mocks.NewMockTransactionManager(),
		accountRepo,
		ledgerRepo,
		mocks.NewMockRetrier(),
		mocks.NewMockIDGenerator(),
		nil,
	)

	return uc, accountRepo, ledgerRepo
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestLedgerUseCase_RecordTransaction_Validation(t *testing.T) {
	uc, _, _ := newLedgerFixture(t)

	base := usecase.RecordTransactionInput{
		AccountID: "acc-1",
		Ticker:    "AAPL",
		TradeDate: day(1),
		Price:     decimal.NewFromInt(100),
		Volume:    decimal.NewFromInt(10),
		Currency:  "USD",
		Source:    domain.SourceManual,
	}

	tests := []struct {
		name    string
		mutate  func(*usecase.RecordTransactionInput)
		wantErr error
	}{
		{
			name:    "zero volume rejected",
			mutate:  func(in *usecase.RecordTransactionInput) { in.Volume = decimal.Zero },
			wantErr: domain.ErrInvalidVolume,
		},
		{
			name:    "negative price rejected",
			mutate:  func(in *usecase.RecordTransactionInput) { in.Price = decimal.NewFromInt(-5) },
			wantErr: domain.ErrInvalidPrice,
		},
		{
			name:    "snaptrade requires external id",
			mutate:  func(in *usecase.RecordTransactionInput) { in.Source = domain.SourceSnapTrade },
			wantErr: domain.ErrMissingExternalID,
		},
		{
			name:    "unknown account rejected",
			mutate:  func(in *usecase.RecordTransactionInput) { in.AccountID = "acc-missing" },
			wantErr: domain.ErrAccountNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := base
			tt.mutate(&input)

			_, _, err := uc.RecordTransaction(context.Background(), input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLedgerUseCase_ImpliedQuantity(t *testing.T) {
	uc, _, _ := newLedgerFixture(t)
	ctx := context.Background()

	// Buy 10 @ $100 on day 1, sell 4 @ $120 on day 5.
	_, created, err := uc.RecordTransaction(ctx, usecase.RecordTransactionInput{
		AccountID: "acc-1", Ticker: "X", TradeDate: day(1),
		Price: decimal.NewFromInt(100), Volume: decimal.NewFromInt(10),
		Currency: "USD", Source: domain.SourceManual,
	})
	if err != nil || !created {
		t.Fatalf("buy not recorded: created=%v err=%v", created, err)
	}

	_, created, err = uc.RecordTransaction(ctx, usecase.RecordTransactionInput{
		AccountID: "acc-1", Ticker: "X", TradeDate: day(5),
		Price: decimal.NewFromInt(120), Volume: decimal.NewFromInt(-4),
		Currency: "USD", Source: domain.SourceManual,
	})
	if err != nil || !created {
		t.Fatalf("sell not recorded: created=%v err=%v", created, err)
	}

	got, err := uc.ImpliedQuantity(ctx, "acc-1", "X")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(6)) {
		t.Errorf("expected implied quantity 6, got %s", got)
	}
}

func TestLedgerUseCase_ImpliedQuantity_FractionalLots(t *testing.T) {
	uc, _, _ := newLedgerFixture(t)
	ctx := context.Background()

	// Many small fractional lots must sum exactly.
	lot := decimal.RequireFromString("0.1")
	for i := 0; i < 1000; i++ {
		_, _, err := uc.RecordTransaction(ctx, usecase.RecordTransactionInput{
			AccountID: "acc-1", Ticker: "VWRL.L", TradeDate: day(1 + i%28),
			Price: decimal.NewFromInt(90), Volume: lot,
			Currency: "GBP", Source: domain.SourceManual,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	got, err := uc.ImpliedQuantity(ctx, "acc-1", "VWRL.L")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected exactly 100, got %s", got)
	}
}

func TestLedgerUseCase_RecordTransaction_Idempotent(t *testing.T) {
	uc, _, _ := newLedgerFixture(t)
	ctx := context.Background()

	extID := "evt-42"
	input := usecase.RecordTransactionInput{
		AccountID: "acc-1", Ticker: "AAPL", TradeDate: day(3),
		Price: decimal.NewFromInt(180), Volume: decimal.NewFromInt(5),
		Currency: "USD", Source: domain.SourceSnapTrade, ExternalID: &extID,
	}

	first, created, err := uc.RecordTransaction(ctx, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatal("first insert should create a row")
	}

	second, created, err := uc.RecordTransaction(ctx, input)
	if err != nil {
		t.Fatalf("redelivery must not error: %v", err)
	}
	if created {
		t.Error("redelivery must not create a second row")
	}
	if second.ID != first.ID {
		t.Errorf("redelivery must return the prior row, got %s want %s", second.ID, first.ID)
	}
}

func TestLedgerUseCase_RecordTransaction_ConcurrentDuplicates(t *testing.T) {
	uc, _, ledgerRepo := newLedgerFixture(t)
	ctx := context.Background()

	extID := "evt-race"
	input := usecase.RecordTransactionInput{
		AccountID: "acc-1", Ticker: "AAPL", TradeDate: day(3),
		Price: decimal.NewFromInt(180), Volume: decimal.NewFromInt(5),
		Currency: "USD", Source: domain.SourceSnapTrade, ExternalID: &extID,
	}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := uc.RecordTransaction(ctx, input)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("concurrent redelivery errored: %v", err)
		}
	}

	rows, err := ledgerRepo.ListAllByTicker(ctx, "acc-1", "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected exactly one stored row, got %d", len(rows))
	}
}

func TestLedgerUseCase_Transactions_Ordering(t *testing.T) {
	uc, _, _ := newLedgerFixture(t)
	ctx := context.Background()

	// Inserted out of date order, plus a same-date tie.
	for _, in := range []usecase.RecordTransactionInput{
		{AccountID: "acc-1", Ticker: "MSFT", TradeDate: day(9), Price: decimal.NewFromInt(400), Volume: decimal.NewFromInt(1), Currency: "USD", Source: domain.SourceManual},
		{AccountID: "acc-1", Ticker: "MSFT", TradeDate: day(2), Price: decimal.NewFromInt(380), Volume: decimal.NewFromInt(2), Currency: "USD", Source: domain.SourceManual},
		{AccountID: "acc-1", Ticker: "MSFT", TradeDate: day(2), Price: decimal.NewFromInt(381), Volume: decimal.NewFromInt(3), Currency: "USD", Source: domain.SourceManual},
	} {
		if _, _, err := uc.RecordTransaction(ctx, in); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	txns, err := uc.Transactions(ctx, usecase.ListTransactionsInput{AccountID: "acc-1", Ticker: "MSFT"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txns) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(txns))
	}

	if !txns[0].TradeDate.Equal(day(2)) || !txns[1].TradeDate.Equal(day(2)) || !txns[2].TradeDate.Equal(day(9)) {
		t.Error("rows not ordered by trade date")
	}
	// Same-date tie keeps insertion order.
	if !txns[0].Volume.Equal(decimal.NewFromInt(2)) || !txns[1].Volume.Equal(decimal.NewFromInt(3)) {
		t.Error("same-date rows not in insertion order")
	}
}
