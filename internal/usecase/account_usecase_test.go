package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/folio/internal/domain"
	"github.com/iho/folio/internal/usecase"
	"github.com/iho/folio/internal/usecase/mocks"
)

func newAccountUseCase() (*usecase.AccountUseCase, *mocks.MockAccountRepository) {
	repo := mocks.NewMockAccountRepository()
	return usecase.NewAccountUseCase(repo, mocks.NewMockIDGenerator()), repo
}

func TestCreateAccount(t *testing.T) {
	uc, _ := newAccountUseCase()

	account, err := uc.CreateAccount(context.Background(), usecase.CreateAccountInput{
		OwnerID:      "owner-1",
		Name:         "  Brokerage  ",
		Type:         domain.AccountTypeSynced,
		BaseCurrency: "usd",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, account.ID)
	assert.Equal(t, "Brokerage", account.Name)
	assert.Equal(t, "USD", account.BaseCurrency)
	assert.Nil(t, account.LastSyncedAt)
	assert.False(t, account.CreatedAt.IsZero())
}

func TestCreateAccountValidation(t *testing.T) {
	uc, _ := newAccountUseCase()

	tests := []struct {
		name    string
		input   usecase.CreateAccountInput
		wantErr error
	}{
		{
			name: "empty name",
			input: usecase.CreateAccountInput{
				OwnerID: "owner-1", Name: "   ",
				Type: domain.AccountTypeManual, BaseCurrency: "USD",
			},
			wantErr: domain.ErrInvalidAccount,
		},
		{
			name: "bad currency",
			input: usecase.CreateAccountInput{
				OwnerID: "owner-1", Name: "Brokerage",
				Type: domain.AccountTypeManual, BaseCurrency: "DOLLARS",
			},
			wantErr: domain.ErrInvalidCurrency,
		},
		{
			name: "unknown type",
			input: usecase.CreateAccountInput{
				OwnerID: "owner-1", Name: "Brokerage",
				Type: domain.AccountType("margin"), BaseCurrency: "USD",
			},
			wantErr: domain.ErrInvalidAccount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.CreateAccount(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGetAccountNotFound(t *testing.T) {
	uc, _ := newAccountUseCase()

	_, err := uc.GetAccount(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrAccountNotFound))
}

func TestListAccountsOwnerFilter(t *testing.T) {
	uc, _ := newAccountUseCase()

	for _, owner := range []string{"owner-1", "owner-1", "owner-2"} {
		_, err := uc.CreateAccount(context.Background(), usecase.CreateAccountInput{
			OwnerID: owner, Name: "Account", Type: domain.AccountTypeManual, BaseCurrency: "USD",
		})
		require.NoError(t, err)
	}

	accounts, err := uc.ListAccounts(context.Background(), usecase.ListAccountsInput{OwnerID: "owner-1"})
	require.NoError(t, err)
	assert.Len(t, accounts, 2)

	all, err := uc.ListAccounts(context.Background(), usecase.ListAccountsInput{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestListAccountsPaginationDefaults(t *testing.T) {
	uc, repo := newAccountUseCase()

	var gotLimit, gotOffset int
	repo.ListFunc = func(ctx context.Context, ownerID string, limit, offset int) ([]*domain.Account, error) {
		gotLimit, gotOffset = limit, offset
		return nil, nil
	}

	_, err := uc.ListAccounts(context.Background(), usecase.ListAccountsInput{Limit: -5, Offset: -1})
	require.NoError(t, err)
	assert.Equal(t, 50, gotLimit)
	assert.Equal(t, 0, gotOffset)
}
