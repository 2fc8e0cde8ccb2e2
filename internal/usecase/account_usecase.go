package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/iho/folio/internal/domain"
)

// AccountUseCase handles account lifecycle.
type AccountUseCase struct {
	accountRepo AccountRepository
	idGen       IDGenerator
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(accountRepo AccountRepository, idGen IDGenerator) *AccountUseCase {
	return &AccountUseCase{
		accountRepo: accountRepo,
		idGen:       idGen,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	OwnerID      string
	Name         string
	Type         domain.AccountType
	BaseCurrency string
}

// CreateAccount creates a new synced or manual account container.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if err := domain.ValidateAccountName(input.Name); err != nil {
		return nil, err
	}
	if err := domain.ValidateCurrency(input.BaseCurrency); err != nil {
		return nil, err
	}
	if !input.Type.Valid() {
		return nil, domain.ErrInvalidAccount
	}

	account := &domain.Account{
		ID:           uc.idGen.Generate(),
		OwnerID:      input.OwnerID,
		Name:         strings.TrimSpace(input.Name),
		Type:         input.Type,
		BaseCurrency: strings.ToUpper(strings.TrimSpace(input.BaseCurrency)),
		CreatedAt:    time.Now().UTC(),
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	OwnerID string
	Limit   int
	Offset  int
}

// ListAccounts lists accounts with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.accountRepo.List(ctx, input.OwnerID, limit, offset)
}
