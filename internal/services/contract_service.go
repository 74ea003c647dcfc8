package services

import (
	"context"
	"errors"

	"github.com/farmgate/farmgate/internal/repository"
	"github.com/farmgate/farmgate/pkg/domain"
)

// ErrContractNotActionable is returned when a status transition is not valid
// from the contract's current state.
var ErrContractNotActionable = errors.New("contract is not in an actionable state")

type ContractService interface {
	Propose(ctx context.Context, buyerID string, c domain.Contract) (*domain.Contract, error)
	Get(ctx context.Context, callerID, id string) (*domain.Contract, error)
	Accept(ctx context.Context, farmerID, id string) (*domain.Contract, error)
	ListMine(ctx context.Context, userID string) ([]domain.Contract, error)
}

type contractService struct {
	contracts repository.ContractRepository
	users     repository.UserRepository
}

func NewContractService(contracts repository.ContractRepository, users repository.UserRepository) ContractService {
	return &contractService{contracts: contracts, users: users}
}

// Propose creates a contract offer from a buyer to a farmer. The counterparty
// must exist and actually be a farmer.
func (s *contractService) Propose(ctx context.Context, buyerID string, c domain.Contract) (*domain.Contract, error) {
	c.BuyerID = buyerID
	farmer, err := s.users.Get(ctx, c.FarmerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errors.New("farmer not found")
		}
		return nil, err
	}
	if farmer.UserType != domain.RoleFarmer {
		return nil, errors.New("counterparty is not a farmer")
	}
	return s.contracts.Create(ctx, c)
}

// Get hides contracts from users that are not a party to them.
func (s *contractService) Get(ctx context.Context, callerID, id string) (*domain.Contract, error) {
	c, err := s.contracts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.PartyOf(callerID) {
		return nil, ErrForbidden
	}
	return c, nil
}

// Accept transitions a proposed contract to accepted. Only the farmer named
// on the contract may accept it.
func (s *contractService) Accept(ctx context.Context, farmerID, id string) (*domain.Contract, error) {
	c, err := s.contracts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.FarmerID != farmerID {
		return nil, ErrForbidden
	}
	if c.Status != domain.ContractProposed {
		return nil, ErrContractNotActionable
	}
	return s.contracts.SetStatus(ctx, id, domain.ContractAccepted)
}

func (s *contractService) ListMine(ctx context.Context, userID string) ([]domain.Contract, error) {
	return s.contracts.ListByParty(ctx, userID)
}
