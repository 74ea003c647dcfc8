package services

import (
	"context"

	"github.com/farmgate/farmgate/internal/repository"
	"github.com/farmgate/farmgate/pkg/domain"
)

type ProductService interface {
	Create(ctx context.Context, farmerID string, p domain.Product) (*domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Update(ctx context.Context, farmerID string, p domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, farmerID, id string) error
	List(ctx context.Context) ([]domain.Product, error)
	ListByFarmer(ctx context.Context, farmerID string) ([]domain.Product, error)
}

type productService struct {
	products repository.ProductRepository
}

func NewProductService(products repository.ProductRepository) ProductService {
	return &productService{products: products}
}

func (s *productService) Create(ctx context.Context, farmerID string, p domain.Product) (*domain.Product, error) {
	p.FarmerID = farmerID
	return s.products.Create(ctx, p)
}

func (s *productService) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.products.Get(ctx, id)
}

// Update rejects writes to a listing the caller does not own.
func (s *productService) Update(ctx context.Context, farmerID string, p domain.Product) (*domain.Product, error) {
	existing, err := s.products.Get(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if existing.FarmerID != farmerID {
		return nil, ErrForbidden
	}
	return s.products.Update(ctx, p)
}

func (s *productService) Delete(ctx context.Context, farmerID, id string) error {
	existing, err := s.products.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing.FarmerID != farmerID {
		return ErrForbidden
	}
	return s.products.Delete(ctx, id)
}

func (s *productService) List(ctx context.Context) ([]domain.Product, error) {
	return s.products.List(ctx)
}

func (s *productService) ListByFarmer(ctx context.Context, farmerID string) ([]domain.Product, error) {
	return s.products.ListByFarmer(ctx, farmerID)
}
