package catalog

import (
	"errors"
	"strings"
)

// ErrNotFound indicates the requested product does not exist.
var ErrNotFound = errors.New("catalog: product not found")

// Service serves the static storefront catalog.
type Service struct {
	store      StoreInfo
	categories []Category
	products   []Product
	byID       map[string]Product
}

// NewService indexes the provided catalog data.
func NewService(store StoreInfo, categories []Category, products []Product) (*Service, error) {
	if len(products) == 0 {
		return nil, errors.New("catalog: no products")
	}
	byID := make(map[string]Product, len(products))
	for _, p := range products {
		if strings.TrimSpace(p.ID) == "" {
			return nil, errors.New("catalog: product with blank id")
		}
		if p.Price < 0 {
			return nil, errors.New("catalog: negative product price")
		}
		if _, dup := byID[p.ID]; dup {
			return nil, errors.New("catalog: duplicate product id " + p.ID)
		}
		byID[p.ID] = p
	}
	return &Service{store: store, categories: categories, products: products, byID: byID}, nil
}

// Store returns the storefront metadata.
func (s *Service) Store() StoreInfo { return s.store }

// Categories returns all menu categories.
func (s *Service) Categories() []Category { return s.categories }

// Products lists products, optionally filtered by category id.
func (s *Service) Products(category string) []Product {
	category = strings.TrimSpace(category)
	if category == "" {
		return s.products
	}
	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// Product looks up a single product by id.
func (s *Service) Product(id string) (Product, error) {
	p, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}
