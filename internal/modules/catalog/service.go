package catalog

import (
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/emrekoc/butika-backend/internal/apperr"
	"github.com/emrekoc/butika-backend/internal/modules/storage"
)

// Service defines catalog business logic. Read operations serve the storefront,
// the rest serve the admin back office.
type Service interface {
	GetProduct(ctx context.Context, id string) (*Product, error)
	ListProducts(ctx context.Context, categoryID string) ([]*Product, error)
	ListCategories(ctx context.Context) ([]*Category, error)

	CreateProduct(ctx context.Context, req ProductRequest) (*Product, error)
	UpdateProduct(ctx context.Context, id string, req ProductRequest) (*Product, error)
	DeleteProduct(ctx context.Context, id string) error
	UploadProductImage(ctx context.Context, id string, r io.Reader, size int64, filename, contentType string) (*Product, error)
	CreateCategory(ctx context.Context, name string) (*Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

// ProductRequest holds the data for creating or updating a product.
type ProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Stock       int    `json:"stock"`
	CategoryID  string `json:"category_id,omitempty"`
}

type service struct {
	repo  Repository
	media storage.ObjectStore
}

// NewService creates a new catalog service.
func NewService(repo Repository, media storage.ObjectStore) Service {
	return &service{repo: repo, media: media}
}

func (s *service) GetProduct(ctx context.Context, id string) (*Product, error) {
	p, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.ImageURL = s.media.PublicURL(p.ImageKey)
	return p, nil
}

func (s *service) ListProducts(ctx context.Context, categoryID string) ([]*Product, error) {
	products, err := s.repo.ListProducts(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		p.ImageURL = s.media.PublicURL(p.ImageKey)
	}
	return products, nil
}

func (s *service) ListCategories(ctx context.Context) ([]*Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *service) CreateProduct(ctx context.Context, req ProductRequest) (*Product, error) {
	p, err := s.productFromRequest(req)
	if err != nil {
		return nil, err
	}
	p.ID = uuid.New()
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

func (s *service) UpdateProduct(ctx context.Context, id string, req ProductRequest) (*Product, error) {
	existing, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := s.productFromRequest(req)
	if err != nil {
		return nil, err
	}
	p.ID = existing.ID
	p.ImageKey = existing.ImageKey
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	p.ImageURL = s.media.PublicURL(p.ImageKey)
	return p, nil
}

func (s *service) DeleteProduct(ctx context.Context, id string) error {
	p, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	if p.ImageKey != "" {
		if err := s.media.Delete(ctx, p.ImageKey); err != nil {
			log.Printf("catalog: delete image %s: %v", p.ImageKey, err)
		}
	}
	return nil
}

// UploadProductImage stores the image under a fresh key, points the product at
// it and removes the replaced object. The old-object delete is best-effort.
func (s *service) UploadProductImage(ctx context.Context, id string, r io.Reader, size int64, filename, contentType string) (*Product, error) {
	p, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	key := fmt.Sprintf("products/img_%s%s", uuid.New().String(), ext)

	if err := s.media.Upload(ctx, key, r, size, contentType); err != nil {
		return nil, fmt.Errorf("upload product image: %w", err)
	}
	if err := s.repo.SetProductImage(ctx, id, key); err != nil {
		return nil, err
	}
	if p.ImageKey != "" {
		if err := s.media.Delete(ctx, p.ImageKey); err != nil {
			log.Printf("catalog: delete replaced image %s: %v", p.ImageKey, err)
		}
	}
	p.ImageKey = key
	p.ImageURL = s.media.PublicURL(key)
	return p, nil
}

func (s *service) CreateCategory(ctx context.Context, name string) (*Category, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperr.Validationf("category name is required")
	}
	c := &Category{ID: uuid.New(), Name: strings.TrimSpace(name)}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (s *service) DeleteCategory(ctx context.Context, id string) error {
	return s.repo.DeleteCategory(ctx, id)
}

func (s *service) productFromRequest(req ProductRequest) (*Product, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.Validationf("product name is required")
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return nil, apperr.Validationf("invalid price %q", req.Price)
	}
	if price.IsNegative() {
		return nil, apperr.Validationf("price must not be negative")
	}
	if req.Stock < 0 {
		return nil, apperr.Validationf("stock must not be negative")
	}
	p := &Product{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       price,
		Stock:       req.Stock,
	}
	if req.CategoryID != "" {
		cid, err := uuid.Parse(req.CategoryID)
		if err != nil {
			return nil, apperr.Validationf("invalid category_id %q", req.CategoryID)
		}
		p.CategoryID = &cid
	}
	return p, nil
}
