package catalog

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emrekoc/butika-backend/internal/apperr"
)

type fakeCatalogRepo struct {
	products   map[string]*Product
	categories map[string]*Category
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{products: map[string]*Product{}, categories: map[string]*Category{}}
}

func (f *fakeCatalogRepo) GetProductByID(_ context.Context, id string) (*Product, error) {
	if p, ok := f.products[id]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, fmt.Errorf("product %s: %w", id, apperr.ErrNotFound)
}

func (f *fakeCatalogRepo) ListProducts(_ context.Context, categoryID string) ([]*Product, error) {
	var out []*Product
	for _, p := range f.products {
		if categoryID == "" || (p.CategoryID != nil && p.CategoryID.String() == categoryID) {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeCatalogRepo) CreateProduct(_ context.Context, p *Product) error {
	f.products[p.ID.String()] = p
	return nil
}

func (f *fakeCatalogRepo) UpdateProduct(_ context.Context, p *Product) error {
	if _, ok := f.products[p.ID.String()]; !ok {
		return fmt.Errorf("product %s: %w", p.ID, apperr.ErrNotFound)
	}
	f.products[p.ID.String()] = p
	return nil
}

func (f *fakeCatalogRepo) DeleteProduct(_ context.Context, id string) error {
	if _, ok := f.products[id]; !ok {
		return fmt.Errorf("product %s: %w", id, apperr.ErrNotFound)
	}
	delete(f.products, id)
	return nil
}

func (f *fakeCatalogRepo) SetProductImage(_ context.Context, id string, key string) error {
	if p, ok := f.products[id]; ok {
		p.ImageKey = key
		return nil
	}
	return fmt.Errorf("product %s: %w", id, apperr.ErrNotFound)
}

func (f *fakeCatalogRepo) ListCategories(_ context.Context) ([]*Category, error) {
	var out []*Category
	for _, c := range f.categories {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCatalogRepo) CreateCategory(_ context.Context, c *Category) error {
	f.categories[c.ID.String()] = c
	return nil
}

func (f *fakeCatalogRepo) DeleteCategory(_ context.Context, id string) error {
	delete(f.categories, id)
	return nil
}

type fakeStore struct {
	objects map[string][]byte
	deleted []string
	delErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (f *fakeStore) Upload(_ context.Context, key string, r io.Reader, size int64, contentType string) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.objects[key] = raw
	return nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	if f.delErr != nil {
		return f.delErr
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeStore) PublicURL(key string) string {
	if key == "" {
		return ""
	}
	return "https://cdn.example.com/" + key
}

func seedProduct(repo *fakeCatalogRepo, name, price string, stock int, imageKey string) *Product {
	p := &Product{
		ID:       uuid.New(),
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		ImageKey: imageKey,
	}
	repo.products[p.ID.String()] = p
	return p
}

func TestGetProductDerivesImageURL(t *testing.T) {
	repo := newFakeCatalogRepo()
	p := seedProduct(repo, "Keten Gömlek", "50.00", 10, "products/img_1.jpg")
	svc := NewService(repo, newFakeStore())

	got, err := svc.GetProduct(context.Background(), p.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/products/img_1.jpg", got.ImageURL)

	noImage := seedProduct(repo, "Pamuk Tişört", "30.00", 5, "")
	got, err = svc.GetProduct(context.Background(), noImage.ID.String())
	require.NoError(t, err)
	assert.Empty(t, got.ImageURL)
}

func TestGetProductNotFound(t *testing.T) {
	svc := NewService(newFakeCatalogRepo(), newFakeStore())

	_, err := svc.GetProduct(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListProductsFiltersByCategory(t *testing.T) {
	repo := newFakeCatalogRepo()
	category := uuid.New()
	inCat := seedProduct(repo, "Keten Gömlek", "50.00", 10, "")
	inCat.CategoryID = &category
	seedProduct(repo, "Pamuk Tişört", "30.00", 5, "")
	svc := NewService(repo, newFakeStore())

	all, err := svc.ListProducts(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := svc.ListProducts(context.Background(), category.String())
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Keten Gömlek", filtered[0].Name)
}

func TestCreateProductValidation(t *testing.T) {
	svc := NewService(newFakeCatalogRepo(), newFakeStore())

	cases := []struct {
		name string
		req  ProductRequest
	}{
		{"empty name", ProductRequest{Name: "  ", Price: "10.00"}},
		{"unparseable price", ProductRequest{Name: "Gömlek", Price: "abc"}},
		{"negative price", ProductRequest{Name: "Gömlek", Price: "-1.00"}},
		{"negative stock", ProductRequest{Name: "Gömlek", Price: "10.00", Stock: -1}},
		{"bad category id", ProductRequest{Name: "Gömlek", Price: "10.00", CategoryID: "not-a-uuid"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateProduct(context.Background(), tc.req)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestCreateProduct(t *testing.T) {
	repo := newFakeCatalogRepo()
	svc := NewService(repo, newFakeStore())

	p, err := svc.CreateProduct(context.Background(), ProductRequest{
		Name:  "  Keten Gömlek  ",
		Price: "149.90",
		Stock: 12,
	})
	require.NoError(t, err)
	assert.Equal(t, "Keten Gömlek", p.Name, "name is trimmed")
	assert.True(t, p.Price.Equal(decimal.RequireFromString("149.90")))
	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Contains(t, repo.products, p.ID.String())
}

func TestUpdateProductKeepsImageKey(t *testing.T) {
	repo := newFakeCatalogRepo()
	existing := seedProduct(repo, "Keten Gömlek", "50.00", 10, "products/img_old.jpg")
	svc := NewService(repo, newFakeStore())

	updated, err := svc.UpdateProduct(context.Background(), existing.ID.String(), ProductRequest{
		Name:  "Keten Gömlek Slim",
		Price: "59.90",
		Stock: 8,
	})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, updated.ID)
	assert.Equal(t, "products/img_old.jpg", updated.ImageKey, "update must not drop the image")
	assert.Equal(t, "https://cdn.example.com/products/img_old.jpg", updated.ImageURL)
}

func TestDeleteProductRemovesImage(t *testing.T) {
	repo := newFakeCatalogRepo()
	store := newFakeStore()
	p := seedProduct(repo, "Keten Gömlek", "50.00", 10, "products/img_1.jpg")
	svc := NewService(repo, store)

	require.NoError(t, svc.DeleteProduct(context.Background(), p.ID.String()))
	assert.NotContains(t, repo.products, p.ID.String())
	assert.Equal(t, []string{"products/img_1.jpg"}, store.deleted)
}

func TestUploadProductImageReplacesOldObject(t *testing.T) {
	repo := newFakeCatalogRepo()
	store := newFakeStore()
	p := seedProduct(repo, "Keten Gömlek", "50.00", 10, "products/img_old.png")
	svc := NewService(repo, store)

	body := strings.NewReader("fake image bytes")
	updated, err := svc.UploadProductImage(context.Background(), p.ID.String(), body, int64(body.Len()), "photo.PNG", "image/png")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(updated.ImageKey, "products/img_"), "key %s", updated.ImageKey)
	assert.True(t, strings.HasSuffix(updated.ImageKey, ".png"), "extension is lowercased: %s", updated.ImageKey)
	assert.NotEqual(t, "products/img_old.png", updated.ImageKey)
	assert.Equal(t, "https://cdn.example.com/"+updated.ImageKey, updated.ImageURL)

	assert.Equal(t, updated.ImageKey, repo.products[p.ID.String()].ImageKey)
	assert.Equal(t, []string{"products/img_old.png"}, store.deleted)
}

func TestUploadProductImageDeleteFailureIsBestEffort(t *testing.T) {
	repo := newFakeCatalogRepo()
	store := newFakeStore()
	store.delErr = fmt.Errorf("object lock")
	p := seedProduct(repo, "Keten Gömlek", "50.00", 10, "products/img_old.png")
	svc := NewService(repo, store)

	body := strings.NewReader("fake image bytes")
	_, err := svc.UploadProductImage(context.Background(), p.ID.String(), body, int64(body.Len()), "photo.jpg", "image/jpeg")
	require.NoError(t, err, "a failed delete of the replaced object must not fail the upload")
}

func TestUploadProductImageDefaultsExtension(t *testing.T) {
	repo := newFakeCatalogRepo()
	p := seedProduct(repo, "Keten Gömlek", "50.00", 10, "")
	svc := NewService(repo, newFakeStore())

	body := strings.NewReader("fake image bytes")
	updated, err := svc.UploadProductImage(context.Background(), p.ID.String(), body, int64(body.Len()), "noextension", "image/jpeg")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(updated.ImageKey, ".jpg"))
}

func TestCreateCategory(t *testing.T) {
	repo := newFakeCatalogRepo()
	svc := NewService(repo, newFakeStore())

	c, err := svc.CreateCategory(context.Background(), "  Gömlek  ")
	require.NoError(t, err)
	assert.Equal(t, "Gömlek", c.Name)
	assert.Contains(t, repo.categories, c.ID.String())

	_, err = svc.CreateCategory(context.Background(), "   ")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
