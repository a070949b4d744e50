package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Kariqs/smart-inventory/models"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeImageStore struct {
	key         string
	contentType string
	body        []byte
	err         error
}

func (f *fakeImageStore) Upload(_ context.Context, key, contentType string, body io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.key, f.contentType, f.body = key, contentType, data
	return "https://bucket.example.com/" + key, nil
}

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func names(listings []ProductListing) []string {
	out := make([]string, 0, len(listings))
	for _, l := range listings {
		out = append(out, l.Name)
	}
	return out
}

func TestSearchFilters(t *testing.T) {
	db := newTestDB(t)
	electronics := seedCategory(t, db, "Electronics")
	clothing := seedCategory(t, db, "Clothing")
	seedProduct(t, db, electronics.ID, "Laptop", "999.99", 15, 5)
	seedProduct(t, db, electronics.ID, "Smartphone", "699.99", 8, 8)
	seedProduct(t, db, clothing.ID, "T-Shirt", "19.99", 100, 20)
	seedProduct(t, db, clothing.ID, "Jeans", "49.99", 3, 10)

	svc := NewProductService(db, zerolog.Nop(), nil)
	electronicsID := electronics.ID

	tests := []struct {
		name   string
		filter ProductFilter
		want   []string
	}{
		{"no filter", ProductFilter{}, []string{"Laptop", "Smartphone", "T-Shirt", "Jeans"}},
		{"name substring", ProductFilter{SearchString: "phone"}, []string{"Smartphone"}},
		{"category", ProductFilter{CategoryID: &electronicsID}, []string{"Laptop", "Smartphone"}},
		{"min price", ProductFilter{MinPrice: price("50")}, []string{"Laptop", "Smartphone"}},
		{"max price", ProductFilter{MaxPrice: price("49.99")}, []string{"T-Shirt", "Jeans"}},
		{"price range", ProductFilter{MinPrice: price("20"), MaxPrice: price("700")}, []string{"Smartphone", "Jeans"}},
		{"low stock", ProductFilter{LowStockOnly: true}, []string{"Smartphone", "Jeans"}},
		{"combined", ProductFilter{CategoryID: &electronicsID, LowStockOnly: true}, []string{"Smartphone"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Search(bg, tt.filter)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, names(got))
		})
	}
}

func TestSearchMatchesWildcardsLiterally(t *testing.T) {
	db := newTestDB(t)
	home := seedCategory(t, db, "Home")
	seedProduct(t, db, home.ID, "100% Cotton Shirt", "19.99", 10, 2)
	seedProduct(t, db, home.ID, "1000 Thread Sheets", "89.99", 10, 2)
	seedProduct(t, db, home.ID, "USB_C Cable", "9.99", 10, 2)
	seedProduct(t, db, home.ID, "USB-C Hub", "29.99", 10, 2)
	seedProduct(t, db, home.ID, "Sale! Mug", "4.99", 10, 2)

	svc := NewProductService(db, zerolog.Nop(), nil)
	for search, want := range map[string][]string{
		"100%":  {"100% Cotton Shirt"},
		"USB_C": {"USB_C Cable"},
		"e!":    {"Sale! Mug"},
	} {
		got, err := svc.Search(bg, ProductFilter{SearchString: search})
		require.NoError(t, err)
		assert.ElementsMatch(t, want, names(got), search)
	}
}

func TestSearchAttachesCategory(t *testing.T) {
	db := newTestDB(t)
	electronics := seedCategory(t, db, "Electronics")
	seedProduct(t, db, electronics.ID, "Laptop", "999.99", 15, 5)

	got, err := NewProductService(db, zerolog.Nop(), nil).Search(bg, ProductFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Category)
	assert.Equal(t, "Electronics", got[0].Category.Name)
}

func TestSearchRejectsBadPriceRangeWithoutStore(t *testing.T) {
	svc := NewProductService(nil, zerolog.Nop(), nil)

	tests := []struct {
		name   string
		filter ProductFilter
		want   string
	}{
		{"min above max", ProductFilter{MinPrice: price("10"), MaxPrice: price("5")}, "Maximum price cannot be less than minimum price."},
		{"negative min", ProductFilter{MinPrice: price("-1")}, "Minimum price cannot be negative."},
		{"negative max", ProductFilter{MaxPrice: price("-1")}, "Maximum price cannot be negative."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Search(bg, tt.filter)
			require.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, ValidationMessages(err), tt.want)
		})
	}
}

func TestProductCreateAndValidate(t *testing.T) {
	db := newTestDB(t)
	category := seedCategory(t, db, "Books")
	svc := NewProductService(db, zerolog.Nop(), nil)

	product := &models.Product{Name: "  Go Book ", Price: decimal.RequireFromString("39.99"), QuantityInStock: 30, LowStockThreshold: 5, CategoryID: category.ID}
	assert.ErrorIs(t, svc.Create(bg, models.Anonymous, product), ErrForbidden)
	require.NoError(t, svc.Create(bg, admin, product))
	assert.NotZero(t, product.ID)
	assert.Equal(t, "Go Book", reloadProduct(t, db, product.ID).Name)

	invalid := &models.Product{Name: "", Price: decimal.Zero, QuantityInStock: -1, CategoryID: 999}
	err := svc.Create(bg, admin, invalid)
	require.ErrorIs(t, err, ErrValidation)
	msgs := ValidationMessages(err)
	assert.Contains(t, msgs, "Name is required")
	assert.Contains(t, msgs, "Price must be greater than 0")
	assert.Contains(t, msgs, "Quantity in stock cannot be negative")
	assert.Contains(t, msgs, "Category with ID 999 does not exist.")
}

func TestProductCreateIgnoresCallerRecordFields(t *testing.T) {
	db := newTestDB(t)
	category := seedCategory(t, db, "Books")
	svc := NewProductService(db, zerolog.Nop(), nil)

	product := &models.Product{Name: "Go Book", Price: decimal.RequireFromString("39.99"), QuantityInStock: 3, CategoryID: category.ID}
	product.ID = 77
	product.ImageURL = "https://elsewhere.example/cover.png"
	product.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	require.NoError(t, svc.Create(bg, admin, product))

	found, err := svc.GetByID(bg, product.ID)
	require.NoError(t, err)
	assert.NotEqual(t, uint(77), found.ID)
	assert.Empty(t, found.ImageURL)
}

func TestProductUpdateDetectsStaleVersion(t *testing.T) {
	db := newTestDB(t)
	category := seedCategory(t, db, "Books")
	seeded := seedProduct(t, db, category.ID, "Book", "10.00", 5, 1)
	svc := NewProductService(db, zerolog.Nop(), nil)

	first := reloadProduct(t, db, seeded.ID)
	second := reloadProduct(t, db, seeded.ID)

	first.Price = decimal.RequireFromString("12.00")
	require.NoError(t, svc.Update(bg, admin, &first))
	assert.EqualValues(t, 1, first.Version)

	second.QuantityInStock = 50
	assert.ErrorIs(t, svc.Update(bg, admin, &second), ErrConcurrencyConflict)

	stored := reloadProduct(t, db, seeded.ID)
	assert.Equal(t, "12.00", stored.Price.StringFixed(2))
	assert.Equal(t, 5, stored.QuantityInStock)

	missing := first
	missing.ID = 999
	assert.ErrorIs(t, svc.Update(bg, admin, &missing), ErrNotFound)
}

func TestOrderBumpsVersionSeenByEditor(t *testing.T) {
	db := newTestDB(t)
	category := seedCategory(t, db, "Books")
	seeded := seedProduct(t, db, category.ID, "Book", "10.00", 5, 1)
	products := NewProductService(db, zerolog.Nop(), nil)
	orders := NewOrderService(db, zerolog.Nop(), false)

	editing := reloadProduct(t, db, seeded.ID)
	_, err := orders.CreateOrder(bg, guestOrder(line(seeded.ID, 1)))
	require.NoError(t, err)

	editing.QuantityInStock = 100
	assert.ErrorIs(t, products.Update(bg, admin, &editing), ErrConcurrencyConflict)
	assert.Equal(t, 4, reloadProduct(t, db, seeded.ID).QuantityInStock)
}

func TestProductDelete(t *testing.T) {
	db := newTestDB(t)
	category := seedCategory(t, db, "Books")
	product := seedProduct(t, db, category.ID, "Book", "10.00", 5, 1)
	svc := NewProductService(db, zerolog.Nop(), nil)

	assert.ErrorIs(t, svc.Delete(bg, models.Anonymous, product.ID), ErrForbidden)
	require.NoError(t, svc.Delete(bg, admin, product.ID))
	assert.ErrorIs(t, svc.Delete(bg, admin, product.ID), ErrNotFound)

	_, err := svc.GetByID(bg, product.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUploadImage(t *testing.T) {
	db := newTestDB(t)
	category := seedCategory(t, db, "Books")
	product := seedProduct(t, db, category.ID, "Book", "10.00", 5, 1)

	_, err := NewProductService(db, zerolog.Nop(), nil).UploadImage(bg, admin, product.ID, "cover.png", "image/png", strings.NewReader("png"))
	assert.ErrorIs(t, err, ErrImagesDisabled)

	store := &fakeImageStore{}
	svc := NewProductService(db, zerolog.Nop(), store)

	_, err = svc.UploadImage(bg, models.Anonymous, product.ID, "cover.png", "image/png", strings.NewReader("png"))
	assert.ErrorIs(t, err, ErrForbidden)

	url, err := svc.UploadImage(bg, admin, product.ID, "../cover.png", "image/png", bytes.NewReader([]byte("png-bytes")))
	require.NoError(t, err)
	assert.Regexp(t, `^products/\d+/\d{14}-cover\.png$`, store.key)
	assert.Equal(t, "image/png", store.contentType)
	assert.Equal(t, []byte("png-bytes"), store.body)
	assert.Equal(t, url, reloadProduct(t, db, product.ID).ImageURL)

	store.err = errors.New("s3 down")
	_, err = svc.UploadImage(bg, admin, product.ID, "cover.png", "image/png", strings.NewReader("png"))
	assert.Error(t, err)
	assert.Equal(t, url, reloadProduct(t, db, product.ID).ImageURL)

	_, err = svc.UploadImage(bg, admin, 999, "cover.png", "image/png", strings.NewReader("png"))
	assert.ErrorIs(t, err, ErrNotFound)
}
