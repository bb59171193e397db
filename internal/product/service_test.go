package product

import (
	"context"
	"testing"

	"watchshop-be/internal/apperr"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) List(ctx context.Context, opts ListOptions) ([]*Product, int, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*Product), args.Int(1), args.Error(2)
}

func (m *MockRepository) Get(ctx context.Context, id int64) (*Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Product), args.Error(1)
}

func (m *MockRepository) Create(ctx context.Context, p *Product) (int64, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, p *Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepository) FetchVariants(ctx context.Context, productIDs []int64) (map[int64][]*Variant, error) {
	args := m.Called(ctx, productIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64][]*Variant), args.Error(1)
}

func (m *MockRepository) AddVariant(ctx context.Context, v *Variant) (int64, error) {
	args := m.Called(ctx, v)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) UpdateVariant(ctx context.Context, v *Variant) error {
	return m.Called(ctx, v).Error(0)
}

func (m *MockRepository) DeleteVariant(ctx context.Context, productID, variantID int64) error {
	return m.Called(ctx, productID, variantID).Error(0)
}

func (m *MockRepository) ListReviews(ctx context.Context, productID int64) ([]*Review, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Review), args.Error(1)
}

func (m *MockRepository) AddReview(ctx context.Context, r *Review) (int64, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(int64), args.Error(1)
}

// --- Tests ---

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestService_List(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		in        ListOptions
		wantPage  int
		wantLimit int
	}{
		{"Defaults", ListOptions{}, 1, 20},
		{"Clamped limit", ListOptions{Page: 3, Limit: 500}, 3, 100},
		{"Custom", ListOptions{Page: 2, Limit: 5, Brand: " Seiko "}, 2, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			svc := NewService(repo)

			repo.On("List", ctx, mock.MatchedBy(func(o ListOptions) bool {
				return o.Page == tt.wantPage && o.Limit == tt.wantLimit && (o.Brand == "" || o.Brand == "Seiko")
			})).Return([]*Product{{ID: 1}}, 41, nil)

			res, err := svc.List(ctx, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, res.Page)
			assert.Equal(t, tt.wantLimit, res.Limit)
			assert.Equal(t, 41, res.Total)
			assert.Len(t, res.Items, 1)
		})
	}
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	valid := ProductInput{
		Brand:    "Seiko",
		Name:     " Presage ",
		Price:    dec("420"),
		Features: []string{"Automatic", " ", "Sapphire"},
		Category: "dress",
		Variants: []VariantInput{{ColorName: "Blue", ColorCode: "#0000ff", Stock: 3, PriceDelta: dec("-20")}},
	}

	t.Run("Success", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo)

		repo.On("Create", ctx, mock.MatchedBy(func(p *Product) bool {
			return p.Name == "Presage" && len(p.Features) == 2 && len(p.Variants) == 1
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*Product).ID = 9
		}).Return(int64(9), nil)

		p, err := svc.Create(ctx, valid)
		require.NoError(t, err)
		assert.Equal(t, int64(9), p.ID)
		assert.Equal(t, []string{"Automatic", "Sapphire"}, p.Features)
		assert.True(t, p.Variants[0].PriceDelta.Equal(dec("-20")))
	})

	cases := []struct {
		name   string
		mutate func(in *ProductInput)
		want   error
	}{
		{"No name", func(in *ProductInput) { in.Name = "" }, ErrNameRequired},
		{"No brand", func(in *ProductInput) { in.Brand = " " }, ErrBrandRequired},
		{"Negative price", func(in *ProductInput) { in.Price = dec("-1") }, ErrInvalidPrice},
		{"Negative stock", func(in *ProductInput) {
			in.Variants = []VariantInput{{ColorName: "Red", Stock: -1}}
		}, ErrInvalidStock},
		{"Variant without color", func(in *ProductInput) {
			in.Variants = []VariantInput{{Stock: 1}}
		}, ErrColorRequired},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := new(MockRepository)
			svc := NewService(repo)

			in := valid
			tc.mutate(&in)

			_, err := svc.Create(ctx, in)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	svc := NewService(repo)

	repo.On("Update", ctx, mock.MatchedBy(func(p *Product) bool { return p.ID == 4 })).Return(nil)
	repo.On("Get", ctx, int64(4)).Return(&Product{ID: 4, Name: "Speedmaster"}, nil)

	p, err := svc.Update(ctx, 4, ProductInput{Brand: "Omega", Name: "Speedmaster", Price: dec("5000")})
	require.NoError(t, err)
	assert.Equal(t, "Speedmaster", p.Name)

	repo.On("Update", ctx, mock.MatchedBy(func(p *Product) bool { return p.ID == 5 })).Return(ErrProductNotFound)
	_, err = svc.Update(ctx, 5, ProductInput{Brand: "Omega", Name: "Seamaster", Price: dec("4000")})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestService_Variants(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	svc := NewService(repo)

	repo.On("AddVariant", ctx, mock.MatchedBy(func(v *Variant) bool {
		return v.ProductID == 1 && v.ColorName == "Green"
	})).Return(int64(3), nil)

	_, err := svc.AddVariant(ctx, 1, VariantInput{ColorName: "Green", Stock: 2})
	require.NoError(t, err)

	_, err = svc.AddVariant(ctx, 1, VariantInput{ColorName: "Green", Stock: -2})
	assert.ErrorIs(t, err, ErrInvalidStock)

	repo.On("UpdateVariant", ctx, mock.MatchedBy(func(v *Variant) bool { return v.ID == 3 && v.ProductID == 1 })).Return(nil)
	v, err := svc.UpdateVariant(ctx, 1, 3, VariantInput{ColorName: "Green", Stock: 0})
	require.NoError(t, err)
	assert.Equal(t, 0, v.Stock)

	repo.On("DeleteVariant", ctx, int64(1), int64(8)).Return(ErrVariantNotFound)
	assert.ErrorIs(t, svc.DeleteVariant(ctx, 1, 8), ErrVariantNotFound)
}

func TestService_AddReview(t *testing.T) {
	ctx := context.Background()

	for _, rating := range []int{0, 6, -1} {
		svc := NewService(new(MockRepository))
		_, err := svc.AddReview(ctx, 1, ReviewInput{Author: "Ada", Rating: rating})
		assert.ErrorIs(t, err, ErrInvalidRating)
	}

	svc := NewService(new(MockRepository))
	_, err := svc.AddReview(ctx, 1, ReviewInput{Author: " ", Rating: 4})
	assert.ErrorIs(t, err, ErrAuthorRequired)

	repo := new(MockRepository)
	svc = NewService(repo)
	repo.On("AddReview", ctx, mock.MatchedBy(func(r *Review) bool {
		return r.ProductID == 2 && r.Rating == 5 && r.Author == "Ada"
	})).Return(int64(1), nil)

	rv, err := svc.AddReview(ctx, 2, ReviewInput{Author: "Ada", Rating: 5, Comment: " lovely "})
	require.NoError(t, err)
	assert.Equal(t, "lovely", rv.Comment)
}
