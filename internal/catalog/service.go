package catalog

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/wovenshop/storefront/internal/cart"
)

// Repository is the persistence surface the catalog service depends on.
type Repository interface {
	GetStore(ctx context.Context, storeID string) (Store, error)
	GetProduct(ctx context.Context, storeID, idOrSlug string) (Product, error)
	ListProducts(ctx context.Context, storeID string) ([]Product, error)
	CreateProduct(ctx context.Context, p Product) (Product, error)
	UpdateProduct(ctx context.Context, p Product) (Product, error)
	AdjustStock(ctx context.Context, storeID, productID string, delta int) error
	ListLowStock(ctx context.Context) ([]Product, error)
}

// Service provides catalog reads for shoppers and writes for sellers, with a
// read-through Redis cache on the listing path.
type Service struct {
	Repo   Repository
	Cache  *Cache
	Logger *zerolog.Logger
}

// List returns the store catalog, served from cache when possible.
func (s *Service) List(ctx context.Context, storeID string) ([]Product, error) {
	if s.Cache != nil {
		products, ok, err := s.Cache.GetList(ctx, storeID)
		if err != nil {
			s.logWarn(err, "catalog cache read failed")
		} else if ok {
			return products, nil
		}
	}
	products, err := s.Repo.ListProducts(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if s.Cache != nil {
		if err := s.Cache.SetList(ctx, storeID, products); err != nil {
			s.logWarn(err, "catalog cache write failed")
		}
	}
	return products, nil
}

// Get fetches a single product by id or slug.
func (s *Service) Get(ctx context.Context, storeID, idOrSlug string) (Product, error) {
	return s.Repo.GetProduct(ctx, storeID, idOrSlug)
}

// Create inserts a product and invalidates the store's cached listing.
func (s *Service) Create(ctx context.Context, p Product) (Product, error) {
	if p.Slug == "" {
		p.Slug = Slugify(p.Name)
	}
	created, err := s.Repo.CreateProduct(ctx, p)
	if err != nil {
		return Product{}, err
	}
	s.invalidate(ctx, p.StoreID)
	return created, nil
}

// Update replaces a product and invalidates the store's cached listing.
func (s *Service) Update(ctx context.Context, p Product) (Product, error) {
	if p.Slug == "" {
		p.Slug = Slugify(p.Name)
	}
	updated, err := s.Repo.UpdateProduct(ctx, p)
	if err != nil {
		return Product{}, err
	}
	s.invalidate(ctx, p.StoreID)
	return updated, nil
}

// AdjustStock applies a stock delta, typically negative after checkout.
func (s *Service) AdjustStock(ctx context.Context, storeID, productID string, delta int) error {
	if err := s.Repo.AdjustStock(ctx, storeID, productID, delta); err != nil {
		return err
	}
	s.invalidate(ctx, storeID)
	return nil
}

// ProductLine snapshots a product into a cart line for the requested variant
// selection. It satisfies the cart package's product provider.
func (s *Service) ProductLine(ctx context.Context, storeID, productID string, variant map[string]string) (cart.Line, error) {
	p, err := s.Repo.GetProduct(ctx, storeID, productID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return cart.Line{}, cart.ErrProductNotFound
		}
		return cart.Line{}, err
	}
	if len(variant) > 0 && p.MatchVariant(variant) == nil {
		return cart.Line{}, cart.ErrProductNotFound
	}
	storeName := storeID
	if st, err := s.Repo.GetStore(ctx, storeID); err == nil {
		storeName = st.Name
	}
	createdAt := p.CreatedAt
	return cart.Line{
		ProductID:        p.ID,
		StoreID:          storeID,
		StoreName:        storeName,
		Name:             p.Name,
		UnitPrice:        p.UnitPrice(variant),
		Image:            p.Image,
		Variant:          variant,
		ProductCreatedAt: &createdAt,
	}, nil
}

func (s *Service) invalidate(ctx context.Context, storeID string) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(ctx, storeID); err != nil {
		s.logWarn(err, "catalog cache invalidation failed")
	}
}

func (s *Service) logWarn(err error, msg string) {
	if s.Logger != nil {
		s.Logger.Warn().Err(err).Msg(msg)
	}
}

// Slugify lowercases a name and collapses non-alphanumeric runs to hyphens.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
