package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	domain "github.com/sixnames/next-marketplace-sub004/internal/domain"
	"github.com/sixnames/next-marketplace-sub004/internal/platform/i18n"
	"github.com/sixnames/next-marketplace-sub004/internal/platform/textutil"
	"github.com/sixnames/next-marketplace-sub004/internal/repositories"
)

var (
	// ErrCatalogInvalidInput indicates the caller supplied invalid data to a catalog mutation.
	ErrCatalogInvalidInput = errors.New("catalog service: invalid input")
	// ErrCatalogBarcodeCollision indicates the pre-write collision gate rejected the mutation.
	ErrCatalogBarcodeCollision = errors.New("catalog service: barcode collision")
	// ErrCatalogProductNotFound indicates the referenced product does not exist.
	ErrCatalogProductNotFound = errors.New("catalog service: product not found")
)

// CatalogServiceDeps bundles constructor inputs for the catalog write service.
type CatalogServiceDeps struct {
	Catalog  repositories.CatalogRepository
	Shops    repositories.ShopRepository
	Barcodes BarcodeService
	Summary  SummaryService
	Logger   *zap.Logger
	Clock    func() time.Time
}

type catalogService struct {
	catalog  repositories.CatalogRepository
	shops    repositories.ShopRepository
	barcodes BarcodeService
	summary  SummaryService
	logger   *zap.Logger
	clock    func() time.Time
}

// NewCatalogService constructs the catalog write service with the supplied dependencies.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Catalog == nil {
		return nil, fmt.Errorf("catalog service: catalog repository is required")
	}
	if deps.Shops == nil {
		return nil, fmt.Errorf("catalog service: shop repository is required")
	}
	if deps.Barcodes == nil {
		return nil, fmt.Errorf("catalog service: barcode service is required")
	}
	if deps.Summary == nil {
		return nil, fmt.Errorf("catalog service: summary service is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &catalogService{
		catalog:  deps.Catalog,
		shops:    deps.Shops,
		barcodes: deps.Barcodes,
		summary:  deps.Summary,
		logger:   logger,
		clock:    func() time.Time { return clock().UTC() },
	}, nil
}

// UpsertProduct validates and persists one catalog record. Duplicate
// attribute ids and duplicate sibling ids within a variant axis are data
// integrity violations and are rejected here, at the write boundary, so the
// read-side assembler never has to disambiguate them. The barcode collision
// gate runs before the write commits; a concurrent writer racing past it is
// caught by the storage uniqueness constraint, not here.
func (s *catalogService) UpsertProduct(ctx context.Context, cmd UpsertProductCommand) (Product, error) {
	product := cmd.Product
	now := s.clock()

	if err := validateProduct(&product); err != nil {
		return Product{}, err
	}

	if product.Slug == "" {
		product.Slug = slug.Make(firstNonEmpty(product.ItemID, slugSource(product.CardTitleI18n)))
	} else {
		product.Slug = slug.Make(product.Slug)
	}
	if product.Slug == "" {
		return Product{}, fmt.Errorf("%w: product slug cannot be derived", ErrCatalogInvalidInput)
	}

	if len(product.Barcode) > 0 {
		doubles, err := s.barcodes.DetectCatalogDoubles(ctx, product.Barcode, product.ID)
		if err != nil {
			return Product{}, err
		}
		if len(doubles) > 0 {
			return Product{}, fmt.Errorf("%w: barcode %q already in use", ErrCatalogBarcodeCollision, doubles[0].Barcode)
		}
	}

	s.clearUnknownRefs(ctx, &product)

	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	if err := s.catalog.UpsertProduct(ctx, product); err != nil {
		return Product{}, err
	}
	return product, nil
}

// CreateShopProduct attaches an assembled product to a shop's inventory. The
// inventory row is seeded from the canonical summary and gated by the
// shop-scoped collision check.
func (s *catalogService) CreateShopProduct(ctx context.Context, cmd CreateShopProductCommand) (ShopProduct, error) {
	if strings.TrimSpace(cmd.ShopID) == "" || strings.TrimSpace(cmd.ProductID) == "" {
		return ShopProduct{}, fmt.Errorf("%w: shop id and product id are required", ErrCatalogInvalidInput)
	}

	summary, err := s.summary.Assemble(ctx, cmd.ProductID, "", "")
	if err != nil {
		if errors.Is(err, ErrSummaryNotFound) {
			return ShopProduct{}, ErrCatalogProductNotFound
		}
		return ShopProduct{}, err
	}

	now := s.clock()
	seed := ToShopProductSeed(summary, ShopContext{
		ShopProductID: newID(now),
		ShopID:        cmd.ShopID,
		CitySlug:      cmd.CitySlug,
		Price:         cmd.Price,
		Available:     cmd.Available,
		Now:           now,
	})
	if len(cmd.Barcode) > 0 {
		seed.Barcode = mergeBarcodes(seed.Barcode, cmd.Barcode)
	}

	if len(seed.Barcode) > 0 {
		doubles, err := s.barcodes.DetectShopDoubles(ctx, seed.ShopID, seed.Barcode, seed.ID)
		if err != nil {
			return ShopProduct{}, err
		}
		if len(doubles) > 0 {
			return ShopProduct{}, fmt.Errorf("%w: barcode %q already in shop %s", ErrCatalogBarcodeCollision, doubles[0].Barcode, seed.ShopID)
		}
	}

	if err := s.shops.CreateShopProduct(ctx, seed); err != nil {
		return ShopProduct{}, err
	}
	return seed, nil
}

// clearUnknownRefs drops brand/manufacturer/collection slugs that do not
// resolve to live records. A product may legitimately have zero of each, so
// stale references degrade silently rather than failing the write.
func (s *catalogService) clearUnknownRefs(ctx context.Context, product *domain.Product) {
	if product.BrandSlug != "" {
		if _, err := s.catalog.FindBrandBySlug(ctx, product.BrandSlug); isRepoNotFound(err) {
			s.logger.Warn("unknown brand slug cleared", zap.String("productId", product.ID), zap.String("brandSlug", product.BrandSlug))
			product.BrandSlug = ""
		}
	}
	if product.ManufacturerSlug != "" {
		if _, err := s.catalog.FindManufacturerBySlug(ctx, product.ManufacturerSlug); isRepoNotFound(err) {
			s.logger.Warn("unknown manufacturer slug cleared", zap.String("productId", product.ID), zap.String("manufacturerSlug", product.ManufacturerSlug))
			product.ManufacturerSlug = ""
		}
	}
	if product.CollectionSlug != "" {
		if _, err := s.catalog.FindCollectionBySlug(ctx, product.CollectionSlug); isRepoNotFound(err) {
			s.logger.Warn("unknown collection slug cleared", zap.String("productId", product.ID), zap.String("collectionSlug", product.CollectionSlug))
			product.CollectionSlug = ""
		}
	}
}

func validateProduct(product *domain.Product) error {
	if strings.TrimSpace(product.ID) == "" {
		return fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}
	if strings.TrimSpace(product.RubricID) == "" {
		return fmt.Errorf("%w: rubric id is required", ErrCatalogInvalidInput)
	}
	product.CardTitleI18n = textutil.NormalizeLocalizedText(product.CardTitleI18n)
	product.SnippetTitleI18n = textutil.NormalizeLocalizedText(product.SnippetTitleI18n)
	if len(product.CardTitleI18n) == 0 {
		return fmt.Errorf("%w: card title is required", ErrCatalogInvalidInput)
	}

	seenAttrs := make(map[string]struct{}, len(product.Attributes))
	for i, attr := range product.Attributes {
		product.Attributes[i].TextI18n = textutil.NormalizeLocalizedText(attr.TextI18n)
		if _, ok := seenAttrs[attr.AttributeID]; ok {
			return fmt.Errorf("%w: duplicate attribute %s", ErrCatalogInvalidInput, attr.AttributeID)
		}
		seenAttrs[attr.AttributeID] = struct{}{}
	}

	for _, axes := range [][]domain.VariantAxis{product.VariantAxes, product.ConnectionAxes} {
		for _, axis := range axes {
			seenSiblings := make(map[string]struct{}, len(axis.Pairs))
			for _, pair := range axis.Pairs {
				if _, ok := seenSiblings[pair.ProductID]; ok {
					return fmt.Errorf("%w: duplicate sibling %s on axis %s", ErrCatalogInvalidInput, pair.ProductID, axis.AttributeID)
				}
				seenSiblings[pair.ProductID] = struct{}{}
			}
		}
	}

	product.Barcode = normalizeBarcodes(product.Barcode)
	return nil
}

func mergeBarcodes(base, extra []string) []string {
	merged := make([]string, 0, len(base)+len(extra))
	merged = append(merged, base...)
	merged = append(merged, extra...)
	return normalizeBarcodes(merged)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// slugSource picks a deterministic title for slug derivation: the storage
// locale when present, otherwise the lexically first locale's value.
func slugSource(titles domain.LocalizedText) string {
	if v := titles.Get(i18n.DefaultLocale); v != "" {
		return v
	}
	locales := make([]string, 0, len(titles))
	for locale := range titles {
		locales = append(locales, locale)
	}
	sort.Strings(locales)
	for _, locale := range locales {
		if v := strings.TrimSpace(titles[locale]); v != "" {
			return v
		}
	}
	return ""
}

func newID(now time.Time) string {
	return strings.ToLower(ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String())
}
