package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/sixnames/next-marketplace-sub004/internal/domain"
	"github.com/sixnames/next-marketplace-sub004/internal/repositories"
)

// ErrBarcodeInvalidInput indicates a shop-scoped check was called without a shop.
var ErrBarcodeInvalidInput = errors.New("barcode service: invalid input")

// BarcodeServiceDeps bundles constructor inputs for the barcode service.
type BarcodeServiceDeps struct {
	Catalog repositories.CatalogRepository
	Shops   repositories.ShopRepository
}

type barcodeService struct {
	catalog repositories.CatalogRepository
	shops   repositories.ShopRepository
}

// NewBarcodeService constructs the barcode collision detector.
func NewBarcodeService(deps BarcodeServiceDeps) (BarcodeService, error) {
	if deps.Catalog == nil {
		return nil, fmt.Errorf("barcode service: catalog repository is required")
	}
	if deps.Shops == nil {
		return nil, fmt.Errorf("barcode service: shop repository is required")
	}
	return &barcodeService{catalog: deps.Catalog, shops: deps.Shops}, nil
}

// DetectCatalogDoubles finds, per input barcode, the other canonical products
// carrying it. An empty input returns nil without touching the repository;
// barcodes with no other holder are omitted; the excluded product never
// appears in the result even when it carries the barcode itself.
func (s *barcodeService) DetectCatalogDoubles(ctx context.Context, barcodes []string, excludeProductID string) ([]BarcodeDoubles, error) {
	values := normalizeBarcodes(barcodes)
	if len(values) == 0 {
		return nil, nil
	}

	hits, err := s.catalog.FindProductsByBarcodes(ctx, values)
	if err != nil {
		return nil, err
	}

	var out []BarcodeDoubles
	for _, barcode := range values {
		var holders []domain.Product
		for _, product := range hits {
			if product.ID == excludeProductID {
				continue
			}
			if containsString(product.Barcode, barcode) {
				holders = append(holders, product)
			}
		}
		if len(holders) == 0 {
			continue
		}
		out = append(out, BarcodeDoubles{Barcode: barcode, Products: holders})
	}
	return out, nil
}

// DetectShopDoubles is the shop-scoped variant: matches are restricted to the
// given shop's inventory rows and the exclusion is the inventory row's own
// id, not the underlying product id.
func (s *barcodeService) DetectShopDoubles(ctx context.Context, shopID string, barcodes []string, excludeShopProductID string) ([]ShopProductBarcodeDoubles, error) {
	if strings.TrimSpace(shopID) == "" {
		return nil, ErrBarcodeInvalidInput
	}
	values := normalizeBarcodes(barcodes)
	if len(values) == 0 {
		return nil, nil
	}

	hits, err := s.shops.FindShopProductsByBarcodes(ctx, shopID, values)
	if err != nil {
		return nil, err
	}

	var out []ShopProductBarcodeDoubles
	for _, barcode := range values {
		var holders []domain.ShopProduct
		for _, row := range hits {
			if row.ID == excludeShopProductID {
				continue
			}
			if containsString(row.Barcode, barcode) {
				holders = append(holders, row)
			}
		}
		if len(holders) == 0 {
			continue
		}
		out = append(out, ShopProductBarcodeDoubles{Barcode: barcode, ShopProducts: holders})
	}
	return out, nil
}

func normalizeBarcodes(barcodes []string) []string {
	seen := make(map[string]struct{}, len(barcodes))
	out := make([]string, 0, len(barcodes))
	for _, barcode := range barcodes {
		barcode = strings.TrimSpace(barcode)
		if barcode == "" {
			continue
		}
		if _, ok := seen[barcode]; ok {
			continue
		}
		seen[barcode] = struct{}{}
		out = append(out, barcode)
	}
	return out
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
