package services

import (
	"time"
)

// ShopContext carries the shop-local inputs of a shop product seed.
type ShopContext struct {
	ShopProductID string
	ShopID        string
	CitySlug      string
	Price         int64
	Available     int
	Now           time.Time
}

// ToFacet derives the search/filter projection of a summary. Pure and total:
// same summary in, identical facet out, no I/O and no hidden state.
func ToFacet(summary ProductSummary) ProductFacet {
	facet := ProductFacet{
		ID:               summary.ID,
		Slug:             summary.Slug,
		ItemID:           summary.ItemID,
		RubricID:         summary.Rubric.ID,
		RubricSlug:       summary.Rubric.Slug,
		BrandSlug:        summary.BrandSlug,
		ManufacturerSlug: summary.ManufacturerSlug,
		CollectionSlug:   summary.CollectionSlug,
		Active:           summary.Active,
		AllowDelivery:    summary.AllowDelivery,
	}
	if len(summary.Categories) > 0 {
		facet.CategorySlugs = make([]string, 0, len(summary.Categories))
		for _, category := range summary.Categories {
			facet.CategorySlugs = append(facet.CategorySlugs, category.Slug)
		}
	}
	if len(summary.Attributes) > 0 {
		facet.AttributeIDs = make([]string, 0, len(summary.Attributes))
		for _, attr := range summary.Attributes {
			facet.AttributeIDs = append(facet.AttributeIDs, attr.AttributeID)
		}
	}
	if len(summary.Barcode) > 0 {
		facet.Barcode = append([]string(nil), summary.Barcode...)
	}
	return facet
}

// ToShopProductSeed derives the inventory row created when a product joins a
// shop's assortment. The row starts with the product's canonical barcodes;
// shops may extend them later with shop-local codes.
func ToShopProductSeed(summary ProductSummary, shop ShopContext) ShopProduct {
	seed := ShopProduct{
		ID:        shop.ShopProductID,
		ShopID:    shop.ShopID,
		ProductID: summary.ID,
		CitySlug:  shop.CitySlug,
		Price:     shop.Price,
		Available: shop.Available,
		CreatedAt: shop.Now.UTC(),
		UpdatedAt: shop.Now.UTC(),
	}
	if len(summary.Barcode) > 0 {
		seed.Barcode = append([]string(nil), summary.Barcode...)
	}
	return seed
}
