package firestore

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"

	domain "github.com/sixnames/next-marketplace-sub004/internal/domain"
	pfirestore "github.com/sixnames/next-marketplace-sub004/internal/platform/firestore"
)

const shopProductsCollection = "shopProducts"

// ShopRepository is the Firestore implementation of repositories.ShopRepository.
type ShopRepository struct {
	shopProducts *pfirestore.Collection[shopProductDocument]
}

// NewShopRepository binds the shop inventory collection to the shared provider.
func NewShopRepository(provider *pfirestore.Provider) (*ShopRepository, error) {
	if provider == nil {
		return nil, errors.New("shop repository requires firestore provider")
	}
	return &ShopRepository{
		shopProducts: pfirestore.NewCollection[shopProductDocument](provider, shopProductsCollection),
	}, nil
}

// FindShopProductByID fetches a single shop inventory row.
func (r *ShopRepository) FindShopProductByID(ctx context.Context, shopProductID string) (domain.ShopProduct, error) {
	doc, err := r.shopProducts.Get(ctx, shopProductID)
	if err != nil {
		return domain.ShopProduct{}, err
	}
	return doc.toDomain(shopProductID), nil
}

// FindShopProductsByBarcodes returns the shop's inventory rows carrying at
// least one of the given barcodes, deduplicated by row ID.
func (r *ShopRepository) FindShopProductsByBarcodes(ctx context.Context, shopID string, barcodes []string) ([]domain.ShopProduct, error) {
	shopID = strings.TrimSpace(shopID)
	if shopID == "" {
		return nil, errors.New("shop products: shop id is required")
	}
	values := dedupeNonEmpty(barcodes)
	if len(values) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{})
	var out []domain.ShopProduct
	for _, chunk := range chunkStrings(values, maxDisjunctionValues) {
		chunk := chunk
		docs, err := r.shopProducts.Query(ctx, func(q firestore.Query) firestore.Query {
			return q.Where("shopId", "==", shopID).Where("barcode", "array-contains-any", chunk)
		})
		if err != nil {
			return nil, err
		}
		for _, doc := range docs {
			if _, ok := seen[doc.ID]; ok {
				continue
			}
			seen[doc.ID] = struct{}{}
			out = append(out, doc.Data.toDomain(doc.ID))
		}
	}
	return out, nil
}

// CreateShopProduct inserts a new inventory row, failing on an existing ID.
func (r *ShopRepository) CreateShopProduct(ctx context.Context, shopProduct domain.ShopProduct) error {
	if strings.TrimSpace(shopProduct.ID) == "" {
		return errors.New("shop products: id is required")
	}
	return r.shopProducts.Create(ctx, shopProduct.ID, newShopProductDocument(shopProduct))
}
