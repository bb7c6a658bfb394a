package repositories

import (
	"context"

	domain "github.com/sixnames/next-marketplace-sub004/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// CatalogRepository persists products, rubrics and the taxonomy dictionaries
// referenced from product attribute selections.
type CatalogRepository interface {
	FindProductByID(ctx context.Context, productID string) (domain.Product, error)
	FindProductBySlug(ctx context.Context, slug string) (domain.Product, error)
	FindProductsByIDs(ctx context.Context, productIDs []string) ([]domain.Product, error)
	FindProductsByBarcodes(ctx context.Context, barcodes []string) ([]domain.Product, error)
	UpsertProduct(ctx context.Context, product domain.Product) error
	IncrementProductViews(ctx context.Context, productID, companySlug string, delta int64) error

	FindRubricByID(ctx context.Context, rubricID string) (domain.Rubric, error)
	FindAttributesByIDs(ctx context.Context, attributeIDs []string) ([]domain.AttributeDef, error)
	FindOptionsByIDs(ctx context.Context, optionIDs []string) ([]domain.Option, error)
	FindBrandBySlug(ctx context.Context, slug string) (domain.CatalogRef, error)
	FindManufacturerBySlug(ctx context.Context, slug string) (domain.CatalogRef, error)
	FindCollectionBySlug(ctx context.Context, slug string) (domain.CatalogRef, error)
	FindCategoriesBySlugs(ctx context.Context, rubricID string, slugs []string) ([]domain.CatalogRef, error)
}

// ShopRepository persists per-shop product offers.
type ShopRepository interface {
	FindShopProductByID(ctx context.Context, shopProductID string) (domain.ShopProduct, error)
	FindShopProductsByBarcodes(ctx context.Context, shopID string, barcodes []string) ([]domain.ShopProduct, error)
	CreateShopProduct(ctx context.Context, shopProduct domain.ShopProduct) error
}

// TaskRepository persists moderation tasks and their draft log.
type TaskRepository interface {
	FindTaskByID(ctx context.Context, taskID string) (domain.Task, error)
	CreateTask(ctx context.Context, task domain.Task) error
	AppendLogEntry(ctx context.Context, taskID string, entry domain.TaskLogEntry, state domain.TaskState) (domain.Task, error)
}
