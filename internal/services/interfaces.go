package services

import (
	"context"
	"time"

	domain "github.com/sixnames/next-marketplace-sub004/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	LocalizedText             = domain.LocalizedText
	Product                   = domain.Product
	ProductSummary            = domain.ProductSummary
	ProductAttribute          = domain.ProductAttribute
	ProductAttributeRef       = domain.ProductAttributeRef
	ProductVariantGroup       = domain.ProductVariantGroup
	ProductVariantItem        = domain.ProductVariantItem
	ConnectionGroup           = domain.ConnectionGroup
	ConnectionItem            = domain.ConnectionItem
	ProductFacet              = domain.ProductFacet
	ShopProduct               = domain.ShopProduct
	BarcodeDoubles            = domain.BarcodeDoubles
	ShopProductBarcodeDoubles = domain.ShopProductBarcodeDoubles
	Task                      = domain.Task
	TaskLogEntry              = domain.TaskLogEntry
	TaskState                 = domain.TaskState
)

// SummaryQuery carries the inputs of one summary assembly.
type SummaryQuery struct {
	ProductID        string
	Locale           string
	CompanySlug      string
	TaskID           string
	IsContentManager bool
}

// SummaryService assembles denormalized, locale-resolved product summaries.
type SummaryService interface {
	Assemble(ctx context.Context, productID, locale, companySlug string) (ProductSummary, error)
	// AssemblePreview assembles from a caller-supplied record instead of the
	// stored one, so proposed edits can be rendered before they are persisted.
	AssemblePreview(ctx context.Context, product Product, locale, companySlug string) (ProductSummary, error)
	AssembleWithDraft(ctx context.Context, query SummaryQuery) (ProductSummary, error)
	RegisterCardView(ctx context.Context, productID, companySlug string) error
}

// BarcodeService detects barcode collisions before inventory writes commit.
type BarcodeService interface {
	DetectCatalogDoubles(ctx context.Context, barcodes []string, excludeProductID string) ([]BarcodeDoubles, error)
	DetectShopDoubles(ctx context.Context, shopID string, barcodes []string, excludeShopProductID string) ([]ShopProductBarcodeDoubles, error)
}

// UpsertProductCommand carries the inputs of a catalog product write.
type UpsertProductCommand struct {
	Product domain.Product
}

// CreateShopProductCommand attaches an assembled product to a shop's inventory.
type CreateShopProductCommand struct {
	ShopID    string
	ProductID string
	CitySlug  string
	Price     int64
	Available int
	Barcode   []string
}

// CatalogService owns the catalog write path, running the barcode collision
// gate before any write commits.
type CatalogService interface {
	UpsertProduct(ctx context.Context, cmd UpsertProductCommand) (Product, error)
	CreateShopProduct(ctx context.Context, cmd CreateShopProductCommand) (ShopProduct, error)
}

// CreateTaskCommand opens a moderation task for a product.
type CreateTaskCommand struct {
	ProductID string
}

// DraftEdit carries the proposed changes a draft applies on top of the live
// record before its snapshot is assembled. Nil fields leave the record
// untouched, so an empty edit snapshots the canonical state.
type DraftEdit struct {
	CardTitleI18n    LocalizedText
	SnippetTitleI18n LocalizedText
	Attributes       []ProductAttributeRef
}

// SaveDraftCommand appends one draft snapshot to a task's log.
type SaveDraftCommand struct {
	TaskID    string
	Locale    string
	CreatedBy string
	Edit      DraftEdit
}

// ModerationService owns the content moderation workflow: task lifecycle and
// the append-only draft log the summary overlay reads from.
type ModerationService interface {
	CreateTask(ctx context.Context, cmd CreateTaskCommand) (Task, error)
	SaveDraft(ctx context.Context, cmd SaveDraftCommand) (Task, error)
}

// TaskEventMessage is the payload published when a moderation task changes.
type TaskEventMessage struct {
	TaskID     string    `json:"taskId"`
	ProductID  string    `json:"productId"`
	Event      string    `json:"event"`
	State      string    `json:"state"`
	CreatedBy  string    `json:"createdBy,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// TaskEventPublisher delivers task events to the asynchronous moderation
// plumbing. Delivery semantics are the publisher's concern.
type TaskEventPublisher interface {
	PublishTaskEvent(ctx context.Context, message TaskEventMessage) (string, error)
}
