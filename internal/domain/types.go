package domain

import (
	"time"
)

// LocalizedText maps a lowercase locale code to a display string for that locale.
type LocalizedText map[string]string

// Get returns the string stored for the given locale, or "" when absent.
func (t LocalizedText) Get(locale string) string {
	if len(t) == 0 {
		return ""
	}
	return t[locale]
}

// Pagination defines standard cursor-based paging inputs for list operations.
type Pagination struct {
	PageSize  int
	PageToken string
}

// CursorPage packages list results with an encoded next token.
type CursorPage[T any] struct {
	Items         []T
	NextPageToken string
}

// CatalogRef is a slug-addressed taxonomy record (brand, manufacturer,
// collection, category) carrying its multi-locale display name.
type CatalogRef struct {
	ID       string
	Slug     string
	NameI18n LocalizedText
}

// Rubric is the top-level taxonomy node every product must belong to.
type Rubric struct {
	ID       string
	Slug     string
	NameI18n LocalizedText
}

// AttributeDef describes one taxonomy attribute (e.g. "volume", "color").
type AttributeDef struct {
	ID       string
	Slug     string
	NameI18n LocalizedText
	// Variant marks attributes usable as a variant axis.
	Variant bool
}

// Option is a selectable value of a select-typed attribute.
type Option struct {
	ID       string
	Slug     string
	NameI18n LocalizedText
	Color    string
}

// ProductAttributeRef binds an attribute to a product in storage. Exactly one
// of SelectedOptionIDs / TextI18n / Number carries the value depending on the
// attribute kind.
type ProductAttributeRef struct {
	AttributeID       string
	SelectedOptionIDs []string
	TextI18n          LocalizedText
	Number            *float64
}

// VariantPair links one sibling product to its option on a variant axis.
type VariantPair struct {
	ProductID string
	OptionID  string
}

// VariantAxis defines one variant (or connection) axis: the attribute that
// distinguishes the siblings plus the ordered sibling links.
type VariantAxis struct {
	AttributeID string
	Pairs       []VariantPair
}

// Product is the raw, normalized catalog record as persisted. Display names
// are stored as multi-locale maps; resolution happens at assembly time.
type Product struct {
	ID               string
	Slug             string
	ItemID           string
	CardTitleI18n    LocalizedText
	SnippetTitleI18n LocalizedText
	RubricID         string
	BrandSlug        string
	ManufacturerSlug string
	CollectionSlug   string
	CategorySlugs    []string
	Attributes       []ProductAttributeRef
	VariantAxes      []VariantAxis
	ConnectionAxes   []VariantAxis
	Barcode          []string
	Active           bool
	AllowDelivery    bool
	// Views counts card views per company context.
	Views     map[string]int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ResolvedRef is a taxonomy reference with its name resolved for one locale.
type ResolvedRef struct {
	ID   string
	Slug string
	Name string
}

// ResolvedOption is an option with its display name resolved for one locale.
type ResolvedOption struct {
	ID   string
	Slug string
	Name string
}

// ProductAttribute is a (attribute, value) pair bound to a summary, with the
// attribute's display name resolved for the active locale.
type ProductAttribute struct {
	AttributeID string
	Name        string
	Text        string
	Number      *float64
	Options     []ResolvedOption
}

// SummaryLite is the minimal sibling projection embedded in variant and
// connection groups.
type SummaryLite struct {
	ID        string
	Slug      string
	ItemID    string
	CardTitle string
}

// ProductVariantItem is one sibling on a variant axis.
type ProductVariantItem struct {
	Product   SummaryLite
	Option    ResolvedOption
	IsCurrent bool
}

// ProductVariantGroup is one variant axis: the defining attribute plus the
// ordered surviving siblings. At most one item has IsCurrent set, and if one
// does it sits at index 0.
type ProductVariantGroup struct {
	AttributeID string
	Name        string
	Items       []ProductVariantItem
}

// ConnectionItem is one sibling in a cross-sell connection group.
type ConnectionItem struct {
	Product SummaryLite
	Option  ResolvedOption
}

// ConnectionGroup is structurally a variant group without current-item
// semantics; sibling order follows the stored axis definition.
type ConnectionGroup struct {
	AttributeID string
	Name        string
	Items       []ConnectionItem
}

// ProductSummary is the denormalized, locale-resolved view of one product.
type ProductSummary struct {
	ID               string
	Slug             string
	ItemID           string
	CardTitle        string
	SnippetTitle     string
	Rubric           ResolvedRef
	BrandSlug        string
	ManufacturerSlug string
	CollectionSlug   string
	Categories       []ResolvedRef
	Attributes       []ProductAttribute
	Variants         []ProductVariantGroup
	Connections      []ConnectionGroup
	Barcode          []string
	Active           bool
	AllowDelivery    bool
	Views            int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ProductFacet is the minimal pure projection of a summary used by the
// search/filter indexer. It carries no state of its own and must always be
// re-derivable from its source summary.
type ProductFacet struct {
	ID               string
	Slug             string
	ItemID           string
	RubricID         string
	RubricSlug       string
	BrandSlug        string
	ManufacturerSlug string
	CollectionSlug   string
	CategorySlugs    []string
	AttributeIDs     []string
	Barcode          []string
	Active           bool
	AllowDelivery    bool
}

// ShopProduct is a per-shop inventory row wrapping a product reference with
// shop-local price, stock and its own barcodes.
type ShopProduct struct {
	ID        string
	ShopID    string
	ProductID string
	CitySlug  string
	Price     int64
	Available int
	Barcode   []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BarcodeDoubles maps one barcode value to the other catalog products that
// also carry it. Computed on demand, never persisted.
type BarcodeDoubles struct {
	Barcode  string
	Products []Product
}

// ShopProductBarcodeDoubles maps one barcode value to the other inventory
// rows of the same shop that also carry it.
type ShopProductBarcodeDoubles struct {
	Barcode      string
	ShopProducts []ShopProduct
}

// TaskState enumerates moderation task lifecycle states.
type TaskState string

const (
	// TaskStatePending indicates the task awaits moderation.
	TaskStatePending TaskState = "pending"
	// TaskStateInProgress indicates a content manager is editing.
	TaskStateInProgress TaskState = "in_progress"
	// TaskStateDone indicates the draft was approved and applied.
	TaskStateDone TaskState = "done"
)

// TaskLogEntry is one append-only record in a moderation task. Draft, when
// set, is a complete summary snapshot produced by the assembly pipeline at
// save time.
type TaskLogEntry struct {
	ID        string
	Draft     *ProductSummary
	CreatedBy string
	CreatedAt time.Time
}

// Task is the moderation workflow record for an in-flight content edit. Log
// entries are append-only; earlier entries are never mutated.
type Task struct {
	ID        string
	ProductID string
	State     TaskState
	Log       []TaskLogEntry
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LastDraft returns the draft snapshot of the newest log entry, or nil when
// the log is empty or the newest entry carries no snapshot.
func (t Task) LastDraft() *ProductSummary {
	if len(t.Log) == 0 {
		return nil
	}
	return t.Log[len(t.Log)-1].Draft
}
