package firestore

import (
	"encoding/json"
	"fmt"
	"time"

	domain "github.com/sixnames/next-marketplace-sub004/internal/domain"
)

type rubricDocument struct {
	Slug     string            `firestore:"slug"`
	NameI18n map[string]string `firestore:"nameI18n"`
}

func (d rubricDocument) toDomain(id string) domain.Rubric {
	return domain.Rubric{ID: id, Slug: d.Slug, NameI18n: domain.LocalizedText(d.NameI18n)}
}

type attributeDocument struct {
	Slug     string            `firestore:"slug"`
	NameI18n map[string]string `firestore:"nameI18n"`
	Variant  bool              `firestore:"variant"`
}

func (d attributeDocument) toDomain(id string) domain.AttributeDef {
	return domain.AttributeDef{ID: id, Slug: d.Slug, NameI18n: domain.LocalizedText(d.NameI18n), Variant: d.Variant}
}

type optionDocument struct {
	Slug     string            `firestore:"slug"`
	NameI18n map[string]string `firestore:"nameI18n"`
	Color    string            `firestore:"color,omitempty"`
}

func (d optionDocument) toDomain(id string) domain.Option {
	return domain.Option{ID: id, Slug: d.Slug, NameI18n: domain.LocalizedText(d.NameI18n), Color: d.Color}
}

type catalogRefDocument struct {
	Slug     string            `firestore:"slug"`
	NameI18n map[string]string `firestore:"nameI18n"`
	RubricID string            `firestore:"rubricId,omitempty"`
}

func (d catalogRefDocument) toDomain(id string) domain.CatalogRef {
	return domain.CatalogRef{ID: id, Slug: d.Slug, NameI18n: domain.LocalizedText(d.NameI18n)}
}

type productAttributeDocument struct {
	AttributeID       string            `firestore:"attributeId"`
	SelectedOptionIDs []string          `firestore:"selectedOptionIds,omitempty"`
	TextI18n          map[string]string `firestore:"textI18n,omitempty"`
	Number            *float64          `firestore:"number,omitempty"`
}

type variantPairDocument struct {
	ProductID string `firestore:"productId"`
	OptionID  string `firestore:"optionId"`
}

type variantAxisDocument struct {
	AttributeID string                `firestore:"attributeId"`
	Pairs       []variantPairDocument `firestore:"pairs"`
}

type productDocument struct {
	Slug             string                     `firestore:"slug"`
	ItemID           string                     `firestore:"itemId"`
	CardTitleI18n    map[string]string          `firestore:"cardTitleI18n"`
	SnippetTitleI18n map[string]string          `firestore:"snippetTitleI18n,omitempty"`
	RubricID         string                     `firestore:"rubricId"`
	BrandSlug        string                     `firestore:"brandSlug,omitempty"`
	ManufacturerSlug string                     `firestore:"manufacturerSlug,omitempty"`
	CollectionSlug   string                     `firestore:"collectionSlug,omitempty"`
	CategorySlugs    []string                   `firestore:"categorySlugs,omitempty"`
	Attributes       []productAttributeDocument `firestore:"attributes,omitempty"`
	VariantAxes      []variantAxisDocument      `firestore:"variantAxes,omitempty"`
	ConnectionAxes   []variantAxisDocument      `firestore:"connectionAxes,omitempty"`
	Barcode          []string                   `firestore:"barcode,omitempty"`
	Active           bool                       `firestore:"active"`
	AllowDelivery    bool                       `firestore:"allowDelivery"`
	Views            map[string]int64           `firestore:"views,omitempty"`
	CreatedAt        time.Time                  `firestore:"createdAt"`
	UpdatedAt        time.Time                  `firestore:"updatedAt"`
}

func newProductDocument(p domain.Product) productDocument {
	return productDocument{
		Slug:             p.Slug,
		ItemID:           p.ItemID,
		CardTitleI18n:    p.CardTitleI18n,
		SnippetTitleI18n: p.SnippetTitleI18n,
		RubricID:         p.RubricID,
		BrandSlug:        p.BrandSlug,
		ManufacturerSlug: p.ManufacturerSlug,
		CollectionSlug:   p.CollectionSlug,
		CategorySlugs:    p.CategorySlugs,
		Attributes:       newProductAttributeDocuments(p.Attributes),
		VariantAxes:      newVariantAxisDocuments(p.VariantAxes),
		ConnectionAxes:   newVariantAxisDocuments(p.ConnectionAxes),
		Barcode:          p.Barcode,
		Active:           p.Active,
		AllowDelivery:    p.AllowDelivery,
		Views:            p.Views,
		CreatedAt:        p.CreatedAt.UTC(),
		UpdatedAt:        p.UpdatedAt.UTC(),
	}
}

func (d productDocument) toDomain(id string) domain.Product {
	attrs := make([]domain.ProductAttributeRef, 0, len(d.Attributes))
	for _, a := range d.Attributes {
		attrs = append(attrs, domain.ProductAttributeRef{
			AttributeID:       a.AttributeID,
			SelectedOptionIDs: a.SelectedOptionIDs,
			TextI18n:          domain.LocalizedText(a.TextI18n),
			Number:            a.Number,
		})
	}
	return domain.Product{
		ID:               id,
		Slug:             d.Slug,
		ItemID:           d.ItemID,
		CardTitleI18n:    domain.LocalizedText(d.CardTitleI18n),
		SnippetTitleI18n: domain.LocalizedText(d.SnippetTitleI18n),
		RubricID:         d.RubricID,
		BrandSlug:        d.BrandSlug,
		ManufacturerSlug: d.ManufacturerSlug,
		CollectionSlug:   d.CollectionSlug,
		CategorySlugs:    d.CategorySlugs,
		Attributes:       attrs,
		VariantAxes:      variantAxesToDomain(d.VariantAxes),
		ConnectionAxes:   variantAxesToDomain(d.ConnectionAxes),
		Barcode:          d.Barcode,
		Active:           d.Active,
		AllowDelivery:    d.AllowDelivery,
		Views:            d.Views,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

func newProductAttributeDocuments(attrs []domain.ProductAttributeRef) []productAttributeDocument {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]productAttributeDocument, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, productAttributeDocument{
			AttributeID:       a.AttributeID,
			SelectedOptionIDs: a.SelectedOptionIDs,
			TextI18n:          a.TextI18n,
			Number:            a.Number,
		})
	}
	return out
}

func newVariantAxisDocuments(axes []domain.VariantAxis) []variantAxisDocument {
	if len(axes) == 0 {
		return nil
	}
	out := make([]variantAxisDocument, 0, len(axes))
	for _, axis := range axes {
		pairs := make([]variantPairDocument, 0, len(axis.Pairs))
		for _, pair := range axis.Pairs {
			pairs = append(pairs, variantPairDocument{ProductID: pair.ProductID, OptionID: pair.OptionID})
		}
		out = append(out, variantAxisDocument{AttributeID: axis.AttributeID, Pairs: pairs})
	}
	return out
}

func variantAxesToDomain(axes []variantAxisDocument) []domain.VariantAxis {
	if len(axes) == 0 {
		return nil
	}
	out := make([]domain.VariantAxis, 0, len(axes))
	for _, axis := range axes {
		pairs := make([]domain.VariantPair, 0, len(axis.Pairs))
		for _, pair := range axis.Pairs {
			pairs = append(pairs, domain.VariantPair{ProductID: pair.ProductID, OptionID: pair.OptionID})
		}
		out = append(out, domain.VariantAxis{AttributeID: axis.AttributeID, Pairs: pairs})
	}
	return out
}

type shopProductDocument struct {
	ShopID    string    `firestore:"shopId"`
	ProductID string    `firestore:"productId"`
	CitySlug  string    `firestore:"citySlug,omitempty"`
	Price     int64     `firestore:"price"`
	Available int       `firestore:"available"`
	Barcode   []string  `firestore:"barcode,omitempty"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func newShopProductDocument(sp domain.ShopProduct) shopProductDocument {
	return shopProductDocument{
		ShopID:    sp.ShopID,
		ProductID: sp.ProductID,
		CitySlug:  sp.CitySlug,
		Price:     sp.Price,
		Available: sp.Available,
		Barcode:   sp.Barcode,
		CreatedAt: sp.CreatedAt.UTC(),
		UpdatedAt: sp.UpdatedAt.UTC(),
	}
}

func (d shopProductDocument) toDomain(id string) domain.ShopProduct {
	return domain.ShopProduct{
		ID:        id,
		ShopID:    d.ShopID,
		ProductID: d.ProductID,
		CitySlug:  d.CitySlug,
		Price:     d.Price,
		Available: d.Available,
		Barcode:   d.Barcode,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// Draft snapshots are full assembled summaries; they travel as opaque JSON so
// summary shape changes do not require a migration of historical log entries.
type taskLogEntryDocument struct {
	ID        string    `firestore:"id"`
	DraftJSON []byte    `firestore:"draftJson,omitempty"`
	CreatedBy string    `firestore:"createdBy"`
	CreatedAt time.Time `firestore:"createdAt"`
}

func newTaskLogEntryDocument(entry domain.TaskLogEntry) (taskLogEntryDocument, error) {
	doc := taskLogEntryDocument{
		ID:        entry.ID,
		CreatedBy: entry.CreatedBy,
		CreatedAt: entry.CreatedAt.UTC(),
	}
	if entry.Draft != nil {
		raw, err := json.Marshal(entry.Draft)
		if err != nil {
			return taskLogEntryDocument{}, fmt.Errorf("encode task draft: %w", err)
		}
		doc.DraftJSON = raw
	}
	return doc, nil
}

func (d taskLogEntryDocument) toDomain() (domain.TaskLogEntry, error) {
	entry := domain.TaskLogEntry{
		ID:        d.ID,
		CreatedBy: d.CreatedBy,
		CreatedAt: d.CreatedAt,
	}
	if len(d.DraftJSON) > 0 {
		var draft domain.ProductSummary
		if err := json.Unmarshal(d.DraftJSON, &draft); err != nil {
			return domain.TaskLogEntry{}, fmt.Errorf("decode task draft %s: %w", d.ID, err)
		}
		entry.Draft = &draft
	}
	return entry, nil
}

type taskDocument struct {
	ProductID string                 `firestore:"productId"`
	State     string                 `firestore:"state"`
	Log       []taskLogEntryDocument `firestore:"log,omitempty"`
	CreatedAt time.Time              `firestore:"createdAt"`
	UpdatedAt time.Time              `firestore:"updatedAt"`
}

func newTaskDocument(task domain.Task) (taskDocument, error) {
	doc := taskDocument{
		ProductID: task.ProductID,
		State:     string(task.State),
		CreatedAt: task.CreatedAt.UTC(),
		UpdatedAt: task.UpdatedAt.UTC(),
	}
	for _, entry := range task.Log {
		entryDoc, err := newTaskLogEntryDocument(entry)
		if err != nil {
			return taskDocument{}, err
		}
		doc.Log = append(doc.Log, entryDoc)
	}
	return doc, nil
}

func (d taskDocument) toDomain(id string) (domain.Task, error) {
	task := domain.Task{
		ID:        id,
		ProductID: d.ProductID,
		State:     domain.TaskState(d.State),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	for _, entryDoc := range d.Log {
		entry, err := entryDoc.toDomain()
		if err != nil {
			return domain.Task{}, err
		}
		task.Log = append(task.Log, entry)
	}
	return task, nil
}
