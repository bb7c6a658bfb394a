package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/sixnames/next-marketplace-sub004/internal/domain"
	"github.com/sixnames/next-marketplace-sub004/internal/platform/httpx"
	"github.com/sixnames/next-marketplace-sub004/internal/services"
)

// ProductHandlers exposes the product summary read surface and the catalog
// write path.
type ProductHandlers struct {
	summaries services.SummaryService
	catalog   services.CatalogService
	barcodes  services.BarcodeService
}

// NewProductHandlers constructs handlers over the catalog services.
func NewProductHandlers(summaries services.SummaryService, catalog services.CatalogService, barcodes services.BarcodeService) *ProductHandlers {
	return &ProductHandlers{summaries: summaries, catalog: catalog, barcodes: barcodes}
}

// Routes wires the /products endpoints onto the provided router.
func (h *ProductHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.upsertProduct)
	r.Post("/barcode-check", h.checkBarcodes)
	r.Get("/{productID}/summary", h.getSummary)
	r.Get("/{productID}/facet", h.getFacet)
	r.Post("/{productID}/views", h.registerView)
}

func (h *ProductHandlers) getSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := services.SummaryQuery{
		ProductID:        chi.URLParam(r, "productID"),
		Locale:           r.URL.Query().Get("locale"),
		CompanySlug:      r.URL.Query().Get("companySlug"),
		TaskID:           strings.TrimSpace(r.URL.Query().Get("taskId")),
		IsContentManager: parseBool(r.URL.Query().Get("contentManager")),
	}

	summary, err := h.summaries.AssembleWithDraft(ctx, query)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, buildSummaryPayload(summary))
}

func (h *ProductHandlers) getFacet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	summary, err := h.summaries.Assemble(ctx, chi.URLParam(r, "productID"), r.URL.Query().Get("locale"), r.URL.Query().Get("companySlug"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, buildFacetPayload(services.ToFacet(summary)))
}

func (h *ProductHandlers) registerView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.summaries.RegisterCardView(ctx, chi.URLParam(r, "productID"), r.URL.Query().Get("companySlug")); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductHandlers) upsertProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload productPayload
	if err := decodeBody(r, &payload); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	product, err := h.catalog.UpsertProduct(ctx, services.UpsertProductCommand{Product: payload.toDomain()})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, newProductPayload(product))
}

func (h *ProductHandlers) checkBarcodes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload barcodeCheckRequest
	if err := decodeBody(r, &payload); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	doubles, err := h.barcodes.DetectCatalogDoubles(ctx, payload.Barcodes, payload.ExcludeID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	resp := barcodeCheckResponse{Doubles: make([]barcodeDoublesPayload, 0, len(doubles))}
	for _, d := range doubles {
		entry := barcodeDoublesPayload{Barcode: d.Barcode}
		for _, p := range d.Products {
			entry.ProductIDs = append(entry.ProductIDs, p.ID)
		}
		resp.Doubles = append(resp.Doubles, entry)
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseBool(value string) bool {
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	return err == nil && parsed
}

type barcodeCheckRequest struct {
	Barcodes  []string `json:"barcodes"`
	ExcludeID string   `json:"excludeId"`
}

type barcodeDoublesPayload struct {
	Barcode    string   `json:"barcode"`
	ProductIDs []string `json:"productIds"`
}

type barcodeCheckResponse struct {
	Doubles []barcodeDoublesPayload `json:"doubles"`
}

type productAttributePayload struct {
	AttributeID       string            `json:"attributeId"`
	SelectedOptionIDs []string          `json:"selectedOptionIds,omitempty"`
	TextI18n          map[string]string `json:"textI18n,omitempty"`
	Number            *float64          `json:"number,omitempty"`
}

type variantPairPayload struct {
	ProductID string `json:"productId"`
	OptionID  string `json:"optionId"`
}

type variantAxisPayload struct {
	AttributeID string               `json:"attributeId"`
	Pairs       []variantPairPayload `json:"pairs"`
}

type productPayload struct {
	ID               string                    `json:"id"`
	Slug             string                    `json:"slug,omitempty"`
	ItemID           string                    `json:"itemId"`
	CardTitleI18n    map[string]string         `json:"cardTitleI18n"`
	SnippetTitleI18n map[string]string         `json:"snippetTitleI18n,omitempty"`
	RubricID         string                    `json:"rubricId"`
	BrandSlug        string                    `json:"brandSlug,omitempty"`
	ManufacturerSlug string                    `json:"manufacturerSlug,omitempty"`
	CollectionSlug   string                    `json:"collectionSlug,omitempty"`
	CategorySlugs    []string                  `json:"categorySlugs,omitempty"`
	Attributes       []productAttributePayload `json:"attributes,omitempty"`
	VariantAxes      []variantAxisPayload      `json:"variantAxes,omitempty"`
	ConnectionAxes   []variantAxisPayload      `json:"connectionAxes,omitempty"`
	Barcode          []string                  `json:"barcode,omitempty"`
	Active           bool                      `json:"active"`
	AllowDelivery    bool                      `json:"allowDelivery"`
	CreatedAt        *time.Time                `json:"createdAt,omitempty"`
	UpdatedAt        *time.Time                `json:"updatedAt,omitempty"`
}

func (p productPayload) toDomain() domain.Product {
	product := domain.Product{
		ID:               p.ID,
		Slug:             p.Slug,
		ItemID:           p.ItemID,
		CardTitleI18n:    domain.LocalizedText(p.CardTitleI18n),
		SnippetTitleI18n: domain.LocalizedText(p.SnippetTitleI18n),
		RubricID:         p.RubricID,
		BrandSlug:        p.BrandSlug,
		ManufacturerSlug: p.ManufacturerSlug,
		CollectionSlug:   p.CollectionSlug,
		CategorySlugs:    p.CategorySlugs,
		Barcode:          p.Barcode,
		Active:           p.Active,
		AllowDelivery:    p.AllowDelivery,
	}
	product.Attributes = attributesToDomain(p.Attributes)
	product.VariantAxes = axesToDomain(p.VariantAxes)
	product.ConnectionAxes = axesToDomain(p.ConnectionAxes)
	if p.CreatedAt != nil {
		product.CreatedAt = *p.CreatedAt
	}
	if p.UpdatedAt != nil {
		product.UpdatedAt = *p.UpdatedAt
	}
	return product
}

func attributesToDomain(attrs []productAttributePayload) []domain.ProductAttributeRef {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]domain.ProductAttributeRef, 0, len(attrs))
	for _, attr := range attrs {
		out = append(out, domain.ProductAttributeRef{
			AttributeID:       attr.AttributeID,
			SelectedOptionIDs: attr.SelectedOptionIDs,
			TextI18n:          domain.LocalizedText(attr.TextI18n),
			Number:            attr.Number,
		})
	}
	return out
}

func newProductPayload(product domain.Product) productPayload {
	payload := productPayload{
		ID:               product.ID,
		Slug:             product.Slug,
		ItemID:           product.ItemID,
		CardTitleI18n:    product.CardTitleI18n,
		SnippetTitleI18n: product.SnippetTitleI18n,
		RubricID:         product.RubricID,
		BrandSlug:        product.BrandSlug,
		ManufacturerSlug: product.ManufacturerSlug,
		CollectionSlug:   product.CollectionSlug,
		CategorySlugs:    product.CategorySlugs,
		Barcode:          product.Barcode,
		Active:           product.Active,
		AllowDelivery:    product.AllowDelivery,
	}
	for _, attr := range product.Attributes {
		payload.Attributes = append(payload.Attributes, productAttributePayload{
			AttributeID:       attr.AttributeID,
			SelectedOptionIDs: attr.SelectedOptionIDs,
			TextI18n:          attr.TextI18n,
			Number:            attr.Number,
		})
	}
	payload.VariantAxes = axesToPayload(product.VariantAxes)
	payload.ConnectionAxes = axesToPayload(product.ConnectionAxes)
	if !product.CreatedAt.IsZero() {
		createdAt := product.CreatedAt
		payload.CreatedAt = &createdAt
	}
	if !product.UpdatedAt.IsZero() {
		updatedAt := product.UpdatedAt
		payload.UpdatedAt = &updatedAt
	}
	return payload
}

func axesToDomain(axes []variantAxisPayload) []domain.VariantAxis {
	if len(axes) == 0 {
		return nil
	}
	out := make([]domain.VariantAxis, 0, len(axes))
	for _, axis := range axes {
		converted := domain.VariantAxis{AttributeID: axis.AttributeID}
		for _, pair := range axis.Pairs {
			converted.Pairs = append(converted.Pairs, domain.VariantPair{ProductID: pair.ProductID, OptionID: pair.OptionID})
		}
		out = append(out, converted)
	}
	return out
}

func axesToPayload(axes []domain.VariantAxis) []variantAxisPayload {
	if len(axes) == 0 {
		return nil
	}
	out := make([]variantAxisPayload, 0, len(axes))
	for _, axis := range axes {
		converted := variantAxisPayload{AttributeID: axis.AttributeID}
		for _, pair := range axis.Pairs {
			converted.Pairs = append(converted.Pairs, variantPairPayload{ProductID: pair.ProductID, OptionID: pair.OptionID})
		}
		out = append(out, converted)
	}
	return out
}
