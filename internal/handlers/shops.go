package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sixnames/next-marketplace-sub004/internal/platform/httpx"
	"github.com/sixnames/next-marketplace-sub004/internal/services"
)

// ShopHandlers exposes the shop inventory write surface.
type ShopHandlers struct {
	catalog  services.CatalogService
	barcodes services.BarcodeService
}

// NewShopHandlers constructs handlers over the inventory services.
func NewShopHandlers(catalog services.CatalogService, barcodes services.BarcodeService) *ShopHandlers {
	return &ShopHandlers{catalog: catalog, barcodes: barcodes}
}

// Routes wires the /shops endpoints onto the provided router.
func (h *ShopHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/{shopID}/products", h.createShopProduct)
	r.Post("/{shopID}/barcode-check", h.checkBarcodes)
}

type createShopProductRequest struct {
	ProductID string   `json:"productId"`
	CitySlug  string   `json:"citySlug,omitempty"`
	Price     int64    `json:"price"`
	Available int      `json:"available"`
	Barcode   []string `json:"barcode,omitempty"`
}

type shopProductPayload struct {
	ID        string    `json:"id"`
	ShopID    string    `json:"shopId"`
	ProductID string    `json:"productId"`
	CitySlug  string    `json:"citySlug,omitempty"`
	Price     int64     `json:"price"`
	Available int       `json:"available"`
	Barcode   []string  `json:"barcode,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (h *ShopHandlers) createShopProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload createShopProductRequest
	if err := decodeBody(r, &payload); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	row, err := h.catalog.CreateShopProduct(ctx, services.CreateShopProductCommand{
		ShopID:    chi.URLParam(r, "shopID"),
		ProductID: payload.ProductID,
		CitySlug:  payload.CitySlug,
		Price:     payload.Price,
		Available: payload.Available,
		Barcode:   payload.Barcode,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, shopProductPayload(row))
}

type shopBarcodeCheckRequest struct {
	Barcodes  []string `json:"barcodes"`
	ExcludeID string   `json:"excludeId"`
}

type shopBarcodeDoublesPayload struct {
	Barcode        string   `json:"barcode"`
	ShopProductIDs []string `json:"shopProductIds"`
}

type shopBarcodeCheckResponse struct {
	Doubles []shopBarcodeDoublesPayload `json:"doubles"`
}

func (h *ShopHandlers) checkBarcodes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload shopBarcodeCheckRequest
	if err := decodeBody(r, &payload); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	doubles, err := h.barcodes.DetectShopDoubles(ctx, chi.URLParam(r, "shopID"), payload.Barcodes, payload.ExcludeID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	resp := shopBarcodeCheckResponse{Doubles: make([]shopBarcodeDoublesPayload, 0, len(doubles))}
	for _, d := range doubles {
		entry := shopBarcodeDoublesPayload{Barcode: d.Barcode}
		for _, row := range d.ShopProducts {
			entry.ShopProductIDs = append(entry.ShopProductIDs, row.ID)
		}
		resp.Doubles = append(resp.Doubles, entry)
	}
	writeJSON(w, http.StatusOK, resp)
}
