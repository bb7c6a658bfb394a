package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/sixnames/next-marketplace-sub004/internal/domain"
	"github.com/sixnames/next-marketplace-sub004/internal/services"
)

type stubSummaryService struct {
	summary   domain.ProductSummary
	err       error
	lastQuery services.SummaryQuery
	views     []string
}

func (s *stubSummaryService) Assemble(_ context.Context, productID, locale, companySlug string) (domain.ProductSummary, error) {
	s.lastQuery = services.SummaryQuery{ProductID: productID, Locale: locale, CompanySlug: companySlug}
	return s.summary, s.err
}

func (s *stubSummaryService) AssemblePreview(_ context.Context, _ domain.Product, _, _ string) (domain.ProductSummary, error) {
	return s.summary, s.err
}

func (s *stubSummaryService) AssembleWithDraft(_ context.Context, query services.SummaryQuery) (domain.ProductSummary, error) {
	s.lastQuery = query
	return s.summary, s.err
}

func (s *stubSummaryService) RegisterCardView(_ context.Context, productID, companySlug string) error {
	s.views = append(s.views, productID+"/"+companySlug)
	return s.err
}

type stubBarcodeService struct {
	doubles     []domain.BarcodeDoubles
	shopDoubles []domain.ShopProductBarcodeDoubles
	err         error
}

func (s *stubBarcodeService) DetectCatalogDoubles(_ context.Context, _ []string, _ string) ([]domain.BarcodeDoubles, error) {
	return s.doubles, s.err
}

func (s *stubBarcodeService) DetectShopDoubles(_ context.Context, _ string, _ []string, _ string) ([]domain.ShopProductBarcodeDoubles, error) {
	return s.shopDoubles, s.err
}

type stubCatalogWriteService struct {
	product domain.Product
	row     domain.ShopProduct
	err     error
}

func (s *stubCatalogWriteService) UpsertProduct(_ context.Context, cmd services.UpsertProductCommand) (domain.Product, error) {
	if s.err != nil {
		return domain.Product{}, s.err
	}
	s.product = cmd.Product
	return cmd.Product, nil
}

func (s *stubCatalogWriteService) CreateShopProduct(_ context.Context, _ services.CreateShopProductCommand) (domain.ShopProduct, error) {
	return s.row, s.err
}

func newProductTestRouter(summaries *stubSummaryService, catalog *stubCatalogWriteService, barcodes *stubBarcodeService) http.Handler {
	handlers := NewProductHandlers(summaries, catalog, barcodes)
	return NewRouter(WithProductRoutes(handlers.Routes))
}

func TestGetSummary(t *testing.T) {
	summaries := &stubSummaryService{summary: domain.ProductSummary{
		ID:        "wine-750",
		Slug:      "merlot-750",
		CardTitle: "Merlot",
		Rubric:    domain.ResolvedRef{ID: "rubric-wine", Slug: "wine", Name: "Wine"},
	}}
	router := newProductTestRouter(summaries, &stubCatalogWriteService{}, &stubBarcodeService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/wine-750/summary?locale=en&companySlug=acme&taskId=task-1&contentManager=true", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	want := services.SummaryQuery{
		ProductID:        "wine-750",
		Locale:           "en",
		CompanySlug:      "acme",
		TaskID:           "task-1",
		IsContentManager: true,
	}
	if summaries.lastQuery != want {
		t.Fatalf("query = %+v, want %+v", summaries.lastQuery, want)
	}

	var payload summaryPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.ID != "wine-750" || payload.CardTitle != "Merlot" || payload.Rubric.Name != "Wine" {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestGetSummaryNotFound(t *testing.T) {
	summaries := &stubSummaryService{err: services.ErrSummaryNotFound}
	router := newProductTestRouter(summaries, &stubCatalogWriteService{}, &stubBarcodeService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/missing/summary", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestGetFacet(t *testing.T) {
	summaries := &stubSummaryService{summary: domain.ProductSummary{
		ID:     "wine-750",
		Slug:   "merlot-750",
		Rubric: domain.ResolvedRef{ID: "rubric-wine", Slug: "wine"},
		Attributes: []domain.ProductAttribute{
			{AttributeID: "attr-color"},
		},
		Active: true,
	}}
	router := newProductTestRouter(summaries, &stubCatalogWriteService{}, &stubBarcodeService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/wine-750/facet", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var payload facetPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.RubricSlug != "wine" || len(payload.AttributeIDs) != 1 || !payload.Active {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestUpsertProductRejectsBadBody(t *testing.T) {
	router := newProductTestRouter(&stubSummaryService{}, &stubCatalogWriteService{}, &stubBarcodeService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader("{broken"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestUpsertProductCollisionConflict(t *testing.T) {
	catalog := &stubCatalogWriteService{err: services.ErrCatalogBarcodeCollision}
	router := newProductTestRouter(&stubSummaryService{}, catalog, &stubBarcodeService{})

	body := `{"id":"p-1","itemId":"0001","rubricId":"rubric-wine","cardTitleI18n":{"ru":"x"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCheckBarcodes(t *testing.T) {
	barcodes := &stubBarcodeService{doubles: []domain.BarcodeDoubles{
		{Barcode: "111", Products: []domain.Product{{ID: "b"}}},
	}}
	router := newProductTestRouter(&stubSummaryService{}, &stubCatalogWriteService{}, barcodes)

	body := `{"barcodes":["111"],"excludeId":"a"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/barcode-check", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var payload barcodeCheckResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(payload.Doubles) != 1 || payload.Doubles[0].Barcode != "111" {
		t.Fatalf("payload = %+v", payload)
	}
	if len(payload.Doubles[0].ProductIDs) != 1 || payload.Doubles[0].ProductIDs[0] != "b" {
		t.Fatalf("holders = %+v", payload.Doubles[0].ProductIDs)
	}
}

func TestRouterRecoversPanic(t *testing.T) {
	router := NewRouter(WithProductRoutes(func(r chi.Router) {
		r.Get("/boom", func(http.ResponseWriter, *http.Request) {
			panic("boom")
		})
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/boom", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "internal_error") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	router := NewRouter()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}
