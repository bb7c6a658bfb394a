package services

import (
	"context"
	"errors"
	"reflect"
	"testing"

	domain "github.com/sixnames/next-marketplace-sub004/internal/domain"
)

func fixtureCatalog() *stubCatalogRepository {
	return &stubCatalogRepository{
		products: map[string]domain.Product{
			"wine-750": {
				ID:               "wine-750",
				Slug:             "merlot-750",
				ItemID:           "000111",
				CardTitleI18n:    domain.LocalizedText{"ru": "Мерло 750мл", "en": "Merlot 750ml"},
				SnippetTitleI18n: domain.LocalizedText{"ru": "Мерло"},
				RubricID:         "rubric-wine",
				BrandSlug:        "chateau",
				CategorySlugs:    []string{"red", "dry"},
				Attributes: []domain.ProductAttributeRef{
					{AttributeID: "attr-color", SelectedOptionIDs: []string{"opt-red"}},
					{AttributeID: "attr-desc", TextI18n: domain.LocalizedText{"ru": "Сухое"}},
				},
				VariantAxes: []domain.VariantAxis{{
					AttributeID: "attr-volume",
					Pairs: []domain.VariantPair{
						{ProductID: "wine-375", OptionID: "opt-375"},
						{ProductID: "wine-750", OptionID: "opt-750"},
						{ProductID: "wine-1500", OptionID: "opt-missing"},
					},
				}},
				ConnectionAxes: []domain.VariantAxis{{
					AttributeID: "attr-pack",
					Pairs: []domain.VariantPair{
						{ProductID: "wine-750", OptionID: "opt-bottle"},
						{ProductID: "wine-giftbox", OptionID: "opt-giftbox"},
					},
				}},
				Barcode: []string{"4600000000111"},
				Active:  true,
				Views:   map[string]int64{"acme": 7, "other": 2},
			},
			"wine-375": {
				ID:            "wine-375",
				Slug:          "merlot-375",
				ItemID:        "000112",
				CardTitleI18n: domain.LocalizedText{"ru": "Мерло 375мл"},
				RubricID:      "rubric-wine",
			},
			"wine-1500": {
				ID:            "wine-1500",
				Slug:          "merlot-1500",
				ItemID:        "000113",
				CardTitleI18n: domain.LocalizedText{"ru": "Мерло 1500мл"},
				RubricID:      "rubric-wine",
			},
			"wine-giftbox": {
				ID:            "wine-giftbox",
				Slug:          "merlot-giftbox",
				ItemID:        "000114",
				CardTitleI18n: domain.LocalizedText{"ru": "Мерло в коробке"},
				RubricID:      "rubric-wine",
			},
		},
		rubrics: map[string]domain.Rubric{
			"rubric-wine": {ID: "rubric-wine", Slug: "wine", NameI18n: domain.LocalizedText{"ru": "Вино", "en": "Wine"}},
		},
		attributes: map[string]domain.AttributeDef{
			"attr-color":  {ID: "attr-color", Slug: "color", NameI18n: domain.LocalizedText{"ru": "Цвет", "en": "Color"}},
			"attr-desc":   {ID: "attr-desc", Slug: "description", NameI18n: domain.LocalizedText{"ru": "Описание"}},
			"attr-volume": {ID: "attr-volume", Slug: "volume", NameI18n: domain.LocalizedText{"ru": "Объем", "en": "Volume"}, Variant: true},
			"attr-pack":   {ID: "attr-pack", Slug: "packaging", NameI18n: domain.LocalizedText{"ru": "Упаковка"}, Variant: true},
		},
		options: map[string]domain.Option{
			"opt-red":     {ID: "opt-red", Slug: "red", NameI18n: domain.LocalizedText{"ru": "Красное", "en": "Red"}},
			"opt-375":     {ID: "opt-375", Slug: "375", NameI18n: domain.LocalizedText{"ru": "375 мл"}},
			"opt-750":     {ID: "opt-750", Slug: "750", NameI18n: domain.LocalizedText{"ru": "750 мл"}},
			"opt-bottle":  {ID: "opt-bottle", Slug: "bottle", NameI18n: domain.LocalizedText{"ru": "Бутылка"}},
			"opt-giftbox": {ID: "opt-giftbox", Slug: "giftbox", NameI18n: domain.LocalizedText{"ru": "Подарочная коробка"}},
		},
		categories: map[string]domain.CatalogRef{
			"rubric-wine/red": {ID: "cat-red", Slug: "red", NameI18n: domain.LocalizedText{"ru": "Красные"}},
			"rubric-wine/dry": {ID: "cat-dry", Slug: "dry", NameI18n: domain.LocalizedText{"ru": "Сухие"}},
		},
	}
}

func newTestSummaryService(t *testing.T, catalog *stubCatalogRepository, tasks *stubTaskRepository) SummaryService {
	t.Helper()
	if tasks == nil {
		tasks = &stubTaskRepository{}
	}
	svc, err := NewSummaryService(SummaryServiceDeps{
		Catalog:            catalog,
		Tasks:              tasks,
		DefaultLocale:      "ru",
		DefaultCompanySlug: "acme",
	})
	if err != nil {
		t.Fatalf("NewSummaryService: %v", err)
	}
	return svc
}

func TestNewSummaryService(t *testing.T) {
	if _, err := NewSummaryService(SummaryServiceDeps{Tasks: &stubTaskRepository{}}); err == nil {
		t.Fatal("expected error when catalog repository missing")
	}
	if _, err := NewSummaryService(SummaryServiceDeps{Catalog: &stubCatalogRepository{}}); err == nil {
		t.Fatal("expected error when task repository missing")
	}
}

func TestAssembleResolvesTaxonomy(t *testing.T) {
	svc := newTestSummaryService(t, fixtureCatalog(), nil)

	summary, err := svc.Assemble(context.Background(), "wine-750", "en", "acme")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	if summary.CardTitle != "Merlot 750ml" {
		t.Fatalf("card title = %q", summary.CardTitle)
	}
	// Snippet title has no English value and falls back to the storage locale.
	if summary.SnippetTitle != "Мерло" {
		t.Fatalf("snippet title = %q", summary.SnippetTitle)
	}
	if summary.Rubric.Name != "Wine" || summary.Rubric.Slug != "wine" {
		t.Fatalf("rubric = %+v", summary.Rubric)
	}
	if summary.Views != 7 {
		t.Fatalf("views = %d, want company-scoped counter", summary.Views)
	}

	if len(summary.Categories) != 2 {
		t.Fatalf("categories = %+v", summary.Categories)
	}
	if summary.Categories[0].Slug != "red" || summary.Categories[1].Slug != "dry" {
		t.Fatalf("category order not preserved: %+v", summary.Categories)
	}

	if len(summary.Attributes) != 2 {
		t.Fatalf("attributes = %+v", summary.Attributes)
	}
	if summary.Attributes[0].Name != "Color" {
		t.Fatalf("attribute name = %q", summary.Attributes[0].Name)
	}
	if len(summary.Attributes[0].Options) != 1 || summary.Attributes[0].Options[0].Name != "Red" {
		t.Fatalf("attribute options = %+v", summary.Attributes[0].Options)
	}
	if summary.Attributes[1].Text != "Сухое" {
		t.Fatalf("text attribute = %q", summary.Attributes[1].Text)
	}
}

func TestAssembleMissingRubricFailsClosed(t *testing.T) {
	catalog := fixtureCatalog()
	delete(catalog.rubrics, "rubric-wine")
	svc := newTestSummaryService(t, catalog, nil)

	if _, err := svc.Assemble(context.Background(), "wine-750", "ru", ""); !errors.Is(err, ErrSummaryNotFound) {
		t.Fatalf("expected ErrSummaryNotFound, got %v", err)
	}
}

func TestAssembleUnknownProduct(t *testing.T) {
	svc := newTestSummaryService(t, fixtureCatalog(), nil)
	if _, err := svc.Assemble(context.Background(), "missing", "ru", ""); !errors.Is(err, ErrSummaryNotFound) {
		t.Fatalf("expected ErrSummaryNotFound, got %v", err)
	}
}

func TestAssembleVariantOrdering(t *testing.T) {
	// The axis lists siblings [375, 750(current), 1500]; 1500's option record
	// is missing, so the expected survivors are [750(current), 375].
	svc := newTestSummaryService(t, fixtureCatalog(), nil)

	summary, err := svc.Assemble(context.Background(), "wine-750", "ru", "")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(summary.Variants) != 1 {
		t.Fatalf("variants = %+v", summary.Variants)
	}

	group := summary.Variants[0]
	if group.Name != "Объем" {
		t.Fatalf("axis name = %q", group.Name)
	}
	if len(group.Items) != 2 {
		t.Fatalf("expected dangling sibling dropped, got %+v", group.Items)
	}
	if !group.Items[0].IsCurrent || group.Items[0].Product.ID != "wine-750" {
		t.Fatalf("current item not pinned first: %+v", group.Items)
	}
	if group.Items[1].IsCurrent || group.Items[1].Product.ID != "wine-375" {
		t.Fatalf("sibling order not preserved: %+v", group.Items)
	}

	currents := 0
	for _, item := range group.Items {
		if item.IsCurrent {
			currents++
		}
	}
	if currents != 1 {
		t.Fatalf("expected exactly one current item, got %d", currents)
	}
}

func TestAssembleEmptyAxisStillEmitted(t *testing.T) {
	catalog := fixtureCatalog()
	product := catalog.products["wine-750"]
	product.VariantAxes = []domain.VariantAxis{
		{AttributeID: "attr-volume", Pairs: []domain.VariantPair{{ProductID: "gone", OptionID: "opt-750"}}},
		{AttributeID: "attr-unknown", Pairs: []domain.VariantPair{{ProductID: "wine-375", OptionID: "opt-375"}}},
	}
	catalog.products["wine-750"] = product
	svc := newTestSummaryService(t, catalog, nil)

	summary, err := svc.Assemble(context.Background(), "wine-750", "ru", "")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	// The axis whose attribute resolved is emitted empty; the axis with an
	// unknown defining attribute is skipped entirely.
	if len(summary.Variants) != 1 {
		t.Fatalf("variants = %+v", summary.Variants)
	}
	if summary.Variants[0].AttributeID != "attr-volume" || len(summary.Variants[0].Items) != 0 {
		t.Fatalf("expected empty volume axis, got %+v", summary.Variants[0])
	}
}

func TestAssembleConnectionsPreserveSourceOrder(t *testing.T) {
	svc := newTestSummaryService(t, fixtureCatalog(), nil)

	summary, err := svc.Assemble(context.Background(), "wine-750", "ru", "")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(summary.Connections) != 1 {
		t.Fatalf("connections = %+v", summary.Connections)
	}

	items := summary.Connections[0].Items
	if len(items) != 2 {
		t.Fatalf("connection items = %+v", items)
	}
	// No current-pinning for connections: the assembled product stays where
	// the stored axis puts it.
	if items[0].Product.ID != "wine-750" || items[1].Product.ID != "wine-giftbox" {
		t.Fatalf("connection order changed: %+v", items)
	}
}

func TestAssembleIdempotent(t *testing.T) {
	svc := newTestSummaryService(t, fixtureCatalog(), nil)

	first, err := svc.Assemble(context.Background(), "wine-750", "ru", "acme")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	second, err := svc.Assemble(context.Background(), "wine-750", "ru", "acme")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated assembly differs:\n%+v\n%+v", first, second)
	}
}

func TestAssembleWithDraftGate(t *testing.T) {
	draftTitle := "Draft title"

	t.Run("content manager without task id fails closed", func(t *testing.T) {
		svc := newTestSummaryService(t, fixtureCatalog(), nil)
		query := SummaryQuery{ProductID: "wine-750", Locale: "ru", IsContentManager: true}
		if _, err := svc.AssembleWithDraft(context.Background(), query); !errors.Is(err, ErrSummaryNotFound) {
			t.Fatalf("expected ErrSummaryNotFound, got %v", err)
		}
	})

	t.Run("content manager with unknown task id fails closed", func(t *testing.T) {
		svc := newTestSummaryService(t, fixtureCatalog(), &stubTaskRepository{})
		query := SummaryQuery{ProductID: "wine-750", Locale: "ru", TaskID: "missing", IsContentManager: true}
		if _, err := svc.AssembleWithDraft(context.Background(), query); !errors.Is(err, ErrSummaryNotFound) {
			t.Fatalf("expected ErrSummaryNotFound, got %v", err)
		}
	})

	t.Run("task for another product fails closed", func(t *testing.T) {
		tasks := &stubTaskRepository{tasks: map[string]domain.Task{
			"task-giftbox": {ID: "task-giftbox", ProductID: "wine-giftbox", Log: []domain.TaskLogEntry{
				{ID: "entry-1", Draft: &domain.ProductSummary{ID: "wine-giftbox", CardTitle: "Giftbox draft"}},
			}},
		}}
		svc := newTestSummaryService(t, fixtureCatalog(), tasks)
		query := SummaryQuery{ProductID: "wine-750", Locale: "ru", TaskID: "task-giftbox", IsContentManager: true}
		if _, err := svc.AssembleWithDraft(context.Background(), query); !errors.Is(err, ErrSummaryNotFound) {
			t.Fatalf("expected ErrSummaryNotFound, got %v", err)
		}
	})

	t.Run("non content manager ignores the task", func(t *testing.T) {
		tasks := &stubTaskRepository{tasks: map[string]domain.Task{
			"task-1": {ID: "task-1", ProductID: "wine-750", Log: []domain.TaskLogEntry{
				{ID: "entry-1", Draft: &domain.ProductSummary{ID: "wine-750", CardTitle: draftTitle}},
			}},
		}}
		svc := newTestSummaryService(t, fixtureCatalog(), tasks)
		query := SummaryQuery{ProductID: "wine-750", Locale: "ru", TaskID: "task-1"}
		summary, err := svc.AssembleWithDraft(context.Background(), query)
		if err != nil {
			t.Fatalf("AssembleWithDraft: %v", err)
		}
		if summary.CardTitle == draftTitle {
			t.Fatal("draft leaked to a non content manager")
		}
	})

	t.Run("empty log yields canonical summary", func(t *testing.T) {
		tasks := &stubTaskRepository{tasks: map[string]domain.Task{
			"task-1": {ID: "task-1", ProductID: "wine-750"},
		}}
		svc := newTestSummaryService(t, fixtureCatalog(), tasks)
		query := SummaryQuery{ProductID: "wine-750", Locale: "ru", TaskID: "task-1", IsContentManager: true}
		summary, err := svc.AssembleWithDraft(context.Background(), query)
		if err != nil {
			t.Fatalf("AssembleWithDraft: %v", err)
		}
		if summary.CardTitle != "Мерло 750мл" {
			t.Fatalf("expected canonical summary, got %q", summary.CardTitle)
		}
	})

	t.Run("last log entry replaces the summary wholesale", func(t *testing.T) {
		tasks := &stubTaskRepository{tasks: map[string]domain.Task{
			"task-1": {ID: "task-1", ProductID: "wine-750", Log: []domain.TaskLogEntry{
				{ID: "entry-1", Draft: &domain.ProductSummary{ID: "wine-750", CardTitle: "Stale draft"}},
				{ID: "entry-2", Draft: &domain.ProductSummary{ID: "wine-750", CardTitle: draftTitle}},
			}},
		}}
		svc := newTestSummaryService(t, fixtureCatalog(), tasks)
		query := SummaryQuery{ProductID: "wine-750", Locale: "ru", TaskID: "task-1", IsContentManager: true}
		summary, err := svc.AssembleWithDraft(context.Background(), query)
		if err != nil {
			t.Fatalf("AssembleWithDraft: %v", err)
		}
		if summary.CardTitle != draftTitle {
			t.Fatalf("expected newest draft snapshot, got %q", summary.CardTitle)
		}
	})
}

func TestRegisterCardView(t *testing.T) {
	catalog := fixtureCatalog()
	svc := newTestSummaryService(t, catalog, nil)

	if err := svc.RegisterCardView(context.Background(), "wine-750", ""); err != nil {
		t.Fatalf("RegisterCardView: %v", err)
	}
	if len(catalog.viewIncrements) != 1 {
		t.Fatalf("expected one increment, got %+v", catalog.viewIncrements)
	}
	if got := catalog.viewIncrements[0]; got.productID != "wine-750" || got.companySlug != "acme" || got.delta != 1 {
		t.Fatalf("unexpected increment %+v", got)
	}

	if err := svc.RegisterCardView(context.Background(), "", "acme"); !errors.Is(err, ErrSummaryInvalidInput) {
		t.Fatalf("expected ErrSummaryInvalidInput, got %v", err)
	}
	if err := svc.RegisterCardView(context.Background(), "missing", "acme"); !errors.Is(err, ErrSummaryNotFound) {
		t.Fatalf("expected ErrSummaryNotFound, got %v", err)
	}
}

// --- stubs ---

type stubRepositoryError struct {
	notFound bool
	conflict bool
}

func (e *stubRepositoryError) Error() string       { return "stub repository error" }
func (e *stubRepositoryError) IsNotFound() bool    { return e.notFound }
func (e *stubRepositoryError) IsConflict() bool    { return e.conflict }
func (e *stubRepositoryError) IsUnavailable() bool { return false }

func stubNotFound() error { return &stubRepositoryError{notFound: true} }

type viewIncrement struct {
	productID   string
	companySlug string
	delta       int64
}

type stubCatalogRepository struct {
	products      map[string]domain.Product
	rubrics       map[string]domain.Rubric
	attributes    map[string]domain.AttributeDef
	options       map[string]domain.Option
	brands        map[string]domain.CatalogRef
	manufacturers map[string]domain.CatalogRef
	collections   map[string]domain.CatalogRef
	// categories is keyed by "<rubricID>/<slug>".
	categories map[string]domain.CatalogRef

	upserted       []domain.Product
	viewIncrements []viewIncrement
	barcodeQueries [][]string
	err            error
}

func (s *stubCatalogRepository) FindProductByID(_ context.Context, productID string) (domain.Product, error) {
	if s.err != nil {
		return domain.Product{}, s.err
	}
	product, ok := s.products[productID]
	if !ok {
		return domain.Product{}, stubNotFound()
	}
	return product, nil
}

func (s *stubCatalogRepository) FindProductBySlug(_ context.Context, slug string) (domain.Product, error) {
	for _, product := range s.products {
		if product.Slug == slug {
			return product, nil
		}
	}
	return domain.Product{}, stubNotFound()
}

func (s *stubCatalogRepository) FindProductsByIDs(_ context.Context, productIDs []string) ([]domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.Product
	for _, id := range productIDs {
		if product, ok := s.products[id]; ok {
			out = append(out, product)
		}
	}
	return out, nil
}

func (s *stubCatalogRepository) FindProductsByBarcodes(_ context.Context, barcodes []string) ([]domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.barcodeQueries = append(s.barcodeQueries, append([]string(nil), barcodes...))
	seen := map[string]struct{}{}
	var out []domain.Product
	for _, barcode := range barcodes {
		for _, product := range s.products {
			if _, dup := seen[product.ID]; dup {
				continue
			}
			for _, b := range product.Barcode {
				if b == barcode {
					seen[product.ID] = struct{}{}
					out = append(out, product)
					break
				}
			}
		}
	}
	return out, nil
}

func (s *stubCatalogRepository) UpsertProduct(_ context.Context, product domain.Product) error {
	if s.err != nil {
		return s.err
	}
	if s.products == nil {
		s.products = map[string]domain.Product{}
	}
	s.products[product.ID] = product
	s.upserted = append(s.upserted, product)
	return nil
}

func (s *stubCatalogRepository) IncrementProductViews(_ context.Context, productID, companySlug string, delta int64) error {
	if _, ok := s.products[productID]; !ok {
		return stubNotFound()
	}
	s.viewIncrements = append(s.viewIncrements, viewIncrement{productID: productID, companySlug: companySlug, delta: delta})
	return nil
}

func (s *stubCatalogRepository) FindRubricByID(_ context.Context, rubricID string) (domain.Rubric, error) {
	rubric, ok := s.rubrics[rubricID]
	if !ok {
		return domain.Rubric{}, stubNotFound()
	}
	return rubric, nil
}

func (s *stubCatalogRepository) FindAttributesByIDs(_ context.Context, attributeIDs []string) ([]domain.AttributeDef, error) {
	var out []domain.AttributeDef
	for _, id := range attributeIDs {
		if def, ok := s.attributes[id]; ok {
			out = append(out, def)
		}
	}
	return out, nil
}

func (s *stubCatalogRepository) FindOptionsByIDs(_ context.Context, optionIDs []string) ([]domain.Option, error) {
	var out []domain.Option
	for _, id := range optionIDs {
		if option, ok := s.options[id]; ok {
			out = append(out, option)
		}
	}
	return out, nil
}

func (s *stubCatalogRepository) FindBrandBySlug(_ context.Context, slug string) (domain.CatalogRef, error) {
	ref, ok := s.brands[slug]
	if !ok {
		return domain.CatalogRef{}, stubNotFound()
	}
	return ref, nil
}

func (s *stubCatalogRepository) FindManufacturerBySlug(_ context.Context, slug string) (domain.CatalogRef, error) {
	ref, ok := s.manufacturers[slug]
	if !ok {
		return domain.CatalogRef{}, stubNotFound()
	}
	return ref, nil
}

func (s *stubCatalogRepository) FindCollectionBySlug(_ context.Context, slug string) (domain.CatalogRef, error) {
	ref, ok := s.collections[slug]
	if !ok {
		return domain.CatalogRef{}, stubNotFound()
	}
	return ref, nil
}

func (s *stubCatalogRepository) FindCategoriesBySlugs(_ context.Context, rubricID string, slugs []string) ([]domain.CatalogRef, error) {
	var out []domain.CatalogRef
	for _, categorySlug := range slugs {
		if ref, ok := s.categories[rubricID+"/"+categorySlug]; ok {
			out = append(out, ref)
		}
	}
	return out, nil
}

type appendedEntry struct {
	taskID string
	entry  domain.TaskLogEntry
	state  domain.TaskState
}

type stubTaskRepository struct {
	tasks    map[string]domain.Task
	created  []domain.Task
	appended []appendedEntry
	err      error
}

func (s *stubTaskRepository) FindTaskByID(_ context.Context, taskID string) (domain.Task, error) {
	if s.err != nil {
		return domain.Task{}, s.err
	}
	task, ok := s.tasks[taskID]
	if !ok {
		return domain.Task{}, stubNotFound()
	}
	return task, nil
}

func (s *stubTaskRepository) CreateTask(_ context.Context, task domain.Task) error {
	if s.err != nil {
		return s.err
	}
	if s.tasks == nil {
		s.tasks = map[string]domain.Task{}
	}
	if _, exists := s.tasks[task.ID]; exists {
		return &stubRepositoryError{conflict: true}
	}
	s.tasks[task.ID] = task
	s.created = append(s.created, task)
	return nil
}

func (s *stubTaskRepository) AppendLogEntry(_ context.Context, taskID string, entry domain.TaskLogEntry, state domain.TaskState) (domain.Task, error) {
	if s.err != nil {
		return domain.Task{}, s.err
	}
	task, ok := s.tasks[taskID]
	if !ok {
		return domain.Task{}, stubNotFound()
	}
	task.Log = append(task.Log, entry)
	task.State = state
	task.UpdatedAt = entry.CreatedAt
	s.tasks[taskID] = task
	s.appended = append(s.appended, appendedEntry{taskID: taskID, entry: entry, state: state})
	return task, nil
}
