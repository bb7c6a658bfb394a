package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	domain "github.com/sixnames/next-marketplace-sub004/internal/domain"
	"github.com/sixnames/next-marketplace-sub004/internal/platform/i18n"
	"github.com/sixnames/next-marketplace-sub004/internal/repositories"
)

var (
	// ErrSummaryRepositoryMissing indicates the repository dependency is absent.
	ErrSummaryRepositoryMissing = errors.New("summary service: repository is not configured")
	// ErrSummaryNotFound indicates the product or its rubric cannot be resolved;
	// assembly fails closed rather than emitting a partial summary.
	ErrSummaryNotFound = errors.New("summary service: summary not found")
	// ErrSummaryInvalidInput indicates the caller supplied unusable query inputs.
	ErrSummaryInvalidInput = errors.New("summary service: invalid input")
)

// SummaryServiceDeps bundles constructor inputs for the summary service.
type SummaryServiceDeps struct {
	Catalog repositories.CatalogRepository
	Tasks   repositories.TaskRepository
	Logger  *zap.Logger
	// DefaultLocale is the storage locale resolution falls back to.
	DefaultLocale string
	// DefaultCompanySlug keys the view counter when no company context is given.
	DefaultCompanySlug string
}

type summaryService struct {
	catalog        repositories.CatalogRepository
	tasks          repositories.TaskRepository
	logger         *zap.Logger
	defaultLocale  string
	defaultCompany string
}

// NewSummaryService constructs the summary service with the supplied dependencies.
func NewSummaryService(deps SummaryServiceDeps) (SummaryService, error) {
	if deps.Catalog == nil {
		return nil, fmt.Errorf("summary service: catalog repository is required")
	}
	if deps.Tasks == nil {
		return nil, fmt.Errorf("summary service: task repository is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	defaultLocale := i18n.Canonical(deps.DefaultLocale)
	if defaultLocale == "" {
		defaultLocale = i18n.DefaultLocale
	}
	defaultCompany := deps.DefaultCompanySlug
	if defaultCompany == "" {
		defaultCompany = "default"
	}
	return &summaryService{
		catalog:        deps.Catalog,
		tasks:          deps.Tasks,
		logger:         logger,
		defaultLocale:  defaultLocale,
		defaultCompany: defaultCompany,
	}, nil
}

// Assemble builds the canonical locale-resolved summary for one product.
// Assembly is read-only and idempotent: repeated calls with no intervening
// writes yield structurally identical summaries.
func (s *summaryService) Assemble(ctx context.Context, productID, locale, companySlug string) (ProductSummary, error) {
	product, err := s.fetchProduct(ctx, productID)
	if err != nil {
		return ProductSummary{}, err
	}
	return s.assembleFromProduct(ctx, product, locale, companySlug)
}

// AssemblePreview assembles a summary from the supplied record rather than
// the stored one. Taxonomy, variants and connections still resolve against
// live data; only the record itself is the caller's.
func (s *summaryService) AssemblePreview(ctx context.Context, product Product, locale, companySlug string) (ProductSummary, error) {
	if product.ID == "" {
		return ProductSummary{}, ErrSummaryInvalidInput
	}
	return s.assembleFromProduct(ctx, product, locale, companySlug)
}

// AssembleWithDraft composes assembly with the moderation draft overlay gate.
// The gate enumerates all four isContentManager/hasTaskID states explicitly:
// a content manager without a task id, with a task that cannot be loaded, or
// with a task belonging to a different product fails closed to not-found; a
// task with an empty log yields the canonical
// summary; a usable draft snapshot replaces the summary wholesale.
func (s *summaryService) AssembleWithDraft(ctx context.Context, query SummaryQuery) (ProductSummary, error) {
	if !query.IsContentManager {
		return s.Assemble(ctx, query.ProductID, query.Locale, query.CompanySlug)
	}
	if query.TaskID == "" {
		return ProductSummary{}, ErrSummaryNotFound
	}

	task, err := s.tasks.FindTaskByID(ctx, query.TaskID)
	if err != nil {
		if isRepoNotFound(err) {
			return ProductSummary{}, ErrSummaryNotFound
		}
		return ProductSummary{}, err
	}
	if task.ProductID != query.ProductID {
		// A task for another product must not leak its draft here.
		return ProductSummary{}, ErrSummaryNotFound
	}

	if draft := task.LastDraft(); draft != nil {
		return *draft, nil
	}
	return s.Assemble(ctx, query.ProductID, query.Locale, query.CompanySlug)
}

// RegisterCardView bumps the per-company view counter for a product card.
func (s *summaryService) RegisterCardView(ctx context.Context, productID, companySlug string) error {
	if productID == "" {
		return ErrSummaryInvalidInput
	}
	if companySlug == "" {
		companySlug = s.defaultCompany
	}
	err := s.catalog.IncrementProductViews(ctx, productID, companySlug, 1)
	if err != nil && isRepoNotFound(err) {
		return ErrSummaryNotFound
	}
	return err
}

func (s *summaryService) fetchProduct(ctx context.Context, productID string) (domain.Product, error) {
	if productID == "" {
		return domain.Product{}, ErrSummaryInvalidInput
	}
	product, err := s.catalog.FindProductByID(ctx, productID)
	if err != nil {
		if isRepoNotFound(err) {
			return domain.Product{}, ErrSummaryNotFound
		}
		return domain.Product{}, err
	}
	return product, nil
}

func (s *summaryService) assembleFromProduct(ctx context.Context, product domain.Product, locale, companySlug string) (ProductSummary, error) {
	locale = i18n.Canonical(locale)
	if locale == "" {
		locale = s.defaultLocale
	}
	if companySlug == "" {
		companySlug = s.defaultCompany
	}

	rubric, err := s.catalog.FindRubricByID(ctx, product.RubricID)
	if err != nil {
		// A summary with no resolvable rubric is not a valid summary.
		if isRepoNotFound(err) {
			return ProductSummary{}, ErrSummaryNotFound
		}
		return ProductSummary{}, err
	}

	attributes, err := s.resolveAttributes(ctx, product, locale)
	if err != nil {
		return ProductSummary{}, err
	}
	categories, err := s.resolveCategories(ctx, product, locale)
	if err != nil {
		return ProductSummary{}, err
	}
	variants, err := s.buildVariantGroups(ctx, product, product.VariantAxes, locale, true)
	if err != nil {
		return ProductSummary{}, err
	}
	connectionGroups, err := s.buildVariantGroups(ctx, product, product.ConnectionAxes, locale, false)
	if err != nil {
		return ProductSummary{}, err
	}

	summary := ProductSummary{
		ID:           product.ID,
		Slug:         product.Slug,
		ItemID:       product.ItemID,
		CardTitle:    i18n.Resolve(product.CardTitleI18n, locale, s.defaultLocale),
		SnippetTitle: i18n.Resolve(product.SnippetTitleI18n, locale, s.defaultLocale),
		Rubric: domain.ResolvedRef{
			ID:   rubric.ID,
			Slug: rubric.Slug,
			Name: i18n.Resolve(rubric.NameI18n, locale, s.defaultLocale),
		},
		BrandSlug:        product.BrandSlug,
		ManufacturerSlug: product.ManufacturerSlug,
		CollectionSlug:   product.CollectionSlug,
		Categories:       categories,
		Attributes:       attributes,
		Variants:         variants,
		Connections:      toConnectionGroups(connectionGroups),
		Barcode:          product.Barcode,
		Active:           product.Active,
		AllowDelivery:    product.AllowDelivery,
		Views:            product.Views[companySlug],
		CreatedAt:        product.CreatedAt,
		UpdatedAt:        product.UpdatedAt,
	}
	return summary, nil
}

// resolveAttributes localizes the product's attribute bindings. Attributes
// whose definition cannot be found are omitted, never fatal.
func (s *summaryService) resolveAttributes(ctx context.Context, product domain.Product, locale string) ([]ProductAttribute, error) {
	if len(product.Attributes) == 0 {
		return nil, nil
	}

	attrIDs := make([]string, 0, len(product.Attributes))
	var optionIDs []string
	for _, ref := range product.Attributes {
		attrIDs = append(attrIDs, ref.AttributeID)
		optionIDs = append(optionIDs, ref.SelectedOptionIDs...)
	}

	defs, err := s.catalog.FindAttributesByIDs(ctx, attrIDs)
	if err != nil {
		return nil, err
	}
	defByID := make(map[string]domain.AttributeDef, len(defs))
	for _, def := range defs {
		defByID[def.ID] = def
	}

	optionByID, err := s.fetchOptions(ctx, optionIDs)
	if err != nil {
		return nil, err
	}

	out := make([]ProductAttribute, 0, len(product.Attributes))
	for _, ref := range product.Attributes {
		def, ok := defByID[ref.AttributeID]
		if !ok {
			s.logger.Debug("attribute definition missing, omitted from summary",
				zap.String("productId", product.ID),
				zap.String("attributeId", ref.AttributeID))
			continue
		}

		attr := ProductAttribute{
			AttributeID: def.ID,
			Name:        i18n.Resolve(def.NameI18n, locale, s.defaultLocale),
			Text:        i18n.Resolve(ref.TextI18n, locale, s.defaultLocale),
			Number:      ref.Number,
		}
		for _, optionID := range ref.SelectedOptionIDs {
			option, ok := optionByID[optionID]
			if !ok {
				s.logger.Debug("attribute option missing, omitted from summary",
					zap.String("productId", product.ID),
					zap.String("optionId", optionID))
				continue
			}
			attr.Options = append(attr.Options, domain.ResolvedOption{
				ID:   option.ID,
				Slug: option.Slug,
				Name: i18n.Resolve(option.NameI18n, locale, s.defaultLocale),
			})
		}
		out = append(out, attr)
	}
	return out, nil
}

func (s *summaryService) resolveCategories(ctx context.Context, product domain.Product, locale string) ([]domain.ResolvedRef, error) {
	if len(product.CategorySlugs) == 0 {
		return nil, nil
	}
	categories, err := s.catalog.FindCategoriesBySlugs(ctx, product.RubricID, product.CategorySlugs)
	if err != nil {
		if isRepoNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	bySlug := make(map[string]domain.CatalogRef, len(categories))
	for _, c := range categories {
		bySlug[c.Slug] = c
	}

	// Preserve the product's stored category order; unknown slugs are omitted.
	out := make([]domain.ResolvedRef, 0, len(product.CategorySlugs))
	for _, categorySlug := range product.CategorySlugs {
		category, ok := bySlug[categorySlug]
		if !ok {
			continue
		}
		out = append(out, domain.ResolvedRef{
			ID:   category.ID,
			Slug: category.Slug,
			Name: i18n.Resolve(category.NameI18n, locale, s.defaultLocale),
		})
	}
	return out, nil
}

// buildVariantGroups reconstructs sibling groups for the given axes. When
// pinCurrent is set the item matching the assembled product is re-ordered to
// the front via a stable partition; connection axes keep source order.
func (s *summaryService) buildVariantGroups(ctx context.Context, product domain.Product, axes []domain.VariantAxis, locale string, pinCurrent bool) ([]ProductVariantGroup, error) {
	if len(axes) == 0 {
		return nil, nil
	}

	attrIDs := make([]string, 0, len(axes))
	var siblingIDs, optionIDs []string
	for _, axis := range axes {
		attrIDs = append(attrIDs, axis.AttributeID)
		for _, pair := range axis.Pairs {
			siblingIDs = append(siblingIDs, pair.ProductID)
			optionIDs = append(optionIDs, pair.OptionID)
		}
	}

	defs, err := s.catalog.FindAttributesByIDs(ctx, attrIDs)
	if err != nil {
		return nil, err
	}
	defByID := make(map[string]domain.AttributeDef, len(defs))
	for _, def := range defs {
		defByID[def.ID] = def
	}

	siblings, err := s.catalog.FindProductsByIDs(ctx, siblingIDs)
	if err != nil {
		return nil, err
	}
	siblingByID := make(map[string]domain.Product, len(siblings))
	for _, sibling := range siblings {
		siblingByID[sibling.ID] = sibling
	}

	optionByID, err := s.fetchOptions(ctx, optionIDs)
	if err != nil {
		return nil, err
	}

	groups := make([]ProductVariantGroup, 0, len(axes))
	for _, axis := range axes {
		def, ok := defByID[axis.AttributeID]
		if !ok {
			// An axis with an unknown defining attribute is meaningless.
			s.logger.Debug("variant axis attribute missing, axis skipped",
				zap.String("productId", product.ID),
				zap.String("attributeId", axis.AttributeID))
			continue
		}

		group := ProductVariantGroup{
			AttributeID: def.ID,
			Name:        i18n.Resolve(def.NameI18n, locale, s.defaultLocale),
		}
		for _, pair := range axis.Pairs {
			sibling, ok := siblingByID[pair.ProductID]
			if !ok {
				s.logger.Debug("variant sibling missing, pair dropped",
					zap.String("productId", product.ID),
					zap.String("siblingId", pair.ProductID))
				continue
			}
			option, ok := optionByID[pair.OptionID]
			if !ok {
				s.logger.Debug("variant option missing, pair dropped",
					zap.String("productId", product.ID),
					zap.String("optionId", pair.OptionID))
				continue
			}
			group.Items = append(group.Items, ProductVariantItem{
				Product: domain.SummaryLite{
					ID:        sibling.ID,
					Slug:      sibling.Slug,
					ItemID:    sibling.ItemID,
					CardTitle: i18n.Resolve(sibling.CardTitleI18n, locale, s.defaultLocale),
				},
				Option: domain.ResolvedOption{
					ID:   option.ID,
					Slug: option.Slug,
					Name: i18n.Resolve(option.NameI18n, locale, s.defaultLocale),
				},
				IsCurrent: pinCurrent && sibling.ID == product.ID,
			})
		}
		if pinCurrent {
			group.Items = pinCurrentFirst(group.Items)
		}
		// An empty group is still emitted: the axis name stays renderable.
		groups = append(groups, group)
	}
	return groups, nil
}

func (s *summaryService) fetchOptions(ctx context.Context, optionIDs []string) (map[string]domain.Option, error) {
	if len(optionIDs) == 0 {
		return nil, nil
	}
	options, err := s.catalog.FindOptionsByIDs(ctx, optionIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Option, len(options))
	for _, option := range options {
		byID[option.ID] = option
	}
	return byID, nil
}

// pinCurrentFirst moves the current item to index 0 while preserving the
// relative order of all other items: a stable partition, not a resort. At
// most one item keeps IsCurrent set.
func pinCurrentFirst(items []ProductVariantItem) []ProductVariantItem {
	currentIdx := -1
	for i := range items {
		if items[i].IsCurrent {
			if currentIdx == -1 {
				currentIdx = i
			} else {
				items[i].IsCurrent = false
			}
		}
	}
	if currentIdx <= 0 {
		return items
	}

	out := make([]ProductVariantItem, 0, len(items))
	out = append(out, items[currentIdx])
	out = append(out, items[:currentIdx]...)
	out = append(out, items[currentIdx+1:]...)
	return out
}

func toConnectionGroups(groups []ProductVariantGroup) []ConnectionGroup {
	if len(groups) == 0 {
		return nil
	}
	out := make([]ConnectionGroup, 0, len(groups))
	for _, group := range groups {
		connection := ConnectionGroup{
			AttributeID: group.AttributeID,
			Name:        group.Name,
		}
		for _, item := range group.Items {
			connection.Items = append(connection.Items, ConnectionItem{
				Product: item.Product,
				Option:  item.Option,
			})
		}
		out = append(out, connection)
	}
	return out
}

func isRepoNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}
