package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"

	domain "github.com/sixnames/next-marketplace-sub004/internal/domain"
	pfirestore "github.com/sixnames/next-marketplace-sub004/internal/platform/firestore"
)

const (
	productsCollection      = "products"
	rubricsCollection       = "rubrics"
	attributesCollection    = "attributes"
	optionsCollection       = "options"
	brandsCollection        = "brands"
	manufacturersCollection = "manufacturers"
	collectionsCollection   = "collections"
	categoriesCollection    = "categories"

	// Firestore caps "in" and "array-contains-any" filters at ten values.
	maxDisjunctionValues = 10
)

// CatalogRepository is the Firestore implementation of repositories.CatalogRepository.
type CatalogRepository struct {
	products      *pfirestore.Collection[productDocument]
	rubrics       *pfirestore.Collection[rubricDocument]
	attributes    *pfirestore.Collection[attributeDocument]
	options       *pfirestore.Collection[optionDocument]
	brands        *pfirestore.Collection[catalogRefDocument]
	manufacturers *pfirestore.Collection[catalogRefDocument]
	collections   *pfirestore.Collection[catalogRefDocument]
	categories    *pfirestore.Collection[catalogRefDocument]
}

// NewCatalogRepository binds the catalog collections to the shared provider.
func NewCatalogRepository(provider *pfirestore.Provider) (*CatalogRepository, error) {
	if provider == nil {
		return nil, errors.New("catalog repository requires firestore provider")
	}
	return &CatalogRepository{
		products:      pfirestore.NewCollection[productDocument](provider, productsCollection),
		rubrics:       pfirestore.NewCollection[rubricDocument](provider, rubricsCollection),
		attributes:    pfirestore.NewCollection[attributeDocument](provider, attributesCollection),
		options:       pfirestore.NewCollection[optionDocument](provider, optionsCollection),
		brands:        pfirestore.NewCollection[catalogRefDocument](provider, brandsCollection),
		manufacturers: pfirestore.NewCollection[catalogRefDocument](provider, manufacturersCollection),
		collections:   pfirestore.NewCollection[catalogRefDocument](provider, collectionsCollection),
		categories:    pfirestore.NewCollection[catalogRefDocument](provider, categoriesCollection),
	}, nil
}

// FindProductByID fetches a single product record.
func (r *CatalogRepository) FindProductByID(ctx context.Context, productID string) (domain.Product, error) {
	doc, err := r.products.Get(ctx, productID)
	if err != nil {
		return domain.Product{}, err
	}
	return doc.toDomain(productID), nil
}

// FindProductBySlug fetches the product carrying the given slug.
func (r *CatalogRepository) FindProductBySlug(ctx context.Context, slug string) (domain.Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return domain.Product{}, pfirestore.NotFoundError("products.findbyslug", errors.New("slug is empty"))
	}
	docs, err := r.products.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("slug", "==", slug).Limit(1)
	})
	if err != nil {
		return domain.Product{}, err
	}
	if len(docs) == 0 {
		return domain.Product{}, pfirestore.NotFoundError("products.findbyslug", fmt.Errorf("product %q not found", slug))
	}
	return docs[0].Data.toDomain(docs[0].ID), nil
}

// FindProductsByIDs fetches many products in one round trip. Missing IDs are
// skipped, not reported.
func (r *CatalogRepository) FindProductsByIDs(ctx context.Context, productIDs []string) ([]domain.Product, error) {
	docs, err := r.products.GetAll(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.Data.toDomain(doc.ID))
	}
	return out, nil
}

// FindProductsByBarcodes returns every product carrying at least one of the
// given barcodes. Queries are chunked to respect the disjunction limit and
// results are deduplicated by product ID.
func (r *CatalogRepository) FindProductsByBarcodes(ctx context.Context, barcodes []string) ([]domain.Product, error) {
	values := dedupeNonEmpty(barcodes)
	if len(values) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{})
	var out []domain.Product
	for _, chunk := range chunkStrings(values, maxDisjunctionValues) {
		chunk := chunk
		docs, err := r.products.Query(ctx, func(q firestore.Query) firestore.Query {
			return q.Where("barcode", "array-contains-any", chunk)
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

// UpsertProduct writes the complete product record under its ID.
func (r *CatalogRepository) UpsertProduct(ctx context.Context, product domain.Product) error {
	if strings.TrimSpace(product.ID) == "" {
		return errors.New("catalog upsert: product id is required")
	}
	return r.products.Set(ctx, product.ID, newProductDocument(product))
}

// IncrementProductViews bumps the per-company view counter atomically.
func (r *CatalogRepository) IncrementProductViews(ctx context.Context, productID, companySlug string, delta int64) error {
	companySlug = strings.TrimSpace(companySlug)
	if companySlug == "" {
		return errors.New("catalog views: company slug is required")
	}
	return r.products.Update(ctx, productID, []firestore.Update{{
		FieldPath: firestore.FieldPath{"views", companySlug},
		Value:     firestore.Increment(delta),
	}})
}

// FindRubricByID fetches one rubric.
func (r *CatalogRepository) FindRubricByID(ctx context.Context, rubricID string) (domain.Rubric, error) {
	doc, err := r.rubrics.Get(ctx, rubricID)
	if err != nil {
		return domain.Rubric{}, err
	}
	return doc.toDomain(rubricID), nil
}

// FindAttributesByIDs batch-fetches attribute definitions. Missing IDs are skipped.
func (r *CatalogRepository) FindAttributesByIDs(ctx context.Context, attributeIDs []string) ([]domain.AttributeDef, error) {
	docs, err := r.attributes.GetAll(ctx, attributeIDs)
	if err != nil {
		return nil, err
	}
	out := make([]domain.AttributeDef, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.Data.toDomain(doc.ID))
	}
	return out, nil
}

// FindOptionsByIDs batch-fetches options. Missing IDs are skipped.
func (r *CatalogRepository) FindOptionsByIDs(ctx context.Context, optionIDs []string) ([]domain.Option, error) {
	docs, err := r.options.GetAll(ctx, optionIDs)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Option, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.Data.toDomain(doc.ID))
	}
	return out, nil
}

// FindBrandBySlug fetches the brand record addressed by slug.
func (r *CatalogRepository) FindBrandBySlug(ctx context.Context, slug string) (domain.CatalogRef, error) {
	return findRefBySlug(ctx, r.brands, "brands", slug)
}

// FindManufacturerBySlug fetches the manufacturer record addressed by slug.
func (r *CatalogRepository) FindManufacturerBySlug(ctx context.Context, slug string) (domain.CatalogRef, error) {
	return findRefBySlug(ctx, r.manufacturers, "manufacturers", slug)
}

// FindCollectionBySlug fetches the collection record addressed by slug.
func (r *CatalogRepository) FindCollectionBySlug(ctx context.Context, slug string) (domain.CatalogRef, error) {
	return findRefBySlug(ctx, r.collections, "collections", slug)
}

// FindCategoriesBySlugs fetches the rubric's category records for the given
// slugs. Unknown slugs are skipped.
func (r *CatalogRepository) FindCategoriesBySlugs(ctx context.Context, rubricID string, slugs []string) ([]domain.CatalogRef, error) {
	values := dedupeNonEmpty(slugs)
	if len(values) == 0 {
		return nil, nil
	}

	var out []domain.CatalogRef
	for _, chunk := range chunkStrings(values, maxDisjunctionValues) {
		chunk := chunk
		docs, err := r.categories.Query(ctx, func(q firestore.Query) firestore.Query {
			return q.Where("rubricId", "==", rubricID).Where("slug", "in", chunk)
		})
		if err != nil {
			return nil, err
		}
		for _, doc := range docs {
			out = append(out, doc.Data.toDomain(doc.ID))
		}
	}
	return out, nil
}

func findRefBySlug(ctx context.Context, coll *pfirestore.Collection[catalogRefDocument], name, slug string) (domain.CatalogRef, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return domain.CatalogRef{}, pfirestore.NotFoundError(name+".findbyslug", errors.New("slug is empty"))
	}
	docs, err := coll.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("slug", "==", slug).Limit(1)
	})
	if err != nil {
		return domain.CatalogRef{}, err
	}
	if len(docs) == 0 {
		return domain.CatalogRef{}, pfirestore.NotFoundError(name+".findbyslug", fmt.Errorf("%s %q not found", name, slug))
	}
	return docs[0].Data.toDomain(docs[0].ID), nil
}

func dedupeNonEmpty(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func chunkStrings(values []string, size int) [][]string {
	if size <= 0 || len(values) == 0 {
		return nil
	}
	chunks := make([][]string, 0, (len(values)+size-1)/size)
	for start := 0; start < len(values); start += size {
		end := start + size
		if end > len(values) {
			end = len(values)
		}
		chunks = append(chunks, values[start:end])
	}
	return chunks
}
