package handlers

import (
	"time"

	domain "github.com/sixnames/next-marketplace-sub004/internal/domain"
)

type resolvedRefPayload struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type resolvedOptionPayload struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type summaryAttributePayload struct {
	AttributeID string                  `json:"attributeId"`
	Name        string                  `json:"name"`
	Text        string                  `json:"text,omitempty"`
	Number      *float64                `json:"number,omitempty"`
	Options     []resolvedOptionPayload `json:"options,omitempty"`
}

type summaryLitePayload struct {
	ID        string `json:"id"`
	Slug      string `json:"slug"`
	ItemID    string `json:"itemId"`
	CardTitle string `json:"cardTitle"`
}

type variantItemPayload struct {
	Product   summaryLitePayload    `json:"product"`
	Option    resolvedOptionPayload `json:"option"`
	IsCurrent bool                  `json:"isCurrent"`
}

type variantGroupPayload struct {
	AttributeID string               `json:"attributeId"`
	Name        string               `json:"name"`
	Items       []variantItemPayload `json:"items"`
}

type connectionItemPayload struct {
	Product summaryLitePayload    `json:"product"`
	Option  resolvedOptionPayload `json:"option"`
}

type connectionGroupPayload struct {
	AttributeID string                  `json:"attributeId"`
	Name        string                  `json:"name"`
	Items       []connectionItemPayload `json:"items"`
}

type summaryPayload struct {
	ID               string                    `json:"id"`
	Slug             string                    `json:"slug"`
	ItemID           string                    `json:"itemId"`
	CardTitle        string                    `json:"cardTitle"`
	SnippetTitle     string                    `json:"snippetTitle,omitempty"`
	Rubric           resolvedRefPayload        `json:"rubric"`
	BrandSlug        string                    `json:"brandSlug,omitempty"`
	ManufacturerSlug string                    `json:"manufacturerSlug,omitempty"`
	CollectionSlug   string                    `json:"collectionSlug,omitempty"`
	Categories       []resolvedRefPayload      `json:"categories,omitempty"`
	Attributes       []summaryAttributePayload `json:"attributes,omitempty"`
	Variants         []variantGroupPayload     `json:"variants,omitempty"`
	Connections      []connectionGroupPayload  `json:"connections,omitempty"`
	Barcode          []string                  `json:"barcode,omitempty"`
	Active           bool                      `json:"active"`
	AllowDelivery    bool                      `json:"allowDelivery"`
	Views            int64                     `json:"views"`
	CreatedAt        time.Time                 `json:"createdAt"`
	UpdatedAt        time.Time                 `json:"updatedAt"`
}

func buildSummaryPayload(summary domain.ProductSummary) summaryPayload {
	payload := summaryPayload{
		ID:               summary.ID,
		Slug:             summary.Slug,
		ItemID:           summary.ItemID,
		CardTitle:        summary.CardTitle,
		SnippetTitle:     summary.SnippetTitle,
		Rubric:           resolvedRefPayload(summary.Rubric),
		BrandSlug:        summary.BrandSlug,
		ManufacturerSlug: summary.ManufacturerSlug,
		CollectionSlug:   summary.CollectionSlug,
		Barcode:          summary.Barcode,
		Active:           summary.Active,
		AllowDelivery:    summary.AllowDelivery,
		Views:            summary.Views,
		CreatedAt:        summary.CreatedAt,
		UpdatedAt:        summary.UpdatedAt,
	}
	for _, category := range summary.Categories {
		payload.Categories = append(payload.Categories, resolvedRefPayload(category))
	}
	for _, attr := range summary.Attributes {
		attrPayload := summaryAttributePayload{
			AttributeID: attr.AttributeID,
			Name:        attr.Name,
			Text:        attr.Text,
			Number:      attr.Number,
		}
		for _, option := range attr.Options {
			attrPayload.Options = append(attrPayload.Options, resolvedOptionPayload(option))
		}
		payload.Attributes = append(payload.Attributes, attrPayload)
	}
	for _, group := range summary.Variants {
		groupPayload := variantGroupPayload{
			AttributeID: group.AttributeID,
			Name:        group.Name,
			Items:       make([]variantItemPayload, 0, len(group.Items)),
		}
		for _, item := range group.Items {
			groupPayload.Items = append(groupPayload.Items, variantItemPayload{
				Product:   summaryLitePayload(item.Product),
				Option:    resolvedOptionPayload(item.Option),
				IsCurrent: item.IsCurrent,
			})
		}
		payload.Variants = append(payload.Variants, groupPayload)
	}
	for _, group := range summary.Connections {
		groupPayload := connectionGroupPayload{
			AttributeID: group.AttributeID,
			Name:        group.Name,
			Items:       make([]connectionItemPayload, 0, len(group.Items)),
		}
		for _, item := range group.Items {
			groupPayload.Items = append(groupPayload.Items, connectionItemPayload{
				Product: summaryLitePayload(item.Product),
				Option:  resolvedOptionPayload(item.Option),
			})
		}
		payload.Connections = append(payload.Connections, groupPayload)
	}
	return payload
}

type facetPayload struct {
	ID               string   `json:"id"`
	Slug             string   `json:"slug"`
	ItemID           string   `json:"itemId"`
	RubricID         string   `json:"rubricId"`
	RubricSlug       string   `json:"rubricSlug"`
	BrandSlug        string   `json:"brandSlug,omitempty"`
	ManufacturerSlug string   `json:"manufacturerSlug,omitempty"`
	CollectionSlug   string   `json:"collectionSlug,omitempty"`
	CategorySlugs    []string `json:"categorySlugs,omitempty"`
	AttributeIDs     []string `json:"attributeIds,omitempty"`
	Barcode          []string `json:"barcode,omitempty"`
	Active           bool     `json:"active"`
	AllowDelivery    bool     `json:"allowDelivery"`
}

func buildFacetPayload(facet domain.ProductFacet) facetPayload {
	return facetPayload(facet)
}
