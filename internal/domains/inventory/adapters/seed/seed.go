// Package seed loads catalog fixtures from YAML so the in-memory catalog is
// usable without a database.
package seed

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/Apurer/go-gin-storefront/internal/domains/inventory/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/inventory/ports"
)

type file struct {
	Products []productEntry `yaml:"products"`
}

type productEntry struct {
	ID          string      `yaml:"id"`
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Price       string      `yaml:"price"`
	Stock       int         `yaml:"stock"`
	Categories  []string    `yaml:"categories"`
	Tags        []string    `yaml:"tags"`
	Sizes       []sizeEntry `yaml:"sizes"`
}

type sizeEntry struct {
	Name       string `yaml:"name"`
	Dimensions string `yaml:"dimensions"`
	Price      string `yaml:"price"`
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) ([]*domain.Product, error) {
	var doc file
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog seed: %w", err)
	}
	products := make([]*domain.Product, 0, len(doc.Products))
	for _, entry := range doc.Products {
		price, err := decimal.NewFromString(entry.Price)
		if err != nil {
			return nil, fmt.Errorf("product %s: price %q: %w", entry.ID, entry.Price, err)
		}
		product := &domain.Product{
			ID:          entry.ID,
			Name:        entry.Name,
			Description: entry.Description,
			Price:       price,
			Stock:       entry.Stock,
			Categories:  entry.Categories,
			Tags:        entry.Tags,
		}
		for _, s := range entry.Sizes {
			sizePrice, err := decimal.NewFromString(s.Price)
			if err != nil {
				return nil, fmt.Errorf("product %s size %s: price %q: %w", entry.ID, s.Name, s.Price, err)
			}
			product.Sizes = append(product.Sizes, domain.Size{Name: s.Name, Dimensions: s.Dimensions, Price: sizePrice})
		}
		if err := product.Validate(); err != nil {
			return nil, fmt.Errorf("product %s: %w", entry.ID, err)
		}
		products = append(products, product)
	}
	return products, nil
}

// LoadFile reads path and upserts every product into catalog. It returns the number loaded.
func LoadFile(ctx context.Context, path string, catalog ports.Catalog) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	products, err := Parse(data)
	if err != nil {
		return 0, err
	}
	for _, product := range products {
		if err := catalog.UpsertProduct(ctx, product); err != nil {
			return 0, fmt.Errorf("seed product %s: %w", product.ID, err)
		}
	}
	return len(products), nil
}
