// Package catalog serves the read-only menu the terminals sell from.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/cloudkitchen/pkg/config"
	"github.com/example/cloudkitchen/pkg/models"
	"github.com/example/cloudkitchen/pkg/repository"
)

var ErrUnknownItem = errors.New("unknown menu item")

// Catalog is immutable after construction and safe for concurrent use.
type Catalog struct {
	categories []string
	byCategory map[string][]models.MenuItem
	byName     map[string]models.MenuItem
}

// New indexes items, keeping categories in order of first appearance. A
// repeated name keeps its first entry.
func New(items []models.MenuItem) *Catalog {
	c := &Catalog{
		byCategory: make(map[string][]models.MenuItem),
		byName:     make(map[string]models.MenuItem),
	}
	for _, item := range items {
		if _, dup := c.byName[item.Name]; dup {
			continue
		}
		if _, ok := c.byCategory[item.Category]; !ok {
			c.categories = append(c.categories, item.Category)
		}
		c.byCategory[item.Category] = append(c.byCategory[item.Category], item)
		c.byName[item.Name] = item
	}
	return c
}

func Default() *Catalog {
	return New(DefaultItems())
}

func (c *Catalog) Categories() []string {
	return append([]string(nil), c.categories...)
}

// Items lists one category. The second result is false for an unknown
// category.
func (c *Catalog) Items(category string) ([]models.MenuItem, bool) {
	items, ok := c.byCategory[category]
	if !ok {
		return nil, false
	}
	return append([]models.MenuItem(nil), items...), true
}

func (c *Catalog) Lookup(name string) (models.MenuItem, error) {
	item, ok := c.byName[name]
	if !ok {
		return models.MenuItem{}, fmt.Errorf("%w: %q", ErrUnknownItem, name)
	}
	return item, nil
}

// CartItem converts a menu entry into a single cart line.
func CartItem(item models.MenuItem) models.CartItem {
	return models.CartItem{
		Name:     item.Name,
		Price:    item.Price,
		Image:    item.Image,
		Quantity: 1,
	}
}

// Source is a persistent menu store.
type Source interface {
	Seed(ctx context.Context, items []models.MenuItem) (int, error)
	List(ctx context.Context) ([]models.MenuItem, error)
}

// FromSource seeds an empty source with the default menu and loads it.
func FromSource(ctx context.Context, src Source, logger *zap.Logger) (*Catalog, error) {
	n, err := src.Seed(ctx, DefaultItems())
	if err != nil {
		return nil, err
	}
	if n > 0 {
		logger.Info("Seeded menu catalog", zap.Int("items", n))
	}

	items, err := src.List(ctx)
	if err != nil {
		return nil, err
	}
	return New(items), nil
}

// Load builds the catalog named by cfg.Catalog.Source. The returned close
// function releases any database handle.
func Load(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Catalog, func() error, error) {
	if cfg.Catalog.Source != "mysql" {
		return Default(), func() error { return nil }, nil
	}

	repo, err := repository.NewCatalogRepository(&cfg.MySQL)
	if err != nil {
		return nil, nil, err
	}
	c, err := FromSource(ctx, repo, logger)
	if err != nil {
		repo.Close()
		return nil, nil, err
	}
	return c, repo.Close, nil
}
