package repository

import (
	"context"
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/example/cloudkitchen/pkg/config"
	"github.com/example/cloudkitchen/pkg/models"
)

// CatalogRepository persists the menu in MySQL.
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(cfg *config.MySQLConfig) (*CatalogRepository, error) {
	// Connect to MySQL
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	return NewCatalogRepositoryFromDB(db)
}

func NewCatalogRepositoryFromDB(db *gorm.DB) (*CatalogRepository, error) {
	// Auto migrate
	if err := db.AutoMigrate(&models.MenuItem{}); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return &CatalogRepository{db: db}, nil
}

// Seed inserts items when the table is empty and reports how many rows it
// wrote.
func (r *CatalogRepository) Seed(ctx context.Context, items []models.MenuItem) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.MenuItem{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count menu items: %w", err)
	}
	if count > 0 || len(items) == 0 {
		return 0, nil
	}

	rows := make([]models.MenuItem, len(items))
	copy(rows, items)
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return 0, fmt.Errorf("failed to seed menu items: %w", err)
	}
	return len(rows), nil
}

// List returns every menu item in menu order.
func (r *CatalogRepository) List(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := r.db.WithContext(ctx).
		Order("position ASC").
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list menu items: %w", err)
	}
	return items, nil
}

func (r *CatalogRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
