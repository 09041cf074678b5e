// Package dbtest opens isolated in-memory sqlite databases carrying the full buttery schema.
package dbtest

import (
	"testing"

	"github.com/angelmondragon/buttery-backend/pkg/db/models"
	"github.com/angelmondragon/buttery-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open returns a fresh database private to the calling test.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = conn.AutoMigrate(
		&models.User{},
		&models.Settings{},
		&models.Ingredient{},
		&models.MenuItem{},
		&models.MenuItemIngredient{},
		&models.Cart{},
		&models.CartItem{},
		&models.CartItemIngredient{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderItemIngredient{},
	)
	if err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

// Settings upserts the singleton settings row.
func Settings(t testing.TB, conn *gorm.DB, butteryOpen, grillOpen bool) {
	t.Helper()
	row := models.Settings{ID: models.SettingsID, ButteryOpen: butteryOpen, GrillOpen: grillOpen}
	if err := conn.Save(&row).Error; err != nil {
		t.Fatalf("save settings: %v", err)
	}
}

// Ingredient inserts an ingredient.
func Ingredient(t testing.TB, conn *gorm.DB, name string, inStock bool) models.Ingredient {
	t.Helper()
	row := models.Ingredient{Name: name, InStock: true}
	if err := conn.Create(&row).Error; err != nil {
		t.Fatalf("create ingredient %s: %v", name, err)
	}
	if !inStock {
		// gorm skips zero-value bools on create when a default exists.
		if err := conn.Model(&row).Update("in_stock", false).Error; err != nil {
			t.Fatalf("mark %s out of stock: %v", name, err)
		}
		row.InStock = false
	}
	return row
}

// Link describes one menu item ingredient for MenuItem.
type Link struct {
	Ingredient models.Ingredient
	Type       enums.IngredientType
	AddPrice   int64
}

// MenuItem inserts a menu item with its ingredient links.
func MenuItem(t testing.TB, conn *gorm.DB, name string, price int64, requiresGrill bool, links ...Link) models.MenuItem {
	t.Helper()
	item := models.MenuItem{Name: name, Price: price, RequiresGrill: requiresGrill}
	if err := conn.Omit("Ingredients").Create(&item).Error; err != nil {
		t.Fatalf("create menu item %s: %v", name, err)
	}
	for _, l := range links {
		link := models.MenuItemIngredient{
			MenuItemID:   item.ID,
			IngredientID: l.Ingredient.ID,
			Type:         l.Type,
			AddPrice:     l.AddPrice,
		}
		if err := conn.Omit("Ingredient").Create(&link).Error; err != nil {
			t.Fatalf("link %s to %s: %v", l.Ingredient.Name, name, err)
		}
		item.Ingredients = append(item.Ingredients, link)
	}
	return item
}

// User inserts a user.
func User(t testing.TB, conn *gorm.DB, netID, name string, role enums.UserRole) models.User {
	t.Helper()
	row := models.User{NetID: netID, Name: name, Email: netID + "@example.edu", Role: role}
	if err := conn.Create(&row).Error; err != nil {
		t.Fatalf("create user %s: %v", netID, err)
	}
	return row
}
