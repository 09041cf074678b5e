package models

// Ingredient is a stock-tracked component of menu items.
type Ingredient struct {
	ID        int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string `gorm:"column:name;type:text;not null;uniqueIndex"`
	InStock   bool   `gorm:"column:in_stock;not null;default:true"`
	IsDefault bool   `gorm:"column:is_default;not null;default:false"`
}

func (Ingredient) TableName() string { return "ingredients" }
