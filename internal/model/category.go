package model

import "time"

// DefaultColorTag is used when a category is created without a color.
const DefaultColorTag = "#3498db"

// Category groups transactions of a single type.
type Category struct {
	CreatedAt time.Time
	Name      string
	ColorTag  string
	Type      TransactionType
	ID        int64
}

// NewCategory holds the fields needed to create a category.
type NewCategory struct {
	Name     string          `validate:"notblank,max=100"`
	ColorTag string          `validate:"max=32"`
	Type     TransactionType `validate:"txtype"`
}

// CategoryUpdate lists the mutable fields of a category. Nil fields are left untouched.
type CategoryUpdate struct {
	Name     *string
	ColorTag *string
	Type     *TransactionType
}

// IsEmpty reports whether the update changes nothing.
func (u CategoryUpdate) IsEmpty() bool {
	return u.Name == nil && u.ColorTag == nil && u.Type == nil
}

// DefaultCategories is the starter set created for an empty ledger.
func DefaultCategories() []NewCategory {
	return []NewCategory{
		{Name: "Salary", Type: TypeIncome, ColorTag: "#27ae60"},
		{Name: "Investments", Type: TypeIncome, ColorTag: "#3498db"},
		{Name: "Gifts", Type: TypeIncome, ColorTag: "#9b59b6"},
		{Name: "Other Income", Type: TypeIncome, ColorTag: "#f1c40f"},

		{Name: "Housing", Type: TypeExpense, ColorTag: "#e74c3c"},
		{Name: "Transportation", Type: TypeExpense, ColorTag: "#e67e22"},
		{Name: "Food", Type: TypeExpense, ColorTag: "#d35400"},
		{Name: "Utilities", Type: TypeExpense, ColorTag: "#c0392b"},
		{Name: "Entertainment", Type: TypeExpense, ColorTag: "#8e44ad"},
		{Name: "Health", Type: TypeExpense, ColorTag: "#16a085"},
		{Name: "Shopping", Type: TypeExpense, ColorTag: "#2c3e50"},
		{Name: "Personal", Type: TypeExpense, ColorTag: "#7f8c8d"},
		{Name: "Education", Type: TypeExpense, ColorTag: "#2980b9"},
		{Name: "Other Expenses", Type: TypeExpense, ColorTag: "#95a5a6"},
	}
}
