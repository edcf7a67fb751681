package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/example/cloudkitchen/pkg/models"
)

type seed struct {
	name  string
	price int64
	image string
	desc  string
}

var defaultMenu = []struct {
	category string
	items    []seed
}{
	{"indian", []seed{
		{"Paneer Butter Masala", 180, "indian1.jpg", "Creamy tomato-based gravy"},
		{"Roti with Curry", 120, "indian2.jpg", "Soft roti with spicy curry"},
	}},
	{"gravy", []seed{
		{"Chettinad Chicken Gravy", 200, "gravy1.jpg", "Spicy South Indian flavor"},
		{"Mutton Pepper Gravy", 250, "gravy2.jpg", "Rich peppery gravy"},
	}},
	{"biryani", []seed{
		{"Hyderabadi Chicken Biryani", 230, "biryani1.jpg", "Fragrant rice & tender chicken"},
		{"Veg Biryani", 180, "biryani2.jpg", "Perfect for vegetarians"},
	}},
	{"pizza", []seed{
		{"Cheese Burst Pizza", 299, "pizza1.jpg", "Loaded with cheese"},
		{"Margherita Pizza", 249, "pizza2.jpg", "Classic Italian delight"},
	}},
	{"burger", []seed{
		{"Chicken Zinger Burger", 150, "burger1.jpg", "Crispy & spicy"},
		{"Veg Supreme Burger", 120, "burger2.jpg", "Loaded with veggies"},
	}},
	{"starters", []seed{
		{"Chicken 65", 180, "starter1.jpg", "Crispy and flavorful"},
		{"Paneer Tikka", 160, "starter2.jpg", "Grilled cottage cheese"},
	}},
	{"beverages", []seed{
		{"Cold Coffee", 100, "beverage1.jpg", "Chilled & creamy"},
		{"Mojito", 90, "beverage2.jpg", "Refreshing minty drink"},
	}},
	{"desserts", []seed{
		{"Gulab Jamun", 80, "dessert1.jpg", "Sweet syrup balls"},
		{"Chocolate Brownie", 120, "dessert2.jpg", "Rich chocolate treat"},
	}},
}

// DefaultItems returns the built-in menu in display order.
func DefaultItems() []models.MenuItem {
	var items []models.MenuItem
	for _, group := range defaultMenu {
		for _, s := range group.items {
			items = append(items, models.MenuItem{
				Category:    group.category,
				Name:        s.name,
				Price:       decimal.NewFromInt(s.price),
				Image:       s.image,
				Description: s.desc,
				Position:    len(items),
			})
		}
	}
	return items
}
