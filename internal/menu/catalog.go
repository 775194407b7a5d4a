package menu

// Item is a product on the menu. Prices are in VND.
type Item struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
}

// Category groups menu items.
type Category struct {
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

// Promotion is a running offer. Discount is a percentage.
type Promotion struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Discount    int    `json:"discount"`
	ValidUntil  string `json:"valid_until"`
}

// Menu is the full catalog served by GET /menu.
type Menu struct {
	Categories []Category  `json:"categories"`
	Promotions []Promotion `json:"promotions"`
}

var catalog = Menu{
	Categories: []Category{
		{
			Name: "Bánh ngọt tươi",
			Items: []Item{
				{ID: 1, Name: "Bánh tiramisu", Price: 45000, Description: "Bánh tiramisu truyền thống Ý"},
				{ID: 2, Name: "Bánh chocolate", Price: 35000, Description: "Bánh chocolate đậm đà"},
				{ID: 3, Name: "Bánh cheesecake", Price: 40000, Description: "Cheesecake mềm mịn"},
				{ID: 4, Name: "Bánh croissant", Price: 25000, Description: "Croissant giòn xốp"},
			},
		},
		{
			Name: "Đồ ăn nhanh",
			Items: []Item{
				{ID: 5, Name: "Burger bò", Price: 65000, Description: "Burger bò với rau tươi"},
				{ID: 6, Name: "Sandwich gà", Price: 55000, Description: "Sandwich gà nướng"},
				{ID: 7, Name: "Khoai tây chiên", Price: 30000, Description: "Khoai tây chiên giòn"},
				{ID: 8, Name: "Gà rán", Price: 75000, Description: "Gà rán giòn với sốt đặc biệt"},
			},
		},
		{
			Name: "Đồ uống",
			Items: []Item{
				{ID: 9, Name: "Cà phê đen", Price: 25000, Description: "Cà phê đen đậm đà"},
				{ID: 10, Name: "Cà phê sữa", Price: 30000, Description: "Cà phê sữa ngọt ngào"},
				{ID: 11, Name: "Smoothie dâu", Price: 45000, Description: "Smoothie dâu tươi"},
				{ID: 12, Name: "Trà sữa", Price: 35000, Description: "Trà sữa thơm ngon"},
			},
		},
	},
	Promotions: []Promotion{
		{ID: 1, Name: "Combo bữa sáng", Description: "Bánh + cà phê chỉ 50,000đ", Discount: 20, ValidUntil: "2024-12-31"},
		{ID: 2, Name: "Giảm giá giao hàng", Description: "Miễn phí giao hàng cho đơn từ 200,000đ", Discount: 0, ValidUntil: "2024-12-31"},
	},
}

// Catalog returns a copy of the static menu.
func Catalog() Menu {
	out := Menu{
		Categories: make([]Category, len(catalog.Categories)),
		Promotions: append([]Promotion(nil), catalog.Promotions...),
	}
	for i, c := range catalog.Categories {
		out.Categories[i] = Category{Name: c.Name, Items: append([]Item(nil), c.Items...)}
	}
	return out
}

// Lookup finds a menu item by id.
func Lookup(id int64) (Item, bool) {
	for _, c := range catalog.Categories {
		for _, it := range c.Items {
			if it.ID == id {
				return it, true
			}
		}
	}
	return Item{}, false
}
