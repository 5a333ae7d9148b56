package product

// Product is a catalog entry. Stock reflects the last-known value from
// whichever source served it, the order service or the local ledger.
type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	Stock       int     `json:"stock"`
}

// Catalog returns the seeded demo catalog. It serves two purposes: the
// product listing when the order service is unreachable, and the initial
// inventory document of the fallback ledger.
func Catalog() []Product {
	return []Product{
		{ID: 1, Name: "Wireless Earbuds", Description: "Noise-cancelling wireless earbuds with 24h battery", Price: 49.99, Currency: "USD", Stock: 50},
		{ID: 2, Name: "USB-C Hub", Description: "7-in-1 USB-C hub with HDMI and SD card reader", Price: 39.99, Currency: "USD", Stock: 30},
		{ID: 3, Name: "Mechanical Keyboard", Description: "RGB mechanical keyboard with Cherry MX switches", Price: 89.99, Currency: "USD", Stock: 20},
		{ID: 4, Name: "Monitor Stand", Description: "Adjustable aluminum monitor stand", Price: 29.99, Currency: "USD", Stock: 45},
		{ID: 5, Name: "Webcam HD", Description: "1080p webcam with built-in microphone", Price: 59.99, Currency: "USD", Stock: 25},
		{ID: 6, Name: "Laptop Sleeve", Description: "Water-resistant laptop sleeve for 13-15\" laptops", Price: 24.99, Currency: "USD", Stock: 60},
	}
}

// ByID looks a product up in the seeded catalog.
func ByID(id int64) (Product, bool) {
	for _, p := range Catalog() {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}
