package catalog

import (
	"github.com/roxosabor/storefront-api/internal/pricing"
)

// StoreInfo is the public storefront metadata shown on the landing page.
type StoreInfo struct {
	Name         string  `json:"name"`
	Tagline      string  `json:"tagline"`
	Hours        string  `json:"hours"`
	Status       string  `json:"status"`
	Rating       float64 `json:"rating"`
	ReviewsCount int     `json:"reviewsCount"`
	MinOrder     int64   `json:"minOrder"`
	LogoURL      string  `json:"logoUrl"`
	BannerURL    string  `json:"bannerUrl"`
}

// Category groups products on the menu.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Product is a single menu entry. Prices are minor units.
type Product struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Price       pricing.Money `json:"price"`
	Image       string        `json:"image"`
	Category    string        `json:"category"`
	Popular     bool          `json:"isPopular,omitempty"`
}

// Seed returns the built-in menu. The storefront is single-merchant and the
// catalog is process-wide static data; there is no persistence behind it.
func Seed() (StoreInfo, []Category, []Product) {
	store := StoreInfo{
		Name:         "Roxo Sabor",
		Tagline:      "Açaí Premium & Cremoso",
		Hours:        "Todos os dias, 11h às 23h",
		Status:       "open",
		Rating:       4.9,
		ReviewsCount: 157,
		MinOrder:     1500,
		LogoURL:      "https://images.unsplash.com/photo-1623114112815-9988bc7f3730?q=80&w=100&auto=format&fit=crop",
		BannerURL:    "https://images.unsplash.com/photo-1590301157890-4810ed352733?q=80&w=1200&auto=format&fit=crop",
	}
	categories := []Category{
		{ID: "promos", Name: "🔥 Promoções"},
		{ID: "cup", Name: "🥤 No Copo"},
		{ID: "combos", Name: "🍱 Combos"},
		{ID: "extras", Name: "🍬 Adicionais"},
	}
	products := []Product{
		{
			ID:          "1",
			Name:        "Açaí Tradicional 500ml",
			Description: "Copo de 500ml com até 4 acompanhamentos grátis à sua escolha.",
			Price:       2690,
			Image:       "https://images.unsplash.com/photo-1590301157890-4810ed352733?q=80&w=800&auto=format&fit=crop",
			Category:    "cup",
			Popular:     true,
		},
		{
			ID:          "2",
			Name:        "Barca Roxo Sabor (G)",
			Description: "Aproximadamente 1kg de açaí, frutas frescas, leite condensado e guloseimas.",
			Price:       5490,
			Image:       "https://images.unsplash.com/photo-1623114112815-9988bc7f3730?q=80&w=800&auto=format&fit=crop",
			Category:    "combos",
			Popular:     true,
		},
	}
	return store, categories, products
}
