// Package sample produces generated agricultural product candidates. It is
// used for development and as a fallback when the real sites yield nothing.
package sample

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	log "github.com/sirupsen/logrus"

	"agrisync/pkg/models"
)

const Site = "Sample Data"

var fertilizerNames = []string{
	"NPK 19:19:19 Fertilizer 50kg", "Urea 46% Nitrogen 45kg", "DAP Fertilizer 50kg",
	"Potash Fertilizer 25kg", "Organic Compost 40kg", "Vermicompost 20kg",
	"Liquid NPK Fertilizer 1L", "Calcium Nitrate 25kg", "Magnesium Sulphate 10kg",
	"Zinc Sulphate 5kg", "Boron Fertilizer 1kg", "Iron Chelate 500g",
	"Nitrogen Booster 20kg", "Potassium Chloride 25kg", "Organic Manure 50kg",
	"Bio Fertilizer 10kg", "Micronutrient Mix 5kg", "Sulphur Fertilizer 20kg",
	"Humic Acid 1L", "Seaweed Extract 500ml",
}

var seedNames = []string{
	"Hybrid Tomato Seeds F1", "Wheat Seeds HD-2967 10kg", "Rice Seeds Basmati 1121",
	"Corn Seeds Hybrid 900M", "Cotton Seeds Bt 450g", "Soybean Seeds JS-335",
	"Sunflower Seeds Hybrid KBSH-44", "Mustard Seeds Varuna", "Chili Seeds G4",
	"Onion Seeds Nasik Red", "Carrot Seeds Nantes", "Cabbage Seeds Golden Acre",
	"Okra Seeds Arka Anamika", "Cucumber Seeds Hybrid", "Watermelon Seeds Sugar Baby",
	"Bottle Gourd Seeds", "Bitter Gourd Seeds", "Spinach Seeds All Green",
	"Coriander Seeds Pant Haritima", "Groundnut Seeds",
}

var pesticideNames = []string{
	"Chlorpyrifos 20% EC 1L", "Imidacloprid 17.8% SL 250ml", "2,4-D Herbicide 500ml",
	"Glyphosate 41% SL 1L", "Mancozeb 75% WP 1kg", "Carbendazim 50% WP 500g",
	"Lambda Cyhalothrin 5% EC", "Atrazine 50% WP 1kg", "Copper Oxychloride 50% WP",
	"Thiamethoxam 25% WG", "Acetamiprid 20% SP", "Cypermethrin 10% EC",
	"Malathion 50% EC", "Profenofos 50% EC", "Fipronil 5% SC",
}

var equipmentNames = []string{
	"Drip Irrigation Kit 1 Acre", "Sprinkler System Complete", "Water Pump 3HP",
	"Tractor Rotavator 7ft", "Cultivator 9 Tyne", "Disc Harrow 20 Disc",
	"Seed Drill 9 Tyne", "Chaff Cutter Manual", "Spray Pump 16L",
	"Knapsack Sprayer", "Power Weeder", "Brush Cutter",
	"Garden Tools Set", "Watering Can 10L", "Shade Net 50%",
}

var brands = []string{
	"AgroTech", "FarmPro", "GreenGrow", "CropMax", "AgriStar",
	"BioFarm", "EcoGreen", "NutriCrop", "HarvestMax", "SeedMaster",
	"FertilePlus", "OrganicPro", "CropCare", "AgriBoost", "FarmFresh",
}

var categoryImages = map[string]string{
	"Fertilizers":    "https://images.unsplash.com/photo-1625246333195-78d9c38ad449?w=400&h=300&fit=crop&auto=format",
	"Seeds":          "https://images.unsplash.com/photo-1560493676-04071c5f467b?w=400&h=300&fit=crop&auto=format",
	"Pesticides":     "https://images.unsplash.com/photo-1416879595882-3373a0480b5b?w=400&h=300&fit=crop&auto=format",
	"Farm Equipment": "https://images.unsplash.com/photo-1581833971358-2c8b550f87b3?w=400&h=300&fit=crop&auto=format",
}

const defaultImage = "https://images.unsplash.com/photo-1574323347407-f5e1ad6d020b?w=400&h=300&fit=crop&auto=format"

// Source generates up to Count candidates per run.
type Source struct {
	Count int
	rng   *rand.Rand
}

func NewSource(count int) *Source {
	return &Source{
		Count: count,
		rng:   rand.New(rand.NewSource(rand.Int63())),
	}
}

func (s *Source) Name() string    { return Site }
func (s *Source) BaseURL() string { return "https://example.com" }

// Scrape never fails; it fabricates candidates from the name pools with a
// realistic spread of discounts, availability, ratings and review counts.
func (s *Source) Scrape(_ context.Context) ([]models.RawProduct, error) {
	names, categories := pools()

	count := s.Count
	if count > len(names) {
		count = len(names)
	}

	products := make([]models.RawProduct, 0, count)
	for i := 0; i < count; i++ {
		price := s.rng.Intn(4901) + 100
		raw := models.RawProduct{
			Name:         names[i],
			Price:        models.PriceText(fmt.Sprintf("₹%d", price)),
			ImageURL:     image(categories[i]),
			Description:  fmt.Sprintf("High quality %s for better crop yield and farming productivity.", strings.ToLower(names[i])),
			Category:     categories[i],
			Brand:        brands[s.rng.Intn(len(brands))],
			Availability: availability(s.rng),
			SourceURL:    fmt.Sprintf("https://example.com/product/%d", i+1),
			SourceSite:   Site,
		}

		if s.rng.Intn(2) == 0 {
			op := models.PriceText(fmt.Sprintf("₹%d", price+s.rng.Intn(451)+50))
			raw.OriginalPrice = &op
		}

		rating := float64(int((3.5+s.rng.Float64()*1.5)*10)) / 10
		raw.Rating = &rating
		reviews := s.rng.Intn(491) + 10
		raw.ReviewsCount = &reviews

		products = append(products, raw)
	}

	log.WithField("count", len(products)).Info("Generated sample products")
	return products, nil
}

func pools() (names, categories []string) {
	add := func(pool []string, category string) {
		names = append(names, pool...)
		for range pool {
			categories = append(categories, category)
		}
	}
	add(fertilizerNames, "Fertilizers")
	add(seedNames, "Seeds")
	add(pesticideNames, "Pesticides")
	add(equipmentNames, "Farm Equipment")
	return names, categories
}

func availability(rng *rand.Rand) string {
	// Roughly three in four products are in stock.
	if rng.Intn(4) == 0 {
		return "Out of Stock"
	}
	return "In Stock"
}

func image(category string) string {
	if url, ok := categoryImages[category]; ok {
		return url
	}
	return defaultImage
}
