// Package testdata generates the deterministic demo explore shipped with the
// app and used by tests.
package testdata

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jask/dashtabs/internal/database/repository"
)

// Geography is country -> state -> cities.
var Geography = map[string]map[string][]string{
	"USA": {
		"California": {"Los Angeles", "San Francisco", "San Diego"},
		"Texas":      {"Austin", "Houston", "Dallas"},
		"New York":   {"New York", "Buffalo"},
	},
	"Canada": {
		"Ontario":          {"Toronto", "Ottawa"},
		"Quebec":           {"Montreal", "Quebec City"},
		"British Columbia": {"Vancouver", "Victoria"},
	},
	"Australia": {
		"Victoria":        {"Melbourne", "Geelong"},
		"New South Wales": {"Sydney", "Newcastle"},
	},
	"Brazil": {
		"Sao Paulo":      {"Sao Paulo", "Campinas"},
		"Rio de Janeiro": {"Rio de Janeiro", "Niteroi"},
	},
}

// Brands is category -> brands.
var Brands = map[string][]string{
	"Jeans":             {"Levi's", "Wrangler", "Lucky Brand"},
	"Tops & Tees":       {"Hanes", "Champion", "Carhartt"},
	"Outerwear & Coats": {"The North Face", "Columbia", "Patagonia"},
	"Swim":              {"Speedo", "Billabong"},
	"Accessories":       {"Ray-Ban", "Fossil"},
}

var (
	countries      = []string{"USA", "USA", "USA", "Canada", "Canada", "Australia", "Brazil"}
	categories     = []string{"Jeans", "Tops & Tees", "Outerwear & Coats", "Swim", "Accessories"}
	genders        = []string{"Female", "Male"}
	trafficSources = []string{"Search", "Organic", "Email", "Facebook", "Display"}
	statuses       = []string{"Complete", "Complete", "Complete", "Shipped", "Processing", "Returned", "Cancelled"}
)

// Generate returns n order items spread over the days days before now. The
// same seed always yields the same rows. Roughly one row in forty has no city.
func Generate(seed int64, n, days int, now time.Time) []repository.OrderItem {
	rng := rand.New(rand.NewSource(seed))
	if days < 1 {
		days = 1
	}
	out := make([]repository.OrderItem, 0, n)
	orderID := ""
	for i := 0; i < n; i++ {
		if i%3 == 0 {
			orderID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("order:%d:%d", seed, i))).String()
		}
		country := pick(rng, countries)
		states := sortedKeys(Geography[country])
		state := pick(rng, states)
		var city *string
		if rng.Intn(40) != 0 {
			c := pick(rng, Geography[country][state])
			city = &c
		}
		category := pick(rng, categories)
		gender := pick(rng, genders)
		department := "Women"
		if gender == "Male" {
			department = "Men"
		}
		created := now.Add(-time.Duration(rng.Int63n(int64(days) * int64(24*time.Hour))))
		price := math.Round((5+rng.Float64()*195)*100) / 100

		out = append(out, repository.OrderItem{
			ID:                uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("item:%d:%d", seed, i))).String(),
			OrderID:           orderID,
			UserID:            uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("user:%d:%d", seed, rng.Intn(n/2+1)))).String(),
			CreatedAt:         created.UTC(),
			Status:            pick(rng, statuses),
			SalePrice:         price,
			Country:           country,
			State:             state,
			City:              city,
			Gender:            gender,
			TrafficSource:     pick(rng, trafficSources),
			ProductDepartment: department,
			ProductCategory:   category,
			ProductBrand:      pick(rng, Brands[category]),
		})
	}
	return out
}

func pick(rng *rand.Rand, list []string) string {
	return list[rng.Intn(len(list))]
}

// sortedKeys keeps map iteration out of the random stream.
func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
