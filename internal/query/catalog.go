package query

// Catalog maps an explore's field names onto SQL over a single table.
type Catalog struct {
	Model string
	View  string
	Table string
	// Dimensions map field -> column expression.
	Dimensions map[string]string
	// Measures map field -> aggregate expression.
	Measures map[string]string
	// DateFields map field -> timestamp column filtered by date expressions.
	DateFields map[string]string
}

// DefaultModel and DefaultView name the demo explore.
const (
	DefaultModel = "thelook"
	DefaultView  = "order_items"
)

// DefaultCatalog describes the demo order_items explore created by the
// database migrations.
func DefaultCatalog() Catalog {
	return Catalog{
		Model: DefaultModel,
		View:  DefaultView,
		Table: "order_items",
		Dimensions: map[string]string{
			"users.country":            "users_country",
			"users.state":              "users_state",
			"users.city":               "users_city",
			"users.gender":             "users_gender",
			"users.traffic_source":     "users_traffic_source",
			"products.department":      "products_department",
			"products.category":        "products_category",
			"products.brand":           "products_brand",
			"order_items.status":       "status",
			"order_items.created_date": "substr(created_at, 1, 10)",
		},
		Measures: map[string]string{
			"order_items.count":              "COUNT(*)",
			"order_items.total_sale_price":   "ROUND(SUM(sale_price), 2)",
			"order_items.average_sale_price": "ROUND(AVG(sale_price), 2)",
			"users.count":                    "COUNT(DISTINCT user_id)",
		},
		DateFields: map[string]string{
			"order_items.created_date": "created_at",
		},
	}
}

// IsMeasure reports whether field aggregates.
func (c Catalog) IsMeasure(field string) bool {
	_, ok := c.Measures[field]
	return ok
}

// Has reports whether field is known to the catalog.
func (c Catalog) Has(field string) bool {
	if _, ok := c.Dimensions[field]; ok {
		return true
	}
	_, ok := c.Measures[field]
	return ok
}
