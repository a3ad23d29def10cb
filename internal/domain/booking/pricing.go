package booking

import "fmt"

// PriceCatalog resolves service names to priced line items.
type PriceCatalog interface {
	// Price returns the priced line item for a service name.
	Price(serviceName string) (ServiceItem, error)

	// Quote prices an ordered list of service names and returns the line
	// items together with the total in centavos.
	Quote(serviceNames []string) ([]ServiceItem, int64, error)
}

// StandardPriceCatalog holds the default car-wash service price list.
type StandardPriceCatalog struct {
	prices map[string]int64
}

// NewStandardPriceCatalog creates a catalog with the standard price list
// (prices in centavos).
func NewStandardPriceCatalog() *StandardPriceCatalog {
	return &StandardPriceCatalog{
		prices: map[string]int64{
			"Basic Wash":        15000,
			"Premium Wash":      25000,
			"Wax":               20000,
			"Interior Cleaning": 25000,
			"Engine Wash":       30000,
			"Tire Black":        5000,
			"Vacuum":            8000,
		},
	}
}

// Price returns the priced line item for a service name.
func (c *StandardPriceCatalog) Price(serviceName string) (ServiceItem, error) {
	price, ok := c.prices[serviceName]
	if !ok {
		return ServiceItem{}, fmt.Errorf("unknown service: %s", serviceName)
	}
	return ServiceItem{Name: serviceName, PriceCents: price}, nil
}

// Quote prices an ordered list of service names.
func (c *StandardPriceCatalog) Quote(serviceNames []string) ([]ServiceItem, int64, error) {
	items := make([]ServiceItem, 0, len(serviceNames))
	var total int64
	for _, name := range serviceNames {
		item, err := c.Price(name)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
		total += item.PriceCents
	}
	return items, total, nil
}
