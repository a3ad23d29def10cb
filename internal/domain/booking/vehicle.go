package booking

// VehicleType represents the type of vehicle being serviced.
type VehicleType string

const (
	VehicleTypeSedan      VehicleType = "sedan"
	VehicleTypeSUV        VehicleType = "suv"
	VehicleTypeVan        VehicleType = "van"
	VehicleTypePickup     VehicleType = "pickup"
	VehicleTypeMotorcycle VehicleType = "motorcycle"
	VehicleTypeOther      VehicleType = "other"
)

// IsValid returns true if the vehicle type is recognized.
func (v VehicleType) IsValid() bool {
	switch v {
	case VehicleTypeSedan, VehicleTypeSUV, VehicleTypeVan, VehicleTypePickup,
		VehicleTypeMotorcycle, VehicleTypeOther:
		return true
	}
	return false
}

// Vehicle is an immutable value object describing the vehicle to be washed.
type Vehicle struct {
	PlateNumber string `json:"plate_number"`
	Type        string `json:"type"`
}

// Customer is an immutable value object holding customer contact details.
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// ServiceItem is a single priced line item on a booking.
type ServiceItem struct {
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
}
