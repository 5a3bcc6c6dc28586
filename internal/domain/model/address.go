package model

import "strings"

// DefaultCountry is used when neither profile nor geolocation provide one.
const DefaultCountry = "India"

// ShippingAddress is the delivery address submitted with an order.
type ShippingAddress struct {
	FullName     string
	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	Pincode      string
	Country      string
	Phone        string
}

// MissingFields lists the mandatory fields that are blank. AddressLine2 is optional.
func (a ShippingAddress) MissingFields() []string {
	required := []struct {
		name  string
		value string
	}{
		{"fullName", a.FullName},
		{"addressLine1", a.AddressLine1},
		{"city", a.City},
		{"state", a.State},
		{"pincode", a.Pincode},
		{"country", a.Country},
		{"phone", a.Phone},
	}
	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// Normalize trims surrounding whitespace of every field.
func (a ShippingAddress) Normalize() ShippingAddress {
	return ShippingAddress{
		FullName:     strings.TrimSpace(a.FullName),
		AddressLine1: strings.TrimSpace(a.AddressLine1),
		AddressLine2: strings.TrimSpace(a.AddressLine2),
		City:         strings.TrimSpace(a.City),
		State:        strings.TrimSpace(a.State),
		Pincode:      strings.TrimSpace(a.Pincode),
		Country:      strings.TrimSpace(a.Country),
		Phone:        strings.TrimSpace(a.Phone),
	}
}

// SavedAddress is an address stored on the user profile.
type SavedAddress struct {
	ShippingAddress
	IsDefault bool
}

// Profile is the subset of the authenticated user's profile used by checkout.
type Profile struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Addresses []SavedAddress
}

// Coordinates is a best-effort device location supplied by the client.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Location is a reverse-geocoded place.
type Location struct {
	Street  string
	City    string
	State   string
	Pincode string
}

// AddressSource tells where a prefilled address came from.
type AddressSource string

const (
	AddressFromDefault  AddressSource = "default_saved"
	AddressFromSaved    AddressSource = "saved"
	AddressFromLocation AddressSource = "geolocation"
	AddressFromNothing  AddressSource = "empty"
)
