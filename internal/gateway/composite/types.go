package composite

import (
	"strconv"

	"github.com/microfabric/composite-gateway/internal/gateway/upstream"
)

// AddressQuery carries the optional address listing filters. Nil fields are
// dropped before transmission upstream.
type AddressQuery struct {
	Limit      *int    `json:"limit,omitempty"`
	Offset     *int    `json:"offset,omitempty"`
	Name       *string `json:"name,omitempty"`
	Street     *string `json:"street,omitempty"`
	Unit       *string `json:"unit,omitempty"`
	City       *string `json:"city,omitempty"`
	State      *string `json:"state,omitempty"`
	PostalCode *string `json:"postal_code,omitempty"`
	Country    *string `json:"country,omitempty"`
	AsGeoJSON  *bool   `json:"as_geojson,omitempty"`
}

// Filters flattens the query into string parameters, dropping unset fields.
// The geo toggle travels as the literal strings "true"/"false".
func (q AddressQuery) Filters() map[string]string {
	filters := make(map[string]string)
	setInt := func(key string, v *int) {
		if v != nil {
			filters[key] = strconv.Itoa(*v)
		}
	}
	setString := func(key string, v *string) {
		if v != nil && *v != "" {
			filters[key] = *v
		}
	}

	setInt("limit", q.Limit)
	setInt("offset", q.Offset)
	setString("name", q.Name)
	setString("street", q.Street)
	setString("unit", q.Unit)
	setString("city", q.City)
	setString("state", q.State)
	setString("postal_code", q.PostalCode)
	setString("country", q.Country)
	if q.AsGeoJSON != nil {
		filters["as_geojson"] = strconv.FormatBool(*q.AsGeoJSON)
	}
	return filters
}

// UserWithAddressRequest is the combined-create request body.
type UserWithAddressRequest struct {
	User    map[string]interface{} `json:"user"`
	Address map[string]interface{} `json:"address"`
}

// UserWithAddress pairs the two resources created by the combined endpoint.
type UserWithAddress struct {
	User    upstream.Document `json:"user"`
	Address upstream.Document `json:"address"`
}

// CompositeAddress is a created address together with its owning user.
type CompositeAddress struct {
	Address upstream.Document `json:"address"`
	UserID  int64             `json:"user_id"`
}

// UserAddresses lists the addresses currently linked to a user.
type UserAddresses struct {
	UserID    int64               `json:"user_id"`
	Addresses []upstream.Document `json:"addresses"`
}

// UserProfile merges a user record with its linked addresses.
type UserProfile struct {
	User      upstream.Document   `json:"user"`
	Addresses []upstream.Document `json:"addresses"`
}
