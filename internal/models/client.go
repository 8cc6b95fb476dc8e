package models

import (
	"time"

	"github.com/google/uuid"
)

// Client is the person receiving care. Latitude/Longitude are the pre-resolved
// service-address coordinates used as the geofence center; this service never
// geocodes. HasCoordinates=false means geofence checks must fail loudly
// rather than fall back to a placeholder point.
type Client struct {
	ID         uuid.UUID `json:"id"`
	BusinessID uuid.UUID `json:"business_id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Address    string    `json:"address"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	ZipCode    string    `json:"zip_code"`
	TimeZone   string    `json:"timezone"`

	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	HasCoordinates bool    `json:"has_coordinates"`

	CreatedAt time.Time `json:"created_at"`
}

func (c *Client) DisplayName() string {
	return c.FirstName + " " + c.LastName
}
