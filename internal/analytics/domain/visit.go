// Package domain holds visitor analytics types.
package domain

import (
	"time"

	"github.com/goccy/go-json"
)

// Geo is the optional geolocation resolved for a visitor IP.
type Geo struct {
	Country string
	City    string
	Lat     *float64
	Lon     *float64
}

// Visit is one recorded page view.
type Visit struct {
	ID        string
	IP        string
	UserAgent string
	Path      string
	Geo       Geo
	CreatedAt time.Time
}

type visitJSON struct {
	ID        string   `json:"id"`
	IP        string   `json:"ip"`
	UserAgent string   `json:"ua"`
	Path      string   `json:"path"`
	Timestamp int64    `json:"timestamp"`
	Country   string   `json:"country,omitempty"`
	City      string   `json:"city,omitempty"`
	Lat       *float64 `json:"lat,omitempty"`
	Lon       *float64 `json:"lon,omitempty"`
}

// MarshalJSON renders the visit with a unix-seconds timestamp and flattened geo fields.
func (v Visit) MarshalJSON() ([]byte, error) {
	return json.Marshal(visitJSON{
		ID:        v.ID,
		IP:        v.IP,
		UserAgent: v.UserAgent,
		Path:      v.Path,
		Timestamp: v.CreatedAt.Unix(),
		Country:   v.Geo.Country,
		City:      v.Geo.City,
		Lat:       v.Geo.Lat,
		Lon:       v.Geo.Lon,
	})
}

// DailyCount is the number of visits on one calendar day, labelled by short weekday (Mon, Tue...).
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// CountryCount is a visit total for one country.
type CountryCount struct {
	Country string `json:"_id"`
	Count   int    `json:"count"`
}

// Totals are the all-time view and distinct-IP counts.
type Totals struct {
	TotalViews     int `json:"total_views"`
	UniqueVisitors int `json:"unique_visitors"`
}

// Summary is the admin analytics view.
type Summary struct {
	Recent       []*Visit       `json:"recent"`
	Daily        []DailyCount   `json:"daily"`
	TopCountries []CountryCount `json:"top_countries"`
	Stats        Totals         `json:"stats"`
}

// DashboardStats is the admin dashboard header.
type DashboardStats struct {
	TotalViews    int `json:"total_views"`
	TotalProjects int `json:"total_projects"`
	TotalBlogs    int `json:"total_blogs"`
}
