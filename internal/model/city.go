package model

import "time"

// City is a UK postcode-area record used to scope a scraping run.
type City struct {
	ID                     string     `json:"_id"`
	PostcodeArea           string     `json:"postcode_area"`
	AreaCovered            string     `json:"area_covered"`
	Population2011         int        `json:"population_2011"`
	Households2011         int        `json:"households_2011"`
	Postcodes              int        `json:"postcodes"`
	ActivePostcodes        int        `json:"active_postcodes"`
	NonGeographicPostcodes int        `json:"non_geographic_postcodes"`
	ScrapedAt              *time.Time `json:"scraped_at,omitempty"`
}

// Pagination describes one page of a result set.
type Pagination struct {
	Total       int `json:"total"`
	Pages       int `json:"pages"`
	CurrentPage int `json:"currentPage"`
	Limit       int `json:"limit"`
}
