package models

// Event is stored under /Events/{userId}/{eventId}. The ID is assigned by
// the store on first save and is stable afterwards; OwnerID is stamped at
// the same time. Date uses the MM/DD/YYYY display format, Time is free text.
type Event struct {
	ID          string  `json:"eventId"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
	Time        string  `json:"time"`
	Location    string  `json:"location"`
	OwnerID     string  `json:"userId"`
	Price       float64 `json:"price"`
}

// A wishlist entry is a verbatim copy of the bookmarked event, keyed by its
// event id under /Wishlists/{userId}/{eventId}. At most one entry exists per
// (user, event) pair because insertion is an upsert by that key.
