package api

import "time"

// Item is one product row returned by the listing endpoint. Identity is ID;
// the server guarantees uniqueness within one query window.
type Item struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Kcal100g    *float64   `json:"kcal_100g,omitempty"`
	Description string     `json:"description,omitempty"`
	ImageURL    string     `json:"image_url,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// ListParams identifies one page fetch: a trimmed query filter (empty means
// no filter) and a pagination window.
type ListParams struct {
	Query  string
	Offset int
	Limit  int
}

// loginRequest is the JSON body for POST /auth/login/.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is the JSON body returned on successful login.
type loginResponse struct {
	AccessToken string `json:"access_token"`
}
