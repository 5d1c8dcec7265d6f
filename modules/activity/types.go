package activity

// ListActivityRequest represents a list-activity request.
type ListActivityRequest struct {
	UserID string `json:"user_id"`
	Limit  int    `json:"limit,omitempty"`
}

// ListActivityResponse represents a list-activity response.
type ListActivityResponse struct {
	Entries []Entry `json:"entries"`
}
