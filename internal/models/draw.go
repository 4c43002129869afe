package models

import "time"

// Participant represents a person entering the draw.
// The name is both the label shown on screen and the secret that unlocks
// the participant's link.
type Participant struct {
	Name string `json:"name"`
}

// Assignment links a giver to the person they buy a gift for.
type Assignment struct {
	Giver    string `json:"giver"`
	Receiver string `json:"receiver"`
}

// ShareLink is the reference handed to a single giver. The receiver is only
// present inside the encrypted token.
type ShareLink struct {
	Giver Participant `json:"giver"`
	URL   string      `json:"url"`
	Token string      `json:"token"`
}

// DrawResult stores the outcome of a whole draw, one link per participant.
// It is what gets persisted for the admin view of a browser session.
type DrawResult struct {
	Links     []ShareLink `json:"links"`
	CreatedAt time.Time   `json:"createdAt"`
}
