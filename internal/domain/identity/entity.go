package identity

import "time"

// Principal is the verified identity of the current client session.
// Derived per-request from a token; never stored as its own aggregate.
type Principal struct {
	ID      string `json:"id"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// Profile is the persisted user record, merged on each successful login.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
	Picture   string    `json:"picture,omitempty"`
	LastLogin time.Time `json:"last_login"`
}
