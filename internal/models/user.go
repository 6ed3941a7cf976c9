package models

// User is the profile record stored under /Users/{userId}.
// Credentials live in the auth backend, never here.
type User struct {
	ID    string `json:"userId"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
