package domain

// AuthenticatedUser is the single normalized identity produced at the auth
// boundary. The pipeline never re-validates tokens or branches on how the
// identity provider represents users.
type AuthenticatedUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
