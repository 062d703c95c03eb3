package model

// AuthLevel is the outcome of resolving a presented credential.
type AuthLevel int

const (
	// Unauthorized covers missing, unknown and mismatched credentials alike.
	Unauthorized AuthLevel = iota
	// UserAuthorized means a reviewer presented a matching email and token.
	UserAuthorized
	// AdminAuthorized means the shared admin secret was presented.
	AdminAuthorized
)

// String returns the level name for logging.
func (l AuthLevel) String() string {
	switch l {
	case UserAuthorized:
		return "user"
	case AdminAuthorized:
		return "admin"
	default:
		return "unauthorized"
	}
}

// Identity is the authenticated actor behind a request.
// This is injected into the request context by the auth middleware.
type Identity struct {
	Level AuthLevel
	// Email is set only for UserAuthorized identities.
	Email string
}

// AdminIdentity returns the identity of the admin actor.
func AdminIdentity() Identity {
	return Identity{Level: AdminAuthorized}
}

// UserIdentity returns the identity of the reviewer owning email.
func UserIdentity(email string) Identity {
	return Identity{Level: UserAuthorized, Email: email}
}

// IsAdmin reports whether the identity carries admin authority.
func (i Identity) IsAdmin() bool {
	return i.Level == AdminAuthorized
}

// IsUser reports whether the identity is an authorized reviewer.
func (i Identity) IsUser() bool {
	return i.Level == UserAuthorized && i.Email != ""
}
