package google

// DefaultOAuthScopes are the Google OAuth scopes requested during
// authorization. Calendar access is all this product needs; asking for less
// keeps the consent screen honest.
var DefaultOAuthScopes = []string{
	"https://www.googleapis.com/auth/calendar",
}
