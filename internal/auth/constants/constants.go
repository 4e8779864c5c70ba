package constants

const (
	// AuthHeaderName is the name of the Authorization header
	AuthHeaderName = "Authorization"

	// AuthHeaderPrefix is the prefix for the Authorization header value
	AuthHeaderPrefix = "Bearer "

	// StateCookieName holds the nonce that binds a state token to the browser
	StateCookieName = "starfetch_state"
)

// Routes
const (
	LoginPath     = "/login"
	CallbackPath  = "/callback"
	EssentialPath = "/essential-starred-repositories-information"
	HealthPath    = "/healthz"
)

// Query parameters
const (
	CodeQueryParam   = "code"
	StateQueryParam  = "state"
	FormatQueryParam = "format"
	ViewQueryParam   = "view"
)

// Render formats
const (
	FormatJSON = "json"
	FormatHTML = "html"
)

// Render views
const (
	ViewFull      = "full"
	ViewEssential = "essential"
)

// GitHub REST API media type
const GitHubMediaType = "application/vnd.github+json"
