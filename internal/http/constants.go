package httpx

// Page identifiers, also the template names rendered for each page.
const (
	PageHome     = "home"
	PageLogin    = "login"
	PageRegister = "register"
	PageAccount  = "account"
)

// Template paths used for loading templates in tests and dev mode.
const (
	TemplatePathFromRoot = "frontend/templates"       // From project root
	TemplatePathFromTest = "../../frontend/templates" // From internal/http test files
)

// pageTitles maps page identifiers to document titles.
//
//nolint:gochecknoglobals // static read-only lookup
var pageTitles = map[string]string{
	PageHome:     "Home",
	PageLogin:    "Log in",
	PageRegister: "Register",
	PageAccount:  "Account",
}

// formErrorMessages maps error codes carried back to auth pages to display text.
//
//nolint:gochecknoglobals // static read-only lookup
var formErrorMessages = map[string]string{
	"invalid_credentials": "Invalid username or password.",
	"validation_failed":   "Username must be at least 3 characters, password at least 6, and email must be valid.",
	"username_taken":      "That username is already taken.",
	"too_many_attempts":   "Too many failed attempts. Try again later.",
	"service_unavailable": "The service is temporarily unavailable. Try again shortly.",
	"session_unavailable": "The service is temporarily unavailable. Try again shortly.",
	"internal_error":      "Something went wrong. Try again.",
}

// formErrorMessage returns display text for code, or "" for unknown codes.
func formErrorMessage(code string) string { return formErrorMessages[code] }
