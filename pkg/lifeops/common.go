package lifeops

const (
	HealthEndpoint   = "/health"
	StatusEndpoint   = "/auth/status"
	LoginEndpoint    = "/auth/login"
	CallbackEndpoint = "/auth/callback"
	LogoutEndpoint   = "/auth/logout"
)

// DefaultScopes are requested on every consent. The openid and email scopes let the
// backend learn which account granted access.
var DefaultScopes = []string{
	"openid",
	"https://www.googleapis.com/auth/calendar.events",
	"https://www.googleapis.com/auth/tasks",
	"https://www.googleapis.com/auth/spreadsheets",
	"https://www.googleapis.com/auth/documents",
	"https://www.googleapis.com/auth/drive.file",
	"https://www.googleapis.com/auth/userinfo.email",
}

type LoginResponse struct {
	// AuthURL is the provider consent page. The caller opens it in a browser; the provider
	// redirects back to CallbackEndpoint when the user is done.
	AuthURL string `json:"auth_url"`
}

type AuthStatusResponse struct {
	Authenticated bool   `json:"authenticated"`
	Email         string `json:"email,omitempty"`
	Expiry        string `json:"expiry,omitempty"`
	AccessToken   string `json:"access_token,omitempty"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}
