package core

// Access is the guard an endpoint sits behind.
type Access int

const (
	AccessPublic Access = iota
	AccessAuth
	AccessAdmin
)

func (a Access) String() string {
	switch a {
	case AccessAuth:
		return "auth"
	case AccessAdmin:
		return "admin"
	default:
		return "public"
	}
}

// Endpoint is a framework-agnostic route description. HTTP adapters bind
// a handler to each OperationID.
type Endpoint struct {
	Path     string
	Method   string
	Access   Access
	Metadata EndpointMetadata
}

type EndpointMetadata struct {
	OperationID string
	Description string
	RateLimited bool
}

// ErrorResponse represents an error response structure
type ErrorResponse struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
}
