package starred

import (
	"errors"
	"net/http"

	"github.com/brizzai/starfetch/internal/auth/constants"
)

// ErrNoToken is returned when a request is attempted without a credential
var ErrNoToken = errors.New("no access token")

// AuthManager handles request authentication
type AuthManager interface {
	ApplyAuth(req *http.Request) error
}

// BearerAuth authenticates requests with an OAuth access token
type BearerAuth string

// ApplyAuth adds the Authorization header to the request
func (b BearerAuth) ApplyAuth(req *http.Request) error {
	if b == "" {
		return ErrNoToken
	}
	req.Header.Set(constants.AuthHeaderName, constants.AuthHeaderPrefix+string(b))
	return nil
}
