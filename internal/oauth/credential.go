package oauth

import (
	"fmt"
	"log/slog"
	"strings"

	"chirp/internal/apperr"
)

// Credential is an OAuth access token pair. Its string forms are redacted;
// only Encode reveals the secret, for storage.
type Credential struct {
	Key    string
	Secret string
}

// Encode renders the credential as "key:secret".
func (c Credential) Encode() string { return c.Key + ":" + c.Secret }

func (c Credential) String() string { return "oauth.Credential{redacted}" }

func (c Credential) GoString() string { return c.String() }

func (c Credential) LogValue() slog.Value { return slog.StringValue(c.String()) }

// ParseCredential reverses Encode.
func ParseCredential(s string) (Credential, error) {
	key, secret, ok := strings.Cut(s, ":")
	if !ok || key == "" || secret == "" {
		return Credential{}, fmt.Errorf("%w: stored access token is malformed", apperr.ErrCommandLine)
	}
	return Credential{Key: key, Secret: secret}, nil
}
