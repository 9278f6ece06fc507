// AngelaMos | 2026
// social.go

package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/carterperez-dev/memoria/internal/config"
	"github.com/carterperez-dev/memoria/internal/core"
)

const (
	ProviderGoogle   = "google"
	discoveryTimeout = 10 * time.Second
)

// SocialProfile is the verified identity an external provider vouches for.
type SocialProfile struct {
	Provider  string
	Subject   string
	Email     string
	Name      string
	GivenName string
	Picture   string
}

type IdentityVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*SocialProfile, error)
}

// OIDCVerifier checks ID tokens against an issuer's discovery document.
// Discovery runs on first use and is retried until it succeeds.
type OIDCVerifier struct {
	issuer   string
	clientID string
	provider string

	mu       sync.Mutex
	verifier *oidc.IDTokenVerifier
}

func NewOIDCVerifier(cfg config.OIDCConfig) *OIDCVerifier {
	return &OIDCVerifier{
		issuer:   cfg.Issuer,
		clientID: cfg.ClientID,
		provider: ProviderGoogle,
	}
}

type idTokenClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	Picture       string `json:"picture"`
}

func (v *OIDCVerifier) Verify(
	ctx context.Context,
	rawIDToken string,
) (*SocialProfile, error) {
	verifier, err := v.idTokenVerifier(ctx)
	if err != nil {
		return nil, err
	}

	token, err := verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("verify id token: %w", core.ErrTokenInvalid)
	}

	var claims idTokenClaims
	if err := token.Claims(&claims); err != nil {
		return nil, fmt.Errorf("decode id token claims: %w", core.ErrTokenInvalid)
	}

	profile := &SocialProfile{
		Provider:  v.provider,
		Subject:   token.Subject,
		Name:      claims.Name,
		GivenName: claims.GivenName,
		Picture:   claims.Picture,
	}
	if claims.EmailVerified {
		profile.Email = claims.Email
	}

	return profile, nil
}

func (v *OIDCVerifier) idTokenVerifier(ctx context.Context) (*oidc.IDTokenVerifier, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.verifier != nil {
		return v.verifier, nil
	}

	// The provider keeps this context for later key set refreshes, so it
	// must outlive the request.
	discoveryCtx := oidc.ClientContext(
		context.WithoutCancel(ctx),
		&http.Client{Timeout: discoveryTimeout},
	)

	provider, err := oidc.NewProvider(discoveryCtx, v.issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}

	v.verifier = provider.Verifier(&oidc.Config{ClientID: v.clientID})
	return v.verifier, nil
}
