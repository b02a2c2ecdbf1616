package web

import (
	"errors"
	"strings"
	"time"

	"planboard/internal/store"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"
)

var (
	errBadAuthorization = errors.New("bad auth header")
	errNoVerifier       = errors.New("token verification is not configured")
)

// Authenticator resolves the owner id carried by an Authorization header. An empty
// header is an anonymous caller ("", nil).
type Authenticator interface {
	OwnerFromHeader(h string) (string, error)
}

// Auth verifies bearer JWTs: HS256 against a shared secret (local mode) or RS256
// against a JWKS. The subject claim is the owner id.
type Auth struct {
	JWKS     *keyfunc.JWKS
	Secret   []byte
	Audience string
	Issuer   string

	parser *jwt.Parser
	now    func() time.Time
}

// NewAuth builds an Auth from config. A JWKS URL is fetched once and refreshed in the
// background; call Close to stop the refresh.
func NewAuth(cfg *store.AuthConfig) (*Auth, error) {
	a := &Auth{}
	if cfg != nil {
		a.Secret = []byte(strings.TrimSpace(cfg.HS256Secret))
		a.Audience = strings.TrimSpace(cfg.Audience)
		a.Issuer = strings.TrimSpace(cfg.Issuer)
		if u := strings.TrimSpace(cfg.JWKSURL); u != "" {
			jwks, err := keyfunc.Get(u, keyfunc.Options{
				RefreshInterval:   time.Hour,
				RefreshRateLimit:  5 * time.Minute,
				RefreshUnknownKID: true,
			})
			if err != nil {
				return nil, err
			}
			a.JWKS = jwks
		}
	}
	a.init()
	return a, nil
}

func (a *Auth) init() {
	var methods []string
	if len(a.Secret) > 0 {
		methods = append(methods, jwt.SigningMethodHS256.Alg())
	}
	if a.JWKS != nil {
		methods = append(methods, jwt.SigningMethodRS256.Alg())
	}
	a.parser = jwt.NewParser(jwt.WithValidMethods(methods))
	if a.now == nil {
		a.now = time.Now
	}
}

func (a *Auth) Close() {
	if a != nil && a.JWKS != nil {
		a.JWKS.EndBackground()
	}
}

func (a *Auth) OwnerFromHeader(h string) (string, error) {
	h = strings.TrimSpace(h)
	if h == "" {
		return "", nil
	}
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok || strings.Count(token, ".") != 2 {
		return "", errBadAuthorization
	}
	return a.Verify(strings.TrimSpace(token))
}

// Verify checks signature and registered claims and returns the subject.
func (a *Auth) Verify(token string) (string, error) {
	if a.parser == nil {
		a.init()
	}
	if len(a.Secret) == 0 && a.JWKS == nil {
		return "", errNoVerifier
	}
	parsed, err := a.parser.Parse(token, a.key)
	if err != nil {
		return "", err
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}
	now := a.now().Unix()
	if !claims.VerifyExpiresAt(now, true) {
		return "", errors.New("token expired")
	}
	if a.Audience != "" && !claims.VerifyAudience(a.Audience, true) {
		return "", errors.New("invalid audience")
	}
	if a.Issuer != "" && !claims.VerifyIssuer(a.Issuer, true) {
		return "", errors.New("invalid issuer")
	}
	sub, _ := claims["sub"].(string)
	if strings.TrimSpace(sub) == "" {
		return "", errors.New("missing sub")
	}
	return sub, nil
}

func (a *Auth) key(t *jwt.Token) (any, error) {
	switch t.Method.(type) {
	case *jwt.SigningMethodHMAC:
		if len(a.Secret) == 0 {
			return nil, errors.New("hs256 tokens are not accepted")
		}
		return a.Secret, nil
	default:
		if a.JWKS == nil {
			return nil, errors.New("jwks not configured")
		}
		return a.JWKS.Keyfunc(t)
	}
}

// Sign mints an HS256 token for owner, valid for ttl.
func (a *Auth) Sign(owner string, ttl time.Duration) (string, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return "", errors.New("missing owner")
	}
	if len(a.Secret) == 0 {
		return "", errors.New("auth.hs256Secret is not set")
	}
	if a.now == nil {
		a.now = time.Now
	}
	now := a.now()
	claims := jwt.MapClaims{
		"sub": owner,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	if a.Audience != "" {
		claims["aud"] = a.Audience
	}
	if a.Issuer != "" {
		claims["iss"] = a.Issuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.Secret)
}
