package social

import (
	"crypto"
	"net/url"
	"strings"

	"github.com/tkrehbiel/fedsync/social/model"
)

// Key names used in the account key-value store.
const (
	KeyClientKey    = "oauth_client_key"
	KeyClientSecret = "oauth_client_secret"
	KeyAccessToken  = "oauth_access_token"
	KeyAccessSecret = "oauth_access_secret"
	KeyPassword     = "password"
)

// KeyValueStore is the account-data capability the surrounding app
// provides for credential storage. This core treats it as an opaque
// string-to-string store and performs no other I/O through it.
type KeyValueStore interface {
	GetString(key string) (string, error)
	SetString(key, value string) error
}

// ConnectionData is everything an adapter needs to speak for one account:
// origin, credentials, and the account's own actor. It's a value type;
// derive variants with the With* methods, never mutate in place, because
// the endpoint resolver hands copies to transports for foreign hosts.
type ConnectionData struct {
	OriginType model.OriginType
	OriginURL  string
	SSL        bool

	ClientKey    string
	ClientSecret string
	AccessToken  string
	AccessSecret string

	BasicUsername string
	BasicPassword string

	// SigningKey is the account's RSA key for HTTP-signed fetches on
	// hosts where we hold no token. SigningKeyID is the published key id
	// URL the receiving server dereferences, e.g. the actor's #main-key.
	SigningKey   crypto.PrivateKey
	SigningKeyID string

	AccountActor model.Actor
}

func NewConnectionData(t model.OriginType, originURL string) ConnectionData {
	return ConnectionData{
		OriginType: t,
		OriginURL:  originURL,
		SSL:        strings.HasPrefix(originURL, "https:"),
	}
}

func (d ConnectionData) Origin() model.Origin {
	return model.NewOrigin(d.OriginType, d.OriginURL)
}

func (d ConnectionData) Host() string {
	u, err := url.Parse(d.OriginURL)
	if err != nil {
		return ""
	}
	return u.Host
}

func (d ConnectionData) HasClientKeys() bool {
	return d.ClientKey != "" && d.ClientSecret != ""
}

func (d ConnectionData) HasAccessToken() bool {
	return d.AccessToken != ""
}

func (d ConnectionData) HasBasicAuth() bool {
	return d.BasicUsername != "" && d.BasicPassword != ""
}

func (d ConnectionData) HasSigningKey() bool {
	return d.SigningKey != nil && d.SigningKeyID != ""
}

// WithSigningKey returns a copy carrying the account's RSA key.
func (d ConnectionData) WithSigningKey(key crypto.PrivateKey, keyID string) ConnectionData {
	d.SigningKey = key
	d.SigningKeyID = keyID
	return d
}

// WithHost returns a copy pointed at a different host, same scheme.
func (d ConnectionData) WithHost(host string) ConnectionData {
	scheme := "https"
	if !d.SSL {
		scheme = "http"
	}
	d.OriginURL = scheme + "://" + host
	return d
}

// WithoutClientKeys returns a copy with the OAuth client registration
// cleared. Client keys are per-host; they must not leak to a transport
// built for a foreign host. The signing key stays: it is the account's
// own identity and is exactly what foreign hosts accept.
func (d ConnectionData) WithoutClientKeys() ConnectionData {
	d.ClientKey = ""
	d.ClientSecret = ""
	d.AccessToken = ""
	d.AccessSecret = ""
	return d
}

// WithClientKeys returns a copy carrying a fresh client registration.
func (d ConnectionData) WithClientKeys(key, secret string) ConnectionData {
	d.ClientKey = key
	d.ClientSecret = secret
	return d
}

// LoadCredentials fills in whatever the account store knows. Read errors
// leave fields empty; a missing credential surfaces later as an auth
// error on the first call that needs it.
func (d ConnectionData) LoadCredentials(store KeyValueStore) ConnectionData {
	read := func(key string, into *string) {
		if *into != "" {
			return
		}
		if v, err := store.GetString(key); err == nil && v != "" {
			*into = v
		}
	}
	read(KeyClientKey, &d.ClientKey)
	read(KeyClientSecret, &d.ClientSecret)
	read(KeyAccessToken, &d.AccessToken)
	read(KeyAccessSecret, &d.AccessSecret)
	read(KeyPassword, &d.BasicPassword)
	return d
}

// SaveClientKeys records a dynamic client registration in the account
// store so the next process doesn't have to register again.
func (d ConnectionData) SaveClientKeys(store KeyValueStore, key, secret string) error {
	if err := store.SetString(KeyClientKey, key); err != nil {
		return err
	}
	return store.SetString(KeyClientSecret, secret)
}
