package social

import (
	"encoding/json"
	"os"

	"github.com/tkrehbiel/fedsync/social/model"
	"github.com/tkrehbiel/fedsync/social/transport"
)

// AccountConfig is one account entry in the config file. Credentials
// given here are seed values; anything already persisted in the account
// store wins over the file.
type AccountConfig struct {
	Name string `json:"name"` // store key, unique per account
	Type string `json:"type"` // adapter name: activitypub, pumpio, twitter, gnusocial, feed
	URL  string `json:"url"`  // origin base URL, or the feed URL itself

	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`

	ClientKey    string `json:"client_key,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`
	AccessToken  string `json:"access_token,omitempty"`
	AccessSecret string `json:"access_secret,omitempty"`

	// PEM file with the account's RSA key, used to sign fetches on
	// hosts that hold no token for us. PubKeyID is the key id URL
	// receiving servers dereference, usually <actor>#main-key.
	PrivKeyFile string `json:"privKey,omitempty"`
	PubKeyID    string `json:"pubKeyId,omitempty"`
}

type Config struct {
	Database string          `json:"database"` // sqlite path for the account store
	Port     int             `json:"port"`     // status endpoint port, 0 to disable
	Trace    bool            `json:"trace"`
	Accounts []AccountConfig `json:"accounts"`
}

func ReadConfig(b []byte) (config Config, err error) {
	if uErr := json.Unmarshal(b, &config); uErr != nil {
		return config, uErr
	}
	return config, nil
}

// ConnectionData builds the runtime credentials for one account entry.
// It fails early on an origin type no adapter claims, so a typo in the
// config surfaces before any network traffic.
func (a AccountConfig) ConnectionData() (ConnectionData, error) {
	t := model.OriginTypeFromName(a.Type)
	if _, ok := factories[t]; !ok {
		return ConnectionData{}, BadRequest("account %s: unknown origin type %q (have %v)",
			a.Name, a.Type, RegisteredOrigins())
	}
	data := NewConnectionData(t, a.URL)
	data.BasicUsername = a.Username
	data.BasicPassword = a.Password
	data.ClientKey = a.ClientKey
	data.ClientSecret = a.ClientSecret
	data.AccessToken = a.AccessToken
	data.AccessSecret = a.AccessSecret
	if a.PrivKeyFile != "" {
		b, err := os.ReadFile(a.PrivKeyFile)
		if err != nil {
			return ConnectionData{}, AuthError("account %s: reading signing key %s", a.Name, a.PrivKeyFile).WithWrapped(err)
		}
		key, err := transport.ParsePrivateKey(b)
		if err != nil {
			return ConnectionData{}, AuthError("account %s: parsing signing key %s", a.Name, a.PrivKeyFile).WithWrapped(err)
		}
		data = data.WithSigningKey(key, a.PubKeyID)
	}
	return data, nil
}
