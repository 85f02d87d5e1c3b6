package social

import (
	"context"
	"net/url"
	"time"

	"github.com/karlseguin/ccache/v3"
	"github.com/tkrehbiel/fedsync/social/model"
	"github.com/tkrehbiel/fedsync/social/telemetry"
	"github.com/tkrehbiel/fedsync/social/transport"
)

// ConnectionAndURL is a resolved call target: the concrete URL for a
// routine plus the transport responsible for that URL's host.
type ConnectionAndURL struct {
	URL       string
	Transport transport.Sender
	Data      ConnectionData
}

// ClientKeys is the result of a dynamic OAuth client registration.
type ClientKeys struct {
	Key    string
	Secret string
}

// Resolver maps a routine + actor to a ConnectionAndURL. Calls addressed
// to the account's own host reuse the local transport; a foreign host
// gets a fresh transport built from a copy of the connection data with
// the client keys cleared, registering a new OAuth client there when the
// platform requires one.
type Resolver struct {
	Data  ConnectionData
	Local transport.Sender

	// NewTransport builds a transport for derived connection data. The
	// adapter supplies it so the right auth strategy is chosen.
	NewTransport func(data ConnectionData) transport.Sender

	// Register performs dynamic client registration against a host.
	// nil means the platform doesn't register clients per host.
	Register func(ctx context.Context, data ConnectionData, tr transport.Sender) (ClientKeys, error)

	// Store persists per-host client keys across processes. Optional.
	Store KeyValueStore

	hosts *ccache.Cache[*ConnectionAndURL]
}

const hostCacheTTL = time.Hour

func NewResolver(data ConnectionData, local transport.Sender,
	newTransport func(ConnectionData) transport.Sender) *Resolver {
	return &Resolver{
		Data:         data,
		Local:        local,
		NewTransport: newTransport,
		hosts:        ccache.New(ccache.Configure[*ConnectionAndURL]().MaxSize(64)),
	}
}

// Resolve picks the endpoint URL and transport for a routine aimed at an
// actor. Fails fast with a bad-request error when the actor doesn't
// expose the endpoint the routine needs; no URL guessing.
func (r *Resolver) Resolve(ctx context.Context, routine ApiRoutine, actor model.Actor) (*ConnectionAndURL, error) {
	epType, ok := EndpointForRoutine(routine)
	if !ok {
		return nil, BadRequest("routine %s is not addressed through actor endpoints", routine)
	}
	target, _ := actor.Endpoints.Get(epType)
	if target == "" {
		return nil, BadRequest("endpoint %s empty for actor %s", epType, actor.Oid)
	}

	host := hostOfURL(target)
	if host == "" || host == r.Data.Host() {
		return &ConnectionAndURL{URL: target, Transport: r.Local, Data: r.Data}, nil
	}
	resolved, err := r.foreignHost(ctx, host)
	if err != nil {
		return nil, err
	}
	return &ConnectionAndURL{URL: target, Transport: resolved.Transport, Data: resolved.Data}, nil
}

func (r *Resolver) foreignHost(ctx context.Context, host string) (*ConnectionAndURL, error) {
	if item := r.hosts.Get(host); item != nil && !item.Expired() {
		return item.Value(), nil
	}

	derived := r.Data.WithHost(host).WithoutClientKeys()
	derived = r.loadHostKeys(host, derived)

	if r.Register != nil && !derived.HasClientKeys() {
		telemetry.Trace("registering client at %s", host)
		telemetry.Increment("client_registrations", 1)
		keys, err := r.Register(ctx, derived, r.NewTransport(derived))
		if err != nil {
			return nil, err
		}
		derived = derived.WithClientKeys(keys.Key, keys.Secret)
		r.saveHostKeys(host, keys)
		if !derived.HasClientKeys() {
			return nil, AuthError("no credentials for host %s", host)
		}
	}

	resolved := &ConnectionAndURL{Transport: r.NewTransport(derived), Data: derived}
	r.hosts.Set(host, resolved, hostCacheTTL)
	return resolved, nil
}

func (r *Resolver) loadHostKeys(host string, d ConnectionData) ConnectionData {
	if r.Store == nil {
		return d
	}
	key, err1 := r.Store.GetString(hostStoreKey(host, KeyClientKey))
	secret, err2 := r.Store.GetString(hostStoreKey(host, KeyClientSecret))
	if err1 == nil && err2 == nil && key != "" && secret != "" {
		return d.WithClientKeys(key, secret)
	}
	return d
}

func (r *Resolver) saveHostKeys(host string, keys ClientKeys) {
	if r.Store == nil || keys.Key == "" {
		return
	}
	if err := r.Store.SetString(hostStoreKey(host, KeyClientKey), keys.Key); err != nil {
		telemetry.Error(err, "saving client key for %s", host)
		return
	}
	if err := r.Store.SetString(hostStoreKey(host, KeyClientSecret), keys.Secret); err != nil {
		telemetry.Error(err, "saving client secret for %s", host)
	}
}

func hostStoreKey(host, key string) string {
	return "host." + host + "." + key
}

func hostOfURL(s string) string {
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	return u.Host
}
