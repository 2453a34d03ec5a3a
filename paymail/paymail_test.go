package paymail

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	srvs []*net.SRV
	err  error
	name string
}

func (f *fakeResolver) LookupSRV(_ context.Context, service, proto, name string) (string, []*net.SRV, error) {
	f.name = "_" + service + "._" + proto + "." + name
	return "", f.srvs, f.err
}

func TestParseAddress(t *testing.T) {
	alias, domain, err := ParseAddress(" Alice@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "alice", alias)
	assert.Equal(t, "example.com", domain)

	for _, bad := range []string{
		"", "alice", "@example.com", "alice@", "a@b@c.com",
		"alice@localhost", "alice@example.com/x", "al ice@example.com",
		"alice@.example.com", "alice@example.com.", "alice@example.com:443",
	} {
		_, _, err := ParseAddress(bad)
		assert.ErrorIs(t, err, ErrInvalidAddress, bad)
	}
}

func TestIsAddress(t *testing.T) {
	assert.True(t, IsAddress("alice@example.com"))
	assert.False(t, IsAddress("1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"))
	assert.False(t, IsAddress("a@b@c"))
}

func TestResolveHost(t *testing.T) {
	ctx := context.Background()

	r := &fakeResolver{srvs: []*net.SRV{
		{Target: "backup.example.com.", Port: 8443, Priority: 20, Weight: 100},
		{Target: "light.example.com.", Port: 443, Priority: 10, Weight: 1},
		{Target: "heavy.example.com.", Port: 444, Priority: 10, Weight: 50},
	}}
	assert.Equal(t, "heavy.example.com:444", ResolveHost(ctx, "example.com", r))
	assert.Equal(t, "_bsvalias._tcp.example.com", r.name)

	assert.Equal(t, "example.com:443", ResolveHost(ctx, "example.com", &fakeResolver{err: errors.New("nxdomain")}))
	assert.Equal(t, "example.com:443", ResolveHost(ctx, "example.com", &fakeResolver{}))
	assert.Equal(t, "example.com:443", ResolveHost(ctx, "example.com", nil))
}

// paymailHost serves bsvalias discovery and basic address resolution over
// TLS. The returned client trusts the server and resolves every domain to it.
func paymailHost(t *testing.T, caps map[string]interface{}, dest http.HandlerFunc) *Client {
	t.Helper()
	var base string
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/bsvalias", func(w http.ResponseWriter, r *http.Request) {
		out := map[string]interface{}{}
		for k, v := range caps {
			if s, ok := v.(string); ok {
				v = base + s
			}
			out[k] = v
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"bsvalias": "1.0", "capabilities": out})
	})
	mux.HandleFunc("/api/address/", dest)
	server := httptest.NewTLSServer(mux)
	t.Cleanup(server.Close)
	base = server.URL

	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	c := NewClient(server.Client(), &fakeResolver{srvs: []*net.SRV{{Target: host + ".", Port: uint16(port)}}})
	c.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return c
}

const testLockHex = "76a914000102030405060708090a0b0c0d0e0f1011121388ac"

func TestResolveOutput(t *testing.T) {
	var got destinationRequest
	var gotPath string
	c := paymailHost(t,
		map[string]interface{}{
			"paymentDestination": "/api/address/{alias}@{domain.tld}",
			"pki":                "/api/id/{alias}@{domain.tld}",
			"f12f968c92d6":       true,
		},
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			gotPath = r.URL.Path
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_ = json.NewEncoder(w).Encode(map[string]string{"output": testLockHex})
		})

	lock, err := c.ResolveOutput(context.Background(), "Alice@Example.com", 25000)
	require.NoError(t, err)
	assert.Len(t, lock, 25)
	assert.Equal(t, byte(0x76), lock[0])

	assert.Equal(t, "/api/address/alice@example.com", gotPath)
	assert.Equal(t, uint64(25000), got.Amount)
	assert.Equal(t, "pendingtx", got.SenderName)
	assert.Equal(t, "2024-05-01T12:00:00Z", got.DT)
	assert.Equal(t, "payment", got.Purpose)
}

func TestDiscover(t *testing.T) {
	c := paymailHost(t,
		map[string]interface{}{"pki": "/api/id/{alias}@{domain.tld}"},
		func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })

	caps, err := c.Discover(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Equal(t, "1.0", caps.BSVAlias)
	assert.Contains(t, caps.PKI, "/api/id/{alias}@{domain.tld}")
	assert.Empty(t, caps.PaymentDestination)

	_, err = c.Discover(context.Background(), "")
	assert.ErrorIs(t, err, ErrDiscovery)
}

func TestResolveOutput_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid_handle", func(t *testing.T) {
		c := NewClient(nil, &fakeResolver{})
		_, err := c.ResolveOutput(ctx, "not-a-handle", 1000)
		assert.ErrorIs(t, err, ErrInvalidAddress)
	})

	t.Run("no_capability", func(t *testing.T) {
		c := paymailHost(t, map[string]interface{}{}, func(http.ResponseWriter, *http.Request) {})
		_, err := c.ResolveOutput(ctx, "alice@example.com", 1000)
		assert.ErrorIs(t, err, ErrAddressResolution)
	})

	t.Run("destination_status", func(t *testing.T) {
		c := paymailHost(t,
			map[string]interface{}{"paymentDestination": "/api/address/{alias}@{domain.tld}"},
			func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNotFound) })
		_, err := c.ResolveOutput(ctx, "alice@example.com", 1000)
		assert.ErrorIs(t, err, ErrAddressResolution)
		assert.Contains(t, err.Error(), "status 404")
	})

	t.Run("bad_script_hex", func(t *testing.T) {
		c := paymailHost(t,
			map[string]interface{}{"paymentDestination": "/api/address/{alias}@{domain.tld}"},
			func(w http.ResponseWriter, _ *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]string{"output": "zz"})
			})
		_, err := c.ResolveOutput(ctx, "alice@example.com", 1000)
		assert.ErrorIs(t, err, ErrAddressResolution)
	})

	t.Run("empty_script", func(t *testing.T) {
		c := paymailHost(t,
			map[string]interface{}{"paymentDestination": "/api/address/{alias}@{domain.tld}"},
			func(w http.ResponseWriter, _ *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]string{"output": ""})
			})
		_, err := c.ResolveOutput(ctx, "alice@example.com", 1000)
		assert.ErrorIs(t, err, ErrAddressResolution)
	})

	t.Run("discovery_failure", func(t *testing.T) {
		server := httptest.NewTLSServer(http.NotFoundHandler())
		t.Cleanup(server.Close)
		u, err := url.Parse(server.URL)
		require.NoError(t, err)
		host, portStr, err := net.SplitHostPort(u.Host)
		require.NoError(t, err)
		port, err := strconv.Atoi(portStr)
		require.NoError(t, err)

		c := NewClient(server.Client(), &fakeResolver{srvs: []*net.SRV{{Target: host, Port: uint16(port)}}})
		_, err = c.ResolveOutput(ctx, "alice@example.com", 1000)
		assert.ErrorIs(t, err, ErrAddressResolution)
		assert.ErrorIs(t, err, ErrDiscovery)
	})
}

func TestExpandTemplate(t *testing.T) {
	got := expandTemplate("https://h/{alias}@{domain.tld}/dest", "a/b", "example.com")
	assert.Equal(t, "https://h/a%2Fb@example.com/dest", got)
}
