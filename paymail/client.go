package paymail

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// MaxResponseSize caps the bytes read from any paymail endpoint.
const MaxResponseSize = 1 << 20

const defaultTimeout = 30 * time.Second

// Capability keys in .well-known/bsvalias.
const (
	capPaymentDestination = "paymentDestination"
	capPKI                = "pki"
)

// Capabilities holds the endpoint templates a paymail host advertises.
type Capabilities struct {
	BSVAlias           string
	PaymentDestination string
	PKI                string
}

type wellKnownResponse struct {
	BSVAlias     string                 `json:"bsvalias"`
	Capabilities map[string]interface{} `json:"capabilities"`
}

type destinationRequest struct {
	SenderName   string `json:"senderName,omitempty"`
	SenderHandle string `json:"senderHandle,omitempty"`
	DT           string `json:"dt"`
	Amount       uint64 `json:"amount,omitempty"`
	Purpose      string `json:"purpose,omitempty"`
}

type destinationResponse struct {
	Output string `json:"output"`
}

// Client resolves paymail handles.
type Client struct {
	HTTP       *http.Client
	DNS        Resolver
	SenderName string

	now func() time.Time
}

// NewClient creates a client. A nil httpClient gets a 30 second timeout; a
// nil resolver means DefaultResolver.
func NewClient(httpClient *http.Client, resolver Resolver) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if resolver == nil {
		resolver = DefaultResolver
	}
	return &Client{HTTP: httpClient, DNS: resolver, SenderName: "pendingtx", now: time.Now}
}

// Discover fetches https://<host>/.well-known/bsvalias for domain, where host
// comes from ResolveHost.
func (c *Client) Discover(ctx context.Context, domain string) (*Capabilities, error) {
	if domain == "" {
		return nil, fmt.Errorf("%w: empty domain", ErrDiscovery)
	}
	wkURL := "https://" + ResolveHost(ctx, domain, c.DNS) + "/.well-known/bsvalias"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wkURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDiscovery, err)
	}
	body, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", ErrDiscovery, wkURL, err)
	}

	var wk wellKnownResponse
	if err := json.Unmarshal(body, &wk); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", ErrDiscovery, wkURL, err)
	}

	caps := &Capabilities{BSVAlias: wk.BSVAlias}
	for key, val := range wk.Capabilities {
		s, ok := val.(string)
		if !ok {
			continue
		}
		switch key {
		case capPaymentDestination:
			caps.PaymentDestination = s
		case capPKI:
			caps.PKI = s
		}
	}
	return caps, nil
}

// ResolveOutput asks the host of handle for a locking script to pay amount
// satoshis to.
func (c *Client) ResolveOutput(ctx context.Context, handle string, amount uint64) ([]byte, error) {
	alias, domain, err := ParseAddress(handle)
	if err != nil {
		return nil, err
	}
	caps, err := c.Discover(ctx, domain)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAddressResolution, err)
	}
	if caps.PaymentDestination == "" {
		return nil, fmt.Errorf("%w: %s advertises no payment destination", ErrAddressResolution, domain)
	}

	now := time.Now
	if c.now != nil {
		now = c.now
	}
	destURL := expandTemplate(caps.PaymentDestination, alias, domain)
	payload, err := json.Marshal(destinationRequest{
		SenderName: c.SenderName,
		DT:         now().UTC().Format(time.RFC3339),
		Amount:     amount,
		Purpose:    "payment",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAddressResolution, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, destURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAddressResolution, err)
	}
	req.Header.Set("Content-Type", "application/json")
	body, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: POST %s: %w", ErrAddressResolution, destURL, err)
	}

	var resp destinationResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: parsing response: %w", ErrAddressResolution, err)
	}
	lock, err := hex.DecodeString(resp.Output)
	if err != nil {
		return nil, fmt.Errorf("%w: output script: %w", ErrAddressResolution, err)
	}
	if len(lock) == 0 {
		return nil, fmt.Errorf("%w: empty output script", ErrAddressResolution)
	}
	return lock, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
}

// expandTemplate fills {alias} and {domain.tld}, escaping both.
func expandTemplate(tmpl, alias, domain string) string {
	out := strings.ReplaceAll(tmpl, "{alias}", url.PathEscape(alias))
	return strings.ReplaceAll(out, "{domain.tld}", url.PathEscape(domain))
}
