package paymail

import "errors"

var (
	// ErrInvalidAddress indicates a string is not of the form alias@domain.
	ErrInvalidAddress = errors.New("paymail: invalid address")

	// ErrDNSLookupFailed indicates a DNS SRV lookup failed.
	ErrDNSLookupFailed = errors.New("paymail: DNS lookup failed")

	// ErrDNSSECValidationFailed indicates the upstream resolver did not
	// authenticate the answer.
	ErrDNSSECValidationFailed = errors.New("paymail: DNSSEC validation failed")

	// ErrDiscovery indicates .well-known/bsvalias could not be fetched or parsed.
	ErrDiscovery = errors.New("paymail: capability discovery failed")

	// ErrAddressResolution indicates the payment destination endpoint failed.
	ErrAddressResolution = errors.New("paymail: address resolution failed")
)
