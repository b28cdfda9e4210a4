package utils

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"

	"golang.org/x/net/html/charset"
)

// DecodeJSON decodes a response body into target, transcoding it to UTF-8
// first when the Content-Type header names another charset.
func DecodeJSON(resp *http.Response, target interface{}) error {
	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return fmt.Errorf("failed to read response charset: %w", err)
	}
	if err := json.NewDecoder(body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// InternalHeader marks requests the server sends to its own proxy paths.
const InternalHeader = "X-Flicks-Internal"

// InternalTransport stamps every request with InternalHeader.
type InternalTransport struct {
	Token string
	Base  http.RoundTripper
}

func (t *InternalTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	req = req.Clone(req.Context())
	req.Header.Set(InternalHeader, t.Token)
	return base.RoundTrip(req)
}

// ParseTrustedProxies turns IPs and CIDRs into networks. A bare IP becomes a
// single-host network.
func ParseTrustedProxies(entries []string) ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !strings.Contains(entry, "/") {
			ip := net.ParseIP(entry)
			if ip == nil {
				return nil, fmt.Errorf("invalid trusted proxy %q", entry)
			}
			bits := 128
			if ip.To4() != nil {
				ip = ip.To4()
				bits = 32
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", entry, err)
		}
		nets = append(nets, n)
	}
	return nets, nil
}

// ClientIP returns the remote address of the request. X-Forwarded-For is
// only honored when the remote address is one of the trusted proxies.
func ClientIP(r *http.Request, trusted []*net.IPNet) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if len(trusted) == 0 {
		return host
	}
	fwd := r.Header.Get("X-Forwarded-For")
	if fwd == "" || !containsIP(trusted, net.ParseIP(host)) {
		return host
	}
	first, _, _ := strings.Cut(fwd, ",")
	if first = strings.TrimSpace(first); net.ParseIP(first) != nil {
		return first
	}
	return host
}

func containsIP(nets []*net.IPNet, ip net.IP) bool {
	if ip == nil {
		return false
	}
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
