package utils

import (
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remote     string
		headers    map[string]string
		trustProxy bool
		want       string
	}{
		{name: "remote addr", remote: "192.0.2.1:1234", want: "192.0.2.1"},
		{name: "ipv6 remote", remote: "[2001:db8::1]:443", want: "2001:db8::1"},
		{name: "mapped ipv4", remote: "[::ffff:192.0.2.9]:80", want: "192.0.2.9"},
		{name: "proxy headers ignored when untrusted", remote: "10.0.0.1:1", headers: map[string]string{"X-Forwarded-For": "203.0.113.5"}, want: "10.0.0.1"},
		{name: "cf header first", remote: "10.0.0.1:1", trustProxy: true, headers: map[string]string{"CF-Connecting-IP": "203.0.113.7", "X-Forwarded-For": "203.0.113.5"}, want: "203.0.113.7"},
		{name: "left-most forwarded", remote: "10.0.0.1:1", trustProxy: true, headers: map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.2"}, want: "203.0.113.5"},
		{name: "garbage header falls through", remote: "10.0.0.1:1", trustProxy: true, headers: map[string]string{"X-Forwarded-For": "not-an-ip", "X-Real-IP": "198.51.100.3"}, want: "198.51.100.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIPMatcher(t *testing.T) {
	m := NewIPMatcher([]string{"10.0.0.0/8", "192.0.2.7", " ", "junk", "2001:db8::/32"})
	if m.IsEmpty() {
		t.Fatal("matcher should not be empty")
	}

	tests := map[string]bool{
		"10.1.2.3":        true,
		"192.0.2.7":       true,
		"192.0.2.8":       false,
		"::ffff:10.9.9.9": true,
		"2001:db8:1::1":   true,
		"2001:db9::1":     false,
		"not-an-ip":       false,
	}
	for ip, want := range tests {
		if got := m.Allow(ip); got != want {
			t.Errorf("Allow(%q) = %v, want %v", ip, got, want)
		}
	}

	if !NewIPMatcher(nil).IsEmpty() {
		t.Error("nil list should produce an empty matcher")
	}
}
