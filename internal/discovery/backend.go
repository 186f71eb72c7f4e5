package discovery

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Backend represents a registration backend advertised on the network
type Backend struct {
	// Instance is the mDNS service instance name (e.g., "bhregistry-frontdesk")
	Instance string

	// Host is the mDNS hostname (e.g., "frontdesk.local.")
	Host string

	// IP is the preferred address (IPv4 when available)
	IP string

	// Port is the HTTP port (typically 8000)
	Port int

	// Metadata contains the mDNS TXT record data
	// Common fields: "service=bhregistry", "path=/api/", "house=3"
	Metadata map[string]string

	// DiscoveredAt is when the backend was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the backend
func (b *Backend) String() string {
	return fmt.Sprintf("Registration backend %s (%s) at %s", b.Instance, strings.TrimSuffix(b.Host, "."), net.JoinHostPort(b.IP, strconv.Itoa(b.Port)))
}

// BaseURL returns the HTTP base URL for the backend
func (b *Backend) BaseURL() string {
	return "http://" + net.JoinHostPort(b.IP, strconv.Itoa(b.Port))
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (b *Backend) GetMetadata(key string) string {
	if b.Metadata == nil {
		return ""
	}
	return b.Metadata[key]
}

// BoardingHouse returns the boarding house id advertised in the "house" TXT
// key, or 0 when absent
func (b *Backend) BoardingHouse() int {
	n, err := strconv.Atoi(b.GetMetadata("house"))
	if err != nil {
		return 0
	}
	return n
}
