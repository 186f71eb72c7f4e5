package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/muurk/bhkiosk/internal/logging"
)

const (
	// ServiceType is the mDNS service type registration backends advertise
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// ServiceName identifies a registration backend, either as the TXT
	// "service" value or as the instance name prefix
	ServiceName = "bhregistry"

	// DefaultScanTimeout is the default timeout for backend discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is used when an advertisement carries no port
	DefaultPort = 8000

	// CacheTTL is how long scan results are reused
	CacheTTL = 5 * time.Minute

	cacheKeyAll = "backends"
)

// ErrNotFound is returned when no registration backend answers in time
var ErrNotFound = errors.New("no registration backend found")

// BrowseFunc streams mDNS service entries into entries until ctx is done
type BrowseFunc func(ctx context.Context, entries chan<- *zeroconf.ServiceEntry) error

// Scanner handles mDNS backend discovery
type Scanner struct {
	// Timeout is the maximum time to wait for advertisements
	Timeout time.Duration

	browse BrowseFunc
	cache  *gocache.Cache
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return NewScannerWithBrowser(browseZeroconf)
}

// NewScannerWithBrowser creates a scanner that reads entries from browse
func NewScannerWithBrowser(browse BrowseFunc) *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
		browse:  browse,
		cache:   gocache.New(CacheTTL, 2*CacheTTL),
	}
}

func browseZeroconf(ctx context.Context, entries chan<- *zeroconf.ServiceEntry) error {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("failed to create mDNS resolver: %w", err)
	}
	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return fmt.Errorf("failed to browse for mDNS services: %w", err)
	}
	return nil
}

// Scan discovers every registration backend on the local network.
// Results are cached for CacheTTL.
func (s *Scanner) Scan(ctx context.Context) ([]*Backend, error) {
	if cached, ok := s.cache.Get(cacheKeyAll); ok {
		return cached.([]*Backend), nil
	}

	backends, err := s.collect(ctx, false)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(cacheKeyAll, backends)
	return backends, nil
}

// Find returns the first registration backend that answers, using cached
// scan results when available
func (s *Scanner) Find(ctx context.Context) (*Backend, error) {
	if cached, ok := s.cache.Get(cacheKeyAll); ok {
		if backends := cached.([]*Backend); len(backends) > 0 {
			return backends[0], nil
		}
	}

	backends, err := s.collect(ctx, true)
	if err != nil {
		return nil, err
	}
	if len(backends) == 0 {
		return nil, fmt.Errorf("%w within %s", ErrNotFound, s.Timeout)
	}
	return backends[0], nil
}

// Invalidate drops cached scan results
func (s *Scanner) Invalidate() {
	s.cache.Flush()
}

// collect browses until the timeout, or until the first match when first is set
func (s *Scanner) collect(ctx context.Context, first bool) ([]*Backend, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)

	var mu sync.Mutex
	var backends []*Backend
	seen := make(map[string]bool)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-entries:
				if !ok {
					return
				}
				backend := s.parseServiceEntry(entry)
				if backend == nil {
					continue
				}

				mu.Lock()
				if !seen[backend.Instance] {
					seen[backend.Instance] = true
					backends = append(backends, backend)
					logging.Info("Backend discovered",
						zap.String("instance", backend.Instance),
						zap.String("url", backend.BaseURL()),
					)
				}
				mu.Unlock()

				if first {
					cancel()
					return
				}
			}
		}
	}()

	if err := s.browse(ctx, entries); err != nil {
		return nil, err
	}

	// Wait for context to complete (timeout, first match or cancellation)
	<-ctx.Done()
	<-done

	mu.Lock()
	defer mu.Unlock()
	return backends, nil
}

// parseServiceEntry converts a zeroconf service entry to a Backend
// Returns nil if the entry is not a registration backend
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Backend {
	if entry == nil {
		return nil
	}

	// Parse TXT records into metadata
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		// TXT records are in "key=value" format
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			// Key without value
			metadata[parts[0]] = ""
		}
	}

	if metadata["service"] != ServiceName && !strings.HasPrefix(strings.ToLower(entry.Instance), ServiceName) {
		return nil
	}

	// Get IP address (prefer IPv4)
	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	}

	// Fallback to IPv6 if no IPv4
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}

	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	return &Backend{
		Instance:     entry.Instance,
		Host:         entry.HostName,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// QuickScan performs a fast scan with a 2-second timeout
func QuickScan(ctx context.Context) ([]*Backend, error) {
	scanner := NewScanner()
	scanner.Timeout = 2 * time.Second
	return scanner.Scan(ctx)
}
