// Package discovery finds the registration backend on the local network
// over mDNS.
//
// Backends advertise an "_http._tcp" service. An advertisement counts as a
// registration backend when its TXT record carries "service=bhregistry" or
// its instance name starts with "bhregistry".
//
// # Usage Example
//
//	scanner := discovery.NewScanner()
//	backend, err := scanner.Find(ctx)
//	if err != nil {
//	    return err
//	}
//	client := registration.NewClient(backend.BaseURL())
//
// Scan results are cached for CacheTTL, so repeated lookups from the kiosk
// do not flood the network. Invalidate drops the cache after the configured
// backend stops answering.
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - The backend must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
