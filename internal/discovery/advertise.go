package discovery

import (
	"fmt"
	"strconv"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/bhkiosk/internal/logging"
)

// Advertisement is a running mDNS announcement of a registration backend
type Advertisement struct {
	server *zeroconf.Server
}

// Advertise announces a registration backend listening on port so kiosks
// can find it. house is included in the TXT record when positive.
func Advertise(instance string, port, house int) (*Advertisement, error) {
	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, advertisedTXT(house), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to advertise %s: %w", instance, err)
	}
	logging.Info("Advertising registration backend",
		zap.String("instance", instance),
		zap.Int("port", port),
	)
	return &Advertisement{server: server}, nil
}

// Stop withdraws the announcement
func (a *Advertisement) Stop() {
	if a != nil && a.server != nil {
		a.server.Shutdown()
	}
}

func advertisedTXT(house int) []string {
	txt := []string{"service=" + ServiceName, "path=/api/"}
	if house > 0 {
		txt = append(txt, "house="+strconv.Itoa(house))
	}
	return txt
}
