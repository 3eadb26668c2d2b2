// Package discovery advertises the presence relay on the local network over
// mDNS and finds relays advertised by others.
package discovery

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
	"github.com/sirupsen/logrus"
)

// ServiceType is the DNS-SD type of the relay.
const ServiceType = "_thumbio._tcp"

// Advertiser answers mDNS queries for one relay until shut down.
type Advertiser struct {
	server *mdns.Server
}

// Advertise announces the relay listening on port. txt entries are published
// verbatim (e.g. "path=/ws/room/").
func Advertise(port int, txt ...string) (*Advertiser, error) {
	service, err := newService(port, txt)
	if err != nil {
		return nil, err
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}
	logrus.WithFields(logrus.Fields{"service": ServiceType, "port": port}).Info("Discovery: relay advertised")
	return &Advertiser{server: server}, nil
}

// Shutdown stops answering queries.
func (a *Advertiser) Shutdown() error {
	if a == nil || a.server == nil {
		return nil
	}
	return a.server.Shutdown()
}

func newService(port int, txt []string) (*mdns.MDNSService, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("could not get hostname: %w", err)
	}
	host = strings.TrimSuffix(host, ".")
	service, err := mdns.NewMDNSService(host, ServiceType, "", host+".", port, []net.IP{firstIPv4()}, txt)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}
	return service, nil
}

// Relay is one relay found on the network.
type Relay struct {
	Name string
	Addr string // host:port
	Info []string
}

// Browse queries the network for relays until timeout or ctx is done.
func Browse(ctx context.Context, timeout time.Duration) ([]Relay, error) {
	entries := make(chan *mdns.ServiceEntry, 16)
	done := make(chan []Relay, 1)
	go func() {
		var found []Relay
		seen := make(map[string]bool)
		for e := range entries {
			if r, ok := relayFromEntry(e); ok && !seen[r.Addr] {
				seen[r.Addr] = true
				found = append(found, r)
			}
		}
		done <- found
	}()

	params := mdns.DefaultParams(ServiceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true
	err := mdns.QueryContext(ctx, params)
	close(entries)
	found := <-done
	if err != nil {
		return found, fmt.Errorf("mDNS query: %w", err)
	}
	return found, nil
}

func relayFromEntry(e *mdns.ServiceEntry) (Relay, bool) {
	if e == nil || e.AddrV4 == nil || e.Port == 0 {
		return Relay{}, false
	}
	return Relay{
		Name: e.Name,
		Addr: net.JoinHostPort(e.AddrV4.String(), fmt.Sprint(e.Port)),
		Info: e.InfoFields,
	}, true
}

func firstIPv4() net.IP {
	ifaces, _ := net.Interfaces()
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, _ := iface.Addrs()
		for _, a := range addrs {
			if ipnet, ok := a.(*net.IPNet); ok && ipnet.IP.To4() != nil {
				return ipnet.IP.To4()
			}
		}
	}
	return net.IPv4(127, 0, 0, 1)
}
