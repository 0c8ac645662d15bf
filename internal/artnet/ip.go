package artnet

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
)

var errNoAddress = errors.New("no IPv4 address found")

// FindArtNetIP finds the matching interface with an IP address inside addressRange.
func FindArtNetIP(addressRange string) (net.IP, error) {
	_, cidrNet, err := net.ParseCIDR(addressRange)
	if err != nil {
		return nil, fmt.Errorf("bad art-net network %q: %w", addressRange, err)
	}
	address, err := net.InterfaceAddrs()
	if err != nil {
		return nil, fmt.Errorf("error getting ips: %w", err)
	}

	for _, addr := range address {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipNet.IP

		if strings.Contains(ip.String(), ":") {
			continue
		}

		if cidrNet.Contains(ip) {
			return ip, nil
		}
	}

	return nil, fmt.Errorf("%w in %s", errNoAddress, addressRange)
}

// HostIP resolves the host name and returns its first IPv4 address.
func HostIP() (net.IP, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve hostname: %w", err)
	}
	ips, err := net.LookupIP(host)
	if err != nil {
		return nil, fmt.Errorf("failed to find IP for %s: %w", host, err)
	}
	if ip := firstIPv4(ips); ip != nil {
		return ip, nil
	}
	return nil, fmt.Errorf("%w for %s", errNoAddress, host)
}

func firstIPv4(ips []net.IP) net.IP {
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			return v4
		}
	}
	return nil
}

// hostName is the short lower-case host name used as the art-net node name.
func hostName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "lightscontroller"
	}
	return strings.ToLower(strings.Split(host, ".")[0])
}
