// Zaparoo Countdown
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Zaparoo Countdown.
//
// Zaparoo Countdown is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Zaparoo Countdown is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Zaparoo Countdown.  If not, see <http://www.gnu.org/licenses/>.

// Package discovery advertises the countdown API over mDNS so controllers
// and display surfaces on the local network can find it.
package discovery

import (
	"context"
	"fmt"
	"net"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/config"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/helpers/syncutil"
	"github.com/grandcat/zeroconf"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// ServiceType is the DNS-SD service type of the countdown API.
const ServiceType = "_zaparoo-countdown._tcp"

const (
	domain           = "local."
	retryInterval    = 30 * time.Second
	maxRetryDuration = 5 * time.Minute
)

// Container and VPN interfaces are never advertised on.
var virtualInterfacePrefixes = []string{
	"docker", "br-", "veth", "virbr", "lxc", "lxd",
	"cni", "flannel", "cali", "tunl", "wg",
}

func getPreferredInterfaces() ([]net.Interface, error) {
	allIfaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("list network interfaces: %w", err)
	}

	return filterInterfaces(allIfaces), nil
}

// filterInterfaces keeps interfaces that are up, multicast capable, and
// neither loopback nor virtual.
func filterInterfaces(ifaces []net.Interface) []net.Interface {
	var preferred []net.Interface
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}

		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		if iface.Flags&net.FlagMulticast == 0 {
			continue
		}

		if isVirtualInterface(iface.Name) {
			continue
		}

		preferred = append(preferred, iface)
	}

	return preferred
}

func isVirtualInterface(name string) bool {
	lowerName := strings.ToLower(name)
	for _, prefix := range virtualInterfacePrefixes {
		if strings.HasPrefix(lowerName, prefix) {
			return true
		}
	}
	return false
}

// registerFunc matches zeroconf.Register.
type registerFunc func(
	instance, service, domain string,
	port int,
	text []string,
	ifaces []net.Interface,
) (*zeroconf.Server, error)

// Service advertises the API while the daemon runs. Registration is
// retried in the background for a while when the network isn't up yet.
type Service struct {
	server       *zeroconf.Server
	cfg          *config.Instance
	clock        clockwork.Clock
	register     registerFunc
	interfaces   func() ([]net.Interface, error)
	cancelFunc   context.CancelFunc
	instanceName string
	registered   bool
	stopped      bool
	mu           syncutil.Mutex
}

func New(cfg *config.Instance, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		cfg:        cfg,
		clock:      clock,
		register:   zeroconf.Register,
		interfaces: getPreferredInterfaces,
	}
}

// Start begins advertising. It only fails when no instance name can be
// worked out; network problems start the background retry instead.
func (s *Service) Start() error {
	if !s.cfg.DiscoveryEnabled() {
		log.Info().Msg("discovery: disabled by configuration")
		return nil
	}

	instanceName, err := s.resolveInstanceName()
	if err != nil {
		return fmt.Errorf("resolve instance name: %w", err)
	}
	s.mu.Lock()
	s.instanceName = instanceName
	s.mu.Unlock()

	if s.tryRegister() {
		return nil
	}

	log.Info().
		Dur("retryInterval", retryInterval).
		Dur("maxDuration", maxRetryDuration).
		Msg("discovery: registration failed, retrying in background")

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancelFunc = cancel
	s.mu.Unlock()

	go s.retryLoop(ctx)

	return nil
}

// TXTRecords describes the instance to clients browsing for it.
func TXTRecords(cfg *config.Instance) []string {
	return []string{
		"id=" + cfg.DeviceID(),
		"version=" + config.AppVersion,
		"platform=" + runtime.GOOS,
		"path=/api",
	}
}

func (s *Service) tryRegister() bool {
	port := s.cfg.APIPort()

	ifaces, err := s.interfaces()
	if err != nil {
		log.Debug().Err(err).Msg("discovery: failed to list network interfaces")
		return false
	}
	if len(ifaces) == 0 {
		log.Debug().Msg("discovery: no suitable network interfaces")
		return false
	}

	ifaceNames := make([]string, len(ifaces))
	for i, iface := range ifaces {
		ifaceNames[i] = iface.Name
	}
	server, err := s.register(s.InstanceName(), ServiceType, domain, port, TXTRecords(s.cfg), ifaces)
	if err != nil {
		log.Debug().Err(err).Msg("discovery: registration attempt failed")
		return false
	}

	s.mu.Lock()
	if s.stopped {
		// stopped while registering
		s.mu.Unlock()
		if server != nil {
			server.Shutdown()
		}
		return false
	}
	s.server = server
	s.registered = true
	s.mu.Unlock()

	log.Info().
		Str("instance", s.InstanceName()).
		Int("port", port).
		Str("type", ServiceType).
		Strs("interfaces", ifaceNames).
		Msg("discovery: advertising started")

	return true
}

func (s *Service) retryLoop(ctx context.Context) {
	ticker := s.clock.NewTicker(retryInterval)
	defer ticker.Stop()
	giveUp := s.clock.NewTimer(maxRetryDuration)
	defer giveUp.Stop()

	for {
		select {
		case <-ticker.Chan():
			if s.tryRegister() {
				log.Info().Msg("discovery: registration succeeded after retry")
				return
			}
		case <-giveUp.Chan():
			log.Warn().Msg("discovery: giving up on registration, clients must be given the address")
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop withdraws the advertisement. It is safe to call more than once.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true

	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}

	if s.server != nil {
		log.Debug().Msg("discovery: stopping advertising")
		s.server.Shutdown()
		s.server = nil
	}
	s.registered = false
}

// InstanceName is the advertised name, empty before Start.
func (s *Service) InstanceName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.instanceName
}

// Registered reports whether the advertisement is live.
func (s *Service) Registered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registered
}

// resolveInstanceName prefers the configured name, then the hostname.
func (s *Service) resolveInstanceName() (string, error) {
	if name := s.cfg.DiscoveryInstanceName(); name != "" {
		return name, nil
	}

	hostname, err := os.Hostname()
	if err != nil {
		log.Warn().Err(err).Msg("discovery: no hostname, using fallback name")
		deviceID := s.cfg.DeviceID()
		if len(deviceID) >= 8 {
			return "countdown-" + deviceID[:8], nil
		}
		return "countdown", nil
	}

	return "Countdown on " + hostname, nil
}
