package net

import (
	"fmt"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// SharedPortManager keeps track of the ports handed out to the tests of the package.
var SharedPortManager = &PortManager{
	usedPorts: make(map[int]bool),
}

type PortManager struct {
	usedPorts map[int]bool
	mutex     sync.Mutex
}

// GetFreePort returns a port which was free when checked and which the
// manager hasn't returned before.
func (pm *PortManager) GetFreePort() (int, error) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	for {
		l, err := net.Listen("tcp", "localhost:0")
		if err != nil {
			return 0, err
		}
		port := l.Addr().(*net.TCPAddr).Port
		if err := l.Close(); err != nil {
			return 0, fmt.Errorf("closing listener: %w", err)
		}

		if !pm.usedPorts[port] {
			pm.usedPorts[port] = true
			return port, nil
		}
	}
}

// GetFreeAddress returns "localhost:port" address with free port.
func (pm *PortManager) GetFreeAddress(t *testing.T) string {
	port, err := pm.GetFreePort()
	require.NoError(t, err)
	return fmt.Sprintf("localhost:%d", port)
}
