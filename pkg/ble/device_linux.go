package ble

import (
	"fmt"
	"sync"

	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
	"github.com/go-ble/ble/linux/hci/evt"
	"github.com/ifeco/ble-telemetry/pkg/connection"
)

// SubscriptionTracksConnection is false on linux: HCI connection events drive the listener
const SubscriptionTracksConnection = false

// hciEvents maps HCI connection handles to peer addresses, since a disconnection
// complete event only carries the handle
type hciEvents struct {
	mutex    sync.Mutex
	peers    map[uint16]string
	listener connection.Listener
}

func (h *hciEvents) onConnect(e evt.LEConnectionComplete) {
	if e.Status() != 0x00 {
		return
	}
	addr := formatPeerAddress(e.PeerAddress())
	h.mutex.Lock()
	h.peers[e.ConnectionHandle()] = addr
	h.mutex.Unlock()
	h.listener.OnConnect(addr)
}

func (h *hciEvents) onDisconnect(e evt.DisconnectionComplete) {
	h.mutex.Lock()
	addr := h.peers[e.ConnectionHandle()]
	delete(h.peers, e.ConnectionHandle())
	h.mutex.Unlock()
	h.listener.OnDisconnect(addr)
}

// formatPeerAddress renders the little endian HCI address as AA:BB:CC:DD:EE:FF
func formatPeerAddress(b [6]byte) string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", b[5], b[4], b[3], b[2], b[1], b[0])
}

func newDevice(listener connection.Listener) (ble.Device, error) {
	opts := []ble.Option{}
	if listener != nil {
		h := &hciEvents{peers: map[uint16]string{}, listener: listener}
		opts = append(opts,
			ble.OptConnectHandler(h.onConnect),
			ble.OptDisconnectHandler(h.onDisconnect),
		)
	}
	return linux.NewDevice(opts...)
}
