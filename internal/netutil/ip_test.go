package netutil

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreferredInterface(t *testing.T) {
	for _, name := range []string{"eth0", "en0", "wlan0", "wlp3s0", "wifi0"} {
		assert.True(t, preferredInterface(name), name)
	}
	for _, name := range []string{"lo", "docker0", "br-12ab", "veth9f", "tun0"} {
		assert.False(t, preferredInterface(name), name)
	}
}

func TestUsableInterface(t *testing.T) {
	t.Run("rejects down interface", func(t *testing.T) {
		assert.False(t, usableInterface(net.Interface{Name: "eth0", Flags: 0}))
	})

	t.Run("rejects loopback", func(t *testing.T) {
		assert.False(t, usableInterface(net.Interface{Name: "lo", Flags: net.FlagUp | net.FlagLoopback}))
	})

	t.Run("rejects container plumbing", func(t *testing.T) {
		for _, name := range []string{"docker0", "br-3a1f", "veth12", "virbr0"} {
			assert.False(t, usableInterface(net.Interface{Name: name, Flags: net.FlagUp}), name)
		}
	})

	t.Run("accepts up physical interface", func(t *testing.T) {
		assert.True(t, usableInterface(net.Interface{Name: "eth0", Flags: net.FlagUp}))
	})
}
