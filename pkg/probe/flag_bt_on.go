//go:build bt_enabled
// +build bt_enabled

package probe

const btEnabled = true
