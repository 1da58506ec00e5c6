//go:build !bluedroid_enabled
// +build !bluedroid_enabled

package probe

const bluedroidEnabled = false
