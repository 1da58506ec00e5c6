package util

import (
	"context"
	"strings"
	"time"

	"github.com/go-ble/ble"
)

const (
	inf = 1000000
)

// AddrEqualAddr compares two bluetooth addresses (or uuid strings) ignoring case
func AddrEqualAddr(a string, b string) bool {
	return strings.ToUpper(a) == strings.ToUpper(b)
}

// UuidEqualStr compares a ble.UUID with its canonical string form
func UuidEqualStr(u ble.UUID, s string) bool {
	compare := strings.Replace(s, "-", "", -1)
	return AddrEqualAddr(compare, u.String())
}

// MakeINFContext returns a context that only ends on SIGINT/SIGTERM
func MakeINFContext() context.Context {
	return ble.WithSigHandler(context.WithTimeout(context.Background(), inf*time.Hour))
}
