package models

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/bradfitz/slice"
)

// RssiMap holds the last seen rssi per peripheral address
type RssiMap struct {
	data  map[string]int
	mutex sync.RWMutex
}

// NewRssiMap will return newly init struct
func NewRssiMap() *RssiMap {
	return &RssiMap{data: map[string]int{}}
}

// Set will update the map
func (rm *RssiMap) Set(addr string, rssi int) {
	addr = strings.ToUpper(addr)
	rm.mutex.Lock()
	rm.data[addr] = rssi
	rm.mutex.Unlock()
}

// Get will get from map
func (rm *RssiMap) Get(addr string) (int, bool) {
	addr = strings.ToUpper(addr)
	rm.mutex.RLock()
	defer rm.mutex.RUnlock()
	ret, ok := rm.data[addr]
	return ret, ok
}

// GetAll will get a copy of all data from map
func (rm *RssiMap) GetAll() map[string]int {
	rm.mutex.RLock()
	defer rm.mutex.RUnlock()
	ret := make(map[string]int, len(rm.data))
	for k, v := range rm.data {
		ret[k] = v
	}
	return ret
}

// Merge will write input rssiMap to this rssiMap
func (rm *RssiMap) Merge(o *RssiMap) {
	for addr, rssi := range o.GetAll() {
		rm.Set(addr, rssi)
	}
}

// Strongest returns the addresses ordered from strongest to weakest signal
func (rm *RssiMap) Strongest() []string {
	all := rm.GetAll()
	addrs := make([]string, 0, len(all))
	for addr := range all {
		addrs = append(addrs, addr)
	}
	slice.Sort(addrs, func(i, j int) bool {
		if all[addrs[i]] == all[addrs[j]] {
			return addrs[i] < addrs[j]
		}
		return all[addrs[i]] > all[addrs[j]]
	})
	return addrs
}

// String returns json string of data
func (rm *RssiMap) String() string {
	b, _ := json.Marshal(rm.GetAll())
	return string(b)
}
