package peripheral

import (
	"strings"

	"github.com/go-ble/ble"
	"github.com/ifeco/ble-telemetry/pkg/models"
	"github.com/ifeco/ble-telemetry/pkg/util"
	log "github.com/sirupsen/logrus"
)

type subscriber struct {
	addr     string
	notifier ble.Notifier
}

func getAddrFromReq(req ble.Request) string {
	return strings.ToUpper(req.Conn().RemoteAddr().String())
}

func newTelemetryChar(server *TelemetryServer, uuid string) *ble.Characteristic {
	c := ble.NewCharacteristic(ble.MustParse(uuid))
	c.HandleRead(ble.ReadHandlerFunc(generateReadHandler(server)))
	c.HandleWrite(ble.WriteHandlerFunc(generateWriteHandler(server)))
	c.HandleNotify(ble.NotifyHandlerFunc(generateNotifyHandler(server)))
	return c
}

func generateReadHandler(server *TelemetryServer) func(req ble.Request, rsp ble.ResponseWriter) {
	return func(req ble.Request, rsp ble.ResponseWriter) {
		rsp.Write(server.Value())
	}
}

// Writes are accepted and reported, they never feed back into the telemetry
func generateWriteHandler(server *TelemetryServer) func(req ble.Request, rsp ble.ResponseWriter) {
	return func(req ble.Request, rsp ble.ResponseWriter) {
		addr := getAddrFromReq(req)
		data := req.Data()
		if len(data) > util.ValueBufferSize {
			data = data[:util.ValueBufferSize]
		}
		r := models.WriteRequest{Addr: addr, Data: append([]byte{}, data...)}
		log.WithField("addr", addr).Debug(r.String())
		server.listener.OnClientWrite(r)
	}
}

// subscribe adds sub and reports a connect when it is the first subscriber
func (server *TelemetryServer) subscribe(sub *subscriber) {
	server.subscriptionMutex.Lock()
	defer server.subscriptionMutex.Unlock()
	server.subscribers.Add(sub)
	if server.subscriptionListener != nil && server.subscribers.Cardinality() == 1 {
		server.subscriptionListener.OnConnect(sub.addr)
	}
}

// unsubscribe removes sub and reports a disconnect once no subscriber is left
func (server *TelemetryServer) unsubscribe(sub *subscriber) {
	server.subscriptionMutex.Lock()
	defer server.subscriptionMutex.Unlock()
	server.subscribers.Remove(sub)
	if server.subscriptionListener != nil && server.subscribers.Cardinality() == 0 {
		server.subscriptionListener.OnDisconnect(sub.addr)
	}
}

func generateNotifyHandler(server *TelemetryServer) func(req ble.Request, n ble.Notifier) {
	return func(req ble.Request, n ble.Notifier) {
		sub := &subscriber{addr: getAddrFromReq(req), notifier: n}
		entry := log.WithField("addr", sub.addr)
		server.subscribe(sub)
		entry.Info("Central subscribed")
		<-n.Context().Done()
		server.unsubscribe(sub)
		entry.Info("Central unsubscribed")
	}
}
