package sensor

import (
	"github.com/nsm-fleet/nsmd/internal/protocol/nsm"
	"github.com/nsm-fleet/nsmd/internal/transport"
)

// TemperatureBehavior polls GetTemperatureReading and forwards the decoded
// Celsius value to a numeric observer.
type TemperatureBehavior struct {
	Observer ValueObserver
	Status   StatusObserver
}

// GenRequestMsg builds the GetTemperatureReading request.
func (b *TemperatureBehavior) GenRequestMsg() transport.Request {
	return transport.Request{MessageType: nsm.MessageTypePlatformEnvironmental, CommandCode: nsm.CmdGetTemperatureReading}
}

// HandleResponseMsg decodes the float32 payload and forwards it.
func (b *TemperatureBehavior) HandleResponseMsg(payload []byte) error {
	v, err := nsm.DecodeFloat32Sample(payload)
	if err != nil {
		if b.Status != nil {
			b.Status.UpdateStatus(false, false)
		}
		return err
	}
	b.Observer.UpdateReading(float64(v), 0)
	if b.Status != nil {
		b.Status.UpdateStatus(true, true)
	}
	return nil
}

// PowerDrawBehavior polls GetCurrentPowerDraw and forwards the decoded
// milliwatt value to a numeric observer; unit conversion to watts, if
// wanted, is sink-local (spec.md §4.6).
type PowerDrawBehavior struct {
	Observer ValueObserver
	Status   StatusObserver
}

// GenRequestMsg builds the GetCurrentPowerDraw request.
func (b *PowerDrawBehavior) GenRequestMsg() transport.Request {
	return transport.Request{MessageType: nsm.MessageTypePlatformEnvironmental, CommandCode: nsm.CmdGetCurrentPowerDraw}
}

// HandleResponseMsg decodes the milliwatt payload and forwards it.
func (b *PowerDrawBehavior) HandleResponseMsg(payload []byte) error {
	resp, err := nsm.DecodeGetCurrentPowerDrawResponse(nsm.ResponseHeader{CC: nsm.CCSuccess}, payload)
	if err != nil {
		if b.Status != nil {
			b.Status.UpdateStatus(false, false)
		}
		return err
	}
	b.Observer.UpdateReading(float64(resp.MilliWatts), 0)
	if b.Status != nil {
		b.Status.UpdateStatus(true, true)
	}
	return nil
}
