package sensor

import (
	"fmt"

	"github.com/nsm-fleet/nsmd/internal/nsmerr"
	"github.com/nsm-fleet/nsmd/internal/protocol/nsm"
	"github.com/nsm-fleet/nsmd/internal/transport"
	"github.com/nsm-fleet/nsmd/pkg/bufpool"
)

// NewSetMigModeSensor builds the AsyncLongRunningSensor for SetMigMode
// (spec.md §8 scenario 4: a long-running write completed by an async
// event). value must be a bool; onDone receives the decoded enabled flag.
func NewSetMigModeSensor(ex LongRunningExchanger, onDone func(enabled bool)) *AsyncLongRunningSensor {
	return NewAsyncLongRunning("set_mig_mode", ex,
		func(value any) (transport.Request, error) {
			enabled, ok := value.(bool)
			if !ok {
				return transport.Request{}, nsmerr.New("NewSetMigModeSensor", nsmerr.LayerDevice, nsmerr.CodeInvalidArgument)
			}
			body := bufpool.Get(1)
			if _, err := nsm.EncodeSetMigModeRequest(body, enabled); err != nil {
				return transport.Request{}, err
			}
			return transport.Request{MessageType: nsm.MessageTypePlatformEnvironmental, CommandCode: nsm.CmdSetMigMode, Body: body}, nil
		},
		func(payload []byte) error {
			resp, err := nsm.DecodeGetMigModeResponse(nsm.ResponseHeader{CC: nsm.CCSuccess}, payload)
			if err != nil {
				return err
			}
			onDone(resp.Enabled)
			return nil
		},
	)
}

// minPowerCapMilliWatts and maxPowerCapMilliWatts bound an accepted
// SetPowerCap value, matching
// original_source/nsmd/nsmDbusIfaceOverride/nsmPowerCapIface.hpp's
// powerCap()'s `power_limit > maxPowerCapValue() || power_limit <
// minPowerCapValue()` guard: a write outside this range is rejected before
// it ever reaches the wire (spec.md §8 scenario 5).
const (
	minPowerCapMilliWatts uint32 = 50_000
	maxPowerCapMilliWatts uint32 = 700_000
)

// setPowerCapBehavior is the PolledBehavior for SetPowerCap, a plain
// (non-long-running) write: GenRequestMsg encodes the
// requested milliwatt cap, HandleResponseMsg is a no-op success
// acknowledgement. Kept separate from NewSetMigModeSensor because
// SetPowerCap never returns ACCEPTED on this device family.
type setPowerCapBehavior struct {
	milliWatts uint32
}

func (b *setPowerCapBehavior) GenRequestMsg() transport.Request {
	body := bufpool.Get(4)
	_, _ = nsm.EncodeSetPowerCapRequest(body, b.milliWatts)
	return transport.Request{MessageType: nsm.MessageTypePlatformEnvironmental, CommandCode: nsm.CmdSetPowerCap, Body: body}
}

func (b *setPowerCapBehavior) HandleResponseMsg(payload []byte) error { return nil }

// SetValue validates and installs the milliwatt cap an async dispatch asked
// for, implementing WriteValueSetter so AsHandler threads the caller's
// value through instead of always repeating the construction-time default.
func (b *setPowerCapBehavior) SetValue(value any) error {
	milliWatts, ok := value.(uint32)
	if !ok {
		return nsmerr.New("setPowerCapBehavior.SetValue", nsmerr.LayerDevice, nsmerr.CodeInvalidArgument)
	}
	if milliWatts < minPowerCapMilliWatts || milliWatts > maxPowerCapMilliWatts {
		return nsmerr.New("setPowerCapBehavior.SetValue", nsmerr.LayerDevice, nsmerr.CodeInvalidArgument)
	}
	b.milliWatts = milliWatts
	return nil
}

// NewSetPowerCapSensor builds a PolledSensor that issues a SetPowerCap write
// for milliWatts when Update is called directly (e.g. the scheduler's
// periodic pass), and accepts a new target value per async dispatch via
// AsHandler/SetValue.
func NewSetPowerCapSensor(ex Exchanger, milliWatts uint32) *PolledSensor {
	return NewPolled(fmt.Sprintf("set_power_cap_%d", milliWatts), &setPowerCapBehavior{milliWatts: milliWatts}, ex)
}
