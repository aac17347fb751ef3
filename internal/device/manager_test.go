package device

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsm-fleet/nsmd/internal/protocol/nsm"
	"github.com/nsm-fleet/nsmd/internal/transport"
	"github.com/nsm-fleet/nsmd/pkg/config"
)

// fakeExchanger answers every discovery-flow command with a canned
// response, so Manager.process can be driven end to end without a real
// transport.
type fakeExchanger struct {
	deviceType     nsm.DeviceType
	instanceNumber uint8
	supportedTypes [nsm.NumMessageTypes]bool
	commandCodes   map[nsm.MessageType]nsm.SupportedCommandCodesResponse
	inventory      map[nsm.InventoryProperty]string
}

func (f *fakeExchanger) Exchange(ctx context.Context, eid uint8, req transport.Request) (nsm.ResponseHeader, []byte, error) {
	switch req.CommandCode {
	case nsm.CmdPing:
		return nsm.ResponseHeader{Command: req.CommandCode, CC: nsm.CCSuccess}, nil, nil
	case nsm.CmdQueryDeviceIdentification:
		return nsm.ResponseHeader{Command: req.CommandCode, CC: nsm.CCSuccess}, []byte{byte(f.deviceType), f.instanceNumber}, nil
	case nsm.CmdGetSupportedMessageTypes:
		var mask [8]byte
		for i, ok := range f.supportedTypes {
			if ok {
				mask[i/8] |= 1 << uint(i%8)
			}
		}
		return nsm.ResponseHeader{Command: req.CommandCode, CC: nsm.CCSuccess}, mask[:], nil
	case nsm.CmdGetSupportedCommandCodes:
		mt := nsm.MessageType(req.Body[0])
		resp := f.commandCodes[mt]
		return nsm.ResponseHeader{Command: req.CommandCode, CC: nsm.CCSuccess}, resp.Supported[:], nil
	case nsm.CmdGetInventoryInformation:
		prop := nsm.InventoryProperty(req.Body[0])
		value := f.inventory[prop]
		payload := append([]byte{}, value...)
		return nsm.ResponseHeader{Command: req.CommandCode, CC: nsm.CCSuccess, DataSize: uint16(len(payload))}, payload, nil
	default:
		return nsm.ResponseHeader{}, nil, nil
	}
}

func newDiscoveryFixture() *fakeExchanger {
	commandCodes := map[nsm.MessageType]nsm.SupportedCommandCodesResponse{}
	var resp nsm.SupportedCommandCodesResponse
	resp.Supported[nsm.CmdPing/8] |= 1 << uint(nsm.CmdPing%8)
	resp.Supported[nsm.CmdGetTemperatureReading/8] |= 1 << uint(nsm.CmdGetTemperatureReading%8)
	commandCodes[nsm.MessageTypeDeviceCapabilityDiscovery] = resp
	commandCodes[nsm.MessageTypePlatformEnvironmental] = resp

	var supported [nsm.NumMessageTypes]bool
	supported[nsm.MessageTypeDeviceCapabilityDiscovery] = true
	supported[nsm.MessageTypePlatformEnvironmental] = true

	return &fakeExchanger{
		deviceType:     nsm.DeviceTypeGPU,
		instanceNumber: 2,
		supportedTypes: supported,
		commandCodes:   commandCodes,
		inventory: map[nsm.InventoryProperty]string{
			nsm.InventorySerialNumber:  "SN123",
			nsm.InventoryMarketingName: "Test GPU",
		},
	}
}

func TestProcessDiscoversNewDevice(t *testing.T) {
	fx := newDiscoveryFixture()
	m := New(fx, nil, 4)

	id := uuid.New()
	m.process(context.Background(), DiscoveryInput{EID: 10, UUID: id})

	dev, ok := m.ByUUID(id)
	require.True(t, ok)
	assert.Equal(t, nsm.DeviceTypeGPU, dev.Type)
	assert.Equal(t, uint32(2), dev.Instance)
	assert.True(t, dev.Online())
	assert.Equal(t, StateActive, dev.State())
	assert.True(t, dev.HasCommand(nsm.MessageTypePlatformEnvironmental, nsm.CmdGetTemperatureReading))
	assert.False(t, dev.HasCommand(nsm.MessageTypePlatformEnvironmental, nsm.CmdSetMigMode))

	serial, ok := dev.Inventory(nsm.InventorySerialNumber)
	require.True(t, ok)
	assert.Equal(t, "SN123", serial)
}

func TestProcessAppliesInstanceRemap(t *testing.T) {
	fx := newDiscoveryFixture()
	remap := []config.InstanceRemapRule{
		{Key: "eid", Match: "10", DeviceType: "GPU", Instance: 7},
	}
	m := New(fx, remap, 4)

	id := uuid.New()
	m.process(context.Background(), DiscoveryInput{EID: 10, UUID: id})

	dev, ok := m.ByUUID(id)
	require.True(t, ok)
	assert.Equal(t, uint32(7), dev.Instance)
}

func TestProcessReusesExistingDeviceByUUID(t *testing.T) {
	fx := newDiscoveryFixture()
	m := New(fx, nil, 4)

	id := uuid.New()
	m.process(context.Background(), DiscoveryInput{EID: 10, UUID: id})
	m.process(context.Background(), DiscoveryInput{EID: 11, UUID: id})

	dev, ok := m.ByUUID(id)
	require.True(t, ok)
	assert.Equal(t, uint8(11), dev.EID)
	assert.Equal(t, 1, len(m.All()))
}

func TestSetOfflineMarksDeviceUnreachable(t *testing.T) {
	fx := newDiscoveryFixture()
	m := New(fx, nil, 4)

	id := uuid.New()
	m.process(context.Background(), DiscoveryInput{EID: 10, UUID: id})

	m.SetOffline(10)

	dev, _ := m.ByUUID(id)
	assert.False(t, dev.Online())
}

type countingSensor struct {
	name  string
	calls int
}

func (s *countingSensor) Name() string { return s.name }
func (s *countingSensor) Update(ctx context.Context, d *Device) error {
	s.calls++
	return nil
}

func TestRunSensorPassRunsStaticPriorityAndOneRoundRobinSensor(t *testing.T) {
	fx := newDiscoveryFixture()
	m := New(fx, nil, 4)

	id := uuid.New()
	static := &countingSensor{name: "static"}
	priority := &countingSensor{name: "priority"}
	rr1 := &countingSensor{name: "rr1"}
	rr2 := &countingSensor{name: "rr2"}

	// Discover the device first (without a sensor factory its discovery pass
	// runs no sensors), then attach sensors to the device record it created
	// and drive two passes directly.
	m.process(context.Background(), DiscoveryInput{EID: 10, UUID: id})
	dev, _ := m.ByUUID(id)
	dev.StaticSensors = []Sensor{static}
	dev.PrioritySensors = []Sensor{priority}
	dev.RoundRobinSensors = []Sensor{rr1, rr2}

	m.runSensorPass(context.Background(), dev)
	m.runSensorPass(context.Background(), dev)

	assert.Equal(t, 2, static.calls)
	assert.Equal(t, 2, priority.calls)
	assert.Equal(t, 1, rr1.calls)
	assert.Equal(t, 1, rr2.calls)
}

func TestManagerRunDrainsSubmittedInputs(t *testing.T) {
	fx := newDiscoveryFixture()
	m := New(fx, nil, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = m.Run(ctx) }()

	id := uuid.New()
	require.NoError(t, m.Submit(ctx, DiscoveryInput{EID: 10, UUID: id}))

	require.Eventually(t, func() bool {
		_, ok := m.ByUUID(id)
		return ok
	}, time.Second, 5*time.Millisecond)
}
