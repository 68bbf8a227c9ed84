package audio

import (
	"context"
	"reflect"
	"testing"

	pulseproto "github.com/jfreymuth/pulse/proto"
	"github.com/stretchr/testify/require"
)

func TestSelectDeviceFromList(t *testing.T) {
	tests := []struct {
		name         string
		devices      []Device
		input        string
		fallback     string
		wantID       string
		wantWarning  string
		wantFallback bool
		wantErr      string
	}{
		{
			name: "default input",
			devices: []Device{
				{ID: "usb-mic", Description: "USB Condenser", Available: true, Default: true},
				{ID: "headset", Description: "Bluetooth Headset", Available: true},
			},
			input:    "default",
			fallback: "default",
			wantID:   "usb-mic",
		},
		{
			name: "empty input uses default",
			devices: []Device{
				{ID: "usb-mic", Available: true, Default: true},
			},
			wantID: "usb-mic",
		},
		{
			name: "muted primary uses fallback",
			devices: []Device{
				{ID: "usb-mic", Description: "USB Condenser", Available: true, Muted: true, Default: true},
				{ID: "headset", Description: "Bluetooth Headset", Available: true},
			},
			input:        "usb",
			fallback:     "headset",
			wantID:       "headset",
			wantWarning:  "muted",
			wantFallback: true,
		},
		{
			name: "unavailable named input falls back to default",
			devices: []Device{
				{ID: "usb-mic", Available: true, Default: true},
				{ID: "headset", Description: "Bluetooth Headset"},
			},
			input:        "bluetooth",
			wantID:       "usb-mic",
			wantWarning:  "unavailable",
			wantFallback: true,
		},
		{
			name: "muted default with no alternative",
			devices: []Device{
				{ID: "usb-mic", Available: true, Muted: true, Default: true},
			},
			wantErr: "muted",
		},
		{
			name:    "unknown input",
			devices: []Device{{ID: "usb-mic", Available: true, Default: true}},
			input:   "missing",
			wantErr: "did not match",
		},
		{
			name: "missing fallback",
			devices: []Device{
				{ID: "usb-mic", Muted: true, Available: true, Default: true},
			},
			fallback: "headset",
			wantErr:  "fallback \"headset\" not found",
		},
		{
			name:    "no devices",
			wantErr: "no audio input devices",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			selection, err := selectDeviceFromList(tc.devices, tc.input, tc.fallback)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantID, selection.Device.ID)
			require.Equal(t, tc.wantFallback, selection.Fallback)
			if tc.wantWarning == "" {
				require.Empty(t, selection.Warning)
			} else {
				require.Contains(t, selection.Warning, tc.wantWarning)
			}
		})
	}
}

func TestDeviceMatchesByIDAndDescription(t *testing.T) {
	dev := Device{ID: "alsa_input.usb-condenser", Description: "USB Condenser Mono"}
	require.True(t, deviceMatches(dev, "condenser"))
	require.True(t, deviceMatches(dev, "usb condenser"))
	require.False(t, deviceMatches(dev, "missing"))
	require.False(t, deviceMatches(dev, ""))
}

func TestListDevicesFailsWhenPulseUnavailable(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	_, err := ListDevices(context.Background())
	require.Error(t, err)
}

func TestSelectDeviceFailsWhenPulseUnavailable(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	_, err := SelectDevice(context.Background(), "default", "default")
	require.Error(t, err)
}

func TestSourceStateString(t *testing.T) {
	require.Equal(t, "running", sourceStateString(0))
	require.Equal(t, "idle", sourceStateString(1))
	require.Equal(t, "suspended", sourceStateString(2))
	require.Equal(t, "unknown(99)", sourceStateString(99))
}

func TestSourceAvailable(t *testing.T) {
	require.False(t, sourceAvailable(nil))
	require.True(t, sourceAvailable(&pulseproto.GetSourceInfoReply{}))

	available := &pulseproto.GetSourceInfoReply{ActivePortName: "mic"}
	setSourcePorts(t, available, []sourcePort{{name: "mic", available: 2}})
	require.True(t, sourceAvailable(available))

	notAvailable := &pulseproto.GetSourceInfoReply{ActivePortName: "mic"}
	setSourcePorts(t, notAvailable, []sourcePort{{name: "mic", available: 1}})
	require.False(t, sourceAvailable(notAvailable))
}

type sourcePort struct {
	name      string
	available uint32
}

func setSourcePorts(t *testing.T, reply *pulseproto.GetSourceInfoReply, ports []sourcePort) {
	t.Helper()

	sliceType := reflect.TypeOf(reply.Ports)
	sliceValue := reflect.MakeSlice(sliceType, len(ports), len(ports))
	for i, port := range ports {
		item := sliceValue.Index(i)
		item.FieldByName("Name").SetString(port.name)
		item.FieldByName("Available").SetUint(uint64(port.available))
	}
	reflect.ValueOf(reply).Elem().FieldByName("Ports").Set(sliceValue)
}
