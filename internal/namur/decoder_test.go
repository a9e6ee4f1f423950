package namur

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func hotplateTable() *CommandTable {
	return DefaultTable().Clone("hotplate").
		Register("STATUS_1", RuleTwoCharCode).
		Register("STATUS_2", RuleUnsupported).
		Register("STATUS_4", RuleBooleanFirstChar).
		WithSentinel("IN_PV_4", "hotplate is configured to talk to an overhead stirrer")
}

func TestDecode(t *testing.T) {
	dec := NewDecoder(hotplateTable())

	tests := []struct {
		name     string
		command  string
		response string
		received bool
		want     Value
	}{
		{name: "no line", command: "IN_PV_1", received: false, want: NoValue()},
		{name: "identity", command: "IN_NAME", response: "MYDEVICE \r\n", received: true, want: NewString("MYDEVICE")},
		{name: "identity skips readback check", command: "IN_TYPE", response: "RCT digital", received: true, want: NewString("RCT digital")},
		{name: "numeric", command: "IN_PV_3", response: "22.50 3\r\n", received: true, want: NewFloat(22.5)},
		{name: "negative numeric", command: "IN_PV_1", response: "-3.1 1", received: true, want: NewFloat(-3.1)},
		{name: "echo prefixed", command: "IN_PV_66", response: "IN_PV_66 1013.2", received: true, want: NewString("1013.2")},
		{name: "echo with payload", command: "OUT_SP_66 250", response: "OUT_SP_66 250", received: true, want: NewString("")},
		{name: "motor running", command: "STATUS_4", response: "1 4", received: true, want: NewBool(true)},
		{name: "motor stopped", command: "STATUS_4", response: "0 4", received: true, want: NewBool(false)},
		{name: "heater active", command: "STATUS_1", response: "11 1", received: true, want: NewBool(true)},
		{name: "heater inactive", command: "STATUS_1", response: "12 1", received: true, want: NewBool(false)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := dec.Decode(tt.command, tt.response, tt.received)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeMisaligned(t *testing.T) {
	dec := NewDecoder(hotplateTable())

	_, err := dec.Decode("IN_PV_3", "22.50 4", true)
	require.ErrorIs(t, err, ErrMisaligned)

	_, err = dec.Decode("IN_PV_3", "", true)
	require.ErrorIs(t, err, ErrMisaligned)
}

func TestDecodeEchoRequired(t *testing.T) {
	table := NewCommandTable("vacuum").Register("IN_PV_66", RuleEchoPrefixed)
	dec := NewDecoder(table)

	_, err := dec.Decode("IN_PV_66", "1013.2 6", true)
	require.ErrorIs(t, err, ErrMisaligned)
}

func TestDecodeSentinel(t *testing.T) {
	dec := NewDecoder(hotplateTable())

	_, err := dec.Decode("IN_PV_1", "IN_PV_4", true)
	require.Error(t, err)
	require.True(t, IsMisconfigured(err))

	var mis *MisconfiguredDeviceError
	require.ErrorAs(t, err, &mis)
	require.Equal(t, "IN_PV_4", mis.Marker)
	require.Contains(t, mis.Error(), "overhead stirrer")
}

func TestDecodeSentinelWithDefaultTable(t *testing.T) {
	_, err := NewDecoder(nil).Decode("IN_PV_3", "IN_PV_4", true)
	require.True(t, IsMisconfigured(err))
}

func TestDecodeSentinelBeforeMisalignment(t *testing.T) {
	dec := NewDecoder(hotplateTable())

	// the sentinel line also fails the readback check; the sentinel wins
	_, err := dec.Decode("IN_SP_1", "IN_PV_4", true)
	require.True(t, IsMisconfigured(err))
	require.NotErrorIs(t, err, ErrMisaligned)
}

func TestDecodeMalformed(t *testing.T) {
	dec := NewDecoder(nil)

	_, err := dec.Decode("IN_PV_1", "abc 1", true)
	require.ErrorIs(t, err, ErrMalformedResponse)

	_, err = dec.Decode("IN_PV_1", " 1", true)
	require.ErrorIs(t, err, ErrMalformedResponse)
}

func TestDecodeUnsupported(t *testing.T) {
	dec := NewDecoder(hotplateTable())

	_, err := dec.Decode("STATUS_2", "-90 2", true)
	require.ErrorIs(t, err, ErrUnsupportedResponse)
}

func TestDecodeCustomActiveCode(t *testing.T) {
	table := NewCommandTable("firmware-b").RegisterEntry("STATUS_1", Entry{Rule: RuleTwoCharCode, Active: "21"})
	dec := NewDecoder(table)

	got, err := dec.Decode("STATUS_1", "21 1", true)
	require.NoError(t, err)
	require.Equal(t, NewBool(true), got)

	got, err = dec.Decode("STATUS_1", "11 1", true)
	require.NoError(t, err)
	require.Equal(t, NewBool(false), got)
}
