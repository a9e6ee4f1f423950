package ika

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namur-service/internal/namur"
)

func TestWithValue(t *testing.T) {
	assert.Equal(t, "OUT_SP_5 42.0", withValue(StirrerSetTorqueLimit, 42))
	assert.Equal(t, "OUT_SP_2 37.5", withValue(ShakerSetTemp, 37.5))
	assert.Equal(t, "OUT_SP_66 0.25", withValue(VacuumSetPressure, 0.25))
	assert.Equal(t, "OUT_SP_4 355", withWholeValue(HotplateSetSpeedSetpoint, 355.7))
}

func TestTables(t *testing.T) {
	hotplate := HotplateTable()
	assert.Equal(t, namur.RuleTwoCharCode, hotplate.Lookup(HotplateReadProcessHeater).Rule)
	assert.Equal(t, namur.RuleUnsupported, hotplate.Lookup(HotplateReadSurfaceHeater).Rule)
	assert.Equal(t, namur.RuleBooleanFirstChar, hotplate.Lookup(HotplateReadShakerStatus).Rule)
	assert.Equal(t, namur.RuleIdentity, hotplate.Lookup(ReadDeviceType).Rule)
	if assert.Len(t, hotplate.Sentinels(), 1) {
		assert.Equal(t, HotplateEurostarMarker, hotplate.Sentinels()[0].Marker)
		assert.Equal(t, hotplateEurostarHint, hotplate.Sentinels()[0].Hint)
	}

	shaker := ShakerTable()
	assert.Equal(t, namur.RuleTwoCharCode, shaker.Lookup(ShakerReadHeaterStatus).Rule)
	for _, table := range []*namur.CommandTable{shaker, VacuumTable(), OverheadStirrerTable()} {
		if assert.Len(t, table.Sentinels(), 1, table.Name()) {
			assert.Equal(t, namur.CrossWiredMarker, table.Sentinels()[0].Marker)
		}
	}

	vacuum := VacuumTable()
	assert.Equal(t, namur.RuleEchoPrefixed, vacuum.Lookup(VacuumReadPressure).Rule)
	assert.Equal(t, namur.RuleEchoPrefixed, vacuum.Lookup(VacuumSetPressure+" 250.0").Rule)

	assert.Equal(t, namur.RuleNumeric, OverheadStirrerTable().Lookup(StirrerReadTorqueLimit).Rule)
}

func TestShakerCrossWiredReply(t *testing.T) {
	_, err := namur.NewDecoder(ShakerTable()).Decode(ShakerReadTemp, "IN_PV_4", true)
	assert.True(t, namur.IsMisconfigured(err))

	v, err := namur.NewDecoder(ShakerTable()).Decode(ShakerReadSpeed, "250.0 4", true)
	require.NoError(t, err)
	f, _ := v.AsFloat()
	assert.Equal(t, 250.0, f)
}

func TestHotplateSurfaceStatusIsUnsupported(t *testing.T) {
	_, err := namur.NewDecoder(HotplateTable()).Decode(HotplateReadSurfaceHeater, "-90 2", true)
	assert.ErrorIs(t, err, namur.ErrUnsupportedResponse)
}
