package qhyccd

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ExampleParseFeature() {
	f, _ := ParseFeature("CONTROL_EXPOSURE")
	fmt.Println(f.Code(), f)
	// Output: 8 CONTROL_EXPOSURE
}

func TestFeatureTableCodes(t *testing.T) {
	var want []uint32
	for c := uint32(0); c <= 37; c++ {
		want = append(want, c)
	}
	for c := uint32(39); c <= 86; c++ {
		want = append(want, c)
	}
	for c := uint32(1024); c <= 1029; c++ {
		want = append(want, c)
	}
	require.Len(t, want, 92)

	got := Features()
	require.Len(t, got, len(want))
	for i, f := range got {
		assert.Equal(t, want[i], f.Code(), "entry %d", i)
	}
}

func TestFeatureTableRoundTrips(t *testing.T) {
	names := make(map[string]bool)
	for _, f := range Features() {
		name := f.String()
		assert.False(t, names[name], "duplicate name %s", name)
		names[name] = true

		byName, err := ParseFeature(name)
		require.NoError(t, err)
		assert.Equal(t, f, byName)

		byCode, err := FeatureFromCode(f.Code())
		require.NoError(t, err)
		assert.Equal(t, f, byCode)
	}
}

func TestFeatureCodesAreStable(t *testing.T) {
	fixed := map[Feature]uint32{
		ControlGain:             6,
		ControlOffset:           7,
		ControlExposure:         8,
		ControlTransferbit:      10,
		ControlUsbTraffic:       12,
		CamColor:                20,
		Cam16bits:               35,
		Qhyccd3aAutoexposure:    39,
		CamSingleFrameMode:      57,
		CamLiveVideoMode:        58,
		ControlMaxId:            86,
		ControlAutowhitebalance: 1024,
		ControlGaindB:           1029,
	}
	for f, code := range fixed {
		assert.Equal(t, code, f.Code(), f.String())
	}
}

func TestUnknownFeatures(t *testing.T) {
	_, err := FeatureFromCode(38)
	assert.True(t, errors.Is(err, ErrUnknownFeature))
	_, err = FeatureFromCode(1030)
	assert.True(t, errors.Is(err, ErrUnknownFeature))
	_, err = ParseFeature("CONTROL_NOPE")
	assert.True(t, errors.Is(err, ErrUnknownFeature))
	assert.Equal(t, "CONTROL_UNKNOWN", Feature(38).String())
	assert.False(t, Feature(38).Known())
}

func TestStreamModeValues(t *testing.T) {
	assert.EqualValues(t, 0, SingleFrame)
	assert.EqualValues(t, 1, Live)
	assert.Equal(t, "LiveMode", Live.String())
}

func TestBayerPatternString(t *testing.T) {
	assert.Equal(t, "RGGB", BayerRG.String())
	assert.Equal(t, "", BayerPattern(0).String())
}
