package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvert(t *testing.T) {
	raw := RawPosition{
		Lat:         470000001,
		Lon:         -80000005,
		Alt:         500125,
		RelativeAlt: 50005,
		Vz:          -1255,
	}

	got := Convert(raw)

	assert.Equal(t, 47.0000001, got.Lat)
	assert.Equal(t, -8.0000005, got.Lon)
	assert.Equal(t, 500.13, got.AbsAlt) // 500.125 rounds away from zero
	assert.Equal(t, 50.01, got.RelAlt)  // 50.005 rounds away from zero
	assert.Equal(t, -1.26, got.Vz)      // -1.255 rounds away from zero

	assert.Equal(t, 1.01, Convert(RawPosition{Alt: 1005}).AbsAlt)
	assert.Equal(t, -1.01, Convert(RawPosition{RelativeAlt: -1005}).RelAlt)
	assert.Equal(t, -81.87, Convert(RawPosition{Alt: -81865}).AbsAlt)
}

func TestEncodeRoundTrip(t *testing.T) {
	s := Sample{Lat: 47.397742, Lon: 8.545594, AbsAlt: 488.12, RelAlt: 10.5, Vz: -0.25}
	assert.Equal(t, s, Convert(Encode(s.Lat, s.Lon, s.AbsAlt, s.RelAlt, s.Vz)))
}

func TestRoundDiv(t *testing.T) {
	tests := []struct {
		v, d int64
		want int64
	}{
		{1005, 10, 101},
		{-1005, 10, -101},
		{1004, 10, 100},
		{-1004, 10, -100},
		{-1255, 10, -126},
		{-81865, 10, -8187},
		{25, 10, 3},
		{-25, 10, -3},
		{0, 10, 0},
		{7, 1, 7},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, roundDiv(tt.v, tt.d), "roundDiv(%d, %d)", tt.v, tt.d)
	}
}

func TestConvert_AltitudeMidpoints(t *testing.T) {
	for mm := int32(-100_000); mm <= 100_000; mm++ {
		want := float64(roundDiv(int64(mm), 10)) / 100
		if got := Convert(RawPosition{Alt: mm}).AbsAlt; got != want {
			t.Fatalf("raw %d mm: got %v, want %v", mm, got, want)
		}
	}
}

func TestDistance(t *testing.T) {
	a := GeoPoint{Lat: 47.0, Lon: 8.0}
	b := GeoPoint{Lat: 47.0, Lon: 8.0}
	assert.Zero(t, Distance(a, b))

	// one degree of latitude is ~111.2 km
	c := GeoPoint{Lat: 48.0, Lon: 8.0}
	assert.InDelta(t, 111_195, Distance(a, c), 100)
}

func TestOffsetAndBearing(t *testing.T) {
	home := GeoPoint{Lat: 47.397742, Lon: 8.545594, Alt: 488}
	p := Offset(home, 300, -400)

	north, east := Bearing(home, p)
	assert.InDelta(t, 300, north, 0.5)
	assert.InDelta(t, -400, east, 0.5)
	assert.InDelta(t, 500, Distance(home, p), 1)
	assert.Equal(t, home.Alt, p.Alt)
}
