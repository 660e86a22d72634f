package binning

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timetag/lib/ttypes"
)

func TestPowerOfTwoBinMapperValidation(t *testing.T) {
	cases := []struct {
		dataBits, histoBits int
	}{
		{12, 0},
		{12, 17},
		{7, 8},
		{64, 8},
	}
	for _, c := range cases {
		_, err := NewPowerOfTwoBinMapper(c.dataBits, c.histoBits, false)
		assert.Error(t, err, "dataBits=%d histoBits=%d", c.dataBits, c.histoBits)
	}
}

func TestPowerOfTwoBinMapper(t *testing.T) {
	m, err := NewPowerOfTwoBinMapper(12, 8, false)
	require.NoError(t, err)
	assert.Equal(t, 256, m.NBins())
	cases := []struct {
		value int64
		bin   ttypes.BinIndex
		ok    bool
	}{
		{0, 0, true},
		{15, 0, true},
		{16, 1, true},
		{4095, 255, true},
		{4096, 0, false},
		{-1, 0, false},
	}
	for _, c := range cases {
		got, ok := m.MapToBin(c.value).Get()
		assert.Equal(t, c.ok, ok, "value=%d", c.value)
		if c.ok {
			assert.Equal(t, c.bin, got, "value=%d", c.value)
		}
	}
}

func TestPowerOfTwoBinMapperFlip(t *testing.T) {
	m, err := NewPowerOfTwoBinMapper(12, 8, false)
	require.NoError(t, err)
	f, err := NewPowerOfTwoBinMapper(12, 8, true)
	require.NoError(t, err)

	assert.Equal(t, ttypes.BinIndex(255), f.MapToBin(0).MustGet())
	assert.Equal(t, ttypes.BinIndex(254), f.MapToBin(16).MustGet())
	assert.Equal(t, ttypes.BinIndex(0), f.MapToBin(4095).MustGet())
	assert.False(t, f.MapToBin(4096).IsPresent())

	// flipped and unflipped indices are complements over the full range
	for _, v := range []int64{0, 1, 15, 16, 100, 2048, 4095} {
		sum := int(m.MapToBin(v).MustGet()) + int(f.MapToBin(v).MustGet())
		assert.Equal(t, 255, sum, "value=%d", v)
	}
}

func TestPowerOfTwoBinMapperDegenerate(t *testing.T) {
	// a single bin swallows the whole data range
	m, err := NewPowerOfTwoBinMapper(2, 1, false)
	require.NoError(t, err)
	assert.Equal(t, 2, m.NBins())
	assert.Equal(t, ttypes.BinIndex(0), m.MapToBin(1).MustGet())
	assert.Equal(t, ttypes.BinIndex(1), m.MapToBin(2).MustGet())
	assert.False(t, m.MapToBin(4).IsPresent())

	// identity when data and histogram widths agree
	id, err := NewPowerOfTwoBinMapper(16, 16, false)
	require.NoError(t, err)
	assert.Equal(t, 65536, id.NBins())
	assert.Equal(t, ttypes.BinIndex(65535), id.MapToBin(65535).MustGet())
}

func TestLinearBinMapperValidation(t *testing.T) {
	_, err := NewLinearBinMapper(0, 0, 10, false)
	assert.Error(t, err)
}

func TestLinearBinMapperRoundTrip(t *testing.T) {
	m, err := NewLinearBinMapper(0, 1, 9, false)
	require.NoError(t, err)
	assert.Equal(t, 10, m.NBins())
	for i := int64(0); i < 10; i++ {
		assert.Equal(t, ttypes.BinIndex(i), m.MapToBin(i).MustGet())
	}
	assert.False(t, m.MapToBin(-1).IsPresent())
	assert.False(t, m.MapToBin(10).IsPresent())
}

func TestLinearBinMapper(t *testing.T) {
	cases := []struct {
		name          string
		offset, width int64
		maxBin        ttypes.BinIndex
		value         int64
		bin           ttypes.BinIndex
		ok            bool
		clampedTo     ttypes.BinIndex
	}{
		{"below start", 1, 2, 0, 0, 0, false, 0},
		{"at offset", 1, 2, 0, 1, 0, true, 0},
		{"within width", 1, 2, 0, 2, 0, true, 0},
		{"past end", 1, 2, 0, 3, 0, false, 0},
		{"negative offset", -1, 2, 0, -1, 0, true, 0},
		{"negative width below", 1, -1, 1, 2, 0, false, 0},
		{"negative width start", 1, -1, 1, 1, 0, true, 0},
		{"negative width next", 1, -1, 1, 0, 1, true, 0},
		{"negative width past end", 1, -1, 1, -1, 0, false, 1},
		{"both negative", -1, -1, 1, -2, 1, true, 0},
		{"second bin", 0, 1, 1, 1, 1, true, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			m, err := NewLinearBinMapper(c.offset, c.width, c.maxBin, false)
			require.NoError(t, err)
			got, ok := m.MapToBin(c.value).Get()
			assert.Equal(t, c.ok, ok)
			if c.ok {
				assert.Equal(t, c.bin, got)
			}

			// with clamp, out-of-range values pin to the nearest end instead
			mc, err := NewLinearBinMapper(c.offset, c.width, c.maxBin, true)
			require.NoError(t, err)
			want := lo.Ternary(c.ok, c.bin, c.clampedTo)
			assert.Equal(t, want, mc.MapToBin(c.value).MustGet())
		})
	}
}

func TestLinearBinMapperWideBins(t *testing.T) {
	m, err := NewLinearBinMapper(0, 32768, 65535, false)
	require.NoError(t, err)
	assert.Equal(t, 65536, m.NBins())
	assert.Equal(t, ttypes.BinIndex(0), m.MapToBin(32767).MustGet())
	assert.Equal(t, ttypes.BinIndex(1), m.MapToBin(32768).MustGet())
	assert.Equal(t, ttypes.BinIndex(65535), m.MapToBin(int64(1)<<31-1).MustGet())
}
