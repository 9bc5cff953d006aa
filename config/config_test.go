package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
n_up: 2
n_dn: 1
time_sym: true
z: -1
w_green: 0.5
chem:
  point_group: d2h
`

func TestLoad(t *testing.T) {
	c, err := Load(strings.NewReader(testYAML))
	require.NoError(t, err)

	nUp, err := Get[uint32](c, "n_up")
	require.NoError(t, err)
	assert.Equal(t, uint32(2), nUp)

	timeSym, err := Get[bool](c, "time_sym")
	require.NoError(t, err)
	assert.True(t, timeSym)

	z, err := Get[int](c, "z")
	require.NoError(t, err)
	assert.Equal(t, -1, z)

	w, err := Get[float64](c, "w_green")
	require.NoError(t, err)
	assert.Equal(t, 0.5, w)
}

func TestDottedPath(t *testing.T) {
	c, err := Load(strings.NewReader(testYAML))
	require.NoError(t, err)

	pg, err := Get[string](c, "chem.point_group")
	require.NoError(t, err)
	assert.Equal(t, "d2h", pg)

	assert.True(t, c.Has("chem.point_group"))
	assert.False(t, c.Has("chem.missing"))
	assert.False(t, c.Has("chem.point_group.deeper"))
}

func TestGetOr(t *testing.T) {
	c, err := Load(strings.NewReader(testYAML))
	require.NoError(t, err)

	eta, err := GetOr(c, "n_green", 1.0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, eta)

	w, err := GetOr(c, "w_green", 1.0)
	require.NoError(t, err)
	assert.Equal(t, 0.5, w)

	// Present but wrong type is an error, not a silent default.
	_, err = GetOr(c, "chem.point_group", 1.0)
	assert.Error(t, err)
}

func TestGetErrors(t *testing.T) {
	c := New(map[string]any{"n_up": "two"})

	_, err := Get[uint32](c, "n_up")
	assert.Error(t, err)

	_, err = Get[int](c, "absent")
	assert.Error(t, err)
}

// Integer keys convert to floats where a float is requested, matching how
// YAML writers usually spell whole-number frequencies.
func TestIntAsFloat(t *testing.T) {
	c, err := Load(strings.NewReader("w_green: 2\n"))
	require.NoError(t, err)

	w, err := Get[float64](c, "w_green")
	require.NoError(t, err)
	assert.Equal(t, 2.0, w)
}
