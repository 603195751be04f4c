package pkg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidAddress(t *testing.T) {
	valid := "S" + strings.Repeat("a", 50)
	assert.True(t, IsValidAddress(valid))
	assert.True(t, IsValidAddress("S427a724d41e3a5a03d1f83553134239813272bc2c4b2d50737"))

	assert.False(t, IsValidAddress("S"+strings.Repeat("a", 49)))
	assert.False(t, IsValidAddress("S"+strings.Repeat("a", 51)))
	assert.False(t, IsValidAddress("X"+strings.Repeat("a", 50)))
	assert.False(t, IsValidAddress("s"+strings.Repeat("a", 50)))
	assert.False(t, IsValidAddress(""))

	err := ValidateAddress("nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestFormatUnit(t *testing.T) {
	assert.Equal(t, "0.00000000", FormatUnit(0))
	assert.Equal(t, "0.00100000", FormatUnit(100000))
	assert.Equal(t, "12.34567891", FormatUnit(1234567891))
	assert.Equal(t, 2.999, UnitFloat(299900000))
}

func TestParseUnit(t *testing.T) {
	v, err := ParseUnit("12")
	require.NoError(t, err)
	assert.Equal(t, uint64(1200000000), v)

	v, err = ParseUnit("0.001")
	require.NoError(t, err)
	assert.Equal(t, uint64(100000), v)

	_, err = ParseUnit("-1")
	assert.Error(t, err)
	_, err = ParseUnit("0.000000001")
	assert.Error(t, err)
	_, err = ParseUnit("abc")
	assert.Error(t, err)
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{1, 2}, Paginate(items, 0, 2))
	assert.Equal(t, []int{5}, Paginate(items, 2, 2))
	assert.Empty(t, Paginate(items, 3, 2))
	assert.Empty(t, Paginate(items, 0, 0))
}

func TestHeightKeyOrdering(t *testing.T) {
	a := string(HeightKey("d:", 9))
	b := string(HeightKey("d:", 10))
	assert.Less(t, a, b)
	assert.Equal(t, int64(10), BytesToInt64([]byte(b)[2:]))
}
