package wizard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSoC(t *testing.T) {
	assert.NoError(t, ValidateSoC("0"))
	assert.NoError(t, ValidateSoC(" 87.5 "))
	assert.NoError(t, ValidateSoC("100"))
	assert.Error(t, ValidateSoC("-1"))
	assert.Error(t, ValidateSoC("101"))
	assert.Error(t, ValidateSoC("full"))
}

func TestValidateVoltage(t *testing.T) {
	assert.NoError(t, ValidateVoltage("220"))
	assert.Error(t, ValidateVoltage("0"))
	assert.Error(t, ValidateVoltage("abc"))
}

func TestValidateClock(t *testing.T) {
	assert.NoError(t, ValidateClock("08:00"))
	assert.NoError(t, ValidateClock("23:59"))
	assert.Error(t, ValidateClock("24:00"))
	assert.Error(t, ValidateClock("8am"))
}

func TestResolveTarget(t *testing.T) {
	loc := time.FixedZone("HKT", 8*3600)
	now := time.Date(2025, 3, 14, 21, 0, 0, 0, loc)

	got, err := ResolveTarget(now, "08:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 15, 8, 0, 0, 0, loc), got)

	got, err = ResolveTarget(now, "23:30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 14, 23, 30, 0, 0, loc), got)

	// the current minute rolls over to tomorrow
	got, err = ResolveTarget(now, "21:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 15, 21, 0, 0, 0, loc), got)

	_, err = ResolveTarget(now, "later")
	assert.Error(t, err)
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "20", formatFloat(20))
	assert.Equal(t, "87.5", formatFloat(87.5))
}
