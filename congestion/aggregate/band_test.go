package aggregate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverityBand_LowerIsBetter(t *testing.T) {
	loss := Thresholds{Good: 1, Warn: 5}
	assert.Equal(t, Good, SeverityBand(0.5, loss))
	assert.Equal(t, Warn, SeverityBand(1, loss))
	assert.Equal(t, Warn, SeverityBand(4.99, loss))
	assert.Equal(t, Bad, SeverityBand(5, loss))
	assert.Equal(t, Bad, SeverityBand(40, loss))
}

func TestSeverityBand_HigherIsBetter(t *testing.T) {
	throughput := Thresholds{Good: 5, Warn: 2, HigherIsBetter: true}
	assert.Equal(t, Good, SeverityBand(5.1, throughput))
	assert.Equal(t, Warn, SeverityBand(5, throughput))
	assert.Equal(t, Warn, SeverityBand(2.1, throughput))
	assert.Equal(t, Bad, SeverityBand(2, throughput))
	assert.Equal(t, Bad, SeverityBand(0, throughput))
}

func TestSeverityBand_TwoBandGrading(t *testing.T) {
	// Fast retransmits are only ever GOOD or WARN.
	retx := Thresholds{Good: 5, Warn: math.Inf(1)}
	assert.Equal(t, Good, SeverityBand(4, retx))
	assert.Equal(t, Warn, SeverityBand(5, retx))
	assert.Equal(t, Warn, SeverityBand(1e9, retx))
}

func TestSeverityBand_Monotonic(t *testing.T) {
	// GIVEN increasing values on a lower-is-better metric
	delay := Thresholds{Good: 20, Warn: 50}
	prev := Good
	for v := 0.0; v < 100; v += 0.5 {
		b := SeverityBand(v, delay)
		// THEN the band never improves
		assert.GreaterOrEqual(t, int(b), int(prev))
		prev = b
	}
}

func TestBand_String(t *testing.T) {
	assert.Equal(t, "GOOD", Good.String())
	assert.Equal(t, "WARN", Warn.String())
	assert.Equal(t, "BAD", Bad.String())
	assert.Equal(t, "Band(7)", Band(7).String())
	assert.True(t, Good < Warn && Warn < Bad)
}
