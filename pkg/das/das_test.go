package das

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMatrix(t *testing.T) {
	m, err := NewMatrix(3, 4)
	require.NoError(t, err)

	ch, ns := m.Dims()
	assert.Equal(t, 3, ch)
	assert.Equal(t, 4, ns)
	assert.True(t, m.IsAllZero())

	m.Set(2, 3, 1.5)
	assert.Equal(t, 1.5, m.At(2, 3))
	assert.False(t, m.IsAllZero())
}

func TestNewMatrixZeroSamples(t *testing.T) {
	// topology placeholders carry a channel count with no samples
	m, err := NewMatrix(128, 0)
	require.NoError(t, err)
	assert.Equal(t, 128, m.Channels())
	assert.Equal(t, 0, m.Samples())
	assert.Empty(t, m.Floats())
}

func TestNewMatrixNegative(t *testing.T) {
	_, err := NewMatrix(-1, 10)
	assert.Error(t, err)
}

func TestMatrixFromFlat(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5, 6}
	m, err := MatrixFromFlat(data, 2, 3)
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 2, 3}, m.Row(0))
	assert.Equal(t, []float64{4, 5, 6}, m.Row(1))
	assert.Equal(t, 6.0, m.At(1, 2))

	_, err = MatrixFromFlat(data, 2, 4)
	assert.Error(t, err)
}

func TestMatrixFromRows(t *testing.T) {
	m, err := MatrixFromRows([][]float64{{1, 2}, {3, 4}, {5, 6}})
	require.NoError(t, err)
	assert.Equal(t, 3, m.Channels())
	assert.Equal(t, 2, m.Samples())
	assert.Equal(t, 4.0, m.At(1, 1))

	_, err = MatrixFromRows([][]float64{{1, 2}, {3}})
	assert.Error(t, err)
}

func TestMatrixRowIsView(t *testing.T) {
	m, err := NewMatrix(2, 2)
	require.NoError(t, err)
	m.Row(1)[0] = 9
	assert.Equal(t, 9.0, m.At(1, 0))
}

func TestChannelWindow(t *testing.T) {
	w := ChannelWindow{Start: 10, End: 20}
	assert.Equal(t, 10, w.Count())
	assert.Equal(t, "[10, 20)", w.String())
}

func TestSectionAccessors(t *testing.T) {
	m, err := NewMatrix(4, 1000)
	require.NoError(t, err)

	sec := NewSection(m, CanonicalMetadata{SamplingRate: Float(250)})
	assert.Equal(t, 4, sec.Channels())
	assert.Equal(t, 1000, sec.Samples())
	assert.Equal(t, 4*time.Second, sec.Duration())

	// unknown rate means no duration
	sec = NewSection(m, CanonicalMetadata{})
	assert.Equal(t, time.Duration(0), sec.Duration())

	var empty Section
	assert.Equal(t, 0, empty.Channels())
	assert.Equal(t, 0, empty.Samples())
}

func TestFloatHelper(t *testing.T) {
	p := Float(0.25)
	require.NotNil(t, p)
	assert.Equal(t, 0.25, *p)
}

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{Field: FieldChannelSpacing, Reason: "container carries no spacing attribute"}
	assert.Equal(t, "channel_spacing: container carries no spacing attribute", d.String())
}
