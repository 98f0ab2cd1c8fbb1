package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/tankdrain/internal/dynamo"
	"github.com/san-kum/tankdrain/internal/sweep"
)

func sampleTrajectory() *dynamo.Trajectory {
	traj := dynamo.NewTrajectory(0.5, 3)
	traj.Append(dynamo.Sample{T: 0, Z: 0.5, V: 10, P: 2e5})
	traj.Append(dynamo.Sample{T: 0.5, Z: 0.4, V: 9, P: 1.6e5})
	traj.Append(dynamo.Sample{T: 1.0, Z: 0.35, V: 0.5, P: 1.2e5})
	traj.Stop = dynamo.Stop{Reason: dynamo.FlowStalled, Value: 0.0005}
	traj.Freeze()
	return traj
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleTrajectory()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"time", "height", "speed", "pressure"}, rows[0])
	assert.Equal(t, []string{"0.5", "0.4", "9", "160000"}, rows[2])
}

func TestWriteCSV_RejectsEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, dynamo.NewTrajectory(0.1, 0))
	assert.True(t, errors.Is(err, dynamo.ErrInvalidInput))
	assert.Zero(t, buf.Len())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	data := NewTrajectoryData("isothermal", map[string]float64{"p0": 2e5}, sampleTrajectory())
	require.NoError(t, WriteJSON(&buf, data))

	var decoded TrajectoryData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "isothermal", decoded.Model)
	assert.Equal(t, 3, decoded.Steps)
	assert.Equal(t, "flow_stalled", decoded.StopReason)
	assert.Len(t, decoded.Heights, decoded.Steps)
	assert.Equal(t, 1.0, decoded.Duration)
	assert.True(t, strings.HasPrefix(decoded.Message, "flow reached slow speed"))
}

func TestWriteSweepCSV(t *testing.T) {
	points := []sweep.Point{
		{Pressure: 2e5, FillRatio: 0.3, Impulse: 12.5, Duration: 1.2, Steps: 120, Stop: dynamo.Stop{Reason: dynamo.FlowStalled}},
		{Pressure: 3e5, FillRatio: 0.3, Impulse: 20, Duration: 1.4, Steps: 140, Stop: dynamo.Stop{Reason: dynamo.BottomReached}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSweepCSV(&buf, points))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "bottom_reached", rows[2][5])
	assert.Equal(t, "120", rows[1][4])
}
