// Package export writes trajectories and sweep results as CSV or JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/tankdrain/internal/dynamo"
	"github.com/san-kum/tankdrain/internal/sweep"
)

type TrajectoryData struct {
	Model      string             `json:"model"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Steps      int                `json:"steps"`
	StopReason string             `json:"stop_reason"`
	StopValue  float64            `json:"stop_value"`
	Message    string             `json:"message"`
	Params     map[string]float64 `json:"params,omitempty"`
	Times      []float64          `json:"times"`
	Heights    []float64          `json:"heights"`
	Speeds     []float64          `json:"speeds"`
	Pressures  []float64          `json:"pressures"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
}

func NewTrajectoryData(model string, params map[string]float64, traj *dynamo.Trajectory) TrajectoryData {
	return TrajectoryData{
		Model:      model,
		Dt:         traj.Dt,
		Duration:   traj.Duration(),
		Steps:      traj.Len(),
		StopReason: traj.Stop.Reason.String(),
		StopValue:  traj.Stop.Value,
		Message:    traj.Stop.String(),
		Params:     params,
		Times:      traj.Times,
		Heights:    traj.Heights,
		Speeds:     traj.Speeds,
		Pressures:  traj.Pressures,
		Metrics:    traj.Metrics,
	}
}

func WriteJSON(w io.Writer, data TrajectoryData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

var trajectoryHeader = []string{"time", "height", "speed", "pressure"}

func WriteCSV(w io.Writer, traj *dynamo.Trajectory) error {
	if err := traj.Validate("export"); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(trajectoryHeader); err != nil {
		return err
	}
	for i := range traj.Times {
		row := []string{
			formatFloat(traj.Times[i]),
			formatFloat(traj.Heights[i]),
			formatFloat(traj.Speeds[i]),
			formatFloat(traj.Pressures[i]),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var sweepHeader = []string{"p0", "fill_ratio", "impulse", "duration", "steps", "stop_reason"}

func WriteSweepCSV(w io.Writer, points []sweep.Point) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(sweepHeader); err != nil {
		return err
	}
	for _, pt := range points {
		row := []string{
			formatFloat(pt.Pressure),
			formatFloat(pt.FillRatio),
			formatFloat(pt.Impulse),
			formatFloat(pt.Duration),
			strconv.Itoa(pt.Steps),
			pt.Stop.Reason.String(),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write sweep row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}
