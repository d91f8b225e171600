package storage

import (
	"encoding/json"
	"io"
)

// ExportData is a run and its trajectory in one JSON document.
type ExportData struct {
	Run      *RunMetadata `json:"run"`
	Channels []string     `json:"channels"`
	Times    []float64    `json:"times"`
	Rows     [][]float64  `json:"rows"`
}

func WriteJSON(w io.Writer, meta *RunMetadata, traj *Trajectory) error {
	data := ExportData{
		Run:      meta,
		Channels: traj.Channels,
		Times:    traj.Times,
		Rows:     traj.Rows,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
