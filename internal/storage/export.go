package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/lorenzsim/internal/dynamo"
)

type ExportData struct {
	RunMetadata
	Tails [][]dynamo.State `json:"tails"`
}

// ExportJSON writes meta and the tails of src as one indented JSON document.
func ExportJSON(w io.Writer, meta RunMetadata, src TailSource) error {
	data := ExportData{
		RunMetadata: meta,
		Tails:       make([][]dynamo.State, src.TrajectoryCount()),
	}
	data.Trajectories = len(data.Tails)
	for i := range data.Tails {
		states, err := src.Snapshot(i)
		if err != nil {
			return err
		}
		data.Tails[i] = states
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
