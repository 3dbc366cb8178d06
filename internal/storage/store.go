package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/san-kum/lorenzsim/internal/dynamo"
)

const (
	metadataFile = "metadata.json"
	tailsFile    = "tails.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// TailSource is anything holding retained tails, such as a sim.Ensemble.
type TailSource interface {
	TrajectoryCount() int
	Snapshot(i int) ([]dynamo.State, error)
}

type RunMetadata struct {
	ID            string             `json:"id"`
	Preset        string             `json:"preset,omitempty"`
	Timestamp     time.Time          `json:"timestamp"`
	Seed          int64              `json:"seed"`
	Sigma         float64            `json:"sigma"`
	Beta          float64            `json:"beta"`
	Rho           float64            `json:"rho"`
	StepSize      float64            `json:"step_size"`
	StepsPerFrame int                `json:"steps_per_frame"`
	TailLength    int                `json:"tail_length"`
	Trajectories  int                `json:"trajectories"`
	Frames        int                `json:"frames"`
	Metrics       map[string]float64 `json:"metrics,omitempty"`
}

func (m RunMetadata) Params() dynamo.Params {
	return dynamo.Params{
		Sigma:         m.Sigma,
		Beta:          m.Beta,
		Rho:           m.Rho,
		StepSize:      m.StepSize,
		StepsPerFrame: m.StepsPerFrame,
	}
}

// Save writes meta and every tail of src under a new run directory and
// returns the run id. meta.ID, Timestamp and Trajectories are filled in.
func (s *Store) Save(meta RunMetadata, src TailSource) (string, error) {
	name := meta.Preset
	if name == "" {
		name = "lorenz"
	}
	now := time.Now()
	meta.ID = fmt.Sprintf("%s_%d", name, now.UnixNano())
	meta.Timestamp = now
	meta.Trajectories = src.TrajectoryCount()

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeMetadata(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeTails(filepath.Join(runDir, tailsFile), src); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func writeMetadata(path string, meta RunMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func writeTails(path string, src TailSource) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"trajectory", "index", "x", "y", "z"}); err != nil {
		return err
	}
	for t := 0; t < src.TrajectoryCount(); t++ {
		states, err := src.Snapshot(t)
		if err != nil {
			return err
		}
		for i, st := range states {
			row := []string{strconv.Itoa(t), strconv.Itoa(i)}
			for _, v := range st {
				row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s metadata: %w", runID, err)
	}
	return &meta, nil
}

// LoadTails reads back the tails of a run, one oldest-first slice per
// trajectory.
func (s *Store) LoadTails(runID string) ([][]dynamo.State, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, tailsFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 5
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("storage: %s tails: %w", runID, err)
	}

	var tails [][]dynamo.State
	for line, record := range records {
		if line == 0 {
			continue
		}
		t, err := strconv.Atoi(record[0])
		if err != nil || t < 0 {
			return nil, fmt.Errorf("storage: %s tails line %d: bad trajectory %q", runID, line+1, record[0])
		}
		var st dynamo.State
		for axis := range st {
			v, err := strconv.ParseFloat(record[2+axis], 64)
			if err != nil {
				return nil, fmt.Errorf("storage: %s tails line %d: %w", runID, line+1, err)
			}
			st[axis] = v
		}
		for len(tails) <= t {
			tails = append(tails, nil)
		}
		tails[t] = append(tails[t], st)
	}
	return tails, nil
}
