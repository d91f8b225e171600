// Package storage keeps finished runs on disk, one directory per run holding
// metadata.json and states.csv. Stored trajectories are only ever read back.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
	timeColumn   = "time"
)

// ErrNotFound is returned for a run ID with no stored run.
var ErrNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return errors.Wrapf(os.MkdirAll(s.baseDir, 0755), "creating store %s", s.baseDir)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Timestamp     time.Time          `json:"timestamp"`
	Integrator    string             `json:"integrator"`
	Controller    string             `json:"controller"`
	Start         float64            `json:"start"`
	End           float64            `json:"end"`
	Samples       int                `json:"samples"`
	Constants     map[string]float64 `json:"constants,omitempty"`
	Initial       map[string]float64 `json:"initial,omitempty"`
	Metrics       map[string]float64 `json:"metrics,omitempty"`
	StepsTaken    int                `json:"steps_taken"`
	StepsRejected int                `json:"steps_rejected"`
	// Error is set when the run ended early; the stored trajectory is partial.
	Error string `json:"error,omitempty"`
}

// Trajectory is a table of named channels sampled at Times.
type Trajectory struct {
	Channels []string
	Times    []float64
	Rows     [][]float64
}

// Column returns the samples of the named channel.
func (t *Trajectory) Column(name string) ([]float64, error) {
	for j, c := range t.Channels {
		if c == name {
			col := make([]float64, len(t.Rows))
			for i, r := range t.Rows {
				col[i] = r[j]
			}
			return col, nil
		}
	}
	return nil, fmt.Errorf("no channel %q in %v", name, t.Channels)
}

// Save writes a new run directory and returns its ID, filling meta.ID and
// meta.Timestamp.
func (s *Store) Save(meta *RunMetadata, traj *Trajectory) (string, error) {
	if err := s.Init(); err != nil {
		return "", err
	}

	meta.Timestamp = s.now()
	runDir, id, err := s.reserve(meta.Name, meta.Timestamp)
	if err != nil {
		return "", err
	}
	meta.ID = id

	if err := writeFile(filepath.Join(runDir, metadataFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}); err != nil {
		return "", err
	}

	if err := writeFile(filepath.Join(runDir, statesFile), func(w io.Writer) error {
		return WriteCSV(w, traj)
	}); err != nil {
		return "", err
	}
	return id, nil
}

// reserve creates a fresh run directory, suffixing the ID if a run with the
// same name and timestamp already exists.
func (s *Store) reserve(name string, ts time.Time) (string, string, error) {
	if name == "" {
		name = "run"
	}
	base := fmt.Sprintf("%s_%s", name, ts.Format("20060102-150405"))
	id := base
	for i := 1; ; i++ {
		dir := filepath.Join(s.baseDir, id)
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return dir, id, nil
		}
		if !os.IsExist(err) {
			return "", "", errors.Wrapf(err, "creating run %s", id)
		}
		id = fmt.Sprintf("%s-%d", base, i)
	}
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer func() {
		err = multierr.Combine(err, errors.Wrapf(f.Close(), "closing %s", path))
	}()
	return errors.Wrapf(write(f), "writing %s", path)
}

// WriteCSV writes a header row of channel names followed by one row per sample.
func WriteCSV(w io.Writer, traj *Trajectory) error {
	if len(traj.Rows) != len(traj.Times) {
		return fmt.Errorf("%d rows for %d times", len(traj.Rows), len(traj.Times))
	}
	cw := csv.NewWriter(w)

	header := append([]string{timeColumn}, traj.Channels...)
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for i, t := range traj.Times {
		if len(traj.Rows[i]) != len(traj.Channels) {
			return fmt.Errorf("row %d has %d values, want %d", i, len(traj.Rows[i]), len(traj.Channels))
		}
		row[0] = strconv.FormatFloat(t, 'g', -1, 64)
		for j, v := range traj.Rows[i] {
			row[j+1] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses the format written by WriteCSV.
func ReadCSV(r io.Reader) (*Trajectory, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("empty trajectory file")
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading header")
	}
	if header[0] != timeColumn {
		return nil, errors.Errorf("first column is %q, want %q", header[0], timeColumn)
	}

	traj := &Trajectory{Channels: header[1:]}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}

		vals := make([]float64, len(rec))
		for j, field := range rec {
			if vals[j], err = strconv.ParseFloat(field, 64); err != nil {
				return nil, errors.Wrapf(err, "line %d column %q", line, header[j])
			}
		}
		traj.Times = append(traj.Times, vals[0])
		traj.Rows = append(traj.Rows, vals[1:])
	}
	return traj, nil
}

// List returns stored runs oldest first. Directories without readable
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, errors.Wrapf(err, "listing %s", s.baseDir)
	}

	runs := make([]RunMetadata, 0, len(entries))
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

	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].Timestamp.Equal(runs[j].Timestamp) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNotFound, "run %s", runID)
		}
		return nil, errors.Wrapf(err, "run %s", runID)
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrapf(err, "run %s metadata", runID)
	}
	return &meta, nil
}

func (s *Store) LoadStates(runID string) (traj *Trajectory, err error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNotFound, "run %s", runID)
		}
		return nil, errors.Wrapf(err, "run %s", runID)
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()

	traj, err = ReadCSV(f)
	return traj, errors.Wrapf(err, "run %s states", runID)
}
