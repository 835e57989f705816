package evaluator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/drivelab/driverl/algorithm"
)

// Checkpointer persists algorithm parameters plus training progress under
// an opaque tag (e.g. "best").
type Checkpointer interface {
	Save(tag string, alg algorithm.Algorithm, progress *TrainerProgress) error
}

// FileCheckpointer writes one JSON checkpoint file per tag under
// <root>/train/algorithm, replacing any previous checkpoint with the same
// tag.
type FileCheckpointer struct {
	dir string
}

func NewFileCheckpointer(rootDir string) *FileCheckpointer {
	return &FileCheckpointer{dir: filepath.Join(rootDir, "train", "algorithm")}
}

type checkpointFile struct {
	Tag           string    `json:"tag"`
	GlobalCounter int64     `json:"global_counter"`
	EnvSteps      int64     `json:"env_steps"`
	StateDict     []byte    `json:"state_dict"`
	SavedAt       time.Time `json:"saved_at"`
}

func (c *FileCheckpointer) Save(tag string, alg algorithm.Algorithm, progress *TrainerProgress) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("creating checkpoint dir: %w", err)
	}
	blob, err := alg.StateDict()
	if err != nil {
		return fmt.Errorf("serializing algorithm state: %w", err)
	}
	ckpt := checkpointFile{
		Tag:       tag,
		StateDict: blob,
		SavedAt:   time.Now(),
	}
	if progress != nil {
		ckpt.GlobalCounter = progress.GlobalCounter()
		ckpt.EnvSteps = progress.EnvSteps()
	}
	out, err := json.Marshal(ckpt)
	if err != nil {
		return fmt.Errorf("marshalling checkpoint: %w", err)
	}
	// Write-then-rename so a crash mid-save never clobbers the previous
	// checkpoint.
	final := filepath.Join(c.dir, fmt.Sprintf("ckpt-%s.json", tag))
	tmp, err := os.CreateTemp(c.dir, "ckpt-*.tmp")
	if err != nil {
		return fmt.Errorf("creating checkpoint temp file: %w", err)
	}
	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing checkpoint temp file: %w", err)
	}
	return os.Rename(tmp.Name(), final)
}

// Load reads a checkpoint back; used by trainers resuming from "best".
func (c *FileCheckpointer) Load(tag string, alg algorithm.Algorithm) (int64, int64, error) {
	data, err := os.ReadFile(filepath.Join(c.dir, fmt.Sprintf("ckpt-%s.json", tag)))
	if err != nil {
		return 0, 0, err
	}
	var ckpt checkpointFile
	if err := json.Unmarshal(data, &ckpt); err != nil {
		return 0, 0, fmt.Errorf("unmarshalling checkpoint: %w", err)
	}
	if err := alg.LoadStateDict(ckpt.StateDict); err != nil {
		return 0, 0, err
	}
	return ckpt.GlobalCounter, ckpt.EnvSteps, nil
}
