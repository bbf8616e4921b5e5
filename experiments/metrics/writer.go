package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// AgentConfig describes one player of a match-up.
type AgentConfig struct {
	ID          int           `yaml:"id"`
	Goroutines  int           `yaml:"goroutines"`
	Duration    time.Duration `yaml:"duration"`
	Episodes    int           `yaml:"episodes,omitempty"`
	Exploration float64       `yaml:"exploration"`
	Tuned       bool          `yaml:"tuned"`
	Warmup      bool          `yaml:"warmup,omitempty"`
	Rollout     string        `yaml:"rollout"`
	Lambda      float64       `yaml:"lambda,omitempty"`
	Temperature float64       `yaml:"temperature,omitempty"` // Samples moves when positive
	Random      bool          `yaml:"random,omitempty"`      // Uniformly random player, search fields unused
}

// Setup is written once per experiment next to its records.
type Setup struct {
	Name     string        `yaml:"name"`
	Game     string        `yaml:"game"`
	Games    int           `yaml:"games_per_matchup"`
	Seed     uint64        `yaml:"seed"`
	Agents   []AgentConfig `yaml:"agents"`
	MatchUps []MatchUp     `yaml:"matchups"`
}

type MatchUp struct {
	Black int `yaml:"black"` // AgentConfig.ID
	White int `yaml:"white"`
}

type GameRecord struct {
	ID    int
	Black int // AgentConfig.ID
	White int // AgentConfig.ID
	GameMetric
}

type MoveRecord struct {
	Game int // GameRecord.ID
	MoveMetric
}

type Writer struct {
	baseDir string
}

func NewWriter(root, name string) (*Writer, error) {
	// Create a subfolder named by current timestamp
	timestamp := time.Now().UTC().Format("20060102T150405Z")
	baseDir := filepath.Join(root, name, timestamp)
	err := os.MkdirAll(baseDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Writer{
		baseDir: baseDir,
	}, nil
}

func (w *Writer) Dir() string {
	return w.baseDir
}

func (w *Writer) WriteSetup(setup Setup) error {
	out, err := yaml.Marshal(setup)
	if err != nil {
		return fmt.Errorf("failed to encode setup: %w", err)
	}
	err = os.WriteFile(filepath.Join(w.baseDir, "setup.yaml"), out, 0644)
	if err != nil {
		return fmt.Errorf("failed to write setup file: %w", err)
	}
	return nil
}

func (w *Writer) WriteGameRecords(records []GameRecord) error {
	header := []string{"id", "black", "white", "winner", "black_discs", "white_discs", "moves", "truncated", "start_time", "end_time", "duration"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(record.ID),
			strconv.Itoa(record.Black),
			strconv.Itoa(record.White),
			record.Winner.String(),
			strconv.Itoa(record.BlackDiscs),
			strconv.Itoa(record.WhiteDiscs),
			strconv.Itoa(record.TotalMoves),
			strconv.FormatBool(record.Truncated),
			record.StartTime.Format(time.RFC3339),
			record.EndTime.Format(time.RFC3339),
			record.Duration.String(),
		})
	}
	return w.writeCSV("game_records.csv", header, rows)
}

func (w *Writer) WriteMoveRecords(records []MoveRecord) error {
	header := []string{"game", "step", "color", "move", "goroutines", "budget", "duration", "episodes", "full_playouts", "nodes", "forced"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		move := "pass"
		if !record.Pass {
			move = record.Move.Position.String()
		}
		rows = append(rows, []string{
			strconv.Itoa(record.Game),
			strconv.Itoa(record.Step),
			record.Color.String(),
			move,
			strconv.Itoa(record.Goroutines),
			record.Budget.String(),
			record.Duration.String(),
			strconv.Itoa(record.Episodes),
			strconv.Itoa(record.FullPlayouts),
			strconv.Itoa(record.Nodes),
			strconv.FormatBool(record.Forced),
		})
	}
	return w.writeCSV("move_records.csv", header, rows)
}

func (w *Writer) writeCSV(name string, header []string, rows [][]string) error {
	// Create a file
	path := filepath.Join(w.baseDir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)

	// Write header
	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write %s header: %w", name, err)
	}

	// Write each row
	err = writer.WriteAll(rows)
	if err != nil {
		return fmt.Errorf("failed to write %s rows: %w", name, err)
	}
	return nil
}
