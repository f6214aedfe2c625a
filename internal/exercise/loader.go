package exercise

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/certlearn/stepwise/internal/domain"
	"gopkg.in/yaml.v3"
)

// ExerciseFile is the YAML structure for an authored exercise.
type ExerciseFile struct {
	ID          string     `yaml:"id"`
	Title       string     `yaml:"title"`
	Description string     `yaml:"description"`
	Steps       []StepFile `yaml:"steps"`
}

// StepFile is the YAML structure for a step.
type StepFile struct {
	ID         string       `yaml:"id"`
	StepNumber int          `yaml:"step_number"`
	Title      string       `yaml:"title"`
	ImageURL   string       `yaml:"image_url"`
	Actions    []ActionFile `yaml:"actions"`
}

// ActionFile is the YAML structure for an action.
type ActionFile struct {
	ID            string  `yaml:"id"`
	Type          string  `yaml:"type"`
	Label         string  `yaml:"label"`
	Placeholder   string  `yaml:"placeholder"`
	CorrectAnswer string  `yaml:"correct_answer"`
	ScoringMode   string  `yaml:"scoring_mode"`
	CaseSensitive bool    `yaml:"case_sensitive"`
	ErrorMessage  string  `yaml:"error_message"`
	OnError       string  `yaml:"on_error"`
	MaxAttempts   *int    `yaml:"max_attempts"`
	Position      struct {
		X      float64 `yaml:"x"`
		Y      float64 `yaml:"y"`
		Width  float64 `yaml:"width"`
		Height float64 `yaml:"height"`
	} `yaml:"position"`
}

// Loader reads exercise definitions from a content directory. Exercises
// are authored either as YAML files or as JSON exported straight from the
// content service.
type Loader struct {
	basePath string
}

// NewLoader creates a loader rooted at basePath.
func NewLoader(basePath string) *Loader {
	return &Loader{basePath: basePath}
}

// BasePath returns the loader's content directory.
func (l *Loader) BasePath() string {
	return l.basePath
}

// LoadExercise loads a single exercise by ID, trying the supported file
// extensions in order.
func (l *Loader) LoadExercise(id string) (*domain.Exercise, error) {
	for _, ext := range []string{".yaml", ".yml", ".json"} {
		path := filepath.Join(l.basePath, id+ext)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return l.loadFile(path)
	}
	return nil, fmt.Errorf("exercise %s: %w", id, os.ErrNotExist)
}

// LoadAll loads every exercise file in the content directory. A file that
// fails validation is a configuration error and aborts the load.
func (l *Loader) LoadAll() ([]*domain.Exercise, error) {
	entries, err := os.ReadDir(l.basePath)
	if err != nil {
		return nil, fmt.Errorf("read content dir: %w", err)
	}

	var exercises []*domain.Exercise
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" && ext != ".json" {
			continue
		}
		ex, err := l.loadFile(filepath.Join(l.basePath, entry.Name()))
		if err != nil {
			return nil, err
		}
		exercises = append(exercises, ex)
	}

	return exercises, nil
}

func (l *Loader) loadFile(path string) (*domain.Exercise, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var ex *domain.Exercise
	if filepath.Ext(path) == ".json" {
		// JSON files carry the content service's wire shape and map onto
		// the domain model directly.
		var parsed domain.Exercise
		if err := json.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		ex = &parsed
	} else {
		var file ExerciseFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		ex = file.toDomain()
	}

	if err := ex.Validate(); err != nil {
		return nil, fmt.Errorf("invalid exercise %s: %w", path, err)
	}
	return ex, nil
}

func (f *ExerciseFile) toDomain() *domain.Exercise {
	ex := &domain.Exercise{
		ID:          f.ID,
		Title:       f.Title,
		Description: f.Description,
	}

	for i, sf := range f.Steps {
		step := domain.Step{
			ID:         sf.ID,
			StepNumber: sf.StepNumber,
			Title:      sf.Title,
			ImageURL:   sf.ImageURL,
		}
		if step.StepNumber == 0 {
			step.StepNumber = i + 1
		}
		for _, af := range sf.Actions {
			step.Actions = append(step.Actions, af.toDomain())
		}
		ex.Steps = append(ex.Steps, step)
	}

	return ex
}

func (f *ActionFile) toDomain() domain.Action {
	return domain.Action{
		ID:            f.ID,
		Type:          parseActionType(f.Type),
		Label:         f.Label,
		Placeholder:   f.Placeholder,
		CorrectAnswer: f.CorrectAnswer,
		ScoringMode:   domain.ScoringMode(f.ScoringMode),
		CaseSensitive: f.CaseSensitive,
		ErrorMessage:  f.ErrorMessage,
		OnError:       domain.OnErrorAction(f.OnError),
		MaxAttempts:   f.MaxAttempts,
		Position: domain.Position{
			X:      f.Position.X,
			Y:      f.Position.Y,
			Width:  f.Position.Width,
			Height: f.Position.Height,
		},
	}
}

func parseActionType(s string) domain.ActionType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "textinput", "text_input", "text":
		return domain.ActionTextInput
	default:
		return domain.ActionButton
	}
}
