package schema

import "slices"

// Task is one labeling task declared in the configuration.
type Task struct {
	ID          string        `mapstructure:"-" json:"id"`
	Name        string        `mapstructure:"name" json:"name"`
	EntityType  string        `mapstructure:"entity_type" json:"entity_type"`
	Labels      []string      `mapstructure:"labels" json:"labels"`
	Annotators  []AnnotatorID `mapstructure:"annotators" json:"annotators"`
	DataFiles   []string      `mapstructure:"data_files" json:"data_files"`
	PatternFile string        `mapstructure:"pattern_file" json:"pattern_file,omitempty"`
}

// DefaultLabel is the label requests are generated for.
// A task with several labels generates for its first one.
func (t Task) DefaultLabel() string {
	if len(t.Labels) == 0 {
		return ""
	}
	return t.Labels[0]
}

// HasLabel reports whether the task declares the label.
func (t Task) HasLabel(label string) bool {
	return slices.Contains(t.Labels, label)
}
