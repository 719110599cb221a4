package schema

import (
	"encoding/json"
	"slices"
	"strconv"
)

// Kappa is a pairwise agreement score that may be undefined.
// Undefined means the pair has no comparable entities; it is never coerced to 0.
type Kappa struct {
	value   float64
	defined bool
}

// KappaUndefined is the agreement of a pair with nothing in common.
var KappaUndefined = Kappa{}

// KappaScore wraps a computed agreement value.
func KappaScore(v float64) Kappa {
	return Kappa{value: v, defined: true}
}

// Value returns the score and whether it is defined.
func (k Kappa) Value() (float64, bool) {
	return k.value, k.defined
}

// IsDefined reports whether the pair has a computed score.
func (k Kappa) IsDefined() bool {
	return k.defined
}

// String renders the score with two decimals, or "n/a".
func (k Kappa) String() string {
	if !k.defined {
		return "n/a"
	}
	return strconv.FormatFloat(k.value, 'f', 2, 64)
}

// MarshalJSON renders Undefined as null.
func (k Kappa) MarshalJSON() ([]byte, error) {
	if !k.defined {
		return []byte("null"), nil
	}
	return json.Marshal(k.value)
}

// UnmarshalJSON accepts a number or null.
func (k *Kappa) UnmarshalJSON(data []byte) error {
	var v *float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v == nil {
		*k = KappaUndefined
		return nil
	}
	*k = KappaScore(*v)
	return nil
}

type annotatorPair struct {
	a, b AnnotatorID
}

func orderedPair(x, y AnnotatorID) annotatorPair {
	if y < x {
		x, y = y, x
	}
	return annotatorPair{a: x, b: y}
}

// KappaMatrix holds pairwise agreement for one label.
// It is symmetric and its diagonal is always 1.
type KappaMatrix struct {
	Label      string
	Annotators []AnnotatorID
	cells      map[annotatorPair]Kappa
}

// NewKappaMatrix creates a matrix over the given annotators, sorted and deduplicated.
// Every off-diagonal cell starts as Undefined.
func NewKappaMatrix(label string, annotators []AnnotatorID) KappaMatrix {
	sorted := slices.Clone(annotators)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	return KappaMatrix{
		Label:      label,
		Annotators: sorted,
		cells:      make(map[annotatorPair]Kappa),
	}
}

// Set stores the agreement of a pair. Diagonal writes are ignored.
func (m *KappaMatrix) Set(x, y AnnotatorID, k Kappa) {
	if x == y {
		return
	}
	if m.cells == nil {
		m.cells = make(map[annotatorPair]Kappa)
	}
	m.cells[orderedPair(x, y)] = k
}

// Get returns the agreement of a pair.
func (m KappaMatrix) Get(x, y AnnotatorID) Kappa {
	if x == y {
		return KappaScore(1)
	}
	return m.cells[orderedPair(x, y)]
}

// Rows returns the full square matrix in Annotators order.
func (m KappaMatrix) Rows() [][]Kappa {
	rows := make([][]Kappa, len(m.Annotators))
	for i, x := range m.Annotators {
		rows[i] = make([]Kappa, len(m.Annotators))
		for j, y := range m.Annotators {
			rows[i][j] = m.Get(x, y)
		}
	}
	return rows
}

// KappaPair is one off-diagonal cell of a matrix.
type KappaPair struct {
	First  AnnotatorID `json:"first"`
	Second AnnotatorID `json:"second"`
	Kappa  Kappa       `json:"kappa"`
}

// Pairs lists every unordered annotator pair once, in row-major order.
func (m KappaMatrix) Pairs() []KappaPair {
	var pairs []KappaPair
	for i, x := range m.Annotators {
		for _, y := range m.Annotators[i+1:] {
			pairs = append(pairs, KappaPair{First: x, Second: y, Kappa: m.Get(x, y)})
		}
	}
	return pairs
}

type kappaMatrixJSON struct {
	Label      string        `json:"label"`
	Annotators []AnnotatorID `json:"annotators"`
	Matrix     [][]Kappa     `json:"matrix"`
}

// MarshalJSON renders the matrix as a square array.
func (m KappaMatrix) MarshalJSON() ([]byte, error) {
	annotators := m.Annotators
	if annotators == nil {
		annotators = []AnnotatorID{}
	}
	return json.Marshal(kappaMatrixJSON{Label: m.Label, Annotators: annotators, Matrix: m.Rows()})
}
