// Package matching ranks viewing-companion candidates for a match request and owns the
// request lifecycle rules.
package matching

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/sayu/sayu-backend/internal/apperr"
	"github.com/sayu/sayu-backend/internal/personality"
)

//go:embed matrix.yaml
var defaultMatrixYAML []byte

// Matrix is the complete 16x16 compatibility table. It is read-only after load.
type Matrix struct {
	scores [16][16]int
}

type matrixFile struct {
	Codes  []string         `yaml:"codes"`
	Scores map[string][]int `yaml:"scores"`
}

// DefaultMatrix parses the compatibility table compiled into the binary.
func DefaultMatrix() (*Matrix, error) {
	return ParseMatrix(defaultMatrixYAML)
}

// ParseMatrix decodes a YAML table and checks it covers every ordered type pair with
// scores in [0, 100].
func ParseMatrix(data []byte) (*Matrix, error) {
	var f matrixFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode matrix: %w", err)
	}
	if len(f.Codes) != 16 {
		return nil, fmt.Errorf("matrix lists %d codes, expected 16", len(f.Codes))
	}

	cols := make([]int, len(f.Codes))
	seen := make(map[int]bool, 16)
	for i, c := range f.Codes {
		code, err := personality.ParseTypeCode(c)
		if err != nil {
			return nil, fmt.Errorf("matrix column %d: %w", i, err)
		}
		if seen[code.Index()] {
			return nil, fmt.Errorf("matrix column %s listed twice", code)
		}
		seen[code.Index()] = true
		cols[i] = code.Index()
	}

	if len(f.Scores) != 16 {
		return nil, fmt.Errorf("matrix has %d rows, expected 16", len(f.Scores))
	}

	var m Matrix
	rows := make(map[int]bool, 16)
	for row, values := range f.Scores {
		host, err := personality.ParseTypeCode(row)
		if err != nil {
			return nil, fmt.Errorf("matrix row: %w", err)
		}
		if rows[host.Index()] {
			return nil, fmt.Errorf("matrix row %s listed twice", host)
		}
		rows[host.Index()] = true
		if len(values) != 16 {
			return nil, fmt.Errorf("matrix row %s has %d scores, expected 16", host, len(values))
		}
		for i, v := range values {
			if v < 0 || v > 100 {
				return nil, fmt.Errorf("matrix row %s column %s: score %d out of range", host, f.Codes[i], v)
			}
			m.scores[host.Index()][cols[i]] = v
		}
	}
	return &m, nil
}

// Score returns the compatibility of a host type with a candidate type.
func (m *Matrix) Score(host, candidate personality.TypeCode) (int, error) {
	h, c := host.Index(), candidate.Index()
	if h < 0 {
		return 0, fmt.Errorf("host type %q: %w", host, apperr.ErrInvalidType)
	}
	if c < 0 {
		return 0, fmt.Errorf("candidate type %q: %w", candidate, apperr.ErrInvalidType)
	}
	return m.scores[h][c], nil
}

// Row returns every candidate type's score for host in canonical order.
func (m *Matrix) Row(host personality.TypeCode) ([16]int, error) {
	h := host.Index()
	if h < 0 {
		return [16]int{}, fmt.Errorf("host type %q: %w", host, apperr.ErrInvalidType)
	}
	return m.scores[h], nil
}
