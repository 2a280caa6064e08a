// Package quiz implements the branching question sequencer: versioned question banks,
// the branch checkpoint after the core block, and step-by-step answer submission.
package quiz

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/sayu/sayu-backend/internal/model"
	"github.com/sayu/sayu-backend/internal/personality"
)

//go:embed banks/*.yaml
var bankFS embed.FS

// Choice is one answer option.
type Choice struct {
	ID      string              `yaml:"id" json:"id"`
	Text    string              `yaml:"text" json:"text"`
	Weights personality.Weights `yaml:"weights" json:"-"`
}

// Question is one prompt with its choices. Choice position 0 is the "first option"
// counted at the branch checkpoint, position 1 the "second option".
type Question struct {
	ID      string   `yaml:"id" json:"id"`
	Prompt  string   `yaml:"prompt" json:"prompt"`
	Choices []Choice `yaml:"choices" json:"choices"`
}

// Choice returns the choice with id and its position.
func (q *Question) Choice(id string) (Choice, int, bool) {
	for i, c := range q.Choices {
		if c.ID == id {
			return c, i, true
		}
	}
	return Choice{}, -1, false
}

// BranchRoles names the branch chosen for each checkpoint outcome.
type BranchRoles struct {
	First  string `yaml:"first"`
	Second string `yaml:"second"`
	Mixed  string `yaml:"mixed"`
}

// Track is the question sequence for one session kind.
type Track struct {
	Total       int                   `yaml:"total"`
	Core        []Question            `yaml:"core"`
	Branches    map[string][]Question `yaml:"branches"`
	BranchRoles BranchRoles           `yaml:"branch_roles"`
}

// Branching reports whether the track has a branch checkpoint.
func (t *Track) Branching() bool { return len(t.Branches) > 0 }

// QuestionAt returns the question at index for the given branch. branch is ignored
// inside the core block.
func (t *Track) QuestionAt(index int, branch *string) (*Question, bool) {
	if index < 0 {
		return nil, false
	}
	if index < len(t.Core) {
		return &t.Core[index], true
	}
	if branch == nil {
		return nil, false
	}
	qs, ok := t.Branches[*branch]
	if !ok {
		return nil, false
	}
	i := index - len(t.Core)
	if i >= len(qs) {
		return nil, false
	}
	return &qs[i], true
}

// Bank is an immutable, versioned set of tracks.
type Bank struct {
	Version string                       `yaml:"version"`
	Tracks  map[model.SessionKind]*Track `yaml:"tracks"`
}

// Track returns the track for kind.
func (b *Bank) Track(kind model.SessionKind) (*Track, bool) {
	t, ok := b.Tracks[kind]
	return t, ok
}

// ParseBank decodes and validates a YAML bank.
func ParseBank(data []byte) (*Bank, error) {
	var b Bank
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode bank: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Validate checks the structural rules every bank must satisfy.
func (b *Bank) Validate() error {
	if b.Version == "" {
		return fmt.Errorf("bank has no version")
	}
	if len(b.Tracks) == 0 {
		return fmt.Errorf("bank %s has no tracks", b.Version)
	}

	for kind, t := range b.Tracks {
		if !kind.Valid() {
			return fmt.Errorf("bank %s: unknown session kind %q", b.Version, kind)
		}
		if err := t.validate(); err != nil {
			return fmt.Errorf("bank %s, track %s: %w", b.Version, kind, err)
		}
		if t.Branching() && kind != model.SessionKindArtwork {
			return fmt.Errorf("bank %s, track %s: only the artwork track may branch", b.Version, kind)
		}
	}
	return nil
}

func (t *Track) validate() error {
	if t == nil || len(t.Core) == 0 {
		return fmt.Errorf("no core questions")
	}

	seen := make(map[string]bool)
	check := func(q Question) error {
		if q.ID == "" {
			return fmt.Errorf("question without id")
		}
		if seen[q.ID] {
			return fmt.Errorf("duplicate question id %q", q.ID)
		}
		seen[q.ID] = true
		if len(q.Choices) < 2 {
			return fmt.Errorf("question %s: needs at least 2 choices", q.ID)
		}
		ids := make(map[string]bool, len(q.Choices))
		for _, c := range q.Choices {
			if c.ID == "" || ids[c.ID] {
				return fmt.Errorf("question %s: missing or duplicate choice id %q", q.ID, c.ID)
			}
			ids[c.ID] = true
			for a := range c.Weights {
				if !a.Valid() {
					return fmt.Errorf("question %s choice %s: unknown axis %q", q.ID, c.ID, a)
				}
			}
		}
		return nil
	}

	for _, q := range t.Core {
		if err := check(q); err != nil {
			return err
		}
	}

	if !t.Branching() {
		if t.Total != len(t.Core) {
			return fmt.Errorf("total %d != %d core questions", t.Total, len(t.Core))
		}
		return nil
	}

	roles := []string{t.BranchRoles.First, t.BranchRoles.Second, t.BranchRoles.Mixed}
	for _, r := range roles {
		if _, ok := t.Branches[r]; !ok {
			return fmt.Errorf("branch role %q has no questions", r)
		}
	}

	branchLen := -1
	for _, name := range sortedKeys(t.Branches) {
		qs := t.Branches[name]
		if branchLen >= 0 && len(qs) != branchLen {
			return fmt.Errorf("branch %s has %d questions, expected %d", name, len(qs), branchLen)
		}
		branchLen = len(qs)
		for _, q := range qs {
			if err := check(q); err != nil {
				return err
			}
		}
	}

	if t.Total != len(t.Core)+branchLen {
		return fmt.Errorf("total %d != %d core + %d branch questions", t.Total, len(t.Core), branchLen)
	}
	return nil
}

func sortedKeys(m map[string][]Question) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Catalog holds every loaded bank by version so sessions keep the bank they started on.
type Catalog struct {
	mu    sync.RWMutex
	banks map[string]*Bank
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{banks: make(map[string]*Bank)}
}

// LoadEmbedded returns a catalog holding every bank compiled into the binary.
func LoadEmbedded() (*Catalog, error) {
	c := NewCatalog()
	files, err := fs.Glob(bankFS, "banks/*.yaml")
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		data, err := bankFS.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f, err)
		}
		b, err := ParseBank(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		if err := c.Register(b); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Register adds a validated bank. Versions are write-once.
func (c *Catalog) Register(b *Bank) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.banks[b.Version]; exists {
		return fmt.Errorf("bank version %s already registered", b.Version)
	}
	c.banks[b.Version] = b
	return nil
}

// Get returns the bank for version.
func (c *Catalog) Get(version string) (*Bank, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.banks[version]
	return b, ok
}

// Versions lists registered versions in sorted order.
func (c *Catalog) Versions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.banks))
	for v := range c.banks {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
