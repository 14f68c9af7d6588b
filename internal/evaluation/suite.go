// Package evaluation replays a suite of known-bad code samples through the review pipeline
// and scores how well the findings match what each case expects.
package evaluation

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/agusespa/prsentinel/internal/types"
	"github.com/agusespa/prsentinel/internal/utils"
	"gopkg.in/yaml.v3"
)

type Suite struct {
	Name  string `yaml:"name" json:"name"`
	Cases []Case `yaml:"cases" json:"cases"`
}

type Case struct {
	Name        string     `yaml:"name" json:"name"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Files       []CaseFile `yaml:"files" json:"files"`
	Expected    Expected   `yaml:"expected" json:"expected"`
}

type CaseFile struct {
	Path    string `yaml:"path" json:"path"`
	Content string `yaml:"content" json:"content"`
}

// Expected describes the review a case should produce. Zero values are not checked.
type Expected struct {
	ShouldFindIssues bool             `yaml:"should_find_issues" json:"should_find_issues"`
	MinIssues        int              `yaml:"min_issues,omitempty" json:"min_issues,omitempty"`
	MaxIssues        int              `yaml:"max_issues,omitempty" json:"max_issues,omitempty"`
	Severities       []types.Severity `yaml:"severities,omitempty" json:"severities,omitempty"`
	Categories       []types.Category `yaml:"categories,omitempty" json:"categories,omitempty"`
	Files            []string         `yaml:"files,omitempty" json:"files,omitempty"`
	Codes            []string         `yaml:"codes,omitempty" json:"codes,omitempty"`
	Conclusion       types.Conclusion `yaml:"conclusion,omitempty" json:"conclusion,omitempty"`
}

func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file at %s: %w", path, err)
	}

	var suite Suite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("failed to parse suite file %s: %w", path, err)
	}
	if err := suite.Validate(); err != nil {
		return nil, fmt.Errorf("invalid suite %s: %w", path, err)
	}
	return &suite, nil
}

func (s *Suite) Validate() error {
	if len(s.Cases) == 0 {
		return errors.New("no cases found")
	}

	var errs []error
	names := make(map[string]bool)
	for i, c := range s.Cases {
		if c.Name == "" {
			errs = append(errs, fmt.Errorf("case %d: missing required 'name' field", i))
			continue
		}
		if names[c.Name] {
			errs = append(errs, fmt.Errorf("duplicate case name: %s", c.Name))
		}
		names[c.Name] = true
		if len(c.Files) == 0 {
			errs = append(errs, fmt.Errorf("case %s: missing required 'files' field", c.Name))
		}
		if c.Expected.MaxIssues > 0 && c.Expected.MinIssues > c.Expected.MaxIssues {
			errs = append(errs, fmt.Errorf("case %s: min_issues exceeds max_issues", c.Name))
		}
	}
	return errors.Join(errs...)
}

// Filter returns the named cases, or every case when names is empty.
func (s *Suite) Filter(names ...string) []Case {
	if len(names) == 0 {
		return s.Cases
	}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	var filtered []Case
	for _, c := range s.Cases {
		if wanted[c.Name] {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// ChangedFiles presents the case the way the GitHub client presents newly added files.
func (c Case) ChangedFiles() []types.ChangedFile {
	files := make([]types.ChangedFile, 0, len(c.Files))
	for _, f := range c.Files {
		files = append(files, types.ChangedFile{
			Path:     f.Path,
			Language: utils.DetectLanguageFromFilePath(f.Path),
			Content:  f.Content,
			Patch:    addedPatch(f.Content),
			Status:   "added",
		})
	}
	return files
}

func addedPatch(content string) string {
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	var b strings.Builder
	fmt.Fprintf(&b, "@@ -0,0 +1,%d @@\n", len(lines))
	for _, line := range lines {
		b.WriteString("+" + line + "\n")
	}
	return b.String()
}
