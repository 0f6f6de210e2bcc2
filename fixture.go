package sheetquiz

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FixtureFile is a YAML export of a spreadsheet: tabs of raw rows, header first.
//
//	tabs:
//	  - title: Networking
//	    rows:
//	      - [Question, Answer A, Answer B, Correct Answer]
//	      - [What is TCP?, A protocol, A cable, A]
type FixtureFile struct {
	Tabs []FixtureTab `yaml:"tabs"`
}

// FixtureTab is one tab of a FixtureFile
type FixtureTab struct {
	Title string     `yaml:"title"`
	Rows  [][]string `yaml:"rows"`
}

// FixtureReader serves tabs from a parsed fixture
type FixtureReader struct {
	tabs []FixtureTab
}

// LoadFixture reads and parses the fixture at path
func LoadFixture(path string) (*FixtureReader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture parses fixture YAML
func ParseFixture(data []byte) (*FixtureReader, error) {
	var file FixtureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	return &FixtureReader{tabs: file.Tabs}, nil
}

func (r *FixtureReader) Tabs(_ context.Context) ([]string, error) {
	titles := make([]string, len(r.tabs))
	for i, tab := range r.tabs {
		titles[i] = tab.Title
	}
	return titles, nil
}

func (r *FixtureReader) Rows(_ context.Context, tab string) ([][]string, error) {
	for _, t := range r.tabs {
		if t.Title == tab {
			return t.Rows, nil
		}
	}
	return nil, fmt.Errorf("%w: tab %q", ErrExamNotFound, tab)
}
