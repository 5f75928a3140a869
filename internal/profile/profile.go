// Package profile loads the candidate profile produced by resume analysis.
package profile

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spigell/interviewer/internal/interview"
	"github.com/spigell/interviewer/internal/utils"
	"gopkg.in/yaml.v3"
)

// Load reads a YAML or JSON profile file.
func Load(path string) (interview.Profile, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return interview.Profile{}, errors.New("profile file is not configured")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return interview.Profile{}, fmt.Errorf("reading profile %q: %w", path, err)
	}

	p, err := Parse(data)
	if err != nil {
		return interview.Profile{}, fmt.Errorf("profile %q: %w", path, err)
	}

	return p, nil
}

// Parse decodes and normalizes a profile document.
func Parse(data []byte) (interview.Profile, error) {
	var p interview.Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return interview.Profile{}, fmt.Errorf("decoding profile: %w", err)
	}

	return Normalize(p), nil
}

// Normalize trims every field, resolves the level and drops empty entries.
func Normalize(p interview.Profile) interview.Profile {
	p.Name = strings.TrimSpace(p.Name)
	p.EstimatedLevel = interview.ParseLevel(string(p.EstimatedLevel))
	p.ScenarioLabel = strings.TrimSpace(p.ScenarioLabel)
	p.FocusAreas = utils.UniqueStrings(p.FocusAreas)
	if p.YearsOfExperience < 0 {
		p.YearsOfExperience = 0
	}

	projects := make([]interview.Project, 0, len(p.Projects))
	for _, pr := range p.Projects {
		pr.Name = strings.TrimSpace(pr.Name)
		if pr.Name == "" {
			continue
		}
		pr.TechStack = utils.CompactStrings(pr.TechStack)
		projects = append(projects, pr)
	}
	p.Projects = projects

	return p
}
