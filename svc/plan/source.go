package plan

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source loads the plan table.
type Source interface {
	Load(ctx context.Context) (map[Code]Policy, error)
}

type inMemSource struct {
	policies map[Code]Policy
}

// NewInMemSource returns a Source over a deep copy of policies. With no
// argument it serves DefaultPolicies.
func NewInMemSource(policies ...Policy) Source {
	m := make(map[Code]Policy)
	if len(policies) == 0 {
		m = DefaultPolicies()
	}
	for _, p := range policies {
		m[p.Code] = p.clone()
	}
	return &inMemSource{policies: m}
}

func (s *inMemSource) Load(context.Context) (map[Code]Policy, error) {
	out := make(map[Code]Policy, len(s.policies))
	for code, p := range s.policies {
		out[code] = p.clone()
	}
	return out, nil
}

type yamlSource struct {
	path string
	data []byte
}

// NewYAMLSource reads the plan table from a YAML file on every Load. Plans
// listed in the file replace the built-in ones; the rest keep their defaults.
//
//	plans:
//	  FREE:
//	    title: Free
//	    limits: {notes: 50, folders: 5, versions: 10}
//	  PRO:
//	    limits: {notes: unlimited}
//	    features: [contacts, note_tags]
func NewYAMLSource(path string) Source {
	return &yamlSource{path: path}
}

// NewYAMLSourceFromBytes is NewYAMLSource over an in-memory document.
func NewYAMLSourceFromBytes(data []byte) Source {
	return &yamlSource{data: data}
}

type yamlDocument struct {
	Plans map[string]yamlPlan `yaml:"plans"`
}

type yamlPlan struct {
	Title       string               `yaml:"title"`
	Description string               `yaml:"description"`
	Limits      map[string]yamlLimit `yaml:"limits"`
	Features    []string             `yaml:"features"`
}

// yamlLimit accepts an integer or the word "unlimited".
type yamlLimit int64

func (l *yamlLimit) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && strings.EqualFold(node.Value, "unlimited") {
		*l = yamlLimit(Unlimited)
		return nil
	}
	var n int64
	if err := node.Decode(&n); err != nil {
		return fmt.Errorf("line %d: limit must be an integer or \"unlimited\": %w", node.Line, err)
	}
	*l = yamlLimit(n)
	return nil
}

func (s *yamlSource) Load(ctx context.Context) (map[Code]Policy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data := s.data
	if data == nil {
		b, err := os.ReadFile(s.path)
		if err != nil {
			return nil, errors.Join(ErrFailedToLoadPlans, err)
		}
		data = b
	}

	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	policies := DefaultPolicies()
	for rawCode, yp := range doc.Plans {
		code := Code(strings.ToUpper(rawCode))
		if NormalizeCode(rawCode) != code {
			return nil, errors.Join(ErrInvalidPlanConfiguration, fmt.Errorf("unknown plan code %q", rawCode))
		}

		p := policies[code]
		if yp.Title != "" {
			p.Title = yp.Title
		}
		if yp.Description != "" {
			p.Description = yp.Description
		}
		for rawRes, limit := range yp.Limits {
			res, err := ParseResource(rawRes)
			if err != nil {
				return nil, errors.Join(ErrInvalidPlanConfiguration, fmt.Errorf("plan %s: %w", code, err))
			}
			p.Limits[res] = int64(limit)
		}
		if yp.Features != nil {
			p.Features = make([]Feature, 0, len(yp.Features))
			for _, f := range yp.Features {
				p.Features = append(p.Features, Feature(strings.ToLower(f)))
			}
		}
		policies[code] = p
	}

	return policies, nil
}
