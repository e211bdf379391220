package authz

import (
	"embed"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"
)

//go:embed model/*.yaml
var modelFiles embed.FS

// Rule is one branch of a relation's union.
//
// With From empty, Computed is checked on the same object (owner implies
// can_view). With From set, Computed is checked on every object related
// through From (can_view of the parent folder).
type Rule struct {
	From     Relation `yaml:"from"`
	Computed Relation `yaml:"computed"`
}

// RelationDef describes how a relation is satisfied.
type RelationDef struct {
	Direct []ObjectType `yaml:"direct"`
	Union  []Rule       `yaml:"union"`
	ButNot Relation     `yaml:"but_not"`
}

// TypeDef lists the relations defined on an object type.
type TypeDef struct {
	Relations map[Relation]RelationDef `yaml:"relations"`
}

// Model is the set of derivation rules, keyed by object type.
type Model struct {
	Types map[ObjectType]TypeDef `yaml:"types"`
}

// DefaultModel loads the embedded drive model.
func DefaultModel() (*Model, error) {
	return LoadModel(modelFiles, "model/drive.yaml")
}

// LoadModel reads and validates a model file.
func LoadModel(fsys fs.FS, name string) (*Model, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return ParseModel(data)
}

// ParseModel decodes a YAML model and checks that every rule refers to a
// defined relation.
func ParseModel(data []byte) (*Model, error) {
	var m Model
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal model: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Relation returns the definition of relation on objectType.
func (m *Model) Relation(objectType ObjectType, relation Relation) (RelationDef, bool) {
	td, ok := m.Types[objectType]
	if !ok {
		return RelationDef{}, false
	}
	def, ok := td.Relations[relation]
	return def, ok
}

// AllowsDirect reports whether subjectType may be assigned relation on objectType.
func (m *Model) AllowsDirect(objectType ObjectType, relation Relation, subjectType ObjectType) bool {
	def, ok := m.Relation(objectType, relation)
	if !ok {
		return false
	}
	for _, t := range def.Direct {
		if t == subjectType {
			return true
		}
	}
	return false
}

// GrantingRelations returns the assignable relations on the same object that
// can grant relation. ok is false when relation can also be granted through a
// related object, so a subject's own tuples do not bound the candidates.
func (m *Model) GrantingRelations(objectType ObjectType, relation Relation) (relations []Relation, ok bool) {
	seen := make(map[Relation]bool)
	var walk func(r Relation) bool
	walk = func(r Relation) bool {
		if seen[r] {
			return true
		}
		seen[r] = true
		def, defined := m.Relation(objectType, r)
		if !defined {
			return false
		}
		if len(def.Direct) > 0 {
			relations = append(relations, r)
		}
		for _, rule := range def.Union {
			if rule.From != "" || !walk(rule.Computed) {
				return false
			}
		}
		return true
	}
	if !walk(relation) {
		return nil, false
	}
	return relations, true
}

func (m *Model) validate() error {
	if len(m.Types) == 0 {
		return fmt.Errorf("model defines no types")
	}
	for typ, td := range m.Types {
		for rel, def := range td.Relations {
			for _, st := range def.Direct {
				if _, ok := m.Types[st]; !ok {
					return fmt.Errorf("%s#%s: unknown subject type %q", typ, rel, st)
				}
			}
			for _, rule := range def.Union {
				if rule.Computed == "" {
					return fmt.Errorf("%s#%s: rule without computed relation", typ, rel)
				}
				if rule.From == "" {
					if _, ok := td.Relations[rule.Computed]; !ok {
						return fmt.Errorf("%s#%s: unknown relation %q", typ, rel, rule.Computed)
					}
					continue
				}
				from, ok := td.Relations[rule.From]
				if !ok {
					return fmt.Errorf("%s#%s: unknown tupleset relation %q", typ, rel, rule.From)
				}
				for _, target := range from.Direct {
					if _, ok := m.Relation(target, rule.Computed); !ok {
						return fmt.Errorf("%s#%s: %s has no relation %q", typ, rel, target, rule.Computed)
					}
				}
			}
			if def.ButNot != "" {
				if _, ok := td.Relations[def.ButNot]; !ok {
					return fmt.Errorf("%s#%s: unknown excluded relation %q", typ, rel, def.ButNot)
				}
			}
		}
	}
	return nil
}
