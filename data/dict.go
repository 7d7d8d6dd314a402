package data

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Label is one code/label pair in a categorical field's dictionary entry.
// Pairs are kept in declared order, which is why the YAML shape is a list
// rather than a mapping.
type Label struct {
	Code  int    `yaml:"code"`
	Label string `yaml:"label"`
}

// Dictionary maps a categorical field name to its ordered code/label pairs
type Dictionary map[string][]Label

// LoadDictionary reads and validates a YAML label dictionary
func LoadDictionary(filename string) (Dictionary, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "Could not READ dictionary from %s", filename)
	}

	var d Dictionary
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, errors.Wrapf(err, "Could not PARSE dictionary from %s", filename)
	}

	if err := d.Check(); err != nil {
		return nil, errors.Wrapf(err, "Parsed dictionary %s is not valid", filename)
	}

	return d, nil
}

// Save writes the dictionary back out as YAML
func (d Dictionary) Save(filename string) error {
	if err := d.Check(); err != nil {
		return err
	}

	raw, err := yaml.Marshal(d)
	if err != nil {
		return errors.Wrap(err, "Could not render dictionary")
	}

	if err := os.WriteFile(filename, raw, 0o644); err != nil {
		return errors.Wrapf(err, "Could not WRITE dictionary to %s", filename)
	}
	return nil
}

// Check returns an error if any field has duplicate codes or labels
func (d Dictionary) Check() error {
	for field, labels := range d {
		if len(labels) < 1 {
			return errors.Errorf("Dictionary field %s has no labels", field)
		}

		codes := make(map[int]bool, len(labels))
		names := make(map[string]bool, len(labels))
		for _, l := range labels {
			if codes[l.Code] {
				return errors.Errorf("Dictionary field %s repeats code %d", field, l.Code)
			}
			if names[l.Label] {
				return errors.Errorf("Dictionary field %s repeats label %q", field, l.Label)
			}
			codes[l.Code] = true
			names[l.Label] = true
		}
	}
	return nil
}

// LabelFor resolves one code of one field
func (d Dictionary) LabelFor(field string, code int) (string, error) {
	labels, ok := d[field]
	if !ok {
		return "", errors.Errorf("Dictionary has no field %s", field)
	}
	for _, l := range labels {
		if l.Code == code {
			return l.Label, nil
		}
	}
	return "", errors.Errorf("Dictionary field %s has no code %d", field, code)
}

// Labels returns the field's labels in declared order
func (d Dictionary) Labels(field string) ([]string, error) {
	labels, ok := d[field]
	if !ok {
		return nil, errors.Errorf("Dictionary has no field %s", field)
	}

	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = l.Label
	}
	return out, nil
}
