package ingest

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/killchain/core/model"
)

// ReadJSON decodes a JSON Document.
func ReadJSON(r io.Reader, chain model.KillChain) (*model.AssignmentTable, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return FromDocument(doc, chain)
}

// ReadYAML decodes a YAML Document.
func ReadYAML(r io.Reader, chain model.KillChain) (*model.AssignmentTable, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return FromDocument(doc, chain)
}

// ToDocument converts a table back into its document form.
func ToDocument(t *model.AssignmentTable) Document {
	doc := Document{Chain: t.Chain()}
	for _, id := range t.Targets() {
		doc.Targets = append(doc.Targets, int(id))
	}
	for _, id := range t.Platforms() {
		doc.Platforms = append(doc.Platforms, int(id))
	}
	for _, tg := range t.Targets() {
		for _, ph := range t.Chain() {
			for _, a := range t.Alternatives(tg, ph.ID) {
				doc.Alternatives = append(doc.Alternatives, Entry{
					Target:   int(a.Target),
					Phase:    PhaseRef(fmt.Sprint(int(a.Phase))),
					Platform: int(a.Platform),
					Duration: a.Duration,
				})
			}
		}
	}
	return doc
}
