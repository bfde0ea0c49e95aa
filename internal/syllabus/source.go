package syllabus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ouroboros-study/ouroboros-api/internal/models"
)

// Document is a parsed syllabus source file.
type Document struct {
	Name              string              `json:"name" yaml:"name"`
	Observations      string              `json:"observations" yaml:"observations"`
	Cargo             string              `json:"cargo" yaml:"cargo"`
	Edital            string              `json:"edital" yaml:"edital"`
	Subjects          []models.Subject    `json:"subjects" yaml:"subjects"`
	BancaTopicWeights models.TopicWeights `json:"bancaTopicWeights" yaml:"bancaTopicWeights"`
}

// SupportedExtensions lists the source formats ParseDocument understands.
var SupportedExtensions = []string{".json", ".yaml", ".yml"}

// ParseDocument decodes a source file. The document is either a bare list of
// subjects or an object wrapping them with plan metadata; YAML is chosen by extension.
func ParseDocument(filename string, data []byte) (*Document, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	var (
		doc *Document
		err error
	)
	switch ext {
	case ".yaml", ".yml":
		doc, err = parseYAML(data)
	default:
		doc, err = parseJSON(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	if doc.Name == "" {
		doc.Name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}
	if len(doc.Subjects) == 0 {
		return nil, fmt.Errorf("parse %s: no subjects found", filename)
	}
	Normalize(doc.Subjects)
	return doc, nil
}

func parseJSON(data []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	if trimmed[0] == '[' {
		var subjects []models.Subject
		if err := json.Unmarshal(trimmed, &subjects); err != nil {
			return nil, err
		}
		return &Document{Subjects: subjects}, nil
	}
	var doc Document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func parseYAML(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	node := root.Content[0]
	if node.Kind == yaml.SequenceNode {
		var subjects []models.Subject
		if err := node.Decode(&subjects); err != nil {
			return nil, err
		}
		return &Document{Subjects: subjects}, nil
	}
	var doc Document
	if err := node.Decode(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ToPlan turns a document into an unsaved plan.
func (d *Document) ToPlan(sourceFile string) *models.Plan {
	return &models.Plan{
		Name:              d.Name,
		Observations:      d.Observations,
		Cargo:             d.Cargo,
		Edital:            d.Edital,
		SourceFile:        sourceFile,
		Subjects:          models.Subjects(Clone(d.Subjects)),
		BancaTopicWeights: d.BancaTopicWeights,
	}
}
