package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ReferenceAnswer pairs a known question with the answer the judge compares against.
type ReferenceAnswer struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

type referenceSetFile struct {
	References []ReferenceAnswer `yaml:"references"`
}

// LoadReferenceSet reads the evaluation reference set. An empty path or a
// missing file yields no references and disables evaluation.
func LoadReferenceSet(path string) ([]ReferenceAnswer, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read reference set: %w", err)
	}

	var file referenceSetFile
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse reference set %s: %w", path, err)
	}

	refs := make([]ReferenceAnswer, 0, len(file.References))
	for i, ref := range file.References {
		ref.Question = strings.TrimSpace(ref.Question)
		ref.Answer = strings.TrimSpace(ref.Answer)
		if ref.Question == "" || ref.Answer == "" {
			return nil, fmt.Errorf("reference set %s: entry %d needs both question and answer", path, i+1)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
