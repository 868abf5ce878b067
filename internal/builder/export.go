package builder

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"
	"unicode"
)

// ExportVersion tags the envelope format.
const ExportVersion = "1.0"

// ExportEnvelope is the interchange file format: the full project snapshot
// plus both AI collections.
type ExportEnvelope struct {
	Project           Project     `json:"project"`
	DynamicTemplates  []Template  `json:"dynamicTemplates"`
	DynamicComponents []Component `json:"dynamicComponents"`
	ExportedAt        time.Time   `json:"exportedAt"`
	Version           string      `json:"version"`
}

// importEnvelope tolerates unknown and missing fields; only the presence
// of project is validated.
type importEnvelope struct {
	Project           *Project    `json:"project"`
	DynamicTemplates  []Template  `json:"dynamicTemplates"`
	DynamicComponents []Component `json:"dynamicComponents"`
}

// ExportProject builds the export envelope from the current state.
func (s *Store) ExportProject() ExportEnvelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	envelope := ExportEnvelope{
		Project:           s.project.Clone(),
		DynamicTemplates:  make([]Template, len(s.dynamicTemplates)),
		DynamicComponents: make([]Component, len(s.dynamicComponents)),
		ExportedAt:        time.Now(),
		Version:           ExportVersion,
	}
	for i, t := range s.dynamicTemplates {
		envelope.DynamicTemplates[i] = t.Clone()
	}
	for i, c := range s.dynamicComponents {
		envelope.DynamicComponents[i] = c.Clone()
	}
	return envelope
}

// ExportFilename derives the download name from the sanitized project
// name: non-alphanumerics become underscores, lowercased.
func (s *Store) ExportFilename() string {
	s.mu.Lock()
	name := s.project.Name
	s.mu.Unlock()
	return SanitizeExportName(name) + "_export.json"
}

// SanitizeExportName maps a project name onto a filesystem-safe slug.
func SanitizeExportName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) && r < 128 || unicode.IsDigit(r) && r < 128 {
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// ImportProject accepts the export format: the project replaces the
// active one, the AI collections append to the existing ones. A payload
// without a decodable project is rejected as a whole and leaves every
// collection untouched. The return value is the only failure signal.
func (s *Store) ImportProject(ctx context.Context, raw []byte) bool {
	var envelope importEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		s.logger.Warn("import rejected: malformed payload", slog.Any("error", err))
		return false
	}
	if envelope.Project == nil {
		s.logger.Warn("import rejected: missing project")
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.project = envelope.Project.Clone()
	s.stamp()
	s.selected = ""
	s.persistProject(ctx)

	if len(envelope.DynamicTemplates) > 0 {
		for _, t := range envelope.DynamicTemplates {
			s.dynamicTemplates = append(s.dynamicTemplates, t.Clone())
		}
		s.persistTemplates(ctx)
	}
	if len(envelope.DynamicComponents) > 0 {
		for _, c := range envelope.DynamicComponents {
			s.dynamicComponents = append(s.dynamicComponents, c.Clone())
		}
		s.persistComponents(ctx)
	}
	return true
}
