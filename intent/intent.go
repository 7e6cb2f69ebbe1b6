// Package intent classifies student questions against a tag catalog.
//
// The model is prompted to answer with a bare JSON array of tag names; the
// response is parsed strictly and validated against the catalog. A malformed
// answer degrades to "no tags matched" instead of failing the caller — the
// pipeline then falls back to generic handling.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/Nm02/Asistente-Academico-IITA/llm"
)

// Tag is one classifiable question category.
type Tag struct {
	Name        string
	Description string
}

// Classifier matches questions to catalog tags via the language model.
type Classifier struct {
	llm    llm.Client
	logger *log.Logger
}

// NewClassifier builds a classifier on top of the given chat client.
func NewClassifier(client llm.Client, logger *log.Logger) *Classifier {
	if logger == nil {
		logger = log.Default()
	}
	return &Classifier{llm: client, logger: logger}
}

// Classify returns the subset of catalog tag names that apply to the
// question, in catalog order. Only a failed model call is an error; an
// unparseable model answer yields the empty set.
func (c *Classifier) Classify(ctx context.Context, question string, catalog []Tag) ([]string, error) {
	if len(catalog) == 0 {
		return nil, nil
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: classifyPrompt(catalog)},
		{Role: llm.RoleUser, Content: question},
	}

	raw, err := c.llm.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("classify question: %w", err)
	}

	names, ok := parseNames(raw)
	if !ok {
		c.logger.Printf("intent: unparseable classifier output %q, treating as no match", truncate(raw, 200))
		return nil, nil
	}

	allowed := make(map[string]bool, len(catalog))
	for _, tag := range catalog {
		allowed[tag.Name] = true
	}

	matched := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if !allowed[name] {
			c.logger.Printf("intent: classifier returned unknown tag %q, ignoring", name)
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		matched = append(matched, name)
	}
	return matched, nil
}

func classifyPrompt(catalog []Tag) string {
	var sb strings.Builder
	sb.WriteString("Eres un clasificador de preguntas de alumnos. Estas son las etiquetas disponibles:\n")
	for _, tag := range catalog {
		sb.WriteString(fmt.Sprintf("- %q: %s\n", tag.Name, tag.Description))
	}
	sb.WriteString("\nResponde UNICAMENTE con un arreglo JSON de strings con los nombres de las etiquetas que correspondan a la pregunta. ")
	sb.WriteString("Si ninguna corresponde, responde []. No agregues explicaciones ni texto adicional.")
	return sb.String()
}

// parseNames decodes the model output as a JSON string array, tolerating a
// markdown code fence around the payload.
func parseNames(raw string) ([]string, bool) {
	payload := strings.TrimSpace(raw)
	if strings.HasPrefix(payload, "```") {
		payload = strings.TrimPrefix(payload, "```json")
		payload = strings.TrimPrefix(payload, "```")
		payload = strings.TrimSuffix(strings.TrimSpace(payload), "```")
		payload = strings.TrimSpace(payload)
	}

	var names []string
	if err := json.Unmarshal([]byte(payload), &names); err != nil {
		return nil, false
	}
	return names, true
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
