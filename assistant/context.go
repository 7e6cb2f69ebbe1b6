package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/Nm02/Asistente-Academico-IITA/llm"
	"github.com/Nm02/Asistente-Academico-IITA/moodle"
	"github.com/Nm02/Asistente-Academico-IITA/similarity"
	"github.com/Nm02/Asistente-Academico-IITA/thread"
)

const (
	generalInfoSection = "informacion general"
	pdfMimeType        = "application/pdf"

	// conversationWindow is how many trailing messages feed the
	// conversation-context embedding.
	conversationWindow = 5
)

// knowledgeItem is one embeddable piece of course content.
type knowledgeItem struct {
	source    string
	text      string
	embedding []float32
}

// activityItem is one course assignment with its extracted material. The
// activity pool is kept apart from course-content knowledge and never enters
// the similarity index.
type activityItem struct {
	name    string
	section string
	text    string
}

// assembleContext builds the grounding system prompt for one conversation.
func (s *Service) assembleContext(ctx context.Context, course moodle.Course, conversation thread.Conversation, intents []string) (string, error) {
	sections, err := s.platform.GetCourseContents(ctx, course.ID)
	if err != nil {
		return "", fmt.Errorf("fetch course contents: %w", err)
	}

	generalInfo, outline, items := s.buildCourseKnowledge(ctx, course, sections)

	var activities []activityItem
	if hasIntent(intents, IntentActivity) {
		activities, err = s.buildActivityPool(ctx, course.ID, sections)
		if err != nil {
			return "", fmt.Errorf("fetch course assignments: %w", err)
		}
	}

	question := conversation.Last().Text
	window := conversationText(conversation, conversationWindow)

	queryVectors, err := s.embedder.Embed(ctx, []string{question, window})
	if err != nil {
		return "", fmt.Errorf("embed question: %w", err)
	}
	if len(queryVectors) != 2 {
		return "", fmt.Errorf("embedder returned %d vectors for 2 inputs", len(queryVectors))
	}

	if err := s.embedKnowledge(ctx, items); err != nil {
		return "", err
	}

	snippets, err := rankKnowledge(queryVectors[0], queryVectors[1], items)
	if err != nil {
		return "", err
	}

	selected := ""
	if len(activities) > 0 {
		selected, err = s.selectActivity(ctx, question, activities)
		if err != nil {
			return "", err
		}
	}

	return composePrompt(s.systemPrompt, generalInfo, outline, snippets, selected, intents), nil
}

// buildCourseKnowledge walks the course listing once, folding "informacion
// general" files into a single blob and turning every other PDF module into
// an embeddable knowledge item. A failed download or extraction skips that
// item only: a missing file degrades context quality, it does not fail the
// response.
func (s *Service) buildCourseKnowledge(ctx context.Context, course moodle.Course, sections []moodle.Section) (generalInfo, outline string, items []knowledgeItem) {
	var info strings.Builder
	var tree strings.Builder
	info.WriteString(fmt.Sprintf("Nombre del Curso: %s\n", course.ShortName))

	for _, section := range sections {
		tree.WriteString(fmt.Sprintf("Seccion: %s\n", section.Name))
		isGeneral := strings.EqualFold(strings.TrimSpace(section.Name), generalInfoSection)

		for _, module := range section.Modules {
			tree.WriteString(fmt.Sprintf("  - %s\n", module.Name))

			for _, content := range module.Contents {
				if content.MimeType != pdfMimeType {
					continue
				}

				text, err := s.fetchText(ctx, content.FileURL)
				if err != nil {
					s.logger.Printf("course %d: skipping %q (%s): %v", course.ID, module.Name, content.FileName, err)
					continue
				}

				if isGeneral {
					info.WriteString(fmt.Sprintf("\nFuente de la informacion (nombre del archivo): %s\nContenido del archivo:\n%s\n", module.Name, text))
				} else {
					items = append(items, knowledgeItem{source: module.Name, text: text})
				}
			}
		}
	}

	return info.String(), tree.String(), items
}

// buildActivityPool fetches the course's assignments and resolves each one's
// owning section by matching its cmid against the section module lists.
func (s *Service) buildActivityPool(ctx context.Context, courseID int64, sections []moodle.Section) ([]activityItem, error) {
	assignments, err := s.platform.GetCourseAssignments(ctx, courseID)
	if err != nil {
		return nil, err
	}

	sectionByCMID := make(map[int64]string)
	for _, section := range sections {
		for _, module := range section.Modules {
			sectionByCMID[module.ID] = section.Name
		}
	}

	activities := make([]activityItem, 0, len(assignments))
	for _, assignment := range assignments {
		sectionName, ok := sectionByCMID[assignment.CMID]
		if !ok {
			sectionName = "Unknown Section"
		}

		var text strings.Builder
		text.WriteString(assignment.Intro)
		for _, attachment := range assignment.Attachments {
			if attachment.MimeType != pdfMimeType {
				continue
			}
			extracted, err := s.fetchText(ctx, attachment.FileURL)
			if err != nil {
				s.logger.Printf("course %d: skipping attachment %q of activity %q: %v", courseID, attachment.FileName, assignment.Name, err)
				continue
			}
			text.WriteString("\n")
			text.WriteString(extracted)
		}

		activities = append(activities, activityItem{
			name:    assignment.Name,
			section: sectionName,
			text:    text.String(),
		})
	}
	return activities, nil
}

func (s *Service) fetchText(ctx context.Context, fileURL string) (string, error) {
	data, err := s.platform.DownloadFile(ctx, fileURL)
	if err != nil {
		return "", err
	}
	return s.extract(data)
}

// embedKnowledge batch-embeds every item that does not already carry a
// vector. Items with an embedding are excluded from the request, so
// re-running is a no-op.
func (s *Service) embedKnowledge(ctx context.Context, items []knowledgeItem) error {
	pending := make([]int, 0, len(items))
	texts := make([]string, 0, len(items))
	for i := range items {
		if items[i].embedding != nil {
			continue
		}
		pending = append(pending, i)
		texts = append(texts, items[i].text)
	}
	if len(pending) == 0 {
		return nil
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed course content: %w", err)
	}
	if len(vectors) != len(pending) {
		return fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(pending))
	}
	for i, idx := range pending {
		items[idx].embedding = vectors[i]
	}
	return nil
}

// rankKnowledge runs the similarity search twice, once against the question
// and once against the conversation window, keeping the single best match of
// each and dropping an exact-text duplicate of the question match.
func rankKnowledge(questionVector, windowVector []float32, items []knowledgeItem) ([]similarity.Result, error) {
	if len(items) == 0 {
		return nil, nil
	}

	candidates := make([]similarity.Candidate, len(items))
	for i, item := range items {
		candidates[i] = similarity.Candidate{
			Source:    item.source,
			Text:      item.text,
			Embedding: item.embedding,
		}
	}

	questionMatches, err := similarity.Search(questionVector, candidates, 1)
	if err != nil {
		return nil, fmt.Errorf("search question context: %w", err)
	}
	windowMatches, err := similarity.Search(windowVector, candidates, 1)
	if err != nil {
		return nil, fmt.Errorf("search conversation context: %w", err)
	}

	results := questionMatches
	for _, match := range windowMatches {
		duplicate := false
		for _, existing := range results {
			if existing.Text == match.Text {
				duplicate = true
				break
			}
		}
		if !duplicate {
			results = append(results, match)
		}
	}
	return results, nil
}

// selectActivity asks the model to pick the activity most relevant to the
// question and return it verbatim. The pool is small, so the model reads it
// whole instead of going through the vector index. An answer of NINGUNA
// means no activity applies.
func (s *Service) selectActivity(ctx context.Context, question string, activities []activityItem) (string, error) {
	var sb strings.Builder
	sb.WriteString("Estas son las actividades del curso:\n")
	for _, activity := range activities {
		sb.WriteString(fmt.Sprintf("\n### Actividad: %s\nSeccion: %s\n%s\n", activity.name, activity.section, activity.text))
	}
	sb.WriteString("\nDevolve el nombre y el texto COMPLETO de la actividad mas relevante para la consulta del alumno, copiado textualmente, sin reescribir ni resumir. ")
	sb.WriteString("Si ninguna actividad es relevante, responde exactamente NINGUNA.")

	answer, err := s.llm.Generate(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: sb.String()},
		{Role: llm.RoleUser, Content: question},
	})
	if err != nil {
		return "", fmt.Errorf("select activity: %w", err)
	}

	answer = strings.TrimSpace(answer)
	if answer == "" || strings.EqualFold(answer, "NINGUNA") {
		return "", nil
	}
	return answer, nil
}

// conversationText concatenates the trailing window of messages, oldest
// first, for the conversation-context embedding.
func conversationText(conversation thread.Conversation, window int) string {
	messages := conversation.Messages
	if len(messages) > window {
		messages = messages[len(messages)-window:]
	}
	parts := make([]string, len(messages))
	for i, message := range messages {
		parts[i] = message.Text
	}
	return strings.Join(parts, "\n")
}

// composePrompt appends the grounding blocks to the instruction template.
// The course outline and general info always go in; content snippets are
// omitted when the question is nothing more than a general inquiry; the
// selected activity goes in only for activity inquiries.
func composePrompt(template, generalInfo, outline string, snippets []similarity.Result, activity string, intents []string) string {
	var sb strings.Builder
	sb.WriteString(template)
	sb.WriteString("\nLa siguiente Informacion es la Informacion General Del Curso. Utilizala para deducir el contenido general del curso:\n")
	sb.WriteString(generalInfo)
	sb.WriteString("\n\nContenido general del curso (secciones y recursos):\n")
	sb.WriteString(outline)

	if !soleIntent(intents, IntentGeneral) && len(snippets) > 0 {
		sb.WriteString("\nLa siguiente Informacion es el Contenido Del Curso que consideramos util para esta pregunta, puedes o no utilizarlo:\n")
		for _, snippet := range snippets {
			sb.WriteString(fmt.Sprintf("\nFuente de la informacion (nombre del archivo): %s:\n%s", snippet.Source, snippet.Text))
		}
	}

	if hasIntent(intents, IntentActivity) && activity != "" {
		sb.WriteString("\n\nLa siguiente es la actividad del curso relevante para esta consulta, copiada textualmente:\n")
		sb.WriteString(activity)
	}

	return sb.String()
}
