package assistant

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/Nm02/Asistente-Academico-IITA/embeddings"
	"github.com/Nm02/Asistente-Academico-IITA/intent"
	"github.com/Nm02/Asistente-Academico-IITA/llm"
	"github.com/Nm02/Asistente-Academico-IITA/moodle"
	"github.com/Nm02/Asistente-Academico-IITA/thread"
)

const replySubject = "Respuesta automática (Beta)"

// defaultSystemPrompt is used when no template file is configured.
const defaultSystemPrompt = "Sos el asistente académico del curso. Respondes consultas de alumnos en el foro, " +
	"en español, con tono cordial y claro. Basa tu respuesta en el material del curso que se incluye a continuacion; " +
	"si el material no alcanza para responder, decilo y sugeri consultar al profesor. No inventes fechas, notas ni requisitos."

// Service runs the response pipeline for webhook events. All collaborators
// are injected; the service itself keeps no per-discussion state, so one
// instance safely serves concurrent event tasks.
type Service struct {
	platform     Platform
	embedder     embeddings.Embedder
	llm          llm.Client
	classifier   Classifier
	extract      Extractor
	catalog      []intent.Tag
	systemPrompt string
	logger       *log.Logger
}

// NewService wires the pipeline. An empty systemPrompt selects the built-in
// template; a nil logger falls back to log.Default().
func NewService(platform Platform, embedder embeddings.Embedder, llmClient llm.Client, classifier Classifier, extractor Extractor, systemPrompt string, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}

	return &Service{
		platform:     platform,
		embedder:     embedder,
		llm:          llmClient,
		classifier:   classifier,
		extract:      extractor,
		catalog:      DefaultCatalog(),
		systemPrompt: systemPrompt,
		logger:       logger,
	}
}

// HandleDiscussion processes one discussion event end to end: resolve the
// bound identity, gate each conversation, and answer the eligible ones in
// traversal order. A capability failure terminates the task; nothing is
// posted for it.
func (s *Service) HandleDiscussion(ctx context.Context, discussionID, courseID int64) error {
	info, err := s.platform.GetSiteInfo(ctx)
	if err != nil {
		return fmt.Errorf("discussion %d course %d: resolve identity: %w", discussionID, courseID, err)
	}

	courses, err := s.platform.GetUserCourses(ctx, info.UserID)
	if err != nil {
		return fmt.Errorf("discussion %d course %d: list enrolled courses: %w", discussionID, courseID, err)
	}

	enrolled := make(map[int64]bool, len(courses))
	var course moodle.Course
	for _, candidate := range courses {
		enrolled[candidate.ID] = true
		if candidate.ID == courseID {
			course = candidate
		}
	}
	if !enrolled[courseID] {
		s.logger.Printf("discussion %d: assistant not enrolled in course %d, ignoring", discussionID, courseID)
		return nil
	}

	posts, err := s.platform.GetDiscussionPosts(ctx, discussionID)
	if err != nil {
		return fmt.Errorf("discussion %d course %d: fetch posts: %w", discussionID, courseID, err)
	}

	conversations := thread.Resolve(posts)
	cache := newRoleCache(s.platform)

	for i := range conversations {
		conversation := conversations[i]

		eligible, err := shouldRespond(ctx, cache, info.UserID, enrolled, courseID, conversation)
		if err != nil {
			return fmt.Errorf("discussion %d course %d: eligibility: %w", discussionID, courseID, err)
		}
		if !eligible {
			s.logger.Printf("discussion %d: conversation ending at post %d not eligible, skipping", discussionID, conversation.Last().PostID)
			continue
		}

		if err := s.respond(ctx, cache, course, conversation); err != nil {
			return fmt.Errorf("discussion %d course %d: %w", discussionID, courseID, err)
		}
	}
	return nil
}

// respond answers one eligible conversation: classify the question, build
// the grounding context, generate and post.
func (s *Service) respond(ctx context.Context, cache *roleCache, course moodle.Course, conversation thread.Conversation) error {
	if err := resolveRoles(ctx, cache, course.ID, &conversation); err != nil {
		return fmt.Errorf("resolve author roles: %w", err)
	}

	question := conversation.Last().Text

	intents, err := s.classifier.Classify(ctx, question, s.catalog)
	if err != nil {
		return fmt.Errorf("classify intent: %w", err)
	}
	s.logger.Printf("discussion %d: post %d classified as %v", conversation.DiscussionID, conversation.Last().PostID, intents)

	systemPrompt, err := s.assembleContext(ctx, course, conversation, intents)
	if err != nil {
		return fmt.Errorf("assemble context: %w", err)
	}

	messages := make([]llm.Message, 0, len(conversation.Messages)+1)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	messages = append(messages, chatHistory(conversation)...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: question})

	answer, err := s.llm.Generate(ctx, messages)
	if err != nil {
		return fmt.Errorf("generate reply: %w", err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return fmt.Errorf("generate reply: model returned an empty answer")
	}

	reply, err := s.platform.ReplyToPost(ctx, conversation.Last().PostID, answer, replySubject)
	if err != nil {
		return fmt.Errorf("post reply: %w", err)
	}

	s.logger.Printf("discussion %d: replied to post %d with post %d", conversation.DiscussionID, conversation.Last().PostID, reply.PostID)
	return nil
}

// chatHistory formats every message before the leaf as a chat turn. Teacher
// messages land as assistant turns so the model reads them as authoritative;
// the rest are student turns.
func chatHistory(conversation thread.Conversation) []llm.Message {
	if len(conversation.Messages) < 2 {
		return nil
	}

	history := make([]llm.Message, 0, len(conversation.Messages)-1)
	for _, message := range conversation.Messages[:len(conversation.Messages)-1] {
		role := llm.RoleUser
		prefix := fmt.Sprintf("mensaje del alumno %s:", message.AuthorName)
		if isTeacherRole(message.Roles) {
			role = llm.RoleAssistant
			prefix = fmt.Sprintf("mensaje del profesor %s:", message.AuthorName)
		}
		history = append(history, llm.Message{Role: role, Content: prefix + message.Text})
	}
	return history
}
