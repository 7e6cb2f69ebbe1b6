package assistant

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/Nm02/Asistente-Academico-IITA/embeddings"
	"github.com/Nm02/Asistente-Academico-IITA/intent"
	"github.com/Nm02/Asistente-Academico-IITA/llm"
	"github.com/Nm02/Asistente-Academico-IITA/moodle"
)

type postedReply struct {
	parentID int64
	message  string
	subject  string
}

type stubPlatform struct {
	siteInfo    moodle.SiteInfo
	siteInfoErr error
	courses     []moodle.Course
	enrolled    map[int64]moodle.EnrolledUser
	posts       []moodle.Post
	postsErr    error
	sections    []moodle.Section
	assignments []moodle.Assignment
	files       map[string]string

	replies     []postedReply
	roleLookups int
}

func (s *stubPlatform) GetSiteInfo(ctx context.Context) (moodle.SiteInfo, error) {
	if s.siteInfoErr != nil {
		return moodle.SiteInfo{}, s.siteInfoErr
	}
	return s.siteInfo, nil
}

func (s *stubPlatform) GetUserCourses(ctx context.Context, userID int64) ([]moodle.Course, error) {
	return s.courses, nil
}

func (s *stubPlatform) GetUserCourseData(ctx context.Context, courseID, userID int64) (moodle.EnrolledUser, error) {
	s.roleLookups++
	user, ok := s.enrolled[userID]
	if !ok {
		return moodle.EnrolledUser{}, fmt.Errorf("user %d not enrolled in course %d", userID, courseID)
	}
	return user, nil
}

func (s *stubPlatform) GetDiscussionPosts(ctx context.Context, discussionID int64) ([]moodle.Post, error) {
	if s.postsErr != nil {
		return nil, s.postsErr
	}
	return s.posts, nil
}

func (s *stubPlatform) GetCourseContents(ctx context.Context, courseID int64) ([]moodle.Section, error) {
	return s.sections, nil
}

func (s *stubPlatform) GetCourseAssignments(ctx context.Context, courseID int64) ([]moodle.Assignment, error) {
	return s.assignments, nil
}

func (s *stubPlatform) ReplyToPost(ctx context.Context, parentPostID int64, message, subject string) (moodle.Reply, error) {
	s.replies = append(s.replies, postedReply{parentID: parentPostID, message: message, subject: subject})
	return moodle.Reply{PostID: int64(9000 + len(s.replies))}, nil
}

func (s *stubPlatform) DownloadFile(ctx context.Context, fileURL string) ([]byte, error) {
	content, ok := s.files[fileURL]
	if !ok {
		return nil, fmt.Errorf("no file at %s", fileURL)
	}
	return []byte(content), nil
}

var _ Platform = (*stubPlatform)(nil)

type stubEmbedder struct {
	calls [][]string
	err   error
}

func (s *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.calls = append(s.calls, texts)
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, 0, 0}
	}
	return vectors, nil
}

var _ embeddings.Embedder = (*stubEmbedder)(nil)

type stubChat struct {
	answer   string
	err      error
	received [][]llm.Message
}

func (s *stubChat) Generate(ctx context.Context, messages []llm.Message) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.received = append(s.received, messages)
	return s.answer, nil
}

var _ llm.Client = (*stubChat)(nil)

type stubClassifier struct {
	intents []string
	err     error
}

func (s *stubClassifier) Classify(ctx context.Context, question string, catalog []intent.Tag) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.intents, nil
}

var _ Classifier = (*stubClassifier)(nil)

func passthroughExtractor(data []byte) (string, error) {
	return string(data), nil
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func studentUser(id int64) moodle.EnrolledUser {
	return moodle.EnrolledUser{ID: id, Roles: []moodle.Role{{RoleID: 5, ShortName: "student"}}}
}

func teacherUser(id int64) moodle.EnrolledUser {
	return moodle.EnrolledUser{ID: id, Roles: []moodle.Role{{RoleID: 3, ShortName: "editingteacher"}}}
}
