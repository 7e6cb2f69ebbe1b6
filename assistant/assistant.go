// Package assistant implements the forum-response pipeline: it decides
// whether a conversation deserves a reply, assembles a grounding context from
// course material, and generates and posts the answer.
package assistant

import (
	"context"

	"github.com/Nm02/Asistente-Academico-IITA/intent"
	"github.com/Nm02/Asistente-Academico-IITA/moodle"
)

// Platform is the learning-platform capability the pipeline consumes. The
// moodle.Client satisfies it; tests stub it.
type Platform interface {
	GetSiteInfo(ctx context.Context) (moodle.SiteInfo, error)
	GetUserCourses(ctx context.Context, userID int64) ([]moodle.Course, error)
	GetUserCourseData(ctx context.Context, courseID, userID int64) (moodle.EnrolledUser, error)
	GetDiscussionPosts(ctx context.Context, discussionID int64) ([]moodle.Post, error)
	GetCourseContents(ctx context.Context, courseID int64) ([]moodle.Section, error)
	GetCourseAssignments(ctx context.Context, courseID int64) ([]moodle.Assignment, error)
	ReplyToPost(ctx context.Context, parentPostID int64, message, subject string) (moodle.Reply, error)
	DownloadFile(ctx context.Context, fileURL string) ([]byte, error)
}

var _ Platform = (*moodle.Client)(nil)

// Classifier matches a question against the intent catalog.
type Classifier interface {
	Classify(ctx context.Context, question string, catalog []intent.Tag) ([]string, error)
}

var _ Classifier = (*intent.Classifier)(nil)

// Extractor converts a downloaded binary document into plain text.
type Extractor func(data []byte) (string, error)

// Intent tag names the pipeline branches on.
const (
	IntentActivity = "consulta de actividad"
	IntentContent  = "consulta de contenido"
	IntentGeneral  = "consulta general"
)

// DefaultCatalog is the intent catalog used to classify student questions.
func DefaultCatalog() []intent.Tag {
	return []intent.Tag{
		{Name: IntentActivity, Description: "el alumno pregunta por una actividad, tarea o entrega del curso (consignas, fechas, requisitos)"},
		{Name: IntentContent, Description: "el alumno pregunta por el contenido teorico o el material de estudio del curso"},
		{Name: IntentGeneral, Description: "consulta general sobre el curso que no refiere a una actividad ni a un contenido puntual"},
	}
}

func hasIntent(intents []string, name string) bool {
	for _, candidate := range intents {
		if candidate == name {
			return true
		}
	}
	return false
}

// soleIntent reports whether name is the only matched intent.
func soleIntent(intents []string, name string) bool {
	return len(intents) == 1 && intents[0] == name
}
