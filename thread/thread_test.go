package thread

import (
	"testing"

	"github.com/Nm02/Asistente-Academico-IITA/moodle"
)

func post(id, parentID, authorID int64, text string) moodle.Post {
	return moodle.Post{
		ID:           id,
		Message:      text,
		Author:       moodle.Author{ID: authorID, FullName: "User"},
		DiscussionID: 77,
		HasParent:    parentID != 0,
		ParentID:     parentID,
	}
}

func pathIDs(conversation Conversation) []int64 {
	ids := make([]int64, len(conversation.Messages))
	for i, message := range conversation.Messages {
		ids[i] = message.PostID
	}
	return ids
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestResolveSinglePostDiscussion(t *testing.T) {
	conversations := Resolve([]moodle.Post{post(1, 0, 10, "hola")})

	if len(conversations) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(conversations))
	}
	if len(conversations[0].Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(conversations[0].Messages))
	}
	if conversations[0].LastAuthorID != 10 {
		t.Fatalf("expected last author 10, got %d", conversations[0].LastAuthorID)
	}
	if conversations[0].DiscussionID != 77 {
		t.Fatalf("expected discussion 77, got %d", conversations[0].DiscussionID)
	}
}

func TestResolveOneConversationPerLeaf(t *testing.T) {
	// 1 -> {2 -> 4, 3}: leaves are 4 and 3.
	posts := []moodle.Post{
		post(1, 0, 10, "root"),
		post(2, 1, 11, "first reply"),
		post(3, 1, 12, "second reply"),
		post(4, 2, 10, "nested"),
	}

	conversations := Resolve(posts)
	if len(conversations) != 2 {
		t.Fatalf("expected 2 conversations (one per leaf), got %d", len(conversations))
	}

	if !equalIDs(pathIDs(conversations[0]), []int64{1, 2, 4}) {
		t.Fatalf("unexpected first path: %v", pathIDs(conversations[0]))
	}
	if !equalIDs(pathIDs(conversations[1]), []int64{1, 3}) {
		t.Fatalf("unexpected second path: %v", pathIDs(conversations[1]))
	}
}

func TestResolveSiblingPathsDoNotLeak(t *testing.T) {
	// Deep first branch followed by a short sibling: the sibling path must
	// not carry any message from the first branch.
	posts := []moodle.Post{
		post(1, 0, 10, "root"),
		post(2, 1, 11, "branch a"),
		post(3, 2, 12, "branch a deep"),
		post(4, 1, 13, "branch b"),
	}

	conversations := Resolve(posts)
	if len(conversations) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(conversations))
	}
	if !equalIDs(pathIDs(conversations[1]), []int64{1, 4}) {
		t.Fatalf("sibling branch leaked into path: %v", pathIDs(conversations[1]))
	}
}

func TestResolveOrphanParentBecomesRoot(t *testing.T) {
	posts := []moodle.Post{
		post(1, 0, 10, "root"),
		post(2, 999, 11, "orphan"),
	}

	conversations := Resolve(posts)
	if len(conversations) != 2 {
		t.Fatalf("expected orphan to survive as its own root, got %d conversations", len(conversations))
	}
	if conversations[1].Messages[0].PostID != 2 {
		t.Fatalf("expected orphan as root of second conversation, got post %d", conversations[1].Messages[0].PostID)
	}
}

func TestResolveThreeMessageChain(t *testing.T) {
	// P0 (author A) <- P1 (author B) <- P2 (author A): one conversation,
	// last author is A.
	posts := []moodle.Post{
		post(1, 0, 10, "P0"),
		post(2, 1, 20, "P1"),
		post(3, 2, 10, "P2"),
	}

	conversations := Resolve(posts)
	if len(conversations) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(conversations))
	}
	if !equalIDs(pathIDs(conversations[0]), []int64{1, 2, 3}) {
		t.Fatalf("unexpected path: %v", pathIDs(conversations[0]))
	}
	if conversations[0].LastAuthorID != 10 {
		t.Fatalf("expected last author 10, got %d", conversations[0].LastAuthorID)
	}
	if conversations[0].Last().PostID != 3 {
		t.Fatalf("expected leaf post 3, got %d", conversations[0].Last().PostID)
	}
}

func TestResolveEmptyInput(t *testing.T) {
	if conversations := Resolve(nil); conversations != nil {
		t.Fatalf("expected no conversations, got %d", len(conversations))
	}
}
