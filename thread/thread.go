// Package thread reconstructs forum discussions into linear conversations.
//
// A discussion arrives as a flat post list; Resolve links replies to their
// parents and enumerates every root-to-leaf path as one Conversation, root
// first. The transformation is pure.
package thread

import "github.com/Nm02/Asistente-Academico-IITA/moodle"

// Message is one post on a conversation path. Roles holds the author's course
// role short names; it stays empty until the caller resolves them.
type Message struct {
	PostID     int64
	AuthorID   int64
	AuthorName string
	Text       string
	Roles      []string
}

// Conversation is one root-to-leaf path through a discussion's reply tree.
type Conversation struct {
	DiscussionID int64
	LastAuthorID int64
	Messages     []Message
}

// Last returns the leaf message, the one a reply would answer.
func (c Conversation) Last() Message {
	return c.Messages[len(c.Messages)-1]
}

// Resolve builds the reply tree from a flat post list and returns every
// root-to-leaf path, depth first, preserving the input order of siblings.
//
// A post whose parent id references a post missing from the list is treated
// as a root rather than dropped. That is a deliberate leniency: forum APIs
// can page or elide deleted posts, and losing the subtree would be worse
// than answering it out of context.
func Resolve(posts []moodle.Post) []Conversation {
	if len(posts) == 0 {
		return nil
	}

	index := make(map[int64]moodle.Post, len(posts))
	for _, post := range posts {
		index[post.ID] = post
	}

	children := make(map[int64][]moodle.Post, len(posts))
	roots := make([]moodle.Post, 0, 1)
	for _, post := range posts {
		if !post.HasParent {
			roots = append(roots, post)
			continue
		}
		if _, ok := index[post.ParentID]; !ok {
			roots = append(roots, post)
			continue
		}
		children[post.ParentID] = append(children[post.ParentID], post)
	}

	var conversations []Conversation
	for _, root := range roots {
		conversations = append(conversations, walk(root, nil, children)...)
	}
	return conversations
}

// walk descends one branch. The path prefix is copied before every append so
// sibling branches never observe each other's in-progress path.
func walk(post moodle.Post, prefix []Message, children map[int64][]moodle.Post) []Conversation {
	path := make([]Message, len(prefix), len(prefix)+1)
	copy(path, prefix)
	path = append(path, Message{
		PostID:     post.ID,
		AuthorID:   post.Author.ID,
		AuthorName: post.Author.FullName,
		Text:       post.Message,
	})

	replies := children[post.ID]
	if len(replies) == 0 {
		return []Conversation{{
			DiscussionID: post.DiscussionID,
			LastAuthorID: post.Author.ID,
			Messages:     path,
		}}
	}

	var conversations []Conversation
	for _, reply := range replies {
		conversations = append(conversations, walk(reply, path, children)...)
	}
	return conversations
}
