package moodle

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	return NewClient(server.URL, "secret-token"), server
}

func TestGetSiteInfo(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("wsfunction"); got != "core_webservice_get_site_info" {
			t.Errorf("unexpected wsfunction %q", got)
		}
		if got := r.URL.Query().Get("wstoken"); got != "secret-token" {
			t.Errorf("unexpected token %q", got)
		}
		fmt.Fprint(w, `{"userid": 7, "username": "asistente", "sitename": "Campus"}`)
	})
	defer server.Close()

	info, err := client.GetSiteInfo(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.UserID != 7 || info.Username != "asistente" {
		t.Fatalf("unexpected site info: %+v", info)
	}
}

func TestCallSurfacesMoodleException(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		// Moodle reports errors inside a 200 body.
		fmt.Fprint(w, `{"exception": "webservice_access_exception", "errorcode": "accessexception", "message": "Acceso denegado"}`)
	})
	defer server.Close()

	if _, err := client.GetSiteInfo(context.Background()); err == nil {
		t.Fatal("expected error from exception payload")
	} else if !strings.Contains(err.Error(), "webservice_access_exception") {
		t.Fatalf("expected exception name in error, got %v", err)
	}
}

func TestGetUserCourseDataFindsUserRoles(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"id": 30, "fullname": "Ana", "roles": [{"roleid": 5, "shortname": "student"}]},
			{"id": 31, "fullname": "Profe", "roles": [{"roleid": 3, "shortname": "editingteacher"}]}
		]`)
	})
	defer server.Close()

	user, err := client.GetUserCourseData(context.Background(), 5, 31)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(user.Roles) != 1 || user.Roles[0].ShortName != "editingteacher" {
		t.Fatalf("unexpected roles: %+v", user.Roles)
	}

	if _, err := client.GetUserCourseData(context.Background(), 5, 99); err == nil {
		t.Fatal("expected error for user absent from the course")
	}
}

func TestGetDiscussionPosts(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"posts": [
			{"id": 1, "message": "hola", "author": {"id": 30, "fullname": "Ana"}, "discussionid": 77, "hasparent": false, "parentid": null},
			{"id": 2, "message": "respuesta", "author": {"id": 31, "fullname": "Profe"}, "discussionid": 77, "hasparent": true, "parentid": 1}
		]}`)
	})
	defer server.Close()

	posts, err := client.GetDiscussionPosts(context.Background(), 77)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}
	if posts[0].HasParent || posts[0].ParentID != 0 {
		t.Fatalf("expected null parent decoded as root, got %+v", posts[0])
	}
	if !posts[1].HasParent || posts[1].ParentID != 1 {
		t.Fatalf("unexpected reply post: %+v", posts[1])
	}
}

func TestReplyToPost(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.PostForm.Get("postid"); got != "42" {
			t.Errorf("unexpected postid %q", got)
		}
		if got := r.PostForm.Get("messageformat"); got != "1" {
			t.Errorf("expected HTML message format, got %q", got)
		}
		fmt.Fprint(w, `{"postid": 43}`)
	})
	defer server.Close()

	reply, err := client.ReplyToPost(context.Background(), 42, "<p>hola</p>", "Re:")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.PostID != 43 {
		t.Fatalf("unexpected reply id %d", reply.PostID)
	}
}

func TestReplyToPostRequiresPostID(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"warnings": []}`)
	})
	defer server.Close()

	if _, err := client.ReplyToPost(context.Background(), 42, "hola", "Re:"); err == nil {
		t.Fatal("expected error when Moodle returns no post id")
	}
}

func TestDownloadFileAppendsToken(t *testing.T) {
	var gotToken string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.URL.Query().Get("token")
		fmt.Fprint(w, "pdf-bytes")
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret-token")
	data, err := client.DownloadFile(context.Background(), server.URL+"/pluginfile.php/1/file.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "pdf-bytes" {
		t.Fatalf("unexpected payload %q", data)
	}
	if gotToken != "secret-token" {
		t.Fatalf("expected token appended to file url, got %q", gotToken)
	}
}

func TestGetCourseAssignments(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("courseids[0]"); got != "5" {
			t.Errorf("unexpected courseids param %q", got)
		}
		fmt.Fprint(w, `{"courses": [
			{"id": 5, "assignments": [{"id": 1, "cmid": 101, "course": 5, "name": "TP1", "intro": "consigna"}]}
		]}`)
	})
	defer server.Close()

	assignments, err := client.GetCourseAssignments(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(assignments) != 1 || assignments[0].Name != "TP1" || assignments[0].CMID != 101 {
		t.Fatalf("unexpected assignments: %+v", assignments)
	}
}
