// Package moodle is a typed client for the Moodle web-service REST API.
//
// Every call goes through the site's /webservice/rest/server.php endpoint
// authenticated by a permanent token. Moodle reports failures as HTTP-200
// bodies carrying an "exception" object, so the client inspects every
// response body before decoding it into the caller's type.
package moodle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const restPath = "/webservice/rest/server.php"

// Client talks to one Moodle site on behalf of one token-bound account.
type Client struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewClient builds a client for the given site base URL and token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		endpoint: strings.TrimRight(baseURL, "/") + restPath,
		token:    token,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type wsError struct {
	Exception string `json:"exception"`
	ErrorCode string `json:"errorcode"`
	Message   string `json:"message"`
}

func (c *Client) params(wsfunction string) url.Values {
	values := url.Values{}
	values.Set("wstoken", c.token)
	values.Set("wsfunction", wsfunction)
	values.Set("moodlewsrestformat", "json")
	return values
}

// call performs one web-service request and decodes the response into out.
// post switches between GET with query params and a form-encoded POST.
func (c *Client) call(ctx context.Context, wsfunction string, values url.Values, post bool, out any) error {
	var (
		req *http.Request
		err error
	)
	if post {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(values.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+values.Encode(), nil)
	}
	if err != nil {
		return fmt.Errorf("create %s request: %w", wsfunction, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", wsfunction, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", wsfunction, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d: %s", wsfunction, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	// Moodle signals errors inside a 200 body; only object bodies can carry one.
	if trimmed := strings.TrimLeft(string(body), " \t\r\n"); strings.HasPrefix(trimmed, "{") {
		var wserr wsError
		if unmarshalErr := json.Unmarshal(body, &wserr); unmarshalErr == nil && wserr.Exception != "" {
			return fmt.Errorf("%s failed: %s (%s): %s", wsfunction, wserr.Exception, wserr.ErrorCode, wserr.Message)
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", wsfunction, err)
	}
	return nil
}

// GetSiteInfo returns the identity of the token-bound account. The external
// service must expose core_webservice_get_site_info.
func (c *Client) GetSiteInfo(ctx context.Context) (SiteInfo, error) {
	var info SiteInfo
	if err := c.call(ctx, "core_webservice_get_site_info", c.params("core_webservice_get_site_info"), false, &info); err != nil {
		return SiteInfo{}, err
	}
	return info, nil
}

// GetUserCourses lists the courses the user is enrolled in
// (core_enrol_get_users_courses).
func (c *Client) GetUserCourses(ctx context.Context, userID int64) ([]Course, error) {
	values := c.params("core_enrol_get_users_courses")
	values.Set("userid", strconv.FormatInt(userID, 10))

	var courses []Course
	if err := c.call(ctx, "core_enrol_get_users_courses", values, false, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// GetUserCourseData returns one user's enrollment record, roles included,
// within a course (core_enrol_get_enrolled_users). It fails when the user is
// not enrolled in that course.
func (c *Client) GetUserCourseData(ctx context.Context, courseID, userID int64) (EnrolledUser, error) {
	values := c.params("core_enrol_get_enrolled_users")
	values.Set("courseid", strconv.FormatInt(courseID, 10))

	var users []EnrolledUser
	if err := c.call(ctx, "core_enrol_get_enrolled_users", values, false, &users); err != nil {
		return EnrolledUser{}, err
	}
	for _, user := range users {
		if user.ID == userID {
			return user, nil
		}
	}
	return EnrolledUser{}, fmt.Errorf("user %d not enrolled in course %d", userID, courseID)
}

type discussionPostsResponse struct {
	Posts []Post `json:"posts"`
}

// GetDiscussionPosts returns the flat post list of a discussion, opening post
// included (mod_forum_get_discussion_posts).
func (c *Client) GetDiscussionPosts(ctx context.Context, discussionID int64) ([]Post, error) {
	values := c.params("mod_forum_get_discussion_posts")
	values.Set("discussionid", strconv.FormatInt(discussionID, 10))

	var resp discussionPostsResponse
	if err := c.call(ctx, "mod_forum_get_discussion_posts", values, false, &resp); err != nil {
		return nil, err
	}
	return resp.Posts, nil
}

// GetCourseContents returns the course's sections with their modules and file
// contents (core_course_get_contents).
func (c *Client) GetCourseContents(ctx context.Context, courseID int64) ([]Section, error) {
	values := c.params("core_course_get_contents")
	values.Set("courseid", strconv.FormatInt(courseID, 10))

	var sections []Section
	if err := c.call(ctx, "core_course_get_contents", values, false, &sections); err != nil {
		return nil, err
	}
	return sections, nil
}

type assignmentsResponse struct {
	Courses []struct {
		ID          int64        `json:"id"`
		Assignments []Assignment `json:"assignments"`
	} `json:"courses"`
}

// GetCourseAssignments returns the course's assignments with descriptions and
// intro attachments (mod_assign_get_assignments).
func (c *Client) GetCourseAssignments(ctx context.Context, courseID int64) ([]Assignment, error) {
	values := c.params("mod_assign_get_assignments")
	values.Set("courseids[0]", strconv.FormatInt(courseID, 10))

	var resp assignmentsResponse
	if err := c.call(ctx, "mod_assign_get_assignments", values, false, &resp); err != nil {
		return nil, err
	}
	for _, course := range resp.Courses {
		if course.ID == courseID {
			return course.Assignments, nil
		}
	}
	return nil, nil
}

// ReplyToPost publishes a reply under an existing forum post
// (mod_forum_add_discussion_post). The message is HTML.
func (c *Client) ReplyToPost(ctx context.Context, parentPostID int64, message, subject string) (Reply, error) {
	values := c.params("mod_forum_add_discussion_post")
	values.Set("postid", strconv.FormatInt(parentPostID, 10))
	values.Set("subject", subject)
	values.Set("message", message)
	values.Set("messageformat", "1") // 1 = HTML

	var reply Reply
	if err := c.call(ctx, "mod_forum_add_discussion_post", values, true, &reply); err != nil {
		return Reply{}, err
	}
	if reply.PostID == 0 {
		return Reply{}, fmt.Errorf("mod_forum_add_discussion_post returned no post id")
	}
	return reply, nil
}

// DownloadFile fetches a course file. Moodle file URLs require the token as a
// query parameter, which is appended when missing.
func (c *Client) DownloadFile(ctx context.Context, fileURL string) ([]byte, error) {
	if !strings.Contains(fileURL, "token=") {
		separator := "?"
		if strings.Contains(fileURL, "?") {
			separator = "&"
		}
		fileURL += separator + "token=" + c.token
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create download request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("download returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read downloaded file: %w", err)
	}
	return data, nil
}
