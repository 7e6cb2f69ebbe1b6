package moodle

// SiteInfo identifies the account bound to the web-service token.
type SiteInfo struct {
	UserID   int64  `json:"userid"`
	Username string `json:"username"`
	FullName string `json:"fullname"`
	SiteName string `json:"sitename"`
}

// Course is one course the bound account is enrolled in.
type Course struct {
	ID        int64  `json:"id"`
	ShortName string `json:"shortname"`
	FullName  string `json:"fullname"`
	Visible   int    `json:"visible"`
	Category  int64  `json:"category"`
}

// Author is the author block attached to a forum post.
type Author struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullname"`
}

// Post is a single forum message. HasParent distinguishes a genuine root from
// a post whose parent id simply decoded to zero.
type Post struct {
	ID           int64  `json:"id"`
	Subject      string `json:"subject"`
	Message      string `json:"message"`
	Author       Author `json:"author"`
	DiscussionID int64  `json:"discussionid"`
	HasParent    bool   `json:"hasparent"`
	ParentID     int64  `json:"parentid"`
	TimeCreated  int64  `json:"timecreated"`
}

// Role is one role an enrolled user holds within a course.
type Role struct {
	RoleID    int64  `json:"roleid"`
	ShortName string `json:"shortname"`
}

// EnrolledUser is a course participant with their course roles.
type EnrolledUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullname"`
	Email    string `json:"email"`
	Roles    []Role `json:"roles"`
}

// Content is one file (or URL) attached to a course module.
type Content struct {
	Type     string `json:"type"`
	FileName string `json:"filename"`
	FileURL  string `json:"fileurl"`
	MimeType string `json:"mimetype"`
}

// Module is one resource inside a course section. ID is the course-module id
// (cmid) that assignment records reference.
type Module struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	ModName  string    `json:"modname"`
	Contents []Content `json:"contents"`
}

// Section is one section of a course's content listing.
type Section struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Modules []Module `json:"modules"`
}

// Assignment is a gradable course activity.
type Assignment struct {
	ID          int64     `json:"id"`
	CMID        int64     `json:"cmid"`
	CourseID    int64     `json:"course"`
	Name        string    `json:"name"`
	Intro       string    `json:"intro"`
	Attachments []Content `json:"introattachments"`
}

// Reply is Moodle's acknowledgment of a posted forum reply.
type Reply struct {
	PostID int64 `json:"postid"`
}
