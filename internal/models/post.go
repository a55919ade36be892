// Package models contains the data structures exchanged with the social API.
package models

import "time"

// Media is an image attached to a post or used as an avatar/banner.
type Media struct {
	URL string `json:"url" yaml:"url"`
	Alt string `json:"alt,omitempty" yaml:"alt,omitempty"`
}

// Author is the subset of a profile embedded in a post when `_author=true`.
type Author struct {
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Avatar *Media `json:"avatar,omitempty"`
}

// PostCount holds the counters the API attaches to posts.
type PostCount struct {
	Comments  int `json:"comments"`
	Reactions int `json:"reactions"`
}

// Post represents a post as returned by the social API. It is never mutated
// by the client; display representations are rebuilt from it.
type Post struct {
	ID      int        `json:"id"`
	Title   string     `json:"title"`
	Body    *string    `json:"body,omitempty"`
	Tags    []string   `json:"tags"`
	Media   *Media     `json:"media,omitempty"`
	Created time.Time  `json:"created"`
	Updated *time.Time `json:"updated,omitempty"`
	Author  *Author    `json:"author,omitempty"`
	Count   *PostCount `json:"_count,omitempty"`
}

// BodyText returns the post body or an empty string when absent.
func (p Post) BodyText() string {
	if p.Body == nil {
		return ""
	}
	return *p.Body
}

// PaginationMetadata is the paging summary that accompanies list responses.
// The server's copy is authoritative.
type PaginationMetadata struct {
	IsFirstPage  bool `json:"isFirstPage"`
	IsLastPage   bool `json:"isLastPage"`
	CurrentPage  int  `json:"currentPage"`
	PreviousPage *int `json:"previousPage"`
	NextPage     *int `json:"nextPage"`
	PageCount    int  `json:"pageCount"`
	TotalCount   int  `json:"totalCount"`
}

// PostPage is one page of posts plus its pagination metadata.
type PostPage struct {
	Data []Post              `json:"data"`
	Meta *PaginationMetadata `json:"meta"`
}

// PostInput carries the writable fields of a post. Nil/empty fields are
// omitted on update.
type PostInput struct {
	Title string   `json:"title,omitempty"`
	Body  string   `json:"body,omitempty"`
	Tags  []string `json:"tags,omitempty"`
	Media *Media   `json:"media,omitempty"`
}

// ProfileCount holds the counters the API attaches to profiles.
type ProfileCount struct {
	Posts     int `json:"posts"`
	Followers int `json:"followers"`
	Following int `json:"following"`
}

// Profile is a user's public identity record.
type Profile struct {
	Name   string        `json:"name"`
	Email  string        `json:"email"`
	Bio    string        `json:"bio,omitempty"`
	Avatar *Media        `json:"avatar,omitempty"`
	Banner *Media        `json:"banner,omitempty"`
	Count  *ProfileCount `json:"_count,omitempty"`
}

// SessionUser is the user record kept alongside the bearer credential.
type SessionUser struct {
	Name   string `json:"name" yaml:"name"`
	Email  string `json:"email" yaml:"email"`
	Avatar *Media `json:"avatar,omitempty" yaml:"avatar,omitempty"`
}

// RegisterInput is the payload of a registration request.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Avatar   *Media `json:"avatar,omitempty"`
}

// IntPtr returns a pointer to v. Handy for building metadata literals.
func IntPtr(v int) *int {
	return &v
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
