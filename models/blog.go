package models

/************************************************
/**** MARK: ARTICLE STATUS ****/
/************************************************/
const BLOG_STATUS_DRAFT = "borrador"
const BLOG_STATUS_REVIEW = "en_revision"
const BLOG_STATUS_PUBLISHED = "publicado"
const BLOG_STATUS_ARCHIVED = "archivado"

var BlogStatuses = []string{BLOG_STATUS_DRAFT, BLOG_STATUS_REVIEW, BLOG_STATUS_PUBLISHED, BLOG_STATUS_ARCHIVED}

func IsBlogStatus(s string) bool {
	for _, st := range BlogStatuses {
		if st == s {
			return true
		}
	}
	return false
}

type Article struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Slug          string         `json:"slug"`
	Summary       string         `json:"summary"`
	Content       string         `json:"content"`
	Status        string         `json:"status"`
	PublishedDate string         `json:"published_date"`
	CoverImage    string         `json:"cover_image"`
	VideoLink     string         `json:"video_link"`
	Sections      []string       `json:"sections"`
	Platforms     []string       `json:"platforms"`
	Author        []string       `json:"author"`
	Tags          []string       `json:"tags"`
	LastEditedBy  string         `json:"last_edited_by"`
	ScheduledFor  string         `json:"scheduled_for"`
	Created       string         `json:"created"`
	Updated       string         `json:"updated"`
	Expand        map[string]any `json:"expand,omitempty"`
}

type BlogSection struct {
	ID      string `json:"id"`
	Seccion string `json:"Seccion"`
}

type BlogAuthor struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type BlogTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type SectionCount struct {
	SectionID   string `json:"sectionId"`
	SectionName string `json:"sectionName"`
	Count       int    `json:"count"`
}

type AuthorCount struct {
	AuthorID   string `json:"authorId"`
	AuthorName string `json:"authorName"`
	Count      int    `json:"count"`
}

type BlogStats struct {
	Total          int            `json:"total"`
	Drafts         int            `json:"drafts"`
	Published      int            `json:"published"`
	ByStatus       map[string]int `json:"byStatus"`
	BySection      []SectionCount `json:"bySection"`
	RecentActivity struct {
		LastWeek  int `json:"lastWeek"`
		LastMonth int `json:"lastMonth"`
	} `json:"recentActivity"`
	TopAuthors []AuthorCount `json:"topAuthors"`
}
