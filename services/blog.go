package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"hub/filter"
	"hub/models"
	"hub/store"
	"hub/tools"
)

type ArticleFilters struct {
	Status  string `form:"status"`
	Section string `form:"section"`
	Author  string `form:"author"`
	Search  string `form:"search"`
	From    string `form:"from"` // YYYY-MM-DD on published_date
	To      string `form:"to"`
}

type ArticleInput struct {
	Title         string   `json:"title"`
	Slug          string   `json:"slug"`
	Summary       string   `json:"summary"`
	Content       string   `json:"content"`
	Status        string   `json:"status"`
	PublishedDate string   `json:"published_date"`
	VideoLink     string   `json:"video_link"`
	Sections      []string `json:"sections"`
	Platforms     []string `json:"platforms"`
	Author        []string `json:"author"`
	Tags          []string `json:"tags"`
	ScheduledFor  string   `json:"scheduled_for"`
}

type BlogMetadata struct {
	Sections []models.BlogSection `json:"sections"`
	Authors  []models.BlogAuthor  `json:"authors"`
	Tags     []models.BlogTag     `json:"tags"`
}

var articleExpand = []string{"author", "tags", "sections", "last_edited_by"}

type BlogService struct {
	store store.Store
	audit Auditor
	now   func() time.Time
}

func NewBlogService(st store.Store, audit Auditor) *BlogService {
	return &BlogService{store: st, audit: audit, now: time.Now}
}

func (f ArticleFilters) expr() filter.Expr {
	var conds []filter.Expr
	if given(f.Status) {
		conds = append(conds, filter.Eq("status", f.Status))
	}
	if given(f.Section) {
		conds = append(conds, filter.Eq("sections", f.Section))
	}
	if given(f.Author) {
		conds = append(conds, filter.Eq("author", f.Author))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		conds = append(conds, filter.Or(filter.Like("title", s), filter.Like("summary", s)))
	}
	if given(f.From) {
		conds = append(conds, filter.Gte("published_date", strings.TrimSpace(f.From)+" 00:00:00"))
	}
	if given(f.To) {
		conds = append(conds, filter.Lte("published_date", strings.TrimSpace(f.To)+" 23:59:59.999Z"))
	}
	return filter.And(conds...)
}

func (s *BlogService) List(ctx context.Context, f ArticleFilters, page, perPage int) (*store.Page, error) {
	return s.store.List(ctx, models.COLLECTION_BLOG_ARTICLES, store.Query{
		Filter:  f.expr(),
		Sort:    "-published_date",
		Page:    page,
		PerPage: perPage,
		Expand:  articleExpand,
	})
}

func (s *BlogService) Get(ctx context.Context, id string) (models.Article, error) {
	var a models.Article
	rec, err := s.store.Get(ctx, models.COLLECTION_BLOG_ARTICLES, id, articleExpand...)
	if err != nil {
		return a, translate(err, "artículo")
	}
	err = rec.Decode(&a)
	return a, err
}

// record builds a new article from in, filling status, slug and the
// publication date.
func (s *BlogService) record(in ArticleInput, editor string) (models.Record, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, invalid("el título es obligatorio")
	}
	if in.Status == "" {
		in.Status = models.BLOG_STATUS_DRAFT
	}
	if !models.IsBlogStatus(in.Status) {
		return nil, invalid("estado inválido: %s", in.Status)
	}
	if in.Slug = strings.TrimSpace(in.Slug); in.Slug == "" {
		in.Slug = tools.URLSlug(in.Title)
	}
	if in.PublishedDate != "" {
		t := models.ParseTime(in.PublishedDate)
		if t.IsZero() {
			return nil, invalid("fecha de publicación inválida")
		}
		in.PublishedDate = models.FormatTime(t)
	} else if in.Status == models.BLOG_STATUS_PUBLISHED {
		in.PublishedDate = models.FormatTime(s.now())
	}
	rec := models.Record{
		"title":          in.Title,
		"slug":           in.Slug,
		"summary":        in.Summary,
		"content":        in.Content,
		"status":         in.Status,
		"published_date": in.PublishedDate,
		"video_link":     in.VideoLink,
		"sections":       emptyIfNil(in.Sections),
		"platforms":      emptyIfNil(in.Platforms),
		"author":         emptyIfNil(in.Author),
		"tags":           emptyIfNil(in.Tags),
		"scheduled_for":  in.ScheduledFor,
		"last_edited_by": editor,
	}
	return rec, nil
}

func emptyIfNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

// Create stores a new article. Publishing needs canPublish.
func (s *BlogService) Create(ctx context.Context, actor Actor, in ArticleInput, canPublish bool) (models.Article, error) {
	if in.Status == models.BLOG_STATUS_PUBLISHED && !canPublish {
		return models.Article{}, forbidden("no tenés permiso para publicar artículos")
	}
	rec, err := s.record(in, actor.UserID)
	if err != nil {
		return models.Article{}, err
	}
	created, err := s.store.Create(ctx, models.COLLECTION_BLOG_ARTICLES, rec)
	if err != nil {
		return models.Article{}, translate(err, "artículo")
	}
	s.audit.Log(ctx, actor.entry(models.AUDIT_ACTION_CREATE, models.COLLECTION_BLOG_ARTICLES, created.ID(), map[string]any{"title": rec["title"], "status": rec["status"]}))
	return s.Get(ctx, created.ID())
}

// Update applies the fields present in in: non-empty strings and non-nil
// lists. An explicit empty list clears that relation.
func (s *BlogService) Update(ctx context.Context, actor Actor, id string, in ArticleInput, canPublish bool) (models.Article, error) {
	current, err := s.store.Get(ctx, models.COLLECTION_BLOG_ARTICLES, id)
	if err != nil {
		return models.Article{}, translate(err, "artículo")
	}
	patch := models.Record{"last_edited_by": actor.UserID}

	status := current.String("status")
	if in.Status != "" {
		if !models.IsBlogStatus(in.Status) {
			return models.Article{}, invalid("estado inválido: %s", in.Status)
		}
		status = in.Status
		patch["status"] = status
	}
	publishing := status == models.BLOG_STATUS_PUBLISHED && current.String("status") != models.BLOG_STATUS_PUBLISHED
	if publishing && !canPublish {
		return models.Article{}, forbidden("no tenés permiso para publicar artículos")
	}

	if in.Title != "" {
		title := strings.TrimSpace(in.Title)
		if title == "" {
			return models.Article{}, invalid("el título es obligatorio")
		}
		patch["title"] = title
	}
	if slug := strings.TrimSpace(in.Slug); slug != "" {
		patch["slug"] = slug
	}
	if in.PublishedDate != "" {
		t := models.ParseTime(in.PublishedDate)
		if t.IsZero() {
			return models.Article{}, invalid("fecha de publicación inválida")
		}
		patch["published_date"] = models.FormatTime(t)
	} else if publishing {
		patch["published_date"] = models.FormatTime(s.now())
	}
	for key, v := range map[string]string{
		"summary":       in.Summary,
		"content":       in.Content,
		"video_link":    in.VideoLink,
		"scheduled_for": in.ScheduledFor,
	} {
		if v != "" {
			patch[key] = v
		}
	}
	for key, v := range map[string][]string{
		"sections":  in.Sections,
		"platforms": in.Platforms,
		"author":    in.Author,
		"tags":      in.Tags,
	} {
		if v != nil {
			patch[key] = v
		}
	}

	updated, err := s.store.Update(ctx, models.COLLECTION_BLOG_ARTICLES, id, patch)
	if err != nil {
		return models.Article{}, translate(err, "artículo")
	}
	s.audit.Log(ctx, actor.entry(models.AUDIT_ACTION_UPDATE, models.COLLECTION_BLOG_ARTICLES, id, map[string]any{
		"title":       updated.String("title"),
		"from_status": current.String("status"),
		"to_status":   status,
	}))
	return s.Get(ctx, id)
}

func (s *BlogService) Delete(ctx context.Context, actor Actor, id string) error {
	if err := s.store.Delete(ctx, models.COLLECTION_BLOG_ARTICLES, id); err != nil {
		return translate(err, "artículo")
	}
	s.audit.Log(ctx, actor.entry(models.AUDIT_ACTION_DELETE, models.COLLECTION_BLOG_ARTICLES, id, nil))
	return nil
}

func (s *BlogService) Metadata(ctx context.Context) (*BlogMetadata, error) {
	sections, err := s.store.FullList(ctx, models.COLLECTION_BLOG_SECTIONS, store.Query{Sort: "Seccion"})
	if err != nil {
		return nil, err
	}
	authors, err := s.store.FullList(ctx, models.COLLECTION_BLOG_AUTHORS, store.Query{Sort: "first_name"})
	if err != nil {
		return nil, err
	}
	tags, err := s.store.FullList(ctx, models.COLLECTION_BLOG_TAGS, store.Query{Sort: "name"})
	if err != nil {
		return nil, err
	}
	out := &BlogMetadata{}
	if out.Sections, err = models.DecodeAll[models.BlogSection](sections); err != nil {
		return nil, err
	}
	if out.Authors, err = models.DecodeAll[models.BlogAuthor](authors); err != nil {
		return nil, err
	}
	if out.Tags, err = models.DecodeAll[models.BlogTag](tags); err != nil {
		return nil, err
	}
	return out, nil
}

// Stats aggregates every article in one pass, including the draft and
// published totals shown by the KPI widget.
func (s *BlogService) Stats(ctx context.Context) (*models.BlogStats, error) {
	articles, err := s.store.FullList(ctx, models.COLLECTION_BLOG_ARTICLES, store.Query{Expand: []string{"author", "sections"}})
	if err != nil {
		return nil, err
	}
	sections, err := s.store.FullList(ctx, models.COLLECTION_BLOG_SECTIONS, store.Query{})
	if err != nil {
		return nil, err
	}
	sectionNames := map[string]string{}
	for _, sec := range sections {
		sectionNames[sec.ID()] = sec.String("Seccion")
	}

	stats := &models.BlogStats{ByStatus: map[string]int{}, BySection: []models.SectionCount{}, TopAuthors: []models.AuthorCount{}}
	for _, st := range models.BlogStatuses {
		stats.ByStatus[st] = 0
	}
	now := s.now()
	weekAgo, monthAgo := now.AddDate(0, 0, -7), now.AddDate(0, 0, -30)
	bySection := map[string]int{}
	var sectionOrder []string
	byAuthor := map[string]*models.AuthorCount{}
	var authorOrder []string

	for _, a := range articles {
		stats.Total++
		switch a.String("status") {
		case models.BLOG_STATUS_DRAFT:
			stats.Drafts++
		case models.BLOG_STATUS_PUBLISHED:
			stats.Published++
		}
		stats.ByStatus[a.String("status")]++

		if created := a.Time("created"); !created.IsZero() {
			if created.After(weekAgo) {
				stats.RecentActivity.LastWeek++
			}
			if created.After(monthAgo) {
				stats.RecentActivity.LastMonth++
			}
		}

		secs := a.Strings("sections")
		if len(secs) == 0 {
			secs = []string{""}
		}
		for _, id := range secs {
			if _, ok := bySection[id]; !ok {
				sectionOrder = append(sectionOrder, id)
			}
			bySection[id]++
		}

		authors := a.ExpandList("author")
		if len(authors) == 0 {
			for _, id := range a.Strings("author") {
				authors = append(authors, models.Record{"id": id})
			}
		}
		for _, au := range authors {
			id := au.ID()
			c, ok := byAuthor[id]
			if !ok {
				name := strings.TrimSpace(au.String("first_name") + " " + au.String("last_name"))
				if name == "" {
					name = "Desconocido"
				}
				c = &models.AuthorCount{AuthorID: id, AuthorName: name}
				byAuthor[id] = c
				authorOrder = append(authorOrder, id)
			}
			c.Count++
		}
	}

	for _, id := range sectionOrder {
		name := "Sin sección"
		if id != "" {
			if n, ok := sectionNames[id]; ok && n != "" {
				name = n
			} else {
				name = id
			}
		}
		stats.BySection = append(stats.BySection, models.SectionCount{SectionID: id, SectionName: name, Count: bySection[id]})
	}
	sort.SliceStable(stats.BySection, func(i, j int) bool { return stats.BySection[i].Count > stats.BySection[j].Count })

	for _, id := range authorOrder {
		stats.TopAuthors = append(stats.TopAuthors, *byAuthor[id])
	}
	sort.SliceStable(stats.TopAuthors, func(i, j int) bool { return stats.TopAuthors[i].Count > stats.TopAuthors[j].Count })
	if len(stats.TopAuthors) > 5 {
		stats.TopAuthors = stats.TopAuthors[:5]
	}
	return stats, nil
}
