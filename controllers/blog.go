package controllers

import (
	"hub/services"

	"github.com/gin-gonic/gin"
)

// GET /api/blog/articles?status=&section=&author=&search=&from=&to=
func GetArticles(c *gin.Context) {
	var f services.ArticleFilters
	if err := c.ShouldBindQuery(&f); err != nil {
		RespondErr(c, services.ErrInvalid)
		return
	}
	page, perPage := Paging(c)
	list, err := ServicesInstance(c).Blog.List(c.Request.Context(), f, page, perPage)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, list)
}

func GetArticle(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	article, err := ServicesInstance(c).Blog.Get(c.Request.Context(), id)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, article)
}

func canPublish(c *gin.Context) bool {
	access, err := GetAccess(c)
	return err == nil && access.Can(services.PERM_BLOG_PUBLISH)
}

func CreateArticle(c *gin.Context) {
	var in services.ArticleInput
	if !Bind(c, &in) {
		return
	}
	article, err := ServicesInstance(c).Blog.Create(c.Request.Context(), ActorFrom(c), in, canPublish(c))
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondCreated(c, article)
}

func UpdateArticle(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var in services.ArticleInput
	if !Bind(c, &in) {
		return
	}
	article, err := ServicesInstance(c).Blog.Update(c.Request.Context(), ActorFrom(c), id, in, canPublish(c))
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, article)
}

func DeleteArticle(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	if err := ServicesInstance(c).Blog.Delete(c.Request.Context(), ActorFrom(c), id); err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, true)
}

func GetBlogMetadata(c *gin.Context) {
	meta, err := ServicesInstance(c).Blog.Metadata(c.Request.Context())
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, meta)
}

func GetBlogStats(c *gin.Context) {
	stats, err := ServicesInstance(c).Blog.Stats(c.Request.Context())
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, stats)
}
