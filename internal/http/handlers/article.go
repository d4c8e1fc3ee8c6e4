package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/autocrm-backend/internal/domain/knowledge"
	"github.com/yungbote/autocrm-backend/internal/http/response"
	"github.com/yungbote/autocrm-backend/internal/platform/logger"
	"github.com/yungbote/autocrm-backend/internal/services"
)

type ArticleHandler struct {
	log      *logger.Logger
	articles services.ArticleService
}

func NewArticleHandler(log *logger.Logger, articles services.ArticleService) *ArticleHandler {
	return &ArticleHandler{log: log.With("handler", "ArticleHandler"), articles: articles}
}

type createArticleReq struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
	Status  string   `json:"status"`
	AutoTag bool     `json:"auto_tag"`
}

type updateArticleReq struct {
	Title   *string   `json:"title"`
	Content *string   `json:"content"`
	Tags    *[]string `json:"tags"`
	Status  *string   `json:"status"`
}

// GET /api/articles?status=&limit=&offset=
func (h *ArticleHandler) List(c *gin.Context) {
	list, err := h.articles.List(c.Request.Context(), services.ListArticlesInput{
		Status: knowledge.ArticleStatus(c.Query("status")),
		Limit:  queryInt(c, "limit", 50),
		Offset: queryInt(c, "offset", 0),
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"articles": list})
}

// POST /api/articles
func (h *ArticleHandler) Create(c *gin.Context) {
	var req createArticleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	a, err := h.articles.Create(c.Request.Context(), services.CreateArticleInput{
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
		Status:  knowledge.ArticleStatus(req.Status),
		AutoTag: req.AutoTag,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"article": a})
}

// GET /api/articles/:id
func (h *ArticleHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	a, err := h.articles.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"article": a})
}

// PATCH /api/articles/:id
func (h *ArticleHandler) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	var req updateArticleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	in := services.UpdateArticleInput{Title: req.Title, Content: req.Content, Tags: req.Tags}
	if req.Status != nil {
		st := knowledge.ArticleStatus(*req.Status)
		in.Status = &st
	}
	a, err := h.articles.Update(c.Request.Context(), id, in)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"article": a})
}

// DELETE /api/articles/:id
func (h *ArticleHandler) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	if err := h.articles.Delete(c.Request.Context(), id); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/articles/search?q=&limit=
func (h *ArticleHandler) Search(c *gin.Context) {
	results, err := h.articles.Search(c.Request.Context(), c.Query("q"), queryInt(c, "limit", 5))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"results": results})
}

// =========================
// Knowledge index maintenance
// =========================

type KnowledgeHandler struct {
	log      *logger.Logger
	articles services.ArticleService
}

func NewKnowledgeHandler(log *logger.Logger, articles services.ArticleService) *KnowledgeHandler {
	return &KnowledgeHandler{log: log.With("handler", "KnowledgeHandler"), articles: articles}
}

type syncResponse struct {
	Success        bool     `json:"success"`
	Message        string   `json:"message"`
	TotalProcessed int      `json:"totalProcessed"`
	Deleted        int      `json:"deleted"`
	FullReplace    bool     `json:"fullReplace"`
	FailedBatches  []int    `json:"failedBatches,omitempty"`
	Errors         []string `json:"errors,omitempty"`
}

// POST /api/knowledge/sync
func (h *KnowledgeHandler) Sync(c *gin.Context) {
	report, err := h.articles.Sync(c.Request.Context())
	if err != nil {
		h.log.Error("Knowledge sync failed", "error", err)
		response.RespondFlatError(c, http.StatusInternalServerError, "Failed to sync knowledge base")
		return
	}
	out := syncResponse{
		Success:        report.OK(),
		Message:        "Knowledge base synced",
		TotalProcessed: report.TotalProcessed,
		Deleted:        report.Deleted,
		FullReplace:    report.FullReplace,
		FailedBatches:  report.FailedBatches,
		Errors:         report.Errors,
	}
	if !out.Success {
		out.Message = "Knowledge base synced with errors"
	}
	response.RespondOK(c, out)
}

// GET /api/knowledge/stats
func (h *KnowledgeHandler) Stats(c *gin.Context) {
	stats, err := h.articles.Stats(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, stats)
}
