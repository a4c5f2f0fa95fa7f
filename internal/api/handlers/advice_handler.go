package handlers

import (
	"io"
	"net/http"

	"github.com/markdave123-py/ChatbotX/internal/core"
	"github.com/markdave123-py/ChatbotX/internal/core/market"
	"github.com/markdave123-py/ChatbotX/internal/services"
)

type AdviceHandler struct {
	advisory  *services.AdvisoryService
	gateway   *market.Gateway
	articles  *services.ArticleService
	maxUpload int64
}

func NewAdviceHandler(advisory *services.AdvisoryService, gateway *market.Gateway, articles *services.ArticleService, maxUploadBytes int64) *AdviceHandler {
	return &AdviceHandler{advisory: advisory, gateway: gateway, articles: articles, maxUpload: maxUploadBytes}
}

type portfolioRequest struct {
	PortfolioValue *float64 `json:"portfolioValue" validate:"omitempty,gte=0"`
	RiskProfile    string   `json:"riskProfile" validate:"required,max=100"`
}

type summarizeRequest struct {
	Text string `json:"text" validate:"required"`
}

type summarizeArchivedRequest struct {
	ArchiveKey string `json:"archiveKey" validate:"required"`
}

// Portfolio recommends an allocation using the top performers as the market
// conditions snapshot.
func (h *AdviceHandler) Portfolio(w http.ResponseWriter, r *http.Request) {
	var req portfolioRequest
	if err := decodeAndValidate(r, &req, "Invalid portfolio data"); err != nil {
		RespondErr(w, r, err)
		return
	}

	rec, err := h.advisory.RecommendPortfolio(r.Context(), services.PortfolioRequest{
		PortfolioValue:   req.PortfolioValue,
		RiskProfile:      req.RiskProfile,
		MarketConditions: h.gateway.TopPerformers(r.Context()),
	})
	if err != nil {
		RespondErr(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"recommendation": rec})
}

func (h *AdviceHandler) SummarizeArticle(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if err := decodeAndValidate(r, &req, "Text is required"); err != nil {
		RespondErr(w, r, err)
		return
	}
	summary, err := h.articles.SummarizeText(r.Context(), req.Text)
	if err != nil {
		RespondErr(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, services.ArticleSummary{Summary: summary})
}

// UploadArticle accepts a multipart "file" field no larger than maxUpload.
func (h *AdviceHandler) UploadArticle(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		RespondErr(w, r, &core.ValidationError{
			Message: "invalid upload",
			Fields:  map[string]string{"file": "max size or malformed form"},
		})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		RespondErr(w, r, &core.ValidationError{
			Message: "invalid file",
			Fields:  map[string]string{"file": "required"},
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		RespondErr(w, r, &core.ValidationError{Message: "invalid file", Fields: map[string]string{"file": "unreadable"}})
		return
	}

	out, err := h.articles.SummarizeUpload(r.Context(), userID, header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		RespondErr(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, out)
}

// SummarizeArchived re-summarizes one of the caller's archived uploads.
func (h *AdviceHandler) SummarizeArchived(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r)
	if !ok {
		return
	}
	var req summarizeArchivedRequest
	if err := decodeAndValidate(r, &req, "Archive key is required"); err != nil {
		RespondErr(w, r, err)
		return
	}
	out, err := h.articles.SummarizeArchived(r.Context(), userID, req.ArchiveKey)
	if err != nil {
		RespondErr(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, out)
}
