package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/api"
	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/domain"
	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/pagination"
	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/service"
	"github.com/go-chi/chi/v5"
)

type DocumentService interface {
	Register(ctx context.Context, input service.RegisterDocumentInput) (*service.RegisterDocumentResult, error)
	Get(ctx context.Context, knowledgeBaseID, documentID string) (*domain.DocumentRecord, error)
	List(ctx context.Context, knowledgeBaseID, cursor string, limit int) (*pagination.PageResult[*domain.DocumentRecord], error)
	Delete(ctx context.Context, knowledgeBaseID, documentID string) error
}

type IngestService interface {
	StartIndexing(ctx context.Context, knowledgeBaseID, documentID string) (int, error)
}

type DocumentHandler struct {
	svc    DocumentService
	ingest IngestService
}

func NewDocumentHandler(svc DocumentService, ingest IngestService) *DocumentHandler {
	return &DocumentHandler{svc: svc, ingest: ingest}
}

type RegisterDocumentRequest struct {
	OrgID           string `json:"org_id"`
	KnowledgeBaseID string `json:"knowledge_base_id"`
	Filename        string `json:"filename"`
	ContentType     string `json:"content_type"`
}

type DocumentResponse struct {
	DocumentID      string `json:"document_id"`
	KnowledgeBaseID string `json:"knowledge_base_id"`
	OrgID           string `json:"org_id"`
	Filename        string `json:"filename"`
	ContentType     string `json:"content_type"`
	IndexStatus     string `json:"index_status"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

type RegisterDocumentResponse struct {
	Document  *DocumentResponse `json:"document"`
	UploadURL string            `json:"upload_url"`
}

type IngestResponse struct {
	DocumentID string `json:"document_id"`
	ChunkCount int    `json:"chunk_count"`
}

func documentToResponse(record *domain.DocumentRecord) *DocumentResponse {
	return &DocumentResponse{
		DocumentID:      record.DocumentID,
		KnowledgeBaseID: record.KnowledgeBaseID,
		OrgID:           record.OrgID,
		Filename:        record.Filename,
		ContentType:     record.ContentType,
		IndexStatus:     string(record.IndexStatus),
		CreatedAt:       record.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:       record.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func (h *DocumentHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.OrgID == "" {
		api.Error(w, http.StatusBadRequest, "org_id is required")
		return
	}
	if req.KnowledgeBaseID == "" {
		api.Error(w, http.StatusBadRequest, "knowledge_base_id is required")
		return
	}
	if req.Filename == "" {
		api.Error(w, http.StatusBadRequest, "filename is required")
		return
	}

	result, err := h.svc.Register(r.Context(), service.RegisterDocumentInput{
		OrgID:           req.OrgID,
		KnowledgeBaseID: req.KnowledgeBaseID,
		Filename:        req.Filename,
		ContentType:     req.ContentType,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, RegisterDocumentResponse{
		Document:  documentToResponse(result.Document),
		UploadURL: result.UploadURL,
	})
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	knowledgeBaseID := chi.URLParam(r, "knowledgeBaseId")
	documentID := chi.URLParam(r, "documentId")

	record, err := h.svc.Get(r.Context(), knowledgeBaseID, documentID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, documentToResponse(record))
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	knowledgeBaseID := chi.URLParam(r, "knowledgeBaseId")
	cursor := r.URL.Query().Get("cursor")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	page, err := h.svc.List(r.Context(), knowledgeBaseID, cursor, limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*DocumentResponse, 0, len(page.Items))
	for _, record := range page.Items {
		items = append(items, documentToResponse(record))
	}

	api.Success(w, http.StatusOK, pagination.PageResult[*DocumentResponse]{
		Items:   items,
		Cursor:  page.Cursor,
		HasMore: page.HasMore,
	})
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	knowledgeBaseID := chi.URLParam(r, "knowledgeBaseId")
	documentID := chi.URLParam(r, "documentId")

	if err := h.svc.Delete(r.Context(), knowledgeBaseID, documentID); err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusNoContent, nil)
}

func (h *DocumentHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	knowledgeBaseID := chi.URLParam(r, "knowledgeBaseId")
	documentID := chi.URLParam(r, "documentId")

	count, err := h.ingest.StartIndexing(r.Context(), knowledgeBaseID, documentID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusAccepted, IngestResponse{
		DocumentID: documentID,
		ChunkCount: count,
	})
}
