package handler

import (
	"net/http"
	"strconv"

	"github.com/fekuna/omnipos-catalog-sync/internal/collection"
	"github.com/fekuna/omnipos-catalog-sync/internal/collection/dto"
	"github.com/fekuna/omnipos-catalog-sync/internal/httpx"
	"github.com/fekuna/omnipos-catalog-sync/internal/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxRequestBody = 64 * 1024

type CollectionHandler struct {
	uc     collection.UseCase
	logger logger.ZapLogger
}

func NewCollectionHandler(uc collection.UseCase, log logger.ZapLogger) *CollectionHandler {
	return &CollectionHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *CollectionHandler) Routes(r chi.Router) {
	r.Route("/collections", func(rt chi.Router) {
		rt.Get("/", h.list)
		rt.Post("/", h.create)
		rt.Get("/{collectionID}", h.get)
		rt.Put("/{collectionID}", h.update)
		rt.Delete("/{collectionID}", h.delete)
		rt.Put("/{collectionID}/products/{productID}", h.addProduct)
		rt.Delete("/{collectionID}/products/{productID}", h.removeProduct)
	})
}

func (h *CollectionHandler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	e := httpx.FromError(err)
	if e.Status >= http.StatusInternalServerError {
		h.logger.Error(msg, zap.Error(err))
	}
	httpx.WriteError(r.Context(), w, e)
}

func (h *CollectionHandler) list(w http.ResponseWriter, r *http.Request) {
	filters := &dto.CollectionFilters{}
	if v := r.URL.Query().Get("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "active must be a boolean", http.StatusBadRequest))
			return
		}
		filters.IsActive = &active
	}
	filters.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	filters.PageSize, _ = strconv.Atoi(r.URL.Query().Get("page_size"))

	cols, total, err := h.uc.ListCollections(r.Context(), filters)
	if err != nil {
		h.fail(w, r, "failed to list collections", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"collections": cols,
		"total":       total,
	})
}

func (h *CollectionHandler) create(w http.ResponseWriter, r *http.Request) {
	var input dto.CreateCollectionInput
	if err := httpx.DecodeJSON(w, r, maxRequestBody, &input); err != nil {
		h.fail(w, r, "invalid collection payload", err)
		return
	}
	c, err := h.uc.CreateCollection(r.Context(), &input)
	if err != nil {
		h.fail(w, r, "failed to create collection", err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, c)
}

func (h *CollectionHandler) get(w http.ResponseWriter, r *http.Request) {
	c, err := h.uc.GetCollection(r.Context(), chi.URLParam(r, "collectionID"))
	if err != nil {
		h.fail(w, r, "failed to get collection", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, c)
}

func (h *CollectionHandler) update(w http.ResponseWriter, r *http.Request) {
	var input dto.UpdateCollectionInput
	if err := httpx.DecodeJSON(w, r, maxRequestBody, &input); err != nil {
		h.fail(w, r, "invalid collection payload", err)
		return
	}
	input.ID = chi.URLParam(r, "collectionID")
	c, err := h.uc.UpdateCollection(r.Context(), &input)
	if err != nil {
		h.fail(w, r, "failed to update collection", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, c)
}

func (h *CollectionHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.DeleteCollection(r.Context(), chi.URLParam(r, "collectionID")); err != nil {
		h.fail(w, r, "failed to delete collection", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CollectionHandler) addProduct(w http.ResponseWriter, r *http.Request) {
	position, _ := strconv.Atoi(r.URL.Query().Get("position"))
	err := h.uc.AddProduct(r.Context(), chi.URLParam(r, "collectionID"), chi.URLParam(r, "productID"), position)
	if err != nil {
		h.fail(w, r, "failed to add product to collection", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CollectionHandler) removeProduct(w http.ResponseWriter, r *http.Request) {
	err := h.uc.RemoveProduct(r.Context(), chi.URLParam(r, "collectionID"), chi.URLParam(r, "productID"))
	if err != nil {
		h.fail(w, r, "failed to remove product from collection", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
