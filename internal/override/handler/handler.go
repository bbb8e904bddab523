package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-catalog-sync/internal/httpx"
	"github.com/fekuna/omnipos-catalog-sync/internal/logger"
	"github.com/fekuna/omnipos-catalog-sync/internal/model"
	"github.com/fekuna/omnipos-catalog-sync/internal/override"
	"github.com/fekuna/omnipos-catalog-sync/internal/override/dto"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxRequestBody = 64 * 1024

type OverrideHandler struct {
	uc     override.UseCase
	logger logger.ZapLogger
}

func NewOverrideHandler(uc override.UseCase, log logger.ZapLogger) *OverrideHandler {
	return &OverrideHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *OverrideHandler) Routes(r chi.Router) {
	r.Route("/overrides/{productID}", func(rt chi.Router) {
		rt.Get("/", h.getOverride)
		rt.Put("/", h.upsertOverride)
		rt.Delete("/", h.deleteData)
		rt.Get("/cost", h.getCost)
		rt.Put("/cost", h.saveCost)
		rt.Get("/offer", h.getOffer)
		rt.Put("/offer", h.saveOffer)
		rt.Get("/tags", h.tagsFor)
		rt.Put("/tags/{tagID}", h.assignTag)
		rt.Delete("/tags/{tagID}", h.removeTag)
	})
	r.Route("/tags", func(rt chi.Router) {
		rt.Get("/", h.listTags)
		rt.Post("/", h.createTag)
	})
}

func (h *OverrideHandler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	e := httpx.FromError(err)
	if e.Status >= http.StatusInternalServerError {
		h.logger.Error(msg, zap.Error(err))
	}
	httpx.WriteError(r.Context(), w, e)
}

func notFound(w http.ResponseWriter, r *http.Request, what string) {
	httpx.WriteError(r.Context(), w, httpx.NewError("not_found", what+" not found", http.StatusNotFound))
}

func (h *OverrideHandler) getOverride(w http.ResponseWriter, r *http.Request) {
	o, err := h.uc.GetOverride(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		h.fail(w, r, "failed to get override", err)
		return
	}
	if o == nil {
		notFound(w, r, "override")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, o)
}

func (h *OverrideHandler) upsertOverride(w http.ResponseWriter, r *http.Request) {
	var fields model.OverrideFields
	if err := httpx.DecodeJSON(w, r, maxRequestBody, &fields); err != nil {
		h.fail(w, r, "invalid override payload", err)
		return
	}
	o, err := h.uc.UpsertOverride(r.Context(), chi.URLParam(r, "productID"), fields)
	if err != nil {
		h.fail(w, r, "failed to save override", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, o)
}

func (h *OverrideHandler) deleteData(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.DeleteProductData(r.Context(), chi.URLParam(r, "productID")); err != nil {
		h.fail(w, r, "failed to delete product data", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OverrideHandler) getCost(w http.ResponseWriter, r *http.Request) {
	c, err := h.uc.GetCost(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		h.fail(w, r, "failed to get cost", err)
		return
	}
	if c == nil {
		notFound(w, r, "cost")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, c)
}

func (h *OverrideHandler) saveCost(w http.ResponseWriter, r *http.Request) {
	var input dto.SaveCostInput
	if err := httpx.DecodeJSON(w, r, maxRequestBody, &input); err != nil {
		h.fail(w, r, "invalid cost payload", err)
		return
	}
	input.ProductID = chi.URLParam(r, "productID")
	c, err := h.uc.SaveCost(r.Context(), &input)
	if err != nil {
		h.fail(w, r, "failed to save cost", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, c)
}

func (h *OverrideHandler) getOffer(w http.ResponseWriter, r *http.Request) {
	o, err := h.uc.GetOffer(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		h.fail(w, r, "failed to get offer", err)
		return
	}
	if o == nil {
		notFound(w, r, "offer")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, o)
}

func (h *OverrideHandler) saveOffer(w http.ResponseWriter, r *http.Request) {
	var input dto.SaveOfferInput
	if err := httpx.DecodeJSON(w, r, maxRequestBody, &input); err != nil {
		h.fail(w, r, "invalid offer payload", err)
		return
	}
	input.ProductID = chi.URLParam(r, "productID")
	o, err := h.uc.SaveOffer(r.Context(), &input)
	if err != nil {
		h.fail(w, r, "failed to save offer", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, o)
}

func (h *OverrideHandler) tagsFor(w http.ResponseWriter, r *http.Request) {
	tags, err := h.uc.GetTagsFor(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		h.fail(w, r, "failed to get product tags", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

func (h *OverrideHandler) assignTag(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.AssignTag(r.Context(), chi.URLParam(r, "productID"), chi.URLParam(r, "tagID")); err != nil {
		h.fail(w, r, "failed to assign tag", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OverrideHandler) removeTag(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.RemoveTag(r.Context(), chi.URLParam(r, "productID"), chi.URLParam(r, "tagID")); err != nil {
		h.fail(w, r, "failed to remove tag", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OverrideHandler) listTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.uc.ListTags(r.Context())
	if err != nil {
		h.fail(w, r, "failed to list tags", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

func (h *OverrideHandler) createTag(w http.ResponseWriter, r *http.Request) {
	var input dto.CreateTagInput
	if err := httpx.DecodeJSON(w, r, maxRequestBody, &input); err != nil {
		h.fail(w, r, "invalid tag payload", err)
		return
	}
	t, err := h.uc.CreateTag(r.Context(), &input)
	if err != nil {
		h.fail(w, r, "failed to create tag", err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, t)
}
