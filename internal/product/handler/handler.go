package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/fekuna/omnipos-catalog-sync/internal/apperr"
	"github.com/fekuna/omnipos-catalog-sync/internal/httpx"
	"github.com/fekuna/omnipos-catalog-sync/internal/logger"
	"github.com/fekuna/omnipos-catalog-sync/internal/product"
	"github.com/fekuna/omnipos-catalog-sync/internal/product/dto"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxRequestBody = 1 << 20

type ProductHandler struct {
	uc     product.UseCase
	logger logger.ZapLogger
}

func NewProductHandler(uc product.UseCase, log logger.ZapLogger) *ProductHandler {
	return &ProductHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *ProductHandler) Routes(r chi.Router) {
	r.Route("/products", func(rt chi.Router) {
		rt.Get("/", h.list)
		rt.Get("/search", h.search)
		rt.Get("/handle/{handle}", h.getByHandle)

		rt.Post("/bulk/prices", h.bulkPrices)
		rt.Post("/bulk/tags", h.bulkTags)
		rt.Post("/bulk/content/generate", h.generateContent)
		rt.Post("/bulk/content/save", h.saveContent)

		rt.Route("/{productID}", func(pr chi.Router) {
			pr.Get("/", h.get)
			pr.Delete("/", h.delete)
			pr.Get("/profit", h.profit)
			pr.Put("/title", h.updateTitle)
			pr.Put("/description", h.updateDescription)
			pr.Post("/images", h.addImage)
			pr.Delete("/images/{imageID}", h.deleteImage)
			pr.Post("/options/rename", h.renameOption)
		})
	})
	r.Post("/checkout", h.checkout)
}

func (h *ProductHandler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	e := httpx.FromError(err)
	if e.Status >= http.StatusInternalServerError {
		h.logger.Error(msg, zap.Error(err))
	}
	httpx.WriteError(r.Context(), w, e)
}

// writeBatch answers 200 when every item succeeded and 207 with the same
// summary when some failed.
func (h *ProductHandler) writeBatch(w http.ResponseWriter, r *http.Request, msg string, payload any, err error) {
	var partial *apperr.PartialBatchError
	switch {
	case err == nil:
		httpx.WriteJSON(w, http.StatusOK, payload)
	case errors.As(err, &partial):
		h.logger.Warn(msg, zap.Int("failed", len(partial.Failed)), zap.Int("succeeded", len(partial.Succeeded)))
		httpx.WriteJSON(w, http.StatusMultiStatus, payload)
	default:
		h.fail(w, r, msg, err)
	}
}

func lang(r *http.Request) string {
	if l := r.URL.Query().Get("lang"); l != "" {
		return l
	}
	return r.Header.Get("Accept-Language")
}

func (h *ProductHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := &dto.ProductFilters{
		Query:        q.Get("q"),
		Tag:          q.Get("tag"),
		CollectionID: q.Get("collection"),
	}
	if v := q.Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "count must be a non-negative integer", http.StatusBadRequest))
			return
		}
		filters.Count = n
	}
	filters.CatalogTag, _ = strconv.ParseBool(q.Get("catalog_tag"))

	list, err := h.uc.ListProducts(r.Context(), filters)
	if err != nil {
		h.fail(w, r, "failed to list products", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

func (h *ProductHandler) search(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	products, err := h.uc.SearchProducts(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		h.fail(w, r, "failed to search products", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.ProductList{Products: products, Total: len(products)})
}

func (h *ProductHandler) get(w http.ResponseWriter, r *http.Request) {
	p, err := h.uc.GetProduct(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		h.fail(w, r, "failed to get product", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) getByHandle(w http.ResponseWriter, r *http.Request) {
	p, err := h.uc.GetProductByHandle(r.Context(), chi.URLParam(r, "handle"))
	if err != nil {
		h.fail(w, r, "failed to get product by handle", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) profit(w http.ResponseWriter, r *http.Request) {
	p, err := h.uc.GetProfit(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		h.fail(w, r, "failed to compute profit", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.DeleteProduct(r.Context(), chi.URLParam(r, "productID")); err != nil {
		h.fail(w, r, "failed to delete product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductHandler) updateTitle(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title string `json:"title"`
	}
	if err := httpx.DecodeJSON(w, r, maxRequestBody, &body); err != nil {
		h.fail(w, r, "invalid title payload", err)
		return
	}
	if err := h.uc.UpdateTitle(r.Context(), chi.URLParam(r, "productID"), body.Title); err != nil {
		h.fail(w, r, "failed to update title", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductHandler) updateDescription(w http.ResponseWriter, r *http.Request) {
	var body struct {
		HTML string `json:"html"`
	}
	if err := httpx.DecodeJSON(w, r, maxRequestBody, &body); err != nil {
		h.fail(w, r, "invalid description payload", err)
		return
	}
	if err := h.uc.UpdateDescription(r.Context(), chi.URLParam(r, "productID"), body.HTML); err != nil {
		h.fail(w, r, "failed to update description", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductHandler) addImage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if err := httpx.DecodeJSON(w, r, maxRequestBody, &body); err != nil {
		h.fail(w, r, "invalid image payload", err)
		return
	}
	img, err := h.uc.AddImage(r.Context(), chi.URLParam(r, "productID"), body.URL)
	if err != nil {
		h.fail(w, r, "failed to add image", err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, img)
}

func (h *ProductHandler) deleteImage(w http.ResponseWriter, r *http.Request) {
	err := h.uc.DeleteImage(r.Context(), chi.URLParam(r, "productID"), chi.URLParam(r, "imageID"))
	if err != nil {
		h.fail(w, r, "failed to delete image", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductHandler) renameOption(w http.ResponseWriter, r *http.Request) {
	var input dto.RenameOptionInput
	if err := httpx.DecodeJSON(w, r, maxRequestBody, &input); err != nil {
		h.fail(w, r, "invalid rename payload", err)
		return
	}
	input.ProductID = chi.URLParam(r, "productID")
	input.Lang = lang(r)

	summary, err := h.uc.RenameOptionValue(r.Context(), &input)
	h.writeBatch(w, r, "option rename partially failed", summary, err)
}

func (h *ProductHandler) bulkPrices(w http.ResponseWriter, r *http.Request) {
	var input dto.BulkPriceInput
	if err := httpx.DecodeJSON(w, r, maxRequestBody, &input); err != nil {
		h.fail(w, r, "invalid price payload", err)
		return
	}
	input.Lang = lang(r)

	summary, err := h.uc.BulkUpdatePrices(r.Context(), &input)
	h.writeBatch(w, r, "bulk price update partially failed", summary, err)
}

func (h *ProductHandler) bulkTags(w http.ResponseWriter, r *http.Request) {
	var input dto.BulkTagInput
	if err := httpx.DecodeJSON(w, r, maxRequestBody, &input); err != nil {
		h.fail(w, r, "invalid tag payload", err)
		return
	}
	input.Lang = lang(r)

	summary, err := h.uc.BulkToggleTag(r.Context(), &input)
	h.writeBatch(w, r, "bulk tag toggle partially failed", summary, err)
}

func (h *ProductHandler) generateContent(w http.ResponseWriter, r *http.Request) {
	var input dto.GenerateContentInput
	if err := httpx.DecodeJSON(w, r, maxRequestBody, &input); err != nil {
		h.fail(w, r, "invalid generation payload", err)
		return
	}
	input.Lang = lang(r)

	res, err := h.uc.GenerateContent(r.Context(), &input)
	h.writeBatch(w, r, "content generation partially failed", res, err)
}

func (h *ProductHandler) saveContent(w http.ResponseWriter, r *http.Request) {
	var input dto.SaveContentInput
	if err := httpx.DecodeJSON(w, r, maxRequestBody, &input); err != nil {
		h.fail(w, r, "invalid content payload", err)
		return
	}
	input.Lang = lang(r)

	summary, err := h.uc.SaveGeneratedContent(r.Context(), &input)
	h.writeBatch(w, r, "content save partially failed", summary, err)
}

func (h *ProductHandler) checkout(w http.ResponseWriter, r *http.Request) {
	var input dto.CheckoutInput
	if err := httpx.DecodeJSON(w, r, maxRequestBody, &input); err != nil {
		h.fail(w, r, "invalid checkout payload", err)
		return
	}
	url, err := h.uc.CreateCheckout(r.Context(), input.Lines)
	if err != nil {
		h.fail(w, r, "failed to create checkout", err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]string{"checkout_url": url})
}
