package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mediashelf/mediashelf/internal/media"
	"github.com/mediashelf/mediashelf/internal/media/service"
	"github.com/mediashelf/mediashelf/pkg/fields"
	"github.com/mediashelf/mediashelf/pkg/middleware"
	"github.com/mediashelf/mediashelf/pkg/reply"
)

// Handler exposes the media service over HTTP. Callers are resolved by
// middleware.IdentityMiddleware, which must run first.
type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the media and revision routes on rg.
func (h *Handler) Register(rg gin.IRouter) {
	rg.GET("/media", h.list)
	rg.POST("/media", h.create)
	rg.GET("/media/:id", h.get)
	rg.PATCH("/media/:id", h.update)
	rg.PUT("/media/:id", h.update)
	rg.DELETE("/media/:id", h.delete)
	rg.GET("/media/:id/revisions", h.listRevisions)
	rg.GET("/revision/:id", h.getRevision)
}

func (h *Handler) list(c *gin.Context) {
	docs, err := h.svc.List(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		fail(c, err, "Something went wrong while trying to find your media", []*media.Document{})
		return
	}
	reply.OK(c, http.StatusOK, "Successfully found your media", docs)
}

func (h *Handler) get(c *gin.Context) {
	d, err := h.svc.Get(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id"))
	if err != nil {
		fail(c, err, "Could not find this piece of media", gin.H{})
		return
	}
	reply.OK(c, http.StatusOK, "Successfully found this piece of media", d)
}

func (h *Handler) create(c *gin.Context) {
	caller := middleware.IdentityFrom(c)
	// refuse before reading the body
	if caller == nil {
		fail(c, service.ErrUnauthorized, "", gin.H{})
		return
	}
	raw, err := rawBody(c.Request.Body)
	if err != nil {
		reply.Fail(c, http.StatusBadRequest, err.Error(), gin.H{})
		return
	}
	f, err := decodeFields(raw)
	if err != nil {
		// members that failed to decode are zero here and get their required check too
		fail(c, fields.Join(err, service.ValidateFields(f)), "", gin.H{})
		return
	}
	d, err := h.svc.Create(c.Request.Context(), caller, f)
	if err != nil {
		fail(c, err, "Something went wrong while trying to upload your new piece of media", gin.H{})
		return
	}
	reply.OK(c, http.StatusCreated, "Successfully uploaded your new piece of media", d)
}

func (h *Handler) update(c *gin.Context) {
	caller := middleware.IdentityFrom(c)
	if caller == nil {
		fail(c, service.ErrUnauthorized, "", gin.H{})
		return
	}
	raw, err := rawBody(c.Request.Body)
	if err != nil {
		reply.Fail(c, http.StatusBadRequest, err.Error(), gin.H{})
		return
	}
	p, err := decodePatch(raw)
	if err != nil {
		fail(c, fields.Join(err, service.ValidatePatch(p)), "", gin.H{})
		return
	}
	d, err := h.svc.Update(c.Request.Context(), caller, c.Param("id"), p)
	if err != nil {
		fail(c, err, "Something went wrong while trying to update this piece of media", gin.H{})
		return
	}
	reply.OK(c, http.StatusOK, "Successfully updated this piece of media", d)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id")); err != nil {
		fail(c, err, "Something went wrong while trying to delete this piece of media", gin.H{})
		return
	}
	reply.OK(c, http.StatusOK, "Successfully deleted this piece of media", gin.H{})
}

// listRevisions returns the history oldest first; ?order=desc reverses it
// for newest-first views.
func (h *Handler) listRevisions(c *gin.Context) {
	revs, err := h.svc.ListRevisions(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id"))
	if err != nil {
		fail(c, err, "Something went wrong while trying to find the revisions of this piece of media", []*media.Revision{})
		return
	}
	if c.Query("order") == "desc" {
		for i, j := 0, len(revs)-1; i < j; i, j = i+1, j-1 {
			revs[i], revs[j] = revs[j], revs[i]
		}
	}
	reply.OK(c, http.StatusOK, "Successfully found the revisions of this piece of media", revs)
}

func (h *Handler) getRevision(c *gin.Context) {
	r, err := h.svc.GetRevision(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id"))
	if err != nil {
		fail(c, err, "Could not find this revision", gin.H{})
		return
	}
	reply.OK(c, http.StatusOK, "Successfully found this revision", r)
}

// fail maps service errors onto status codes. fallback is used for internal
// errors only; other failures carry their own message.
func fail(c *gin.Context, err error, fallback string, empty interface{}) {
	if fe, ok := fields.As(err); ok {
		reply.Invalid(c, "Some fields are missing or invalid", fe, fieldNames...)
		return
	}
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		reply.Fail(c, http.StatusUnauthorized, "You must be logged in to do that", empty)
	case errors.Is(err, service.ErrForbidden):
		reply.Fail(c, http.StatusForbidden, err.Error(), empty)
	case errors.Is(err, service.ErrNotFound):
		reply.Fail(c, http.StatusNotFound, err.Error(), empty)
	case errors.Is(err, service.ErrConflict):
		reply.Fail(c, http.StatusConflict, err.Error(), empty)
	default:
		reply.Fail(c, http.StatusInternalServerError, fallback, empty)
	}
}
