package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"planboard/internal/codec"
	"planboard/internal/editor"
	"planboard/internal/ics"
	"planboard/internal/model"
	"planboard/internal/perm"
	"planboard/internal/store"

	"github.com/labstack/echo/v4"
)

var errBadRequest = errors.New("bad request")

var kindsByPath = map[string]model.Kind{
	"documents":  model.KindDocument,
	"boards":     model.KindBoard,
	"calendars":  model.KindCalendar,
	"guestbooks": model.KindGuestbook,
}

func kindParam(c echo.Context) (model.Kind, error) {
	k, ok := kindsByPath[c.Param("kind")]
	if !ok {
		return "", echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("unknown collection %q", c.Param("kind")))
	}
	return k, nil
}

type dataResponse struct {
	Data any `json:"data"`
}

func (s *Server) listEntities(c echo.Context) error {
	kind, err := kindParam(c)
	if err != nil {
		return err
	}
	opts := store.ListOptions{Search: c.QueryParam("search")}
	if v := c.QueryParam("archived"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: archived must be a boolean", errBadRequest)
		}
		opts.Archived = b
	}
	if c.QueryParams().Has("parent") {
		p := c.QueryParam("parent")
		opts.ParentID = &p
	}
	list, err := s.cfg.Backend.List(c.Request().Context(), ownerOf(c), kind, opts)
	if err != nil {
		return err
	}
	if list == nil {
		list = []model.Entity{}
	}
	return c.JSON(http.StatusOK, dataResponse{Data: list})
}

type createRequest struct {
	Title string `json:"title"`
}

func (s *Server) createEntity(c echo.Context) error {
	kind, err := kindParam(c)
	if err != nil {
		return err
	}
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	e, err := s.cfg.Backend.Create(c.Request().Context(), ownerOf(c), kind, req.Title)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dataResponse{Data: e})
}

func (s *Server) getEntity(c echo.Context) error {
	kind, err := kindParam(c)
	if err != nil {
		return err
	}
	e, err := s.cfg.Backend.Get(c.Request().Context(), ownerOf(c), kind, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dataResponse{Data: e})
}

func (s *Server) patchEntity(c echo.Context) error {
	kind, err := kindParam(c)
	if err != nil {
		return err
	}
	var p model.EntityPatch
	if err := c.Bind(&p); err != nil {
		return err
	}
	e, err := s.cfg.Backend.Patch(c.Request().Context(), ownerOf(c), kind, c.Param("id"), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dataResponse{Data: e})
}

func (s *Server) deleteEntity(c echo.Context) error {
	kind, err := kindParam(c)
	if err != nil {
		return err
	}
	if err := s.cfg.Backend.Delete(c.Request().Context(), ownerOf(c), kind, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type opsRequest struct {
	Ops []editor.Op `json:"ops"`
}

type opsResponse struct {
	Results []editor.OpResult `json:"results"`
	Board   model.Board       `json:"board"`
}

// applyOps runs the ops through a server-side editor and writes the result before
// responding. Nothing is written when an op fails.
func (s *Server) applyOps(c echo.Context) error {
	kind, err := kindParam(c)
	if err != nil {
		return err
	}
	variant, ok := model.VariantForKind(kind)
	if !ok {
		return fmt.Errorf("%w: %s content has no board operations", errBadRequest, kind)
	}
	var req opsRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	owner := ownerOf(c)
	e, err := s.cfg.Backend.Get(ctx, owner, kind, c.Param("id"))
	if err != nil {
		return err
	}
	if !perm.CanEdit(owner, e) {
		if strings.TrimSpace(owner) == "" {
			return store.ErrUnauthenticated
		}
		return store.OwnerOnlyError{CallerID: owner, OwnerID: e.OwnerID, EntityID: e.ID}
	}
	initial, hasContent, err := codec.Decode(e.ContentString())
	if err != nil {
		return err
	}

	dirty := false
	ed := editor.New(editor.Options{
		Variant:  variant,
		Initial:  initial,
		OnChange: func(model.Board) { dirty = true },
		Defaults: s.cfg.Defaults,
		Logger:   s.cfg.Logger,
	})
	if !hasContent && len(ed.Board()) > 0 {
		dirty = true
	}
	results, err := ed.ApplyAll(req.Ops)
	if err != nil {
		return err
	}
	if dirty {
		content, err := codec.Encode(ed.Board())
		if err != nil {
			return err
		}
		if _, err := s.cfg.Backend.Patch(ctx, owner, kind, e.ID, model.EntityPatch{Content: &content}); err != nil {
			return err
		}
	}
	return c.JSON(http.StatusOK, dataResponse{Data: opsResponse{Results: results, Board: ed.Board()}})
}

func (s *Server) exportICS(c echo.Context) error {
	kind, err := kindParam(c)
	if err != nil {
		return err
	}
	if kind != model.KindCalendar {
		return echo.NewHTTPError(http.StatusNotFound, "only calendars export to ics")
	}
	ctx := c.Request().Context()
	owner := ownerOf(c)
	e, err := s.cfg.Backend.Get(ctx, owner, kind, c.Param("id"))
	if err != nil {
		return err
	}
	b, _, err := codec.Decode(e.ContentString())
	if err != nil {
		return err
	}
	titles := map[string]string{}
	if owner == e.OwnerID {
		docs, err := s.cfg.Backend.List(ctx, owner, model.KindDocument, store.ListOptions{})
		if err != nil {
			return err
		}
		for _, d := range docs {
			titles[d.ID] = d.Title
		}
	}
	year := s.cfg.Year
	if y, err := strconv.Atoi(c.QueryParam("year")); err == nil && y > 0 {
		year = y
	}
	now := s.cfg.Now()
	if year <= 0 {
		year = now.Year()
	}
	c.Response().Header().Set(echo.HeaderContentType, "text/calendar; charset=utf-8")
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", e.ID+".ics"))
	c.Response().WriteHeader(http.StatusOK)
	return ics.Export(c.Response(), e.Title, year, b, titles, now)
}

type commentRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	Content  string `json:"content"`
}

func guestbookParam(c echo.Context) error {
	kind, err := kindParam(c)
	if err != nil {
		return err
	}
	if kind != model.KindGuestbook {
		return echo.NewHTTPError(http.StatusNotFound, "comments belong to guestbooks")
	}
	return nil
}

func (s *Server) addComment(c echo.Context) error {
	if err := guestbookParam(c); err != nil {
		return err
	}
	var req commentRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Content) == "" {
		return fmt.Errorf("%w: content is required", errBadRequest)
	}
	cm, err := s.cfg.Backend.AddComment(c.Request().Context(), c.Param("id"), req.Name, req.Password, req.Content)
	if err != nil {
		return err
	}
	cm.PasswordHash = ""
	return c.JSON(http.StatusCreated, dataResponse{Data: cm})
}

type removeCommentRequest struct {
	Password string `json:"password"`
}

func (s *Server) removeComment(c echo.Context) error {
	if err := guestbookParam(c); err != nil {
		return err
	}
	var req removeCommentRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	err := s.cfg.Backend.RemoveComment(c.Request().Context(), ownerOf(c), c.Param("id"), c.Param("commentId"), req.Password)
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
