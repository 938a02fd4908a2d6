package postapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// handleListPosts serves the public post listing. Only published posts are
// visible here; drafts require the admin API.
func (a *App) handleListPosts(c echo.Context) error {
	filter := ListFilter{
		Status:  StatusPublished,
		Page:    intParam(c, "page"),
		Limit:   intParam(c, "limit"),
		OrderBy: c.QueryParam("orderBy"),
		Order:   c.QueryParam("order"),
	}
	result, err := a.Store.List(filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// handleGetPost serves a single published post by slug.
func (a *App) handleGetPost(c echo.Context) error {
	slug := c.Param("slug")
	post, err := a.Store.GetBySlug(slug)
	if err != nil {
		return err
	}
	if post.Status != StatusPublished {
		return &NotFoundError{Key: slug}
	}
	return c.JSON(http.StatusOK, post)
}

// handleRobots generates robots.txt dynamically using SITE_URL.
func (a *App) handleRobots(c echo.Context) error {
	body := fmt.Sprintf("User-agent: *\nAllow: /\nDisallow: /api/admin/\n\nSitemap: %s/sitemap.xml\n", a.Config.SiteURL)
	return c.String(http.StatusOK, body)
}

// httpErrorHandler maps the store error taxonomy to HTTP statuses: validation
// to 400 with field detail, not-found to 404, slug conflicts to 409.
func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		_ = c.JSON(http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": ve.Fields,
		})
		return
	}
	var nfe *NotFoundError
	if errors.As(err, &nfe) {
		_ = c.JSON(http.StatusNotFound, map[string]string{"error": nfe.Error()})
		return
	}
	var ce *ConflictError
	if errors.As(err, &ce) {
		_ = c.JSON(http.StatusConflict, map[string]string{"error": ce.Error()})
		return
	}

	he, ok := err.(*echo.HTTPError)
	if ok {
		msg := fmt.Sprintf("%v", he.Message)
		_ = c.JSON(he.Code, map[string]string{"error": msg})
		return
	}

	c.Logger().Errorf("server error: %v", err)
	_ = c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

// intParam parses an integer query parameter, returning 0 when absent or
// malformed so the store applies its defaults.
func intParam(c echo.Context, name string) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
