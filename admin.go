package postapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// handleAdminListPosts lists posts of any status. The status query parameter
// narrows to drafts or published posts.
func (a *App) handleAdminListPosts(c echo.Context) error {
	filter := ListFilter{
		Status:  Status(strings.ToLower(c.QueryParam("status"))),
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

func (a *App) handleAdminCreatePost(c echo.Context) error {
	var in PostInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	post, err := a.Store.Create(in)
	if err != nil {
		return err
	}
	a.Cache.Invalidate()
	return c.JSON(http.StatusCreated, post)
}

func (a *App) handleAdminGetPost(c echo.Context) error {
	post, err := a.Store.GetByID(c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

func (a *App) handleAdminUpdatePost(c echo.Context) error {
	var patch PostPatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	post, err := a.Store.Update(c.Param("id"), patch)
	if err != nil {
		return err
	}
	a.Cache.Invalidate()
	return c.JSON(http.StatusOK, post)
}

func (a *App) handleAdminDeletePost(c echo.Context) error {
	if err := a.Store.Delete(c.Param("id")); err != nil {
		return err
	}
	a.Cache.Invalidate()
	return c.NoContent(http.StatusNoContent)
}
