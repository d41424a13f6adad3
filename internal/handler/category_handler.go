package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inkstream/internal/service"
)

type categoryRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// CreateCategory 新建分类。
func (a *API) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if !bindJSON(c, &req, "invalid category payload") {
		return
	}

	category, err := a.categories.Create(req.Name, req.Slug, req.Description, req.Color)
	if err != nil {
		if errors.Is(err, service.ErrCategoryNameRequired) || errors.Is(err, service.ErrSlugTaken) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to create category")
		return
	}

	c.JSON(http.StatusCreated, categoryView{
		ID:    category.ID,
		Name:  category.Name,
		Slug:  category.Slug,
		Color: category.Color,
	})
}
