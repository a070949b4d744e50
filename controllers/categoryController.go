package controllers

import (
	"fmt"
	"net/http"

	"github.com/Kariqs/smart-inventory/middlewares"
	"github.com/Kariqs/smart-inventory/models"
	"github.com/Kariqs/smart-inventory/services"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type CategoryController struct {
	categories *services.CategoryService
	log        zerolog.Logger
}

func NewCategoryController(categories *services.CategoryService, logger zerolog.Logger) *CategoryController {
	return &CategoryController{
		categories: categories,
		log:        logger.With().Str("component", "category_controller").Logger(),
	}
}

func (c *CategoryController) Index(ctx *gin.Context) {
	categories, err := c.categories.List(ctx.Request.Context())
	if err != nil {
		respondWithError(ctx, c.log, err)
		return
	}

	if middlewares.IsAjax(ctx) {
		sendJSONResponse(ctx, http.StatusOK, gin.H{"success": true, "categories": categories})
		return
	}
	render(ctx, http.StatusOK, "category_index.html", gin.H{"Title": "Categories", "Categories": categories})
}

func (c *CategoryController) Details(ctx *gin.Context) {
	id, err := parseID(ctx)
	if err != nil {
		respondWithError(ctx, c.log, err)
		return
	}

	reqCtx := ctx.Request.Context()
	category, err := c.categories.GetByID(reqCtx, id)
	if err != nil {
		respondWithError(ctx, c.log, err)
		return
	}
	products, err := c.categories.Products(reqCtx, id)
	if err != nil {
		respondWithError(ctx, c.log, err)
		return
	}

	if middlewares.IsAjax(ctx) {
		sendJSONResponse(ctx, http.StatusOK, gin.H{"success": true, "category": category, "products": products})
		return
	}
	render(ctx, http.StatusOK, "category_details.html", gin.H{
		"Title":    category.Name,
		"Category": category,
		"Products": products,
	})
}

func (c *CategoryController) renderForm(ctx *gin.Context, status int, category models.Category, errs []string) {
	title, action := "Create Category", "/Category/Create"
	if category.ID != 0 {
		title, action = "Edit Category", fmt.Sprintf("/Category/Edit/%d", category.ID)
	}
	render(ctx, status, "category_form.html", gin.H{
		"Title":    title,
		"Action":   action,
		"Category": category,
		"Errors":   errs,
	})
}

func (c *CategoryController) mutationFailed(ctx *gin.Context, category models.Category, err error) {
	if middlewares.IsAjax(ctx) || !isFormError(err) {
		respondWithError(ctx, c.log, err)
		return
	}
	c.renderForm(ctx, statusForError(err), category, formErrors(err))
}

type categoryForm struct {
	Name        string `json:"name" form:"name"`
	Description string `json:"description" form:"description"`
}

func bindCategory(ctx *gin.Context) (models.Category, error) {
	var form categoryForm
	err := ctx.ShouldBind(&form)
	category := models.Category{Name: form.Name, Description: form.Description}
	if err != nil {
		return category, invalidForm(err)
	}
	return category, nil
}

func (c *CategoryController) CreateForm(ctx *gin.Context) {
	c.renderForm(ctx, http.StatusOK, models.Category{}, nil)
}

func (c *CategoryController) Create(ctx *gin.Context) {
	category, err := bindCategory(ctx)
	if err == nil {
		err = c.categories.Create(ctx.Request.Context(), middlewares.CurrentPrincipal(ctx), &category)
	}
	if err != nil {
		c.mutationFailed(ctx, category, err)
		return
	}

	if middlewares.IsAjax(ctx) {
		sendJSONResponse(ctx, http.StatusOK, gin.H{"success": true, "message": "Category created successfully.", "categoryId": category.ID})
		return
	}
	redirectWithFlash(ctx, "/Category", "success", "Category created successfully.")
}

func (c *CategoryController) EditForm(ctx *gin.Context) {
	id, err := parseID(ctx)
	if err != nil {
		respondWithError(ctx, c.log, err)
		return
	}

	category, err := c.categories.GetByID(ctx.Request.Context(), id)
	if err != nil {
		respondWithError(ctx, c.log, err)
		return
	}
	c.renderForm(ctx, http.StatusOK, *category, nil)
}

func (c *CategoryController) Edit(ctx *gin.Context) {
	id, err := parseID(ctx)
	if err != nil {
		respondWithError(ctx, c.log, err)
		return
	}

	category, err := bindCategory(ctx)
	category.ID = id
	if err == nil {
		err = c.categories.Update(ctx.Request.Context(), middlewares.CurrentPrincipal(ctx), &category)
	}
	if err != nil {
		c.mutationFailed(ctx, category, err)
		return
	}

	if middlewares.IsAjax(ctx) {
		sendJSONResponse(ctx, http.StatusOK, gin.H{"success": true, "message": "Category updated successfully.", "categoryId": id})
		return
	}
	redirectWithFlash(ctx, "/Category", "success", "Category updated successfully.")
}

func (c *CategoryController) DeleteForm(ctx *gin.Context) {
	id, err := parseID(ctx)
	if err != nil {
		respondWithError(ctx, c.log, err)
		return
	}

	category, err := c.categories.GetByID(ctx.Request.Context(), id)
	if err != nil {
		respondWithError(ctx, c.log, err)
		return
	}
	render(ctx, http.StatusOK, "category_delete.html", gin.H{"Title": "Delete Category", "Category": category})
}

// Delete refuses categories that still have products and sends browsers back
// to the list with the reason.
func (c *CategoryController) Delete(ctx *gin.Context) {
	id, err := parseID(ctx)
	if err == nil {
		err = c.categories.Delete(ctx.Request.Context(), middlewares.CurrentPrincipal(ctx), id)
	}
	if err != nil {
		if !middlewares.IsAjax(ctx) && statusForError(err) == http.StatusConflict {
			redirectWithFlash(ctx, "/Category", "danger", publicMessage(err))
			return
		}
		respondWithError(ctx, c.log, err)
		return
	}

	if middlewares.IsAjax(ctx) {
		sendJSONResponse(ctx, http.StatusOK, gin.H{"success": true, "message": "Category deleted successfully.", "categoryId": id})
		return
	}
	redirectWithFlash(ctx, "/Category", "success", "Category deleted successfully.")
}
