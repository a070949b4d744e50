package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Kariqs/smart-inventory/middlewares"
	"github.com/Kariqs/smart-inventory/models"
	"github.com/Kariqs/smart-inventory/services"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const maxImageSize = 5 << 20

type ProductController struct {
	products   *services.ProductService
	categories *services.CategoryService
	log        zerolog.Logger
}

func NewProductController(products *services.ProductService, categories *services.CategoryService, logger zerolog.Logger) *ProductController {
	return &ProductController{
		products:   products,
		categories: categories,
		log:        logger.With().Str("component", "product_controller").Logger(),
	}
}

// parseFilter reads the search form from the query string. Values that do
// not parse are reported the way the services report invalid input.
func parseFilter(ctx *gin.Context) (services.ProductFilter, error) {
	filter := services.ProductFilter{SearchString: strings.TrimSpace(ctx.Query("searchString"))}
	var problems []string

	if v := ctx.Query("categoryId"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			problems = append(problems, fmt.Sprintf("The value '%s' is not valid for category.", v))
		} else {
			categoryID := uint(id)
			filter.CategoryID = &categoryID
		}
	}

	parsePrice := func(key, label string) *decimal.Decimal {
		v := strings.TrimSpace(ctx.Query(key))
		if v == "" {
			return nil
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			problems = append(problems, fmt.Sprintf("The value '%s' is not valid for %s.", v, label))
			return nil
		}
		return &d
	}
	filter.MinPrice = parsePrice("minPrice", "minimum price")
	filter.MaxPrice = parsePrice("maxPrice", "maximum price")

	switch strings.ToLower(ctx.Query("lowStock")) {
	case "true", "on", "1":
		filter.LowStockOnly = true
	}

	if problems != nil {
		return filter, &services.ValidationError{Messages: problems}
	}
	return filter, nil
}

func filterView(ctx *gin.Context) gin.H {
	return gin.H{
		"SearchString": ctx.Query("searchString"),
		"CategoryID":   ctx.Query("categoryId"),
		"MinPrice":     ctx.Query("minPrice"),
		"MaxPrice":     ctx.Query("maxPrice"),
		"LowStock":     ctx.Query("lowStock") != "" && ctx.Query("lowStock") != "false",
	}
}

// Index renders the product list with the search form.
func (c *ProductController) Index(ctx *gin.Context) {
	reqCtx := ctx.Request.Context()
	categories, err := c.categories.List(reqCtx)
	if err != nil {
		respondWithError(ctx, c.log, err)
		return
	}

	data := gin.H{
		"Title":      "Products",
		"Categories": categories,
		"Filter":     filterView(ctx),
	}

	filter, err := parseFilter(ctx)
	if err == nil {
		var products []services.ProductListing
		if products, err = c.products.Search(reqCtx, filter); err == nil {
			data["Products"] = products
			render(ctx, http.StatusOK, "product_index.html", data)
			return
		}
	}
	if !isFormError(err) {
		respondWithError(ctx, c.log, err)
		return
	}
	data["Errors"] = formErrors(err)
	render(ctx, http.StatusBadRequest, "product_index.html", data)
}

// Search answers the live search box: the table rows for script callers and
// JSON for everyone else.
func (c *ProductController) Search(ctx *gin.Context) {
	filter, err := parseFilter(ctx)
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, publicMessage(err))
		return
	}

	products, err := c.products.Search(ctx.Request.Context(), filter)
	if err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			c.log.Error().Err(err).Msg("error in product search")
			sendErrorResponse(ctx, status, "An error occurred while searching for products. Please try again.")
			return
		}
		sendErrorResponse(ctx, status, publicMessage(err))
		return
	}

	c.log.Debug().Int("results", len(products)).Str("search", filter.SearchString).Msg("product search")
	if middlewares.IsAjax(ctx) {
		ctx.HTML(http.StatusOK, "product_rows.html", gin.H{
			"Products": products,
			"User":     middlewares.CurrentPrincipal(ctx),
		})
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"success": true, "products": products})
}

func (c *ProductController) Details(ctx *gin.Context) {
	id, err := parseID(ctx)
	if err != nil {
		respondWithError(ctx, c.log, err)
		return
	}

	product, err := c.products.GetByID(ctx.Request.Context(), id)
	if err != nil {
		respondWithError(ctx, c.log, err)
		return
	}

	if middlewares.IsAjax(ctx) {
		sendJSONResponse(ctx, http.StatusOK, gin.H{"success": true, "product": product})
		return
	}
	render(ctx, http.StatusOK, "product_details.html", gin.H{"Title": product.Name, "Product": product})
}

func (c *ProductController) renderForm(ctx *gin.Context, status int, product models.Product, errs []string) {
	categories, err := c.categories.List(ctx.Request.Context())
	if err != nil {
		respondWithError(ctx, c.log, err)
		return
	}

	title, action := "Create Product", "/Product/Create"
	if product.ID != 0 {
		title, action = "Edit Product", fmt.Sprintf("/Product/Edit/%d", product.ID)
	}
	render(ctx, status, "product_form.html", gin.H{
		"Title":      title,
		"Action":     action,
		"Product":    product,
		"Categories": categories,
		"Errors":     errs,
	})
}

type productForm struct {
	Name              string          `json:"name" form:"name"`
	Description       string          `json:"description" form:"description"`
	Price             decimal.Decimal `json:"price" form:"price"`
	QuantityInStock   int             `json:"quantityInStock" form:"quantityInStock"`
	LowStockThreshold int             `json:"lowStockThreshold" form:"lowStockThreshold"`
	CategoryID        uint            `json:"categoryId" form:"categoryId"`
	Version           uint            `json:"version" form:"version"`
}

// bindProduct reads the editable product fields. Ids, timestamps and the
// image URL never come from the request.
func bindProduct(ctx *gin.Context) (models.Product, error) {
	var form productForm
	err := ctx.ShouldBind(&form)
	product := models.Product{
		Name:              form.Name,
		Description:       form.Description,
		Price:             form.Price,
		QuantityInStock:   form.QuantityInStock,
		LowStockThreshold: form.LowStockThreshold,
		CategoryID:        form.CategoryID,
		Version:           form.Version,
	}
	if err != nil {
		return product, invalidForm(err)
	}
	return product, nil
}

// product mutation failures re-display the form for browsers and answer
// with the JSON envelope for scripts.
func (c *ProductController) mutationFailed(ctx *gin.Context, product models.Product, err error) {
	if middlewares.IsAjax(ctx) || !isFormError(err) {
		respondWithError(ctx, c.log, err)
		return
	}
	c.renderForm(ctx, statusForError(err), product, formErrors(err))
}

func (c *ProductController) CreateForm(ctx *gin.Context) {
	c.renderForm(ctx, http.StatusOK, models.Product{}, nil)
}

func (c *ProductController) Create(ctx *gin.Context) {
	product, err := bindProduct(ctx)
	if err == nil {
		err = c.products.Create(ctx.Request.Context(), middlewares.CurrentPrincipal(ctx), &product)
	}
	if err != nil {
		c.mutationFailed(ctx, product, err)
		return
	}

	if middlewares.IsAjax(ctx) {
		sendJSONResponse(ctx, http.StatusOK, gin.H{
			"success":   true,
			"message":   "Product created successfully.",
			"productId": product.ID,
		})
		return
	}
	redirectWithFlash(ctx, "/Product", "success", "Product created successfully.")
}

func (c *ProductController) EditForm(ctx *gin.Context) {
	id, err := parseID(ctx)
	if err != nil {
		respondWithError(ctx, c.log, err)
		return
	}

	product, err := c.products.GetByID(ctx.Request.Context(), id)
	if err != nil {
		respondWithError(ctx, c.log, err)
		return
	}
	c.renderForm(ctx, http.StatusOK, product.Product, nil)
}

func (c *ProductController) Edit(ctx *gin.Context) {
	id, err := parseID(ctx)
	if err != nil {
		respondWithError(ctx, c.log, err)
		return
	}

	product, err := bindProduct(ctx)
	product.ID = id
	if err == nil {
		err = c.products.Update(ctx.Request.Context(), middlewares.CurrentPrincipal(ctx), &product)
	}
	if err != nil {
		c.mutationFailed(ctx, product, err)
		return
	}

	if middlewares.IsAjax(ctx) {
		sendJSONResponse(ctx, http.StatusOK, gin.H{
			"success":   true,
			"message":   "Product updated successfully.",
			"productId": product.ID,
			"version":   product.Version,
		})
		return
	}
	redirectWithFlash(ctx, "/Product", "success", "Product updated successfully.")
}

func (c *ProductController) DeleteForm(ctx *gin.Context) {
	id, err := parseID(ctx)
	if err != nil {
		respondWithError(ctx, c.log, err)
		return
	}

	product, err := c.products.GetByID(ctx.Request.Context(), id)
	if err != nil {
		respondWithError(ctx, c.log, err)
		return
	}
	render(ctx, http.StatusOK, "product_delete.html", gin.H{"Title": "Delete Product", "Product": product})
}

func (c *ProductController) Delete(ctx *gin.Context) {
	id, err := parseID(ctx)
	if err == nil {
		err = c.products.Delete(ctx.Request.Context(), middlewares.CurrentPrincipal(ctx), id)
	}
	if err != nil {
		respondWithError(ctx, c.log, err)
		return
	}

	if middlewares.IsAjax(ctx) {
		sendJSONResponse(ctx, http.StatusOK, gin.H{"success": true, "message": "Product deleted successfully.", "productId": id})
		return
	}
	redirectWithFlash(ctx, "/Product", "success", "Product deleted successfully.")
}

// UploadImage stores the multipart field "image" as the product picture.
func (c *ProductController) UploadImage(ctx *gin.Context) {
	id, err := parseID(ctx)
	if err != nil {
		respondWithError(ctx, c.log, err)
		return
	}

	file, err := ctx.FormFile("image")
	if err != nil {
		respondWithError(ctx, c.log, &services.ValidationError{Messages: []string{"Please choose an image to upload."}})
		return
	}
	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		respondWithError(ctx, c.log, &services.ValidationError{Messages: []string{"Only image files can be uploaded."}})
		return
	}
	if file.Size > maxImageSize {
		respondWithError(ctx, c.log, &services.ValidationError{Messages: []string{"Images must be 5 MB or smaller."}})
		return
	}

	f, err := file.Open()
	if err != nil {
		respondWithError(ctx, c.log, fmt.Errorf("failed to open uploaded file: %w", err))
		return
	}
	defer f.Close()

	url, err := c.products.UploadImage(ctx.Request.Context(), middlewares.CurrentPrincipal(ctx), id, file.Filename, contentType, f)
	if err != nil {
		respondWithError(ctx, c.log, err)
		return
	}

	if middlewares.IsAjax(ctx) {
		sendJSONResponse(ctx, http.StatusOK, gin.H{"success": true, "message": "Image uploaded successfully.", "productId": id, "imageUrl": url})
		return
	}
	redirectWithFlash(ctx, fmt.Sprintf("/Product/Details/%d", id), "success", "Image uploaded successfully.")
}
