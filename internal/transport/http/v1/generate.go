package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/domain"
)

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

func errorJSON(c echo.Context, err error) error {
	return c.JSON(statusFor(err), map[string]string{"error": err.Error()})
}

// GenerateCocktail returns a structured cocktail recipe for a bottle photo.
// POST /v1/cocktails
//
// Accepts a multipart form with an image file and description, or JSON
// {description, image_base64}.
func (h *Handler) GenerateCocktail(c echo.Context) error {
	var req domain.CocktailRequest
	if isMultipart(c) {
		data, _, err := formImage(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		req.Image = data
		req.Description = c.FormValue("description")
	} else if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	cocktail, err := h.service.Cocktail(c.Request().Context(), req)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSONBlob(http.StatusOK, cocktail)
}

// GenerateRecipe returns a formatted text recipe for a bottle photo.
// POST /v1/recipes
func (h *Handler) GenerateRecipe(c echo.Context) error {
	var data []byte
	var body struct {
		ImageBase64 string `json:"image_base64"`
	}
	if isMultipart(c) {
		var err error
		if data, _, err = formImage(c); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
	} else if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	recipe, err := h.service.RecipeCard(c.Request().Context(), data, body.ImageBase64)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"recipe": recipe})
}

// RecommendDrink suggests a drink and food pairings.
// POST /v1/drinks/recommend
func (h *Handler) RecommendDrink(c echo.Context) error {
	var q domain.DrinkQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid JSON data"})
	}

	rec, err := h.service.RecommendDrink(c.Request().Context(), q)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"mood":           q.Mood,
		"weather":        q.Weather,
		"location":       q.Location,
		"recommendation": rec,
	})
}

// GetBrands lists popular brands for a location.
// GET /v1/brands?location=
func (h *Handler) GetBrands(c echo.Context) error {
	brands, err := h.service.Brands(c.Request().Context(), c.QueryParam("location"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, brands)
}

// AlcoholInfo returns a formatted brand sheet.
// POST /v1/alcohol-info
//
// Accepts form or JSON fields brand_name and description.
func (h *Handler) AlcoholInfo(c echo.Context) error {
	var req struct {
		BrandName   string `json:"brand_name" form:"brand_name"`
		Description string `json:"description" form:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	result, err := h.service.AlcoholInfo(c.Request().Context(), req.BrandName, req.Description)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"result": result})
}
