package v1

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/adapter/llm"
)

// cannedBackend answers every request with reply.
type cannedBackend struct {
	reply string
}

func (b cannedBackend) CreateChatCompletion(ctx context.Context, req *llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error) {
	return &llm.ChatCompletionResponse{
		Choices: []llm.Choice{{Message: &llm.ChatMessage{Role: llm.RoleAssistant, Content: b.reply}}},
	}, nil
}

func base64PNG(t *testing.T) string {
	t.Helper()
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestGenerateCocktailMultipart(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t, cannedBackend{reply: `{"name": "Aperol Spritz", "strength": "Light"}`})

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("description", "orange aperitivo"))
	part, err := w.CreateFormFile("image", "bottle.png")
	require.NoError(t, err)
	_, err = part.Write(pngBytes(t))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/cocktails", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()

	require.NoError(t, h.GenerateCocktail(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"name": "Aperol Spritz", "strength": "Light"}`, rec.Body.String())
}

func TestGenerateCocktailMissingImage(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t, cannedBackend{reply: "{}"})

	c, rec := postJSON(t, e, "/v1/cocktails", `{"description":"orange aperitivo"}`)
	require.NoError(t, h.GenerateCocktail(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec), "image and description are required")
}

func TestGenerateCocktailUnparseableReply(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t, cannedBackend{reply: "I think it is rum."})

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("description", "dark bottle"))
	part, err := w.CreateFormFile("image", "bottle.png")
	require.NoError(t, err)
	_, err = part.Write(pngBytes(t))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/cocktails", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()

	require.NoError(t, h.GenerateCocktail(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestGenerateRecipe(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t, nil)

	payload, _ := json.Marshal(map[string]string{"image_base64": base64PNG(t)})
	c, rec := postJSON(t, e, "/v1/recipes", string(payload))
	require.NoError(t, h.GenerateRecipe(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["recipe"])

	c, rec = postJSON(t, e, "/v1/recipes", `{}`)
	require.NoError(t, h.GenerateRecipe(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecommendDrink(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t, cannedBackend{reply: `{"drink": {"name": "Caipirinha"}, "food_pairings": []}`})

	c, rec := postJSON(t, e, "/v1/drinks/recommend", `{"mood":"relaxed","weather":"hot","location":"Rio"}`)
	require.NoError(t, h.RecommendDrink(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Location       string `json:"location"`
		Recommendation struct {
			Drink struct {
				Name  string `json:"name"`
				Image string `json:"image"`
			} `json:"drink"`
		} `json:"recommendation"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Rio", body.Location)
	assert.Equal(t, "Caipirinha", body.Recommendation.Drink.Name)
	assert.NotEmpty(t, body.Recommendation.Drink.Image)

	c, rec = postJSON(t, e, "/v1/drinks/recommend", `{"mood":"relaxed","weather":"hot"}`)
	require.NoError(t, h.RecommendDrink(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec), "missing or empty field: location")
}

func TestGetBrands(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t, cannedBackend{reply: `[{"brand_name":"Guinness","description":"Irish stout.","category":"beer"}]`})

	req := httptest.NewRequest(http.MethodGet, "/v1/brands?location=Dublin", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.GetBrands(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"brand_name":"Guinness","description":"Irish stout.","category":"beer"}]`, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/v1/brands", nil)
	rec = httptest.NewRecorder()
	require.NoError(t, h.GetBrands(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAlcoholInfoForm(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t, cannedBackend{reply: "Brand Name: Kahlua\n"})

	form := url.Values{"brand_name": {"Kahlua"}, "description": {"coffee liqueur"}}
	req := httptest.NewRequest(http.MethodPost, "/v1/alcohol-info", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()

	require.NoError(t, h.AlcoholInfo(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"result":"Brand Name: Kahlua"}`, rec.Body.String())

	c, rec := postJSON(t, e, "/v1/alcohol-info", `{"brand_name":"Kahlua"}`)
	require.NoError(t, h.AlcoholInfo(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
