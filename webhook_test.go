package postapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedHeader(body string) map[string]string {
	return map[string]string{signatureHeader: SignWebhookBody(testWebhookSecret, []byte(body))}
}

func TestWebhookRejectsUnsigned(t *testing.T) {
	app := setupTestApp(t)

	body := `{"title":"Unsigned","contentMarkdown":"x"}`
	rec := doRequest(t, app, http.MethodPost, "/api/webhook/posts", body, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, app, http.MethodPost, "/api/webhook/posts", body,
		map[string]string{signatureHeader: "deadbeef"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, app, http.MethodPost, "/api/webhook/posts", body,
		map[string]string{signatureHeader: SignWebhookBody("wrong-secret", []byte(body))})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Nothing was stored.
	result, err := app.Store.List(ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total)
}

func TestWebhookUpsertCreates(t *testing.T) {
	app := setupTestApp(t)

	body := `{"title":"Automated Delivery","contentMarkdown":"# v1","tags":["news"]}`
	rec := doRequest(t, app, http.MethodPost, "/api/webhook/posts", body, signedHeader(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	post := decodeJSON[Post](t, rec)
	assert.Equal(t, "automated-delivery", post.Slug)
	assert.Equal(t, []string{"news"}, post.Tags)
	assert.Equal(t, StatusPublished, post.Status)
}

func TestWebhookRedeliveryIsIdempotent(t *testing.T) {
	app := setupTestApp(t)

	body := `{"title":"Redelivered","contentMarkdown":"# v1"}`
	rec := doRequest(t, app, http.MethodPost, "/api/webhook/posts", body, signedHeader(body))
	require.Equal(t, http.StatusOK, rec.Code)
	first := decodeJSON[Post](t, rec)

	rec = doRequest(t, app, http.MethodPost, "/api/webhook/posts", body, signedHeader(body))
	require.Equal(t, http.StatusOK, rec.Code)
	second := decodeJSON[Post](t, rec)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	result, err := app.Store.List(ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)

	// An updated payload for the same slug refreshes the row in place.
	body = `{"title":"Redelivered","contentMarkdown":"# v2"}`
	rec = doRequest(t, app, http.MethodPost, "/api/webhook/posts", body, signedHeader(body))
	require.Equal(t, http.StatusOK, rec.Code)
	third := decodeJSON[Post](t, rec)
	assert.Equal(t, first.ID, third.ID)
	assert.Equal(t, "# v2", third.ContentMarkdown)
}

func TestWebhookMalformedBody(t *testing.T) {
	app := setupTestApp(t)

	body := `{not valid json`
	rec := doRequest(t, app, http.MethodPost, "/api/webhook/posts", body, signedHeader(body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body = `{"contentMarkdown":"missing title"}`
	rec = doRequest(t, app, http.MethodPost, "/api/webhook/posts", body, signedHeader(body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignWebhookBody(t *testing.T) {
	a := SignWebhookBody("secret", []byte("payload"))
	b := SignWebhookBody("secret", []byte("payload"))
	c := SignWebhookBody("other", []byte("payload"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64) // hex SHA-256
}
