package postapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

// signatureHeader carries the hex HMAC-SHA256 of the raw request body, keyed
// with the shared webhook secret.
const signatureHeader = "X-Webhook-Signature"

// handleWebhookUpsert ingests a post from the external automation tool.
// The operation is an upsert keyed by slug: redelivered payloads refresh the
// existing row instead of creating duplicates.
func (a *App) handleWebhookUpsert(c echo.Context) error {
	if !a.limiter.Check(c.RealIP()) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read request body")
	}
	if !a.verifySignature(body, c.Request().Header.Get(signatureHeader)) {
		a.limiter.Record(c.RealIP())
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid signature")
	}

	var in PostInput
	if err := json.Unmarshal(body, &in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	post, err := a.Store.UpsertBySlug(in)
	if err != nil {
		return err
	}
	a.Cache.Invalidate()
	return c.JSON(http.StatusOK, post)
}

func (a *App) verifySignature(body []byte, signature string) bool {
	got, err := hex.DecodeString(signature)
	if err != nil || len(got) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, []byte(a.Config.WebhookSecret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// SignWebhookBody computes the signature the webhook endpoint expects for
// body. Exposed for callers and tests that produce signed deliveries.
func SignWebhookBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
