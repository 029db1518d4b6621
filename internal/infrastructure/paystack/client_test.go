package paystack

import (
	"context"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "sk_test_secret"

func TestClient_Verify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/verify/dues_1772366400000", r.URL.Path)
		assert.Equal(t, "Bearer "+secret, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":true,"message":"Verification successful","data":{
			"status":"success","reference":"dues_1772366400000","amount":1000,"currency":"GHS",
			"customer":{"email":"kofi@loga.com"},"metadata":{"user_id":"m1","kind":"dues"}}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, secret, time.Second)
	vp, err := c.Verify(context.Background(), "dues_1772366400000")
	require.NoError(t, err)

	assert.Equal(t, "success", vp.Status)
	assert.Equal(t, int64(1000), vp.AmountMinor)
	assert.Equal(t, "GHS", vp.Currency)
	assert.Equal(t, "kofi@loga.com", vp.Email)
	assert.Equal(t, "m1", vp.Metadata["user_id"])
}

func TestClient_VerifyEmptyMetadataAndFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/transaction/verify/missing" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"status":false,"message":"Transaction reference not found"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":true,"data":{"status":"abandoned","reference":"donate_1","amount":5000,"metadata":""}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, secret, time.Second)

	vp, err := c.Verify(context.Background(), "donate_1")
	require.NoError(t, err)
	assert.Equal(t, "abandoned", vp.Status)
	assert.Empty(t, vp.Metadata)

	_, err = c.Verify(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Transaction reference not found")
}

func TestClient_ParseWebhook(t *testing.T) {
	c := NewClient("", secret, 0)
	body := []byte(`{"event":"charge.success","data":{"status":"success","reference":"donate_7","amount":5000,
		"currency":"GHS","customer":{"email":"ama@loga.com"},"metadata":{"name":"Ama"}}}`)
	sig := hex.EncodeToString(Sign(body, secret))

	ev, ok, err := c.ParseWebhook(body, sig)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "donate_7", ev.Reference)
	assert.Equal(t, int64(5000), ev.AmountMinor)
	assert.Equal(t, "Ama", ev.Metadata["name"])

	_, _, err = c.ParseWebhook(body, hex.EncodeToString(Sign(body, "wrong")))
	assert.ErrorIs(t, err, ErrBadSignature)

	_, _, err = c.ParseWebhook(body, "not-hex")
	assert.ErrorIs(t, err, ErrBadSignature)

	other := []byte(`{"event":"transfer.success","data":{}}`)
	_, ok, err = c.ParseWebhook(other, hex.EncodeToString(Sign(other, secret)))
	require.NoError(t, err)
	assert.False(t, ok)
}
