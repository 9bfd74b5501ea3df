package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketbay/fulfillment/internal/domain/fault"
)

// oversizedUpload builds a multipart body whose image part alone exceeds the
// upload cap.
func oversizedUpload(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("order_item_id", "item-1"))
	fw, err := mw.CreateFormFile("image", "proof.jpg")
	require.NoError(t, err)
	_, err = fw.Write(bytes.Repeat([]byte{'x'}, maxUploadBytes+1))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestCreateReturn_RejectsOversizedUpload(t *testing.T) {
	body, contentType := oversizedUpload(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/returns", body)
	req.Header.Set("Content-Type", contentType)

	// The body cap trips during parsing, before any service is reached.
	(&Handler{}).createReturn(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(fault.KindInvalidInput), resp.Kind)
}

func TestCreateExchange_RejectsOversizedUpload(t *testing.T) {
	body, contentType := oversizedUpload(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/exchanges", body)
	req.Header.Set("Content-Type", contentType)

	(&Handler{}).createExchange(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(fault.KindInvalidInput), resp.Kind)
}
