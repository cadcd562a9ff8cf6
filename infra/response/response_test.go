package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	Success(w, DonationResult{Reference: "TREE-4X7K"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var result map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, true, result["success"])
	assert.Equal(t, "TREE-4X7K", result["reference"])
	assert.NotContains(t, result, "error")
}

func TestDonorError_AppendsContactSuffix(t *testing.T) {
	w := httptest.NewRecorder()
	DonorError(w, http.StatusBadRequest, "Invalid amount")

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var result map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, false, result["success"])
	assert.Equal(t, "Invalid amount. Please contact us.", result["error"])
}

func TestDonorError_NoDoublePeriod(t *testing.T) {
	w := httptest.NewRecorder()
	DonorError(w, http.StatusBadRequest, "Invalid amount.")

	var result map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "Invalid amount. Please contact us.", result["error"])
}

func TestConfirmationScript(t *testing.T) {
	w := httptest.NewRecorder()
	w.Header().Set("X-Frame-Options", "DENY")
	ConfirmationScript(w, ShowConfirmationCall())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Empty(t, w.Header().Get("X-Frame-Options"))
	assert.Contains(t, w.Body.String(), "mainWindow.showConfirmation('payment');")
}

func TestUnlockCall(t *testing.T) {
	assert.Equal(t, "hideFrame()", UnlockCall(""))
	assert.Equal(t, `alertAndUnlock("Card was declined")`, UnlockCall("Card was declined"))

	// Messages are escaped before being embedded in the script
	assert.NotContains(t, UnlockCall(`<script>alert(1)</script>`), "<script>")
}
