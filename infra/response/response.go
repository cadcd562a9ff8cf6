package response

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
)

// DonationResult is the flat JSON envelope returned by the donation
// endpoints. Which optional fields are set depends on the provider flow.
type DonationResult struct {
	Success   bool   `json:"success"`
	Reference string `json:"reference,omitempty"`
	URL       string `json:"url,omitempty"`
	Token     string `json:"token,omitempty"`
	PaymentID string `json:"paymentID,omitempty"`
	Error     string `json:"error,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, statusCode int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(v)
}

// Success writes a successful donation envelope
func Success(w http.ResponseWriter, result DonationResult) {
	result.Success = true
	_ = WriteJSON(w, http.StatusOK, result)
}

// DonorError writes the donor-facing error envelope. The message always
// carries the contact suffix so the donor knows what to do next.
func DonorError(w http.ResponseWriter, statusCode int, message string) {
	if !strings.HasSuffix(message, ".") {
		message += "."
	}
	_ = WriteJSON(w, statusCode, DonationResult{
		Success: false,
		Error:   message + " Please contact us.",
	})
}

// ConfirmationScript writes the closing-script HTML document served to the
// provider's return leg. It runs inside the payment popup/iframe and hands
// control back to the opener page.
func ConfirmationScript(w http.ResponseWriter, call string) {
	// The document must be framable by the opener.
	w.Header().Del("X-Frame-Options")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `<!doctype html>
<html><head><meta charset="utf-8"><script>
var mainWindow = (window == top) ? /* mobile */ window.opener : /* iframe */ parent;
mainWindow.%s;
</script></head><body></body></html>
`, call)
}

// ShowConfirmationCall returns the opener call that reveals the thank-you
// step after a completed payment.
func ShowConfirmationCall() string {
	return "showConfirmation('payment')"
}

// UnlockCall returns the opener call that re-enables the form after a
// failed or abandoned payment, optionally surfacing a message.
func UnlockCall(message string) string {
	if message == "" {
		return "hideFrame()"
	}
	return fmt.Sprintf("alertAndUnlock(%q)", html.EscapeString(message))
}
