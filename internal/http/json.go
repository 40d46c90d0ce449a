package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
)

// maxBodyBytes caps request bodies read by DecodeBody.
const maxBodyBytes = 1 << 20

// DecodeJSON decodes JSON from the request body into the destination and handles errors.
// Returns true if successful, false if there was an error (error response already written).
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_json", Err: err})
		return false
	}

	return true
}

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}

// ErrorParams groups parameters for WriteError to adhere to the ≤3 params guideline.
type ErrorParams struct {
	Code    int
	ErrCode string
	Err     error
	// Details lists individual problems (validation failures).
	Details []string
}

type errorBody struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// WriteError writes a JSON error response using ErrorParams.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	msg := http.StatusText(p.Code)
	if p.Err != nil {
		msg = p.Err.Error()
	}
	WriteJSON(w, p.Code, errorBody{Error: p.ErrCode, Message: msg, Details: p.Details})
}

const (
	formURLEncoded = "application/x-www-form-urlencoded"
	formMultipart  = "multipart/form-data"
)

// formMediaType returns the form media type of the body, or "" for non-form bodies.
func formMediaType(r *http.Request) string {
	ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	if ct == formURLEncoded || ct == formMultipart {
		return ct
	}
	return ""
}

// isFormRequest reports whether the body is an HTML form submission.
func isFormRequest(r *http.Request) bool { return formMediaType(r) != "" }

// parseForm fills r.PostForm for both urlencoded and multipart bodies.
func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if formMediaType(r) == formMultipart {
		return r.ParseMultipartForm(maxBodyBytes)
	}
	return r.ParseForm()
}

// DecodeBody reads either a JSON body or a form (urlencoded or multipart) into dst.
// For forms, fill receives the parsed values. Returns false once an error
// response has been written.
func DecodeBody(w http.ResponseWriter, r *http.Request, dst any, fill func(get func(string) string)) bool {
	if !isFormRequest(r) {
		return DecodeJSON(w, r, dst)
	}
	if err := parseForm(w, r); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_form", Err: errors.New("invalid form body")})
		return false
	}
	fill(r.PostForm.Get)
	return true
}
