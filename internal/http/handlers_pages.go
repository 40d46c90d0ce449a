package httpx

import (
	"net/http"
)

// PageHandlers serves the minimal HTML pages.
type PageHandlers struct {
	T *TemplateRenderer
}

func (h *PageHandlers) render(w http.ResponseWriter, r *http.Request, page string) {
	data := PageData{
		Title:       pageTitles[page],
		CurrentPage: page,
		Auth:        AuthStatusFromContext(r.Context()),
		Error:       formErrorMessage(r.URL.Query().Get("error")),
	}
	if redirect := r.URL.Query().Get("redirect"); redirect != "" {
		data.Redirect = safeRedirectPath(redirect)
	}
	if err := h.T.Render(w, http.StatusOK, data); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// Home serves GET /.
func (h *PageHandlers) Home(w http.ResponseWriter, r *http.Request) { h.render(w, r, PageHome) }

// Login serves GET /login.
func (h *PageHandlers) Login(w http.ResponseWriter, r *http.Request) { h.render(w, r, PageLogin) }

// Register serves GET /register.
func (h *PageHandlers) Register(w http.ResponseWriter, r *http.Request) { h.render(w, r, PageRegister) }

// Account serves GET /account.
func (h *PageHandlers) Account(w http.ResponseWriter, r *http.Request) { h.render(w, r, PageAccount) }
