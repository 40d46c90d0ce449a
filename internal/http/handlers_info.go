package httpx

import (
	"net/http"

	domainauth "github.com/target/movielib/internal/domain/auth"
)

// InfoHandler serves GET /api/info. It relies on IsAuthenticated having run.
type InfoHandler struct {
	Project string
	Version string
}

type infoResponse struct {
	Project       string              `json:"project"`
	Version       string              `json:"version"`
	Authenticated bool                `json:"authenticated"`
	User          *domainauth.Profile `json:"user"`
}

func (h *InfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	st := AuthStatusFromContext(r.Context())
	WriteJSON(w, http.StatusOK, infoResponse{
		Project:       h.Project,
		Version:       h.Version,
		Authenticated: st.Authenticated,
		User:          st.Profile,
	})
}
