package web

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// filingIDFor picks the id a request's filing is reported under: the id
// query parameter, else the stem of the uploaded file name, else a random
// id.
func filingIDFor(r *http.Request, filename string) string {
	if id := strings.TrimSpace(r.URL.Query().Get("id")); id != "" {
		return id
	}
	if filename != "" {
		base := filepath.Base(filename)
		if stem := strings.TrimSuffix(base, filepath.Ext(base)); stem != "" && stem != "." {
			return stem
		}
	}
	return "upload-" + uuid.NewString()
}
