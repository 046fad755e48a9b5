// internal/app/features/organizations/types.go
package organizations

import (
	"encoding/json"
	"net/http"

	"github.com/paddockops/equihub/internal/app/features/apierrors"
	"github.com/paddockops/equihub/internal/app/system/htmlsanitize"
	"github.com/paddockops/equihub/internal/app/system/modules"
	"github.com/paddockops/equihub/internal/domain/models"
)

type registerRequest struct {
	OrganizationName string `json:"organization_name"`
	City             string `json:"city"`
	Country          string `json:"country"`
	TimeZone         string `json:"time_zone"`
	ContactInfo      string `json:"contact_info"`
	AdminName        string `json:"admin_name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
}

type registerResponse struct {
	Organization models.Organization `json:"organization"`
	AdminUserID  string              `json:"admin_user_id"`
}

type modulesRequest struct {
	Modules []string `json:"modules"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		apierrors.BadRequest(w, "Request body must be valid JSON.")
		return false
	}
	return true
}

func sanitizeName(s string) string {
	return htmlsanitize.Strip(s)
}

// normalizeModules validates and dedupes a requested module key set.
// Unknown keys are returned as validation details.
func normalizeModules(keys []string) ([]string, []string) {
	known := map[string]bool{
		modules.SelectionProcesses: true,
		modules.Invoicing:          true,
		modules.Lessons:            true,
	}
	seen := map[string]bool{}
	var normalized []string
	var bad []string
	for _, k := range keys {
		if !known[k] {
			bad = append(bad, "unknown module: "+k)
			continue
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		normalized = append(normalized, k)
	}
	if normalized == nil {
		normalized = []string{}
	}
	return normalized, bad
}
