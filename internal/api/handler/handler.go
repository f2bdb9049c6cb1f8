package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/schema"

	"github.com/krishkrishna03/techex-sub003/internal/api/middleware"
	"github.com/krishkrishna03/techex-sub003/internal/common"
	"github.com/krishkrishna03/techex-sub003/internal/domain/model"
)

const maxBodyBytes = 1 << 20

var queryDecoder *schema.Decoder

func init() {
	queryDecoder = schema.NewDecoder()
	queryDecoder.IgnoreUnknownKeys(true)
}

// Paginated is the envelope for every list endpoint.
type Paginated[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

func principal(w http.ResponseWriter, r *http.Request) (model.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
	}
	return p, ok
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return false
	}
	return true
}

func decodeQuery(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := queryDecoder.Decode(dst, r.URL.Query()); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid query: %v", err))
		return false
	}
	return true
}

func pageBounds(page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}
