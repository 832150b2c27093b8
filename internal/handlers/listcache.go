package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cinetheque/api/internal/cache"
	"github.com/cinetheque/api/internal/middleware"
	"github.com/cinetheque/api/pkg/errors"
	"github.com/cinetheque/api/pkg/response"
)

// listMeta builds pagination metadata for a list response.
func listMeta(page, perPage int, total int64) *response.Meta {
	totalPages := 0
	if perPage > 0 {
		totalPages = int((total + int64(perPage) - 1) / int64(perPage))
	}
	return &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      int(total),
		TotalPages: totalPages,
	}
}

// serveCachedList replays a cached payload for this list request when one
// exists. It returns the versioned key for a later store and whether the
// response has already been written.
func serveCachedList(c *gin.Context, lists *cache.ListCache, prefix string) (string, bool) {
	if lists == nil {
		return "", false
	}

	key, payload, hit := lists.Fetch(requestContext(c), prefix, middleware.CurrentUserID(c), c.Request.URL.RawQuery)
	if hit {
		response.RawJSON(c, http.StatusOK, payload)
		return key, true
	}
	return key, false
}

// writeAndCacheList serialises the list envelope once, stores it under the
// versioned key and writes it to the client.
func writeAndCacheList(c *gin.Context, lists *cache.ListCache, key string, data interface{}, meta *response.Meta) {
	envelope := response.Response{
		Success: true,
		Data:    data,
		Meta:    meta,
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}

	if lists != nil && key != "" {
		lists.Save(requestContext(c), key, payload)
	}
	response.RawJSON(c, http.StatusOK, payload)
}
