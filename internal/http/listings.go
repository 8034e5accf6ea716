package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/denisok6893-rgb/property-exchange-matching/internal/domain"
	"github.com/denisok6893-rgb/property-exchange-matching/internal/storage"
)

type ListingsListResponse struct {
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
	Total  int              `json:"total"`
	Items  []domain.Listing `json:"items"`
}

func (s *Server) handleListingsList(c *gin.Context) {
	limit, offset := parseLimitOffset(c, 20, 0)

	params := storage.ListParams{
		Location:    c.Query("location"),
		MinPrice:    queryInt64(c, "min_price"),
		MaxPrice:    queryInt64(c, "max_price"),
		MinBedrooms: int(queryInt64(c, "min_bedrooms")),
		Sort:        c.Query("sort"),
		Limit:       limit,
		Offset:      offset,
	}

	items, total, err := s.repo.List(c.Request.Context(), params)
	if err != nil {
		s.internalError(c, err)
		return
	}
	if items == nil {
		items = []domain.Listing{}
	}

	c.JSON(http.StatusOK, ListingsListResponse{
		Limit:  limit,
		Offset: offset,
		Total:  total,
		Items:  items,
	})
}

func (s *Server) handleListingsGet(c *gin.Context) {
	l, err := s.repo.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, storage.ErrNotFound) {
		writeError(c, http.StatusNotFound, "not_found")
		return
	}
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (s *Server) handleListingsCreate(c *gin.Context) {
	var l domain.Listing
	if err := c.ShouldBindJSON(&l); err != nil {
		writeError(c, http.StatusBadRequest, "invalid JSON")
		return
	}
	// ids are always assigned by the store
	l.ID = ""

	created, err := s.repo.Create(c.Request.Context(), l)
	if errors.Is(err, domain.ErrMalformedListing) {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.internalError(c, err)
		return
	}
	s.logger.Debug("listing created", zap.String("id", created.ID))
	c.JSON(http.StatusCreated, created)
}

func (s *Server) handleListingsDelete(c *gin.Context) {
	err := s.repo.Delete(c.Request.Context(), c.Param("id"))
	if errors.Is(err, storage.ErrNotFound) {
		writeError(c, http.StatusNotFound, "not_found")
		return
	}
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func parseLimitOffset(c *gin.Context, defLimit, defOffset int) (int, int) {
	limit := defLimit
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit <= 0 {
		limit = defLimit
	}
	// safety cap
	if limit > 200 {
		limit = 200
	}

	offset := defOffset
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = defOffset
	}

	return limit, offset
}

// queryInt64 treats a missing or unparsable value as "no filter".
func queryInt64(c *gin.Context, key string) int64 {
	n, err := strconv.ParseInt(c.Query(key), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
