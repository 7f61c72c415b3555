package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xuxiaoleilancy/ai-codehub/internal/catalog"
	"github.com/xuxiaoleilancy/ai-codehub/internal/export"
	"github.com/xuxiaoleilancy/ai-codehub/internal/flash"
	"github.com/xuxiaoleilancy/ai-codehub/internal/middleware"
)

// ExportModels downloads the filtered catalog as an Excel workbook with
// column titles in the visitor's language.
func (h HandlerSet) ExportModels(c *gin.Context) {
	var criteria catalog.Criteria
	if err := c.ShouldBindQuery(&criteria); err != nil {
		criteria = catalog.Criteria{}
	}

	back := modelsPath
	if raw := c.Request.URL.RawQuery; raw != "" {
		back += "?" + raw
	}

	listing, err := h.modelService.List(c.Request.Context(), h.token(c), criteria)
	if err != nil {
		h.backendFailed(c, err, "model_export_failed", back)
		return
	}

	engine := h.engine(c, middleware.Manager(c))
	var buf bytes.Buffer
	if err := export.WriteModels(&buf, listing.Filtered, engine.Resolve); err != nil {
		h.log.Error().Err(err).Msg("build workbook failed")
		h.redirect(c, back, flash.Error("model_export_failed", ""))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"models_%s.xlsx\"", time.Now().Format("20060102")))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}
