package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/xuxiaoleilancy/ai-codehub/internal/apiclient"
	"github.com/xuxiaoleilancy/ai-codehub/internal/catalog"
	"github.com/xuxiaoleilancy/ai-codehub/internal/flash"
	"github.com/xuxiaoleilancy/ai-codehub/internal/service"
	"github.com/xuxiaoleilancy/ai-codehub/internal/views"
)

const modelsPath = "/models"

func modelPath(name string) string {
	return modelsPath + "/" + url.PathEscape(name)
}

func (h HandlerSet) ListModels(c *gin.Context) {
	var criteria catalog.Criteria
	if err := c.ShouldBindQuery(&criteria); err != nil {
		criteria = catalog.Criteria{}
	}

	data := views.ModelsData{
		Criteria:  criteria,
		ExportURL: "/export/models.xlsx",
	}
	if raw := c.Request.URL.RawQuery; raw != "" {
		data.ExportURL += "?" + raw
	}

	listing, err := h.modelService.List(c.Request.Context(), h.token(c), criteria)
	if err != nil {
		if apiclient.IsStatus(err, http.StatusUnauthorized) {
			h.sessionLost(c)
			return
		}
		h.log.Warn().Err(err).Msg("list models failed")
		data.LoadFailed = true
		notice := flash.Error("models_load_failed", apiclient.Detail(err))
		h.render(c, http.StatusOK, views.PageModels, "models", data, &notice)
		return
	}

	data.Models = listing.Filtered
	data.Frameworks = catalog.Frameworks(listing.All)
	data.TaskTypes = catalog.TaskTypes(listing.All)
	h.render(c, http.StatusOK, views.PageModels, "models", data, nil)
}

func (h HandlerSet) ModelDetails(c *gin.Context) {
	model, err := h.modelService.Get(c.Request.Context(), h.token(c), c.Param("name"))
	if err != nil {
		h.backendFailed(c, err, "model_load_failed", modelsPath)
		return
	}
	h.render(c, http.StatusOK, views.PageModel, "model_details", views.ModelData{Model: model}, nil)
}

func (h HandlerSet) UploadModel(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.redirect(c, modelsPath, flash.Error("model_upload_failed", ""))
		return
	}
	defer file.Close()

	err = h.modelService.Upload(c.Request.Context(), h.token(c), apiclient.UploadInput{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		Version:     c.PostForm("version"),
		Framework:   c.PostForm("framework"),
		TaskType:    c.PostForm("task_type"),
		FileName:    header.Filename,
		File:        file,
	})
	switch {
	case err == nil:
		h.redirect(c, modelsPath, flash.Success("model_uploaded"))
	case errors.Is(err, service.ErrInvalidUpload):
		h.redirect(c, modelsPath, flash.Error("model_upload_failed", ""))
	default:
		h.backendFailed(c, err, "model_upload_failed", modelsPath)
	}
}

func (h HandlerSet) UpdateModel(c *gin.Context) {
	name := c.Param("name")
	err := h.modelService.Update(c.Request.Context(), h.token(c), name, service.EditInput{
		Description:         c.PostForm("description"),
		Version:             c.PostForm("version"),
		OriginalDescription: c.PostForm("original_description"),
		OriginalVersion:     c.PostForm("original_version"),
	})
	switch {
	case err == nil:
		h.redirect(c, modelsPath, flash.Success("model_updated"))
	case errors.Is(err, service.ErrNothingToUpdate):
		h.redirect(c, modelPath(name), flash.Info("model_nothing_to_update"))
	default:
		h.backendFailed(c, err, "model_update_failed", modelPath(name))
	}
}

func (h HandlerSet) DeleteModel(c *gin.Context) {
	name := c.Param("name")
	if err := h.modelService.Delete(c.Request.Context(), h.token(c), name); err != nil {
		h.backendFailed(c, err, "model_delete_failed", modelPath(name))
		return
	}
	h.redirect(c, modelsPath, flash.Success("model_deleted"))
}
