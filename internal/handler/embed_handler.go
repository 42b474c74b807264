package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/embedserver/internal/model"
	"github.com/xxxsen/embedserver/internal/pkg/errcode"
	"github.com/xxxsen/embedserver/internal/pkg/response"
	"github.com/xxxsen/embedserver/internal/service"
)

type EmbedHandler struct {
	embed *service.EmbedService
}

func NewEmbedHandler(embed *service.EmbedService) *EmbedHandler {
	return &EmbedHandler{embed: embed}
}

type generateUnit struct {
	ID          int64  `json:"id"`
	Text        string `json:"text"`
	TextToEmbed string `json:"text_to_embed"`
}

type generateRequest struct {
	Data         []generateUnit `json:"data"`
	ChunkSize    *int           `json:"chunk_size"`
	ChunkOverlap *int           `json:"chunk_overlap"`
}

type setModelRequest struct {
	Model string `json:"model"`
}

func (h *EmbedHandler) Hello(c *gin.Context) {
	response.Success(c, "Hello!")
}

func (h *EmbedHandler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	units := make([]model.EmbeddingRequestUnit, 0, len(req.Data))
	for _, item := range req.Data {
		text := item.Text
		if text == "" {
			text = item.TextToEmbed
		}
		units = append(units, model.EmbeddingRequestUnit{ID: item.ID, Text: text})
	}
	resp, err := h.embed.Generate(c.Request.Context(), service.GenerateInput{
		Data:         units,
		ChunkSize:    req.ChunkSize,
		ChunkOverlap: req.ChunkOverlap,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, resp)
}

func (h *EmbedHandler) ModelInfo(c *gin.Context) {
	info, err := h.embed.ModelInfo(c.Query("name"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, info)
}

func (h *EmbedHandler) AvailableModels(c *gin.Context) {
	response.Success(c, h.embed.AvailableModels())
}

func (h *EmbedHandler) SetModelName(c *gin.Context) {
	var req setModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	info, err := h.embed.SetModel(c.Request.Context(), req.Model)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, info)
}
