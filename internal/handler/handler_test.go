package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/xxxsen/embedserver/internal/ai"
	"github.com/xxxsen/embedserver/internal/embedding"
	"github.com/xxxsen/embedserver/internal/handler"
	"github.com/xxxsen/embedserver/internal/middleware"
	"github.com/xxxsen/embedserver/internal/model"
	"github.com/xxxsen/embedserver/internal/pkg/errcode"
	"github.com/xxxsen/embedserver/internal/pkg/jwt"
	"github.com/xxxsen/embedserver/internal/registry"
	"github.com/xxxsen/embedserver/internal/service"
	"github.com/xxxsen/embedserver/internal/state"
)

type envelope struct {
	Code int             `json:"code"`
	Data json.RawMessage `json:"data"`
}

type stubEmbedder struct {
	name string
	dim  int
}

func (s stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = make([]float32, s.dim)
		out[i][0] = float32(len([]rune(t)))
	}
	return out, nil
}

func (s stubEmbedder) ModelName() string {
	return s.name
}

type stubLoader struct {
	reg *registry.Registry
}

func (l stubLoader) Load(ctx context.Context, src registry.Source) (ai.IEmbedder, error) {
	desc, err := l.reg.Describe(src)
	if err != nil {
		return nil, err
	}
	return stubEmbedder{name: desc.Name, dim: desc.Dimension}, nil
}

var adminSecret = []byte("admin-secret")

func setupRouter(t *testing.T, ready func(ctx context.Context) error) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := registry.New([]registry.CatalogEntry{
		{Name: "model-a", Dimension: 4, Description: "a"},
		{Name: "model-b", Dimension: 8, Description: "b"},
	})
	slot := state.NewSlot(reg, stubLoader{reg: reg})
	_, err := slot.SetAndReload(context.Background(), "model-a")
	require.NoError(t, err)
	svc := service.NewEmbedService(reg, slot, embedding.NewPipeline(), embedding.ChunkOptions{Size: 10, Overlap: 3})

	checkers := []handler.Checker{{Name: "model", Check: func(ctx context.Context) error { return svc.Ready() }}}
	if ready != nil {
		checkers = append(checkers, handler.Checker{Name: "database", Check: ready})
	}
	deps := handler.RouterDeps{
		Embed:          handler.NewEmbedHandler(svc),
		Health:         handler.NewHealthHandler(checkers...),
		AdminJWTSecret: adminSecret,
		SetModelWindow: 0,
	}
	engine, err := webapi.NewEngine(
		"/",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(nil),
		),
	)
	require.NoError(t, err)
	return engine
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}, header map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	var env envelope
	_ = json.Unmarshal(resp.Body.Bytes(), &env)
	return resp, env
}

func TestGenerate(t *testing.T) {
	router := setupRouter(t, nil)
	body := map[string]interface{}{
		"data": []map[string]interface{}{
			{"id": 1, "text": "abcdefghijklmnopqrstuvwxy"},
			{"id": 2, "text_to_embed": "hello"},
			{"id": 1, "text": ""},
		},
	}
	resp, env := doJSON(t, router, http.MethodPost, "/embed/generate", body, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, 0, env.Code)

	var out model.EmbeddingResponse
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.Equal(t, 3, out.NumberOfDocuments)
	require.Equal(t, 3, out.NumberOfChunkGroups)
	require.Equal(t, 5, out.NumberOfChunks)
	require.Equal(t, "model-a", out.Model)
	require.Len(t, out.Embeddings[0].Embeddings, 4)
	require.Equal(t, float32(5), out.Embeddings[1].Embeddings[0][0])
	require.Empty(t, out.Embeddings[2].Embeddings)
}

func TestGenerate_EmptyAndInvalid(t *testing.T) {
	router := setupRouter(t, nil)
	_, env := doJSON(t, router, http.MethodPost, "/embed/generate", map[string]interface{}{"data": []interface{}{}}, nil)
	require.Equal(t, 0, env.Code)
	var out model.EmbeddingResponse
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.Equal(t, 0, out.NumberOfDocuments)
	require.Equal(t, int64(0), out.TimePerDocumentMs)
	require.Empty(t, out.Embeddings)

	_, env = doJSON(t, router, http.MethodPost, "/embed/generate", map[string]interface{}{
		"data":          []map[string]interface{}{{"id": 1, "text": "x"}},
		"chunk_size":    4,
		"chunk_overlap": 4,
	}, nil)
	require.Equal(t, errcode.ErrInvalid, env.Code)
}

func TestModelRoutes(t *testing.T) {
	router := setupRouter(t, nil)

	_, env := doJSON(t, router, http.MethodGet, "/embed/model-info", nil, nil)
	var info model.ModelDescriptor
	require.NoError(t, json.Unmarshal(env.Data, &info))
	require.Equal(t, "model-a", info.Name)

	_, env = doJSON(t, router, http.MethodGet, "/embed/model-info?name=model-c", nil, nil)
	require.Equal(t, errcode.ErrModelNotFound, env.Code)

	_, env = doJSON(t, router, http.MethodGet, "/embed/available-models", nil, nil)
	var list []model.ModelDescriptor
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 2)
	require.Equal(t, "model-b", list[1].Name)

	_, env = doJSON(t, router, http.MethodGet, "/", nil, nil)
	require.Equal(t, 0, env.Code)
}

func TestSetModelName(t *testing.T) {
	router := setupRouter(t, nil)

	_, env := doJSON(t, router, http.MethodPost, "/embed/set-model-name", map[string]string{"model": "model-b"}, nil)
	require.Equal(t, errcode.ErrUnauthorized, env.Code)

	token, err := jwt.GenerateToken("ops", jwt.RoleAdmin, adminSecret, time.Hour)
	require.NoError(t, err)
	auth := map[string]string{"Authorization": "Bearer " + token}

	_, env = doJSON(t, router, http.MethodPost, "/embed/set-model-name", map[string]string{"model": "model-z"}, auth)
	require.Equal(t, errcode.ErrModelNotFound, env.Code)

	_, env = doJSON(t, router, http.MethodPost, "/embed/set-model-name", map[string]string{"model": "model-b"}, auth)
	require.Equal(t, 0, env.Code)

	_, env = doJSON(t, router, http.MethodGet, "/embed/model-info", nil, nil)
	var info model.ModelDescriptor
	require.NoError(t, json.Unmarshal(env.Data, &info))
	require.Equal(t, "model-b", info.Name)
	require.Equal(t, 8, info.Dimension)

	_, env = doJSON(t, router, http.MethodPost, "/embed/generate", map[string]interface{}{
		"data": []map[string]interface{}{{"id": 9, "text": "hi"}},
	}, nil)
	var out model.EmbeddingResponse
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.Equal(t, "model-b", out.Model)
	require.Len(t, out.Embeddings[0].Embeddings[0], 8)
}

func TestHealth(t *testing.T) {
	router := setupRouter(t, nil)
	resp, _ := doJSON(t, router, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	resp, _ = doJSON(t, router, http.MethodGet, "/readyz", nil, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	failing := setupRouter(t, func(ctx context.Context) error { return errors.New("db down") })
	resp, _ = doJSON(t, failing, http.MethodGet, "/readyz", nil, nil)
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
	require.Contains(t, resp.Body.String(), "db down")
}
