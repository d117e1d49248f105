package http

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/internal/domain/mocks"
	"github.com/simulai/simulai/pkg/logger"
)

func setupScenarioHandlerTest(t *testing.T, p *domain.Principal) (*mocks.MockScenarioService, *http.ServeMux) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockScenarioService(ctrl)
	mux := http.NewServeMux()
	NewScenarioHandler(svc, authAs(ctrl, p), logger.NewTestLogger(t)).RegisterRoutes(mux)
	return svc, mux
}

func TestScenarioHandler_ListScenarios(t *testing.T) {
	svc, mux := setupScenarioHandlerTest(t, companyPrincipal)

	svc.EXPECT().ListScenarios(gomock.Any(), domain.ScenarioFilter{Status: domain.ScenarioStatusPublished, Search: "call"}).
		Return([]*domain.Scenario{{ID: "s1", Title: "Cold call"}}, nil)

	w := serve(mux, newAuthedRequest("GET", "/scenarios?status=published&search=call", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Cold call")

	w = serve(mux, newAuthedRequest("GET", "/scenarios?status=deleted", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScenarioHandler_CRUD(t *testing.T) {
	svc, mux := setupScenarioHandlerTest(t, adminPrincipal)

	svc.EXPECT().CreateScenario(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, in domain.ScenarioInput) (*domain.Scenario, error) {
		assert.Equal(t, "Negotiation", in.Title)
		assert.Equal(t, []string{"Empathy"}, in.Aspects)
		return &domain.Scenario{ID: "s1", Title: in.Title}, nil
	})
	w := serve(mux, newAuthedRequest("POST", "/scenarios", jsonBody(t, map[string]interface{}{
		"title": "Negotiation", "aspects": []string{"Empathy"}, "time_limit": 10,
	})))
	assert.Equal(t, http.StatusCreated, w.Code)

	svc.EXPECT().UpdateScenario(gomock.Any(), "s1", gomock.Any()).Return(nil, domain.NewValidationError("title is required"))
	w = serve(mux, newAuthedRequest("PUT", "/scenarios/s1", jsonBody(t, map[string]string{"title": ""})))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"title is required"}`, w.Body.String())

	svc.EXPECT().GetScenario(gomock.Any(), "s1").Return(&domain.Scenario{ID: "s1"}, nil)
	w = serve(mux, newAuthedRequest("GET", "/scenarios/s1", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	svc.EXPECT().DeleteScenario(gomock.Any(), "s1").Return(nil)
	w = serve(mux, newAuthedRequest("DELETE", "/scenarios/s1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestScenarioHandler_AddFiles(t *testing.T) {
	svc, mux := setupScenarioHandlerTest(t, adminPrincipal)

	svc.EXPECT().AddFiles(gomock.Any(), "s1", gomock.Any()).DoAndReturn(func(_ context.Context, _ string, files []domain.Upload) (*domain.Scenario, error) {
		require.Len(t, files, 2)
		assert.Equal(t, "brief.pdf", files[0].Filename)
		assert.Equal(t, "application/pdf", files[0].ContentType)
		raw, _ := io.ReadAll(files[0].Body)
		assert.Equal(t, "%PDF-1.4", string(raw))
		assert.Equal(t, "notes.txt", files[1].Filename)
		return &domain.Scenario{ID: "s1"}, nil
	})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="files"; filename="brief.pdf"`)
	h.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, _ = part.Write([]byte("%PDF-1.4"))
	part, err = mw.CreateFormFile("files", "notes.txt")
	require.NoError(t, err)
	_, _ = part.Write([]byte("remember the pricing"))
	require.NoError(t, mw.Close())

	req := newAuthedRequest("POST", "/scenarios/s1/files", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := serve(mux, req)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestScenarioHandler_AddFiles_Empty(t *testing.T) {
	_, mux := setupScenarioHandlerTest(t, adminPrincipal)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("note", "no files"))
	require.NoError(t, mw.Close())

	req := newAuthedRequest("POST", "/scenarios/s1/files", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := serve(mux, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScenarioHandler_RemoveFile(t *testing.T) {
	svc, mux := setupScenarioHandlerTest(t, adminPrincipal)

	svc.EXPECT().RemoveFile(gomock.Any(), "s1", "scenarios/s1/abc-brief.pdf").Return(&domain.Scenario{ID: "s1"}, nil)

	w := serve(mux, newAuthedRequest("DELETE", "/scenarios/s1/files/scenarios/s1/abc-brief.pdf", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
