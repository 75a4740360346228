package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echotrack/echotrack-api/internal/dto"
	appErrors "github.com/echotrack/echotrack-api/pkg/errors"
	"github.com/echotrack/echotrack-api/pkg/response"
)

type fakeStatsService struct {
	daily   dto.DailyStatsResponse
	counts  dto.DailyCountResponse
	today   dto.TodayStatsResponse
	overdue dto.OverdueCountResponse
	avg     dto.AverageCompletionResponse

	cached        bool
	err           error
	gotWindowDays int
}

func (f *fakeStatsService) DailyStats(_ context.Context, windowDays int) (dto.DailyStatsResponse, bool, error) {
	f.gotWindowDays = windowDays
	return f.daily, f.cached, f.err
}

func (f *fakeStatsService) DailyOverdue(_ context.Context, windowDays int) (dto.DailyCountResponse, bool, error) {
	f.gotWindowDays = windowDays
	return f.counts, f.cached, f.err
}

func (f *fakeStatsService) DailyPending(_ context.Context, windowDays int) (dto.DailyCountResponse, bool, error) {
	f.gotWindowDays = windowDays
	return f.counts, f.cached, f.err
}

func (f *fakeStatsService) CurrentOverdue(context.Context) (dto.OverdueCountResponse, error) {
	return f.overdue, f.err
}

func (f *fakeStatsService) TodayStats(context.Context) (dto.TodayStatsResponse, bool, error) {
	return f.today, f.cached, f.err
}

func (f *fakeStatsService) AverageCompletionTimes(context.Context) (dto.AverageCompletionResponse, bool, error) {
	return f.avg, f.cached, f.err
}

func getStats(t *testing.T, handler gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	handler(c)
	return w
}

func TestDailyStatsHandlerReportsCacheMeta(t *testing.T) {
	svc := &fakeStatsService{
		daily:  dto.DailyStatsResponse{"2025-03-12": {Red: 2}},
		cached: true,
	}
	h := NewStatsHandler(svc)

	w := getStats(t, h.Daily)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, true, envelope.Meta["cache_hit"])
}

func TestDailyStatsHandlerParsesWindowDays(t *testing.T) {
	svc := &fakeStatsService{daily: dto.DailyStatsResponse{}}
	h := NewStatsHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?windowDays=14", nil)
	h.Daily(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 14, svc.gotWindowDays)
}

func TestDailyStatsHandlerRejectsBadWindowDays(t *testing.T) {
	h := NewStatsHandler(&fakeStatsService{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?windowDays=-3", nil)
	h.Daily(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDailyOverdueHandlerParsesWindowDays(t *testing.T) {
	svc := &fakeStatsService{counts: dto.DailyCountResponse{}}
	h := NewStatsHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?windowDays=7", nil)
	h.DailyOverdue(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 7, svc.gotWindowDays)
}

func TestDailyPendingHandlerParsesWindowDays(t *testing.T) {
	svc := &fakeStatsService{counts: dto.DailyCountResponse{}}
	h := NewStatsHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?windowDays=7", nil)
	h.DailyPending(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 7, svc.gotWindowDays)
}

func TestDailyPendingHandlerRejectsBadWindowDays(t *testing.T) {
	h := NewStatsHandler(&fakeStatsService{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?windowDays=snake", nil)
	h.DailyPending(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTodayStatsHandler(t *testing.T) {
	svc := &fakeStatsService{today: dto.TodayStatsResponse{Red: 4, Overdue: 3}}
	h := NewStatsHandler(svc)

	w := getStats(t, h.Today)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 4, data["RED"])
	assert.EqualValues(t, 3, data["OVERDUE"])
}

func TestOverdueHandlerMapsStorageErrors(t *testing.T) {
	svc := &fakeStatsService{err: appErrors.ErrStorageUnavailable}
	h := NewStatsHandler(svc)

	w := getStats(t, h.Overdue)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAverageCompletionHandler(t *testing.T) {
	svc := &fakeStatsService{avg: dto.AverageCompletionResponse{Purple: 2, Red: 24}}
	h := NewStatsHandler(svc)

	w := getStats(t, h.AverageCompletion)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 24, data["RED"])
}
