package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/geulbit/geulbit-api/internal/middleware"
	"github.com/geulbit/geulbit-api/internal/models"
	"github.com/geulbit/geulbit-api/internal/service"
	"github.com/geulbit/geulbit-api/pkg/response"
)

type ledgerStoreStub struct {
	balances map[string]int
	logs     map[string][]models.PointLogEntry
}

func (s *ledgerStoreStub) ApplyAdjustment(ctx context.Context, studentID string, amount int, reason string) (int, *models.PointLogEntry, error) {
	if _, ok := s.balances[studentID]; !ok {
		return 0, nil, sql.ErrNoRows
	}
	s.balances[studentID] += amount
	entry := models.PointLogEntry{StudentID: studentID, Amount: amount, Reason: reason, CreatedAt: time.Now().UTC()}
	s.logs[studentID] = append([]models.PointLogEntry{entry}, s.logs[studentID]...)
	return s.balances[studentID], &entry, nil
}

func (s *ledgerStoreStub) ListByStudent(ctx context.Context, studentID string) ([]models.PointLogEntry, error) {
	return s.logs[studentID], nil
}

func (s *ledgerStoreStub) SumByStudent(ctx context.Context, studentID string) (int, error) {
	total := 0
	for _, entry := range s.logs[studentID] {
		total += entry.Amount
	}
	return total, nil
}

func (s *ledgerStoreStub) SetBalance(ctx context.Context, studentID string, balance int) error {
	s.balances[studentID] = balance
	return nil
}

type studentStoreStub struct {
	balances map[string]int
}

func (s *studentStoreStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	balance, ok := s.balances[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.Student{ID: id, ClassID: "c1", TotalPoints: balance}, nil
}

type classStoreStub struct{}

func (s *classStoreStub) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if id != "c1" {
		return nil, sql.ErrNoRows
	}
	return &models.Class{ID: "c1", TeacherID: "t1", Name: "3학년 2반"}, nil
}

func newPointHandler() (*PointHandler, *ledgerStoreStub) {
	store := &ledgerStoreStub{
		balances: map[string]int{"s1": 10},
		logs:     map[string][]models.PointLogEntry{},
	}
	svc := service.NewLedgerService(store, &studentStoreStub{balances: store.balances}, &classStoreStub{}, nil, nil, zap.NewNop(), service.LedgerServiceConfig{})
	return NewPointHandler(svc), store
}

func asTeacher(c *gin.Context) {
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "t1", Role: models.RoleTeacher})
}

func TestPointHandlerAdjust(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, store := newPointHandler()

	payload, _ := json.Marshal(service.AdjustPointsRequest{
		StudentIDs: []string{"s1", "ghost"},
		Amount:     5,
		Reason:     "발표 잘함",
	})
	c, w := newGinContext(http.MethodPost, "/points/adjust", payload)
	asTeacher(c)

	handler.Adjust(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 15, store.balances["s1"])

	var envelope struct {
		Data models.AdjustmentResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, 1, envelope.Data.Succeeded)
	require.Equal(t, 1, envelope.Data.Failed)
}

func TestPointHandlerAdjustBlankReason(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newPointHandler()

	payload, _ := json.Marshal(service.AdjustPointsRequest{
		StudentIDs: []string{"s1"},
		Amount:     5,
		Reason:     "  ",
	})
	c, w := newGinContext(http.MethodPost, "/points/adjust", payload)
	asTeacher(c)

	handler.Adjust(c)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
}

func TestPointHandlerBalance(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newPointHandler()

	c, w := newGinContext(http.MethodGet, "/students/s1/balance", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	asTeacher(c)

	handler.Balance(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, float64(10), envelope.Data["balance"])
}

func TestPointHandlerBalanceUnknown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newPointHandler()

	c, w := newGinContext(http.MethodGet, "/students/ghost/balance", nil)
	c.Params = gin.Params{{Key: "id", Value: "ghost"}}
	asTeacher(c)

	handler.Balance(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestPointHandlerHistory(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, store := newPointHandler()
	_, _, err := store.ApplyAdjustment(context.Background(), "s1", 3, "숙제")
	require.NoError(t, err)

	c, w := newGinContext(http.MethodGet, "/students/s1/history", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	asTeacher(c)

	handler.History(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data []models.PointLogEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	require.Equal(t, "숙제", envelope.Data[0].Reason)
}

func TestPointHandlerBalanceForeignTeacher(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newPointHandler()

	c, w := newGinContext(http.MethodGet, "/students/s1/balance", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "t2", Role: models.RoleTeacher})

	handler.Balance(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestPointHandlerAdjustUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, store := newPointHandler()

	payload, _ := json.Marshal(service.AdjustPointsRequest{
		StudentIDs: []string{"s1"},
		Amount:     -100,
		Reason:     "몰수",
	})
	c, w := newGinContext(http.MethodPost, "/points/adjust", payload)

	handler.Adjust(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, 10, store.balances["s1"])
}
