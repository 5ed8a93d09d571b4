package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/geulbit/geulbit-api/internal/models"
	appErrors "github.com/geulbit/geulbit-api/pkg/errors"
)

type fakeClassRepo struct {
	byID      map[string]*models.Class
	byTeacher map[string]*models.Class
	byInvite  map[string]*models.Class
}

func newFakeClassRepo() *fakeClassRepo {
	return &fakeClassRepo{
		byID:      make(map[string]*models.Class),
		byTeacher: make(map[string]*models.Class),
		byInvite:  make(map[string]*models.Class),
	}
}

func (f *fakeClassRepo) Create(ctx context.Context, class *models.Class) error {
	f.byID[class.ID] = class
	f.byTeacher[class.TeacherID] = class
	f.byInvite[class.InviteCode] = class
	return nil
}

func (f *fakeClassRepo) FindByID(ctx context.Context, id string) (*models.Class, error) {
	class, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return class, nil
}

func (f *fakeClassRepo) FindByTeacher(ctx context.Context, teacherID string) (*models.Class, error) {
	class, ok := f.byTeacher[teacherID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return class, nil
}

func (f *fakeClassRepo) FindByInviteCode(ctx context.Context, code string) (*models.Class, error) {
	class, ok := f.byInvite[code]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return class, nil
}

func (f *fakeClassRepo) ExistsByInviteCode(ctx context.Context, code string) (bool, error) {
	_, ok := f.byInvite[code]
	return ok, nil
}

func newClassService(repo *fakeClassRepo) *ClassService {
	return NewClassService(repo, validator.New(), zap.NewNop(), ClassServiceConfig{})
}

func TestClassCreateAssignsInviteCode(t *testing.T) {
	repo := newFakeClassRepo()
	svc := newClassService(repo)

	class, err := svc.Create(context.Background(), "t1", CreateClassRequest{Name: "3학년 2반"})
	require.NoError(t, err)
	assert.Len(t, class.InviteCode, 6)
	assert.Equal(t, "t1", class.TeacherID)
}

func TestClassCreateSecondClassConflicts(t *testing.T) {
	repo := newFakeClassRepo()
	svc := newClassService(repo)

	_, err := svc.Create(context.Background(), "t1", CreateClassRequest{Name: "첫 번째 반"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "t1", CreateClassRequest{Name: "두 번째 반"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestClassGetMine(t *testing.T) {
	repo := newFakeClassRepo()
	svc := newClassService(repo)

	created, err := svc.Create(context.Background(), "t1", CreateClassRequest{Name: "우리 반"})
	require.NoError(t, err)

	found, err := svc.GetMine(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = svc.GetMine(context.Background(), "t2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestClassLookupInvite(t *testing.T) {
	repo := newFakeClassRepo()
	svc := newClassService(repo)

	created, err := svc.Create(context.Background(), "t1", CreateClassRequest{Name: "우리 반"})
	require.NoError(t, err)

	found, err := svc.LookupInvite(context.Background(), "  "+created.InviteCode+" ")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = svc.LookupInvite(context.Background(), "short")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
