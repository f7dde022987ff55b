package service

import (
	"strings"
	"testing"

	"github.com/smallbiznis/agrimarket/internal/clock"
	"github.com/smallbiznis/agrimarket/internal/files/domain"
	"github.com/smallbiznis/agrimarket/internal/files/repository"
	"github.com/smallbiznis/agrimarket/internal/orgcontext"
	"github.com/smallbiznis/agrimarket/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newService(t *testing.T) domain.Service {
	t.Helper()
	return New(Params{
		DB:    testutil.NewDB(t, &domain.File{}),
		Log:   zaptest.NewLogger(t),
		GenID: testutil.NewNode(t),
		Clock: clock.NewFakeClock(testutil.Date(2024, 5, 1)),
		Repo:  repository.Provide(),
	})
}

func TestSaveAndGet(t *testing.T) {
	svc := newService(t)
	ctx := testutil.Context()

	file, err := svc.Save(ctx, domain.SaveRequest{
		Name:        "Green Valley Statement",
		Extension:   ".pdf",
		ContentType: domain.ContentTypePDF,
		Content:     []byte("%PDF-1.3"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(file.Name, "green-valley-statement-"))
	assert.True(t, strings.HasSuffix(file.Name, ".pdf"))
	assert.Equal(t, int64(8), file.Size)
	assert.Equal(t, "/api/files/"+file.ID.String(), file.URL())

	got, err := svc.Get(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.3"), got.Content)
	assert.Equal(t, domain.ContentTypePDF, got.ContentType)
}

func TestSaveNamesAreUnique(t *testing.T) {
	svc := newService(t)
	ctx := testutil.Context()

	req := domain.SaveRequest{Name: "trial balance", Extension: "xlsx", Content: []byte("x")}
	a, err := svc.Save(ctx, req)
	require.NoError(t, err)
	b, err := svc.Save(ctx, req)
	require.NoError(t, err)
	assert.NotEqual(t, a.Name, b.Name)
	assert.Equal(t, "application/octet-stream", a.ContentType)
}

func TestSaveValidation(t *testing.T) {
	svc := newService(t)
	ctx := testutil.Context()

	_, err := svc.Save(ctx, domain.SaveRequest{Name: "  ", Content: []byte("x")})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Save(ctx, domain.SaveRequest{Name: "report"})
	assert.ErrorIs(t, err, domain.ErrEmptyContent)

	_, err = svc.Save(t.Context(), domain.SaveRequest{Name: "report", Content: []byte("x")})
	assert.ErrorIs(t, err, domain.ErrInvalidOrganization)
}

func TestGetIsScopedToCompany(t *testing.T) {
	svc := newService(t)

	file, err := svc.Save(testutil.Context(), domain.SaveRequest{Name: "report", Content: []byte("x")})
	require.NoError(t, err)

	_, err = svc.Get(orgcontext.WithOrgID(t.Context(), 2), file.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Get(testutil.Context(), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}
