package service

import (
	"testing"

	auditdomain "github.com/smallbiznis/agrimarket/internal/audit/domain"
	"github.com/smallbiznis/agrimarket/internal/audit/repository"
	obscontext "github.com/smallbiznis/agrimarket/internal/observability/context"
	"github.com/smallbiznis/agrimarket/internal/testutil"
	"github.com/smallbiznis/agrimarket/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestService(t *testing.T) auditdomain.Service {
	db := testutil.NewDB(t, &auditdomain.AuditLog{})
	return NewService(Params{
		DB:    db,
		Log:   zaptest.NewLogger(t),
		GenID: testutil.NewNode(t),
		Repo:  repository.Provide(),
	})
}

func TestAuditLogRecordsActorAndRequest(t *testing.T) {
	svc := newTestService(t)
	ctx := obscontext.WithActorRole(testutil.Context(), "role:manager")
	ctx = obscontext.WithRequestID(ctx, "req-1")

	require.NoError(t, svc.AuditLog(ctx, nil, "invoice_form.submit", "invoice_form", "42", map[string]any{"name": "IF-2024-00001"}))

	resp, err := svc.List(testutil.Context(), auditdomain.ListAuditLogRequest{TargetType: "invoice_form"})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)
	entry := resp.AuditLogs[0]
	assert.Equal(t, "role:manager", entry.ActorRole)
	assert.Equal(t, "req-1", entry.RequestID)
	assert.Equal(t, "42", entry.TargetID)
	assert.Equal(t, "IF-2024-00001", entry.Metadata["name"])
}

func TestAuditLogRequiresAction(t *testing.T) {
	svc := newTestService(t)
	err := svc.AuditLog(testutil.Context(), nil, " ", "invoice_form", "1", nil)
	assert.ErrorIs(t, err, auditdomain.ErrInvalidAction)
}

func TestListPaginates(t *testing.T) {
	svc := newTestService(t)
	ctx := testutil.Context()
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.AuditLog(ctx, nil, "customer.create", "customer", "", nil))
	}

	first, err := svc.List(ctx, auditdomain.ListAuditLogRequest{Pagination: pagination.Pagination{PageSize: 2}})
	require.NoError(t, err)
	assert.Len(t, first.AuditLogs, 2)
	require.True(t, first.HasMore)

	second, err := svc.List(ctx, auditdomain.ListAuditLogRequest{Pagination: pagination.Pagination{PageSize: 2, PageToken: first.NextPageToken}})
	require.NoError(t, err)
	assert.Len(t, second.AuditLogs, 1)
	assert.False(t, second.HasMore)
}
