package businessflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junwei-lin/smsflow/models"
	"github.com/junwei-lin/smsflow/repository"
	smstesting "github.com/junwei-lin/smsflow/testing"
)

func newTemplateFlow(t *testing.T) *TemplateFlowImpl {
	t.Helper()

	db, err := smstesting.SetupMemoryDB()
	require.NoError(t, err)

	return NewTemplateFlow(repository.NewTemplateRepository(repository.NewLedgerStore(db)))
}

func TestListStartsWithSeedTemplates(t *testing.T) {
	flow := newTemplateFlow(t)

	templates, err := flow.List(context.Background())
	require.NoError(t, err)
	require.Len(t, templates, 3)

	assert.Equal(t, "登录验证码", templates[0].Title)
	assert.Equal(t, "限时优惠活动", templates[1].Title)
	assert.Equal(t, "订单发货通知", templates[2].Title)
}

func TestCreateAssignsNextID(t *testing.T) {
	flow := newTemplateFlow(t)
	ctx := context.Background()

	created, err := flow.Create(ctx, "注销提醒", "您的账号即将注销", "通知提醒", models.TemplateCategoryNotification)
	require.NoError(t, err)
	assert.Equal(t, int64(4), created.ID)

	templates, err := flow.List(ctx)
	require.NoError(t, err)
	assert.Len(t, templates, 4)
}

func TestCreateValidation(t *testing.T) {
	flow := newTemplateFlow(t)
	ctx := context.Background()

	_, err := flow.Create(ctx, "  ", "内容", "", models.TemplateCategoryMarketing)
	require.Error(t, err)

	_, err = flow.Create(ctx, "标题", "", "", models.TemplateCategoryMarketing)
	require.Error(t, err)
}

func TestUpdateTemplate(t *testing.T) {
	flow := newTemplateFlow(t)
	ctx := context.Background()

	updated, err := flow.Update(ctx, 1, "新标题", "新内容")
	require.NoError(t, err)
	assert.Equal(t, "新标题", updated.Title)
	assert.Equal(t, "新内容", updated.Content)

	got, err := flow.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "新标题", got.Title)
}

func TestUpdateUnknownTemplate(t *testing.T) {
	flow := newTemplateFlow(t)

	_, err := flow.Update(context.Background(), 99, "标题", "内容")
	require.Error(t, err)
	assert.True(t, IsTemplateNotFound(err))
}

func TestDeleteTemplate(t *testing.T) {
	flow := newTemplateFlow(t)
	ctx := context.Background()

	require.NoError(t, flow.Delete(ctx, 2))

	templates, err := flow.List(ctx)
	require.NoError(t, err)
	assert.Len(t, templates, 2)

	_, err = flow.Get(ctx, 2)
	require.Error(t, err)
	assert.True(t, IsTemplateNotFound(err))
}
