package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junwei-lin/smsflow/models"
	smstesting "github.com/junwei-lin/smsflow/testing"
)

func newTestStore(t *testing.T) *LedgerStoreImpl {
	t.Helper()

	db, err := smstesting.SetupMemoryDB()
	require.NoError(t, err)

	return NewLedgerStore(db)
}

func TestLedgerStorePutGetRoundtrip(t *testing.T) {
	store := newTestStore(t)
	ctx := smstesting.CreateTestContext()

	doc := json.RawMessage(`{"name":"测试用户","freeSmsQuota":100}`)
	require.NoError(t, store.Put(ctx, KeyUserInfo, doc))

	got, err := store.Get(ctx, KeyUserInfo)
	require.NoError(t, err)
	assert.JSONEq(t, string(doc), string(got))
}

func TestLedgerStoreGetMissingKey(t *testing.T) {
	store := newTestStore(t)
	ctx := smstesting.CreateTestContext()

	got, err := store.Get(ctx, KeySendRecords)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLedgerStorePutOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := smstesting.CreateTestContext()

	require.NoError(t, store.Put(ctx, KeyTasks, json.RawMessage(`[{"id":"a"}]`)))
	require.NoError(t, store.Put(ctx, KeyTasks, json.RawMessage(`[{"id":"b"}]`)))

	got, err := store.Get(ctx, KeyTasks)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"b"}]`, string(got))
}

func TestLedgerStoreDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := smstesting.CreateTestContext()

	require.NoError(t, store.Put(ctx, KeyContacts, json.RawMessage(`[]`)))
	require.NoError(t, store.Delete(ctx, KeyContacts))

	got, err := store.Get(ctx, KeyContacts)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Deleting an absent key is not an error
	assert.NoError(t, store.Delete(ctx, KeyContacts))
}

func TestLedgerStoreTransactionCommitsTogether(t *testing.T) {
	store := newTestStore(t)
	ctx := smstesting.CreateTestContext()

	err := store.Transaction(ctx, func(ctx context.Context) error {
		if err := store.Put(ctx, KeyContacts, json.RawMessage(`[{"id":"a"}]`)); err != nil {
			return err
		}
		return store.Put(ctx, KeyContactGroups, json.RawMessage(`[{"name":"vip"}]`))
	})
	require.NoError(t, err)

	contacts, err := store.Get(ctx, KeyContacts)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"a"}]`, string(contacts))

	groups, err := store.Get(ctx, KeyContactGroups)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"vip"}]`, string(groups))
}

func TestLedgerStoreTransactionRollsBackOnError(t *testing.T) {
	store := newTestStore(t)
	ctx := smstesting.CreateTestContext()

	require.NoError(t, store.Put(ctx, KeyContacts, json.RawMessage(`[{"id":"before"}]`)))

	err := store.Transaction(ctx, func(ctx context.Context) error {
		if err := store.Put(ctx, KeyContacts, json.RawMessage(`[{"id":"after"}]`)); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	got, err := store.Get(ctx, KeyContacts)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"before"}]`, string(got))
}

func TestAccountRepositoryDefaultsOnMissingKey(t *testing.T) {
	store := newTestStore(t)
	ctx := smstesting.CreateTestContext()
	repo := NewAccountRepository(store)

	acc, err := repo.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, models.AccountTypePersonal, acc.UserType)
	assert.Equal(t, "未设置", acc.Name)
	assert.Equal(t, 100, acc.FreeSmsQuota)
	assert.Equal(t, 0, acc.SmsBalance)
	assert.Equal(t, 7, acc.TrialDaysLeft)
}

func TestAccountRepositoryDefaultsOnCorruptDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := smstesting.CreateTestContext()
	repo := NewAccountRepository(store)

	require.NoError(t, store.Put(ctx, KeyUserInfo, json.RawMessage(`{not json!!`)))

	acc, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100, acc.FreeSmsQuota)
}

func TestAccountRepositoryPersistsMutations(t *testing.T) {
	store := newTestStore(t)
	ctx := smstesting.CreateTestContext()
	repo := NewAccountRepository(store)

	acc, err := repo.Load(ctx)
	require.NoError(t, err)

	acc.SmsBalance = 42
	require.NoError(t, repo.Save(ctx, acc))

	reloaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 42, reloaded.SmsBalance)
}

func TestTemplateRepositorySeedsOnFirstLoad(t *testing.T) {
	store := newTestStore(t)
	ctx := smstesting.CreateTestContext()
	repo := NewTemplateRepository(store)

	templates, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, templates, 3)

	assert.Equal(t, "登录验证码", templates[0].Title)
	assert.Contains(t, templates[0].Content, "{code}")
}

func TestRechargeRepositoryCapsHistory(t *testing.T) {
	store := newTestStore(t)
	ctx := smstesting.CreateTestContext()
	repo := NewRechargeRepository(store)

	for i := 0; i < 55; i++ {
		require.NoError(t, repo.Append(ctx, models.RechargeRecord{
			ID:      string(rune('a' + i%26)),
			OrderID: "SMS_test",
			Amount:  1.0,
		}))
	}

	history, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 50)
}

func TestContactRepositoryFiltersByGroup(t *testing.T) {
	store := newTestStore(t)
	ctx := smstesting.CreateTestContext()
	repo := NewContactRepository(store)

	require.NoError(t, repo.SaveContacts(ctx, []models.Contact{
		{ID: "1", Name: "甲", Phone: "13800000001", Group: "default"},
		{ID: "2", Name: "乙", Phone: "13800000002", Group: "vip"},
		{ID: "3", Name: "丙", Phone: "13800000003", Group: "vip"},
	}))

	group := "vip"
	got, err := repo.LoadContacts(ctx, &models.ContactFilter{Group: &group})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	all, err := repo.LoadContacts(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestTaskRepositoryFiltersByStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := smstesting.CreateTestContext()
	repo := NewTaskRepository(store)

	require.NoError(t, repo.Save(ctx, []models.Task{
		{ID: "1", Status: models.TaskStatusPending},
		{ID: "2", Status: models.TaskStatusCompleted},
		{ID: "3", Status: models.TaskStatusPending},
	}))

	status := models.TaskStatusPending
	pending, err := repo.Load(ctx, &models.TaskFilter{Status: &status})
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}
