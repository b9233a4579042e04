package businessflow

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/junwei-lin/smsflow/models"
	"github.com/junwei-lin/smsflow/repository"
	smstesting "github.com/junwei-lin/smsflow/testing"
	"github.com/junwei-lin/smsflow/utils"
)

func newContactFlow(t *testing.T) *ContactFlowImpl {
	t.Helper()

	db, err := smstesting.SetupMemoryDB()
	require.NoError(t, err)

	return NewContactFlow(repository.NewContactRepository(repository.NewLedgerStore(db)))
}

func TestAddContact(t *testing.T) {
	flow := newContactFlow(t)
	ctx := context.Background()

	contact, err := flow.AddContact(ctx, "张三", "13800000001", "", "老客户")
	require.NoError(t, err)

	assert.NotEmpty(t, contact.ID)
	assert.Equal(t, utils.DefaultGroupName, contact.Group)
	assert.Equal(t, "老客户", contact.Remark)
}

func TestAddContactRejectsDuplicatePhone(t *testing.T) {
	flow := newContactFlow(t)
	ctx := context.Background()

	_, err := flow.AddContact(ctx, "张三", "13800000001", "", "")
	require.NoError(t, err)

	_, err = flow.AddContact(ctx, "李四", "13800000001", "vip", "")
	require.Error(t, err)
	assert.True(t, IsDuplicatePhone(err))
}

func TestAddContactRequiresNameAndPhone(t *testing.T) {
	flow := newContactFlow(t)
	ctx := context.Background()

	_, err := flow.AddContact(ctx, "  ", "13800000001", "", "")
	require.Error(t, err)

	_, err = flow.AddContact(ctx, "张三", "", "", "")
	require.Error(t, err)
}

func TestDeleteContact(t *testing.T) {
	flow := newContactFlow(t)
	ctx := context.Background()

	contact, err := flow.AddContact(ctx, "张三", "13800000001", "", "")
	require.NoError(t, err)

	require.NoError(t, flow.DeleteContact(ctx, contact.ID))

	contacts, err := flow.ListContacts(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, contacts)

	err = flow.DeleteContact(ctx, contact.ID)
	require.Error(t, err)
	assert.True(t, IsContactNotFound(err))
}

func TestImportContactsSkipsDuplicates(t *testing.T) {
	flow := newContactFlow(t)
	ctx := context.Background()

	_, err := flow.AddContact(ctx, "已有", "13800000001", "", "")
	require.NoError(t, err)

	incoming := []models.Contact{
		{Name: "甲", Phone: "13800000001"}, // exists already
		{Name: "乙", Phone: "13800000002"},
		{Name: "丙", Phone: "13800000002"}, // repeats within the batch
		{Name: "丁", Phone: "13800000003"},
		{Name: "", Phone: "13800000004"}, // invalid row
	}

	added, skipped, err := flow.ImportContacts(ctx, incoming, true)
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, 3, skipped)

	contacts, err := flow.ListContacts(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, contacts, 3)
}

func TestImportContactsKeepsDuplicatesWhenAllowed(t *testing.T) {
	flow := newContactFlow(t)
	ctx := context.Background()

	incoming := []models.Contact{
		{Name: "甲", Phone: "13800000001"},
		{Name: "乙", Phone: "13800000001"},
	}

	added, skipped, err := flow.ImportContacts(ctx, incoming, false)
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, 0, skipped)
}

func TestImportFromXLSX(t *testing.T) {
	flow := newContactFlow(t)
	ctx := context.Background()

	book := excelize.NewFile()
	sheet := book.GetSheetName(0)
	require.NoError(t, book.SetSheetRow(sheet, "A1", &[]string{"姓名", "手机号", "分组", "备注"}))
	require.NoError(t, book.SetSheetRow(sheet, "A2", &[]string{"张三", "13800000001", "vip", "重点客户"}))
	require.NoError(t, book.SetSheetRow(sheet, "A3", &[]string{"李四", "13800000002", "", ""}))

	var buf bytes.Buffer
	require.NoError(t, book.Write(&buf))

	added, skipped, err := flow.ImportFromXLSX(ctx, &buf, true)
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, 0, skipped)

	group := "vip"
	vip, err := flow.ListContacts(ctx, &group)
	require.NoError(t, err)
	require.Len(t, vip, 1)
	assert.Equal(t, "张三", vip[0].Name)
}

func TestListGroupsAlwaysIncludesDefault(t *testing.T) {
	flow := newContactFlow(t)
	ctx := context.Background()

	groups, err := flow.ListGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, utils.DefaultGroupName, groups[0].Name)
}

func TestListGroupsRecomputesCounts(t *testing.T) {
	flow := newContactFlow(t)
	ctx := context.Background()

	_, err := flow.CreateGroup(ctx, "vip")
	require.NoError(t, err)
	_, err = flow.AddContact(ctx, "甲", "13800000001", "vip", "")
	require.NoError(t, err)
	_, err = flow.AddContact(ctx, "乙", "13800000002", "vip", "")
	require.NoError(t, err)
	_, err = flow.AddContact(ctx, "丙", "13800000003", "", "")
	require.NoError(t, err)

	groups, err := flow.ListGroups(ctx)
	require.NoError(t, err)

	counts := make(map[string]int, len(groups))
	for _, g := range groups {
		counts[g.Name] = g.Count
	}
	assert.Equal(t, 2, counts["vip"])
	assert.Equal(t, 1, counts[utils.DefaultGroupName])
}

func TestCreateGroupRejectsDuplicate(t *testing.T) {
	flow := newContactFlow(t)
	ctx := context.Background()

	_, err := flow.CreateGroup(ctx, "vip")
	require.NoError(t, err)

	_, err = flow.CreateGroup(ctx, "vip")
	require.Error(t, err)
	assert.True(t, IsGroupAlreadyExists(err))
}

func TestDeleteGroupReassignsContacts(t *testing.T) {
	flow := newContactFlow(t)
	ctx := context.Background()

	_, err := flow.CreateGroup(ctx, "vip")
	require.NoError(t, err)
	_, err = flow.AddContact(ctx, "甲", "13800000001", "vip", "")
	require.NoError(t, err)

	require.NoError(t, flow.DeleteGroup(ctx, "vip"))

	contacts, err := flow.ListContacts(ctx, nil)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, utils.DefaultGroupName, contacts[0].Group)
}

func TestDeleteGroupRefusesDefault(t *testing.T) {
	flow := newContactFlow(t)

	err := flow.DeleteGroup(context.Background(), utils.DefaultGroupName)
	require.Error(t, err)
	assert.True(t, IsDefaultGroupImmutable(err))
}

func TestPhonesForGroup(t *testing.T) {
	flow := newContactFlow(t)
	ctx := context.Background()

	_, err := flow.CreateGroup(ctx, "vip")
	require.NoError(t, err)
	_, err = flow.AddContact(ctx, "甲", "13800000001", "vip", "")
	require.NoError(t, err)
	_, err = flow.AddContact(ctx, "乙", "13800000002", "", "")
	require.NoError(t, err)

	vip, err := flow.PhonesForGroup(ctx, "vip")
	require.NoError(t, err)
	assert.Equal(t, []string{"13800000001"}, vip)

	everyone, err := flow.PhonesForGroup(ctx, "all")
	require.NoError(t, err)
	assert.Len(t, everyone, 2)

	blank, err := flow.PhonesForGroup(ctx, "")
	require.NoError(t, err)
	assert.Len(t, blank, 2)
}
