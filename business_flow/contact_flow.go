package businessflow

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/junwei-lin/smsflow/models"
	"github.com/junwei-lin/smsflow/repository"
	"github.com/junwei-lin/smsflow/utils"
)

// ContactFlow manages contacts and their groups. Group membership is by
// name; deleting a group moves its contacts to the default group.
type ContactFlow interface {
	ListContacts(ctx context.Context, group *string) ([]models.Contact, error)
	AddContact(ctx context.Context, name, phone, group, remark string) (*models.Contact, error)
	DeleteContact(ctx context.Context, id string) error
	ImportContacts(ctx context.Context, contacts []models.Contact, skipDuplicates bool) (added, skipped int, err error)
	ImportFromXLSX(ctx context.Context, r io.Reader, skipDuplicates bool) (added, skipped int, err error)
	ListGroups(ctx context.Context) ([]models.ContactGroup, error)
	CreateGroup(ctx context.Context, name string) (*models.ContactGroup, error)
	DeleteGroup(ctx context.Context, name string) error
	PhonesForGroup(ctx context.Context, group string) ([]string, error)
}

// ContactFlowImpl implements ContactFlow.
type ContactFlowImpl struct {
	contactRepo repository.ContactRepository

	mu sync.Mutex
}

// NewContactFlow creates a new contact management flow
func NewContactFlow(contactRepo repository.ContactRepository) *ContactFlowImpl {
	return &ContactFlowImpl{contactRepo: contactRepo}
}

// ListContacts returns contacts, optionally narrowed to one group.
func (f *ContactFlowImpl) ListContacts(ctx context.Context, group *string) ([]models.Contact, error) {
	var filter *models.ContactFilter
	if group != nil {
		filter = &models.ContactFilter{Group: group}
	}
	return f.contactRepo.LoadContacts(ctx, filter)
}

// AddContact validates and stores a single contact. A blank group lands in
// the default group; a duplicate phone is rejected.
func (f *ContactFlowImpl) AddContact(ctx context.Context, name, phone, group, remark string) (*models.Contact, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" {
		return nil, NewBusinessError("CONTACT_NAME_REQUIRED", "请输入联系人姓名", ErrContactNameRequired)
	}
	if phone == "" {
		return nil, NewBusinessError("CONTACT_PHONE_REQUIRED", "请输入手机号码", ErrContactPhoneRequired)
	}
	if group = strings.TrimSpace(group); group == "" {
		group = utils.DefaultGroupName
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	contacts, err := f.contactRepo.LoadContacts(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load contacts: %w", err)
	}
	for _, c := range contacts {
		if c.Phone == phone {
			return nil, NewBusinessErrorf("DUPLICATE_PHONE", "手机号 %s 已存在", ErrDuplicatePhone, phone)
		}
	}

	contact := models.Contact{
		ID:        uuid.NewString(),
		Name:      name,
		Phone:     phone,
		Group:     group,
		Remark:    strings.TrimSpace(remark),
		CreatedAt: utils.UTCNow(),
	}

	contacts = append(contacts, contact)
	if err := f.contactRepo.SaveContacts(ctx, contacts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageDegraded, err)
	}

	return &contact, nil
}

// DeleteContact removes a contact by ID.
func (f *ContactFlowImpl) DeleteContact(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	contacts, err := f.contactRepo.LoadContacts(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to load contacts: %w", err)
	}

	kept := contacts[:0]
	found := false
	for _, c := range contacts {
		if c.ID == id {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return NewBusinessError("CONTACT_NOT_FOUND", "联系人不存在", ErrContactNotFound)
	}

	if err := f.contactRepo.SaveContacts(ctx, kept); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageDegraded, err)
	}

	return nil
}

// ImportContacts stores a batch. With skipDuplicates, incoming phones that
// already exist (or repeat within the batch) are counted as skipped; without
// it duplicates are imported as-is.
func (f *ContactFlowImpl) ImportContacts(ctx context.Context, incoming []models.Contact, skipDuplicates bool) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	contacts, err := f.contactRepo.LoadContacts(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load contacts: %w", err)
	}

	seen := make(map[string]bool, len(contacts))
	for _, c := range contacts {
		seen[c.Phone] = true
	}

	added, skipped := 0, 0
	for _, c := range incoming {
		c.Phone = strings.TrimSpace(c.Phone)
		c.Name = strings.TrimSpace(c.Name)
		if c.Phone == "" || c.Name == "" {
			skipped++
			continue
		}
		if skipDuplicates && seen[c.Phone] {
			skipped++
			continue
		}
		if c.Group = strings.TrimSpace(c.Group); c.Group == "" {
			c.Group = utils.DefaultGroupName
		}
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = utils.UTCNow()
		}

		contacts = append(contacts, c)
		seen[c.Phone] = true
		added++
	}

	if err := f.contactRepo.SaveContacts(ctx, contacts); err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrStorageDegraded, err)
	}

	return added, skipped, nil
}

// ImportFromXLSX reads the first sheet of a spreadsheet with columns
// name, phone, group, remark (header row optional) and imports the rows.
func (f *ContactFlowImpl) ImportFromXLSX(ctx context.Context, r io.Reader, skipDuplicates bool) (int, int, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return 0, 0, fmt.Errorf("spreadsheet has no sheets")
	}

	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}

	cell := func(row []string, i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	incoming := make([]models.Contact, 0, len(rows))
	for i, row := range rows {
		name, phone := cell(row, 0), cell(row, 1)
		// Tolerate a header row
		if i == 0 && (strings.EqualFold(phone, "phone") || phone == "手机号" || phone == "电话") {
			continue
		}
		if name == "" && phone == "" {
			continue
		}
		incoming = append(incoming, models.Contact{
			Name:   name,
			Phone:  phone,
			Group:  cell(row, 2),
			Remark: cell(row, 3),
		})
	}

	return f.ImportContacts(ctx, incoming, skipDuplicates)
}

// ListGroups returns all groups with counts recomputed from the contact
// list. The default group is always present.
func (f *ContactFlowImpl) ListGroups(ctx context.Context) ([]models.ContactGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.groupsWithCounts(ctx)
}

func (f *ContactFlowImpl) groupsWithCounts(ctx context.Context) ([]models.ContactGroup, error) {
	groups, err := f.contactRepo.LoadGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load groups: %w", err)
	}
	contacts, err := f.contactRepo.LoadContacts(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load contacts: %w", err)
	}

	hasDefault := false
	for _, g := range groups {
		if g.Name == utils.DefaultGroupName {
			hasDefault = true
			break
		}
	}
	if !hasDefault {
		groups = append([]models.ContactGroup{{
			ID:        uuid.NewString(),
			Name:      utils.DefaultGroupName,
			CreatedAt: utils.UTCNow(),
		}}, groups...)
	}

	counts := make(map[string]int, len(groups))
	for _, c := range contacts {
		counts[c.Group]++
	}
	for i := range groups {
		groups[i].Count = counts[groups[i].Name]
	}

	return groups, nil
}

// CreateGroup registers a new named group.
func (f *ContactFlowImpl) CreateGroup(ctx context.Context, name string) (*models.ContactGroup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewBusinessError("GROUP_NAME_REQUIRED", "请输入分组名称", ErrGroupNameRequired)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	groups, err := f.contactRepo.LoadGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load groups: %w", err)
	}
	for _, g := range groups {
		if g.Name == name {
			return nil, NewBusinessErrorf("GROUP_EXISTS", "分组 %s 已存在", ErrGroupAlreadyExists, name)
		}
	}

	group := models.ContactGroup{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: utils.UTCNow(),
	}

	groups = append(groups, group)
	if err := f.contactRepo.SaveGroups(ctx, groups); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageDegraded, err)
	}

	return &group, nil
}

// DeleteGroup removes a group and moves its contacts to the default group.
// The default group itself cannot be deleted.
func (f *ContactFlowImpl) DeleteGroup(ctx context.Context, name string) error {
	if name == utils.DefaultGroupName {
		return NewBusinessError("DEFAULT_GROUP_IMMUTABLE", "默认分组不能删除", ErrDefaultGroupImmutable)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	groups, err := f.contactRepo.LoadGroups(ctx)
	if err != nil {
		return fmt.Errorf("failed to load groups: %w", err)
	}

	kept := groups[:0]
	found := false
	for _, g := range groups {
		if g.Name == name {
			found = true
			continue
		}
		kept = append(kept, g)
	}
	if !found {
		return NewBusinessErrorf("GROUP_NOT_FOUND", "分组 %s 不存在", ErrGroupNotFound, name)
	}

	contacts, err := f.contactRepo.LoadContacts(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to load contacts: %w", err)
	}
	for i := range contacts {
		if contacts[i].Group == name {
			contacts[i].Group = utils.DefaultGroupName
		}
	}

	// Group removal and member reassignment must land together
	err = f.contactRepo.Transaction(ctx, func(ctx context.Context) error {
		if err := f.contactRepo.SaveGroups(ctx, kept); err != nil {
			return err
		}
		return f.contactRepo.SaveContacts(ctx, contacts)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageDegraded, err)
	}

	return nil
}

// PhonesForGroup returns the phone numbers of one group, or of every contact
// when group is empty or "all".
func (f *ContactFlowImpl) PhonesForGroup(ctx context.Context, group string) ([]string, error) {
	var filter *models.ContactFilter
	if group != "" && group != "all" {
		filter = &models.ContactFilter{Group: &group}
	}

	contacts, err := f.contactRepo.LoadContacts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load contacts: %w", err)
	}

	phones := make([]string, 0, len(contacts))
	for _, c := range contacts {
		phones = append(phones, c.Phone)
	}

	return phones, nil
}
