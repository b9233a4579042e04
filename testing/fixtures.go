// Package testing provides test utilities and database setup for the ledger store
package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/junwei-lin/smsflow/models"
	"github.com/junwei-lin/smsflow/utils"
)

// NewTestAccount returns an account with the given balances.
func NewTestAccount(freeQuota, paidBalance int) *models.Account {
	acc := models.DefaultAccount()
	acc.FreeSmsQuota = freeQuota
	acc.SmsBalance = paidBalance
	return acc
}

// NewTestContact returns a contact with a unique phone number.
func NewTestContact(name, group string) models.Contact {
	return models.Contact{
		ID:        uuid.NewString(),
		Name:      name,
		Phone:     fmt.Sprintf("138%08d", rand.Intn(100000000)),
		Group:     group,
		CreatedAt: utils.UTCNow(),
	}
}

// NewTestContacts returns n contacts in the given group.
func NewTestContacts(n int, group string) []models.Contact {
	contacts := make([]models.Contact, 0, n)
	for i := 0; i < n; i++ {
		contacts = append(contacts, NewTestContact(fmt.Sprintf("联系人%d", i+1), group))
	}
	return contacts
}

// NewTestTemplate returns a template with the given id.
func NewTestTemplate(id int64) models.Template {
	return models.Template{
		ID:       id,
		Title:    fmt.Sprintf("测试模板%d", id),
		Content:  "您的验证码是：{code}",
		Type:     "验证码",
		Category: models.TemplateCategoryVerification,
	}
}

// NewTestSendRecord returns a send record stamped at the given time.
func NewTestSendRecord(status models.SendStatus, sentAt time.Time) models.SendRecord {
	cost := 0.0
	if status == models.SendStatusSuccess {
		cost = utils.UnitPrice
	}
	return models.SendRecord{
		ID:         uuid.NewString(),
		Phone:      fmt.Sprintf("139%08d", rand.Intn(100000000)),
		Message:    "测试短信内容",
		Status:     status,
		StatusText: status.StatusText(),
		Cost:       cost,
		Timestamp:  sentAt.UnixMilli(),
		Time:       sentAt.Format("2006-01-02 15:04:05"),
	}
}

// NewTestTask returns a pending task over the given phone numbers.
func NewTestTask(phones []string, content string) *models.Task {
	return &models.Task{
		ID:           uuid.NewString(),
		Title:        "测试群发任务",
		ContactCount: len(phones),
		Content:      content,
		Phones:       phones,
		Cost:         fmt.Sprintf("%.2f", float64(len(phones))*utils.UnitPrice),
		Status:       models.TaskStatusPending,
		CreatedAt:    utils.UTCNow(),
	}
}

// Phones extracts the phone numbers from a contact list.
func Phones(contacts []models.Contact) []string {
	phones := make([]string, 0, len(contacts))
	for _, c := range contacts {
		phones = append(phones, c.Phone)
	}
	return phones
}
