package models

// TemplateCategory tags a message template by purpose
type TemplateCategory string

const (
	TemplateCategoryVerification TemplateCategory = "verification"
	TemplateCategoryMarketing    TemplateCategory = "marketing"
	TemplateCategoryNotification TemplateCategory = "notification"
)

// Template is a reusable message body. Placeholder tokens like {code} are
// stored as-is; substitution happens outside the send pipeline (content is
// sent verbatim).
type Template struct {
	ID       int64            `json:"id"`
	Title    string           `json:"title"`
	Content  string           `json:"content"`
	Type     string           `json:"type"`
	Category TemplateCategory `json:"category"`
}

// SeedTemplates is the template set a fresh (or unreadable) ledger starts with.
func SeedTemplates() []Template {
	return []Template{
		{
			ID:       1,
			Title:    "登录验证码",
			Content:  "您的验证码是{code}，5分钟内有效，请勿泄露给他人。",
			Type:     "验证码",
			Category: TemplateCategoryVerification,
		},
		{
			ID:       2,
			Title:    "限时优惠活动",
			Content:  "{company}限时优惠！{product}现在下单享8折优惠，仅限今日！立即购买：{link}",
			Type:     "营销推广",
			Category: TemplateCategoryMarketing,
		},
		{
			ID:       3,
			Title:    "订单发货通知",
			Content:  "{name}您好，您的订单{order_no}已发货，快递单号：{tracking_no}，预计{date}送达。",
			Type:     "通知提醒",
			Category: TemplateCategoryNotification,
		},
	}
}
