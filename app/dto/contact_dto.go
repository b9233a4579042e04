package dto

// AddContactRequest adds a single contact.
type AddContactRequest struct {
	Name   string `json:"name" validate:"required,max=50"`
	Phone  string `json:"phone" validate:"required,min=3,max=20"`
	Group  string `json:"group" validate:"omitempty,max=50"`
	Remark string `json:"remark" validate:"omitempty,max=200"`
}

// ImportContactsRequest imports a batch of contacts.
type ImportContactsRequest struct {
	Contacts       []AddContactRequest `json:"contacts" validate:"required,min=1,dive"`
	SkipDuplicates bool                `json:"skip_duplicates"`
}

// ImportContactsResponse reports an import outcome.
type ImportContactsResponse struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

// CreateGroupRequest registers a new contact group.
type CreateGroupRequest struct {
	Name string `json:"name" validate:"required,max=50"`
}
