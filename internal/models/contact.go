package models

// Field 表单字段名（与 JSON key 保持一致）
type Field string

const (
	FieldFirstName      Field = "firstName"
	FieldEmail          Field = "email"
	FieldContactNumber  Field = "contactNumber"
	FieldCompanyWebsite Field = "companyWebsite"
	FieldMessage        Field = "message"
)

// Fields 表单字段的展示顺序
var Fields = []Field{
	FieldFirstName,
	FieldEmail,
	FieldContactNumber,
	FieldCompanyWebsite,
	FieldMessage,
}

// Valid reports whether f names one of the contact form fields.
func (f Field) Valid() bool {
	for _, known := range Fields {
		if f == known {
			return true
		}
	}
	return false
}

// ContactRecord 联系表单提交内容
// ContactNumber 永远只保存纯数字（如 "0400000000"），带空格的格式只用于展示
type ContactRecord struct {
	FirstName      string `json:"firstName" validate:"required"`
	Email          string `json:"email" validate:"required,email,email_tld"`
	ContactNumber  string `json:"contactNumber" validate:"au_mobile"`
	CompanyWebsite string `json:"companyWebsite" validate:"omitempty,url"`
	Message        string `json:"message"`
}

// Get returns the value stored for field, or "" for an unknown field.
func (r ContactRecord) Get(field Field) string {
	switch field {
	case FieldFirstName:
		return r.FirstName
	case FieldEmail:
		return r.Email
	case FieldContactNumber:
		return r.ContactNumber
	case FieldCompanyWebsite:
		return r.CompanyWebsite
	case FieldMessage:
		return r.Message
	}
	return ""
}

// Set stores value into field. Unknown fields are ignored.
func (r *ContactRecord) Set(field Field, value string) {
	switch field {
	case FieldFirstName:
		r.FirstName = value
	case FieldEmail:
		r.Email = value
	case FieldContactNumber:
		r.ContactNumber = value
	case FieldCompanyWebsite:
		r.CompanyWebsite = value
	case FieldMessage:
		r.Message = value
	}
}

// ContactResponse /api/contact 的响应体
// 成功: {"success":true,"message":"..."}；失败: {"success":false,"error":"..."}
type ContactResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
