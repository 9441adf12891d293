package domain

// Audience is the caller-identity scope used to pick upload rules.
type Audience string

const (
	AudienceAnonymous Audience = "anonymous"
	AudienceMember    Audience = "member"
)

// AudienceFor maps an optional owner reference to its audience.
func AudienceFor(ownerID *int64) Audience {
	if ownerID == nil {
		return AudienceAnonymous
	}
	return AudienceMember
}

type PolicyScope string

const (
	ScopeAnonymous PolicyScope = "anonymous"
	ScopeMember    PolicyScope = "member"
	ScopeBoth      PolicyScope = "both"
)

// TypePolicy is an administrative rule constraining an accepted file type.
type TypePolicy struct {
	ID           int64       `json:"id" gorm:"primaryKey;autoIncrement"`
	Name         string      `json:"name" gorm:"type:varchar(255);not null"`
	MimeType     string      `json:"mime_type" gorm:"type:varchar(255);not null;index"`
	Extension    string      `json:"extension" gorm:"type:varchar(32);index"`
	MaxSize      int64       `json:"max_size" gorm:"not null"`
	Scope        PolicyScope `json:"scope" gorm:"type:varchar(16);not null;check:scope IN ('anonymous','member','both')"`
	IsActive     bool        `json:"is_active" gorm:"not null;index"`
	DisplayOrder int         `json:"display_order" gorm:"not null"`
	Description  string      `json:"description"`
}

func (TypePolicy) TableName() string {
	return "type_policies"
}

// AppliesTo reports whether the rule is in the effective set of audience.
func (p *TypePolicy) AppliesTo(a Audience) bool {
	if !p.IsActive {
		return false
	}
	switch p.Scope {
	case ScopeBoth:
		return true
	case ScopeAnonymous:
		return a == AudienceAnonymous
	case ScopeMember:
		return a == AudienceMember
	}
	return false
}
