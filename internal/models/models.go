package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

type Identity struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	LastSignInAt *time.Time `db:"last_sign_in_at" json:"last_sign_in_at,omitempty"`
}

type EmergencyContact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// EmergencyContacts is stored as a jsonb array; order is preserved.
type EmergencyContacts []EmergencyContact

func (c EmergencyContacts) Value() (driver.Value, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c)
}

func (c *EmergencyContacts) Scan(src interface{}) error {
	return scanJSON(src, c)
}

type User struct {
	ID                string            `db:"id" json:"id"`
	Email             string            `db:"email" json:"email"`
	FullName          *string           `db:"full_name" json:"full_name"`
	PhoneNumber       *string           `db:"phone_number" json:"phone_number"`
	Role              Role              `db:"role" json:"role"`
	ProfilePicture    *string           `db:"profile_picture" json:"profile_picture"`
	EmergencyContacts EmergencyContacts `db:"emergency_contacts" json:"emergency_contacts"`
	CreatedAt         time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time         `db:"updated_at" json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	cp := *u
	if u.EmergencyContacts != nil {
		cp.EmergencyContacts = append(EmergencyContacts{}, u.EmergencyContacts...)
	}
	return &cp
}

// NewProfile is the row inserted right after an identity is created.
type NewProfile struct {
	FullName string `json:"full_name"`
}

// ProfilePatch carries a partial profile update; nil fields are left untouched.
type ProfilePatch struct {
	FullName          *string            `json:"full_name,omitempty"`
	PhoneNumber       *string            `json:"phone_number,omitempty"`
	ProfilePicture    *string            `json:"profile_picture,omitempty"`
	EmergencyContacts *EmergencyContacts `json:"emergency_contacts,omitempty"`
}

func (p ProfilePatch) Empty() bool {
	return p.FullName == nil && p.PhoneNumber == nil && p.ProfilePicture == nil && p.EmergencyContacts == nil
}

type AlertStatus string

const (
	AlertActive    AlertStatus = "active"
	AlertResolved  AlertStatus = "resolved"
	AlertDismissed AlertStatus = "dismissed"
)

type SOSAlert struct {
	ID           string      `db:"id" json:"id"`
	UserID       string      `db:"user_id" json:"user_id"`
	Latitude     float64     `db:"latitude" json:"latitude"`
	Longitude    float64     `db:"longitude" json:"longitude"`
	LocationName *string     `db:"location_name" json:"location_name"`
	Status       AlertStatus `db:"status" json:"status"`
	ActivatedAt  time.Time   `db:"activated_at" json:"activated_at"`
	ResolvedAt   *time.Time  `db:"resolved_at" json:"resolved_at"`
	Notes        *string     `db:"notes" json:"notes"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
}

type NewAlert struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	LocationName string  `json:"location_name"`
	Notes        *string `json:"notes,omitempty"`
}

type NotificationStatus string

const (
	NotificationPending NotificationStatus = "pending"
	NotificationSent    NotificationStatus = "sent"
	NotificationFailed  NotificationStatus = "failed"
)

type SOSNotification struct {
	ID             string             `db:"id" json:"id"`
	SOSAlertID     string             `db:"sos_alert_id" json:"sos_alert_id"`
	RecipientEmail string             `db:"recipient_email" json:"recipient_email"`
	RecipientName  string             `db:"recipient_name" json:"recipient_name"`
	Status         NotificationStatus `db:"status" json:"status"`
	CreatedAt      time.Time          `db:"created_at" json:"created_at"`
}

type NewNotification struct {
	RecipientEmail string `json:"recipient_email"`
	RecipientName  string `json:"recipient_name"`
}

type IncidentStatus string

const (
	IncidentNew        IncidentStatus = "new"
	IncidentInProgress IncidentStatus = "in_progress"
	IncidentResolved   IncidentStatus = "resolved"
)

func (s IncidentStatus) Valid() bool {
	switch s {
	case IncidentNew, IncidentInProgress, IncidentResolved:
		return true
	}
	return false
}

type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var IncidentTypes = []Option{
	{Value: "harassment", Label: "Harassment"},
	{Value: "assault", Label: "Assault"},
	{Value: "stalking", Label: "Stalking"},
	{Value: "domestic_violence", Label: "Domestic Violence"},
	{Value: "workplace_harassment", Label: "Workplace Harassment"},
	{Value: "cyberstalking", Label: "Cyberstalking"},
	{Value: "other", Label: "Other"},
}

func ValidIncidentType(value string) bool {
	for _, opt := range IncidentTypes {
		if opt.Value == value {
			return true
		}
	}
	return false
}

type EvidenceFile struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type EvidenceFiles []EvidenceFile

func (f EvidenceFiles) Value() (driver.Value, error) {
	if f == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(f)
}

func (f *EvidenceFiles) Scan(src interface{}) error {
	return scanJSON(src, f)
}

type Incident struct {
	ID            string         `db:"id" json:"id"`
	UserID        *string        `db:"user_id" json:"user_id,omitempty"`
	IncidentType  string         `db:"incident_type" json:"incident_type"`
	Title         string         `db:"title" json:"title"`
	Description   string         `db:"description" json:"description"`
	Latitude      *float64       `db:"latitude" json:"latitude"`
	Longitude     *float64       `db:"longitude" json:"longitude"`
	LocationName  *string        `db:"location_name" json:"location_name"`
	Status        IncidentStatus `db:"status" json:"status"`
	IsAnonymous   bool           `db:"is_anonymous" json:"is_anonymous"`
	EvidenceFiles EvidenceFiles  `db:"evidence_files" json:"evidence_files"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

type NewIncident struct {
	IncidentType string   `json:"incident_type"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	IsAnonymous  bool     `json:"is_anonymous"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	LocationName *string  `json:"location_name,omitempty"`
}

type ForumPost struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	AuthorName *string   `db:"author_name" json:"author_name"`
	Title      string    `db:"title" json:"title"`
	Content    string    `db:"content" json:"content"`
	Upvotes    int       `db:"upvotes" json:"upvotes"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

type NewPost struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type ForumComment struct {
	ID            string    `db:"id" json:"id"`
	PostID        string    `db:"post_id" json:"post_id"`
	UserID        string    `db:"user_id" json:"user_id"`
	AuthorName    *string   `db:"author_name" json:"author_name"`
	AuthorPicture *string   `db:"author_picture" json:"author_picture"`
	Content       string    `db:"content" json:"content"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

type NewComment struct {
	Content string `json:"content"`
}

type LegalResource struct {
	ID        string    `db:"id" json:"id"`
	Category  string    `db:"category" json:"category"`
	Title     string    `db:"title" json:"title"`
	Content   string    `db:"content" json:"content"`
	Order     int       `db:"order" json:"order"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type ResourceInput struct {
	Category string `json:"category"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Order    *int   `json:"order,omitempty"`
}

type ResourceFilter struct {
	Category string
	Search   string
}

var ResourceCategories = []Option{
	{Value: "rights", Label: "Know Your Rights"},
	{Value: "filing_complaints", Label: "Filing Complaints"},
	{Value: "restraining_orders", Label: "Restraining Orders"},
	{Value: "domestic_violence", Label: "Domestic Violence"},
	{Value: "workplace_harassment", Label: "Workplace Harassment"},
	{Value: "cyberstalking", Label: "Cyberstalking"},
}

func ValidResourceCategory(value string) bool {
	for _, opt := range ResourceCategories {
		if opt.Value == value {
			return true
		}
	}
	return false
}

type MediaAsset struct {
	ID          string    `db:"id" json:"id"`
	OwnerUserID *string   `db:"owner_user_id" json:"owner_user_id"`
	Bucket      string    `db:"bucket" json:"bucket"`
	StorageKey  string    `db:"storage_key" json:"-"`
	Filename    *string   `db:"filename" json:"filename"`
	ContentType string    `db:"content_type" json:"content_type"`
	SizeBytes   int64     `db:"size_bytes" json:"size_bytes"`
	Sha256      *string   `db:"sha256" json:"sha256"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type UploadedAsset struct {
	AssetID string `json:"assetId"`
	URL     string `json:"url"`
}

func scanJSON(src interface{}, dest interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return errors.New("unsupported jsonb source type")
	}
}

type SessionEventType string

const (
	EventSignedIn       SessionEventType = "SIGNED_IN"
	EventSignedOut      SessionEventType = "SIGNED_OUT"
	EventTokenRefreshed SessionEventType = "TOKEN_REFRESHED"
	EventUserUpdated    SessionEventType = "USER_UPDATED"
)

// SessionEvent is published whenever a user's session or profile changes.
type SessionEvent struct {
	Event     SessionEventType `json:"event"`
	UserID    string           `json:"user_id"`
	SessionID string           `json:"session_id,omitempty"`
	At        time.Time        `json:"at"`
}

// AlertEvent is pushed to admin alert feeds.
type AlertEvent struct {
	Type  string   `json:"type"`
	Alert SOSAlert `json:"alert"`
}
