package views

import (
	"context"
	"io"
	"strings"

	"safeguard-go/internal/apperr"
	"safeguard-go/internal/backend"
	"safeguard-go/internal/models"
)

const profileBucket = "profile"

// ProfileEditor is the session manager's profile surface.
type ProfileEditor interface {
	CurrentUser
	UpdateProfile(ctx context.Context, patch models.ProfilePatch) (*models.User, error)
}

type ProfileView struct {
	editor ProfileEditor
	media  backend.Media
}

func NewProfileView(editor ProfileEditor, media backend.Media) *ProfileView {
	return &ProfileView{editor: editor, media: media}
}

func (v *ProfileView) Show() (*models.User, error) {
	return requireUser(v.editor, "show profile")
}

// Update changes name and phone. Nil leaves a field as is; a given value
// must not be blank.
func (v *ProfileView) Update(ctx context.Context, fullName, phone *string) (*models.User, error) {
	const op = "update profile"
	patch := models.ProfilePatch{FullName: trimmed(fullName), PhoneNumber: trimmed(phone)}
	if patch.Empty() {
		return nil, apperr.Validation(op, "nothing to update")
	}
	if patch.FullName != nil {
		if err := required(op, field("full name", *patch.FullName)); err != nil {
			return nil, err
		}
	}
	if patch.PhoneNumber != nil {
		if err := required(op, field("phone", *patch.PhoneNumber)); err != nil {
			return nil, err
		}
	}
	return v.editor.UpdateProfile(ctx, patch)
}

func (v *ProfileView) AddContact(ctx context.Context, contact models.EmergencyContact) (*models.User, error) {
	const op = "add emergency contact"
	user, err := requireUser(v.editor, op)
	if err != nil {
		return nil, err
	}
	if err := required(op, field("name", contact.Name), field("email", contact.Email)); err != nil {
		return nil, err
	}
	contact.Name = strings.TrimSpace(contact.Name)
	contact.Email = strings.TrimSpace(contact.Email)
	contact.Phone = strings.TrimSpace(contact.Phone)
	contacts := append(models.EmergencyContacts{}, user.EmergencyContacts...)
	contacts = append(contacts, contact)
	return v.editor.UpdateProfile(ctx, models.ProfilePatch{EmergencyContacts: &contacts})
}

// RemoveContact drops the contact at index (zero-based, as listed).
func (v *ProfileView) RemoveContact(ctx context.Context, index int) (*models.User, error) {
	const op = "remove emergency contact"
	user, err := requireUser(v.editor, op)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(user.EmergencyContacts) {
		return nil, apperr.Validation(op, "no contact at position %d", index+1)
	}
	contacts := append(models.EmergencyContacts{}, user.EmergencyContacts[:index]...)
	contacts = append(contacts, user.EmergencyContacts[index+1:]...)
	return v.editor.UpdateProfile(ctx, models.ProfilePatch{EmergencyContacts: &contacts})
}

// SetPicture uploads an image and points the profile at it.
func (v *ProfileView) SetPicture(ctx context.Context, filename string, body io.Reader) (*models.User, error) {
	const op = "set profile picture"
	if _, err := requireUser(v.editor, op); err != nil {
		return nil, err
	}
	if err := required(op, field("file name", filename)); err != nil {
		return nil, err
	}
	asset, err := v.media.Upload(ctx, profileBucket, filename, body)
	if err != nil {
		return nil, apperr.Backend(op, err)
	}
	url := asset.URL
	return v.editor.UpdateProfile(ctx, models.ProfilePatch{ProfilePicture: &url})
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	out := strings.TrimSpace(*value)
	return &out
}
