package proto

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// CreateUserRequest is the payload of UsersService.CreateUser.
type CreateUserRequest struct {
	Email  string
	Sub    string
	Avatar string
}

func (r CreateUserRequest) ToStruct() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"email":  structpb.NewStringValue(r.Email),
		"sub":    structpb.NewStringValue(r.Sub),
		"avatar": structpb.NewStringValue(r.Avatar),
	}}
}

// CreateUserRequestFromStruct reads a CreateUserRequest. Missing fields are
// left empty; fields of the wrong kind are an error.
func CreateUserRequestFromStruct(s *structpb.Struct) (CreateUserRequest, error) {
	var (
		r   CreateUserRequest
		err error
	)
	f := s.GetFields()
	if r.Email, err = stringField(f, "email"); err != nil {
		return r, err
	}
	if r.Sub, err = stringField(f, "sub"); err != nil {
		return r, err
	}
	if r.Avatar, err = stringField(f, "avatar"); err != nil {
		return r, err
	}
	return r, nil
}

// User is the profile returned by UsersService.Auth.
type User struct {
	ID                 string
	Email              string
	Sub                string
	Avatar             string
	Created            time.Time
	Updated            time.Time
	Deleted            time.Time
	SubscriptionActive bool
}

// AuthResponse is the payload returned by UsersService.Auth.
type AuthResponse struct {
	User  User
	Token string
}

func (r AuthResponse) ToStruct() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":                  structpb.NewStringValue(r.User.ID),
		"email":               structpb.NewStringValue(r.User.Email),
		"sub":                 structpb.NewStringValue(r.User.Sub),
		"avatar":              structpb.NewStringValue(r.User.Avatar),
		"created":             structpb.NewStringValue(r.User.Created.UTC().Format(time.RFC3339Nano)),
		"updated":             structpb.NewStringValue(r.User.Updated.UTC().Format(time.RFC3339Nano)),
		"deleted":             structpb.NewStringValue(r.User.Deleted.UTC().Format(time.RFC3339Nano)),
		"subscription_active": structpb.NewBoolValue(r.User.SubscriptionActive),
		"token":               structpb.NewStringValue(r.Token),
	}}
}

func AuthResponseFromStruct(s *structpb.Struct) (AuthResponse, error) {
	var (
		r   AuthResponse
		err error
	)
	f := s.GetFields()

	for name, dst := range map[string]*string{
		"id":     &r.User.ID,
		"email":  &r.User.Email,
		"sub":    &r.User.Sub,
		"avatar": &r.User.Avatar,
		"token":  &r.Token,
	} {
		if *dst, err = stringField(f, name); err != nil {
			return r, err
		}
	}

	for name, dst := range map[string]*time.Time{
		"created": &r.User.Created,
		"updated": &r.User.Updated,
		"deleted": &r.User.Deleted,
	} {
		raw, err := stringField(f, name)
		if err != nil {
			return r, err
		}
		if raw == "" {
			continue
		}
		if *dst, err = time.Parse(time.RFC3339Nano, raw); err != nil {
			return r, fmt.Errorf("field %q: %w", name, err)
		}
	}

	if v, ok := f["subscription_active"]; ok {
		b, ok := v.GetKind().(*structpb.Value_BoolValue)
		if !ok {
			return r, fmt.Errorf("field %q: not a bool", "subscription_active")
		}
		r.User.SubscriptionActive = b.BoolValue
	}

	return r, nil
}

func stringField(f map[string]*structpb.Value, name string) (string, error) {
	v, ok := f[name]
	if !ok {
		return "", nil
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("field %q: not a string", name)
	}
	return s.StringValue, nil
}
