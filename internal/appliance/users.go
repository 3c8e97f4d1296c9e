package appliance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// ListUsers retrieves the enrolled users.
// The endpoint answers either with a bare array or with {"users": [...]};
// both are normalized here and the detected shape is reported in UserList.Shape.
func (a *Appliance) ListUsers(ctx context.Context) (*UserList, error) {
	body, err := doRequest(ctx, a, http.MethodGet, "api/users", nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return decodeUserList(body)
}

// decodeUserList performs the explicit shape detection for the list-users reply.
func decodeUserList(body []byte) (*UserList, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty user list body", ErrUnexpectedShape)
	}

	var raw []json.RawMessage
	shape := UserListArray

	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("could not unmarshal user list: %w", err)
		}
	case '{':
		var wrapped struct {
			Users *[]json.RawMessage `json:"users"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, fmt.Errorf("could not unmarshal user list: %w", err)
		}
		if wrapped.Users == nil {
			return nil, fmt.Errorf("%w: user list object has no users field", ErrUnexpectedShape)
		}
		raw = *wrapped.Users
		shape = UserListWrapped
	default:
		return nil, fmt.Errorf("%w: user list is neither array nor object", ErrUnexpectedShape)
	}

	users := make([]EnrolledUser, 0, len(raw))
	for i, item := range raw {
		user, err := decodeUser(item)
		if err != nil {
			return nil, fmt.Errorf("user list entry %d: %w", i, err)
		}
		// Nameless entries cannot be addressed by any user operation.
		if strings.TrimSpace(user.Name) == "" {
			continue
		}
		users = append(users, user)
	}
	return &UserList{Users: users, Shape: shape}, nil
}

// decodeUser accepts a plain name or an object with a name and a sample count.
// A blank name decodes without error and is dropped by the caller.
func decodeUser(item json.RawMessage) (EnrolledUser, error) {
	if string(bytes.TrimSpace(item)) == "null" {
		return EnrolledUser{}, fmt.Errorf("%w: null user entry", ErrUnexpectedShape)
	}

	var name string
	if err := json.Unmarshal(item, &name); err == nil {
		return EnrolledUser{Name: name}, nil
	}

	var obj struct {
		Name        string `json:"name"`
		FaceSamples *int   `json:"face_samples"`
		FaceCount   *int   `json:"face_count"`
		FaceImages  []any  `json:"face_images"`
	}
	if err := json.Unmarshal(item, &obj); err != nil {
		return EnrolledUser{}, fmt.Errorf("%w: entry is neither a name nor a user object", ErrUnexpectedShape)
	}

	user := EnrolledUser{Name: obj.Name, FaceSampleCount: len(obj.FaceImages)}
	switch {
	case obj.FaceSamples != nil:
		user.FaceSampleCount = *obj.FaceSamples
	case obj.FaceCount != nil:
		user.FaceSampleCount = *obj.FaceCount
	}
	return user, nil
}

// DeleteUser removes an enrolled user by name.
// A missing user is reported as a 404 *APIError (see IsNotFoundError).
func (a *Appliance) DeleteUser(ctx context.Context, name string) (string, error) {
	endpoint := userEndpoint(name)
	result, err := doDeleteJSON[successResponse](ctx, a, endpoint)
	if err != nil {
		return "", err
	}
	if !result.Success {
		return "", rejected(http.MethodDelete, endpoint, result.Error)
	}
	return result.Message, nil
}

// RenameUser changes the name of an enrolled user
func (a *Appliance) RenameUser(ctx context.Context, name, newName string) (string, error) {
	endpoint := userEndpoint(name)
	update := struct {
		Name string `json:"name"`
	}{
		Name: newName,
	}

	result, err := doPutJSON[successResponse](ctx, a, endpoint, update)
	if err != nil {
		return "", err
	}
	if !result.Success {
		return "", rejected(http.MethodPut, endpoint, result.Error)
	}
	return result.Message, nil
}
