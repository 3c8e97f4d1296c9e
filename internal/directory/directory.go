// Package directory keeps the console's copy of the enrolled-user list.
// The list is only ever replaced by a fetch from the appliance, never
// patched locally.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/kozaktomas/face-console/internal/appliance"
)

var (
	// ErrBlankName is returned when a required name is empty after trimming.
	ErrBlankName = errors.New("name is required")
	// ErrSameName is returned by Rename when the new name equals the old one.
	ErrSameName = errors.New("new name is the same as the current name")
	// ErrUserNotFound is returned when the appliance does not know the user.
	ErrUserNotFound = errors.New("user not found")
)

// Client is the subset of the appliance client the directory uses.
type Client interface {
	ListUsers(ctx context.Context) (*appliance.UserList, error)
	DeleteUser(ctx context.Context, name string) (string, error)
	RenameUser(ctx context.Context, name, newName string) (string, error)
}

// Entry is one enrolled user as displayed. ID is a 1-based position in the
// last fetched list and is not stable across refreshes.
type Entry struct {
	ID              int    `json:"id" yaml:"id"`
	Name            string `json:"name" yaml:"name"`
	FaceSampleCount int    `json:"face_samples,omitempty" yaml:"face_samples,omitempty"`
}

// Directory holds the last fetched user list.
type Directory struct {
	client   Client
	logger   *slog.Logger
	onChange func([]Entry)

	fetchMu sync.Mutex // serializes refreshes so lists apply in fetch order

	mu        sync.RWMutex
	entries   []Entry
	shape     appliance.UserListShape
	fetchedAt time.Time
}

// New creates an empty directory. onChange, if set, runs after every
// successful refresh.
func New(client Client, logger *slog.Logger, onChange func([]Entry)) *Directory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{client: client, logger: logger, onChange: onChange, entries: []Entry{}}
}

// Entries returns a copy of the current list.
func (d *Directory) Entries() []Entry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	result := make([]Entry, len(d.entries))
	copy(result, d.entries)
	return result
}

// Shape reports which list shape the appliance used on the last fetch.
func (d *Directory) Shape() appliance.UserListShape {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.shape
}

// FetchedAt returns when the list was last replaced; zero before the first fetch.
func (d *Directory) FetchedAt() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.fetchedAt
}

// Refresh re-fetches the list. On failure the previous list is kept.
func (d *Directory) Refresh(ctx context.Context) ([]Entry, error) {
	d.fetchMu.Lock()
	defer d.fetchMu.Unlock()

	list, err := d.client.ListUsers(ctx)
	if err != nil {
		return d.Entries(), fmt.Errorf("failed to fetch users: %w", err)
	}

	entries := make([]Entry, len(list.Users))
	for i, u := range list.Users {
		entries[i] = Entry{ID: i + 1, Name: u.Name, FaceSampleCount: u.FaceSampleCount}
	}

	d.mu.Lock()
	d.entries = entries
	d.shape = list.Shape
	d.fetchedAt = time.Now().UTC()
	d.mu.Unlock()

	if d.onChange != nil {
		d.onChange(d.Entries())
	}
	return d.Entries(), nil
}

// Delete removes name on the appliance and re-fetches the list.
func (d *Directory) Delete(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrBlankName
	}

	msg, err := d.client.DeleteUser(ctx, name)
	d.refetch(ctx)
	if err != nil {
		return "", mutationError("delete", name, err)
	}
	return msg, nil
}

// Rename changes oldName to newName on the appliance and re-fetches the list.
func (d *Directory) Rename(ctx context.Context, oldName, newName string) (string, error) {
	oldName = strings.TrimSpace(oldName)
	newName = strings.TrimSpace(newName)
	if oldName == "" || newName == "" {
		return "", ErrBlankName
	}
	if oldName == newName {
		return "", ErrSameName
	}

	msg, err := d.client.RenameUser(ctx, oldName, newName)
	d.refetch(ctx)
	if err != nil {
		return "", mutationError("rename", oldName, err)
	}
	return msg, nil
}

// refetch refreshes after a mutation, whatever its outcome.
func (d *Directory) refetch(ctx context.Context) {
	if _, err := d.Refresh(ctx); err != nil {
		d.logger.WarnContext(ctx, "user list refresh after mutation failed", "error", err)
	}
}

func mutationError(op, name string, err error) error {
	if appliance.IsNotFoundError(err) {
		return fmt.Errorf("failed to %s %s: %w: %w", op, name, ErrUserNotFound, err)
	}
	return fmt.Errorf("failed to %s %s: %w", op, name, err)
}
