package models

import "time"

// Default values applied to project drafts.
const (
	DefaultProjectName = "New Project"
	DefaultProjectIcon = "📁"
)

// ProjectStatus is a named lifecycle stage a project can reference.
type ProjectStatus struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Project describes a workspace project owned by a single user.
type Project struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	StatusID    *int64         `json:"status_id,omitempty"`
	Status      *ProjectStatus `json:"status,omitempty"`
	Progress    int            `json:"progress"`
	Icon        string         `json:"icon"`
	IsFavorite  bool           `json:"is_favorite"`
	DueDate     *time.Time     `json:"due_date,omitempty"`
	ArchivedAt  *time.Time     `json:"archived_at,omitempty"`
	DeletedAt   *time.Time     `json:"deleted_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Active reports whether the project belongs in active views.
func (p Project) Active() bool {
	return p.ArchivedAt == nil && p.DeletedAt == nil
}

// Clone returns a copy that shares no pointers with p.
func (p Project) Clone() Project {
	c := p
	c.StatusID = cloneInt64(p.StatusID)
	if p.Status != nil {
		s := *p.Status
		c.Status = &s
	}
	c.DueDate = cloneTime(p.DueDate)
	c.ArchivedAt = cloneTime(p.ArchivedAt)
	c.DeletedAt = cloneTime(p.DeletedAt)
	return c
}

// ProjectDraft carries the caller supplied fields of a new project.
type ProjectDraft struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Icon        string     `json:"icon,omitempty"`
	StatusID    *int64     `json:"status_id,omitempty"`
	IsFavorite  bool       `json:"is_favorite"`
	Progress    int        `json:"progress"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// WithDefaults fills the name and icon when they are blank.
func (d ProjectDraft) WithDefaults() ProjectDraft {
	if d.Name == "" {
		d.Name = DefaultProjectName
	}
	if d.Icon == "" {
		d.Icon = DefaultProjectIcon
	}
	return d
}

// ProjectPatch is a partial project update; nil fields are left unchanged.
type ProjectPatch struct {
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	Icon        *string    `json:"icon,omitempty"`
	StatusID    *int64     `json:"status_id,omitempty"`
	Progress    *int       `json:"progress,omitempty"`
	IsFavorite  *bool      `json:"is_favorite,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// Apply writes the set fields of the patch onto p.
func (pp ProjectPatch) Apply(p *Project) {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	if pp.Icon != nil {
		p.Icon = *pp.Icon
	}
	if pp.StatusID != nil {
		p.StatusID = cloneInt64(pp.StatusID)
		if p.Status != nil && p.Status.ID != *pp.StatusID {
			p.Status = nil
		}
	}
	if pp.Progress != nil {
		p.Progress = *pp.Progress
	}
	if pp.IsFavorite != nil {
		p.IsFavorite = *pp.IsFavorite
	}
	if pp.DueDate != nil {
		p.DueDate = cloneTime(pp.DueDate)
	}
	if pp.ArchivedAt != nil {
		p.ArchivedAt = cloneTime(pp.ArchivedAt)
	}
	if pp.DeletedAt != nil {
		p.DeletedAt = cloneTime(pp.DeletedAt)
	}
}

// Empty reports whether the patch changes nothing.
func (pp ProjectPatch) Empty() bool {
	return pp == ProjectPatch{}
}

// User is the owner of projects.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WaitlistEntry is a signup collected from the landing page.
type WaitlistEntry struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
