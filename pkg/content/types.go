package content

import "time"

// Role determines what a user account may do at the request level.
type Role string

const (
	RoleAdmin     Role = "admin"     // Full access, including user and settings management
	RoleModerator Role = "moderator" // Can create and manage any article
	RoleUser      Role = "user"      // Read-only account, cannot author articles
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleUser:
		return true
	}
	return false
}

// Article is the central content entity. A published article is visible to
// every caller; an unpublished one only to its author.
type Article struct {
	ID        int64     `json:"id"`
	Slug      *string   `json:"slug,omitempty"` // unique when set, absent until assigned
	Title     string    `json:"title"`
	Body      string    `json:"body"` // rich content serialized as markup
	Published bool      `json:"published"`
	Sticky    bool      `json:"sticky"`
	Featured  bool      `json:"featured"`
	AuthorID  int64     `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Fields  []Field  `json:"fields,omitempty"`
	Tags    []Tag    `json:"tags,omitempty"`
	MenuTab *MenuTab `json:"menu_tab,omitempty"`
}

// ArticleSummary is the projection returned by listings and keyword search.
type ArticleSummary struct {
	ID        int64     `json:"id"`
	Slug      *string   `json:"slug,omitempty"`
	Title     string    `json:"title"`
	Published bool      `json:"published"`
	Sticky    bool      `json:"sticky"`
	Featured  bool      `json:"featured"`
	AuthorID  int64     `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

// FieldKind enumerates the media field types an article can carry.
type FieldKind string

const (
	FieldImage FieldKind = "image"
	FieldCode  FieldKind = "code"
	FieldLink  FieldKind = "link"
)

// Valid reports whether k is one of the known field kinds.
func (k FieldKind) Valid() bool {
	switch k {
	case FieldImage, FieldCode, FieldLink:
		return true
	}
	return false
}

// Field is a media attachment owned exclusively by its article. It never
// exists without a parent and is deleted with it.
type Field struct {
	ID        int64     `json:"id"`
	ArticleID int64     `json:"article_id"`
	Kind      FieldKind `json:"kind"`
	Value     string    `json:"value"`          // object name, code text, or link target
	Meta      *string   `json:"meta,omitempty"` // transient upload handle
	Position  int       `json:"position"`
}

// Tag names are not unique at the storage layer; listings deduplicate by
// distinct name at query time.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Setting is a process-wide key/value configuration row.
type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// User is an account. PasswordHash is nil for accounts created through
// non-credential flows.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash *string   `json:"-"` // never exposed
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MenuTab is a navigation entry, optionally attached one-to-one to an article.
type MenuTab struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Link      string `json:"link"`
	SortOrder int    `json:"sort_order"`
	ArticleID *int64 `json:"article_id,omitempty"`
}
