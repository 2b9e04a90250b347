package sqlstore

import (
	"github.com/platinummonkey/inkwell/pkg/auth"
)

// visibilityClause builds the single visibility predicate applied by every
// read path (id lookup, slug resolution, keyword search). Anonymous callers
// see published rows only; an authenticated caller additionally sees their
// own drafts. Privileged roles get no extra read visibility.
//
// The clause references the articles table through the "a" alias; callers
// must alias accordingly.
func visibilityClause(caller *auth.Identity) (string, []interface{}) {
	if caller == nil {
		return "a.published = ?", []interface{}{true}
	}
	return "(a.published = ? OR a.author_id = ?)", []interface{}{true, caller.UserID}
}

// searchClause builds the keyword-match condition combined with the
// visibility predicate. Both the results query and the count query are built
// from this one function so their filters cannot drift. An empty keyword
// degenerates to matching everything visible.
func (s *Store) searchClause(keyword string, caller *auth.Identity) (string, []interface{}) {
	like := "LIKE"
	if s.dialect == DialectPostgres {
		like = "ILIKE"
	}

	pattern := "%" + keyword + "%"
	where := "(a.title " + like + " ? OR a.body " + like + " ?)"
	args := []interface{}{pattern, pattern}

	visWhere, visArgs := visibilityClause(caller)
	where += " AND " + visWhere
	args = append(args, visArgs...)

	return where, args
}
