package member

import (
	"context"
	"fmt"
)

// Linker binds pre-existing guest members to a newly created account by
// matching email across all bands. The match predicate requires a NULL
// user_id, so each member links at most once and re-running the resolver
// for the same user is a no-op. Each matched row is one independent atomic
// update; there is no ordering guarantee across bands.
type Linker struct {
	db     DB
	onLink func(count int64)
}

// NewLinker creates a Linker. onLink, when non-nil, is called with the
// number of rows linked on each successful run (metrics hook).
func NewLinker(db DB, onLink func(count int64)) *Linker {
	return &Linker{db: db, onLink: onLink}
}

// Link sets user_id on every active, unlinked member whose email matches.
// When syncName is true (federated first-login) the member's display name is
// overwritten with the account's profile name; the password-signup path
// keeps the name the guest member was created with.
func (l *Linker) Link(ctx context.Context, userID, email, name string, syncName bool) (int64, error) {
	var query string
	args := []any{userID, email}
	if syncName {
		query = `UPDATE band_members SET user_id = $1, name = $3
			 WHERE lower(email) = lower($2) AND user_id IS NULL AND is_active`
		args = append(args, name)
	} else {
		query = `UPDATE band_members SET user_id = $1
			 WHERE lower(email) = lower($2) AND user_id IS NULL AND is_active`
	}

	tag, err := l.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("linking members: %w", err)
	}

	linked := tag.RowsAffected()
	if linked > 0 && l.onLink != nil {
		l.onLink(linked)
	}
	return linked, nil
}
