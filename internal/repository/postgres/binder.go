package postgres

import (
	"fmt"
	"strings"
	"time"

	"github.com/boriskezikov/greenapp.client-provider/internal/model"
	"github.com/boriskezikov/greenapp.client-provider/internal/repository"
)

// Arg builders map a domain value onto the ordered positional parameters of
// one statement. Placeholder count and order must exactly match the statement
// text; a mismatch is a programming error, not a runtime condition.

func insertClientArgs(c *model.Client) []any {
	return []any{
		c.Name,
		c.Surname,
		c.Login,
		nullString(c.Description),
		string(c.Type),
		nullDate(c.BirthDate),
	}
}

func updateClientArgs(c *model.Client) []any {
	return []any{
		c.Name,
		c.Surname,
		c.Login,
		nullString(c.Description),
		nullDate(c.BirthDate),
		c.ID,
	}
}

func attachArgs(a *model.Attachment) []any {
	return []any{
		a.ClientID,
		a.ContentType,
		a.ContentLength,
		a.Content,
	}
}

// buildFindListQuery assembles the list statement as the conjunction of only
// the supplied filters. Absent filters contribute no predicate; there is no
// wildcard matching. Rows are keyed strictly after the offset and returned in
// ascending id order, capped to the limit.
func buildFindListQuery(f repository.FindFilter) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, name, surname, login, CAST(type AS VARCHAR) FROM client WHERE id > $1`)
	args := []any{f.Offset}

	pos := 2
	if f.Name != nil {
		fmt.Fprintf(&sb, " AND name = $%d", pos)
		args = append(args, *f.Name)
		pos++
	}
	if f.Surname != nil {
		fmt.Fprintf(&sb, " AND surname = $%d", pos)
		args = append(args, *f.Surname)
		pos++
	}
	if f.Login != nil {
		fmt.Fprintf(&sb, " AND login = $%d", pos)
		args = append(args, *f.Login)
		pos++
	}
	if f.Type != nil {
		fmt.Fprintf(&sb, " AND type = $%d::client_type", pos)
		args = append(args, string(*f.Type))
		pos++
	}

	fmt.Fprintf(&sb, " ORDER BY id LIMIT $%d", pos)
	args = append(args, f.Limit)

	return sb.String(), args
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
