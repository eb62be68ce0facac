package dbtypes

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// UUIDArray maps to a Postgres uuid[] column such as
// storage_requests.assigned_rack_ids. sqlite stores the array literal as text.
type UUIDArray []uuid.UUID

// NewUUIDArray keeps the first occurrence of each id and drops uuid.Nil.
func NewUUIDArray(ids ...uuid.UUID) UUIDArray {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make(UUIDArray, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup || id == uuid.Nil {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (a UUIDArray) Contains(id uuid.UUID) bool {
	for _, existing := range a {
		if existing == id {
			return true
		}
	}
	return false
}

func (UUIDArray) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db != nil && db.Dialector != nil && db.Dialector.Name() == "postgres" {
		return "uuid[]"
	}
	return "text"
}

func (a *UUIDArray) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = UUIDArray{}
		return nil
	case string:
		return a.parse(v)
	case []byte:
		return a.parse(string(v))
	default:
		return fmt.Errorf("UUIDArray: unsupported Scan type %T", src)
	}
}

// Value renders the Postgres array literal {id,id}.
func (a UUIDArray) Value() (driver.Value, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, id := range a {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(id.String())
	}
	b.WriteByte('}')
	return b.String(), nil
}

func (a *UUIDArray) parse(literal string) error {
	body := strings.TrimSpace(literal)
	if !strings.HasPrefix(body, "{") || !strings.HasSuffix(body, "}") {
		if body == "" {
			*a = UUIDArray{}
			return nil
		}
		return fmt.Errorf("UUIDArray: malformed literal %q", literal)
	}
	body = strings.TrimSpace(body[1 : len(body)-1])
	out := UUIDArray{}
	if body == "" {
		*a = out
		return nil
	}
	for _, elem := range strings.Split(body, ",") {
		elem = strings.Trim(strings.TrimSpace(elem), `"`)
		if strings.EqualFold(elem, "NULL") {
			continue
		}
		id, err := uuid.Parse(elem)
		if err != nil {
			return fmt.Errorf("UUIDArray: parse %q: %w", elem, err)
		}
		out = append(out, id)
	}
	*a = out
	return nil
}
