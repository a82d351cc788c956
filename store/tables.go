package store

import (
	"github.com/IntelliLead/review-migrations/resources"
	"github.com/IntelliLead/review-migrations/util"
)

// Table names a table and its primary key attributes. Every key attribute is a string.
type Table struct {
	Name         string
	PartitionKey string
	SortKey      string
}

// KeyOf extracts the primary key of an item.
func (t Table) KeyOf(item Item) Key {
	key := Key{}
	if av, ok := item[t.PartitionKey]; ok {
		key[t.PartitionKey] = av
	}
	if t.SortKey != "" {
		if av, ok := item[t.SortKey]; ok {
			key[t.SortKey] = av
		}
	}
	return key
}

// Key builds a key from partition and sort values.
func (t Table) Key(partition, sort string) Key {
	key := Key{t.PartitionKey: util.S(partition)}
	if t.SortKey != "" {
		key[t.SortKey] = util.S(sort)
	}
	return key
}

// FormatKey renders a key as Table(partition=value, sort=value).
func (t Table) FormatKey(key Key) string {
	s := t.Name + "(" + t.PartitionKey + "=" + formatKeyValue(key[t.PartitionKey])
	if t.SortKey != "" {
		s += ", " + t.SortKey + "=" + formatKeyValue(key[t.SortKey])
	}
	return s + ")"
}

// TableConfig holds the table names used by the migrations.
type TableConfig struct {
	Users      string
	Reviews    string
	Businesses string
}

// DefaultTableConfig returns the production table names.
func DefaultTableConfig() TableConfig {
	return TableConfig{
		Users:      "User",
		Reviews:    "Review",
		Businesses: "Business",
	}
}

// UserTable returns the user table, keyed by user id and the fixed "#" sort key.
func (c TableConfig) UserTable() Table {
	return Table{Name: c.Users, PartitionKey: resources.AttrUserID, SortKey: resources.AttrUniqueID}
}

// ReviewTable returns the review table, keyed by owner id and review id.
// The owner attribute is still called userId even when it holds a business id.
func (c TableConfig) ReviewTable() Table {
	return Table{Name: c.Reviews, PartitionKey: resources.AttrUserID, SortKey: resources.AttrUniqueID}
}

// BusinessTable returns the business table, keyed by business id and unique id.
func (c TableConfig) BusinessTable() Table {
	return Table{Name: c.Businesses, PartitionKey: resources.AttrBusinessID, SortKey: resources.AttrUniqueID}
}

// All returns every table.
func (c TableConfig) All() []Table {
	return []Table{c.UserTable(), c.ReviewTable(), c.BusinessTable()}
}
