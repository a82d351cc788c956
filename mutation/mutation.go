package mutation

import (
	"context"
	"fmt"
	"strings"

	"github.com/Clever/kayvee-go/v7/logger"

	"github.com/IntelliLead/review-migrations/store"
	"github.com/IntelliLead/review-migrations/util"
)

// Kind is the kind of write a Mutation performs.
type Kind string

const (
	KindPut         Kind = "put"
	KindDelete      Kind = "delete"
	KindUpdate      Kind = "update"
	KindTransaction Kind = "transaction"
)

// Mutation is one write a migration wants to make. Transactions group several puts and deletes
// that must happen together.
type Mutation struct {
	Kind  Kind
	Table store.Table
	// Item is the full record written by a put.
	Item store.Item
	// Key is the record deleted or updated.
	Key store.Key
	// Set holds the attributes an update sets.
	Set store.Item
	// Ops are the operations of a transaction.
	Ops []store.WriteOp
}

func Put(table store.Table, item store.Item) Mutation {
	return Mutation{Kind: KindPut, Table: table, Item: item}
}

func Delete(table store.Table, key store.Key) Mutation {
	return Mutation{Kind: KindDelete, Table: table, Key: key}
}

func Update(table store.Table, key store.Key, set store.Item) Mutation {
	return Mutation{Kind: KindUpdate, Table: table, Key: key, Set: set}
}

// Transaction groups operations that are applied all together or not at all.
func Transaction(ops ...store.WriteOp) Mutation {
	return Mutation{Kind: KindTransaction, Ops: ops}
}

// Writes is the number of records the mutation writes.
func (m Mutation) Writes() int {
	if m.Kind == KindTransaction {
		return len(m.Ops)
	}
	return 1
}

// Apply performs the mutation against s.
func (m Mutation) Apply(ctx context.Context, s store.Store) error {
	switch m.Kind {
	case KindPut:
		return s.PutItem(ctx, m.Table, m.Item)
	case KindDelete:
		return s.DeleteItem(ctx, m.Table, m.Key)
	case KindUpdate:
		return s.UpdateItem(ctx, m.Table, m.Key, m.Set)
	case KindTransaction:
		return s.TransactWrite(ctx, m.Ops)
	}
	return fmt.Errorf("unknown mutation kind %q", m.Kind)
}

func (m Mutation) String() string {
	switch m.Kind {
	case KindPut:
		return fmt.Sprintf("put %s", m.Table.FormatKey(m.Table.KeyOf(m.Item)))
	case KindDelete:
		return fmt.Sprintf("delete %s", m.Table.FormatKey(m.Key))
	case KindUpdate:
		return fmt.Sprintf("update %s set %s", m.Table.FormatKey(m.Key), util.FormatItem(m.Set))
	case KindTransaction:
		ops := []string{}
		for _, op := range m.Ops {
			ops = append(ops, op.String())
		}
		return fmt.Sprintf("transaction [%s]", strings.Join(ops, "; "))
	}
	return string(m.Kind)
}

// LogData describes the mutation for structured logs.
func (m Mutation) LogData() logger.M {
	data := logger.M{
		"kind":     string(m.Kind),
		"mutation": m.String(),
		"writes":   m.Writes(),
	}
	if m.Kind != KindTransaction {
		data["table"] = m.Table.Name
	}
	return data
}
