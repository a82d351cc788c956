package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go/service/dynamodb"
	"golang.org/x/xerrors"

	"github.com/IntelliLead/review-migrations/store"
	"github.com/IntelliLead/review-migrations/util"
)

// MemoryStore keeps every table in memory. Items are copied on the way in and out
// so callers can never alias stored records.
type MemoryStore struct {
	mu     *sync.Mutex
	tables map[string]map[string]store.Item
	hooks  *hooks
}

// Op names the store operation a FailureFunc is consulted for.
type Op string

const (
	OpPut      Op = "PutItem"
	OpDelete   Op = "DeleteItem"
	OpUpdate   Op = "UpdateItem"
	OpTransact Op = "TransactWrite"
)

// FailureFunc decides whether a write fails. It is called with the operation, the table
// and the key written, and for transactions with the index of the operation inside the
// transaction (otherwise -1). A non-nil return is returned by the store instead of writing.
type FailureFunc func(op Op, table string, key store.Key, index int) error

type hooks struct {
	fail FailureFunc
}

func New() MemoryStore {
	return MemoryStore{
		mu:     &sync.Mutex{},
		tables: map[string]map[string]store.Item{},
		hooks:  &hooks{},
	}
}

// FailWrites installs a failure hook for writes. Pass nil to remove it.
func (s MemoryStore) FailWrites(f FailureFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks.fail = f
}

// Seed stores items directly, bypassing failure hooks.
func (s MemoryStore) Seed(table store.Table, items ...store.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range items {
		s.table(table.Name)[keyString(table, table.KeyOf(item))] = cloneItem(item)
	}
}

// Items returns a copy of every item of a table in key order.
func (s MemoryStore) Items(table store.Table) []store.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := []store.Item{}
	t := s.table(table.Name)
	for _, k := range sortedKeys(t) {
		items = append(items, cloneItem(t[k]))
	}
	return items
}

// Clone returns an independent store holding a copy of every table.
func (s MemoryStore) Clone() MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := New()
	for name, t := range s.tables {
		ct := map[string]store.Item{}
		for k, item := range t {
			ct[k] = cloneItem(item)
		}
		c.tables[name] = ct
	}
	return c
}

func (s MemoryStore) ScanPage(ctx context.Context, query store.ScanQuery) ([]store.Item, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.table(query.Table.Name)
	items, next := page(t, sortedKeys(t), query.PageToken, query.Limit)
	if len(query.Projection) > 0 {
		for i, item := range items {
			projected := store.Item{}
			for _, name := range query.Projection {
				if av, ok := item[name]; ok {
					projected[name] = av
				}
			}
			items[i] = projected
		}
	}
	return items, next, nil
}

func (s MemoryStore) QueryPage(ctx context.Context, query store.PartitionQuery) ([]store.Item, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.table(query.Table.Name)
	keys := []string{}
	for _, k := range sortedKeys(t) {
		pk, ok := util.StringAttr(t[k], query.Table.PartitionKey)
		if ok && pk == query.PartitionValue {
			keys = append(keys, k)
		}
	}
	items, next := page(t, keys, query.PageToken, query.Limit)
	return items, next, nil
}

func (s MemoryStore) GetItem(ctx context.Context, table store.Table, key store.Key) (store.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.table(table.Name)[keyString(table, key)]
	if !ok {
		return nil, store.NewNotFound(table, key)
	}
	return cloneItem(item), nil
}

func (s MemoryStore) PutItem(ctx context.Context, table store.Table, item store.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := table.KeyOf(item)
	if err := s.check(OpPut, table, key, -1); err != nil {
		return err
	}
	s.table(table.Name)[keyString(table, key)] = cloneItem(item)
	return nil
}

func (s MemoryStore) DeleteItem(ctx context.Context, table store.Table, key store.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(OpDelete, table, key, -1); err != nil {
		return err
	}
	delete(s.table(table.Name), keyString(table, key))
	return nil
}

func (s MemoryStore) UpdateItem(ctx context.Context, table store.Table, key store.Key, set store.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(OpUpdate, table, key, -1); err != nil {
		return err
	}
	t := s.table(table.Name)
	k := keyString(table, key)
	item, ok := t[k]
	if !ok {
		// like DynamoDB, an update of an absent record creates it
		item = cloneItem(store.Item(key))
	}
	for name, av := range set {
		item[name] = util.CloneValue(av)
	}
	t[k] = item
	return nil
}

// TransactWrite stages every operation on a copy of the affected tables and only
// swaps the copies in once all of them succeeded.
func (s MemoryStore) TransactWrite(ctx context.Context, ops []store.WriteOp) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := map[string]bool{}
	staged := map[string]map[string]store.Item{}
	for i, op := range ops {
		key := op.TargetKey()
		k := op.Table.Name + "|" + keyString(op.Table, key)
		if seen[k] {
			return store.NewTransactionCanceledError(
				xerrors.Errorf("multiple operations on %s", op.Table.FormatKey(key)), "ValidationError")
		}
		seen[k] = true

		if err := s.check(OpTransact, op.Table, key, i); err != nil {
			return store.NewTransactionCanceledError(err)
		}

		t, ok := staged[op.Table.Name]
		if !ok {
			t = map[string]store.Item{}
			for k, item := range s.table(op.Table.Name) {
				t[k] = item
			}
			staged[op.Table.Name] = t
		}
		switch op.Type {
		case store.WriteOpPut:
			t[keyString(op.Table, key)] = cloneItem(op.Item)
		case store.WriteOpDelete:
			delete(t, keyString(op.Table, key))
		default:
			return store.NewTransactionCanceledError(xerrors.Errorf("unknown operation %q", op.Type), "ValidationError")
		}
	}
	for name, t := range staged {
		s.tables[name] = t
	}
	return nil
}

func (s MemoryStore) check(op Op, table store.Table, key store.Key, index int) error {
	if s.hooks.fail == nil {
		return nil
	}
	return s.hooks.fail(op, table.Name, key, index)
}

func (s MemoryStore) table(name string) map[string]store.Item {
	t, ok := s.tables[name]
	if !ok {
		t = map[string]store.Item{}
		s.tables[name] = t
	}
	return t
}

// page returns up to limit items following the key named by token, and the token of the
// next page, which is empty on the last page.
func page(t map[string]store.Item, keys []string, token string, limit int64) ([]store.Item, string) {
	start := 0
	if token != "" {
		start = sort.SearchStrings(keys, token)
		if start < len(keys) && keys[start] == token {
			start++
		}
	}
	end := len(keys)
	if limit > 0 && int64(start)+limit < int64(end) {
		end = start + int(limit)
	}
	items := []store.Item{}
	for _, k := range keys[start:end] {
		items = append(items, cloneItem(t[k]))
	}
	next := ""
	if end < len(keys) {
		next = keys[end-1]
	}
	return items, next
}

func sortedKeys(t map[string]store.Item) []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func keyString(table store.Table, key store.Key) string {
	k := keyPart(key[table.PartitionKey])
	if table.SortKey != "" {
		k += "\x00" + keyPart(key[table.SortKey])
	}
	return k
}

func keyPart(av *dynamodb.AttributeValue) string {
	switch {
	case av == nil:
		return ""
	case av.S != nil:
		return *av.S
	case av.N != nil:
		return *av.N
	}
	return util.Format(av)
}

func cloneItem(item store.Item) store.Item {
	return store.Item(util.CloneItem(item))
}
