package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/service/dynamodb"

	"github.com/IntelliLead/review-migrations/util"
)

// Item is a record as stored, attribute name to value.
type Item map[string]*dynamodb.AttributeValue

// Key holds the primary key attributes of a record.
type Key map[string]*dynamodb.AttributeValue

// Store defines the record operations the migrations need from the document store.
type Store interface {
	// ScanPage reads one page of a table. The returned page token is empty once the table is exhausted.
	ScanPage(ctx context.Context, query ScanQuery) ([]Item, string, error)
	// QueryPage reads one page of a single partition, in sort key order.
	QueryPage(ctx context.Context, query PartitionQuery) ([]Item, string, error)

	GetItem(ctx context.Context, table Table, key Key) (Item, error)
	// PutItem fully overwrites the record with the item's key.
	PutItem(ctx context.Context, table Table, item Item) error
	// DeleteItem removes a record. Deleting an absent record is not an error.
	DeleteItem(ctx context.Context, table Table, key Key) error
	// UpdateItem sets the given top level attributes on an existing record.
	UpdateItem(ctx context.Context, table Table, key Key, set Item) error
	// TransactWrite applies all operations or none of them.
	TransactWrite(ctx context.Context, ops []WriteOp) error
}

// ScanQuery describes a table scan.
type ScanQuery struct {
	Table Table
	// Projection limits the returned attributes. Empty means all attributes.
	Projection []string
	Limit      int64
	PageToken  string
}

// PartitionQuery describes a query for every record sharing a partition key value.
type PartitionQuery struct {
	Table          Table
	PartitionValue string
	Limit          int64
	PageToken      string
}

// WriteOpType is the kind of a transactional write.
type WriteOpType string

const (
	WriteOpPut    WriteOpType = "put"
	WriteOpDelete WriteOpType = "delete"
)

// WriteOp is one operation of a transaction.
type WriteOp struct {
	Type  WriteOpType
	Table Table
	// Item is set for puts.
	Item Item
	// Key is set for deletes.
	Key Key
}

// PutOp returns a transactional put.
func PutOp(table Table, item Item) WriteOp {
	return WriteOp{Type: WriteOpPut, Table: table, Item: item}
}

// DeleteOp returns a transactional delete.
func DeleteOp(table Table, key Key) WriteOp {
	return WriteOp{Type: WriteOpDelete, Table: table, Key: key}
}

// TargetKey returns the key the operation writes to.
func (op WriteOp) TargetKey() Key {
	if op.Type == WriteOpPut {
		return op.Table.KeyOf(op.Item)
	}
	return op.Key
}

func (op WriteOp) String() string {
	return fmt.Sprintf("%s %s", op.Type, op.Table.FormatKey(op.TargetKey()))
}

// ScanAll reads every page of a scan and returns all items.
func ScanAll(ctx context.Context, s Store, query ScanQuery) ([]Item, error) {
	items := []Item{}
	for {
		page, next, err := s.ScanPage(ctx, query)
		if err != nil {
			return items, err
		}
		items = append(items, page...)
		if next == "" {
			return items, nil
		}
		query.PageToken = next
	}
}

// QueryAll reads every page of a partition query and returns all items.
func QueryAll(ctx context.Context, s Store, query PartitionQuery) ([]Item, error) {
	items := []Item{}
	for {
		page, next, err := s.QueryPage(ctx, query)
		if err != nil {
			return items, err
		}
		items = append(items, page...)
		if next == "" {
			return items, nil
		}
		query.PageToken = next
	}
}

// NotFoundError is returned by GetItem when no record has the key.
type NotFoundError struct {
	Table string
	Key   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s %s", e.Table, e.Key)
}

// NewNotFound returns a NotFoundError for the key in table.
func NewNotFound(table Table, key Key) NotFoundError {
	return NotFoundError{Table: table.Name, Key: table.FormatKey(key)}
}

// TransactionCanceledError is returned when a transaction was rejected as a whole.
type TransactionCanceledError struct {
	Reasons []string
	cause   error
}

// NewTransactionCanceledError returns a TransactionCanceledError.
func NewTransactionCanceledError(cause error, reasons ...string) TransactionCanceledError {
	return TransactionCanceledError{Reasons: reasons, cause: cause}
}

// Error implements the error interface.
func (e TransactionCanceledError) Error() string {
	msg := "transaction canceled"
	if len(e.Reasons) > 0 {
		msg += " [" + strings.Join(e.Reasons, ", ") + "]"
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error, if any.
func (e TransactionCanceledError) Unwrap() error {
	return e.cause
}

// InvalidPageTokenError is returned for scans and queries that contain a malformed or invalid page
// token.
type InvalidPageTokenError struct {
	cause error
}

// NewInvalidPageTokenError returns a new InvalidPageTokenError.
func NewInvalidPageTokenError(cause error) InvalidPageTokenError {
	return InvalidPageTokenError{
		cause: cause,
	}
}

// Error implements the error interface.
func (e InvalidPageTokenError) Error() string {
	return fmt.Sprintf("invalid page token: %v", e.cause)
}

// formatKeyValue renders a key attribute for messages.
func formatKeyValue(av *dynamodb.AttributeValue) string {
	return util.Format(av)
}
