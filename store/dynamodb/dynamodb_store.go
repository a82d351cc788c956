package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Clever/kayvee-go/v7/logger"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/aws/aws-sdk-go/service/dynamodb/expression"
	"github.com/cenkalti/backoff/v4"
	"golang.org/x/xerrors"

	"github.com/IntelliLead/review-migrations/store"
)

// maxTransactItems is the DynamoDB limit on operations in one TransactWriteItems call.
const maxTransactItems = 100

// errCodeValidation is returned by DynamoDB when a request is rejected before execution, e.g. a
// transaction that touches the same item twice.
const errCodeValidation = "ValidationException"

var log = logger.New("review-migrations")

// RetryConfig bounds the retries of throttled or otherwise retryable requests. These retries
// happen on top of the retries the SDK does itself.
type RetryConfig struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryConfig is used when no retry config is given.
var DefaultRetryConfig = RetryConfig{
	MaxRetries:      5,
	InitialInterval: 200 * time.Millisecond,
	MaxInterval:     5 * time.Second,
}

// DynamoDB implements store.Store on top of a DynamoDB client.
type DynamoDB struct {
	ddb   dynamodbiface.DynamoDBAPI
	retry RetryConfig
}

var _ store.Store = DynamoDB{}

func New(ddb dynamodbiface.DynamoDBAPI, retry RetryConfig) DynamoDB {
	if retry.InitialInterval <= 0 {
		retry.InitialInterval = DefaultRetryConfig.InitialInterval
	}
	if retry.MaxInterval <= 0 {
		retry.MaxInterval = DefaultRetryConfig.MaxInterval
	}
	return DynamoDB{
		ddb:   ddb,
		retry: retry,
	}
}

// ScanPage reads one page of a table with strongly consistent reads.
func (d DynamoDB) ScanPage(ctx context.Context, query store.ScanQuery) ([]store.Item, string, error) {
	input := &dynamodb.ScanInput{
		TableName:      aws.String(query.Table.Name),
		ConsistentRead: aws.Bool(true),
	}
	if query.Limit > 0 {
		input.Limit = aws.Int64(query.Limit)
	}
	if len(query.Projection) > 0 {
		names := []expression.NameBuilder{}
		for _, name := range query.Projection {
			names = append(names, expression.Name(name))
		}
		expr, err := expression.NewBuilder().
			WithProjection(expression.NamesList(names[0], names[1:]...)).
			Build()
		if err != nil {
			return nil, "", xerrors.Errorf("building projection for %s: %w", query.Table.Name, err)
		}
		input.ProjectionExpression = expr.Projection()
		input.ExpressionAttributeNames = expr.Names()
	}
	pageKey, err := ParsePageKey(query.PageToken)
	if err != nil {
		return nil, "", store.NewInvalidPageTokenError(err)
	}
	if pageKey != nil {
		input.SetExclusiveStartKey(map[string]*dynamodb.AttributeValue(*pageKey))
	}

	var res *dynamodb.ScanOutput
	err = d.withRetries(ctx, "Scan", func() error {
		var err error
		res, err = d.ddb.ScanWithContext(ctx, input)
		return err
	})
	if err != nil {
		return nil, "", err
	}
	return page(res.Items, res.LastEvaluatedKey)
}

// QueryPage reads one page of a partition, ascending by sort key.
func (d DynamoDB) QueryPage(ctx context.Context, query store.PartitionQuery) ([]store.Item, string, error) {
	keyCond := expression.Key(query.Table.PartitionKey).Equal(expression.Value(query.PartitionValue))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, "", xerrors.Errorf("building key condition for %s: %w", query.Table.Name, err)
	}
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(query.Table.Name),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ConsistentRead:            aws.Bool(true),
		ScanIndexForward:          aws.Bool(true),
	}
	if query.Limit > 0 {
		input.Limit = aws.Int64(query.Limit)
	}
	pageKey, err := ParsePageKey(query.PageToken)
	if err != nil {
		return nil, "", store.NewInvalidPageTokenError(err)
	}
	if pageKey != nil {
		input.SetExclusiveStartKey(map[string]*dynamodb.AttributeValue(*pageKey))
	}

	var res *dynamodb.QueryOutput
	err = d.withRetries(ctx, "Query", func() error {
		var err error
		res, err = d.ddb.QueryWithContext(ctx, input)
		return err
	})
	if err != nil {
		return nil, "", err
	}
	return page(res.Items, res.LastEvaluatedKey)
}

// GetItem reads a record with a strongly consistent read.
func (d DynamoDB) GetItem(ctx context.Context, table store.Table, key store.Key) (store.Item, error) {
	var res *dynamodb.GetItemOutput
	err := d.withRetries(ctx, "GetItem", func() error {
		var err error
		res, err = d.ddb.GetItemWithContext(ctx, &dynamodb.GetItemInput{
			TableName:      aws.String(table.Name),
			Key:            key,
			ConsistentRead: aws.Bool(true),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(res.Item) == 0 {
		return nil, store.NewNotFound(table, key)
	}
	return store.Item(res.Item), nil
}

func (d DynamoDB) PutItem(ctx context.Context, table store.Table, item store.Item) error {
	return d.withRetries(ctx, "PutItem", func() error {
		_, err := d.ddb.PutItemWithContext(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(table.Name),
			Item:      item,
		})
		return err
	})
}

func (d DynamoDB) DeleteItem(ctx context.Context, table store.Table, key store.Key) error {
	return d.withRetries(ctx, "DeleteItem", func() error {
		_, err := d.ddb.DeleteItemWithContext(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(table.Name),
			Key:       key,
		})
		return err
	})
}

// UpdateItem sets top level attributes with a SET update expression.
func (d DynamoDB) UpdateItem(ctx context.Context, table store.Table, key store.Key, set store.Item) error {
	if len(set) == 0 {
		return nil
	}
	updateExpr, names, values := setExpression(set)
	return d.withRetries(ctx, "UpdateItem", func() error {
		_, err := d.ddb.UpdateItemWithContext(ctx, &dynamodb.UpdateItemInput{
			TableName:                 aws.String(table.Name),
			Key:                       key,
			UpdateExpression:          aws.String(updateExpr),
			ExpressionAttributeNames:  names,
			ExpressionAttributeValues: values,
		})
		return err
	})
}

// TransactWrite applies the operations with TransactWriteItems. Cancellations and requests
// rejected as a whole come back as store.TransactionCanceledError.
func (d DynamoDB) TransactWrite(ctx context.Context, ops []store.WriteOp) error {
	if len(ops) == 0 {
		return nil
	}
	if len(ops) > maxTransactItems {
		return fmt.Errorf("transaction has %d operations, at most %d are allowed", len(ops), maxTransactItems)
	}
	items := []*dynamodb.TransactWriteItem{}
	for _, op := range ops {
		switch op.Type {
		case store.WriteOpPut:
			items = append(items, &dynamodb.TransactWriteItem{
				Put: &dynamodb.Put{
					TableName: aws.String(op.Table.Name),
					Item:      op.Item,
				},
			})
		case store.WriteOpDelete:
			items = append(items, &dynamodb.TransactWriteItem{
				Delete: &dynamodb.Delete{
					TableName: aws.String(op.Table.Name),
					Key:       op.Key,
				},
			})
		default:
			return fmt.Errorf("unknown transaction operation %q", op.Type)
		}
	}

	err := d.withRetries(ctx, "TransactWriteItems", func() error {
		_, err := d.ddb.TransactWriteItemsWithContext(ctx, &dynamodb.TransactWriteItemsInput{
			TransactItems: items,
		})
		return err
	})
	if err != nil {
		return transactionError(err)
	}
	return nil
}

// withRetries retries throttled and retryable requests with exponential backoff. All other
// errors are returned right away.
func (d DynamoDB) withRetries(ctx context.Context, operation string, f func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.retry.InitialInterval
	b.MaxInterval = d.retry.MaxInterval
	b.MaxElapsedTime = 0

	return backoff.RetryNotify(func() error {
		err := f()
		if err == nil {
			return nil
		}
		if retryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(backoff.WithMaxRetries(b, d.retry.MaxRetries), ctx), func(err error, wait time.Duration) {
		log.WarnD("dynamodb-retry", logger.M{
			"operation": operation,
			"error":     err.Error(),
			"wait":      wait.String(),
		})
	})
}

// retryable only considers service errors; anything else, such as a canceled context, is final.
func retryable(err error) bool {
	if _, ok := err.(awserr.Error); !ok {
		return false
	}
	return request.IsErrorThrottle(err) || request.IsErrorRetryable(err)
}

func transactionError(err error) error {
	var canceled *dynamodb.TransactionCanceledException
	if errors.As(err, &canceled) {
		reasons := []string{}
		for _, reason := range canceled.CancellationReasons {
			if reason != nil {
				reasons = append(reasons, aws.StringValue(reason.Code))
			}
		}
		return store.NewTransactionCanceledError(err, reasons...)
	}
	if awsErr, ok := err.(awserr.Error); ok {
		switch awsErr.Code() {
		case dynamodb.ErrCodeTransactionCanceledException:
			return store.NewTransactionCanceledError(err)
		case errCodeValidation:
			return store.NewTransactionCanceledError(err, "ValidationError")
		}
	}
	return err
}

// setExpression builds "SET #a0 = :v0, #a1 = :v1" for the attributes in name order.
func setExpression(set store.Item) (string, map[string]*string, map[string]*dynamodb.AttributeValue) {
	attrs := make([]string, 0, len(set))
	for name := range set {
		attrs = append(attrs, name)
	}
	sort.Strings(attrs)

	clauses := []string{}
	names := map[string]*string{}
	values := map[string]*dynamodb.AttributeValue{}
	for i, name := range attrs {
		n := fmt.Sprintf("#a%d", i)
		v := fmt.Sprintf(":v%d", i)
		clauses = append(clauses, n+" = "+v)
		names[n] = aws.String(name)
		values[v] = set[name]
	}
	return "SET " + strings.Join(clauses, ", "), names, values
}

func page(items []map[string]*dynamodb.AttributeValue, lastEvaluatedKey map[string]*dynamodb.AttributeValue) ([]store.Item, string, error) {
	out := make([]store.Item, 0, len(items))
	for _, item := range items {
		out = append(out, store.Item(item))
	}
	nextPageToken := ""
	if nextPageKey := NewPageKey(lastEvaluatedKey); nextPageKey != nil {
		var err error
		nextPageToken, err = nextPageKey.ToJSON()
		if err != nil {
			return out, "", err
		}
	}
	return out, nextPageToken, nil
}
