package dynamodb

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IntelliLead/review-migrations/store"
	"github.com/IntelliLead/review-migrations/store/tests"
	"github.com/IntelliLead/review-migrations/util"
)

func TestDynamoDBStore(t *testing.T) {
	endpoint := os.Getenv("AWS_DYNAMO_ENDPOINT")
	if endpoint == "" {
		t.Skip("AWS_DYNAMO_ENDPOINT not set")
	}
	svc := dynamodb.New(session.Must(session.NewSessionWithOptions(session.Options{
		Config: aws.Config{
			Region:      aws.String("ap-northeast-1"),
			Endpoint:    aws.String(endpoint),
			Credentials: credentials.NewStaticCredentials("local", "local", ""),
		},
	})))
	s := New(svc, DefaultRetryConfig)
	require.NoError(t, s.InitTables(context.Background(), tests.Tables.All()...))

	tests.RunStoreTests(t, func() store.Store { return s })
}

var fastRetries = RetryConfig{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}

type fakeDynamoDB struct {
	dynamodbiface.DynamoDBAPI

	scanInputs     []*dynamodb.ScanInput
	queryInputs    []*dynamodb.QueryInput
	updateInputs   []*dynamodb.UpdateItemInput
	transactInputs []*dynamodb.TransactWriteItemsInput
	createInputs   []*dynamodb.CreateTableInput
	getCalls       int

	scanOutput *dynamodb.ScanOutput
	getOutput  *dynamodb.GetItemOutput
	// getErrs are returned by successive GetItem calls before getOutput is.
	getErrs     []error
	transactErr error
	createErr   error
}

func (f *fakeDynamoDB) ScanWithContext(ctx aws.Context, input *dynamodb.ScanInput, _ ...request.Option) (*dynamodb.ScanOutput, error) {
	f.scanInputs = append(f.scanInputs, input)
	return f.scanOutput, nil
}

func (f *fakeDynamoDB) QueryWithContext(ctx aws.Context, input *dynamodb.QueryInput, _ ...request.Option) (*dynamodb.QueryOutput, error) {
	f.queryInputs = append(f.queryInputs, input)
	return &dynamodb.QueryOutput{}, nil
}

func (f *fakeDynamoDB) GetItemWithContext(ctx aws.Context, input *dynamodb.GetItemInput, _ ...request.Option) (*dynamodb.GetItemOutput, error) {
	f.getCalls++
	if len(f.getErrs) > 0 {
		err := f.getErrs[0]
		f.getErrs = f.getErrs[1:]
		return nil, err
	}
	return f.getOutput, nil
}

func (f *fakeDynamoDB) UpdateItemWithContext(ctx aws.Context, input *dynamodb.UpdateItemInput, _ ...request.Option) (*dynamodb.UpdateItemOutput, error) {
	f.updateInputs = append(f.updateInputs, input)
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeDynamoDB) TransactWriteItemsWithContext(ctx aws.Context, input *dynamodb.TransactWriteItemsInput, _ ...request.Option) (*dynamodb.TransactWriteItemsOutput, error) {
	f.transactInputs = append(f.transactInputs, input)
	return &dynamodb.TransactWriteItemsOutput{}, f.transactErr
}

func (f *fakeDynamoDB) CreateTableWithContext(ctx aws.Context, input *dynamodb.CreateTableInput, _ ...request.Option) (*dynamodb.CreateTableOutput, error) {
	f.createInputs = append(f.createInputs, input)
	return &dynamodb.CreateTableOutput{}, f.createErr
}

func TestScanPageProjectionAndPageTokens(t *testing.T) {
	table := tests.Tables.UserTable()
	fake := &fakeDynamoDB{scanOutput: &dynamodb.ScanOutput{
		Items: []map[string]*dynamodb.AttributeValue{
			{"userId": util.S("U1"), "activeBusinessId": util.S("accounts/1/locations/2")},
		},
		LastEvaluatedKey: map[string]*dynamodb.AttributeValue{"userId": util.S("U1"), "uniqueId": util.S("#")},
	}}
	s := New(fake, fastRetries)

	items, next, err := s.ScanPage(context.Background(), store.ScanQuery{
		Table:      table,
		Projection: []string{"userId", "activeBusinessId"},
		Limit:      25,
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotEmpty(t, next)

	input := fake.scanInputs[0]
	assert.Equal(t, table.Name, aws.StringValue(input.TableName))
	assert.True(t, aws.BoolValue(input.ConsistentRead))
	assert.Equal(t, int64(25), aws.Int64Value(input.Limit))
	assert.NotEmpty(t, aws.StringValue(input.ProjectionExpression))
	projected := []string{}
	for _, name := range input.ExpressionAttributeNames {
		projected = append(projected, aws.StringValue(name))
	}
	assert.ElementsMatch(t, []string{"userId", "activeBusinessId"}, projected)
	assert.Nil(t, input.ExclusiveStartKey)

	t.Log("the returned token resumes the scan")
	fake.scanOutput = &dynamodb.ScanOutput{}
	_, next, err = s.ScanPage(context.Background(), store.ScanQuery{Table: table, PageToken: next})
	require.NoError(t, err)
	assert.Empty(t, next)
	assert.Equal(t, "U1", aws.StringValue(fake.scanInputs[1].ExclusiveStartKey["userId"].S))
	assert.Equal(t, "#", aws.StringValue(fake.scanInputs[1].ExclusiveStartKey["uniqueId"].S))
	assert.Nil(t, fake.scanInputs[1].ProjectionExpression)
}

func TestInvalidPageToken(t *testing.T) {
	s := New(&fakeDynamoDB{}, fastRetries)
	_, _, err := s.ScanPage(context.Background(), store.ScanQuery{Table: tests.Tables.UserTable(), PageToken: "nope"})
	assert.IsType(t, store.InvalidPageTokenError{}, err)

	_, _, err = s.QueryPage(context.Background(), store.PartitionQuery{Table: tests.Tables.ReviewTable(), PartitionValue: "U1", PageToken: "nope"})
	assert.IsType(t, store.InvalidPageTokenError{}, err)
}

func TestQueryPageKeyCondition(t *testing.T) {
	fake := &fakeDynamoDB{}
	s := New(fake, fastRetries)
	items, next, err := s.QueryPage(context.Background(), store.PartitionQuery{
		Table:          tests.Tables.ReviewTable(),
		PartitionValue: "U1",
	})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Empty(t, next)

	input := fake.queryInputs[0]
	assert.NotEmpty(t, aws.StringValue(input.KeyConditionExpression))
	assert.True(t, aws.BoolValue(input.ConsistentRead))
	assert.Nil(t, input.Limit)
	require.Len(t, input.ExpressionAttributeNames, 1)
	for _, name := range input.ExpressionAttributeNames {
		assert.Equal(t, "userId", aws.StringValue(name))
	}
	require.Len(t, input.ExpressionAttributeValues, 1)
	for _, value := range input.ExpressionAttributeValues {
		assert.Equal(t, "U1", aws.StringValue(value.S))
	}
}

func TestGetItemNotFound(t *testing.T) {
	table := tests.Tables.UserTable()
	s := New(&fakeDynamoDB{getOutput: &dynamodb.GetItemOutput{}}, fastRetries)
	_, err := s.GetItem(context.Background(), table, table.Key("U1", "#"))
	assert.Equal(t, store.NewNotFound(table, table.Key("U1", "#")), err)
}

func TestThrottledRequestsAreRetried(t *testing.T) {
	table := tests.Tables.UserTable()
	throttled := awserr.New(dynamodb.ErrCodeProvisionedThroughputExceededException, "slow down", nil)
	fake := &fakeDynamoDB{
		getErrs:   []error{throttled, throttled},
		getOutput: &dynamodb.GetItemOutput{Item: map[string]*dynamodb.AttributeValue{"userId": util.S("U1"), "uniqueId": util.S("#")}},
	}
	s := New(fake, fastRetries)

	item, err := s.GetItem(context.Background(), table, table.Key("U1", "#"))
	require.NoError(t, err)
	assert.Equal(t, "U1", aws.StringValue(item["userId"].S))
	assert.Equal(t, 3, fake.getCalls)
}

func TestRetriesAreBounded(t *testing.T) {
	table := tests.Tables.UserTable()
	throttled := awserr.New(dynamodb.ErrCodeProvisionedThroughputExceededException, "slow down", nil)
	fake := &fakeDynamoDB{getErrs: []error{throttled, throttled, throttled, throttled}}
	s := New(fake, fastRetries)

	_, err := s.GetItem(context.Background(), table, table.Key("U1", "#"))
	assert.Equal(t, throttled, err)
	assert.Equal(t, 3, fake.getCalls)
}

func TestPermanentErrorsAreNotRetried(t *testing.T) {
	table := tests.Tables.UserTable()
	missing := awserr.New(dynamodb.ErrCodeResourceNotFoundException, "no such table", nil)
	fake := &fakeDynamoDB{getErrs: []error{missing}}
	s := New(fake, fastRetries)

	_, err := s.GetItem(context.Background(), table, table.Key("U1", "#"))
	assert.Equal(t, missing, err)
	assert.Equal(t, 1, fake.getCalls)
}

func TestUpdateItemSetsAttributesInNameOrder(t *testing.T) {
	table := tests.Tables.UserTable()
	fake := &fakeDynamoDB{}
	s := New(fake, fastRetries)

	require.NoError(t, s.UpdateItem(context.Background(), table, table.Key("U1", "#"), store.Item{
		"businessIds":      util.SS("2"),
		"activeBusinessId": util.S("2"),
	}))
	input := fake.updateInputs[0]
	assert.Equal(t, "SET #a0 = :v0, #a1 = :v1", aws.StringValue(input.UpdateExpression))
	assert.Equal(t, "activeBusinessId", aws.StringValue(input.ExpressionAttributeNames["#a0"]))
	assert.Equal(t, "businessIds", aws.StringValue(input.ExpressionAttributeNames["#a1"]))
	assert.Equal(t, "2", aws.StringValue(input.ExpressionAttributeValues[":v0"].S))
	assert.Equal(t, table.Key("U1", "#"), store.Key(input.Key))

	t.Log("an empty update is a no-op")
	require.NoError(t, s.UpdateItem(context.Background(), table, table.Key("U1", "#"), store.Item{}))
	assert.Len(t, fake.updateInputs, 1)
}

func TestTransactWrite(t *testing.T) {
	table := tests.Tables.ReviewTable()
	old := store.Item{"userId": util.S("U1"), "uniqueId": util.S("048")}
	moved := store.Item{"userId": util.S("B1"), "uniqueId": util.S("048")}
	ops := []store.WriteOp{
		store.PutOp(table, moved),
		store.DeleteOp(table, table.KeyOf(old)),
	}

	t.Run("builds one request", func(t *testing.T) {
		fake := &fakeDynamoDB{}
		require.NoError(t, New(fake, fastRetries).TransactWrite(context.Background(), ops))
		require.Len(t, fake.transactInputs, 1)
		items := fake.transactInputs[0].TransactItems
		require.Len(t, items, 2)
		assert.Equal(t, map[string]*dynamodb.AttributeValue(moved), items[0].Put.Item)
		assert.Equal(t, map[string]*dynamodb.AttributeValue(table.KeyOf(old)), items[1].Delete.Key)
		assert.Equal(t, table.Name, aws.StringValue(items[1].Delete.TableName))
	})

	t.Run("cancellation reasons", func(t *testing.T) {
		fake := &fakeDynamoDB{transactErr: &dynamodb.TransactionCanceledException{
			Message_: aws.String("Transaction cancelled"),
			CancellationReasons: []*dynamodb.CancellationReason{
				{Code: aws.String("None")},
				{Code: aws.String("TransactionConflict")},
			},
		}}
		err := New(fake, fastRetries).TransactWrite(context.Background(), ops)
		var canceled store.TransactionCanceledError
		require.True(t, errors.As(err, &canceled))
		assert.Equal(t, []string{"None", "TransactionConflict"}, canceled.Reasons)
		assert.Len(t, fake.transactInputs, 1)
	})

	t.Run("rejected request", func(t *testing.T) {
		fake := &fakeDynamoDB{transactErr: awserr.New("ValidationException",
			"Transaction request cannot include multiple operations on one item", nil)}
		err := New(fake, fastRetries).TransactWrite(context.Background(), ops)
		assert.IsType(t, store.TransactionCanceledError{}, err)
	})

	t.Run("other errors pass through", func(t *testing.T) {
		missing := awserr.New(dynamodb.ErrCodeResourceNotFoundException, "no such table", nil)
		fake := &fakeDynamoDB{transactErr: missing}
		err := New(fake, fastRetries).TransactWrite(context.Background(), ops)
		assert.Equal(t, missing, err)
	})

	t.Run("empty transaction", func(t *testing.T) {
		fake := &fakeDynamoDB{}
		require.NoError(t, New(fake, fastRetries).TransactWrite(context.Background(), nil))
		assert.Empty(t, fake.transactInputs)
	})
}

func TestInitTablesSkipsExistingTables(t *testing.T) {
	fake := &fakeDynamoDB{createErr: awserr.New(dynamodb.ErrCodeResourceInUseException, "table exists", nil)}
	s := New(fake, fastRetries)
	require.NoError(t, s.InitTables(context.Background(), tests.Tables.All()...))
	require.Len(t, fake.createInputs, 3)

	input := fake.createInputs[1]
	assert.Equal(t, tests.Tables.Reviews, aws.StringValue(input.TableName))
	require.Len(t, input.KeySchema, 2)
	assert.Equal(t, "userId", aws.StringValue(input.KeySchema[0].AttributeName))
	assert.Equal(t, dynamodb.KeyTypeHash, aws.StringValue(input.KeySchema[0].KeyType))
	assert.Equal(t, "uniqueId", aws.StringValue(input.KeySchema[1].AttributeName))
	assert.Equal(t, dynamodb.KeyTypeRange, aws.StringValue(input.KeySchema[1].KeyType))

	fake.createErr = awserr.New("AccessDeniedException", "no", nil)
	assert.Error(t, s.InitTables(context.Background(), tests.Tables.UserTable()))
}
