package dynamodb

import (
	"context"

	"github.com/Clever/kayvee-go/v7/logger"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/dynamodb"

	"github.com/IntelliLead/review-migrations/store"
)

func attributeDefinitions(table store.Table) []*dynamodb.AttributeDefinition {
	defs := []*dynamodb.AttributeDefinition{
		{
			AttributeName: aws.String(table.PartitionKey),
			AttributeType: aws.String(dynamodb.ScalarAttributeTypeS),
		},
	}
	if table.SortKey != "" {
		defs = append(defs, &dynamodb.AttributeDefinition{
			AttributeName: aws.String(table.SortKey),
			AttributeType: aws.String(dynamodb.ScalarAttributeTypeS),
		})
	}
	return defs
}

func keySchema(table store.Table) []*dynamodb.KeySchemaElement {
	schema := []*dynamodb.KeySchemaElement{
		{
			AttributeName: aws.String(table.PartitionKey),
			KeyType:       aws.String(dynamodb.KeyTypeHash),
		},
	}
	if table.SortKey != "" {
		schema = append(schema, &dynamodb.KeySchemaElement{
			AttributeName: aws.String(table.SortKey),
			KeyType:       aws.String(dynamodb.KeyTypeRange),
		})
	}
	return schema
}

// InitTables creates the given tables. Tables that already exist are left alone. Only meant for
// DynamoDB Local and test setups; production tables are owned by the application.
func (d DynamoDB) InitTables(ctx context.Context, tables ...store.Table) error {
	for _, table := range tables {
		_, err := d.ddb.CreateTableWithContext(ctx, &dynamodb.CreateTableInput{
			AttributeDefinitions: attributeDefinitions(table),
			KeySchema:            keySchema(table),
			ProvisionedThroughput: &dynamodb.ProvisionedThroughput{
				ReadCapacityUnits:  aws.Int64(1),
				WriteCapacityUnits: aws.Int64(1),
			},
			TableName: aws.String(table.Name),
		})
		if err != nil {
			if awsErr, ok := err.(awserr.Error); ok && awsErr.Code() == dynamodb.ErrCodeResourceInUseException {
				log.InfoD("table-exists", logger.M{"table": table.Name})
				continue
			}
			return err
		}
		log.InfoD("table-created", logger.M{"table": table.Name})
	}
	return nil
}
