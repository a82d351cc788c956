package dynamodb

import (
	"encoding/json"

	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"golang.org/x/xerrors"
)

// PageKey is the LastEvaluatedKey of a scan or query, handed to callers as an opaque JSON
// page token.
type PageKey map[string]*dynamodb.AttributeValue

// NewPageKey returns nil once there are no more pages.
func NewPageKey(pageKeyMap map[string]*dynamodb.AttributeValue) *PageKey {
	if len(pageKeyMap) == 0 {
		return nil
	}

	pageKey := PageKey(pageKeyMap)
	return &pageKey
}

// ParsePageKey parses the given JSON representation of a PageKey. The empty token is the first page.
func ParsePageKey(pageKeyJSON string) (*PageKey, error) {
	if pageKeyJSON == "" {
		return nil, nil
	}

	pageKeyMap := map[string]interface{}{}
	if err := json.Unmarshal([]byte(pageKeyJSON), &pageKeyMap); err != nil {
		return nil, xerrors.Errorf("unable to de-serialize dynamodb page key: %w", err)
	}
	if len(pageKeyMap) == 0 {
		return nil, xerrors.New("unable to de-serialize dynamodb page key: empty key")
	}

	pageKey, err := dynamodbattribute.ConvertToMap(pageKeyMap)
	if err != nil {
		return nil, xerrors.Errorf("unable to de-serialize dynamodb page key: %w", err)
	}

	return NewPageKey(pageKey), nil
}

// ToJSON returns a JSON string representation of the PageKey.
func (k *PageKey) ToJSON() (string, error) {
	pageKeyMap := map[string]interface{}{}
	if err := dynamodbattribute.ConvertFromMap(*k, &pageKeyMap); err != nil {
		return "", xerrors.Errorf("unable to serialize dynamodb page key: %w", err)
	}

	pageKeyJSONBytes, err := json.Marshal(pageKeyMap)
	if err != nil {
		return "", xerrors.Errorf("unable to serialize dynamodb page key: %w", err)
	}

	return string(pageKeyJSONBytes), nil
}
