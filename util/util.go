package util

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/mohae/deepcopy"
)

// S returns a string attribute value.
func S(v string) *dynamodb.AttributeValue {
	return &dynamodb.AttributeValue{S: aws.String(v)}
}

// N returns a number attribute value.
func N(v string) *dynamodb.AttributeValue {
	return &dynamodb.AttributeValue{N: aws.String(v)}
}

// SS returns a string set attribute value.
func SS(vs ...string) *dynamodb.AttributeValue {
	return &dynamodb.AttributeValue{SS: aws.StringSlice(vs)}
}

// M returns a map attribute value.
func M(m map[string]*dynamodb.AttributeValue) *dynamodb.AttributeValue {
	return &dynamodb.AttributeValue{M: m}
}

// StringAttr returns the string stored under name, and whether the attribute holds a string.
func StringAttr(item map[string]*dynamodb.AttributeValue, name string) (string, bool) {
	av, ok := item[name]
	if !ok || av == nil || av.S == nil {
		return "", false
	}
	return *av.S, true
}

// StringSetAttr returns the string set stored under name, and whether the attribute holds a string set.
func StringSetAttr(item map[string]*dynamodb.AttributeValue, name string) ([]string, bool) {
	av, ok := item[name]
	if !ok || av == nil || av.SS == nil {
		return nil, false
	}
	return aws.StringValueSlice(av.SS), true
}

// MapAttr returns the map stored under name, and whether the attribute holds a map.
func MapAttr(item map[string]*dynamodb.AttributeValue, name string) (map[string]*dynamodb.AttributeValue, bool) {
	av, ok := item[name]
	if !ok || av == nil || av.M == nil {
		return nil, false
	}
	return av.M, true
}

// HasAttr reports whether the item carries the attribute at all.
func HasAttr(item map[string]*dynamodb.AttributeValue, name string) bool {
	av, ok := item[name]
	return ok && av != nil
}

// CloneItem deep copies an attribute map so it can be changed without touching the original.
func CloneItem(item map[string]*dynamodb.AttributeValue) map[string]*dynamodb.AttributeValue {
	if item == nil {
		return nil
	}
	return deepcopy.Copy(item).(map[string]*dynamodb.AttributeValue)
}

// CloneValue deep copies a single attribute value.
func CloneValue(av *dynamodb.AttributeValue) *dynamodb.AttributeValue {
	if av == nil {
		return nil
	}
	return deepcopy.Copy(av).(*dynamodb.AttributeValue)
}

// Format renders an attribute value compactly, e.g. for log lines.
// Map keys are sorted so the output is stable.
func Format(av *dynamodb.AttributeValue) string {
	switch {
	case av == nil:
		return "<nil>"
	case av.S != nil:
		return *av.S
	case av.N != nil:
		return *av.N
	case av.BOOL != nil:
		return fmt.Sprintf("%t", *av.BOOL)
	case av.NULL != nil && *av.NULL:
		return "null"
	case av.SS != nil:
		return "[" + strings.Join(aws.StringValueSlice(av.SS), " ") + "]"
	case av.NS != nil:
		return "[" + strings.Join(aws.StringValueSlice(av.NS), " ") + "]"
	case av.L != nil:
		parts := make([]string, 0, len(av.L))
		for _, v := range av.L {
			parts = append(parts, Format(v))
		}
		return "[" + strings.Join(parts, " ") + "]"
	case av.M != nil:
		return "{" + FormatItem(av.M) + "}"
	case av.B != nil:
		return fmt.Sprintf("<%d bytes>", len(av.B))
	}
	return "<empty>"
}

// FormatItem renders every attribute of an item as name=value pairs in name order.
func FormatItem(item map[string]*dynamodb.AttributeValue) string {
	names := make([]string, 0, len(item))
	for name := range item {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+Format(item[name]))
	}
	return strings.Join(parts, ", ")
}
