package utils

import (
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ExtractString safely extracts a string from a DynamoDB attribute map
func ExtractString(record map[string]types.AttributeValue, field string) string {
	if attr, ok := record[field]; ok {
		if v, ok := attr.(*types.AttributeValueMemberS); ok {
			return v.Value
		}
	}
	return ""
}

// ExtractInt64 reads a numeric attribute, returning 0 when absent or malformed
func ExtractInt64(record map[string]types.AttributeValue, field string) int64 {
	if attr, ok := record[field]; ok {
		if v, ok := attr.(*types.AttributeValueMemberN); ok {
			n, err := strconv.ParseInt(v.Value, 10, 64)
			if err == nil {
				return n
			}
		}
	}
	return 0
}

// StringAttr builds a string attribute value
func StringAttr(s string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: s}
}

// NumberAttr builds a numeric attribute value
func NumberAttr(n int64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(n, 10)}
}

// Key builds a single-attribute primary key
func Key(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{name: StringAttr(value)}
}

// CompositeKey builds a partition + sort key
func CompositeKey(pkName, pk, skName, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		pkName: StringAttr(pk),
		skName: StringAttr(sk),
	}
}
