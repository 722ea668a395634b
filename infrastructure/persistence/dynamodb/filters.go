package dynamodb

import (
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
)

// Operator is a comparison applied to one attribute.
type Operator string

const (
	OpEq         Operator = "eq"
	OpNe         Operator = "ne"
	OpLt         Operator = "lt"
	OpLte        Operator = "lte"
	OpGt         Operator = "gt"
	OpGte        Operator = "gte"
	OpBeginsWith Operator = "begins_with"
	OpContains   Operator = "contains"
	OpExists     Operator = "exists"
	OpNotExists  Operator = "not_exists"
)

// Filter compares an attribute against Value. Value is ignored by the
// exists and not_exists operators.
type Filter struct {
	Op    Operator
	Value any
}

// Eq is the common equality filter.
func Eq(value any) Filter {
	return Filter{Op: OpEq, Value: value}
}

func (f Filter) condition(attribute string) (expression.ConditionBuilder, error) {
	name := expression.Name(attribute)
	value := expression.Value(f.Value)

	switch f.Op {
	case OpEq:
		return name.Equal(value), nil
	case OpNe:
		return name.NotEqual(value), nil
	case OpLt:
		return name.LessThan(value), nil
	case OpLte:
		return name.LessThanEqual(value), nil
	case OpGt:
		return name.GreaterThan(value), nil
	case OpGte:
		return name.GreaterThanEqual(value), nil
	case OpBeginsWith:
		prefix, ok := f.Value.(string)
		if !ok {
			return expression.ConditionBuilder{}, fmt.Errorf("filter %s on %q needs a string value", f.Op, attribute)
		}
		return name.BeginsWith(prefix), nil
	case OpContains:
		substr, ok := f.Value.(string)
		if !ok {
			return expression.ConditionBuilder{}, fmt.Errorf("filter %s on %q needs a string value", f.Op, attribute)
		}
		return name.Contains(substr), nil
	case OpExists:
		return name.AttributeExists(), nil
	case OpNotExists:
		return name.AttributeNotExists(), nil
	default:
		return expression.ConditionBuilder{}, fmt.Errorf("unsupported filter operator %q on %q", f.Op, attribute)
	}
}

// buildFilter ANDs all filters together. ok is false when there are none.
func buildFilter(filters map[string]Filter) (cond expression.ConditionBuilder, ok bool, err error) {
	for _, attribute := range sortedKeys(filters) {
		next, err := filters[attribute].condition(attribute)
		if err != nil {
			return expression.ConditionBuilder{}, false, err
		}
		if !ok {
			cond, ok = next, true
			continue
		}
		cond = cond.And(next)
	}
	return cond, ok, nil
}

// buildKeyCondition ANDs equality conditions on the given key attributes.
func buildKeyCondition(keys map[string]any) (expression.KeyConditionBuilder, error) {
	if len(keys) == 0 {
		return expression.KeyConditionBuilder{}, fmt.Errorf("query needs at least one key condition")
	}

	var cond expression.KeyConditionBuilder
	for i, attribute := range sortedKeys(keys) {
		next := expression.Key(attribute).Equal(expression.Value(keys[attribute]))
		if i == 0 {
			cond = next
			continue
		}
		cond = cond.And(next)
	}
	return cond, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
