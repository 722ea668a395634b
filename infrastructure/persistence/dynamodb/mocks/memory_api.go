// Package mocks provides an in-memory DynamoDB client for tests.
package mocks

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var equalityTerm = regexp.MustCompile(`^(#\w+) = (:\w+)$`)

// MemoryAPI keeps items of any number of tables in memory, keyed by "id".
// Key conditions and filters are limited to ANDed equalities.
type MemoryAPI struct {
	mu     sync.RWMutex
	tables map[string]map[string]map[string]types.AttributeValue

	shouldFailOn map[string]error
	calls        map[string]int
}

// NewMemoryAPI creates an empty store.
func NewMemoryAPI() *MemoryAPI {
	return &MemoryAPI{
		tables:       make(map[string]map[string]map[string]types.AttributeValue),
		shouldFailOn: make(map[string]error),
		calls:        make(map[string]int),
	}
}

// SetError makes method fail with err until cleared.
func (m *MemoryAPI) SetError(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFailOn[method] = err
}

// Calls returns how often method was invoked.
func (m *MemoryAPI) Calls(method string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[method]
}

// Seed stores item in table without conditions.
func (m *MemoryAPI) Seed(table string, item map[string]types.AttributeValue) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.table(table)[keyOf(item)] = item
}

// Items returns a snapshot of table ordered by id.
func (m *MemoryAPI) Items(table string) []map[string]types.AttributeValue {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sorted(table)
}

func (m *MemoryAPI) enter(method string) error {
	m.calls[method]++
	return m.shouldFailOn[method]
}

func (m *MemoryAPI) table(name string) map[string]map[string]types.AttributeValue {
	t, ok := m.tables[name]
	if !ok {
		t = make(map[string]map[string]types.AttributeValue)
		m.tables[name] = t
	}
	return t
}

func (m *MemoryAPI) sorted(name string) []map[string]types.AttributeValue {
	t := m.tables[name]
	ids := make([]string, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	items := make([]map[string]types.AttributeValue, 0, len(ids))
	for _, id := range ids {
		items = append(items, t[id])
	}
	return items
}

func keyOf(item map[string]types.AttributeValue) string {
	if s, ok := item["id"].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (m *MemoryAPI) GetItem(ctx context.Context, in *awsdynamodb.GetItemInput, _ ...func(*awsdynamodb.Options)) (*awsdynamodb.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("GetItem"); err != nil {
		return nil, err
	}
	return &awsdynamodb.GetItemOutput{Item: m.table(aws.ToString(in.TableName))[keyOf(in.Key)]}, nil
}

func (m *MemoryAPI) PutItem(ctx context.Context, in *awsdynamodb.PutItemInput, _ ...func(*awsdynamodb.Options)) (*awsdynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("PutItem"); err != nil {
		return nil, err
	}

	t := m.table(aws.ToString(in.TableName))
	key := keyOf(in.Item)
	if _, exists := t[key]; exists && in.ConditionExpression != nil {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}
	t[key] = in.Item
	return &awsdynamodb.PutItemOutput{}, nil
}

func (m *MemoryAPI) DeleteItem(ctx context.Context, in *awsdynamodb.DeleteItemInput, _ ...func(*awsdynamodb.Options)) (*awsdynamodb.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("DeleteItem"); err != nil {
		return nil, err
	}
	delete(m.table(aws.ToString(in.TableName)), keyOf(in.Key))
	return &awsdynamodb.DeleteItemOutput{}, nil
}

func (m *MemoryAPI) Query(ctx context.Context, in *awsdynamodb.QueryInput, _ ...func(*awsdynamodb.Options)) (*awsdynamodb.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Query"); err != nil {
		return nil, err
	}

	items, err := m.match(aws.ToString(in.TableName), in.ExpressionAttributeNames, in.ExpressionAttributeValues,
		aws.ToString(in.KeyConditionExpression), aws.ToString(in.FilterExpression))
	if err != nil {
		return nil, err
	}
	return &awsdynamodb.QueryOutput{Items: items, Count: int32(len(items))}, nil
}

func (m *MemoryAPI) Scan(ctx context.Context, in *awsdynamodb.ScanInput, _ ...func(*awsdynamodb.Options)) (*awsdynamodb.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Scan"); err != nil {
		return nil, err
	}

	items, err := m.match(aws.ToString(in.TableName), in.ExpressionAttributeNames, in.ExpressionAttributeValues,
		aws.ToString(in.FilterExpression))
	if err != nil {
		return nil, err
	}
	return &awsdynamodb.ScanOutput{Items: items, Count: int32(len(items))}, nil
}

func (m *MemoryAPI) match(
	table string,
	names map[string]string,
	values map[string]types.AttributeValue,
	expressions ...string,
) ([]map[string]types.AttributeValue, error) {
	var terms [][2]string
	for _, expr := range expressions {
		if expr == "" {
			continue
		}
		for _, term := range strings.Split(expr, " AND ") {
			term = strings.Trim(term, "() ")
			parts := equalityTerm.FindStringSubmatch(term)
			if parts == nil {
				return nil, fmt.Errorf("memory api only supports equality terms, got %q", term)
			}
			terms = append(terms, [2]string{names[parts[1]], parts[2]})
		}
	}

	matched := []map[string]types.AttributeValue{}
	for _, item := range m.sorted(table) {
		ok := true
		for _, term := range terms {
			if !reflect.DeepEqual(item[term[0]], values[term[1]]) {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, item)
		}
	}
	return matched, nil
}
