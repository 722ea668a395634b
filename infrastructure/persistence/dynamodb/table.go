// Package dynamodb stores records in one DynamoDB table keyed by a single
// string attribute.
package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// DefaultKeyAttribute is the partition key of every table.
const DefaultKeyAttribute = "id"

// API is the subset of the DynamoDB client a Table uses.
type API interface {
	GetItem(ctx context.Context, params *awsdynamodb.GetItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *awsdynamodb.PutItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *awsdynamodb.DeleteItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *awsdynamodb.QueryInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *awsdynamodb.ScanInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.ScanOutput, error)
}

var _ API = (*awsdynamodb.Client)(nil)

// Table reads and writes items of one table.
type Table struct {
	client  API
	name    string
	keyAttr string
	logger  *zap.Logger
}

// NewTable creates a table handle keyed by DefaultKeyAttribute.
func NewTable(client API, name string, logger *zap.Logger) *Table {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Table{
		client:  client,
		name:    name,
		keyAttr: DefaultKeyAttribute,
		logger:  logger.With(zap.String("table", name)),
	}
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.name
}

func (t *Table) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		t.keyAttr: &types.AttributeValueMemberS{Value: id},
	}
}

// Get loads the item with the given id into out. A missing item yields
// an error wrapping ErrNotFound.
func (t *Table) Get(ctx context.Context, resource, id string, out any) error {
	result, err := t.client.GetItem(ctx, &awsdynamodb.GetItemInput{
		TableName: aws.String(t.name),
		Key:       t.key(id),
	})
	if err != nil {
		return classify("GetItem", t.name, err)
	}
	if len(result.Item) == 0 {
		return NotFound(resource, id)
	}
	if err := attributevalue.UnmarshalMap(result.Item, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s %s: %w", resource, id, err)
	}
	return nil
}

// Put writes item. Unless overwrite is set the write only succeeds when no
// item with the same key exists; otherwise it fails wrapping ErrAlreadyExists.
func (t *Table) Put(ctx context.Context, item any, overwrite bool) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	input := &awsdynamodb.PutItemInput{
		TableName: aws.String(t.name),
		Item:      av,
	}
	if !overwrite {
		expr, err := expression.NewBuilder().
			WithCondition(expression.AttributeNotExists(expression.Name(t.keyAttr))).
			Build()
		if err != nil {
			return fmt.Errorf("failed to build insert condition: %w", err)
		}
		input.ConditionExpression = expr.Condition()
		input.ExpressionAttributeNames = expr.Names()
	}

	if _, err := t.client.PutItem(ctx, input); err != nil {
		return classify("PutItem", t.name, err)
	}
	return nil
}

// Delete removes the item with the given id. Deleting a missing item succeeds.
func (t *Table) Delete(ctx context.Context, id string) error {
	_, err := t.client.DeleteItem(ctx, &awsdynamodb.DeleteItemInput{
		TableName: aws.String(t.name),
		Key:       t.key(id),
	})
	return classify("DeleteItem", t.name, err)
}

// Query collects every item matching the key equality conditions and
// filters, following pagination. An empty index queries the base table.
func (t *Table) Query(ctx context.Context, keys map[string]any, filters map[string]Filter, index string, out any) error {
	keyCond, err := buildKeyCondition(keys)
	if err != nil {
		return err
	}
	builder := expression.NewBuilder().WithKeyCondition(keyCond)

	filter, hasFilter, err := buildFilter(filters)
	if err != nil {
		return err
	}
	if hasFilter {
		builder = builder.WithFilter(filter)
	}

	expr, err := builder.Build()
	if err != nil {
		return fmt.Errorf("failed to build query expression: %w", err)
	}

	input := &awsdynamodb.QueryInput{
		TableName:                 aws.String(t.name),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}
	if index != "" {
		input.IndexName = aws.String(index)
	}
	if hasFilter {
		input.FilterExpression = expr.Filter()
	}

	var items []map[string]types.AttributeValue
	paginator := awsdynamodb.NewQueryPaginator(t.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return classify("Query", t.name, err)
		}
		items = append(items, page.Items...)
	}

	t.logger.Debug("Query completed", zap.String("index", index), zap.Int("count", len(items)))
	return unmarshalItems(items, out)
}

// Scan collects every item matching filters, following pagination.
func (t *Table) Scan(ctx context.Context, filters map[string]Filter, out any) error {
	input := &awsdynamodb.ScanInput{
		TableName: aws.String(t.name),
	}

	filter, hasFilter, err := buildFilter(filters)
	if err != nil {
		return err
	}
	if hasFilter {
		expr, err := expression.NewBuilder().WithFilter(filter).Build()
		if err != nil {
			return fmt.Errorf("failed to build scan expression: %w", err)
		}
		input.FilterExpression = expr.Filter()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	var items []map[string]types.AttributeValue
	paginator := awsdynamodb.NewScanPaginator(t.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return classify("Scan", t.name, err)
		}
		items = append(items, page.Items...)
	}

	t.logger.Debug("Scan completed", zap.Int("count", len(items)))
	return unmarshalItems(items, out)
}

func unmarshalItems(items []map[string]types.AttributeValue, out any) error {
	if items == nil {
		items = []map[string]types.AttributeValue{}
	}
	if err := attributevalue.UnmarshalListOfMaps(items, out); err != nil {
		return fmt.Errorf("failed to unmarshal items: %w", err)
	}
	return nil
}
