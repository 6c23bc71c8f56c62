package dynamodb

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

// fakeClient is an in-memory stand-in for the store. It understands the
// exact condition, update and key-condition expression shapes the
// repositories generate; anything else panics so a drifting repository
// fails loudly in tests.
type fakeClient struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue

	// failNextReads makes the next n read calls return a throttling error,
	// for exercising the retry policy.
	failNextReads int
}

func newFakeClient() *fakeClient {
	return &fakeClient{items: make(map[string]map[string]types.AttributeValue)}
}

func itemKey(item map[string]types.AttributeValue) string {
	pk, _ := item[AttrPK].(*types.AttributeValueMemberS)
	sk, _ := item[AttrSK].(*types.AttributeValueMemberS)
	return pk.Value + "|" + sk.Value
}

func copyItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

func strAttr(item map[string]types.AttributeValue, name string) (string, bool) {
	s, ok := item[name].(*types.AttributeValueMemberS)
	if !ok {
		return "", false
	}
	return s.Value, true
}

// checkCondition evaluates the condition expressions the repositories
// use. All of them reduce to row existence.
func checkCondition(expr *string, exists bool) bool {
	if expr == nil {
		return true
	}
	if strings.Contains(*expr, "attribute_not_exists") {
		return !exists
	}
	if strings.Contains(*expr, "attribute_exists") {
		return exists
	}
	panic("fakeClient: unsupported condition expression: " + *expr)
}

func (f *fakeClient) maybeFailRead() error {
	if f.failNextReads > 0 {
		f.failNextReads--
		return &types.ProvisionedThroughputExceededException{Message: aws.String("throttled")}
	}
	return nil
}

func (f *fakeClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.maybeFailRead(); err != nil {
		return nil, err
	}
	item, ok := f.items[itemKey(params.Key)]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: copyItem(item)}, nil
}

func (f *fakeClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := itemKey(params.Item)
	_, exists := f.items[key]
	if !checkCondition(params.ConditionExpression, exists) {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
	}
	f.items[key] = copyItem(params.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := itemKey(params.Key)
	item, exists := f.items[key]
	if !checkCondition(params.ConditionExpression, exists) {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
	}
	delete(f.items, key)
	out := &dynamodb.DeleteItemOutput{}
	if params.ReturnValues == types.ReturnValueAllOld && exists {
		out.Attributes = copyItem(item)
	}
	return out, nil
}

func (f *fakeClient) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := itemKey(params.Key)
	item, exists := f.items[key]
	if !checkCondition(params.ConditionExpression, exists) {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
	}
	if !exists {
		item = copyItem(params.Key)
	} else {
		item = copyItem(item)
	}

	applyUpdate(item, *params.UpdateExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues)
	f.items[key] = item

	out := &dynamodb.UpdateItemOutput{}
	if params.ReturnValues == types.ReturnValueAllNew {
		out.Attributes = copyItem(item)
	}
	return out, nil
}

// applyUpdate interprets "SET a = :v, b = :w" and "ADD #c :d" expressions.
func applyUpdate(item map[string]types.AttributeValue, expr string, names map[string]string, values map[string]types.AttributeValue) {
	resolve := func(name string) string {
		name = strings.TrimSpace(name)
		if resolved, ok := names[name]; ok {
			return resolved
		}
		return name
	}

	expr = strings.TrimSpace(expr)
	switch {
	case strings.HasPrefix(expr, "SET "):
		for _, clause := range strings.Split(strings.TrimPrefix(expr, "SET "), ",") {
			parts := strings.SplitN(clause, "=", 2)
			if len(parts) != 2 {
				panic("fakeClient: unsupported SET clause: " + clause)
			}
			item[resolve(parts[0])] = values[strings.TrimSpace(parts[1])]
		}
	case strings.HasPrefix(expr, "ADD "):
		fields := strings.Fields(strings.TrimPrefix(expr, "ADD "))
		if len(fields) != 2 {
			panic("fakeClient: unsupported ADD clause: " + expr)
		}
		name := resolve(fields[0])
		delta := numValue(values[fields[1]])
		current := int64(0)
		if n, ok := item[name].(*types.AttributeValueMemberN); ok {
			current, _ = strconv.ParseInt(n.Value, 10, 64)
		}
		item[name] = &types.AttributeValueMemberN{Value: strconv.FormatInt(current+delta, 10)}
	default:
		panic("fakeClient: unsupported update expression: " + expr)
	}
}

func numValue(v types.AttributeValue) int64 {
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		panic("fakeClient: expected numeric attribute value")
	}
	parsed, _ := strconv.ParseInt(n.Value, 10, 64)
	return parsed
}

// keyCondition is one parsed clause of a key condition expression.
type keyCondition struct {
	attr       string
	value      string
	beginsWith bool
}

func parseKeyConditions(expr string, values map[string]types.AttributeValue) []keyCondition {
	var conditions []keyCondition
	for _, clause := range strings.Split(expr, " AND ") {
		clause = strings.TrimSpace(clause)
		if strings.HasPrefix(clause, "begins_with(") {
			inner := strings.TrimSuffix(strings.TrimPrefix(clause, "begins_with("), ")")
			parts := strings.SplitN(inner, ",", 2)
			v := values[strings.TrimSpace(parts[1])].(*types.AttributeValueMemberS)
			conditions = append(conditions, keyCondition{
				attr:       strings.TrimSpace(parts[0]),
				value:      v.Value,
				beginsWith: true,
			})
			continue
		}
		parts := strings.SplitN(clause, "=", 2)
		if len(parts) != 2 {
			panic("fakeClient: unsupported key condition: " + clause)
		}
		v := values[strings.TrimSpace(parts[1])].(*types.AttributeValueMemberS)
		conditions = append(conditions, keyCondition{
			attr:  strings.TrimSpace(parts[0]),
			value: v.Value,
		})
	}
	return conditions
}

func (f *fakeClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.maybeFailRead(); err != nil {
		return nil, err
	}

	conditions := parseKeyConditions(*params.KeyConditionExpression, params.ExpressionAttributeValues)

	var matched []map[string]types.AttributeValue
	for _, item := range f.items {
		ok := true
		for _, c := range conditions {
			v, has := strAttr(item, c.attr)
			if !has {
				ok = false
				break
			}
			if c.beginsWith {
				if !strings.HasPrefix(v, c.value) {
					ok = false
					break
				}
			} else if v != c.value {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, copyItem(item))
		}
	}

	// Sort by the index sort key, primary SK as tiebreak.
	sortAttr := strings.Replace(conditions[0].attr, "PK", "SK", 1)
	sort.Slice(matched, func(i, j int) bool {
		a, _ := strAttr(matched[i], sortAttr)
		b, _ := strAttr(matched[j], sortAttr)
		if a != b {
			return a < b
		}
		ai, _ := strAttr(matched[i], AttrSK)
		bi, _ := strAttr(matched[j], AttrSK)
		return ai < bi
	})
	if params.ScanIndexForward != nil && !*params.ScanIndexForward {
		for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
			matched[i], matched[j] = matched[j], matched[i]
		}
	}

	if params.ExclusiveStartKey != nil {
		startPK, _ := strAttr(params.ExclusiveStartKey, AttrPK)
		startSK, _ := strAttr(params.ExclusiveStartKey, AttrSK)
		after := -1
		for i, item := range matched {
			pk, _ := strAttr(item, AttrPK)
			sk, _ := strAttr(item, AttrSK)
			if pk == startPK && sk == startSK {
				after = i
				break
			}
		}
		matched = matched[after+1:]
	}

	out := &dynamodb.QueryOutput{}
	limit := len(matched)
	if params.Limit != nil && int(*params.Limit) < limit {
		limit = int(*params.Limit)
	}
	page := matched[:limit]

	if limit < len(matched) && limit > 0 {
		last := page[limit-1]
		lek := make(map[string]types.AttributeValue)
		for _, attr := range []string{AttrPK, AttrSK, AttrGSI1PK, AttrGSI1SK, AttrGSI2PK, AttrGSI2SK, AttrGSI3PK, AttrGSI3SK, AttrGSI4PK, AttrGSI4SK} {
			if v, ok := last[attr]; ok {
				lek[attr] = v
			}
		}
		out.LastEvaluatedKey = lek
	}

	out.Count = int32(len(page))
	if params.Select != types.SelectCount {
		out.Items = page
	}
	return out, nil
}

func (f *fakeClient) TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Check every condition before applying anything.
	reasons := make([]types.CancellationReason, len(params.TransactItems))
	failed := false
	for i, item := range params.TransactItems {
		var condition *string
		var key string
		switch {
		case item.Put != nil:
			condition = item.Put.ConditionExpression
			key = itemKey(item.Put.Item)
		case item.Delete != nil:
			condition = item.Delete.ConditionExpression
			key = itemKey(item.Delete.Key)
		default:
			panic("fakeClient: unsupported transact item")
		}
		_, exists := f.items[key]
		if checkCondition(condition, exists) {
			reasons[i] = types.CancellationReason{Code: aws.String("None")}
		} else {
			reasons[i] = types.CancellationReason{Code: aws.String("ConditionalCheckFailed")}
			failed = true
		}
	}
	if failed {
		return nil, &types.TransactionCanceledException{
			Message:             aws.String("transaction cancelled"),
			CancellationReasons: reasons,
		}
	}

	for _, item := range params.TransactItems {
		switch {
		case item.Put != nil:
			f.items[itemKey(item.Put.Item)] = copyItem(item.Put.Item)
		case item.Delete != nil:
			delete(f.items, itemKey(item.Delete.Key))
		}
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

// testIndexes are the physical index names the fake resolves against.
var testIndexes = Indexes{
	Chronological: "GSI1",
	ByCreator:     "GSI2",
	ByGlobalID:    "GSI3",
	ByTarget:      "GSI4",
}

func newTestStore() (*Store, *fakeClient) {
	client := newFakeClient()
	return NewStore(client, "test-table", testIndexes, nil, nil, testLogger()), client
}
