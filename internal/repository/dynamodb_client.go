package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"portfolio-chat/internal/domain"
)

const (
	pkPrefixDay = "DAY#"
	skPrefixEvt = "EVT#"
	dayLayout   = "2006-01-02"
	ttlDuration = 90 * 24 * time.Hour // 90-day TTL
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Client wraps a DynamoDB table holding visitor-tracking events.
type Client struct {
	api       dynamodbAPI
	tableName string
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName}, nil
}

// dayPK returns the partition key for all events of a UTC day.
func dayPK(day string) string {
	return pkPrefixDay + day
}

// evtSK orders events of a day by type, then arrival time.
func evtSK(eventType string, ts time.Time, id string) string {
	return skPrefixEvt + eventType + "#" + ts.UTC().Format(time.RFC3339Nano) + "#" + id
}

func ttlValue(now time.Time) int64 {
	return now.Add(ttlDuration).Unix()
}

// NewEvent constructs a TrackingEvent with PK/SK/TTL derived from its type and arrival time.
func NewEvent(id, eventType string, data json.RawMessage, sessionID, clientIP string, now time.Time) domain.TrackingEvent {
	now = now.UTC()
	day := now.Format(dayLayout)
	return domain.TrackingEvent{
		PK:         dayPK(day),
		SK:         evtSK(eventType, now, id),
		ID:         id,
		Type:       eventType,
		Day:        day,
		SessionID:  sessionID,
		ClientIP:   clientIP,
		Data:       data,
		ReceivedAt: now,
		TTL:        ttlValue(now),
	}
}

// PutEvent persists a new event; an existing item with the same key is never overwritten.
func (c *Client) PutEvent(ctx context.Context, event domain.TrackingEvent) error {
	if event.PK == "" || event.SK == "" {
		return errors.New("repository: PutEvent: PK and SK are required")
	}

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                eventItem(event),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return fmt.Errorf("repository: PutEvent: %w", err)
	}
	return nil
}

// QueryDay returns the events of one day in SK order, following pagination
// until the partition is exhausted. An empty eventType selects every type.
func (c *Client) QueryDay(ctx context.Context, day, eventType string) ([]domain.TrackingEvent, error) {
	prefix := skPrefixEvt
	if eventType != "" {
		prefix += eventType + "#"
	}

	in := &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: dayPK(day)},
			":prefix": &types.AttributeValueMemberS{Value: prefix},
		},
	}

	var events []domain.TrackingEvent
	for {
		out, err := c.api.Query(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("repository: QueryDay query: %w", err)
		}
		for _, item := range out.Items {
			event, err := itemToEvent(item)
			if err != nil {
				return nil, fmt.Errorf("repository: QueryDay unmarshal: %w", err)
			}
			events = append(events, event)
		}
		if len(out.LastEvaluatedKey) == 0 {
			return events, nil
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// itemToEvent converts a DynamoDB attribute map to a TrackingEvent.
func itemToEvent(item map[string]types.AttributeValue) (domain.TrackingEvent, error) {
	pk, err := strAttr(item, "PK")
	if err != nil {
		return domain.TrackingEvent{}, err
	}
	sk, err := strAttr(item, "SK")
	if err != nil {
		return domain.TrackingEvent{}, err
	}
	eventType, err := strAttr(item, "type")
	if err != nil {
		return domain.TrackingEvent{}, err
	}
	received, err := strAttr(item, "receivedAt")
	if err != nil {
		return domain.TrackingEvent{}, err
	}
	receivedAt, err := time.Parse(time.RFC3339Nano, received)
	if err != nil {
		return domain.TrackingEvent{}, fmt.Errorf("repository: parse attribute %q: %w", "receivedAt", err)
	}
	id, _ := strAttr(item, "id")               // allow empty
	day, _ := strAttr(item, "day")             // allow empty
	sessionID, _ := strAttr(item, "sessionId") // allow empty
	clientIP, _ := strAttr(item, "clientIp")   // allow empty
	data, _ := strAttr(item, "data")           // allow empty
	ttl, _ := int64Attr(item, "ttl")           // allow empty

	event := domain.TrackingEvent{
		PK:         pk,
		SK:         sk,
		ID:         id,
		Type:       eventType,
		Day:        day,
		SessionID:  sessionID,
		ClientIP:   clientIP,
		ReceivedAt: receivedAt,
		TTL:        ttl,
	}
	if data != "" {
		event.Data = json.RawMessage(data)
	}
	return event, nil
}

func eventItem(e domain.TrackingEvent) map[string]types.AttributeValue {
	item := map[string]types.AttributeValue{
		"PK":         &types.AttributeValueMemberS{Value: e.PK},
		"SK":         &types.AttributeValueMemberS{Value: e.SK},
		"id":         &types.AttributeValueMemberS{Value: e.ID},
		"type":       &types.AttributeValueMemberS{Value: e.Type},
		"day":        &types.AttributeValueMemberS{Value: e.Day},
		"data":       &types.AttributeValueMemberS{Value: string(e.Data)},
		"receivedAt": &types.AttributeValueMemberS{Value: e.ReceivedAt.UTC().Format(time.RFC3339Nano)},
		"ttl":        &types.AttributeValueMemberN{Value: strconv.FormatInt(e.TTL, 10)},
	}
	if e.SessionID != "" {
		item["sessionId"] = &types.AttributeValueMemberS{Value: e.SessionID}
	}
	if e.ClientIP != "" {
		item["clientIp"] = &types.AttributeValueMemberS{Value: e.ClientIP}
	}
	return item
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}

func int64Attr(item map[string]types.AttributeValue, key string) (int64, error) {
	v, ok := item[key]
	if !ok {
		return 0, fmt.Errorf("repository: missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("repository: attribute %q is not a number", key)
	}
	parsed, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}
