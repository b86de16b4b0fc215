// ABOUTME: DynamoDB-backed implementation of the version store
// ABOUTME: Maps documents to partition keys and versions to zero-padded sort keys

package dynamostore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/nainya/docvault/pkg/diff"
	"github.com/nainya/docvault/pkg/version"
)

// versionItem is the DynamoDB representation of a version record.
type versionItem struct {
	PK            string `dynamodbav:"PK"`
	SK            string `dynamodbav:"SK"`
	VersionID     string `dynamodbav:"VersionID"`
	DocumentID    string `dynamodbav:"DocumentID"`
	VersionNumber uint64 `dynamodbav:"VersionNumber"`
	CreatedAt     string `dynamodbav:"CreatedAt"`
	AuthorID      string `dynamodbav:"AuthorID"`
	AuthorName    string `dynamodbav:"AuthorName,omitempty"`
	Comment       string `dynamodbav:"Comment,omitempty"`
	Content       string `dynamodbav:"Content"`
	Metadata      string `dynamodbav:"Metadata"`
	Diff          string `dynamodbav:"Diff,omitempty"`
}

// Store keeps version records in a single DynamoDB table. Each document
// occupies one partition and its versions sort lexicographically by a
// zero-padded sort key, so queries come back in version-number order.
type Store struct {
	client    *dynamodb.Client
	tableName string
}

// NewStore wraps an existing DynamoDB client. The caller owns the client
// and the table, which must use PK (S) as partition key and SK (S) as
// sort key.
func NewStore(client *dynamodb.Client, tableName string) *Store {
	return &Store{client: client, tableName: tableName}
}

func versionPK(documentID string) string {
	return "DOC#" + documentID
}

// versionSK pads the number to 20 digits so string order matches numeric
// order for the full uint64 range.
func versionSK(number uint64) string {
	return fmt.Sprintf("V#%020d", number)
}

// Put inserts a version record, failing with a conflict error when the
// (document, number) slot is already taken.
func (s *Store) Put(ctx context.Context, v *version.Version) error {
	item, err := toItem(v)
	if err != nil {
		return &version.StorageError{Op: "put", Err: err}
	}

	itemMap, err := attributevalue.MarshalMap(item)
	if err != nil {
		return &version.StorageError{Op: "put", Err: fmt.Errorf("marshal item: %w", err)}
	}

	// The conditional write is what makes version numbers safe to assign
	// optimistically: only the first writer for a slot succeeds.
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                itemMap,
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return &version.ConflictError{DocumentID: v.DocumentID, VersionNumber: v.VersionNumber}
		}
		return &version.StorageError{Op: "put", Err: err}
	}
	return nil
}

// List returns all versions of a document in ascending number order. An
// unknown document yields an empty slice.
func (s *Store) List(ctx context.Context, documentID string) ([]*version.Version, error) {
	versions := []*version.Version{}
	var lastEvaluatedKey map[string]types.AttributeValue

	for {
		result, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			KeyConditionExpression: aws.String("PK = :pk"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: versionPK(documentID)},
			},
			ExclusiveStartKey: lastEvaluatedKey,
		})
		if err != nil {
			return nil, &version.StorageError{Op: "list", Err: err}
		}

		for _, raw := range result.Items {
			var item versionItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, &version.StorageError{Op: "list", Err: fmt.Errorf("unmarshal item: %w", err)}
			}
			v, err := toVersion(item)
			if err != nil {
				return nil, &version.StorageError{Op: "list", Err: err}
			}
			versions = append(versions, v)
		}

		lastEvaluatedKey = result.LastEvaluatedKey
		if lastEvaluatedKey == nil {
			break
		}
	}

	return versions, nil
}

// Get retrieves one version by document and number.
func (s *Store) Get(ctx context.Context, documentID string, number uint64) (*version.Version, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: versionPK(documentID)},
			"SK": &types.AttributeValueMemberS{Value: versionSK(number)},
		},
	})
	if err != nil {
		return nil, &version.StorageError{Op: "get", Err: err}
	}
	if result.Item == nil {
		return nil, &version.NotFoundError{DocumentID: documentID, Ref: fmt.Sprintf("%d", number)}
	}

	var item versionItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, &version.StorageError{Op: "get", Err: fmt.Errorf("unmarshal item: %w", err)}
	}
	return toVersion(item)
}

// GetByID retrieves one version by its opaque identifier. DynamoDB has no
// secondary index for this shape, so the partition is scanned with a
// filter expression.
func (s *Store) GetByID(ctx context.Context, documentID, versionID string) (*version.Version, error) {
	var lastEvaluatedKey map[string]types.AttributeValue

	for {
		result, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			KeyConditionExpression: aws.String("PK = :pk"),
			FilterExpression:       aws.String("VersionID = :vid"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk":  &types.AttributeValueMemberS{Value: versionPK(documentID)},
				":vid": &types.AttributeValueMemberS{Value: versionID},
			},
			ExclusiveStartKey: lastEvaluatedKey,
		})
		if err != nil {
			return nil, &version.StorageError{Op: "get_by_id", Err: err}
		}

		if len(result.Items) > 0 {
			var item versionItem
			if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
				return nil, &version.StorageError{Op: "get_by_id", Err: fmt.Errorf("unmarshal item: %w", err)}
			}
			return toVersion(item)
		}

		lastEvaluatedKey = result.LastEvaluatedKey
		if lastEvaluatedKey == nil {
			break
		}
	}

	return nil, &version.NotFoundError{DocumentID: documentID, Ref: versionID}
}

// Delete removes one version record. Later versions keep their numbers.
func (s *Store) Delete(ctx context.Context, documentID, versionID string) error {
	v, err := s.GetByID(ctx, documentID, versionID)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: versionPK(documentID)},
			"SK": &types.AttributeValueMemberS{Value: versionSK(v.VersionNumber)},
		},
	})
	if err != nil {
		return &version.StorageError{Op: "delete", Err: err}
	}
	return nil
}

// Close is a no-op; the DynamoDB client belongs to the caller.
func (s *Store) Close() error {
	return nil
}

func toItem(v *version.Version) (versionItem, error) {
	metadata := "{}"
	if len(v.Metadata) > 0 {
		raw, err := json.Marshal(v.Metadata)
		if err != nil {
			return versionItem{}, fmt.Errorf("marshal metadata: %w", err)
		}
		metadata = string(raw)
	}

	var diffJSON string
	if v.DiffFromPrevious != nil {
		raw, err := json.Marshal(v.DiffFromPrevious)
		if err != nil {
			return versionItem{}, fmt.Errorf("marshal diff: %w", err)
		}
		diffJSON = string(raw)
	}

	return versionItem{
		PK:            versionPK(v.DocumentID),
		SK:            versionSK(v.VersionNumber),
		VersionID:     v.ID,
		DocumentID:    v.DocumentID,
		VersionNumber: v.VersionNumber,
		CreatedAt:     v.Timestamp.UTC().Format(time.RFC3339Nano),
		AuthorID:      v.Author.ID,
		AuthorName:    v.Author.DisplayName,
		Comment:       v.Comment,
		Content:       v.Content,
		Metadata:      metadata,
		Diff:          diffJSON,
	}, nil
}

func toVersion(item versionItem) (*version.Version, error) {
	timestamp, err := time.Parse(time.RFC3339Nano, item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse timestamp %q: %w", item.CreatedAt, err)
	}

	v := &version.Version{
		ID:            item.VersionID,
		DocumentID:    item.DocumentID,
		VersionNumber: item.VersionNumber,
		Timestamp:     timestamp,
		Author:        version.Author{ID: item.AuthorID, DisplayName: item.AuthorName},
		Comment:       item.Comment,
		Content:       item.Content,
	}

	if item.Metadata != "" && item.Metadata != "{}" && item.Metadata != "null" {
		if err := json.Unmarshal([]byte(item.Metadata), &v.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	if item.Diff != "" {
		var d diff.Diff
		if err := json.Unmarshal([]byte(item.Diff), &d); err != nil {
			return nil, fmt.Errorf("unmarshal diff: %w", err)
		}
		v.DiffFromPrevious = &d
	}

	return v, nil
}
