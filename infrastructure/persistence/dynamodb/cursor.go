package dynamodb

import (
	"encoding/base64"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	apperrors "lumina-backend/pkg/errors"
)

// Position is a secondary-index position: the key attributes of the last
// item a page ended on. All key attributes in this schema are strings.
type Position map[string]string

// EncodeCursor serializes a position as an opaque, URL-safe token.
// encoding/json writes map keys in sorted order, so identical positions
// always produce identical cursors.
func EncodeCursor(p Position) string {
	if len(p) == 0 {
		return ""
	}
	data, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeCursor parses a cursor back into a position. Malformed input is an
// InvalidCursor error so callers can answer with a 400 instead of crashing.
func DecodeCursor(cursor string) (Position, error) {
	if cursor == "" {
		return nil, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, apperrors.NewInvalidCursorError(err)
	}
	var p Position
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, apperrors.NewInvalidCursorError(err)
	}
	if len(p) == 0 {
		return nil, apperrors.NewInvalidCursorError(nil)
	}
	return p, nil
}

// toExclusiveStartKey converts a decoded position into the store's
// exclusive start key format.
func (p Position) toExclusiveStartKey() map[string]types.AttributeValue {
	if len(p) == 0 {
		return nil
	}
	key := make(map[string]types.AttributeValue, len(p))
	for name, value := range p {
		key[name] = &types.AttributeValueMemberS{Value: value}
	}
	return key
}

// positionFromItem extracts the key attributes of an item for the given
// symbolic index, producing the position the next page resumes after.
func positionFromItem(item map[string]types.AttributeValue, symbolicIndex string) Position {
	p := make(Position)
	for _, attr := range keyAttrs(symbolicIndex) {
		if s, ok := item[attr].(*types.AttributeValueMemberS); ok {
			p[attr] = s.Value
		}
	}
	return p
}
