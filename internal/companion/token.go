package companion

import (
	"encoding/base64"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidToken 令牌无法解码为实体 ID
var ErrInvalidToken = errors.New("invalid companion token")

// EncodeToken 把实体 ID 编码为不透明令牌（base64url，无填充）
func EncodeToken(id uuid.UUID) string {
	return base64.RawURLEncoding.EncodeToString(id[:])
}

// DecodeToken 还原令牌中的实体 ID
func DecodeToken(token string) (uuid.UUID, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil || len(raw) != len(uuid.UUID{}) {
		return uuid.Nil, ErrInvalidToken
	}

	id, err := uuid.FromBytes(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}
