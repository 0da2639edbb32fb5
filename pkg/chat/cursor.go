package chat

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mahaj/chatcore/pkg/errs"
)

// The cursor is a compound (created_at, id) key: ScyllaDB timestamps
// are millisecond resolution, so two messages can share a timestamp and
// a bare-timestamp cursor would skip or repeat one of them. Clients
// treat the encoded form as opaque.

func encodeCursor(at time.Time, id int64) string {
	raw := fmt.Sprintf("%d:%d", at.UnixMilli(), id)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(cursor string) (time.Time, int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, 0, errs.InvalidArgument("malformed cursor")
	}
	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 {
		return time.Time{}, 0, errs.InvalidArgument("malformed cursor")
	}
	ms, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}, 0, errs.InvalidArgument("malformed cursor")
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return time.Time{}, 0, errs.InvalidArgument("malformed cursor")
	}
	return time.UnixMilli(ms), id, nil
}
