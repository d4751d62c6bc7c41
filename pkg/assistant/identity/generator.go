package identity

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID mints an assistant session identity: millisecond timestamp prefix
// plus a random suffix. Collision-resistant within any practical operating
// window without central coordination, so no retry logic exists.
func NewID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("session_%d_%s", time.Now().UnixMilli(), suffix)
}
