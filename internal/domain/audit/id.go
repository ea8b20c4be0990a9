package audit

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const idSuffixLen = 9

// NewID returns "<unix-millis>_<9 random chars>".
func NewID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:idSuffixLen]
	return strconv.FormatInt(now.UnixMilli(), 10) + "_" + suffix
}
