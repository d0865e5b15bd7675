// Package txid generates donation transaction identifiers.
package txid

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// New returns an identifier of the form TXN<unix-ms><32 uppercase hex chars>.
// The millisecond prefix keeps identifiers roughly ordered by arrival; the
// uuid4 suffix carries 122 random bits, which makes collisions practically
// impossible and identifiers unguessable.
func New() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("TXN%d%s", time.Now().UnixMilli(), suffix)
}
