package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// PayloadNamespace is the fixed prefix stamped into every invoice payload this
// service issues. A pre-checkout query is authorized iff its payload carries
// this namespace; everything else fails closed.
const PayloadNamespace = "vin_report"

var ErrPayloadMismatch = errors.New("invoice payload does not belong to this service")

// Invoice is the ephemeral payment request handed to the transport. It is not
// persisted; the payload is the only correlation token that comes back.
type Invoice struct {
	ChatID      int64
	Title       string
	Description string
	Payload     string
	Currency    string
	AmountMinor int64
}

// BuildPayload encodes the namespace, the chat identity and the VIN into the
// opaque correlation token echoed back by the pre-checkout query.
func BuildPayload(chatID int64, vin string) string {
	return fmt.Sprintf("%s_%d_%s", PayloadNamespace, chatID, vin)
}

// PayloadInNamespace reports whether payload was issued by this service. The
// match requires the namespace plus its separator, so a payload merely
// containing the namespace as a substring is rejected.
func PayloadInNamespace(payload string) bool {
	return strings.HasPrefix(payload, PayloadNamespace+"_")
}

// ParsePayload recovers the chat identity and VIN embedded in a payload built
// by BuildPayload. The embedded values are used for diagnostics only; the VIN
// delivered at fulfillment always comes from the session record.
func ParsePayload(payload string) (chatID int64, vin string, err error) {
	if !PayloadInNamespace(payload) {
		return 0, "", ErrPayloadMismatch
	}
	rest := strings.TrimPrefix(payload, PayloadNamespace+"_")
	parts := strings.SplitN(rest, "_", 2)
	if len(parts) != 2 {
		return 0, "", ErrPayloadMismatch
	}
	chatID, err = strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, "", ErrPayloadMismatch
	}
	return chatID, parts[1], nil
}
