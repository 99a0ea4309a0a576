package utils

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"
)

// SessionID derives a visit id from the client identity and the hour bucket of t.
// Requests on either side of an hour boundary get different ids.
func SessionID(ip, userAgent string, t time.Time) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s:%s:%d", ip, userAgent, t.Unix()/3600)))
	return hex.EncodeToString(sum[:])
}
