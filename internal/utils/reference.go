package utils

import (
	"fmt"
	"time"
)

// GenerateReference builds a transfer reference such as FUS-20260102-7K3QZ8PA.
// It is short enough to be carried as a TON transfer comment.
func GenerateReference(prefix string) string {
	return fmt.Sprintf("%s-%s-%s", prefix, time.Now().UTC().Format("20060102"), GenerateRandomCode(8))
}
