package store

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

const keeperCodeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewKeeperCode generates a human-shareable keeper code, e.g. SK25A7X9C.
// Callers must retry on a unique-index collision.
func NewKeeperCode() string {
	year := time.Now().Format("06")
	var b strings.Builder
	b.WriteString("SK")
	b.WriteString(year)
	for i := 0; i < 5; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(keeperCodeChars))))
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken
			panic(fmt.Sprintf("keeper code generation: %v", err))
		}
		b.WriteByte(keeperCodeChars[n.Int64()])
	}
	return b.String()
}

// NewAPIKey generates the durable bearer credential for a shop.
func NewAPIKey() string {
	return strings.ReplaceAll(uuid.New().String()+uuid.New().String(), "-", "")
}

// NewActivationCode generates a single-use verification code.
func NewActivationCode() string {
	return uuid.New().String()
}
