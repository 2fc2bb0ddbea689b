// AngelaMos | 2026
// code.go

package reward

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	codeAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeGroups    = 3
	codeGroupSize = 4
)

// Generator produces redemption codes of the form PREFIX-XXXX-XXXX-XXXX,
// with each X drawn uniformly from the uppercase alphanumerics.
type Generator struct {
	Prefix string
}

func (g Generator) NewCode() (string, error) {
	alphabetLen := big.NewInt(int64(len(codeAlphabet)))

	var sb strings.Builder
	sb.WriteString(g.Prefix)

	for group := 0; group < codeGroups; group++ {
		sb.WriteByte('-')
		for i := 0; i < codeGroupSize; i++ {
			n, err := rand.Int(rand.Reader, alphabetLen)
			if err != nil {
				return "", fmt.Errorf("generate code: %w", err)
			}
			sb.WriteByte(codeAlphabet[n.Int64()])
		}
	}

	return sb.String(), nil
}
