package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const numberBytes = "0123456789"

func GenerateRandomNumericString(length int) string {
	result := make([]byte, length)
	charsetLength := big.NewInt(int64(len(numberBytes)))

	for i := range result {
		num, _ := rand.Int(rand.Reader, charsetLength)
		result[i] = numberBytes[num.Int64()]
	}

	return string(result)
}

// GenerateTripNumber produces the human-facing reference, e.g. TR-20260830-493027
// for rides and DL-20260830-104455 for deliveries.
func GenerateTripNumber(prefix string) string {
	return fmt.Sprintf("%s-%s-%s", prefix, time.Now().Format("20060102"), GenerateRandomNumericString(6))
}
