package utils

import (
	"crypto/md5"   // Link slug derivation (not a security boundary)
	"crypto/rand"  // Code generation
	"encoding/hex" // Slug encoding
	"fmt"          // Code formatting
	"math/big"     // Random range
	"strings"      // Email normalisation
)

// ReferralSlug derives the stable 8-character join slug from an email
func ReferralSlug(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])[:8]
}

// ReferralLink builds the shareable join link for an email
func ReferralLink(baseURL, email string) string {
	return strings.TrimRight(baseURL, "/") + "/join/" + ReferralSlug(email)
}

// NewReferralCode returns a code of the form EX-NNNN with NNNN in [1000, 9999]
func NewReferralCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("EX-%d", 1000+n.Int64()), nil
}
