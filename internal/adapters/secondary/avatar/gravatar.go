package avatar

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/jupiterclapton/complexapp/internal/core/domain"
)

const defaultSize = 128

// Gravatar builds the avatar URL from the author's e-mail hash.
type Gravatar struct {
	baseURL string
	size    int
}

func NewGravatar() *Gravatar {
	return &Gravatar{baseURL: "https://gravatar.com/avatar", size: defaultSize}
}

func (g *Gravatar) Avatar(a domain.Author) string {
	// Gravatar keys on md5 of the trimmed, lowercased address
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(a.Email))))
	return fmt.Sprintf("%s/%s?s=%d", g.baseURL, hex.EncodeToString(sum[:]), g.size)
}
