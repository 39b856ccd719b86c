package simulate

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// Hash generation constants.
const (
	hashLength = 64
	// nearMissFlips stays inside the default distance threshold so the
	// submission auto-approves; reviewFlips lands well outside it.
	nearMissFlips = 3
	reviewFlips   = 20
)

// level pairs a generated level with the hash teams will submit for it.
type level struct {
	ID      string
	Name    string
	PHash   string
	IsFinal bool
}

// team is a generated marathon participant.
type team struct {
	ID             string
	Name           string
	AssignedLevels []string
}

// randomHash produces a 64-character binary-alphabet perceptual hash.
func randomHash() string {
	var b strings.Builder
	b.Grow(hashLength)
	for i := 0; i < hashLength; i++ {
		n, _ := rand.Int(rand.Reader, big.NewInt(2))
		if n.Int64() == 0 {
			b.WriteByte('0')
		} else {
			b.WriteByte('1')
		}
	}
	return b.String()
}

// corruptHash flips the given number of positions in a hash.
func corruptHash(h string, flips int) string {
	b := []byte(h)
	for i := 0; i < flips && i < len(b); i++ {
		idx, _ := rand.Int(rand.Reader, big.NewInt(int64(len(b))))
		j := idx.Int64()
		if b[j] == '0' {
			b[j] = '1'
		} else {
			b[j] = '0'
		}
	}
	return string(b)
}

// randomFloat returns a random float64 in [0,1).
func randomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(1_000_000))
	return float64(n.Int64()) / 1_000_000
}

// generateLevels builds the shared level set plus the mandatory final level.
func generateLevels(count int) []level {
	levels := make([]level, 0, count+1)
	for i := 0; i < count; i++ {
		levels = append(levels, level{
			ID:    uuid.New().String(),
			Name:  "level-" + uuid.New().String()[:8],
			PHash: randomHash(),
		})
	}
	levels = append(levels, level{
		ID:      uuid.New().String(),
		Name:    "final",
		PHash:   randomHash(),
		IsFinal: true,
	})
	return levels
}

// generateTeams builds teams all assigned the same non-final level sequence.
func generateTeams(count int, levels []level) []team {
	assigned := make([]string, 0, len(levels))
	for _, l := range levels {
		if !l.IsFinal {
			assigned = append(assigned, l.ID)
		}
	}

	teams := make([]team, count)
	for i := range teams {
		teams[i] = team{
			ID:             uuid.New().String(),
			Name:           "team-" + uuid.New().String()[:8],
			AssignedLevels: assigned,
		}
	}
	return teams
}
