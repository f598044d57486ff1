package cache

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strconv"

	"github.com/colmeia-ooh/colmeia/internal/model"
)

// HexagonFingerprint identifies a hexagon set by the pk, group, count and
// flow of each member, independent of order.
func HexagonFingerprint(hexagons []model.Hexagon) string {
	lines := make([]string, len(hexagons))
	for i, h := range hexagons {
		lines[i] = strconv.FormatInt(h.PK, 10) + "|" + h.Grupo + "|" +
			strconv.Itoa(h.Count) + "|" + strconv.FormatFloat(h.CalculatedFluxoEstimado, 'g', -1, 64)
	}
	sort.Strings(lines)

	hash := sha256.New()
	for _, l := range lines {
		hash.Write([]byte(l))
		hash.Write([]byte{'\n'})
	}
	return fmt.Sprintf("%x", hash.Sum(nil))
}
