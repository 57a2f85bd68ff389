package slug

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Charizard ex", "charizard-ex"},
		{"  Iron Hands  ", "iron-hands"},
		{"Flabébé", "flabebe"},
		{"Mr. Mime", "mr-mime"},
		{"Lost Box / Giratina", "lost-box-giratina"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Make(tt.in), "Make(%q)", tt.in)
	}
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "joao silva", NormalizeName("  João Silva "))
	assert.Equal(t, NormalizeName("ANDRÉ"), NormalizeName("andre"))
}

func TestStripDiacriticsKeepsASCII(t *testing.T) {
	assert.Equal(t, "Pikachu wins.", StripDiacritics("Pikachu wins."))
}

// Normalization runs from concurrent recomputes and request handlers, so
// it must hold up under the race detector.
func TestNormalizeNameConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				assert.Equal(t, "joao silva", NormalizeName("João Silva"))
				assert.Equal(t, "flabebe", Make("Flabébé"))
			}
		}()
	}
	wg.Wait()
}
